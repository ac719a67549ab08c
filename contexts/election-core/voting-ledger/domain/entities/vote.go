package entities

import "time"

// LedgerRef is the externally-issued proof that a submission was durably
// recorded: transaction hash plus block number.
type LedgerRef struct {
	TxHash      string
	BlockNumber uint64
}

type Vote struct {
	VoteID      string
	ElectionID  string
	CandidateID string
	VoterID     string
	CastAt      time.Time
	Ledger      LedgerRef
}

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusConfirmed TransactionStatus = "confirmed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// Transaction is one append-only audit record. Once a transaction reaches
// confirmed or failed it is immutable; corrections append a new record.
type Transaction struct {
	TxHash      string
	BlockNumber uint64
	Timestamp   time.Time
	From        string
	To          string
	ElectionID  string
	Description string
	Status      TransactionStatus
}
