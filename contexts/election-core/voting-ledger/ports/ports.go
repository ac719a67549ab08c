package ports

import (
	"context"
	"time"

	"electra/contexts/election-core/voting-ledger/domain/entities"
)

type ElectionRepository interface {
	SaveElection(ctx context.Context, election entities.Election) error
	GetElection(ctx context.Context, electionID string) (entities.Election, error)
	ListElections(ctx context.Context) ([]entities.Election, error)
	// ApplyVote increments exactly one candidate tally by one and returns the
	// updated election. Unknown election or candidate ids fail with the
	// corresponding domain error.
	ApplyVote(ctx context.Context, electionID string, candidateID string) (entities.Election, error)
	CountElections(ctx context.Context) (int, error)
}

type VoteRepository interface {
	// RecordVote inserts the vote keyed by (election_id, voter_id). The
	// existence check and the insert are one atomic step; a second record for
	// the same pair fails with ErrDuplicateVote.
	RecordVote(ctx context.Context, vote entities.Vote) error
	GetVote(ctx context.Context, electionID string, voterID string) (entities.Vote, bool, error)
	HasVoted(ctx context.Context, electionID string, voterID string) (bool, error)
	ListVotesByElection(ctx context.Context, electionID string) ([]entities.Vote, error)
}

type TransactionLog interface {
	// AppendTransaction inserts at the end; storage order is commit order.
	AppendTransaction(ctx context.Context, transaction entities.Transaction) error
	// ListTransactions returns records most-recent-first. limit <= 0 means all.
	ListTransactions(ctx context.Context, limit int) ([]entities.Transaction, error)
	ListTransactionsByElection(ctx context.Context, electionID string) ([]entities.Transaction, error)
}

// PendingRef identifies an in-flight ledger submission prior to confirmation.
type PendingRef struct {
	SubmissionID string
	CandidateID  string
	Account      string
	SubmittedAt  time.Time
}

// Confirmation is the final ledger reference for a confirmed submission.
type Confirmation struct {
	TxHash      string
	BlockNumber uint64
}

type CandidateTally struct {
	Name  string
	Count int
}

type ChainNotificationKind string

const (
	ChainNotificationAccountChanged ChainNotificationKind = "account_changed"
	ChainNotificationNetworkChanged ChainNotificationKind = "network_changed"
)

// ChainNotification invalidates in-flight assumptions about the acting
// account or the connected network.
type ChainNotification struct {
	Kind    ChainNotificationKind
	Account string
	ChainID string
}

// ChainAdapter abstracts the external vote-submission channel. Submit fails
// synchronously when the signer declines or no account is connected;
// AwaitConfirmation blocks until the ledger settles the submission or the
// context expires.
type ChainAdapter interface {
	Submit(ctx context.Context, candidateID string, actingAccount string) (PendingRef, error)
	AwaitConfirmation(ctx context.Context, ref PendingRef) (Confirmation, error)
	HasVoted(ctx context.Context, account string) (bool, error)
	CandidateTally(ctx context.Context, candidateID string) (CandidateTally, error)
	CandidateCount(ctx context.Context) (int, error)
	Notifications() <-chan ChainNotification
}

// LedgerRefSource issues ledger references for records that do not come out
// of a vote confirmation: election-creation transactions and failed audit
// rows. The simulated chain adapter implements it; a real adapter derives
// references from actual ledger transactions.
type LedgerRefSource interface {
	NewRef(ctx context.Context) (entities.LedgerRef, error)
}

// SnapshotPublisher fans committed state changes out to subscribers. The UI
// only ever observes committed snapshots published here.
type SnapshotPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
