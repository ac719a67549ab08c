package errors

import "errors"

var (
	ErrInvalidElectionDraft = errors.New("invalid election draft")
	ErrElectionNotFound     = errors.New("election not found")
	ErrElectionNotActive    = errors.New("election is not active")
	ErrUnknownCandidate     = errors.New("candidate does not belong to election")
	ErrDuplicateVote        = errors.New("voter has already voted in this election")
	ErrVoteNotFound         = errors.New("vote not found")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrSubmissionRejected   = errors.New("ledger submission was rejected by the signer")
	ErrConfirmationTimeout  = errors.New("ledger confirmation timed out")
	ErrChainUnavailable     = errors.New("external ledger is unreachable")
	ErrNotAuthorized        = errors.New("actor is not authorized for this operation")
	ErrConflict             = errors.New("ledger record conflict")

	// Synchronous submission failures surfaced by the chain adapter.
	ErrUserRejected = errors.New("signer rejected the transaction")
	ErrNoAccount    = errors.New("no acting account is connected")
)
