package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "electra/contexts/election-core/voting-ledger/application"
	"electra/contexts/election-core/voting-ledger/domain/entities"
	domainerrors "electra/contexts/election-core/voting-ledger/domain/errors"
	"electra/contexts/election-core/voting-ledger/ports"
)

const (
	votingContractLabel   = "VotingSmartContract"
	electionContractLabel = "ElectionSmartContract"
	systemOriginLabel     = "ElectraSystem"

	defaultConfirmationTimeout = 30 * time.Second
)

// CastVoteCommand is the write-model input for casting one vote.
type CastVoteCommand struct {
	ElectionID  string
	CandidateID string
	Actor       entities.Actor
}

type CastVoteResult struct {
	Vote     entities.Vote
	Election entities.Election
	Status   entities.ElectionStatus
}

// CastVoteUseCase is the vote-casting orchestrator. It validates a request
// against the election store and the vote ledger, submits through the chain
// adapter, and on confirmation commits the vote, the tally increment, and the
// audit transaction as one logical unit. On any failure before commit the
// three stores stay untouched.
//
// A per-(election_id, voter_id) gate is held from validation through commit or
// rollback, so two concurrent casts for one pair cannot both pass validation.
type CastVoteUseCase struct {
	Elections    ports.ElectionRepository
	Votes        ports.VoteRepository
	Transactions ports.TransactionLog
	Chain        ports.ChainAdapter
	Refs         ports.LedgerRefSource
	Snapshots    ports.SnapshotPublisher
	Clock        ports.Clock
	IDGen        ports.IDGenerator

	Gate     *PairGate
	Accounts *AccountState
	Inflight *InflightTracker

	ConfirmationTimeout time.Duration
	Metrics             *Metrics
	Logger              *slog.Logger
}

// CastVote runs the full state machine:
// Validating -> Submitting -> AwaitingConfirmation -> Committing | RollingBack.
func (uc CastVoteUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (CastVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	electionID := strings.TrimSpace(cmd.ElectionID)
	candidateID := strings.TrimSpace(cmd.CandidateID)
	voterID := strings.TrimSpace(cmd.Actor.ActorID)

	logger.Info("vote cast started",
		"event", "ledger_vote_cast_started",
		"module", "election-core/voting-ledger",
		"layer", "application",
		"election_id", electionID,
		"candidate_id", candidateID,
		"voter_id", voterID,
	)

	if !cmd.Actor.CanVote() || voterID == "" {
		uc.Metrics.rejected("not_authorized")
		return CastVoteResult{}, fmt.Errorf("cast vote: %w", domainerrors.ErrNotAuthorized)
	}
	if electionID == "" {
		uc.Metrics.rejected("not_found")
		return CastVoteResult{}, domainerrors.ErrElectionNotFound
	}
	if candidateID == "" {
		uc.Metrics.rejected("unknown_candidate")
		return CastVoteResult{}, domainerrors.ErrUnknownCandidate
	}

	key := pairKey(electionID, voterID)
	uc.Gate.Lock(key)
	defer uc.Gate.Unlock(key)

	// Validating. All reads are against the committed snapshot; no external
	// call happens until every check passes.
	election, err := uc.Elections.GetElection(ctx, electionID)
	if err != nil {
		uc.Metrics.rejected("not_found")
		return CastVoteResult{}, err
	}
	now := uc.now()
	if status := election.StatusAt(now); status != entities.ElectionStatusActive {
		logger.Warn("vote cast rejected on election status",
			"event", "ledger_vote_cast_election_not_active",
			"module", "election-core/voting-ledger",
			"layer", "application",
			"election_id", electionID,
			"status", string(status),
		)
		uc.Metrics.rejected("election_not_active")
		return CastVoteResult{}, domainerrors.ErrElectionNotActive
	}
	if _, ok := election.Candidate(candidateID); !ok {
		uc.Metrics.rejected("unknown_candidate")
		return CastVoteResult{}, domainerrors.ErrUnknownCandidate
	}
	voted, err := uc.Votes.HasVoted(ctx, electionID, voterID)
	if err != nil {
		return CastVoteResult{}, err
	}
	if voted {
		uc.Metrics.rejected("duplicate")
		return CastVoteResult{}, domainerrors.ErrDuplicateVote
	}
	if current := uc.currentAccount(); current != "" && cmd.Actor.Account != "" && current != cmd.Actor.Account {
		logger.Warn("vote cast rejected on acting account change",
			"event", "ledger_vote_cast_account_changed",
			"module", "election-core/voting-ledger",
			"layer", "application",
			"voter_id", voterID,
		)
		uc.Metrics.rejected("account_changed")
		return CastVoteResult{}, fmt.Errorf("acting account changed before submission: %w", domainerrors.ErrSubmissionRejected)
	}

	// Submitting. A synchronous failure here means nothing was sent and
	// nothing is mutated.
	ref, err := uc.Chain.Submit(ctx, candidateID, cmd.Actor.Account)
	if err != nil {
		uc.Metrics.rejected("submission")
		return CastVoteResult{}, classifySubmitError(err)
	}
	logger.Info("vote submitted to chain",
		"event", "ledger_vote_submitted",
		"module", "election-core/voting-ledger",
		"layer", "application",
		"election_id", electionID,
		"submission_id", ref.SubmissionID,
	)

	// AwaitingConfirmation. The wait is bounded by the configured ceiling and
	// detached from the caller's cancellation: once submitted, the request is
	// treated as irrevocable and must resolve either way.
	confirmCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.confirmationTimeout())
	confirmation, err := uc.Chain.AwaitConfirmation(confirmCtx, ref)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return CastVoteResult{}, uc.rollBackOnTimeout(cmd, ref, now, logger)
		}
		// Definitive failure: the ledger will never confirm this submission.
		uc.appendFailedAudit(context.WithoutCancel(ctx), electionID, voterID, now,
			fmt.Sprintf("Vote submission failed in election %s", electionID))
		uc.Metrics.rejected("confirmation_failed")
		return CastVoteResult{}, classifyConfirmError(err)
	}

	// Committing.
	result, err := uc.commitLocked(context.WithoutCancel(ctx), cmd, confirmation, uc.now())
	if err != nil {
		return CastVoteResult{}, err
	}
	uc.Metrics.committed()
	logger.Info("vote committed",
		"event", "ledger_vote_committed",
		"module", "election-core/voting-ledger",
		"layer", "application",
		"election_id", electionID,
		"vote_id", result.Vote.VoteID,
		"tx_hash", result.Vote.Ledger.TxHash,
		"block_number", result.Vote.Ledger.BlockNumber,
	)
	return result, nil
}

// rollBackOnTimeout appends the failed audit row and hands the still-pending
// submission to a detached wait. The external ledger may confirm after the
// ceiling; that late confirmation retries the commit (see resolveLate).
func (uc CastVoteUseCase) rollBackOnTimeout(
	cmd CastVoteCommand,
	ref ports.PendingRef,
	now time.Time,
	logger *slog.Logger,
) error {
	electionID := strings.TrimSpace(cmd.ElectionID)
	voterID := strings.TrimSpace(cmd.Actor.ActorID)

	uc.Metrics.timedOut()
	uc.appendFailedAudit(context.Background(), electionID, voterID, now,
		fmt.Sprintf("Vote confirmation timed out in election %s", electionID))
	logger.Warn("vote confirmation timed out",
		"event", "ledger_vote_confirmation_timeout",
		"module", "election-core/voting-ledger",
		"layer", "application",
		"election_id", electionID,
		"submission_id", ref.SubmissionID,
	)

	uc.Inflight.add()
	go func() {
		defer uc.Inflight.done()
		uc.resolveLate(ref, cmd)
	}()
	return domainerrors.ErrConfirmationTimeout
}

// resolveLate finishes a confirmation wait that outlived its request. A late
// success retries the commit under the pair gate; if another path already
// recorded the pair in the meantime the result is discarded and a failed
// superseded transaction is appended for audit. A vote is never counted twice.
func (uc CastVoteUseCase) resolveLate(ref ports.PendingRef, cmd CastVoteCommand) {
	logger := application.ResolveLogger(uc.Logger)
	ctx := context.Background()
	electionID := strings.TrimSpace(cmd.ElectionID)
	voterID := strings.TrimSpace(cmd.Actor.ActorID)

	confirmation, err := uc.Chain.AwaitConfirmation(ctx, ref)
	if err != nil {
		logger.Warn("late confirmation resolved as failed",
			"event", "ledger_late_confirmation_failed",
			"module", "election-core/voting-ledger",
			"layer", "application",
			"election_id", electionID,
			"submission_id", ref.SubmissionID,
			"error", err.Error(),
		)
		return
	}

	key := pairKey(electionID, voterID)
	uc.Gate.Lock(key)
	defer uc.Gate.Unlock(key)

	voted, err := uc.Votes.HasVoted(ctx, electionID, voterID)
	if err != nil {
		logger.Error("late confirmation ledger check failed",
			"event", "ledger_late_confirmation_check_failed",
			"module", "election-core/voting-ledger",
			"layer", "application",
			"election_id", electionID,
			"error", err.Error(),
		)
		return
	}
	now := uc.now()
	if voted {
		uc.Metrics.lateDiscarded()
		uc.appendTransaction(ctx, entities.Transaction{
			TxHash:      confirmation.TxHash,
			BlockNumber: confirmation.BlockNumber,
			Timestamp:   now,
			From:        voterOriginLabel(voterID),
			To:          votingContractLabel,
			ElectionID:  electionID,
			Description: fmt.Sprintf("Late confirmation superseded in election %s", electionID),
			Status:      entities.TransactionStatusFailed,
		})
		logger.Info("late confirmation discarded, pair already recorded",
			"event", "ledger_late_confirmation_discarded",
			"module", "election-core/voting-ledger",
			"layer", "application",
			"election_id", electionID,
			"voter_id", voterID,
		)
		return
	}

	if _, err := uc.commitLocked(ctx, cmd, confirmation, now); err != nil {
		logger.Error("late confirmation commit failed",
			"event", "ledger_late_confirmation_commit_failed",
			"module", "election-core/voting-ledger",
			"layer", "application",
			"election_id", electionID,
			"error", err.Error(),
		)
		return
	}
	uc.Metrics.lateCommitted()
	logger.Info("late confirmation committed",
		"event", "ledger_late_confirmation_committed",
		"module", "election-core/voting-ledger",
		"layer", "application",
		"election_id", electionID,
		"voter_id", voterID,
	)
}

// commitLocked applies the three-store commit. The caller must hold the pair
// gate. If the duplicate check inside RecordVote now trips because a racing
// submission won, this result is discarded even though the external
// submission succeeded, and the duplicate error is surfaced.
func (uc CastVoteUseCase) commitLocked(
	ctx context.Context,
	cmd CastVoteCommand,
	confirmation ports.Confirmation,
	now time.Time,
) (CastVoteResult, error) {
	electionID := strings.TrimSpace(cmd.ElectionID)
	candidateID := strings.TrimSpace(cmd.CandidateID)
	voterID := strings.TrimSpace(cmd.Actor.ActorID)

	voteID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CastVoteResult{}, err
	}
	vote := entities.Vote{
		VoteID:      voteID,
		ElectionID:  electionID,
		CandidateID: candidateID,
		VoterID:     voterID,
		CastAt:      now,
		Ledger: entities.LedgerRef{
			TxHash:      confirmation.TxHash,
			BlockNumber: confirmation.BlockNumber,
		},
	}
	if err := uc.Votes.RecordVote(ctx, vote); err != nil {
		if errors.Is(err, domainerrors.ErrDuplicateVote) {
			uc.Metrics.rejected("duplicate_after_confirmation")
			uc.appendTransaction(ctx, entities.Transaction{
				TxHash:      confirmation.TxHash,
				BlockNumber: confirmation.BlockNumber,
				Timestamp:   now,
				From:        voterOriginLabel(voterID),
				To:          votingContractLabel,
				ElectionID:  electionID,
				Description: fmt.Sprintf("Duplicate confirmation discarded in election %s", electionID),
				Status:      entities.TransactionStatusFailed,
			})
		}
		return CastVoteResult{}, err
	}

	election, err := uc.Elections.ApplyVote(ctx, electionID, candidateID)
	if err != nil {
		// Validation held the election and candidate in place and only this
		// orchestrator writes, so reaching here means infrastructure failure
		// mid-commit. Surface it loudly; the audit trail stays append-only.
		application.ResolveLogger(uc.Logger).Error("tally increment failed after vote record",
			"event", "ledger_commit_inconsistent",
			"module", "election-core/voting-ledger",
			"layer", "application",
			"election_id", electionID,
			"vote_id", vote.VoteID,
			"error", err.Error(),
		)
		return CastVoteResult{}, err
	}

	tx := entities.Transaction{
		TxHash:      confirmation.TxHash,
		BlockNumber: confirmation.BlockNumber,
		Timestamp:   now,
		From:        voterOriginLabel(voterID),
		To:          votingContractLabel,
		ElectionID:  electionID,
		Description: fmt.Sprintf("Vote cast in election %s", electionID),
		Status:      entities.TransactionStatusConfirmed,
	}
	if err := uc.Transactions.AppendTransaction(ctx, tx); err != nil {
		return CastVoteResult{}, err
	}

	uc.publish(ctx, EventVoteRecorded, vote)
	uc.publish(ctx, EventElectionUpdated, election)
	uc.publish(ctx, EventTransactionAppended, tx)

	return CastVoteResult{
		Vote:     vote,
		Election: election,
		Status:   election.StatusAt(now),
	}, nil
}

func (uc CastVoteUseCase) appendFailedAudit(
	ctx context.Context,
	electionID string,
	voterID string,
	now time.Time,
	description string,
) {
	if uc.Refs == nil {
		return
	}
	ref, err := uc.Refs.NewRef(ctx)
	if err != nil {
		return
	}
	uc.appendTransaction(ctx, entities.Transaction{
		TxHash:      ref.TxHash,
		BlockNumber: ref.BlockNumber,
		Timestamp:   now,
		From:        voterOriginLabel(voterID),
		To:          votingContractLabel,
		ElectionID:  electionID,
		Description: description,
		Status:      entities.TransactionStatusFailed,
	})
}

func (uc CastVoteUseCase) appendTransaction(ctx context.Context, tx entities.Transaction) {
	if err := uc.Transactions.AppendTransaction(ctx, tx); err != nil {
		application.ResolveLogger(uc.Logger).Error("audit transaction append failed",
			"event", "ledger_audit_append_failed",
			"module", "election-core/voting-ledger",
			"layer", "application",
			"tx_hash", tx.TxHash,
			"error", err.Error(),
		)
	}
}

func (uc CastVoteUseCase) publish(ctx context.Context, eventType string, payload any) {
	if uc.Snapshots == nil {
		return
	}
	if err := uc.Snapshots.Publish(ctx, eventType, payload); err != nil {
		application.ResolveLogger(uc.Logger).Warn("snapshot publish failed",
			"event", "ledger_snapshot_publish_failed",
			"module", "election-core/voting-ledger",
			"layer", "application",
			"event_type", eventType,
			"error", err.Error(),
		)
	}
}

func (uc CastVoteUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (uc CastVoteUseCase) confirmationTimeout() time.Duration {
	if uc.ConfirmationTimeout <= 0 {
		return defaultConfirmationTimeout
	}
	return uc.ConfirmationTimeout
}

func (uc CastVoteUseCase) currentAccount() string {
	if uc.Accounts == nil {
		return ""
	}
	return uc.Accounts.Current()
}

func classifySubmitError(err error) error {
	switch {
	case errors.Is(err, domainerrors.ErrUserRejected),
		errors.Is(err, domainerrors.ErrNoAccount):
		return fmt.Errorf("%v: %w", err, domainerrors.ErrSubmissionRejected)
	case errors.Is(err, domainerrors.ErrChainUnavailable):
		return err
	default:
		return fmt.Errorf("%v: %w", err, domainerrors.ErrChainUnavailable)
	}
}

func classifyConfirmError(err error) error {
	switch {
	case errors.Is(err, domainerrors.ErrSubmissionRejected),
		errors.Is(err, domainerrors.ErrChainUnavailable):
		return err
	default:
		return fmt.Errorf("%v: %w", err, domainerrors.ErrChainUnavailable)
	}
}

func voterOriginLabel(voterID string) string {
	return "voter:" + voterID
}
