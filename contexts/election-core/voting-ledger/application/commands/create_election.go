package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "electra/contexts/election-core/voting-ledger/application"
	"electra/contexts/election-core/voting-ledger/domain/entities"
	domainerrors "electra/contexts/election-core/voting-ledger/domain/errors"
	"electra/contexts/election-core/voting-ledger/ports"

	"github.com/go-playground/validator/v10"
)

// CandidateDraft is one candidate in an election draft. Tallies are always
// normalized to zero on creation regardless of input.
type CandidateDraft struct {
	Name     string `validate:"required"`
	Party    string `validate:"required"`
	ImageURL string
}

// CreateElectionCommand is the write-model input for election creation.
type CreateElectionCommand struct {
	Actor       entities.Actor
	Title       string           `validate:"required"`
	Description string           `validate:"required"`
	StartDate   time.Time        `validate:"required"`
	EndDate     time.Time        `validate:"required"`
	Candidates  []CandidateDraft `validate:"min=2,dive"`
}

type CreateElectionResult struct {
	Election entities.Election
	Status   entities.ElectionStatus
}

// CreateElectionUseCase runs the simpler two-step creation protocol:
// validate, then persist-and-append. There is no vote concept here and no
// duplicate check beyond candidate-name uniqueness.
type CreateElectionUseCase struct {
	Elections    ports.ElectionRepository
	Transactions ports.TransactionLog
	Refs         ports.LedgerRefSource
	Snapshots    ports.SnapshotPublisher
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	Validate     *validator.Validate
	Logger       *slog.Logger
}

func (uc CreateElectionUseCase) CreateElection(ctx context.Context, cmd CreateElectionCommand) (CreateElectionResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	logger.Info("election create started",
		"event", "ledger_election_create_started",
		"module", "election-core/voting-ledger",
		"layer", "application",
		"title", strings.TrimSpace(cmd.Title),
		"actor_id", strings.TrimSpace(cmd.Actor.ActorID),
	)

	if !cmd.Actor.CanAdminister() {
		return CreateElectionResult{}, fmt.Errorf("create election: %w", domainerrors.ErrNotAuthorized)
	}
	if err := uc.validateDraft(cmd); err != nil {
		logger.Warn("election draft rejected",
			"event", "ledger_election_create_validation_failed",
			"module", "election-core/voting-ledger",
			"layer", "application",
			"title", strings.TrimSpace(cmd.Title),
			"error", err.Error(),
		)
		return CreateElectionResult{}, err
	}

	now := uc.now()
	electionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CreateElectionResult{}, err
	}
	candidates := make([]entities.Candidate, 0, len(cmd.Candidates))
	for _, draft := range cmd.Candidates {
		candidateID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return CreateElectionResult{}, err
		}
		candidates = append(candidates, entities.Candidate{
			CandidateID: candidateID,
			Name:        strings.TrimSpace(draft.Name),
			Party:       strings.TrimSpace(draft.Party),
			ImageURL:    strings.TrimSpace(draft.ImageURL),
			VoteCount:   0,
		})
	}
	election := entities.Election{
		ElectionID:  electionID,
		Title:       strings.TrimSpace(cmd.Title),
		Description: strings.TrimSpace(cmd.Description),
		StartDate:   cmd.StartDate.UTC(),
		EndDate:     cmd.EndDate.UTC(),
		Candidates:  candidates,
		CreatedBy:   strings.TrimSpace(cmd.Actor.ActorID),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ref, err := uc.Refs.NewRef(ctx)
	if err != nil {
		return CreateElectionResult{}, fmt.Errorf("%v: %w", err, domainerrors.ErrChainUnavailable)
	}
	if err := uc.Elections.SaveElection(ctx, election); err != nil {
		return CreateElectionResult{}, err
	}
	tx := entities.Transaction{
		TxHash:      ref.TxHash,
		BlockNumber: ref.BlockNumber,
		Timestamp:   now,
		From:        systemOriginLabel,
		To:          electionContractLabel,
		ElectionID:  electionID,
		Description: fmt.Sprintf("Election %q created", election.Title),
		Status:      entities.TransactionStatusConfirmed,
	}
	if err := uc.Transactions.AppendTransaction(ctx, tx); err != nil {
		return CreateElectionResult{}, err
	}

	uc.publishCreated(ctx, election, tx)
	logger.Info("election created",
		"event", "ledger_election_created",
		"module", "election-core/voting-ledger",
		"layer", "application",
		"election_id", election.ElectionID,
		"title", election.Title,
		"tx_hash", tx.TxHash,
	)
	return CreateElectionResult{
		Election: election,
		Status:   election.StatusAt(now),
	}, nil
}

func (uc CreateElectionUseCase) validateDraft(cmd CreateElectionCommand) error {
	if uc.Validate != nil {
		if err := uc.Validate.Struct(cmd); err != nil {
			return fmt.Errorf("%v: %w", err, domainerrors.ErrInvalidElectionDraft)
		}
	} else if len(cmd.Candidates) < 2 || strings.TrimSpace(cmd.Title) == "" {
		return domainerrors.ErrInvalidElectionDraft
	}
	if !cmd.EndDate.After(cmd.StartDate) {
		return fmt.Errorf("end date must be after start date: %w", domainerrors.ErrInvalidElectionDraft)
	}
	seen := make(map[string]struct{}, len(cmd.Candidates))
	for _, draft := range cmd.Candidates {
		name := strings.ToLower(strings.TrimSpace(draft.Name))
		if _, dup := seen[name]; dup {
			return fmt.Errorf("candidate name %q collides case-insensitively: %w",
				strings.TrimSpace(draft.Name), domainerrors.ErrInvalidElectionDraft)
		}
		seen[name] = struct{}{}
	}
	return nil
}

func (uc CreateElectionUseCase) publishCreated(ctx context.Context, election entities.Election, tx entities.Transaction) {
	if uc.Snapshots == nil {
		return
	}
	logger := application.ResolveLogger(uc.Logger)
	if err := uc.Snapshots.Publish(ctx, EventElectionCreated, election); err != nil {
		logger.Warn("snapshot publish failed",
			"event", "ledger_snapshot_publish_failed",
			"module", "election-core/voting-ledger",
			"layer", "application",
			"event_type", EventElectionCreated,
			"error", err.Error(),
		)
	}
	if err := uc.Snapshots.Publish(ctx, EventTransactionAppended, tx); err != nil {
		logger.Warn("snapshot publish failed",
			"event", "ledger_snapshot_publish_failed",
			"module", "election-core/voting-ledger",
			"layer", "application",
			"event_type", EventTransactionAppended,
			"error", err.Error(),
		)
	}
}

func (uc CreateElectionUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
