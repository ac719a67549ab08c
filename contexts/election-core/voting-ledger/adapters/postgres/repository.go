package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"electra/contexts/election-core/voting-ledger/domain/entities"
	domainerrors "electra/contexts/election-core/voting-ledger/domain/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the postgres adapter for the three collections. The
// one-vote-per-voter-per-election invariant is backed by the unique index on
// (election_id, voter_id); a racing insert surfaces as a unique violation and
// maps to the duplicate-vote error.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

func (r *Repository) SaveElection(ctx context.Context, election entities.Election) error {
	row := electionModelFromEntity(election)
	candidates := candidateModelsFromEntity(election)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"title":       row.Title,
				"description": row.Description,
				"start_date":  row.StartDate,
				"end_date":    row.EndDate,
				"created_by":  row.CreatedBy,
				"updated_at":  row.UpdatedAt,
			}),
		}).Create(&row).Error; err != nil {
			return r.logError("ledger_repo_save_election_failed", err, "election_id", row.ID)
		}
		for _, candidate := range candidates {
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "election_id"}, {Name: "id"}},
				DoUpdates: clause.Assignments(map[string]any{
					"name":       candidate.Name,
					"party":      candidate.Party,
					"image_url":  candidate.ImageURL,
					"vote_count": candidate.VoteCount,
					"position":   candidate.Position,
				}),
			}).Create(&candidate).Error; err != nil {
				return r.logError("ledger_repo_save_candidate_failed", err,
					"election_id", row.ID,
					"candidate_id", candidate.ID,
				)
			}
		}
		return nil
	})
}

func (r *Repository) GetElection(ctx context.Context, electionID string) (entities.Election, error) {
	var row electionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(electionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Election{}, domainerrors.ErrElectionNotFound
		}
		return entities.Election{}, r.logError("ledger_repo_get_election_failed", err,
			"election_id", strings.TrimSpace(electionID))
	}
	candidates, err := r.candidatesFor(ctx, row.ID)
	if err != nil {
		return entities.Election{}, err
	}
	return row.toEntity(candidates), nil
}

func (r *Repository) ListElections(ctx context.Context) ([]entities.Election, error) {
	var rows []electionModel
	if err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_elections_failed", err)
	}
	items := make([]entities.Election, 0, len(rows))
	for _, row := range rows {
		candidates, err := r.candidatesFor(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		items = append(items, row.toEntity(candidates))
	}
	return items, nil
}

func (r *Repository) CountElections(ctx context.Context) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&electionModel{}).
		Count(&count).Error; err != nil {
		return 0, r.logError("ledger_repo_count_elections_failed", err)
	}
	return int(count), nil
}

func (r *Repository) ApplyVote(ctx context.Context, electionID string, candidateID string) (entities.Election, error) {
	electionID = strings.TrimSpace(electionID)
	candidateID = strings.TrimSpace(candidateID)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&electionModel{}).
			Where("id = ?", electionID).
			Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return domainerrors.ErrElectionNotFound
		}
		update := tx.Model(&candidateModel{}).
			Where("election_id = ? AND id = ?", electionID, candidateID).
			Updates(map[string]any{
				"vote_count": gorm.Expr("vote_count + 1"),
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return domainerrors.ErrUnknownCandidate
		}
		return tx.Model(&electionModel{}).
			Where("id = ?", electionID).
			Update("updated_at", time.Now().UTC()).Error
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrElectionNotFound) ||
			errors.Is(err, domainerrors.ErrUnknownCandidate) {
			return entities.Election{}, err
		}
		return entities.Election{}, r.logError("ledger_repo_apply_vote_failed", err,
			"election_id", electionID,
			"candidate_id", candidateID,
		)
	}
	return r.GetElection(ctx, electionID)
}

func (r *Repository) RecordVote(ctx context.Context, vote entities.Vote) error {
	row := voteModelFromEntity(vote)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicateVote
		}
		return r.logError("ledger_repo_record_vote_failed", err,
			"election_id", row.ElectionID,
			"voter_id", row.VoterID,
		)
	}
	return nil
}

func (r *Repository) GetVote(ctx context.Context, electionID string, voterID string) (entities.Vote, bool, error) {
	var row voteModel
	err := r.db.WithContext(ctx).
		Where("election_id = ? AND voter_id = ?", strings.TrimSpace(electionID), strings.TrimSpace(voterID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Vote{}, false, nil
		}
		return entities.Vote{}, false, r.logError("ledger_repo_get_vote_failed", err,
			"election_id", strings.TrimSpace(electionID),
			"voter_id", strings.TrimSpace(voterID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) HasVoted(ctx context.Context, electionID string, voterID string) (bool, error) {
	_, found, err := r.GetVote(ctx, electionID, voterID)
	return found, err
}

func (r *Repository) ListVotesByElection(ctx context.Context, electionID string) ([]entities.Vote, error) {
	var rows []voteModel
	if err := r.db.WithContext(ctx).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Order("cast_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_votes_failed", err,
			"election_id", strings.TrimSpace(electionID))
	}
	items := make([]entities.Vote, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) AppendTransaction(ctx context.Context, transaction entities.Transaction) error {
	row := transactionModelFromEntity(transaction)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("ledger_repo_append_transaction_failed", err,
			"tx_hash", row.TxHash)
	}
	return nil
}

func (r *Repository) ListTransactions(ctx context.Context, limit int) ([]entities.Transaction, error) {
	tx := r.db.WithContext(ctx).Order("seq DESC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	var rows []transactionModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_transactions_failed", err)
	}
	return toTransactionEntities(rows), nil
}

func (r *Repository) ListTransactionsByElection(ctx context.Context, electionID string) ([]entities.Transaction, error) {
	var rows []transactionModel
	if err := r.db.WithContext(ctx).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Order("seq DESC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_transactions_by_election_failed", err,
			"election_id", strings.TrimSpace(electionID))
	}
	return toTransactionEntities(rows), nil
}

func (r *Repository) candidatesFor(ctx context.Context, electionID string) ([]entities.Candidate, error) {
	var rows []candidateModel
	if err := r.db.WithContext(ctx).
		Where("election_id = ?", electionID).
		Order("position ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_candidates_failed", err,
			"election_id", electionID)
	}
	items := make([]entities.Candidate, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) logError(event string, err error, args ...any) error {
	fields := append([]any{
		"event", event,
		"module", "election-core/voting-ledger",
		"layer", "adapter",
		"error", err.Error(),
	}, args...)
	r.logger.Error("postgres repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// SystemClock and UUIDGenerator satisfy the clock and id ports for
// postgres-backed wiring.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
