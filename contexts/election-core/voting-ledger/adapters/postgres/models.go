package postgresadapter

import (
	"time"

	"gorm.io/gorm"

	"electra/contexts/election-core/voting-ledger/domain/entities"
)

// AutoMigrate creates or updates the ledger tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&electionModel{},
		&candidateModel{},
		&voteModel{},
		&transactionModel{},
	)
}

type electionModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	Title       string    `gorm:"column:title"`
	Description string    `gorm:"column:description"`
	StartDate   time.Time `gorm:"column:start_date"`
	EndDate     time.Time `gorm:"column:end_date"`
	CreatedBy   string    `gorm:"column:created_by"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (electionModel) TableName() string { return "elections" }

type candidateModel struct {
	ElectionID string `gorm:"column:election_id;primaryKey"`
	ID         string `gorm:"column:id;primaryKey"`
	Name       string `gorm:"column:name"`
	Party      string `gorm:"column:party"`
	ImageURL   string `gorm:"column:image_url"`
	VoteCount  int    `gorm:"column:vote_count"`
	Position   int    `gorm:"column:position"`
}

func (candidateModel) TableName() string { return "candidates" }

type voteModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	ElectionID  string    `gorm:"column:election_id;uniqueIndex:idx_votes_election_voter"`
	VoterID     string    `gorm:"column:voter_id;uniqueIndex:idx_votes_election_voter"`
	CandidateID string    `gorm:"column:candidate_id"`
	CastAt      time.Time `gorm:"column:cast_at"`
	TxHash      string    `gorm:"column:tx_hash"`
	BlockNumber uint64    `gorm:"column:block_number"`
}

func (voteModel) TableName() string { return "votes" }

type transactionModel struct {
	Seq         uint64    `gorm:"column:seq;primaryKey;autoIncrement"`
	TxHash      string    `gorm:"column:tx_hash"`
	BlockNumber uint64    `gorm:"column:block_number"`
	Timestamp   time.Time `gorm:"column:timestamp"`
	FromActor   string    `gorm:"column:from_actor"`
	ToActor     string    `gorm:"column:to_actor"`
	ElectionID  string    `gorm:"column:election_id"`
	Description string    `gorm:"column:description"`
	Status      string    `gorm:"column:status"`
}

func (transactionModel) TableName() string { return "transactions" }

func electionModelFromEntity(election entities.Election) electionModel {
	return electionModel{
		ID:          election.ElectionID,
		Title:       election.Title,
		Description: election.Description,
		StartDate:   election.StartDate.UTC(),
		EndDate:     election.EndDate.UTC(),
		CreatedBy:   election.CreatedBy,
		CreatedAt:   election.CreatedAt.UTC(),
		UpdatedAt:   election.UpdatedAt.UTC(),
	}
}

func candidateModelsFromEntity(election entities.Election) []candidateModel {
	rows := make([]candidateModel, 0, len(election.Candidates))
	for position, candidate := range election.Candidates {
		rows = append(rows, candidateModel{
			ElectionID: election.ElectionID,
			ID:         candidate.CandidateID,
			Name:       candidate.Name,
			Party:      candidate.Party,
			ImageURL:   candidate.ImageURL,
			VoteCount:  candidate.VoteCount,
			Position:   position,
		})
	}
	return rows
}

func (m electionModel) toEntity(candidates []entities.Candidate) entities.Election {
	return entities.Election{
		ElectionID:  m.ID,
		Title:       m.Title,
		Description: m.Description,
		StartDate:   m.StartDate.UTC(),
		EndDate:     m.EndDate.UTC(),
		Candidates:  candidates,
		CreatedBy:   m.CreatedBy,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

func (m candidateModel) toEntity() entities.Candidate {
	return entities.Candidate{
		CandidateID: m.ID,
		Name:        m.Name,
		Party:       m.Party,
		ImageURL:    m.ImageURL,
		VoteCount:   m.VoteCount,
	}
}

func voteModelFromEntity(vote entities.Vote) voteModel {
	return voteModel{
		ID:          vote.VoteID,
		ElectionID:  vote.ElectionID,
		VoterID:     vote.VoterID,
		CandidateID: vote.CandidateID,
		CastAt:      vote.CastAt.UTC(),
		TxHash:      vote.Ledger.TxHash,
		BlockNumber: vote.Ledger.BlockNumber,
	}
}

func (m voteModel) toEntity() entities.Vote {
	return entities.Vote{
		VoteID:      m.ID,
		ElectionID:  m.ElectionID,
		VoterID:     m.VoterID,
		CandidateID: m.CandidateID,
		CastAt:      m.CastAt.UTC(),
		Ledger: entities.LedgerRef{
			TxHash:      m.TxHash,
			BlockNumber: m.BlockNumber,
		},
	}
}

func transactionModelFromEntity(transaction entities.Transaction) transactionModel {
	return transactionModel{
		TxHash:      transaction.TxHash,
		BlockNumber: transaction.BlockNumber,
		Timestamp:   transaction.Timestamp.UTC(),
		FromActor:   transaction.From,
		ToActor:     transaction.To,
		ElectionID:  transaction.ElectionID,
		Description: transaction.Description,
		Status:      string(transaction.Status),
	}
}

func toTransactionEntities(rows []transactionModel) []entities.Transaction {
	items := make([]entities.Transaction, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.Transaction{
			TxHash:      row.TxHash,
			BlockNumber: row.BlockNumber,
			Timestamp:   row.Timestamp.UTC(),
			From:        row.FromActor,
			To:          row.ToActor,
			ElectionID:  row.ElectionID,
			Description: row.Description,
			Status:      entities.TransactionStatus(row.Status),
		})
	}
	return items
}
