package httpadapter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"electra/contexts/election-core/voting-ledger/application/commands"
	"electra/contexts/election-core/voting-ledger/application/queries"
	"electra/contexts/election-core/voting-ledger/domain/entities"
	domainerrors "electra/contexts/election-core/voting-ledger/domain/errors"
	httptransport "electra/contexts/election-core/voting-ledger/transport/http"
)

// Handler maps transport DTOs onto use cases. Role capability comes in as a
// tagged actor built by the platform layer from request identity headers.
type Handler struct {
	CreateElections commands.CreateElectionUseCase
	CastVotes       commands.CastVoteUseCase
	Elections       queries.ElectionQueries
	Transactions    queries.TransactionQueries
	Chain           queries.ChainQueries
	Logger          *slog.Logger
}

func (h Handler) CreateElectionHandler(
	ctx context.Context,
	actor entities.Actor,
	req httptransport.CreateElectionRequest,
) (httptransport.ElectionResponse, error) {
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	candidates := make([]commands.CandidateDraft, 0, len(req.Candidates))
	for _, candidate := range req.Candidates {
		candidates = append(candidates, commands.CandidateDraft{
			Name:     candidate.Name,
			Party:    candidate.Party,
			ImageURL: candidate.ImageURL,
		})
	}
	result, err := h.CreateElections.CreateElection(ctx, commands.CreateElectionCommand{
		Actor:       actor,
		Title:       req.Title,
		Description: req.Description,
		StartDate:   startDate,
		EndDate:     endDate,
		Candidates:  candidates,
	})
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	return electionResponse(result.Election, result.Status), nil
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	actor entities.Actor,
	electionID string,
	req httptransport.CastVoteRequest,
) (httptransport.VoteResponse, error) {
	result, err := h.CastVotes.CastVote(ctx, commands.CastVoteCommand{
		ElectionID:  electionID,
		CandidateID: req.CandidateID,
		Actor:       actor,
	})
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return voteResponse(result.Vote), nil
}

func (h Handler) GetElectionHandler(ctx context.Context, electionID string) (httptransport.ElectionResponse, error) {
	snapshot, err := h.Elections.GetElection(ctx, electionID)
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	return electionResponse(snapshot.Election, snapshot.Status), nil
}

func (h Handler) ListElectionsHandler(ctx context.Context, statusFilter string) (httptransport.ElectionListResponse, error) {
	snapshots, err := h.Elections.ListElections(ctx, entities.ElectionStatus(statusFilter))
	if err != nil {
		return httptransport.ElectionListResponse{}, err
	}
	items := make([]httptransport.ElectionResponse, 0, len(snapshots))
	for _, snapshot := range snapshots {
		items = append(items, electionResponse(snapshot.Election, snapshot.Status))
	}
	return httptransport.ElectionListResponse{Items: items}, nil
}

func (h Handler) VoteStatusHandler(ctx context.Context, electionID string, voterID string) (httptransport.VoteStatusResponse, error) {
	vote, found, err := h.Elections.GetUserVote(ctx, electionID, voterID)
	if err != nil {
		return httptransport.VoteStatusResponse{}, err
	}
	resp := httptransport.VoteStatusResponse{
		ElectionID: electionID,
		VoterID:    voterID,
		HasVoted:   found,
	}
	if found {
		mapped := voteResponse(vote)
		resp.Vote = &mapped
	}
	return resp, nil
}

func (h Handler) TransactionHistoryHandler(ctx context.Context, limit int) (httptransport.TransactionListResponse, error) {
	transactions, err := h.Transactions.History(ctx, limit)
	if err != nil {
		return httptransport.TransactionListResponse{}, err
	}
	return transactionListResponse(transactions), nil
}

func (h Handler) ElectionTransactionsHandler(ctx context.Context, electionID string) (httptransport.TransactionListResponse, error) {
	transactions, err := h.Transactions.ElectionHistory(ctx, electionID)
	if err != nil {
		return httptransport.TransactionListResponse{}, err
	}
	return transactionListResponse(transactions), nil
}

func (h Handler) CandidateTallyHandler(ctx context.Context, candidateID string) (httptransport.CandidateTallyResponse, error) {
	tally, err := h.Chain.CandidateTally(ctx, candidateID)
	if err != nil {
		return httptransport.CandidateTallyResponse{}, err
	}
	return httptransport.CandidateTallyResponse{
		CandidateID: candidateID,
		Name:        tally.Name,
		Count:       tally.Count,
	}, nil
}

func (h Handler) CandidateCountHandler(ctx context.Context) (httptransport.CandidateCountResponse, error) {
	count, err := h.Chain.CandidateCount(ctx)
	if err != nil {
		return httptransport.CandidateCountResponse{}, err
	}
	return httptransport.CandidateCountResponse{Count: count}, nil
}

func electionResponse(election entities.Election, status entities.ElectionStatus) httptransport.ElectionResponse {
	candidates := make([]httptransport.CandidateResponse, 0, len(election.Candidates))
	for _, candidate := range election.Candidates {
		candidates = append(candidates, httptransport.CandidateResponse{
			CandidateID: candidate.CandidateID,
			Name:        candidate.Name,
			Party:       candidate.Party,
			ImageURL:    candidate.ImageURL,
			VoteCount:   candidate.VoteCount,
		})
	}
	return httptransport.ElectionResponse{
		ElectionID:  election.ElectionID,
		Title:       election.Title,
		Description: election.Description,
		StartDate:   election.StartDate.UTC().Format(time.RFC3339),
		EndDate:     election.EndDate.UTC().Format(time.RFC3339),
		Status:      string(status),
		CreatedBy:   election.CreatedBy,
		Candidates:  candidates,
	}
}

func voteResponse(vote entities.Vote) httptransport.VoteResponse {
	return httptransport.VoteResponse{
		VoteID:      vote.VoteID,
		ElectionID:  vote.ElectionID,
		CandidateID: vote.CandidateID,
		VoterID:     vote.VoterID,
		CastAt:      vote.CastAt.UTC().Format(time.RFC3339),
		TxHash:      vote.Ledger.TxHash,
		BlockNumber: vote.Ledger.BlockNumber,
	}
}

func transactionListResponse(transactions []entities.Transaction) httptransport.TransactionListResponse {
	items := make([]httptransport.TransactionResponse, 0, len(transactions))
	for _, tx := range transactions {
		items = append(items, httptransport.TransactionResponse{
			TxHash:      tx.TxHash,
			BlockNumber: tx.BlockNumber,
			Timestamp:   tx.Timestamp.UTC().Format(time.RFC3339),
			From:        tx.From,
			To:          tx.To,
			ElectionID:  tx.ElectionID,
			Description: tx.Description,
			Status:      string(tx.Status),
		})
	}
	return httptransport.TransactionListResponse{Items: items}
}

func parseDate(raw string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q is not RFC3339: %w", raw, domainerrors.ErrInvalidElectionDraft)
	}
	return parsed.UTC(), nil
}
