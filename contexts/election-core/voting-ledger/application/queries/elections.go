package queries

import (
	"context"
	"strings"
	"time"

	"electra/contexts/election-core/voting-ledger/domain/entities"
	"electra/contexts/election-core/voting-ledger/ports"
)

// ElectionSnapshot pairs an election record with its status derived at read
// time. Status never comes from storage.
type ElectionSnapshot struct {
	entities.Election
	Status entities.ElectionStatus
}

type ElectionQueries struct {
	Elections ports.ElectionRepository
	Votes     ports.VoteRepository
	Clock     ports.Clock
}

func (q ElectionQueries) GetElection(ctx context.Context, electionID string) (ElectionSnapshot, error) {
	election, err := q.Elections.GetElection(ctx, strings.TrimSpace(electionID))
	if err != nil {
		return ElectionSnapshot{}, err
	}
	return q.snapshot(election), nil
}

// ListElections returns every election with status computed at call time,
// optionally filtered to one status.
func (q ElectionQueries) ListElections(ctx context.Context, statusFilter entities.ElectionStatus) ([]ElectionSnapshot, error) {
	elections, err := q.Elections.ListElections(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]ElectionSnapshot, 0, len(elections))
	for _, election := range elections {
		snapshot := q.snapshot(election)
		if statusFilter != "" && snapshot.Status != statusFilter {
			continue
		}
		items = append(items, snapshot)
	}
	return items, nil
}

func (q ElectionQueries) HasVoted(ctx context.Context, electionID string, voterID string) (bool, error) {
	return q.Votes.HasVoted(ctx, strings.TrimSpace(electionID), strings.TrimSpace(voterID))
}

// GetUserVote returns the voter's vote in an election, if one was committed.
func (q ElectionQueries) GetUserVote(ctx context.Context, electionID string, voterID string) (entities.Vote, bool, error) {
	return q.Votes.GetVote(ctx, strings.TrimSpace(electionID), strings.TrimSpace(voterID))
}

func (q ElectionQueries) snapshot(election entities.Election) ElectionSnapshot {
	return ElectionSnapshot{
		Election: election,
		Status:   election.StatusAt(q.now()),
	}
}

func (q ElectionQueries) now() time.Time {
	if q.Clock != nil {
		return q.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
