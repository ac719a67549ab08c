package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"electra/contexts/election-core/voting-ledger/domain/entities"
	domainerrors "electra/contexts/election-core/voting-ledger/domain/errors"

	"github.com/google/uuid"
)

// Store is the in-memory adapter for all three collections. Votes are keyed
// by the composite (election_id, voter_id) so the duplicate check and the
// insert happen under one lock section.
type Store struct {
	mu sync.RWMutex

	elections     map[string]entities.Election
	electionOrder []string
	votes         map[string]entities.Vote
	transactions  []entities.Transaction
}

func NewStore(seed []entities.Election) *Store {
	elections := make(map[string]entities.Election, len(seed))
	order := make([]string, 0, len(seed))
	for _, election := range seed {
		elections[election.ElectionID] = election
		order = append(order, election.ElectionID)
	}
	return &Store{
		elections:     elections,
		electionOrder: order,
		votes:         make(map[string]entities.Vote),
	}
}

func (s *Store) SaveElection(_ context.Context, election entities.Election) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := strings.TrimSpace(election.ElectionID)
	if _, exists := s.elections[id]; !exists {
		s.electionOrder = append(s.electionOrder, id)
	}
	s.elections[id] = election
	return nil
}

func (s *Store) GetElection(_ context.Context, electionID string) (entities.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	election, ok := s.elections[strings.TrimSpace(electionID)]
	if !ok {
		return entities.Election{}, domainerrors.ErrElectionNotFound
	}
	return election, nil
}

func (s *Store) ListElections(_ context.Context) ([]entities.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Election, 0, len(s.electionOrder))
	for _, id := range s.electionOrder {
		items = append(items, s.elections[id])
	}
	return items, nil
}

func (s *Store) CountElections(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.elections), nil
}

func (s *Store) ApplyVote(_ context.Context, electionID string, candidateID string) (entities.Election, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	election, ok := s.elections[strings.TrimSpace(electionID)]
	if !ok {
		return entities.Election{}, domainerrors.ErrElectionNotFound
	}
	applied := false
	candidates := make([]entities.Candidate, len(election.Candidates))
	for i, candidate := range election.Candidates {
		if candidate.CandidateID == strings.TrimSpace(candidateID) {
			candidate.VoteCount++
			applied = true
		}
		candidates[i] = candidate
	}
	if !applied {
		return entities.Election{}, domainerrors.ErrUnknownCandidate
	}
	election.Candidates = candidates
	election.UpdatedAt = time.Now().UTC()
	s.elections[election.ElectionID] = election
	return election, nil
}

func (s *Store) RecordVote(_ context.Context, vote entities.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := voteKey(vote.ElectionID, vote.VoterID)
	if _, exists := s.votes[key]; exists {
		return domainerrors.ErrDuplicateVote
	}
	s.votes[key] = vote
	return nil
}

func (s *Store) GetVote(_ context.Context, electionID string, voterID string) (entities.Vote, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vote, ok := s.votes[voteKey(electionID, voterID)]
	return vote, ok, nil
}

func (s *Store) HasVoted(_ context.Context, electionID string, voterID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.votes[voteKey(electionID, voterID)]
	return ok, nil
}

func (s *Store) ListVotesByElection(_ context.Context, electionID string) ([]entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Vote, 0)
	for _, vote := range s.votes {
		if vote.ElectionID == strings.TrimSpace(electionID) {
			items = append(items, vote)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CastAt.Before(items[j].CastAt)
	})
	return items, nil
}

func (s *Store) AppendTransaction(_ context.Context, transaction entities.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append(s.transactions, transaction)
	return nil
}

func (s *Store) ListTransactions(_ context.Context, limit int) ([]entities.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Transaction, 0, len(s.transactions))
	for i := len(s.transactions) - 1; i >= 0; i-- {
		items = append(items, s.transactions[i])
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}

func (s *Store) ListTransactionsByElection(_ context.Context, electionID string) ([]entities.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Transaction, 0)
	for i := len(s.transactions) - 1; i >= 0; i-- {
		if s.transactions[i].ElectionID == strings.TrimSpace(electionID) {
			items = append(items, s.transactions[i])
		}
	}
	return items, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func voteKey(electionID string, voterID string) string {
	return strings.TrimSpace(electionID) + "|" + strings.TrimSpace(voterID)
}
