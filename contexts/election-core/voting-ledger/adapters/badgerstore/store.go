package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"electra/contexts/election-core/voting-ledger/domain/entities"
	domainerrors "electra/contexts/election-core/voting-ledger/domain/errors"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	electionPrefix    = "election:"
	votePrefix        = "vote:"
	transactionPrefix = "tx:"
	transactionSeqKey = "txseq"
)

// Store persists the three collections in a single badger database under
// distinct key prefixes. Every mutation is written through immediately; the
// three collections are loaded straight from disk on each read, so a restart
// resumes from the last committed state.
type Store struct {
	db  *badger.DB
	seq *badger.Sequence
}

func New(db *badger.DB) (*Store, error) {
	seq, err := db.GetSequence([]byte(transactionSeqKey), 64)
	if err != nil {
		return nil, fmt.Errorf("open transaction sequence: %w", err)
	}
	return &Store{db: db, seq: seq}, nil
}

func (s *Store) Close() error {
	if s.seq != nil {
		return s.seq.Release()
	}
	return nil
}

func (s *Store) SaveElection(_ context.Context, election entities.Election) error {
	payload, err := json.Marshal(election)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(electionKey(election.ElectionID), payload)
	})
}

func (s *Store) GetElection(_ context.Context, electionID string) (entities.Election, error) {
	var election entities.Election
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(electionKey(electionID))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &election)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return entities.Election{}, domainerrors.ErrElectionNotFound
		}
		return entities.Election{}, err
	}
	return election, nil
}

func (s *Store) ListElections(_ context.Context) ([]entities.Election, error) {
	items := make([]entities.Election, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		return iteratePrefix(txn, electionPrefix, func(value []byte) error {
			var election entities.Election
			if err := json.Unmarshal(value, &election); err != nil {
				return err
			}
			items = append(items, election)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) CountElections(ctx context.Context) (int, error) {
	items, err := s.ListElections(ctx)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

func (s *Store) ApplyVote(_ context.Context, electionID string, candidateID string) (entities.Election, error) {
	var updated entities.Election
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(electionKey(electionID))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return domainerrors.ErrElectionNotFound
			}
			return err
		}
		var election entities.Election
		if err := item.Value(func(value []byte) error {
			return json.Unmarshal(value, &election)
		}); err != nil {
			return err
		}
		applied := false
		for i, candidate := range election.Candidates {
			if candidate.CandidateID == strings.TrimSpace(candidateID) {
				election.Candidates[i].VoteCount++
				applied = true
				break
			}
		}
		if !applied {
			return domainerrors.ErrUnknownCandidate
		}
		election.UpdatedAt = time.Now().UTC()
		payload, err := json.Marshal(election)
		if err != nil {
			return err
		}
		if err := txn.Set(electionKey(election.ElectionID), payload); err != nil {
			return err
		}
		updated = election
		return nil
	})
	if err != nil {
		return entities.Election{}, err
	}
	return updated, nil
}

// RecordVote checks and inserts inside one badger transaction, so the
// duplicate check is atomic even outside the orchestrator's gate.
func (s *Store) RecordVote(_ context.Context, vote entities.Vote) error {
	payload, err := json.Marshal(vote)
	if err != nil {
		return err
	}
	key := voteKey(vote.ElectionID, vote.VoterID)
	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return domainerrors.ErrDuplicateVote
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, payload)
	})
	if errors.Is(err, badger.ErrConflict) {
		return domainerrors.ErrDuplicateVote
	}
	return err
}

func (s *Store) GetVote(_ context.Context, electionID string, voterID string) (entities.Vote, bool, error) {
	var vote entities.Vote
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(voteKey(electionID, voterID))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &vote)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return entities.Vote{}, false, nil
		}
		return entities.Vote{}, false, err
	}
	return vote, true, nil
}

func (s *Store) HasVoted(ctx context.Context, electionID string, voterID string) (bool, error) {
	_, found, err := s.GetVote(ctx, electionID, voterID)
	return found, err
}

func (s *Store) ListVotesByElection(_ context.Context, electionID string) ([]entities.Vote, error) {
	prefix := votePrefix + strings.TrimSpace(electionID) + "|"
	items := make([]entities.Vote, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		return iteratePrefix(txn, prefix, func(value []byte) error {
			var vote entities.Vote
			if err := json.Unmarshal(value, &vote); err != nil {
				return err
			}
			items = append(items, vote)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CastAt.Before(items[j].CastAt)
	})
	return items, nil
}

func (s *Store) AppendTransaction(_ context.Context, transaction entities.Transaction) error {
	payload, err := json.Marshal(transaction)
	if err != nil {
		return err
	}
	seq, err := s.seq.Next()
	if err != nil {
		return err
	}
	key := fmt.Appendf(nil, "%s%020d", transactionPrefix, seq)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, payload)
	})
}

func (s *Store) ListTransactions(_ context.Context, limit int) ([]entities.Transaction, error) {
	items, err := s.allTransactions()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) ListTransactionsByElection(_ context.Context, electionID string) ([]entities.Transaction, error) {
	all, err := s.allTransactions()
	if err != nil {
		return nil, err
	}
	items := make([]entities.Transaction, 0, len(all))
	for _, tx := range all {
		if tx.ElectionID == strings.TrimSpace(electionID) {
			items = append(items, tx)
		}
	}
	return items, nil
}

// allTransactions returns records most-recent-first; storage order under the
// zero-padded sequence keys is append order.
func (s *Store) allTransactions() ([]entities.Transaction, error) {
	items := make([]entities.Transaction, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		return iteratePrefix(txn, transactionPrefix, func(value []byte) error {
			var tx entities.Transaction
			if err := json.Unmarshal(value, &tx); err != nil {
				return err
			}
			items = append(items, tx)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func iteratePrefix(txn *badger.Txn, prefix string, fn func(value []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()
	for it.Rewind(); it.Valid(); it.Next() {
		if err := it.Item().Value(fn); err != nil {
			return err
		}
	}
	return nil
}

func electionKey(electionID string) []byte {
	return []byte(electionPrefix + strings.TrimSpace(electionID))
}

func voteKey(electionID string, voterID string) []byte {
	return []byte(votePrefix + strings.TrimSpace(electionID) + "|" + strings.TrimSpace(voterID))
}
