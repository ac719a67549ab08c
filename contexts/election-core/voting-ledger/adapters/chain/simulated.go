package chain

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"electra/contexts/election-core/voting-ledger/domain/entities"
	domainerrors "electra/contexts/election-core/voting-ledger/domain/errors"
	"electra/contexts/election-core/voting-ledger/ports"

	"github.com/google/uuid"
)

const firstBlockNumber = 16_000_000

type outcome struct {
	confirmation ports.Confirmation
	err          error
}

type pendingSubmission struct {
	done   chan struct{}
	result outcome
}

// Simulated implements the chain adapter in-process. Submissions resolve
// after a configurable latency on a timer, so callers exercise the same
// pending/confirmed/failed protocol a real ledger adapter exposes, including
// confirmation waits that outlive the caller's timeout. The contract-side
// one-vote-per-account guard is simulated at confirmation time.
type Simulated struct {
	mu            sync.Mutex
	latency       time.Duration
	submitErr     error
	confirmErr    error
	voted         map[string]bool
	candidates    map[string]*ports.CandidateTally
	pending       map[string]*pendingSubmission
	notifications chan ports.ChainNotification
	nextBlock     uint64
}

func NewSimulated(latency time.Duration) *Simulated {
	return &Simulated{
		latency:       latency,
		voted:         make(map[string]bool),
		candidates:    make(map[string]*ports.CandidateTally),
		pending:       make(map[string]*pendingSubmission),
		notifications: make(chan ports.ChainNotification, 16),
		nextBlock:     firstBlockNumber,
	}
}

// RegisterCandidate mirrors contract deployment: tallies only exist for
// registered candidates.
func (s *Simulated) RegisterCandidate(candidateID string, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidates[strings.TrimSpace(candidateID)] = &ports.CandidateTally{Name: name}
}

// FailNextSubmit makes the next Submit fail synchronously with err.
func (s *Simulated) FailNextSubmit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitErr = err
}

// FailConfirmations makes every confirmation resolve as failed with err.
func (s *Simulated) FailConfirmations(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirmErr = err
}

// SetLatency changes the simulated mining delay for future submissions.
func (s *Simulated) SetLatency(latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latency = latency
}

func (s *Simulated) EmitAccountChange(account string) {
	s.notifications <- ports.ChainNotification{
		Kind:    ports.ChainNotificationAccountChanged,
		Account: account,
	}
}

func (s *Simulated) EmitNetworkChange(chainID string) {
	s.notifications <- ports.ChainNotification{
		Kind:    ports.ChainNotificationNetworkChanged,
		ChainID: chainID,
	}
}

func (s *Simulated) Submit(_ context.Context, candidateID string, actingAccount string) (ports.PendingRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitErr != nil {
		err := s.submitErr
		s.submitErr = nil
		return ports.PendingRef{}, err
	}
	if strings.TrimSpace(actingAccount) == "" {
		return ports.PendingRef{}, domainerrors.ErrNoAccount
	}

	ref := ports.PendingRef{
		SubmissionID: uuid.NewString(),
		CandidateID:  strings.TrimSpace(candidateID),
		Account:      strings.TrimSpace(actingAccount),
		SubmittedAt:  time.Now().UTC(),
	}
	submission := &pendingSubmission{done: make(chan struct{})}
	s.pending[ref.SubmissionID] = submission

	latency := s.latency
	time.AfterFunc(latency, func() {
		s.resolve(ref, submission)
	})
	return ref, nil
}

func (s *Simulated) resolve(ref ports.PendingRef, submission *pendingSubmission) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.confirmErr != nil:
		submission.result = outcome{err: s.confirmErr}
	case s.voted[ref.Account]:
		submission.result = outcome{
			err: domainerrors.ErrSubmissionRejected,
		}
	default:
		s.voted[ref.Account] = true
		if tally, ok := s.candidates[ref.CandidateID]; ok {
			tally.Count++
		}
		s.nextBlock++
		submission.result = outcome{
			confirmation: ports.Confirmation{
				TxHash:      randomTxHash(),
				BlockNumber: s.nextBlock,
			},
		}
	}
	close(submission.done)
}

// AwaitConfirmation blocks until the submission settles or ctx expires. It is
// safe to await the same reference more than once; a wait abandoned on
// timeout can be resumed later and observes the same outcome.
func (s *Simulated) AwaitConfirmation(ctx context.Context, ref ports.PendingRef) (ports.Confirmation, error) {
	s.mu.Lock()
	submission, ok := s.pending[ref.SubmissionID]
	s.mu.Unlock()
	if !ok {
		return ports.Confirmation{}, domainerrors.ErrChainUnavailable
	}

	select {
	case <-ctx.Done():
		return ports.Confirmation{}, ctx.Err()
	case <-submission.done:
		return submission.result.confirmation, submission.result.err
	}
}

func (s *Simulated) HasVoted(_ context.Context, account string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voted[strings.TrimSpace(account)], nil
}

func (s *Simulated) CandidateTally(_ context.Context, candidateID string) (ports.CandidateTally, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tally, ok := s.candidates[strings.TrimSpace(candidateID)]
	if !ok {
		return ports.CandidateTally{}, domainerrors.ErrUnknownCandidate
	}
	return *tally, nil
}

func (s *Simulated) CandidateCount(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.candidates), nil
}

func (s *Simulated) Notifications() <-chan ports.ChainNotification {
	return s.notifications
}

// NewRef issues a ledger reference outside the vote path, for creation
// transactions and failed audit rows.
func (s *Simulated) NewRef(_ context.Context) (entities.LedgerRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextBlock++
	return entities.LedgerRef{
		TxHash:      randomTxHash(),
		BlockNumber: s.nextBlock,
	}, nil
}

func randomTxHash() string {
	raw := make([]byte, 32)
	_, _ = rand.Read(raw)
	return "0x" + hex.EncodeToString(raw)
}
