package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"electra/contexts/election-core/voting-ledger/domain/entities"
	domainerrors "electra/contexts/election-core/voting-ledger/domain/errors"

	badger "github.com/dgraph-io/badger/v4"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.ERROR))
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	store, err := New(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
		_ = db.Close()
	})
	return store
}

func storedElection() entities.Election {
	now := time.Now().UTC().Truncate(time.Second)
	return entities.Election{
		ElectionID: "election-1",
		Title:      "Board Election",
		StartDate:  now.Add(-time.Hour),
		EndDate:    now.Add(time.Hour),
		Candidates: []entities.Candidate{
			{CandidateID: "cand-1", Name: "Alice Johnson"},
			{CandidateID: "cand-2", Name: "Bob Smith"},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestElectionRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.GetElection(ctx, "election-1"); !errors.Is(err, domainerrors.ErrElectionNotFound) {
		t.Fatalf("expected ErrElectionNotFound, got %v", err)
	}

	if err := store.SaveElection(ctx, storedElection()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	stored, err := store.GetElection(ctx, "election-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.Title != "Board Election" || len(stored.Candidates) != 2 {
		t.Fatalf("unexpected stored election %+v", stored)
	}

	count, err := store.CountElections(ctx)
	if err != nil || count != 1 {
		t.Fatalf("expected count 1, got %d err=%v", count, err)
	}
}

func TestApplyVotePersistsTally(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveElection(ctx, storedElection()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	election, err := store.ApplyVote(ctx, "election-1", "cand-1")
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	candidate, _ := election.Candidate("cand-1")
	if candidate.VoteCount != 1 {
		t.Fatalf("expected tally 1, got %d", candidate.VoteCount)
	}

	// Reload from disk.
	stored, err := store.GetElection(ctx, "election-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	candidate, _ = stored.Candidate("cand-1")
	if candidate.VoteCount != 1 {
		t.Fatalf("expected persisted tally 1, got %d", candidate.VoteCount)
	}

	if _, err := store.ApplyVote(ctx, "election-1", "cand-404"); !errors.Is(err, domainerrors.ErrUnknownCandidate) {
		t.Fatalf("expected ErrUnknownCandidate, got %v", err)
	}
}

func TestRecordVoteEnforcesPairUniqueness(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	vote := entities.Vote{
		VoteID:      "vote-1",
		ElectionID:  "election-1",
		CandidateID: "cand-1",
		VoterID:     "voter-1",
		CastAt:      time.Now().UTC(),
		Ledger:      entities.LedgerRef{TxHash: "0xabc", BlockNumber: 16_000_001},
	}
	if err := store.RecordVote(ctx, vote); err != nil {
		t.Fatalf("first record failed: %v", err)
	}

	duplicate := vote
	duplicate.VoteID = "vote-2"
	if err := store.RecordVote(ctx, duplicate); !errors.Is(err, domainerrors.ErrDuplicateVote) {
		t.Fatalf("expected ErrDuplicateVote, got %v", err)
	}

	voted, err := store.HasVoted(ctx, "election-1", "voter-1")
	if err != nil || !voted {
		t.Fatalf("expected voted pair, voted=%v err=%v", voted, err)
	}
	stored, found, err := store.GetVote(ctx, "election-1", "voter-1")
	if err != nil || !found || stored.VoteID != "vote-1" {
		t.Fatalf("expected first vote preserved, got %+v found=%v err=%v", stored, found, err)
	}
}

func TestTransactionsKeepAppendOrderNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		err := store.AppendTransaction(ctx, entities.Transaction{
			TxHash:     fmt.Sprintf("0x%02d", i),
			Timestamp:  time.Now().UTC(),
			ElectionID: "election-1",
			Status:     entities.TransactionStatusConfirmed,
		})
		if err != nil {
			t.Fatalf("append %d failed: %v", i, err)
		}
	}

	items, err := store.ListTransactions(ctx, 2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 2 || items[0].TxHash != "0x03" || items[1].TxHash != "0x02" {
		t.Fatalf("expected newest first with limit, got %+v", items)
	}

	byElection, err := store.ListTransactionsByElection(ctx, "election-1")
	if err != nil {
		t.Fatalf("list by election failed: %v", err)
	}
	if len(byElection) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(byElection))
	}
}
