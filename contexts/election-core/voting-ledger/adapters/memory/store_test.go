package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"electra/contexts/election-core/voting-ledger/domain/entities"
	domainerrors "electra/contexts/election-core/voting-ledger/domain/errors"
)

func seedElection() entities.Election {
	now := time.Now().UTC()
	return entities.Election{
		ElectionID: "election-1",
		Title:      "Board Election",
		StartDate:  now.Add(-time.Hour),
		EndDate:    now.Add(time.Hour),
		Candidates: []entities.Candidate{
			{CandidateID: "cand-1", Name: "Alice Johnson"},
			{CandidateID: "cand-2", Name: "Bob Smith"},
		},
	}
}

func TestRecordVoteRejectsSecondVoteForPair(t *testing.T) {
	store := NewStore([]entities.Election{seedElection()})
	ctx := context.Background()

	vote := entities.Vote{
		VoteID:      "vote-1",
		ElectionID:  "election-1",
		CandidateID: "cand-1",
		VoterID:     "voter-1",
		CastAt:      time.Now().UTC(),
	}
	if err := store.RecordVote(ctx, vote); err != nil {
		t.Fatalf("first record failed: %v", err)
	}

	second := vote
	second.VoteID = "vote-2"
	second.CandidateID = "cand-2"
	if err := store.RecordVote(ctx, second); !errors.Is(err, domainerrors.ErrDuplicateVote) {
		t.Fatalf("expected ErrDuplicateVote, got %v", err)
	}

	stored, found, err := store.GetVote(ctx, "election-1", "voter-1")
	if err != nil || !found {
		t.Fatalf("expected stored vote, found=%v err=%v", found, err)
	}
	if stored.VoteID != "vote-1" {
		t.Fatalf("expected first vote to win, got %q", stored.VoteID)
	}

	// Same voter in a different election is a distinct pair.
	other := vote
	other.VoteID = "vote-3"
	other.ElectionID = "election-2"
	if err := store.RecordVote(ctx, other); err != nil {
		t.Fatalf("expected distinct pair to record, got %v", err)
	}
}

func TestApplyVoteIncrementsOnlyTargetCandidate(t *testing.T) {
	store := NewStore([]entities.Election{seedElection()})
	ctx := context.Background()

	election, err := store.ApplyVote(ctx, "election-1", "cand-2")
	if err != nil {
		t.Fatalf("apply vote failed: %v", err)
	}
	first, _ := election.Candidate("cand-1")
	second, _ := election.Candidate("cand-2")
	if first.VoteCount != 0 || second.VoteCount != 1 {
		t.Fatalf("expected 0/1 tallies, got %d/%d", first.VoteCount, second.VoteCount)
	}

	if _, err := store.ApplyVote(ctx, "election-1", "cand-404"); !errors.Is(err, domainerrors.ErrUnknownCandidate) {
		t.Fatalf("expected ErrUnknownCandidate, got %v", err)
	}
	if _, err := store.ApplyVote(ctx, "election-404", "cand-1"); !errors.Is(err, domainerrors.ErrElectionNotFound) {
		t.Fatalf("expected ErrElectionNotFound, got %v", err)
	}
}

func TestListTransactionsNewestFirstWithLimit(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
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

	items, err := store.ListTransactions(ctx, 3)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected limit of 3, got %d", len(items))
	}
	if items[0].TxHash != "0x04" || items[2].TxHash != "0x02" {
		t.Fatalf("expected newest first, got %q..%q", items[0].TxHash, items[2].TxHash)
	}

	all, err := store.ListTransactions(ctx, 0)
	if err != nil {
		t.Fatalf("list all failed: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected all rows with zero limit, got %d", len(all))
	}
}

func TestListElectionsPreservesInsertionOrder(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	for _, id := range []string{"election-b", "election-a", "election-c"} {
		election := seedElection()
		election.ElectionID = id
		if err := store.SaveElection(ctx, election); err != nil {
			t.Fatalf("save %s failed: %v", id, err)
		}
	}

	items, err := store.ListElections(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 elections, got %d", len(items))
	}
	if items[0].ElectionID != "election-b" || items[2].ElectionID != "election-c" {
		t.Fatalf("expected insertion order, got %q..%q", items[0].ElectionID, items[2].ElectionID)
	}

	count, err := store.CountElections(ctx)
	if err != nil || count != 3 {
		t.Fatalf("expected count 3, got %d err=%v", count, err)
	}
}
