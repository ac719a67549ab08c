package chain

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	domainerrors "electra/contexts/election-core/voting-ledger/domain/errors"
	"electra/contexts/election-core/voting-ledger/ports"
)

func TestSubmitAndConfirm(t *testing.T) {
	sim := NewSimulated(5 * time.Millisecond)
	sim.RegisterCandidate("cand-1", "Alice Johnson")

	ref, err := sim.Submit(context.Background(), "cand-1", "0xaaa")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if ref.SubmissionID == "" {
		t.Fatalf("expected submission id")
	}

	confirmation, err := sim.AwaitConfirmation(context.Background(), ref)
	if err != nil {
		t.Fatalf("confirmation failed: %v", err)
	}
	if !strings.HasPrefix(confirmation.TxHash, "0x") || len(confirmation.TxHash) != 66 {
		t.Fatalf("expected 0x-prefixed 64-hex hash, got %q", confirmation.TxHash)
	}
	if confirmation.BlockNumber <= firstBlockNumber {
		t.Fatalf("expected block above genesis offset, got %d", confirmation.BlockNumber)
	}

	voted, err := sim.HasVoted(context.Background(), "0xaaa")
	if err != nil || !voted {
		t.Fatalf("expected account marked as voted, voted=%v err=%v", voted, err)
	}
	tally, err := sim.CandidateTally(context.Background(), "cand-1")
	if err != nil {
		t.Fatalf("tally failed: %v", err)
	}
	if tally.Name != "Alice Johnson" || tally.Count != 1 {
		t.Fatalf("expected tally Alice Johnson/1, got %q/%d", tally.Name, tally.Count)
	}
}

func TestSubmitRequiresAccount(t *testing.T) {
	sim := NewSimulated(time.Millisecond)
	if _, err := sim.Submit(context.Background(), "cand-1", ""); !errors.Is(err, domainerrors.ErrNoAccount) {
		t.Fatalf("expected ErrNoAccount, got %v", err)
	}
}

func TestAccountVotesOnceAtConfirmation(t *testing.T) {
	sim := NewSimulated(time.Millisecond)
	sim.RegisterCandidate("cand-1", "Alice Johnson")
	ctx := context.Background()

	first, err := sim.Submit(ctx, "cand-1", "0xaaa")
	if err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if _, err := sim.AwaitConfirmation(ctx, first); err != nil {
		t.Fatalf("first confirmation failed: %v", err)
	}

	second, err := sim.Submit(ctx, "cand-1", "0xaaa")
	if err != nil {
		t.Fatalf("second submit should be accepted as pending, got %v", err)
	}
	if _, err := sim.AwaitConfirmation(ctx, second); !errors.Is(err, domainerrors.ErrSubmissionRejected) {
		t.Fatalf("expected rejection at confirmation for voted account, got %v", err)
	}
}

func TestAwaitConfirmationIsResumable(t *testing.T) {
	sim := NewSimulated(60 * time.Millisecond)
	sim.RegisterCandidate("cand-1", "Alice Johnson")
	ctx := context.Background()

	ref, err := sim.Submit(ctx, "cand-1", "0xaaa")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	shortCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	_, err = sim.AwaitConfirmation(shortCtx, ref)
	cancel()
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline on first wait, got %v", err)
	}

	confirmation, err := sim.AwaitConfirmation(ctx, ref)
	if err != nil {
		t.Fatalf("resumed wait failed: %v", err)
	}
	if confirmation.TxHash == "" {
		t.Fatalf("expected stored outcome on resumed wait")
	}

	// Same outcome every time.
	again, err := sim.AwaitConfirmation(ctx, ref)
	if err != nil || again.TxHash != confirmation.TxHash {
		t.Fatalf("expected identical outcome, got %q vs %q err=%v", again.TxHash, confirmation.TxHash, err)
	}
}

func TestNotificationsCarryAccountAndNetworkChanges(t *testing.T) {
	sim := NewSimulated(time.Millisecond)

	sim.EmitAccountChange("0xbbb")
	sim.EmitNetworkChange("5777")

	first := <-sim.Notifications()
	if first.Kind != ports.ChainNotificationAccountChanged || first.Account != "0xbbb" {
		t.Fatalf("unexpected first notification %+v", first)
	}
	second := <-sim.Notifications()
	if second.Kind != ports.ChainNotificationNetworkChanged || second.ChainID != "5777" {
		t.Fatalf("unexpected second notification %+v", second)
	}
}

func TestNewRefIssuesDistinctLedgerRefs(t *testing.T) {
	sim := NewSimulated(time.Millisecond)

	first, err := sim.NewRef(context.Background())
	if err != nil {
		t.Fatalf("new ref failed: %v", err)
	}
	second, err := sim.NewRef(context.Background())
	if err != nil {
		t.Fatalf("new ref failed: %v", err)
	}
	if first.TxHash == second.TxHash {
		t.Fatalf("expected distinct hashes")
	}
	if second.BlockNumber != first.BlockNumber+1 {
		t.Fatalf("expected advancing block numbers, got %d then %d", first.BlockNumber, second.BlockNumber)
	}
}
