package workers

import (
	"context"
	"testing"
	"time"

	"electra/contexts/election-core/voting-ledger/adapters/memory"
	"electra/contexts/election-core/voting-ledger/domain/entities"
)

func auditedElection(tally int) entities.Election {
	now := time.Now().UTC()
	return entities.Election{
		ElectionID: "election-1",
		Title:      "Board Election",
		StartDate:  now.Add(-time.Hour),
		EndDate:    now.Add(time.Hour),
		Candidates: []entities.Candidate{
			{CandidateID: "cand-1", Name: "Alice Johnson", VoteCount: tally},
		},
	}
}

func TestAuditorReportsCleanLedger(t *testing.T) {
	store := memory.NewStore([]entities.Election{auditedElection(1)})
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
		t.Fatalf("record vote: %v", err)
	}
	err := store.AppendTransaction(ctx, entities.Transaction{
		TxHash:     "0xabc",
		ElectionID: "election-1",
		Status:     entities.TransactionStatusConfirmed,
	})
	if err != nil {
		t.Fatalf("append transaction: %v", err)
	}

	auditor := LedgerAuditor{Elections: store, Votes: store, Transactions: store}
	report, err := auditor.RunOnce(ctx)
	if err != nil {
		t.Fatalf("audit failed: %v", err)
	}
	if report.ElectionsChecked != 1 || report.TallyMismatches != 0 || report.MissingAuditRows != 0 {
		t.Fatalf("expected clean report, got %+v", report)
	}
}

func TestAuditorFlagsTallyMismatch(t *testing.T) {
	// Tally claims two votes but only one is recorded.
	store := memory.NewStore([]entities.Election{auditedElection(2)})
	ctx := context.Background()

	vote := entities.Vote{
		VoteID:      "vote-1",
		ElectionID:  "election-1",
		CandidateID: "cand-1",
		VoterID:     "voter-1",
		CastAt:      time.Now().UTC(),
		Ledger:      entities.LedgerRef{TxHash: "0xabc"},
	}
	if err := store.RecordVote(ctx, vote); err != nil {
		t.Fatalf("record vote: %v", err)
	}
	err := store.AppendTransaction(ctx, entities.Transaction{
		TxHash:     "0xabc",
		ElectionID: "election-1",
		Status:     entities.TransactionStatusConfirmed,
	})
	if err != nil {
		t.Fatalf("append transaction: %v", err)
	}

	auditor := LedgerAuditor{Elections: store, Votes: store, Transactions: store}
	report, err := auditor.RunOnce(ctx)
	if err != nil {
		t.Fatalf("audit failed: %v", err)
	}
	if report.TallyMismatches != 1 {
		t.Fatalf("expected one tally mismatch, got %+v", report)
	}
}

func TestAuditorFlagsVoteWithoutConfirmedTransaction(t *testing.T) {
	store := memory.NewStore([]entities.Election{auditedElection(1)})
	ctx := context.Background()

	vote := entities.Vote{
		VoteID:      "vote-1",
		ElectionID:  "election-1",
		CandidateID: "cand-1",
		VoterID:     "voter-1",
		CastAt:      time.Now().UTC(),
		Ledger:      entities.LedgerRef{TxHash: "0xabc"},
	}
	if err := store.RecordVote(ctx, vote); err != nil {
		t.Fatalf("record vote: %v", err)
	}
	// Only a failed row exists for this hash.
	err := store.AppendTransaction(ctx, entities.Transaction{
		TxHash:     "0xabc",
		ElectionID: "election-1",
		Status:     entities.TransactionStatusFailed,
	})
	if err != nil {
		t.Fatalf("append transaction: %v", err)
	}

	auditor := LedgerAuditor{Elections: store, Votes: store, Transactions: store}
	report, err := auditor.RunOnce(ctx)
	if err != nil {
		t.Fatalf("audit failed: %v", err)
	}
	if report.MissingAuditRows != 1 {
		t.Fatalf("expected one missing audit row, got %+v", report)
	}
}
