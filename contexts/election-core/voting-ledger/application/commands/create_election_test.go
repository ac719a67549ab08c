package commands

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"electra/contexts/election-core/voting-ledger/adapters/chain"
	"electra/contexts/election-core/voting-ledger/adapters/memory"
	"electra/contexts/election-core/voting-ledger/domain/entities"
	domainerrors "electra/contexts/election-core/voting-ledger/domain/errors"

	"github.com/go-playground/validator/v10"
)

func newCreateUseCase(store *memory.Store) CreateElectionUseCase {
	return CreateElectionUseCase{
		Elections:    store,
		Transactions: store,
		Refs:         chain.NewSimulated(time.Millisecond),
		Clock:        store,
		IDGen:        store,
		Validate:     validator.New(),
	}
}

func validDraft() CreateElectionCommand {
	now := time.Now().UTC()
	return CreateElectionCommand{
		Actor:       entities.Actor{ActorID: "admin-1", Role: entities.RoleAdmin},
		Title:       "City Council Election",
		Description: "Annual council seat election.",
		StartDate:   now.Add(-time.Hour),
		EndDate:     now.Add(24 * time.Hour),
		Candidates: []CandidateDraft{
			{Name: "Alice Johnson", Party: "Progressive Party"},
			{Name: "Bob Smith", Party: "Conservative Union"},
		},
	}
}

func TestCreateElectionRequiresAdmin(t *testing.T) {
	uc := newCreateUseCase(memory.NewStore(nil))
	cmd := validDraft()
	cmd.Actor = entities.Actor{ActorID: "voter-1", Role: entities.RoleVoter}

	_, err := uc.CreateElection(context.Background(), cmd)
	if !errors.Is(err, domainerrors.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized for voter actor, got %v", err)
	}
}

func TestCreateElectionRejectsShortCandidateList(t *testing.T) {
	uc := newCreateUseCase(memory.NewStore(nil))
	cmd := validDraft()
	cmd.Candidates = cmd.Candidates[:1]

	_, err := uc.CreateElection(context.Background(), cmd)
	if !errors.Is(err, domainerrors.ErrInvalidElectionDraft) {
		t.Fatalf("expected ErrInvalidElectionDraft for single candidate, got %v", err)
	}
}

func TestCreateElectionRejectsEndBeforeStart(t *testing.T) {
	uc := newCreateUseCase(memory.NewStore(nil))
	cmd := validDraft()
	cmd.EndDate = cmd.StartDate.Add(-time.Hour)

	_, err := uc.CreateElection(context.Background(), cmd)
	if !errors.Is(err, domainerrors.ErrInvalidElectionDraft) {
		t.Fatalf("expected ErrInvalidElectionDraft for inverted window, got %v", err)
	}
}

func TestCreateElectionRejectsCandidateNameCollision(t *testing.T) {
	uc := newCreateUseCase(memory.NewStore(nil))
	cmd := validDraft()
	cmd.Candidates = []CandidateDraft{
		{Name: "Alice Johnson", Party: "Progressive Party"},
		{Name: "alice johnson", Party: "Liberty Alliance"},
	}

	_, err := uc.CreateElection(context.Background(), cmd)
	if !errors.Is(err, domainerrors.ErrInvalidElectionDraft) {
		t.Fatalf("expected ErrInvalidElectionDraft for duplicate names, got %v", err)
	}
}

func TestCreateElectionPersistsAndAppendsAudit(t *testing.T) {
	store := memory.NewStore(nil)
	uc := newCreateUseCase(store)

	result, err := uc.CreateElection(context.Background(), validDraft())
	if err != nil {
		t.Fatalf("expected creation to succeed, got %v", err)
	}
	if result.Status != entities.ElectionStatusActive {
		t.Fatalf("expected derived active status, got %q", result.Status)
	}
	if len(result.Election.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(result.Election.Candidates))
	}
	for _, candidate := range result.Election.Candidates {
		if candidate.CandidateID == "" {
			t.Fatalf("expected generated candidate id")
		}
		if candidate.VoteCount != 0 {
			t.Fatalf("expected zero initial tally, got %d", candidate.VoteCount)
		}
	}

	stored, err := store.GetElection(context.Background(), result.Election.ElectionID)
	if err != nil {
		t.Fatalf("expected stored election, got %v", err)
	}
	if stored.Title != "City Council Election" {
		t.Fatalf("unexpected stored title %q", stored.Title)
	}

	transactions, err := store.ListTransactions(context.Background(), 0)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(transactions) != 1 {
		t.Fatalf("expected one audit transaction, got %d", len(transactions))
	}
	tx := transactions[0]
	if tx.Status != entities.TransactionStatusConfirmed {
		t.Fatalf("expected confirmed audit row, got %q", tx.Status)
	}
	if tx.From != systemOriginLabel || tx.To != electionContractLabel {
		t.Fatalf("unexpected audit labels %q -> %q", tx.From, tx.To)
	}
	if !strings.HasPrefix(tx.TxHash, "0x") || len(tx.TxHash) != 66 {
		t.Fatalf("expected 0x-prefixed 64-hex tx hash, got %q", tx.TxHash)
	}
	if tx.ElectionID != result.Election.ElectionID {
		t.Fatalf("expected audit row bound to election, got %q", tx.ElectionID)
	}
}
