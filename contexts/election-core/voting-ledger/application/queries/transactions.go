package queries

import (
	"context"
	"strings"

	"electra/contexts/election-core/voting-ledger/domain/entities"
	"electra/contexts/election-core/voting-ledger/ports"
)

type TransactionQueries struct {
	Log ports.TransactionLog
}

// History returns transactions most-recent-first for display. Storage order
// stays append order.
func (q TransactionQueries) History(ctx context.Context, limit int) ([]entities.Transaction, error) {
	return q.Log.ListTransactions(ctx, limit)
}

func (q TransactionQueries) ElectionHistory(ctx context.Context, electionID string) ([]entities.Transaction, error) {
	return q.Log.ListTransactionsByElection(ctx, strings.TrimSpace(electionID))
}
