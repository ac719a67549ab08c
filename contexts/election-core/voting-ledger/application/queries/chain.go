package queries

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domainerrors "electra/contexts/election-core/voting-ledger/domain/errors"
	"electra/contexts/election-core/voting-ledger/ports"
)

// ChainQueries exposes read-only cross-checks against the external ledger
// itself, independent of the local stores.
type ChainQueries struct {
	Chain ports.ChainAdapter
}

func (q ChainQueries) AccountHasVoted(ctx context.Context, account string) (bool, error) {
	voted, err := q.Chain.HasVoted(ctx, strings.TrimSpace(account))
	if err != nil {
		return false, chainReadError(err)
	}
	return voted, nil
}

func (q ChainQueries) CandidateTally(ctx context.Context, candidateID string) (ports.CandidateTally, error) {
	tally, err := q.Chain.CandidateTally(ctx, strings.TrimSpace(candidateID))
	if err != nil {
		return ports.CandidateTally{}, chainReadError(err)
	}
	return tally, nil
}

func (q ChainQueries) CandidateCount(ctx context.Context) (int, error) {
	count, err := q.Chain.CandidateCount(ctx)
	if err != nil {
		return 0, chainReadError(err)
	}
	return count, nil
}

func chainReadError(err error) error {
	if errors.Is(err, domainerrors.ErrChainUnavailable) ||
		errors.Is(err, domainerrors.ErrUnknownCandidate) {
		return err
	}
	return fmt.Errorf("%v: %w", err, domainerrors.ErrChainUnavailable)
}
