package workers

import (
	"context"
	"log/slog"

	application "electra/contexts/election-core/voting-ledger/application"
	"electra/contexts/election-core/voting-ledger/domain/entities"
	"electra/contexts/election-core/voting-ledger/ports"
)

// LedgerAuditor cross-checks the committed stores against each other on a
// schedule: for every election the sum of candidate tallies must equal the
// number of recorded votes, and every recorded vote must have a confirmed
// transaction. Mismatches are logged, never repaired in place; corrections
// are append-only and deliberate.
type LedgerAuditor struct {
	Elections    ports.ElectionRepository
	Votes        ports.VoteRepository
	Transactions ports.TransactionLog
	Logger       *slog.Logger
}

type AuditReport struct {
	ElectionsChecked int
	TallyMismatches  int
	MissingAuditRows int
}

// RunOnce audits every election and returns the aggregate report.
func (a LedgerAuditor) RunOnce(ctx context.Context) (AuditReport, error) {
	logger := application.ResolveLogger(a.Logger)
	elections, err := a.Elections.ListElections(ctx)
	if err != nil {
		return AuditReport{}, err
	}

	report := AuditReport{ElectionsChecked: len(elections)}
	for _, election := range elections {
		votes, err := a.Votes.ListVotesByElection(ctx, election.ElectionID)
		if err != nil {
			return report, err
		}
		if election.TotalVotes() != len(votes) {
			report.TallyMismatches++
			logger.Error("tally does not match recorded votes",
				"event", "ledger_audit_tally_mismatch",
				"module", "election-core/voting-ledger",
				"layer", "worker",
				"election_id", election.ElectionID,
				"tally_sum", election.TotalVotes(),
				"recorded_votes", len(votes),
			)
		}

		transactions, err := a.Transactions.ListTransactionsByElection(ctx, election.ElectionID)
		if err != nil {
			return report, err
		}
		confirmed := make(map[string]struct{}, len(transactions))
		for _, tx := range transactions {
			if tx.Status == entities.TransactionStatusConfirmed {
				confirmed[tx.TxHash] = struct{}{}
			}
		}
		for _, vote := range votes {
			if _, ok := confirmed[vote.Ledger.TxHash]; !ok {
				report.MissingAuditRows++
				logger.Error("vote has no confirmed transaction",
					"event", "ledger_audit_missing_transaction",
					"module", "election-core/voting-ledger",
					"layer", "worker",
					"election_id", election.ElectionID,
					"vote_id", vote.VoteID,
					"tx_hash", vote.Ledger.TxHash,
				)
			}
		}
	}

	logger.Info("ledger audit cycle finished",
		"event", "ledger_audit_finished",
		"module", "election-core/voting-ledger",
		"layer", "worker",
		"elections_checked", report.ElectionsChecked,
		"tally_mismatches", report.TallyMismatches,
		"missing_audit_rows", report.MissingAuditRows,
	)
	return report, nil
}
