package votingledger

import (
	"log/slog"
	"time"

	"electra/contexts/election-core/voting-ledger/adapters/chain"
	httpadapter "electra/contexts/election-core/voting-ledger/adapters/http"
	"electra/contexts/election-core/voting-ledger/adapters/memory"
	"electra/contexts/election-core/voting-ledger/application/commands"
	"electra/contexts/election-core/voting-ledger/application/queries"
	"electra/contexts/election-core/voting-ledger/application/workers"
	"electra/contexts/election-core/voting-ledger/domain/entities"
	"electra/contexts/election-core/voting-ledger/ports"

	"github.com/go-playground/validator/v10"
)

type Module struct {
	Handler  httpadapter.Handler
	Watcher  workers.ChainWatcher
	Auditor  workers.LedgerAuditor
	Inflight *commands.InflightTracker

	// Store is set only for in-memory wiring.
	Store *memory.Store
	// Chain is set only when the simulated adapter is wired.
	Chain *chain.Simulated
}

type Dependencies struct {
	Elections    ports.ElectionRepository
	Votes        ports.VoteRepository
	Transactions ports.TransactionLog
	Chain        ports.ChainAdapter
	Refs         ports.LedgerRefSource
	Snapshots    ports.SnapshotPublisher
	Clock        ports.Clock
	IDGen        ports.IDGenerator

	ConfirmationTimeout time.Duration
	Metrics             *commands.Metrics
	Logger              *slog.Logger
}

func NewModule(deps Dependencies) Module {
	gate := commands.NewPairGate()
	accounts := commands.NewAccountState()
	inflight := commands.NewInflightTracker()

	castVotes := commands.CastVoteUseCase{
		Elections:           deps.Elections,
		Votes:               deps.Votes,
		Transactions:        deps.Transactions,
		Chain:               deps.Chain,
		Refs:                deps.Refs,
		Snapshots:           deps.Snapshots,
		Clock:               deps.Clock,
		IDGen:               deps.IDGen,
		Gate:                gate,
		Accounts:            accounts,
		Inflight:            inflight,
		ConfirmationTimeout: deps.ConfirmationTimeout,
		Metrics:             deps.Metrics,
		Logger:              deps.Logger,
	}
	createElections := commands.CreateElectionUseCase{
		Elections:    deps.Elections,
		Transactions: deps.Transactions,
		Refs:         deps.Refs,
		Snapshots:    deps.Snapshots,
		Clock:        deps.Clock,
		IDGen:        deps.IDGen,
		Validate:     validator.New(),
		Logger:       deps.Logger,
	}
	electionQueries := queries.ElectionQueries{
		Elections: deps.Elections,
		Votes:     deps.Votes,
		Clock:     deps.Clock,
	}

	return Module{
		Handler: httpadapter.Handler{
			CreateElections: createElections,
			CastVotes:       castVotes,
			Elections:       electionQueries,
			Transactions:    queries.TransactionQueries{Log: deps.Transactions},
			Chain:           queries.ChainQueries{Chain: deps.Chain},
			Logger:          deps.Logger,
		},
		Watcher: workers.ChainWatcher{
			Chain:     deps.Chain,
			Accounts:  accounts,
			Snapshots: deps.Snapshots,
			Logger:    deps.Logger,
		},
		Auditor: workers.LedgerAuditor{
			Elections:    deps.Elections,
			Votes:        deps.Votes,
			Transactions: deps.Transactions,
			Logger:       deps.Logger,
		},
		Inflight: inflight,
	}
}

// NewInMemoryModule wires the module against the in-memory store and the
// simulated chain adapter. Test and local wiring.
func NewInMemoryModule(seed []entities.Election, chainLatency time.Duration, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	simulated := chain.NewSimulated(chainLatency)
	module := NewModule(Dependencies{
		Elections:    store,
		Votes:        store,
		Transactions: store,
		Chain:        simulated,
		Refs:         simulated,
		Clock:        store,
		IDGen:        store,
		Logger:       logger,
	})
	module.Store = store
	module.Chain = simulated
	return module
}
