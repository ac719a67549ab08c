package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	votingledger "electra/contexts/election-core/voting-ledger"
	"electra/contexts/election-core/voting-ledger/adapters/badgerstore"
	"electra/contexts/election-core/voting-ledger/adapters/chain"
	"electra/contexts/election-core/voting-ledger/adapters/memory"
	postgresadapter "electra/contexts/election-core/voting-ledger/adapters/postgres"
	"electra/contexts/election-core/voting-ledger/application/commands"
	"electra/contexts/election-core/voting-ledger/domain/entities"
	"electra/contexts/election-core/voting-ledger/ports"
	"electra/internal/platform/config"
	"electra/internal/platform/db"
	"electra/internal/platform/eventbus"
	"electra/internal/platform/httpserver"
	"electra/internal/platform/kv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	module   votingledger.Module
	postgres *db.Postgres
	badger   *kv.Badger
	store    *badgerstore.Store
	logger   *slog.Logger
}

type WorkerApp struct {
	module   votingledger.Module
	schedule string
	postgres *db.Postgres
	badger   *kv.Badger
	store    *badgerstore.Store
	logger   *slog.Logger
}

// storageSet is the resolved persistence wiring for one process.
type storageSet struct {
	elections    ports.ElectionRepository
	votes        ports.VoteRepository
	transactions ports.TransactionLog
	clock        ports.Clock
	idGen        ports.IDGenerator
	postgres     *db.Postgres
	badger       *kv.Badger
	store        *badgerstore.Store
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	storage, err := buildStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	events := eventbus.New(registry, logger)
	simulated := chain.NewSimulated(cfg.ChainLatency)

	module := votingledger.NewModule(votingledger.Dependencies{
		Elections:           storage.elections,
		Votes:               storage.votes,
		Transactions:        storage.transactions,
		Chain:               simulated,
		Refs:                simulated,
		Snapshots:           events,
		Clock:               storage.clock,
		IDGen:               storage.idGen,
		ConfirmationTimeout: cfg.ConfirmationTimeout,
		Metrics:             commands.NewMetrics(registry),
		Logger:              logger,
	})
	module.Chain = simulated

	if err := prepareLedger(cfg, storage, simulated, logger); err != nil {
		closeStorage(storage)
		return nil, err
	}

	server := httpserver.New(module, events, registry, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		module:   module,
		postgres: storage.postgres,
		badger:   storage.badger,
		store:    storage.store,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	storage, err := buildStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	events := eventbus.New(registry, logger)
	simulated := chain.NewSimulated(cfg.ChainLatency)

	module := votingledger.NewModule(votingledger.Dependencies{
		Elections:           storage.elections,
		Votes:               storage.votes,
		Transactions:        storage.transactions,
		Chain:               simulated,
		Refs:                simulated,
		Snapshots:           events,
		Clock:               storage.clock,
		IDGen:               storage.idGen,
		ConfirmationTimeout: cfg.ConfirmationTimeout,
		Metrics:             commands.NewMetrics(registry),
		Logger:              logger,
	})
	module.Chain = simulated

	return &WorkerApp{
		module:   module,
		schedule: cfg.AuditSchedule,
		postgres: storage.postgres,
		badger:   storage.badger,
		store:    storage.store,
		logger:   logger,
	}, nil
}

func buildStorage(cfg config.Config, logger *slog.Logger) (storageSet, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		store := memory.NewStore(nil)
		return storageSet{
			elections:    store,
			votes:        store,
			transactions: store,
			clock:        store,
			idGen:        store,
		}, nil

	case config.StorageBadger:
		badgerDB, err := kv.Open(cfg.BadgerDir, logger)
		if err != nil {
			return storageSet{}, err
		}
		store, err := badgerstore.New(badgerDB.DB)
		if err != nil {
			_ = badgerDB.Close()
			return storageSet{}, err
		}
		return storageSet{
			elections:    store,
			votes:        store,
			transactions: store,
			clock:        store,
			idGen:        store,
			badger:       badgerDB,
			store:        store,
		}, nil

	case config.StoragePostgres:
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			return storageSet{}, errors.New("POSTGRES_DSN is required when STORAGE=postgres")
		}
		pg, err := db.Connect(cfg.PostgresDSN)
		if err != nil {
			return storageSet{}, err
		}
		if err := pg.Migrate(); err != nil {
			_ = pg.Close()
			return storageSet{}, err
		}
		repo := postgresadapter.NewRepository(pg.DB, logger)
		return storageSet{
			elections:    repo,
			votes:        repo,
			transactions: repo,
			clock:        postgresadapter.SystemClock{},
			idGen:        postgresadapter.UUIDGenerator{},
			postgres:     pg,
		}, nil

	default:
		return storageSet{}, fmt.Errorf("unknown storage mode %q", cfg.Storage)
	}
}

// prepareLedger seeds the sample election on first run and registers the
// known candidates with the chain adapter so tally queries resolve after a
// restart.
func prepareLedger(
	cfg config.Config,
	storage storageSet,
	simulated *chain.Simulated,
	logger *slog.Logger,
) error {
	ctx := context.Background()

	count, err := storage.elections.CountElections(ctx)
	if err != nil {
		return err
	}
	if count == 0 && cfg.SeedFixture {
		election, err := fixtureElection(ctx, storage.clock, storage.idGen)
		if err != nil {
			return err
		}
		if err := storage.elections.SaveElection(ctx, election); err != nil {
			return err
		}
		logger.Info("seeded sample election",
			"event", "fixture_election_seeded",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"election_id", election.ElectionID,
		)
	}

	elections, err := storage.elections.ListElections(ctx)
	if err != nil {
		return err
	}
	for _, election := range elections {
		for _, candidate := range election.Candidates {
			simulated.RegisterCandidate(candidate.CandidateID, candidate.Name)
		}
	}
	return nil
}

func fixtureElection(
	ctx context.Context,
	clock ports.Clock,
	idGen ports.IDGenerator,
) (entities.Election, error) {
	now := clock.Now().UTC()
	electionID, err := idGen.NewID(ctx)
	if err != nil {
		return entities.Election{}, err
	}

	drafts := []struct {
		name  string
		party string
	}{
		{name: "Alice Johnson", party: "Progressive Party"},
		{name: "Bob Smith", party: "Conservative Union"},
		{name: "Carol Williams", party: "Liberty Alliance"},
	}
	candidates := make([]entities.Candidate, 0, len(drafts))
	for _, draft := range drafts {
		candidateID, err := idGen.NewID(ctx)
		if err != nil {
			return entities.Election{}, err
		}
		candidates = append(candidates, entities.Candidate{
			CandidateID: candidateID,
			Name:        draft.name,
			Party:       draft.party,
		})
	}

	return entities.Election{
		ElectionID:  electionID,
		Title:       "Presidential Election 2024",
		Description: "Choose the next president from the registered candidates.",
		StartDate:   now,
		EndDate:     now.Add(7 * 24 * time.Hour),
		Candidates:  candidates,
		CreatedBy:   "system",
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func closeStorage(storage storageSet) {
	if storage.store != nil {
		_ = storage.store.Close()
	}
	if storage.badger != nil {
		_ = storage.badger.Close()
	}
	if storage.postgres != nil {
		_ = storage.postgres.Close()
	}
}

func (a *APIApp) Run(ctx context.Context) error {
	go func() {
		if err := a.module.Watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("chain watcher stopped",
				"event", "chain_watcher_stopped",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err,
			)
		}
	}()

	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)
	return a.server.Start()
}

func (a *APIApp) Close() error {
	// Let detached confirmation work finish before tearing down storage.
	a.module.Inflight.Wait()
	closeStorage(storageSet{postgres: a.postgres, badger: a.badger, store: a.store})
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	go func() {
		if err := w.module.Watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("chain watcher stopped",
				"event", "chain_watcher_stopped",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err,
			)
		}
	}()

	scheduler := cron.New()
	_, err := scheduler.AddFunc(w.schedule, func() {
		report, err := w.module.Auditor.RunOnce(ctx)
		if err != nil {
			w.logger.Error("ledger audit failed",
				"event", "ledger_audit_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err,
			)
			return
		}
		w.logger.Info("ledger audit completed",
			"event", "ledger_audit_completed",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"elections_checked", report.ElectionsChecked,
			"tally_mismatches", report.TallyMismatches,
			"missing_audit_rows", report.MissingAuditRows,
		)
	})
	if err != nil {
		return fmt.Errorf("schedule ledger audit: %w", err)
	}

	scheduler.Start()
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"audit_schedule", w.schedule,
	)

	<-ctx.Done()
	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	return nil
}

func (w *WorkerApp) Close() error {
	w.module.Inflight.Wait()
	closeStorage(storageSet{postgres: w.postgres, badger: w.badger, store: w.store})
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
