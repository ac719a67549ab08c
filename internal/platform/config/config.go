package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	StorageMemory   = "memory"
	StorageBadger   = "badger"
	StoragePostgres = "postgres"
)

// Config is centralized process configuration, loaded from the environment.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string `envconfig:"SERVICE_NAME" default:"electra"`
	HTTPPort    string `envconfig:"HTTP_PORT" default:"8080"`

	// Storage selects the durable adapter for the three collections.
	Storage     string `envconfig:"STORAGE" default:"badger"`
	PostgresDSN string `envconfig:"POSTGRES_DSN"`
	BadgerDir   string `envconfig:"BADGER_DIR" default:"data/electra"`

	ChainLatency        time.Duration `envconfig:"CHAIN_LATENCY" default:"2s"`
	ConfirmationTimeout time.Duration `envconfig:"CONFIRMATION_TIMEOUT" default:"30s"`

	// SeedFixture controls first-run seeding of the sample election when the
	// election collection is empty.
	SeedFixture bool `envconfig:"SEED_FIXTURE" default:"true"`

	// AuditSchedule is a cron spec for ledger audit cycles in the worker.
	AuditSchedule string `envconfig:"AUDIT_SCHEDULE" default:"@every 1m"`
}

func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config from environment: %w", err)
	}
	switch cfg.Storage {
	case StorageMemory, StorageBadger, StoragePostgres:
	default:
		return Config{}, fmt.Errorf("unknown STORAGE value %q", cfg.Storage)
	}
	return cfg, nil
}
