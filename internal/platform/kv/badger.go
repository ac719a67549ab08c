package kv

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	badger "github.com/dgraph-io/badger/v4"
)

// Badger wraps the embedded key-value store used by the durable ledger
// collections.
type Badger struct {
	DB *badger.DB
}

func Open(dir string, logger *slog.Logger) (*Badger, error) {
	if dir == "" {
		return nil, errors.New("badger data dir is required")
	}
	if _, err := os.Stat(dir); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read badger data dir: %w", err)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create badger data dir: %w", err)
		}
	}

	opts := badger.DefaultOptions(dir).
		WithLogger(newBadgerLogger(logger)).
		// The default INFO logging is a bit verbose
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return &Badger{DB: db}, nil
}

// OpenInMemory opens a store without a backing directory. Used by tests.
func OpenInMemory(logger *slog.Logger) (*Badger, error) {
	opts := badger.DefaultOptions("").
		WithLogger(newBadgerLogger(logger)).
		WithLoggingLevel(badger.WARNING).
		WithInMemory(true)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory badger db: %w", err)
	}
	return &Badger{DB: db}, nil
}

func (b *Badger) Close() error {
	if b == nil || b.DB == nil {
		return nil
	}
	return b.DB.Close()
}

// badgerLogger adapts slog to the badger logging interface.
type badgerLogger struct {
	logger *slog.Logger
}

func newBadgerLogger(logger *slog.Logger) *badgerLogger {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &badgerLogger{logger: logger}
}

func (l *badgerLogger) Errorf(msg string, args ...any) {
	l.logger.Error(fmt.Sprintf(msg, args...), "component", "kv")
}

func (l *badgerLogger) Warningf(msg string, args ...any) {
	l.logger.Warn(fmt.Sprintf(msg, args...), "component", "kv")
}

func (l *badgerLogger) Infof(msg string, args ...any) {
	l.logger.Info(fmt.Sprintf(msg, args...), "component", "kv")
}

func (l *badgerLogger) Debugf(msg string, args ...any) {
	l.logger.Debug(fmt.Sprintf(msg, args...), "component", "kv")
}
