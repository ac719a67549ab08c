package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"electra/contexts/election-core/voting-ledger/adapters/chain"
	"electra/contexts/election-core/voting-ledger/application/commands"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *capturePublisher) Publish(_ context.Context, eventType string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return nil
}

func (p *capturePublisher) captured() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

func TestWatcherAppliesAndRepublishesNotifications(t *testing.T) {
	sim := chain.NewSimulated(time.Millisecond)
	accounts := commands.NewAccountState()
	publisher := &capturePublisher{}
	watcher := ChainWatcher{Chain: sim, Accounts: accounts, Snapshots: publisher}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- watcher.Run(ctx)
	}()

	sim.EmitAccountChange("0xnew")
	sim.EmitNetworkChange("5777")

	deadline := time.After(time.Second)
	for accounts.Current() != "0xnew" || accounts.ChainID() != "5777" {
		select {
		case <-deadline:
			t.Fatalf("watcher did not apply notifications, account=%q chain=%q",
				accounts.Current(), accounts.ChainID())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}

	events := publisher.captured()
	if len(events) != 2 {
		t.Fatalf("expected two republished events, got %v", events)
	}
	if events[0] != commands.EventAccountChanged || events[1] != commands.EventNetworkChanged {
		t.Fatalf("unexpected event order %v", events)
	}
}
