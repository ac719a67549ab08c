package workers

import (
	"context"
	"log/slog"

	application "electra/contexts/election-core/voting-ledger/application"
	"electra/contexts/election-core/voting-ledger/application/commands"
	"electra/contexts/election-core/voting-ledger/ports"
)

// ChainWatcher consumes account/network change notifications from the chain
// adapter. Each notification updates the shared account state the orchestrator
// consults before submitting, and is republished on the snapshot bus so the
// UI-facing surface can react.
type ChainWatcher struct {
	Chain     ports.ChainAdapter
	Accounts  *commands.AccountState
	Snapshots ports.SnapshotPublisher
	Logger    *slog.Logger
}

// Run blocks until the context is done or the notification channel closes.
func (w ChainWatcher) Run(ctx context.Context) error {
	logger := application.ResolveLogger(w.Logger)
	notifications := w.Chain.Notifications()
	if notifications == nil {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case notification, ok := <-notifications:
			if !ok {
				return nil
			}
			w.apply(ctx, notification, logger)
		}
	}
}

func (w ChainWatcher) apply(ctx context.Context, notification ports.ChainNotification, logger *slog.Logger) {
	switch notification.Kind {
	case ports.ChainNotificationAccountChanged:
		if w.Accounts != nil {
			w.Accounts.SetAccount(notification.Account)
		}
		logger.Info("acting account changed",
			"event", "ledger_chain_account_changed",
			"module", "election-core/voting-ledger",
			"layer", "worker",
			"account", notification.Account,
		)
		w.republish(ctx, commands.EventAccountChanged, notification, logger)
	case ports.ChainNotificationNetworkChanged:
		if w.Accounts != nil {
			w.Accounts.SetChainID(notification.ChainID)
		}
		logger.Info("chain network changed",
			"event", "ledger_chain_network_changed",
			"module", "election-core/voting-ledger",
			"layer", "worker",
			"chain_id", notification.ChainID,
		)
		w.republish(ctx, commands.EventNetworkChanged, notification, logger)
	}
}

func (w ChainWatcher) republish(ctx context.Context, eventType string, payload any, logger *slog.Logger) {
	if w.Snapshots == nil {
		return
	}
	if err := w.Snapshots.Publish(ctx, eventType, payload); err != nil {
		logger.Warn("chain notification publish failed",
			"event", "ledger_chain_notification_publish_failed",
			"module", "election-core/voting-ledger",
			"layer", "worker",
			"event_type", eventType,
			"error", err.Error(),
		)
	}
}
