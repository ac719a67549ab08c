package eventbus

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const subscriberQueueSize = 20

// Event is a snapshot notification delivered to subscribers. Payload carries
// the read-model snapshot the producer published.
type Event struct {
	Type      string
	Timestamp time.Time
	Payload   any
}

type SubscriberID int

type metrics struct {
	published   *prometheus.CounterVec
	dropped     *prometheus.CounterVec
	subscribers prometheus.Gauge
}

// Bus fans snapshot events out to in-memory subscribers. Delivery is
// non-blocking: a subscriber that cannot keep up loses events rather than
// stalling the producer.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]map[SubscriberID]chan Event
	lastSubID   SubscriberID
	metrics     *metrics
	logger      *slog.Logger
}

func New(registerer prometheus.Registerer, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	bus := &Bus{
		subscribers: make(map[string]map[SubscriberID]chan Event),
		logger:      logger,
	}
	if registerer != nil {
		factory := promauto.With(registerer)
		bus.metrics = &metrics{
			published: factory.NewCounterVec(prometheus.CounterOpts{
				Name: "electra_events_published_total",
				Help: "Snapshot events published per type.",
			}, []string{"type"}),
			dropped: factory.NewCounterVec(prometheus.CounterOpts{
				Name: "electra_events_dropped_total",
				Help: "Snapshot events dropped because a subscriber queue was full.",
			}, []string{"type"}),
			subscribers: factory.NewGauge(prometheus.GaugeOpts{
				Name: "electra_event_subscribers",
				Help: "Currently registered snapshot subscribers.",
			}),
		}
	}
	return bus
}

// Subscribe registers a channel for events of one type. The channel is closed
// on Unsubscribe.
func (b *Bus) Subscribe(eventType string) (SubscriberID, <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastSubID++
	subID := b.lastSubID
	if _, ok := b.subscribers[eventType]; !ok {
		b.subscribers[eventType] = make(map[SubscriberID]chan Event)
	}
	ch := make(chan Event, subscriberQueueSize)
	b.subscribers[eventType][subID] = ch
	if b.metrics != nil {
		b.metrics.subscribers.Inc()
	}
	return subID, ch
}

func (b *Bus) Unsubscribe(eventType string, subID SubscriberID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.subscribers[eventType]
	if !ok {
		return
	}
	ch, ok := subs[subID]
	if !ok {
		return
	}
	delete(subs, subID)
	if len(subs) == 0 {
		delete(b.subscribers, eventType)
	}
	close(ch)
	if b.metrics != nil {
		b.metrics.subscribers.Dec()
	}
}

// Publish delivers the payload to every subscriber of the event type. It
// never blocks and never fails; the error return satisfies the snapshot
// publisher port.
func (b *Bus) Publish(ctx context.Context, eventType string, payload any) error {
	evt := Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}

	// The read lock is held across the sends so Unsubscribe cannot close a
	// channel mid-delivery. Sends never block, so holding it is safe.
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers[eventType] {
		select {
		case ch <- evt:
		default:
			if b.metrics != nil {
				b.metrics.dropped.WithLabelValues(eventType).Inc()
			}
			b.logger.Warn("subscriber queue full, dropping event",
				"event", "snapshot_event_dropped",
				"type", eventType,
			)
		}
	}
	if b.metrics != nil {
		b.metrics.published.WithLabelValues(eventType).Inc()
	}
	return nil
}
