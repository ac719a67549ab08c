package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestPublishReachesSubscribers(t *testing.T) {
	bus := New(prometheus.NewRegistry(), nil)
	subID, ch := bus.Subscribe("election.created")
	defer bus.Unsubscribe("election.created", subID)

	if err := bus.Publish(context.Background(), "election.created", "payload-1"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case evt := <-ch:
		if evt.Type != "election.created" || evt.Payload != "payload-1" {
			t.Fatalf("unexpected event %+v", evt)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected delivered event")
	}
}

func TestPublishIgnoresOtherTypes(t *testing.T) {
	bus := New(nil, nil)
	subID, ch := bus.Subscribe("vote.recorded")
	defer bus.Unsubscribe("vote.recorded", subID)

	if err := bus.Publish(context.Background(), "election.created", "payload"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	select {
	case evt := <-ch:
		t.Fatalf("expected no delivery, got %+v", evt)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := New(nil, nil)
	subID, ch := bus.Subscribe("vote.recorded")
	bus.Unsubscribe("vote.recorded", subID)

	if _, open := <-ch; open {
		t.Fatalf("expected closed channel after unsubscribe")
	}

	// Publishing after the last subscriber left is a no-op.
	if err := bus.Publish(context.Background(), "vote.recorded", "payload"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
}

func TestConcurrentPublishAndUnsubscribe(t *testing.T) {
	bus := New(nil, nil)

	stop := make(chan struct{})
	var publishers sync.WaitGroup
	for i := 0; i < 4; i++ {
		publishers.Add(1)
		go func() {
			defer publishers.Done()
			for {
				select {
				case <-stop:
					return
				default:
					_ = bus.Publish(context.Background(), "vote.recorded", "payload")
				}
			}
		}()
	}

	// Subscribers churn while publishers run. A close landing mid-delivery
	// would panic the publisher goroutine and fail the test.
	for i := 0; i < 2000; i++ {
		subID, ch := bus.Subscribe("vote.recorded")
		go func() {
			for range ch {
			}
		}()
		bus.Unsubscribe("vote.recorded", subID)
	}

	close(stop)
	publishers.Wait()
}

func TestPublishNeverBlocksOnFullSubscriber(t *testing.T) {
	bus := New(nil, nil)
	subID, _ := bus.Subscribe("transaction.appended")
	defer bus.Unsubscribe("transaction.appended", subID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberQueueSize*2; i++ {
			_ = bus.Publish(context.Background(), "transaction.appended", i)
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("publish blocked on a full subscriber queue")
	}
}
