package commands

import "sync"

// InflightTracker counts detached confirmation waits so shutdown and tests
// can block until every abandoned submission has resolved. A submission is
// irrevocable once sent; the orchestrator must run its confirmation to
// completion even when the original caller has timed out and moved on.
type InflightTracker struct {
	wg sync.WaitGroup
}

func NewInflightTracker() *InflightTracker {
	return &InflightTracker{}
}

func (t *InflightTracker) add() {
	if t != nil {
		t.wg.Add(1)
	}
}

func (t *InflightTracker) done() {
	if t != nil {
		t.wg.Done()
	}
}

// Wait blocks until all detached confirmation waits have finished.
func (t *InflightTracker) Wait() {
	if t != nil {
		t.wg.Wait()
	}
}
