package commands

import "sync"

// PairGate serializes vote-cast requests per (election_id, voter_id) key.
// The validation read and the commit write for one pair must act as a single
// atomic unit, so the second request for a pair waits for the first to finish
// its commit or rollback. Requests for different pairs never block each other.
type PairGate struct {
	mu    sync.Mutex
	locks map[string]*pairLock
}

type pairLock struct {
	mu   sync.Mutex
	refs int
}

func NewPairGate() *PairGate {
	return &PairGate{locks: make(map[string]*pairLock)}
}

func (g *PairGate) Lock(key string) {
	g.mu.Lock()
	lock, ok := g.locks[key]
	if !ok {
		lock = &pairLock{}
		g.locks[key] = lock
	}
	lock.refs++
	g.mu.Unlock()

	lock.mu.Lock()
}

func (g *PairGate) Unlock(key string) {
	g.mu.Lock()
	lock, ok := g.locks[key]
	if ok {
		lock.refs--
		if lock.refs == 0 {
			delete(g.locks, key)
		}
	}
	g.mu.Unlock()

	if ok {
		lock.mu.Unlock()
	}
}

func pairKey(electionID string, voterID string) string {
	return electionID + "|" + voterID
}
