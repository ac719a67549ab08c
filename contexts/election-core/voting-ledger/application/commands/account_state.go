package commands

import "sync"

// AccountState tracks the chain adapter's current acting account and network.
// Account and network change notifications invalidate any in-flight assumption
// that the account captured at request time is still the signer, so the
// orchestrator consults this state right before submitting.
type AccountState struct {
	mu      sync.RWMutex
	account string
	chainID string
}

func NewAccountState() *AccountState {
	return &AccountState{}
}

func (s *AccountState) SetAccount(account string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.account = account
}

func (s *AccountState) SetChainID(chainID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chainID = chainID
}

// Current returns the last observed acting account; empty means no
// observation has arrived yet and the caller's account is trusted as-is.
func (s *AccountState) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account
}

func (s *AccountState) ChainID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chainID
}
