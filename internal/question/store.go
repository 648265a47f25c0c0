package question

import "sync"

// Store holds the current bank. A bank is only replaced as a whole.
type Store struct {
	mu   sync.RWMutex
	bank *Bank
	gen  uint64
}

func NewStore() *Store {
	return &Store{}
}

// Replace installs b as the current bank and assigns its generation.
func (s *Store) Replace(b *Bank) *Bank {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	b.Generation = s.gen
	s.bank = b
	return b
}

func (s *Store) Current() (*Bank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.bank == nil {
		return nil, ErrNoBank
	}
	return s.bank, nil
}

// Generation returns the generation of the current bank, 0 when none is
// loaded.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.bank == nil {
		return 0
	}
	return s.bank.Generation
}
