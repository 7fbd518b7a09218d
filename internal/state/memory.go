package state

import "sync"

// MemoryStore is an in-memory Store for tests and throwaway runs.
type MemoryStore struct {
	mu            sync.Mutex
	updateID      int64
	hasUpdateID   bool
	broadcastDate string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) LastUpdateID() (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateID, s.hasUpdateID, nil
}

func (s *MemoryStore) SetLastUpdateID(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateID = id
	s.hasUpdateID = true
	return nil
}

func (s *MemoryStore) LastBroadcastDate() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.broadcastDate, nil
}

func (s *MemoryStore) SetLastBroadcastDate(date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcastDate = date
	return nil
}

func (s *MemoryStore) Close() error { return nil }
