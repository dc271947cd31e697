package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Create(ctx context.Context, userID string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := Record{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	s.records[rec.ID] = rec
	return rec, nil
}

func (s *MemoryStore) Find(ctx context.Context, id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStore) Revoke(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	rec.Revoked = true
	s.records[id] = rec
	return nil
}

func (s *MemoryStore) Rotate(ctx context.Context, oldID, userID string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.records[oldID]
	if !ok {
		return Record{}, ErrNotFound
	}
	old.Revoked = true
	s.records[oldID] = old

	rec := Record{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	s.records[rec.ID] = rec
	return rec, nil
}

// Delete removes a record entirely; used by tests exercising the
// deleted-record refresh path.
func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
}
