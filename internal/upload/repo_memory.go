package upload

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository keeps file records in memory. Used by tests.
type MemoryRepository struct {
	mu    sync.Mutex
	files map[string]File
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{files: make(map[string]File)}
}

func (r *MemoryRepository) Create(_ context.Context, f *File) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[f.ID] = *f
	return nil
}

func (r *MemoryRepository) FindByKeyForUser(_ context.Context, key, userID string) (File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.files {
		if f.Key == key && f.UserID == userID {
			return f, nil
		}
	}
	return File{}, ErrNotFound
}

func (r *MemoryRepository) MarkUploaded(_ context.Context, id string, size int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[id]
	if !ok {
		return ErrNotFound
	}
	f.Status = StatusUploaded
	f.Size = size
	f.UpdatedAt = time.Now().UTC()
	r.files[id] = f
	return nil
}
