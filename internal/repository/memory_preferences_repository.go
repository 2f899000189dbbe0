package repository

import (
	"context"
	"sync"
)

// memoryPreferenceRepository is a process-local store for tests and
// throwaway sessions.
type memoryPreferenceRepository struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ PreferenceRepository = (*memoryPreferenceRepository)(nil)

func NewMemoryPreferenceRepository() PreferenceRepository {
	return &memoryPreferenceRepository{values: make(map[string]string)}
}

func (r *memoryPreferenceRepository) Get(ctx context.Context, userID, key string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.values[userID+"\x00"+key]
	return value, ok, nil
}

func (r *memoryPreferenceRepository) Put(ctx context.Context, userID, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.values[userID+"\x00"+key] = value
	return nil
}
