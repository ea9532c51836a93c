package repository

import (
	"context"
	"sync"
)

type itemKey struct {
	clientID string
	key      string
}

// MemoryRepository implements the Repository interface in process memory.
// State is lost on restart.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[itemKey]string
}

// NewMemoryRepository creates an empty memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[itemKey]string)}
}

func (r *MemoryRepository) GetItem(_ context.Context, clientID, key string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.items[itemKey{clientID, key}]
	return v, ok, nil
}

func (r *MemoryRepository) SetItem(_ context.Context, clientID, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[itemKey{clientID, key}] = value
	return nil
}

func (r *MemoryRepository) RemoveItem(_ context.Context, clientID, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, itemKey{clientID, key})
	return nil
}

// ClientStorage is one browser's view of a Repository
type ClientStorage struct {
	repo     Repository
	clientID string
}

// ForClient scopes repo to clientID
func ForClient(repo Repository, clientID string) *ClientStorage {
	return &ClientStorage{repo: repo, clientID: clientID}
}

func (s *ClientStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	return s.repo.GetItem(ctx, s.clientID, key)
}

func (s *ClientStorage) SetItem(ctx context.Context, key, value string) error {
	return s.repo.SetItem(ctx, s.clientID, key, value)
}

func (s *ClientStorage) RemoveItem(ctx context.Context, key string) error {
	return s.repo.RemoveItem(ctx, s.clientID, key)
}
