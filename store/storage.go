// Package store defines the shared key-value storage and publish-subscribe
// ports that session state is persisted and broadcast through, with
// in-memory implementations for single-process deployments.
package store

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when a key is not found in the storage.
var ErrNotFound = errors.New("key not found")

// Storage represents an external key-value store for session state.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, exp time.Duration) error
	Delete(ctx context.Context, key string) error
}

type memoryEntry struct {
	val []byte
	exp time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.exp.IsZero() && now.After(e.exp)
}

// MemoryStorage provides an in-memory implementation of the Storage interface.
type MemoryStorage struct {
	store map[string]memoryEntry
	mu    sync.RWMutex

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryStorage creates a new in-memory storage that prunes expired
// entries every interval. Call Close to stop pruning.
func NewMemoryStorage(interval time.Duration) *MemoryStorage {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	s := &MemoryStorage{
		store: make(map[string]memoryEntry),
		stop:  make(chan struct{}),
	}
	go s.pruneLoop(interval)
	return s
}

// Get retrieves a value from the in-memory store.
func (s *MemoryStorage) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	entry, ok := s.store[key]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if entry.expired(time.Now()) {
		s.mu.Lock()
		delete(s.store, key)
		s.mu.Unlock()
		return nil, ErrNotFound
	}

	valCopy := make([]byte, len(entry.val))
	copy(valCopy, entry.val)
	return valCopy, nil
}

// Set stores a value in the in-memory store.
// If exp is > 0, the entry will be removed after the given duration.
func (s *MemoryStorage) Set(_ context.Context, key string, val []byte, exp time.Duration) error {
	var expiresAt time.Time
	if exp > 0 {
		expiresAt = time.Now().Add(exp)
	}

	valCopy := make([]byte, len(val))
	copy(valCopy, val)

	s.mu.Lock()
	s.store[key] = memoryEntry{val: valCopy, exp: expiresAt}
	s.mu.Unlock()
	return nil
}

// Delete removes a value from the in-memory store.
func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.store, key)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included until pruned.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.store)
}

// Close stops the prune loop.
func (s *MemoryStorage) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}

func (s *MemoryStorage) pruneLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.prune(time.Now())
		}
	}
}

func (s *MemoryStorage) prune(now time.Time) {
	s.mu.Lock()
	for key, entry := range s.store {
		if entry.expired(now) {
			delete(s.store, key)
		}
	}
	s.mu.Unlock()
}
