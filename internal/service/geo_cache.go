package service

import (
	"context"
	"sync"
	"time"
)

// GeoCacheStore caches encoded lookup results keyed by IP.
type GeoCacheStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type NoopGeoCacheStore struct{}

func NewNoopGeoCacheStore() *NoopGeoCacheStore {
	return &NoopGeoCacheStore{}
}

func (s *NoopGeoCacheStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

func (s *NoopGeoCacheStore) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

type memoryCacheEntry struct {
	payload   []byte
	expiresAt time.Time
}

type InMemoryGeoCacheStore struct {
	mu    sync.RWMutex
	store map[string]memoryCacheEntry
	now   func() time.Time
}

func NewInMemoryGeoCacheStore() *InMemoryGeoCacheStore {
	return &InMemoryGeoCacheStore{
		store: make(map[string]memoryCacheEntry),
		now:   time.Now,
	}
}

func (s *InMemoryGeoCacheStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	now := s.now().UTC()
	s.mu.RLock()
	entry, ok := s.store[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if now.After(entry.expiresAt) {
		s.mu.Lock()
		if current, still := s.store[key]; still && now.After(current.expiresAt) {
			delete(s.store, key)
		}
		s.mu.Unlock()
		return nil, false, nil
	}
	return append([]byte(nil), entry.payload...), true, nil
}

func (s *InMemoryGeoCacheStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store[key] = memoryCacheEntry{
		payload:   append([]byte(nil), value...),
		expiresAt: s.now().UTC().Add(ttl),
	}
	return nil
}
