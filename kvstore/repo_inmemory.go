package kvstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

var _ Store = (*InMemoryStore)(nil)

// InMemoryStore is a thread-safe, non-durable Store used by tests and by
// callers that opt out of persistence.
type InMemoryStore struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte // bucket -> key -> value
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		buckets: make(map[string]map[string][]byte),
	}
}

func (s *InMemoryStore) Get(_ context.Context, bucket, key string) ([]byte, error) {
	if err := validateKey(bucket, key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.buckets[bucket][key]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", bucket, key, ErrNotFound)
	}
	// Copy so callers cannot mutate stored bytes
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (s *InMemoryStore) Set(_ context.Context, bucket, key string, value []byte) error {
	if err := validateKey(bucket, key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.buckets[bucket]; !ok {
		s.buckets[bucket] = make(map[string][]byte)
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	s.buckets[bucket][key] = stored
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, bucket, key string) error {
	if err := validateKey(bucket, key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.buckets[bucket]
	if !ok {
		return nil
	}
	delete(entries, key)

	// Clean up empty bucket map
	if len(entries) == 0 {
		delete(s.buckets, bucket)
	}
	return nil
}

func (s *InMemoryStore) Keys(_ context.Context, bucket string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.buckets[bucket]))
	for k := range s.buckets[bucket] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
