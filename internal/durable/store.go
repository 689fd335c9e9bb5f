// Package durable provides the key/value store that survives a tracker reset.
//
// The store is deliberately minimal: string keys, string values, get and set.
// There are no transactions; callers snapshot whole records under one key.
package durable

import (
	"context"
	"errors"
	"sync"

	"github.com/celestiaorg/reloader/internal/db/repos"
)

// Store is a string-keyed, string-valued store that outlives the process
// generation which wrote to it
type Store interface {
	// Get returns the value for key and whether it was present
	Get(ctx context.Context, key string) (string, bool, error)
	// Set writes value under key, replacing any previous value
	Set(ctx context.Context, key, value string) error
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*DBStore)(nil)
)

// Memory is an in-process Store. Sharing one Memory between two tracker
// instances simulates a reset in tests.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Get implements Store
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set implements Store
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Len returns the number of stored keys
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

// DBStore is a Store backed by the durable_entries table
type DBStore struct {
	repo *repos.DurableEntryRepository
}

// NewDBStore creates a Store on top of the given repository
func NewDBStore(repo *repos.DurableEntryRepository) *DBStore {
	return &DBStore{repo: repo}
}

// Get implements Store
func (s *DBStore) Get(ctx context.Context, key string) (string, bool, error) {
	entry, err := s.repo.Get(ctx, key)
	if errors.Is(err, repos.ErrEntryNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

// Set implements Store
func (s *DBStore) Set(ctx context.Context, key, value string) error {
	return s.repo.Put(ctx, key, value)
}
