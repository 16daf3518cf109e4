// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is an in-process Store backed by a map. Entries are live strictly
// before their expiry deadline and are evicted lazily by the read that finds
// them expired.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore returns a new empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the value for the given key. Expired entries count as a miss.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if !s.now().Before(entry.expiresAt) {
		s.mu.Lock()
		// Re-check under the write lock, a concurrent Set may have refreshed the
		// entry in the meantime.
		if current, exists := s.entries[key]; exists && !s.now().Before(current.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false, nil
	}
	return entry.value, true, nil
}

// Set stores the value under the given key with the given lifetime. A second
// Set on the same key overwrites the previous entry and its deadline.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	s.entries[key] = memoryEntry{value: value, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

// Ping satisfies the Store interface, the in-process store is always reachable
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// Close satisfies the Store interface
func (s *MemoryStore) Close() error {
	return nil
}

// Len returns the number of entries currently held, including not yet evicted
// expired ones
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
