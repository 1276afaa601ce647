// Package storage provides concrete implementations of lss.Store.
package storage

import (
	"context"
	"strings"
	"sync"
	"time"
)

// entry pairs a stored value with its absolute expiry, mirroring spec §4.E:
// "a mapping from key to (bytes, absolute_expiry?)".
type entry struct {
	value    []byte
	expireAt time.Time // zero means no expiry
}

func (e entry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && now.After(e.expireAt)
}

// Memory is an in-process lss.Store backed by a mutex-guarded map, grounded
// on the same discipline as a single-process session manager: one
// sync.RWMutex covering the whole map, reads and writes evicting expired
// entries before responding.
type Memory struct {
	mu   sync.RWMutex
	data map[string]entry
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]entry)}
}

// Get returns the value for key, evicting it first if its TTL has elapsed.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	if e.expired(time.Now()) {
		delete(m.data, key)
		return nil, false, nil
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true, nil
}

// Set stores value under key. ttl of zero disables expiry.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expireAt time.Time
	if ttl > 0 {
		expireAt = time.Now().Add(ttl)
	}
	buf := make([]byte, len(value))
	copy(buf, value)
	m.data[key] = entry{value: buf, expireAt: expireAt}
	return nil
}

// Delete removes key, reporting 1 if it was present (and unexpired) or 0
// otherwise.
func (m *Memory) Delete(_ context.Context, key string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.data[key]
	if !ok || e.expired(time.Now()) {
		delete(m.data, key)
		return 0, nil
	}
	delete(m.data, key)
	return 1, nil
}

// Scan returns every live key with the given prefix, evicting expired
// entries it encounters along the way.
func (m *Memory) Scan(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var keys []string
	for k, e := range m.data {
		if e.expired(now) {
			delete(m.data, k)
			continue
		}
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}
