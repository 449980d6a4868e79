package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Memory is an in-process expiring LRU store.
type Memory struct {
	lru *expirable.LRU[string, Entry]
}

// NewMemory creates a store holding at most size entries for ttl each.
func NewMemory(size int, ttl time.Duration) *Memory {
	if size <= 0 {
		size = 1024
	}
	return &Memory{lru: expirable.NewLRU[string, Entry](size, nil, ttl)}
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, url string) (Entry, bool, error) {
	e, ok := m.lru.Get(url)
	return e, ok, nil
}

// Set implements Store.
func (m *Memory) Set(_ context.Context, url string, entry Entry) error {
	m.lru.Add(url, entry)
	return nil
}

// Len returns the number of live entries.
func (m *Memory) Len() int { return m.lru.Len() }

// Close implements Store.
func (m *Memory) Close() error {
	m.lru.Purge()
	return nil
}

var _ Store = (*Memory)(nil)
