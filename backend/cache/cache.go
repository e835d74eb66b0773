// Package cache provides the small key/value cache used for resolved
// remote-file URLs. The interface is narrow so a networked implementation
// can be swapped in behind it.
package cache

import (
	"sync"
	"time"
)

type Cache interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
	Len() int
	Stop()
}

type entry struct {
	value     string
	expiresAt time.Time
}

// Memory is an in-process TTL cache with a hard capacity bound. Expired
// entries are removed by a background sweep; when full, the entry closest
// to expiry is evicted to make room.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	cap     int
	entries map[string]entry
	stop    chan struct{}
	once    sync.Once
}

func NewMemory(ttl time.Duration, capacity int) *Memory {
	if capacity <= 0 {
		capacity = 1000
	}
	m := &Memory{
		ttl:     ttl,
		cap:     capacity,
		entries: make(map[string]entry),
		stop:    make(chan struct{}),
	}
	go m.sweep()
	return m
}

func (m *Memory) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return "", false
	}
	if time.Now().After(e.expiresAt) {
		delete(m.entries, key)
		return "", false
	}
	return e.value, true
}

func (m *Memory) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.cap {
		m.evictOldestLocked()
	}
	m.entries[key] = entry{value: value, expiresAt: time.Now().Add(m.ttl)}
}

func (m *Memory) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) Stop() {
	m.once.Do(func() { close(m.stop) })
}

func (m *Memory) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	for k, e := range m.entries {
		if oldestKey == "" || e.expiresAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.expiresAt
		}
	}
	if oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}

func (m *Memory) sweep() {
	interval := m.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			now := time.Now()
			m.mu.Lock()
			for k, e := range m.entries {
				if now.After(e.expiresAt) {
					delete(m.entries, k)
				}
			}
			m.mu.Unlock()
		}
	}
}
