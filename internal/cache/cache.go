// Package cache holds the report cache backends: an in-process LRU with TTL
// and a memcached client for deployments running several server replicas.
package cache

import (
	"log/slog"
	"sync"
	"time"
)

// Cache is a key/value cache whose entries may disappear at any time.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	// Size is the number of live entries, or -1 when the backend cannot
	// tell.
	Size() int
}

// Cleaner is a cache that must be swept for expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager sweeps registered in-process caches on an interval.
type Manager struct {
	mu       sync.Mutex
	cleaners []Cleaner
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewManager() *Manager {
	return &Manager{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (m *Manager) Register(c Cleaner) {
	m.mu.Lock()
	m.cleaners = append(m.cleaners, c)
	m.mu.Unlock()
}

// StartCleanup runs the sweep loop until Stop.
func (m *Manager) StartCleanup(interval time.Duration) {
	go m.run(interval)
}

func (m *Manager) run(interval time.Duration) {
	defer close(m.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			if removed := m.sweep(); removed > 0 {
				slog.Debug("Expired cache entries removed", "component", "cache", "removed", removed)
			}
		}
	}
}

func (m *Manager) sweep() int {
	m.mu.Lock()
	cleaners := append([]Cleaner(nil), m.cleaners...)
	m.mu.Unlock()

	removed := 0
	for _, c := range cleaners {
		removed += c.CleanExpired()
	}
	return removed
}

// Stop ends the sweep loop and waits for it. Only valid after
// StartCleanup; repeated calls are no-ops.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
		<-m.done
	})
}
