package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// MemcacheCache stores JSON-encoded values in memcached so every server
// replica sees the same entries.
type MemcacheCache[T any] struct {
	client *memcache.Client
	prefix string
	ttl    time.Duration
}

func NewMemcacheCache[T any](hosts []string, prefix string, ttl time.Duration) *MemcacheCache[T] {
	client := memcache.New(hosts...)
	client.Timeout = 250 * time.Millisecond
	return &MemcacheCache[T]{client: client, prefix: prefix, ttl: ttl}
}

// itemKey hashes the logical key; memcached rejects keys longer than 250
// bytes or containing spaces and control characters.
func (c *MemcacheCache[T]) itemKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return c.prefix + hex.EncodeToString(sum[:])
}

func (c *MemcacheCache[T]) Get(key string) (T, bool) {
	var zero T
	item, err := c.client.Get(c.itemKey(key))
	if err != nil {
		if !errors.Is(err, memcache.ErrCacheMiss) {
			slog.Warn("Memcache get failed", "component", "cache", "error", err)
		}
		return zero, false
	}
	var v T
	if err := json.Unmarshal(item.Value, &v); err != nil {
		slog.Warn("Memcache value undecodable, dropping", "component", "cache", "error", err)
		c.Delete(key)
		return zero, false
	}
	return v, true
}

func (c *MemcacheCache[T]) Set(key string, data T) {
	b, err := json.Marshal(data)
	if err != nil {
		slog.Warn("Memcache encode failed", "component", "cache", "error", err)
		return
	}
	err = c.client.Set(&memcache.Item{
		Key:        c.itemKey(key),
		Value:      b,
		Expiration: int32(c.ttl / time.Second),
	})
	if err != nil {
		slog.Warn("Memcache set failed", "component", "cache", "error", err)
	}
}

func (c *MemcacheCache[T]) Delete(key string) {
	err := c.client.Delete(c.itemKey(key))
	if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		slog.Warn("Memcache delete failed", "component", "cache", "error", err)
	}
}

// Size is unknown for a shared memcached pool.
func (c *MemcacheCache[T]) Size() int {
	return -1
}

// Ping checks every configured server.
func (c *MemcacheCache[T]) Ping() error {
	return c.client.Ping()
}
