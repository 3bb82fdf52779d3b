package cache

import (
	"os"
	"strings"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestLRUCache_GetSet(t *testing.T) {
	c := NewLRUCache[string](2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")

	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("expected a=1, got %q %v", v, ok)
	}

	// "b" is now least recently used and gets evicted.
	c.Set("c", "3")
	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b to be evicted")
	}
	if c.Size() != 2 {
		t.Fatalf("expected size 2, got %d", c.Size())
	}

	c.Set("a", "updated")
	if v, _ := c.Get("a"); v != "updated" {
		t.Fatalf("expected overwrite, got %q", v)
	}

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected a to be deleted")
	}
}

func TestLRUCache_Expiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int](10, time.Minute)
	c.now = clock.now

	c.Set("x", 1)
	c.Set("y", 2)
	clock.t = clock.t.Add(30 * time.Second)
	c.Set("z", 3)

	clock.t = clock.t.Add(45 * time.Second)
	if _, ok := c.Get("x"); ok {
		t.Fatal("expected x to be expired")
	}
	if removed := c.CleanExpired(); removed != 1 {
		t.Fatalf("expected 1 expired entry removed (y), got %d", removed)
	}
	if v, ok := c.Get("z"); !ok || v != 3 {
		t.Fatalf("expected z to survive, got %d %v", v, ok)
	}
}

func TestManager_StartStop(t *testing.T) {
	m := NewManager()
	c := NewLRUCache[int](1, time.Nanosecond)
	m.Register(c)
	c.Set("k", 1)
	m.StartCleanup(time.Millisecond)

	deadline := time.Now().Add(time.Second)
	for c.Size() != 0 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	m.Stop()
	m.Stop()
	if c.Size() != 0 {
		t.Fatalf("expected cleanup to empty the cache, size %d", c.Size())
	}
}

func TestMemcacheCache_ItemKey(t *testing.T) {
	c := NewMemcacheCache[string]([]string{"127.0.0.1:11211"}, "viajjo:", time.Minute)
	key := c.itemKey("report:" + strings.Repeat("long email ", 40) + ":all")
	if len(key) > 250 {
		t.Fatalf("key too long: %d", len(key))
	}
	if strings.ContainsAny(key, " \t\n") {
		t.Fatalf("key contains whitespace: %q", key)
	}
	if c.itemKey("a") == c.itemKey("b") {
		t.Fatal("distinct keys collided")
	}
	if c.Size() != -1 {
		t.Fatal("memcache size should be unknown")
	}
}

func TestMemcacheCache_Live(t *testing.T) {
	host := os.Getenv("MEMCACHE_TEST_HOST")
	if host == "" {
		t.Skip("MEMCACHE_TEST_HOST not set")
	}
	c := NewMemcacheCache[map[string]int]([]string{host}, "viajjo-test:", time.Minute)
	if err := c.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	c.Set("k", map[string]int{"a": 1})
	if v, ok := c.Get("k"); !ok || v["a"] != 1 {
		t.Fatalf("unexpected value %v %v", v, ok)
	}
	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after delete")
	}
}
