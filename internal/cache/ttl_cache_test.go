package cache

import (
	"testing"
	"time"
)

func TestTTLCacheSetGet(t *testing.T) {
	c := NewTTLCache[string, int](4, time.Minute)
	c.Set("a", 1)

	value, ok := c.Get("a")
	if !ok || value != 1 {
		t.Fatalf("unexpected get: %d %v", value, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatalf("expected miss")
	}
}

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache[string, int](4, 10*time.Millisecond)
	c.Set("a", 1)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected expired entry to miss")
	}
	if c.Len() != 0 {
		t.Fatalf("expected expired entry removed, len=%d", c.Len())
	}
}

func TestTTLCacheEviction(t *testing.T) {
	c := NewTTLCache[string, int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	if c.Len() != 2 {
		t.Fatalf("expected eviction to cap size, len=%d", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected oldest entry evicted")
	}
}

func TestTTLCacheModify(t *testing.T) {
	c := NewTTLCache[string, int](4, time.Minute)

	value, ok := c.Modify("count", func(current int, _ bool) int { return current + 1 })
	if !ok || value != 1 {
		t.Fatalf("unexpected first modify: %d %v", value, ok)
	}
	value, _ = c.Modify("count", func(current int, _ bool) int { return current + 1 })
	if value != 2 {
		t.Fatalf("unexpected second modify: %d", value)
	}
}

func TestTTLCacheDelete(t *testing.T) {
	c := NewTTLCache[string, int](4, time.Minute)
	c.Set("a", 1)
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected deleted entry to miss")
	}
	c.Delete("missing")
}
