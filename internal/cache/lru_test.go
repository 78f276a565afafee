package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should be present")
	}
	c.Set("c", 3) // evicts b, the least recently used

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("a = %v, %v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d", c.Size())
	}

	c.Set("a", 10)
	if v, _ := c.Get("a"); v != 10 {
		t.Fatalf("overwrite failed, a = %d", v)
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](10, time.Minute)
	c.SetClock(clock.now)

	c.Set("k", "v")
	c.Set("k2", "v2")
	clock.t = clock.t.Add(30 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry expired early")
	}
	clock.t = clock.t.Add(time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry should have expired")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired() = %d, want 1", n)
	}
	if c.Size() != 0 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestLRUCachePurgeAndDelete(t *testing.T) {
	c := NewLRUCache[int](0, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if c.Size() != 1 {
		t.Fatalf("maxSize below 1 should behave as 1, size = %d", c.Size())
	}
	c.Delete("b")
	c.Delete("missing")
	if c.Size() != 0 {
		t.Fatalf("size after delete = %d", c.Size())
	}
	c.Set("x", 1)
	c.Purge()
	if _, ok := c.Get("x"); ok || c.Size() != 0 {
		t.Fatal("purge left entries behind")
	}
}

func TestManagerSweepAndStop(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	c := NewLRUCache[int](5, time.Second)
	c.SetClock(clock.now)
	c.Set("a", 1)

	m := NewManager(nil)
	m.Register(c)
	clock.t = clock.t.Add(2 * time.Second)
	if n := m.Sweep(); n != 1 {
		t.Fatalf("Sweep() = %d, want 1", n)
	}

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()

	idle := NewManager(nil)
	idle.Stop()
}
