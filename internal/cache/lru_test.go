package cache

import (
	"testing"
	"time"

	"fintrack/internal/log"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestCache(size int, ttl time.Duration) (*LRUCache[int], *clock) {
	c := NewLRUCache[int](size, ttl)
	clk := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c.now = clk.now
	return c, clk
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("%s missing", k)
		}
	}
}

func TestLRUCacheSlidingExpiry(t *testing.T) {
	c, clk := newTestCache(10, time.Minute)
	c.Set("s", 1)

	clk.t = clk.t.Add(50 * time.Second)
	if _, ok := c.Get("s"); !ok {
		t.Fatal("entry expired too early")
	}
	clk.t = clk.t.Add(50 * time.Second)
	if _, ok := c.Get("s"); !ok {
		t.Fatal("hit did not extend expiry")
	}
	clk.t = clk.t.Add(61 * time.Second)
	if _, ok := c.Get("s"); ok {
		t.Error("idle entry still alive")
	}
}

func TestLRUCacheGetOrCreate(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)
	calls := 0
	create := func() int { calls++; return 42 }

	v, created := c.GetOrCreate("k", create)
	if v != 42 || !created {
		t.Errorf("first GetOrCreate() = %d, %v", v, created)
	}
	v, created = c.GetOrCreate("k", create)
	if v != 42 || created || calls != 1 {
		t.Errorf("second GetOrCreate() = %d, %v with %d calls", v, created, calls)
	}
}

func TestManagerCleanNow(t *testing.T) {
	c, clk := newTestCache(10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	clk.t = clk.t.Add(2 * time.Minute)

	m := NewManager(log.Discard())
	m.Register(c)
	if n := m.CleanNow(); n != 2 {
		t.Errorf("CleanNow() = %d, want 2", n)
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0", c.Size())
	}

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}

func TestLRUCacheListStaysConsistent(t *testing.T) {
	c, clk := newTestCache(3, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)
	c.Delete("b")
	c.Set("a", 10)

	clk.t = clk.t.Add(30 * time.Second)
	c.Set("d", 4)
	clk.t = clk.t.Add(40 * time.Second)

	// a and c were last touched 70s ago, d 40s ago.
	if n := c.CleanExpired(); n != 2 {
		t.Fatalf("CleanExpired() = %d, want 2", n)
	}
	c.Set("e", 5)
	c.Set("f", 6)
	c.Set("g", 7)
	if _, ok := c.Get("d"); ok {
		t.Error("d should have been evicted as least recently used")
	}
	if c.Size() != 3 {
		t.Errorf("Size() = %d, want 3", c.Size())
	}
}
