package cache_test

import (
	"testing"
	"time"

	"github.com/boddenberg/sales-tracker-go/internal/infra/cache"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Close()

	c.Set("stats", "value1")
	val, ok := c.Get("stats")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if val != "value1" {
		t.Errorf("expected 'value1', got '%s'", val)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[int](5 * time.Minute)
	defer c.Close()

	_, ok := c.Get("nonexistent")
	if ok {
		t.Fatal("expected cache miss for nonexistent key")
	}
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](50 * time.Millisecond)
	defer c.Close()

	c.Set("stats", "value1")
	time.Sleep(100 * time.Millisecond)

	_, ok := c.Get("stats")
	if ok {
		t.Fatal("expected cache entry to be expired")
	}
}

func TestCache_DeleteAndPurge(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Close()

	c.Set("a", "1")
	c.Set("b", "2")
	c.Delete("a")

	if _, ok := c.Get("a"); ok {
		t.Fatal("expected key to be deleted")
	}

	c.Purge()
	if c.Len() != 0 {
		t.Errorf("expected empty cache after purge, got %d entries", c.Len())
	}
}

func TestCache_ZeroTTLDisablesCaching(t *testing.T) {
	c := cache.New[string](0)
	defer c.Close()

	c.Set("stats", "value1")
	if _, ok := c.Get("stats"); ok {
		t.Fatal("expected zero TTL cache to store nothing")
	}
}

func TestCache_CloseIsIdempotent(t *testing.T) {
	c := cache.New[string](time.Minute)
	c.Close()
	c.Close()
}
