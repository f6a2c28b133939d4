package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestSetAndGet(t *testing.T) {
	c := New()
	c.Set("key1", []byte("value1"), time.Second)
	val, ok := c.Get("key1")
	if !ok || string(val) != "value1" {
		t.Fatalf("expected value1, got %q, exists=%v", val, ok)
	}
}

func TestExpiration(t *testing.T) {
	c := New()
	now := time.Now()
	c.now = func() time.Time { return now }
	c.Set("key1", []byte("value1"), 100*time.Millisecond)
	now = now.Add(150 * time.Millisecond)
	if _, ok := c.Get("key1"); ok {
		t.Fatalf("expected expired key to return false")
	}
	if removed := c.Sweep(); removed != 1 {
		t.Fatalf("expected sweep to remove 1 entry, got %d", removed)
	}
}

func TestNoTTLNeverExpires(t *testing.T) {
	c := New()
	now := time.Now()
	c.now = func() time.Time { return now }
	c.Set("key1", []byte("v"), 0)
	now = now.Add(24 * time.Hour)
	if _, ok := c.Get("key1"); !ok {
		t.Fatal("expected key without TTL to survive")
	}
}

func TestInvalidate(t *testing.T) {
	c := New()
	c.Set("geocode:austin", []byte("1"), time.Second)
	c.Set("geocode:dallas", []byte("2"), time.Second)
	c.Set("member:Karim", []byte("3"), time.Second)
	c.Invalidate("geocode:")
	_, ok1 := c.Get("geocode:austin")
	_, ok2 := c.Get("geocode:dallas")
	_, ok3 := c.Get("member:Karim")
	if ok1 || ok2 {
		t.Fatalf("expected geocode keys to be invalidated")
	}
	if !ok3 {
		t.Fatalf("expected member key to still exist")
	}
}

type point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	var missing point
	found, err := s.Get(ctx, "nope", &missing)
	if err != nil || found {
		t.Fatalf("expected miss, got found=%v err=%v", found, err)
	}

	if err := s.Set(ctx, "austin", point{Lat: 30.26, Lng: -97.74}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got point
	found, err = s.Get(ctx, "austin", &got)
	if err != nil || !found {
		t.Fatalf("expected hit, got found=%v err=%v", found, err)
	}
	if got.Lat != 30.26 || got.Lng != -97.74 {
		t.Fatalf("unexpected value %+v", got)
	}

	if err := s.Delete(ctx, "austin"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	found, _ = s.Get(ctx, "austin", &got)
	if found {
		t.Fatal("expected miss after delete")
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	store := NewRedisStore(rdb, "outreach:")
	exerciseStore(t, store)

	if err := store.Set(context.Background(), "ttl", point{}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("outreach:ttl") {
		t.Fatal("expected prefixed key in redis")
	}
	mr.FastForward(2 * time.Minute)
	var p point
	if found, _ := store.Get(context.Background(), "ttl", &p); found {
		t.Fatal("expected key to expire in redis")
	}
}
