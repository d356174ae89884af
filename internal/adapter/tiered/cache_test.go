package tiered_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Strob0t/CaterTrack/internal/adapter/tiered"
)

// memCache is a simple in-memory cache for testing. When fail is set every
// call returns it.
type memCache struct {
	data map[string][]byte
	ttls map[string]time.Duration
	fail error
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if m.fail != nil {
		return nil, false, m.fail
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.fail != nil {
		return m.fail
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	if m.fail != nil {
		return m.fail
	}
	delete(m.data, key)
	return nil
}

func TestTiered_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("L1 hit", func(t *testing.T) {
		l1, l2 := newMemCache(), newMemCache()
		l1.data["t.c1.menu.full"] = []byte("menu")
		val, found, err := tiered.New(l1, l2, time.Minute).Get(ctx, "t.c1.menu.full")
		if err != nil || !found || string(val) != "menu" {
			t.Fatalf("got %q %v %v", val, found, err)
		}
	})

	t.Run("L2 hit backfills L1", func(t *testing.T) {
		l1, l2 := newMemCache(), newMemCache()
		l2.data["t.c1.caterer"] = []byte("profile")
		val, found, err := tiered.New(l1, l2, time.Minute).Get(ctx, "t.c1.caterer")
		if err != nil || !found || string(val) != "profile" {
			t.Fatalf("got %q %v %v", val, found, err)
		}
		if string(l1.data["t.c1.caterer"]) != "profile" {
			t.Fatal("expected L1 backfill")
		}
		if l1.ttls["t.c1.caterer"] != time.Minute {
			t.Fatalf("backfill ttl = %v, want 1m", l1.ttls["t.c1.caterer"])
		}
	})

	t.Run("miss", func(t *testing.T) {
		_, found, err := tiered.New(newMemCache(), newMemCache(), time.Minute).Get(ctx, "missing")
		if err != nil || found {
			t.Fatalf("expected clean miss, got %v %v", found, err)
		}
	})

	t.Run("L2 failure is a miss", func(t *testing.T) {
		l2 := newMemCache()
		l2.fail = errors.New("nats down")
		_, found, err := tiered.New(newMemCache(), l2, time.Minute).Get(ctx, "k")
		if err != nil || found {
			t.Fatalf("expected miss without error, got %v %v", found, err)
		}
	})

	t.Run("nil L2", func(t *testing.T) {
		_, found, err := tiered.New(newMemCache(), nil, time.Minute).Get(ctx, "k")
		if err != nil || found {
			t.Fatalf("expected miss, got %v %v", found, err)
		}
	})
}

func TestTiered_SetCapsL1TTL(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	c := tiered.New(l1, l2, time.Minute)
	if err := c.Set(context.Background(), "k", []byte("v"), 10*time.Minute); err != nil {
		t.Fatal(err)
	}
	if l1.ttls["k"] != time.Minute {
		t.Fatalf("L1 ttl = %v, want capped to 1m", l1.ttls["k"])
	}
	if l2.ttls["k"] != 10*time.Minute {
		t.Fatalf("L2 ttl = %v, want 10m", l2.ttls["k"])
	}
}

func TestTiered_SetToleratesL2Failure(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	l2.fail = errors.New("nats down")
	if err := tiered.New(l1, l2, time.Minute).Set(context.Background(), "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set must not fail on L2 error, got %v", err)
	}
	if _, ok := l1.data["k"]; !ok {
		t.Fatal("expected value in L1")
	}
}

func TestTiered_DeleteBoth(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	l1.data["k"], l2.data["k"] = []byte("v"), []byte("v")

	if err := tiered.New(l1, l2, time.Minute).Delete(context.Background(), "k"); err != nil {
		t.Fatal(err)
	}
	if _, ok := l1.data["k"]; ok {
		t.Fatal("expected k deleted from L1")
	}
	if _, ok := l2.data["k"]; ok {
		t.Fatal("expected k deleted from L2")
	}
}
