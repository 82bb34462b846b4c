package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	c.Set(ctx, "k", []byte("value"), time.Minute)

	got, ok := c.Get(ctx, "k")
	if !ok {
		t.Fatal("expected a hit")
	}
	if string(got) != "value" {
		t.Errorf("expected %q, got %q", "value", got)
	}
}

func TestMemoryCache_MissOnUnknownKey(t *testing.T) {
	c := NewMemoryCache()
	if _, ok := c.Get(context.Background(), "missing"); ok {
		t.Error("expected a miss")
	}
}

func TestMemoryCache_ExpiredEntryIsAMiss(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	c.Set(ctx, "k", []byte("value"), time.Nanosecond)
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestMemoryCache_ZeroTTLIsNotStored(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	c.Set(ctx, "k", []byte("value"), 0)

	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("expected zero-ttl set to be a no-op")
	}
}

func TestMemoryCache_Delete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	c.Set(ctx, "k", []byte("value"), time.Minute)
	c.Delete(ctx, "k")

	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("expected deleted key to miss")
	}
}

func TestEmbeddingCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewEmbeddingCache(NewMemoryCache(), time.Minute)

	want := []float32{0.1, -0.5, 2}
	c.Set(ctx, "some chunk text", want)

	got, ok := c.Get(ctx, "some chunk text")
	if !ok {
		t.Fatal("expected a hit")
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("value %d: expected %f, got %f", i, want[i], got[i])
		}
	}

	if _, ok := c.Get(ctx, "different text"); ok {
		t.Error("expected different text to miss")
	}
}
