package cache

import (
	"context"
	"testing"
	"time"

	"mediasearch/internal/core"
)

func TestMemoryStoreGetSetRoundTrip(t *testing.T) {
	logger := core.NewLogger()
	c := New(NewMemoryStore(), logger)
	ctx := context.Background()

	type payload struct {
		Name string
	}

	if _, ok := Get[payload](ctx, c, "missing"); ok {
		t.Fatal("expected miss for unset key")
	}

	Set(ctx, c, "station:bbc", payload{Name: "BBC World"}, time.Minute)

	got, ok := Get[payload](ctx, c, "station:bbc")
	if !ok {
		t.Fatal("expected hit after set")
	}
	if got.Name != "BBC World" {
		t.Fatalf("got %q, want BBC World", got.Name)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	fakeNow := time.Now()
	store.now = func() time.Time { return fakeNow }

	c := New(store, core.NewLogger())
	ctx := context.Background()

	Set(ctx, c, "k", "v", 10*time.Millisecond)

	if _, ok := Get[string](ctx, c, "k"); !ok {
		t.Fatal("expected hit immediately after set")
	}

	fakeNow = fakeNow.Add(20 * time.Millisecond)
	store.now = func() time.Time { return fakeNow }

	if _, ok := Get[string](ctx, c, "k"); ok {
		t.Fatal("expected miss after TTL elapsed")
	}
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	c := New(store, core.NewLogger())
	ctx := context.Background()

	done := make(chan struct{})
	for i := 0; i < 20; i++ {
		go func(i int) {
			Set(ctx, c, "key", i, time.Minute)
			Get[int](ctx, c, "key")
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < 20; i++ {
		<-done
	}
}
