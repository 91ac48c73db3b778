package ratelimit

import (
	"context"
	"testing"
	"time"

	"mediasearch/internal/core"
)

func TestAdmitUnlimitedWhenNoQuota(t *testing.T) {
	l := New(NewMemoryStore(), core.NewLogger())
	ctx := context.Background()
	if !l.Admit(ctx, "apple-itunes", 0, 0) {
		t.Fatal("expected admit with no quota configured")
	}
}

func TestQuotaCutoffAfterTwoRequests(t *testing.T) {
	l := New(NewMemoryStore(), core.NewLogger())
	ctx := context.Background()
	const provider = "index-hmac"
	quota, period := 2, 60*time.Second

	for i := 0; i < 2; i++ {
		if !l.Admit(ctx, provider, quota, period) {
			t.Fatalf("expected admit #%d to succeed", i+1)
		}
		l.Record(ctx, provider, quota, period)
	}

	if l.Admit(ctx, provider, quota, period) {
		t.Fatal("expected third admit to be denied once quota is exhausted")
	}
}

func TestWindowRolloverReanchorsOnce(t *testing.T) {
	store := NewMemoryStore()
	l := New(store, core.NewLogger())
	fixed := time.Now()
	l.now = func() time.Time { return fixed }

	ctx := context.Background()
	const provider = "index-hmac"
	quota, period := 1, time.Minute

	if !l.Admit(ctx, provider, quota, period) {
		t.Fatal("expected first admit to succeed")
	}
	l.Record(ctx, provider, quota, period)

	if l.Admit(ctx, provider, quota, period) {
		t.Fatal("expected second admit in the same window to be denied")
	}

	// Advance exactly to the window boundary: the first admit at or after
	// this instant must succeed and re-anchor the window.
	fixed = fixed.Add(period)
	l.now = func() time.Time { return fixed }

	if !l.Admit(ctx, provider, quota, period) {
		t.Fatal("expected admit at window boundary to succeed and re-anchor")
	}

	// Re-anchoring must not itself consume budget: a second admit in the
	// newly-anchored window (before any Record) must still succeed.
	if !l.Admit(ctx, provider, quota, period) {
		t.Fatal("admit must not consume budget")
	}
}

func TestRecordDoesNotReanchorEveryCall(t *testing.T) {
	// Regression test for the source bug flagged in spec §9: the window
	// must be anchored once per window, not on every Record call.
	store := NewMemoryStore()
	l := New(store, core.NewLogger())
	fixed := time.Now()
	l.now = func() time.Time { return fixed }

	ctx := context.Background()
	const provider = "index-hmac"
	quota, period := 5, time.Minute

	l.Record(ctx, provider, quota, period)
	_, start1, _, _ := store.Load(ctx, provider)

	fixed = fixed.Add(10 * time.Second)
	l.now = func() time.Time { return fixed }
	l.Record(ctx, provider, quota, period)
	count2, start2, _, _ := store.Load(ctx, provider)

	if !start1.Equal(start2) {
		t.Fatal("window start must not move within the same window")
	}
	if count2 != 2 {
		t.Fatalf("expected count to accumulate to 2, got %d", count2)
	}
}

func TestZeroRemainingSkipsUpstreamCall(t *testing.T) {
	l := New(NewMemoryStore(), core.NewLogger())
	ctx := context.Background()
	const provider = "index-hmac"
	quota, period := 1, time.Minute

	l.Admit(ctx, provider, quota, period)
	l.Record(ctx, provider, quota, period)

	stats := l.StatsFor(ctx, provider, quota, period)
	if stats.Remaining != 0 {
		t.Fatalf("expected 0 remaining, got %d", stats.Remaining)
	}
	if l.Admit(ctx, provider, quota, period) {
		t.Fatal("expected denial at zero remaining")
	}
}
