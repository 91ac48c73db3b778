// Package ratelimit implements the per-provider windowed counter from spec
// §4.6: admit() checks whether the current window has budget left without
// consuming any, record() consumes one unit. The window is re-anchored
// once per window (on the first admit/record observed at or after
// window-start + window-duration) — not on every record, which the spec
// flags as a bug in the source this was distilled from (§9).
package ratelimit

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"

	"mediasearch/internal/core"
)

// Store is the pluggable backing contract for per-provider usage windows —
// a process-local map for single-instance deployments, or a shared store
// for horizontally-scaled ones. Implementations must keep increments
// atomic.
type Store interface {
	// Load returns the current window state for provider, or ok=false if
	// no window has been anchored yet.
	Load(ctx context.Context, provider string) (count int, windowStart time.Time, ok bool, err error)
	// Save persists the window state for provider.
	Save(ctx context.Context, provider string, count int, windowStart time.Time) error
}

// Limiter is a per-provider token bucket with a fixed window (§4.6).
type Limiter struct {
	store  Store
	logger *core.Logger
	now    func() time.Time
}

// New builds a Limiter backed by store.
func New(store Store, logger *core.Logger) *Limiter {
	return &Limiter{store: store, logger: logger.ForFeature("ratelimit"), now: time.Now}
}

// Admit reports whether provider has budget left in the current window. It
// does not consume any budget. Providers without a quota always admit.
// If the window has expired, it is reset and re-anchored at the current
// instant — once, here, not on every Record call.
func (l *Limiter) Admit(ctx context.Context, provider string, quota int, period time.Duration) bool {
	if quota <= 0 || period <= 0 {
		return true
	}

	count, windowStart, ok, err := l.store.Load(ctx, provider)
	if err != nil {
		l.logger.Warn("rate limit load failed, admitting request", "provider", provider, "error", err)
		return true
	}

	now := l.now()
	if !ok || now.Sub(windowStart) >= period {
		// First observation, or the window has elapsed: re-anchor once.
		if err := l.store.Save(ctx, provider, 0, now); err != nil {
			l.logger.Warn("rate limit save failed", "provider", provider, "error", err)
		}
		return quota > 0
	}

	if count >= quota {
		resetAt := windowStart.Add(period)
		l.logger.Warn("provider rate limit exhausted",
			"provider", provider, "used", count, "quota", quota,
			"resets", humanize.RelTime(now, resetAt, "from now", "ago"))
		return false
	}
	return true
}

// Record consumes one unit of the provider's current window. The search
// orchestrator calls it right after the provider's search call returns,
// whether or not that call produced results. For providers without a
// quota it is a no-op.
func (l *Limiter) Record(ctx context.Context, provider string, quota int, period time.Duration) {
	if quota <= 0 || period <= 0 {
		return
	}

	count, windowStart, ok, err := l.store.Load(ctx, provider)
	if err != nil {
		l.logger.Warn("rate limit load failed on record", "provider", provider, "error", err)
		return
	}

	now := l.now()
	if !ok || now.Sub(windowStart) >= period {
		windowStart = now
		count = 0
	}
	count++

	if err := l.store.Save(ctx, provider, count, windowStart); err != nil {
		l.logger.Warn("rate limit save failed on record", "provider", provider, "error", err)
	}
}

// Stats is the shape returned by StatsFor (read by ProviderStatuses).
type Stats struct {
	Used              int
	Limit             int
	Remaining         int
	SecondsUntilReset int64
}

// StatsFor reports the current usage for provider.
func (l *Limiter) StatsFor(ctx context.Context, provider string, quota int, period time.Duration) Stats {
	if quota <= 0 || period <= 0 {
		return Stats{Used: 0, Limit: 0, Remaining: -1, SecondsUntilReset: 0}
	}

	count, windowStart, ok, err := l.store.Load(ctx, provider)
	if err != nil || !ok {
		return Stats{Used: 0, Limit: quota, Remaining: quota, SecondsUntilReset: int64(period.Seconds())}
	}

	now := l.now()
	elapsed := now.Sub(windowStart)
	if elapsed >= period {
		return Stats{Used: 0, Limit: quota, Remaining: quota, SecondsUntilReset: int64(period.Seconds())}
	}

	remaining := quota - count
	if remaining < 0 {
		remaining = 0
	}
	return Stats{
		Used:              count,
		Limit:             quota,
		Remaining:         remaining,
		SecondsUntilReset: int64((period - elapsed).Seconds()),
	}
}
