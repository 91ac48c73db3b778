package providers

import (
	"context"
	"sort"
	"sync"
	"time"

	"mediasearch/internal/core"
	"mediasearch/internal/media"
	"mediasearch/internal/ratelimit"
)

// entry pairs a provider instance (as whichever of the two interfaces it
// implements) with the immutable config it was built from.
type entry struct {
	config  core.ProviderConfig
	station StationProvider
	podcast PodcastProvider
}

// Registry holds every configured provider and its ProviderConfig,
// built once at startup. Reads after construction never need a lock —
// registration happens only during Register, which callers are expected
// to finish before the registry is handed to the orchestrator — but the
// lock stays in place because nothing in the domain forbids registering
// a provider discovered late (e.g. a feature-flagged adapter).
type Registry struct {
	mu      sync.RWMutex
	entries map[core.ProviderName]*entry
	limiter *ratelimit.Limiter
	logger  *core.Logger
}

// New builds an empty Registry. limiter is consulted by Statuses to
// report remaining per-provider budget.
func New(limiter *ratelimit.Limiter, logger *core.Logger) *Registry {
	return &Registry{
		entries: make(map[core.ProviderName]*entry),
		limiter: limiter,
		logger:  logger.ForFeature("provider-registry"),
	}
}

// RegisterStation adds a station adapter under the given config. A
// second registration under the same provider name replaces the first;
// the registry never refuses a registration.
func (r *Registry) RegisterStation(cfg core.ProviderConfig, p StationProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[cfg.Name] = &entry{config: cfg, station: p}
}

// RegisterPodcast adds a podcast adapter under the given config.
func (r *Registry) RegisterPodcast(cfg core.ProviderConfig, p PodcastProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[cfg.Name] = &entry{config: cfg, podcast: p}
}

// EnabledStations returns every enabled station provider, optionally
// restricted to names in filter, sorted ascending by priority with a
// stable tie-break on name (§4.2).
func (r *Registry) EnabledStations(filter []string) []StationProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	allowed := toFilterSet(filter)
	type ranked struct {
		cfg core.ProviderConfig
		p   StationProvider
	}
	var out []ranked
	for _, e := range r.entries {
		if e.station == nil || !e.config.Enabled {
			continue
		}
		if allowed != nil && !allowed[string(e.config.Name)] {
			continue
		}
		out = append(out, ranked{cfg: e.config, p: e.station})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].cfg.Priority != out[j].cfg.Priority {
			return out[i].cfg.Priority < out[j].cfg.Priority
		}
		return out[i].cfg.Name < out[j].cfg.Name
	})

	providers := make([]StationProvider, len(out))
	for i, r := range out {
		providers[i] = r.p
	}
	return providers
}

// EnabledPodcasts returns every enabled podcast provider, same ordering
// rules as EnabledStations.
func (r *Registry) EnabledPodcasts(filter []string) []PodcastProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	allowed := toFilterSet(filter)
	type ranked struct {
		cfg core.ProviderConfig
		p   PodcastProvider
	}
	var out []ranked
	for _, e := range r.entries {
		if e.podcast == nil || !e.config.Enabled {
			continue
		}
		if allowed != nil && !allowed[string(e.config.Name)] {
			continue
		}
		out = append(out, ranked{cfg: e.config, p: e.podcast})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].cfg.Priority != out[j].cfg.Priority {
			return out[i].cfg.Priority < out[j].cfg.Priority
		}
		return out[i].cfg.Name < out[j].cfg.Name
	})

	providers := make([]PodcastProvider, len(out))
	for i, r := range out {
		providers[i] = r.p
	}
	return providers
}

// PriorityOf returns the configured priority for name, or a large
// fallback value if the provider is unknown to the registry (so an
// unrecognized sourceProviders entry sorts last rather than panicking).
func (r *Registry) PriorityOf(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[core.ProviderName(name)]; ok {
		return e.config.Priority
	}
	return 1 << 30
}

// Statuses reports every registered provider's status (§4.2, §6).
func (r *Registry) Statuses() []media.ProviderStatus {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].config.Name < entries[j].config.Name
	})

	out := make([]media.ProviderStatus, 0, len(entries))
	for _, e := range entries {
		requiresAuth := false
		authConfigured := true
		if e.station != nil {
			requiresAuth = e.station.RequiresAuth()
			authConfigured = e.station.IsAvailable()
		} else if e.podcast != nil {
			requiresAuth = e.podcast.RequiresAuth()
			authConfigured = e.podcast.IsAvailable()
		}

		status := media.ProviderStatus{
			Name:           string(e.config.Name),
			Enabled:        e.config.Enabled,
			Priority:       e.config.Priority,
			RateLimitQuota: e.config.RateLimitQuota,
			RequiresAuth:   requiresAuth,
			AuthConfigured: authConfigured,
		}

		if e.config.HasQuota() {
			stats := r.limiter.StatsFor(
				context.Background(), string(e.config.Name),
				e.config.RateLimitQuota, time.Duration(e.config.RatePeriodSeconds)*time.Second,
			)
			status.Remaining = stats.Remaining
			status.ResetSeconds = stats.SecondsUntilReset
		} else {
			status.Remaining = -1
		}

		out = append(out, status)
	}
	return out
}

func toFilterSet(filter []string) map[string]bool {
	if len(filter) == 0 {
		return nil
	}
	set := make(map[string]bool, len(filter))
	for _, f := range filter {
		set[f] = true
	}
	return set
}
