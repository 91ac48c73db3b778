// Package search implements the SearchOrchestrator (spec §4.1): the
// single entry point that turns one inbound query into a cache probe,
// a concurrent fan-out across enabled providers, a dedupe+rank pass,
// and a cache store of the final, truncated result.
package search

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"mediasearch/internal/cache"
	"mediasearch/internal/core"
	"mediasearch/internal/dedupe"
	"mediasearch/internal/media"
	"mediasearch/internal/providers"
	"mediasearch/internal/rank"
	"mediasearch/internal/ratelimit"
)

const (
	defaultLimit    = 20
	maxStationLimit = 100
	maxPodcastLimit = 50

	// emptyQueryTTL and freeformQueryTTL implement "longer for
	// empty/filter-only queries, shorter for freeform" from §4.1 step 10.
	emptyQueryTTL    = 10 * time.Minute
	freeformQueryTTL = 2 * time.Minute
)

// Orchestrator is the SearchOrchestrator of spec §4.1.
type Orchestrator struct {
	registry *providers.Registry
	limiter  *ratelimit.Limiter
	cache    *cache.Cache
	configs  map[core.ProviderName]core.ProviderConfig
	logger   *core.Logger
}

// New builds an Orchestrator.
func New(
	registry *providers.Registry,
	limiter *ratelimit.Limiter,
	c *cache.Cache,
	configs map[core.ProviderName]core.ProviderConfig,
	logger *core.Logger,
) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		limiter:  limiter,
		cache:    c,
		configs:  configs,
		logger:   logger.ForFeature("search-orchestrator"),
	}
}

// SearchStations implements spec §4.1's algorithm for the station
// namespace.
func (o *Orchestrator) SearchStations(ctx context.Context, q media.StationQuery) []media.StationItem {
	q.Limit = clamp(q.Limit, defaultLimit, maxStationLimit)

	key := stationCacheKey(q)
	if !q.BypassCache {
		if cached, ok := cache.Get[[]media.StationItem](ctx, o.cache, key); ok {
			return cached
		}
	}

	providerList := o.registry.EnabledStations(q.ProviderFilter)
	if len(providerList) == 0 {
		o.logger.Warn("no enabled station providers")
		return []media.StationItem{}
	}

	params := providers.SearchParams{
		Query: q.Query, Country: q.Country, Language: q.Language, Tag: q.Tag, Limit: q.Limit,
	}

	collected := o.fanOutStations(ctx, providerList, params)
	if ctx.Err() != nil {
		o.logger.Warn("search cancelled before completion, discarding partial results")
		return nil
	}

	stampStationProvenance(collected)
	merged := dedupe.Stations(collected)
	ranked := rank.Stations(merged, o.registry)
	truncated := truncateStations(ranked, q.Limit)

	if !q.BypassCache {
		cache.Set(ctx, o.cache, key, truncated, ttlFor(q.Query))
	}
	return truncated
}

// SearchPodcasts implements spec §4.1's algorithm for the podcast
// namespace.
func (o *Orchestrator) SearchPodcasts(ctx context.Context, q media.PodcastQuery) []media.PodcastItem {
	q.Limit = clamp(q.Limit, defaultLimit, maxPodcastLimit)

	key := podcastCacheKey(q)
	if !q.BypassCache {
		if cached, ok := cache.Get[[]media.PodcastItem](ctx, o.cache, key); ok {
			return cached
		}
	}

	providerList := o.registry.EnabledPodcasts(q.ProviderFilter)
	if len(providerList) == 0 {
		o.logger.Warn("no enabled podcast providers")
		return []media.PodcastItem{}
	}

	params := providers.SearchParams{Query: q.Query, Language: q.Language, Limit: q.Limit}

	collected := o.fanOutPodcasts(ctx, providerList, params)
	if ctx.Err() != nil {
		o.logger.Warn("search cancelled before completion, discarding partial results")
		return nil
	}

	stampPodcastProvenance(collected)
	merged := dedupe.Podcasts(collected)
	ranked := rank.Podcasts(merged, o.registry)
	truncated := truncatePodcasts(ranked, q.Limit)

	if !q.BypassCache {
		cache.Set(ctx, o.cache, key, truncated, ttlFor(q.Query))
	}
	return truncated
}

func (o *Orchestrator) fanOutStations(ctx context.Context, providerList []providers.StationProvider, params providers.SearchParams) []media.StationItem {
	g, gctx := errgroup.WithContext(ctx)
	results := make([][]media.StationItem, len(providerList))

	for i, p := range providerList {
		i, p := i, p
		g.Go(func() error {
			results[i] = o.callStationProvider(gctx, p, params)
			return nil
		})
	}
	// Errors are never returned by the isolated calls below, so Wait
	// always returns nil; callers check ctx.Err() for cancellation.
	_ = g.Wait()

	var out []media.StationItem
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

func (o *Orchestrator) fanOutPodcasts(ctx context.Context, providerList []providers.PodcastProvider, params providers.SearchParams) []media.PodcastItem {
	g, gctx := errgroup.WithContext(ctx)
	results := make([][]media.PodcastItem, len(providerList))

	for i, p := range providerList {
		i, p := i, p
		g.Go(func() error {
			results[i] = o.callPodcastProvider(gctx, p, params)
			return nil
		})
	}
	_ = g.Wait()

	var out []media.PodcastItem
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

// callStationProvider isolates one provider call: admission check,
// per-provider deadline, and panic/error isolation (§4.1 step 4, §9).
func (o *Orchestrator) callStationProvider(ctx context.Context, p providers.StationProvider, params providers.SearchParams) (out []media.StationItem) {
	name := string(p.Name())
	cfg := o.configs[p.Name()]

	if !p.IsAvailable() {
		return nil
	}
	if !o.limiter.Admit(ctx, name, cfg.RateLimitQuota, time.Duration(cfg.RatePeriodSeconds)*time.Second) {
		o.logger.Warn("provider denied by rate limiter", "provider", name)
		return nil
	}

	deadline := providerTimeout(cfg)
	callCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Warn("provider panicked, isolating failure", "provider", name, "recovered", r)
			out = nil
		}
	}()

	out = p.SearchStations(callCtx, params)
	o.limiter.Record(ctx, name, cfg.RateLimitQuota, time.Duration(cfg.RatePeriodSeconds)*time.Second)
	return out
}

func (o *Orchestrator) callPodcastProvider(ctx context.Context, p providers.PodcastProvider, params providers.SearchParams) (out []media.PodcastItem) {
	name := string(p.Name())
	cfg := o.configs[p.Name()]

	if !p.IsAvailable() {
		return nil
	}
	if !o.limiter.Admit(ctx, name, cfg.RateLimitQuota, time.Duration(cfg.RatePeriodSeconds)*time.Second) {
		o.logger.Warn("provider denied by rate limiter", "provider", name)
		return nil
	}

	deadline := providerTimeout(cfg)
	callCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Warn("provider panicked, isolating failure", "provider", name, "recovered", r)
			out = nil
		}
	}()

	out = p.SearchPodcasts(callCtx, params)
	o.limiter.Record(ctx, name, cfg.RateLimitQuota, time.Duration(cfg.RatePeriodSeconds)*time.Second)
	return out
}

func providerTimeout(cfg core.ProviderConfig) time.Duration {
	if cfg.TimeoutMillis <= 0 {
		return 4 * time.Second
	}
	return time.Duration(cfg.TimeoutMillis) * time.Millisecond
}

func stampStationProvenance(items []media.StationItem) {
	for i := range items {
		if items[i].SourceProviders == nil {
			items[i].SourceProviders = media.NewStringSet()
		}
		items[i].SourceProviders.Add(items[i].Source)
	}
}

func stampPodcastProvenance(items []media.PodcastItem) {
	for i := range items {
		if items[i].SourceProviders == nil {
			items[i].SourceProviders = media.NewStringSet()
		}
		items[i].SourceProviders.Add(items[i].Source)
	}
}

func clamp(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

func truncateStations(items []media.StationItem, limit int) []media.StationItem {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}

func truncatePodcasts(items []media.PodcastItem, limit int) []media.PodcastItem {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}

// stationCacheKey builds the bit-exact cache key format from §6:
// '<namespace>:<query>:<filter1>:<filter2>:…:<limit>:<providersCSV>'.
func stationCacheKey(q media.StationQuery) string {
	return strings.Join([]string{
		"radio-search",
		normalizeKeyPart(q.Query),
		normalizeKeyPart(q.Country),
		normalizeKeyPart(q.Language),
		normalizeKeyPart(q.Tag),
		strconv.Itoa(q.Limit),
		providersCSV(q.ProviderFilter),
	}, ":")
}

func podcastCacheKey(q media.PodcastQuery) string {
	return strings.Join([]string{
		"podcasts:multi",
		normalizeKeyPart(q.Query),
		normalizeKeyPart(q.Language),
		strconv.Itoa(q.Limit),
		providersCSV(q.ProviderFilter),
	}, ":")
}

func normalizeKeyPart(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "all"
	}
	return s
}

func providersCSV(filter []string) string {
	if len(filter) == 0 {
		return "any"
	}
	sorted := append([]string(nil), filter...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

// ttlFor implements §4.1 step 10: longer TTL for empty/filter-only
// queries (they're cheap to recompute wrong and change less often),
// shorter for freeform text queries.
func ttlFor(query string) time.Duration {
	if strings.TrimSpace(query) == "" {
		return emptyQueryTTL
	}
	return freeformQueryTTL
}
