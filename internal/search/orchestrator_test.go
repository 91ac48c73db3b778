package search

import (
	"context"
	"testing"

	"mediasearch/internal/cache"
	"mediasearch/internal/core"
	"mediasearch/internal/media"
	"mediasearch/internal/providers"
	"mediasearch/internal/ratelimit"
)

type fakeStationProvider struct {
	name         core.ProviderName
	items        []media.StationItem
	calls        int
	requiresAuth bool
	available    bool
}

func (f *fakeStationProvider) Name() core.ProviderName { return f.name }
func (f *fakeStationProvider) RequiresAuth() bool       { return f.requiresAuth }
func (f *fakeStationProvider) IsAvailable() bool        { return f.available }
func (f *fakeStationProvider) SearchStations(ctx context.Context, params providers.SearchParams) []media.StationItem {
	f.calls++
	return f.items
}

type failingStationProvider struct {
	name core.ProviderName
}

func (f *failingStationProvider) Name() core.ProviderName { return f.name }
func (f *failingStationProvider) RequiresAuth() bool       { return false }
func (f *failingStationProvider) IsAvailable() bool        { return true }
func (f *failingStationProvider) SearchStations(ctx context.Context, params providers.SearchParams) []media.StationItem {
	panic("simulated network failure")
}

func newTestOrchestrator(t *testing.T) (*Orchestrator, *providers.Registry) {
	t.Helper()
	logger := core.NewLogger()
	limiter := ratelimit.New(ratelimit.NewMemoryStore(), logger)
	registry := providers.New(limiter, logger)
	c := cache.New(cache.NewMemoryStore(), logger)
	configs := map[core.ProviderName]core.ProviderConfig{}
	return New(registry, limiter, c, configs, logger), registry
}

// TestSearchStationsIsolatesProviderFailure covers spec §8 scenario 2:
// a panicking provider must not prevent other providers' results from
// reaching the caller.
func TestSearchStationsIsolatesProviderFailure(t *testing.T) {
	o, registry := newTestOrchestrator(t)

	failing := &failingStationProvider{name: "broken"}
	working := &fakeStationProvider{
		name:      "working",
		available: true,
		items: []media.StationItem{
			{ID: "1", Name: "One", StreamURL: "http://a/1", Source: "working"},
			{ID: "2", Name: "Two", StreamURL: "http://a/2", Source: "working"},
			{ID: "3", Name: "Three", StreamURL: "http://a/3", Source: "working"},
		},
	}
	registry.RegisterStation(core.ProviderConfig{Name: "broken", Enabled: true, Priority: 0}, failing)
	registry.RegisterStation(core.ProviderConfig{Name: "working", Enabled: true, Priority: 1}, working)

	out := o.SearchStations(context.Background(), media.StationQuery{Query: "test", BypassCache: true})
	if len(out) != 3 {
		t.Fatalf("expected 3 results from the working provider despite the broken one, got %d", len(out))
	}
}

// TestSearchStationsCacheHitSkipsUpstream covers spec §8 scenario 4.
func TestSearchStationsCacheHitSkipsUpstream(t *testing.T) {
	o, registry := newTestOrchestrator(t)

	p := &fakeStationProvider{
		name:      "p",
		available: true,
		items: []media.StationItem{
			{
				ID: "1", Name: "One", StreamURL: "http://a/1", Source: "p",
				Tags:            media.NewStringSet("jazz"),
				SourceProviders: media.NewStringSet("p"),
			},
		},
	}
	registry.RegisterStation(core.ProviderConfig{Name: "p", Enabled: true, Priority: 0}, p)

	q := media.StationQuery{Query: "same", Limit: 10}
	first := o.SearchStations(context.Background(), q)
	second := o.SearchStations(context.Background(), q)

	if p.calls != 1 {
		t.Fatalf("expected exactly 1 upstream call across both searches, got %d", p.calls)
	}
	if len(first) != len(second) || len(first) != 1 {
		t.Fatalf("expected identical cached results, got %d and %d", len(first), len(second))
	}
	if !second[0].SourceProviders.Contains("p") {
		t.Fatalf("expected cached result to retain sourceProviders, got %v", second[0].SourceProviders.Values())
	}
	if !second[0].Tags.Contains("jazz") {
		t.Fatalf("expected cached result to retain tags, got %v", second[0].Tags.Values())
	}
}

// TestSearchStationsRateLimitCutoff covers spec §8 scenario 3: quota=2,
// the third identical (cache-bypassing) query gets no upstream call for
// the limited provider.
func TestSearchStationsRateLimitCutoff(t *testing.T) {
	o, registry := newTestOrchestrator(t)

	limited := &fakeStationProvider{
		name:      "limited",
		available: true,
		items: []media.StationItem{
			{ID: "1", Name: "One", StreamURL: "http://a/1", Source: "limited"},
		},
	}
	registry.RegisterStation(core.ProviderConfig{
		Name: "limited", Enabled: true, Priority: 0,
		RateLimitQuota: 2, RatePeriodSeconds: 60,
	}, limited)
	o.configs["limited"] = core.ProviderConfig{
		Name: "limited", Enabled: true, Priority: 0,
		RateLimitQuota: 2, RatePeriodSeconds: 60,
	}

	q := media.StationQuery{Query: "x", BypassCache: true}
	o.SearchStations(context.Background(), q)
	o.SearchStations(context.Background(), q)
	o.SearchStations(context.Background(), q)

	if limited.calls != 2 {
		t.Fatalf("expected exactly 2 upstream calls before the quota cuts off the third, got %d", limited.calls)
	}
}

func TestSearchStationsZeroProvidersReturnsEmpty(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	out := o.SearchStations(context.Background(), media.StationQuery{Query: "x", BypassCache: true})
	if len(out) != 0 {
		t.Fatalf("expected empty result with no registered providers, got %d", len(out))
	}
}

func TestSearchStationsRespectsProviderFilter(t *testing.T) {
	o, registry := newTestOrchestrator(t)

	a := &fakeStationProvider{name: "a", available: true, items: []media.StationItem{
		{ID: "1", Name: "A-Station", StreamURL: "http://a/1", Source: "a"},
	}}
	b := &fakeStationProvider{name: "b", available: true, items: []media.StationItem{
		{ID: "2", Name: "B-Station", StreamURL: "http://b/1", Source: "b"},
	}}
	registry.RegisterStation(core.ProviderConfig{Name: "a", Enabled: true, Priority: 0}, a)
	registry.RegisterStation(core.ProviderConfig{Name: "b", Enabled: true, Priority: 1}, b)

	out := o.SearchStations(context.Background(), media.StationQuery{
		Query: "x", ProviderFilter: []string{"a"}, BypassCache: true,
	})

	if len(out) != 1 || !out[0].SourceProviders.Contains("a") {
		t.Fatalf("expected only provider a's results, got %+v", out)
	}
	if b.calls != 0 {
		t.Fatalf("expected provider b to never be called when filtered out, got %d calls", b.calls)
	}
}

func TestClampLimit(t *testing.T) {
	if got := clamp(0, 20, 100); got != 20 {
		t.Fatalf("expected default 20 for limit=0, got %d", got)
	}
	if got := clamp(500, 20, 100); got != 100 {
		t.Fatalf("expected clamp to max 100, got %d", got)
	}
	if got := clamp(5, 20, 100); got != 5 {
		t.Fatalf("expected unclamped value to pass through, got %d", got)
	}
}

func TestStationCacheKeyFormat(t *testing.T) {
	key := stationCacheKey(media.StationQuery{Query: "Jazz", Country: "", Language: "en", Tag: "", Limit: 20})
	want := "radio-search:jazz:all:en:all:20:any"
	if key != want {
		t.Fatalf("cache key = %q, want %q", key, want)
	}
}

func TestProvidersCSVSorted(t *testing.T) {
	got := providersCSV([]string{"zeta", "alpha"})
	if got != "alpha,zeta" {
		t.Fatalf("expected sorted CSV, got %q", got)
	}
}
