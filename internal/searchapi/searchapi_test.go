package searchapi

import (
	"context"
	"testing"

	"mediasearch/internal/cache"
	"mediasearch/internal/core"
	"mediasearch/internal/feed"
	"mediasearch/internal/media"
	"mediasearch/internal/providers"
	"mediasearch/internal/ratelimit"
	"mediasearch/internal/search"
)

func newTestAPI(t *testing.T) *API {
	t.Helper()
	logger := core.NewLogger()
	limiter := ratelimit.New(ratelimit.NewMemoryStore(), logger)
	registry := providers.New(limiter, logger)
	c := cache.New(cache.NewMemoryStore(), logger)
	orchestrator := search.New(registry, limiter, c, map[core.ProviderName]core.ProviderConfig{}, logger)
	parser := feed.New(logger)
	return New(orchestrator, registry, parser)
}

func TestProviderStatusesReflectsRegistrations(t *testing.T) {
	api := newTestAPI(t)
	statuses := api.ProviderStatuses()
	if len(statuses) != 0 {
		t.Fatalf("expected no statuses with no registered providers, got %d", len(statuses))
	}
}

func TestSearchStationsWithNoProvidersReturnsEmptySlice(t *testing.T) {
	api := newTestAPI(t)
	out := api.SearchStations(context.Background(), media.StationQuery{Query: "jazz", BypassCache: true})
	if out == nil || len(out) != 0 {
		t.Fatalf("expected empty, non-nil slice, got %v", out)
	}
}

func TestParseFeedRejectsMalformedDocument(t *testing.T) {
	api := newTestAPI(t)
	_, err := api.ParseFeed([]byte("not xml at all"), "podcast-1")
	if err == nil {
		t.Fatal("expected an error for malformed XML")
	}
	appErr, ok := err.(*core.AppError)
	if !ok {
		t.Fatalf("expected *core.AppError, got %T", err)
	}
	if appErr.Code != core.ErrCodeFeedInvalid {
		t.Fatalf("expected FEED_INVALID, got %s", appErr.Code)
	}
}
