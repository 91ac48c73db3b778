// Package providers defines the uniform adapter contract (spec §4.3) and
// the Registry that loads, holds, and exposes provider instances in
// priority order (spec §4.2). Concrete adapters live in subpackages
// (communityradio, appleitunes, indexhmac, graphqlindex, keyworddirectory,
// shoutcast) and are wired together in cmd/searchd.
package providers

import (
	"context"

	"mediasearch/internal/core"
	"mediasearch/internal/media"
)

// SearchParams bundles the normalized inputs an adapter needs to issue a
// single upstream query. Not every adapter uses every field.
type SearchParams struct {
	Query    string
	Country  string
	Language string
	Tag      string
	Limit    int
}

// StationProvider speaks one upstream station directory's protocol.
// Implementations never return an error to the caller — any failure is
// logged and yields an empty slice, per spec §4.3 and §9.
type StationProvider interface {
	Name() core.ProviderName
	RequiresAuth() bool
	IsAvailable() bool
	SearchStations(ctx context.Context, params SearchParams) []media.StationItem
}

// PodcastProvider speaks one upstream podcast directory's protocol, with
// the same never-throw contract as StationProvider.
type PodcastProvider interface {
	Name() core.ProviderName
	RequiresAuth() bool
	IsAvailable() bool
	SearchPodcasts(ctx context.Context, params SearchParams) []media.PodcastItem
}
