// Package searchapi is the narrow façade spec §6 describes: four entry
// points a downstream HTTP or RPC layer calls without ever importing
// internal/search, internal/providers, or internal/feed directly.
package searchapi

import (
	"context"

	"mediasearch/internal/feed"
	"mediasearch/internal/media"
	"mediasearch/internal/providers"
	"mediasearch/internal/search"
)

// API is the façade. It holds no state of its own beyond references to
// the collaborators it wraps.
type API struct {
	orchestrator *search.Orchestrator
	registry     *providers.Registry
	parser       *feed.Parser
}

// New builds an API over an already-wired orchestrator, registry, and
// feed parser.
func New(orchestrator *search.Orchestrator, registry *providers.Registry, parser *feed.Parser) *API {
	return &API{orchestrator: orchestrator, registry: registry, parser: parser}
}

// SearchStations runs a federated radio station search (spec §4.1, §6).
func (a *API) SearchStations(ctx context.Context, q media.StationQuery) []media.StationItem {
	return a.orchestrator.SearchStations(ctx, q)
}

// SearchPodcasts runs a federated podcast search (spec §4.1, §6).
func (a *API) SearchPodcasts(ctx context.Context, q media.PodcastQuery) []media.PodcastItem {
	return a.orchestrator.SearchPodcasts(ctx, q)
}

// ProviderStatuses reports the configured/available/rate-limit state of
// every registered provider (spec §4.2, §6).
func (a *API) ProviderStatuses() []media.ProviderStatus {
	return a.registry.Statuses()
}

// ParseFeed parses a podcast feed document into its episode list (spec
// §4.8, §6). parentID identifies the podcast the episodes belong to.
func (a *API) ParseFeed(content []byte, parentID string) (*feed.Result, error) {
	return a.parser.Parse(content, parentID)
}
