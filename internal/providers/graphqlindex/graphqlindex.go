// Package graphqlindex adapts the bearer-token-authenticated GraphQL
// podcast directory (spec §4.3): a single POST /graphql endpoint with a
// fixed query document and a monthly quota.
package graphqlindex

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"mediasearch/internal/core"
	"mediasearch/internal/media"
	"mediasearch/internal/providers"
)

const defaultBaseURL = "https://api.taddy.org"

const searchQuery = `
query SearchPodcasts($term: String!, $limit: Int!) {
	searchForTerm(term: $term, limitPerPage: $limit) {
		podcastSeries {
			uuid
			name
			description
			imageUrl
			rssUrl
			itunesId
			genres
			totalEpisodesCount
			language
			websiteUrl
			isExplicitContent
			popularityRank
		}
	}
}`

// Adapter speaks the GraphQL podcast directory protocol.
type Adapter struct {
	client  *http.Client
	logger  *core.Logger
	config  core.ProviderConfig
	baseURL string
}

// New builds an Adapter. Rate-limit admission and usage recording are
// the orchestrator's responsibility (spec §2's per-provider data flow).
func New(cfg core.ProviderConfig, logger *core.Logger) *Adapter {
	timeout := time.Duration(cfg.TimeoutMillis) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Adapter{
		client:  &http.Client{Timeout: timeout},
		logger:  logger.ForFeature("provider-graphql-index"),
		config:  cfg,
		baseURL: baseURL,
	}
}

func (a *Adapter) Name() core.ProviderName { return core.ProviderGraphQLDirectory }
func (a *Adapter) RequiresAuth() bool      { return true }

// IsAvailable reports whether a bearer token is configured.
func (a *Adapter) IsAvailable() bool {
	return a.config.Bearer != ""
}

type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type graphqlResponse struct {
	Data struct {
		SearchForTerm struct {
			PodcastSeries []seriesPayload `json:"podcastSeries"`
		} `json:"searchForTerm"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type seriesPayload struct {
	UUID               string   `json:"uuid"`
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	ImageURL           string   `json:"imageUrl"`
	RSSURL             string   `json:"rssUrl"`
	ItunesID           string   `json:"itunesId"`
	Genres             []string `json:"genres"`
	TotalEpisodesCount int      `json:"totalEpisodesCount"`
	Language           string   `json:"language"`
	WebsiteURL         string   `json:"websiteUrl"`
	IsExplicitContent  bool     `json:"isExplicitContent"`
	PopularityRank     int      `json:"popularityRank"`
}

// SearchPodcasts implements providers.PodcastProvider.
func (a *Adapter) SearchPodcasts(ctx context.Context, params providers.SearchParams) []media.PodcastItem {
	if !a.IsAvailable() {
		a.logger.Warn("bearer token not configured, skipping")
		return nil
	}
	if params.Query == "" {
		return nil
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	payload := graphqlRequest{
		Query: searchQuery,
		Variables: map[string]interface{}{
			"term":  params.Query,
			"limit": limit,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		a.logger.Warn("failed to encode request", "error", err)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/graphql", bytes.NewReader(body))
	if err != nil {
		a.logger.Warn("failed to build request", "error", err)
		return nil
	}
	req.Header.Set("User-Agent", "mediasearch/1.0")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.config.Bearer)

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Warn("upstream request failed", "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		a.logger.Warn("upstream returned non-200", "status", resp.StatusCode)
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		a.logger.Warn("failed to read response body", "error", err)
		return nil
	}

	var parsed graphqlResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		a.logger.Warn("failed to decode response", "error", err)
		return nil
	}
	if len(parsed.Errors) > 0 {
		a.logger.Warn("upstream returned graphql errors", "message", parsed.Errors[0].Message)
		return nil
	}

	series := parsed.Data.SearchForTerm.PodcastSeries
	out := make([]media.PodcastItem, 0, len(series))
	for _, s := range series {
		out = append(out, normalize(s))
	}
	return out
}

func normalize(s seriesPayload) media.PodcastItem {
	categories := media.NewStringSet()
	categories.AddAll(s.Genres)

	var episodeCount *int
	if s.TotalEpisodesCount > 0 {
		n := s.TotalEpisodesCount
		episodeCount = &n
	}

	explicit := media.ExplicitFalse
	if s.IsExplicitContent {
		explicit = media.ExplicitTrue
	}

	source := string(core.ProviderGraphQLDirectory)
	return media.PodcastItem{
		ID:              s.UUID,
		Title:           s.Name,
		Description:     s.Description,
		ArtworkURL:      s.ImageURL,
		FeedURL:         s.RSSURL,
		ITunesID:        s.ItunesID,
		Categories:      categories,
		EpisodeCount:    episodeCount,
		Language:        s.Language,
		WebsiteURL:      s.WebsiteURL,
		Explicit:        explicit,
		PopularityScore: s.PopularityRank,
		Source:          source,
		SourceProviders: media.NewStringSet(source),
	}
}
