// Package appleitunes adapts the Apple iTunes Search API (spec §4.3): an
// unauthenticated, single-host JSON endpoint for podcast search.
package appleitunes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"mediasearch/internal/core"
	"mediasearch/internal/media"
	"mediasearch/internal/providers"
)

const defaultBaseURL = "https://itunes.apple.com"

// Adapter speaks the iTunes Search API.
type Adapter struct {
	client  *http.Client
	logger  *core.Logger
	baseURL string
}

// New builds an Adapter.
func New(cfg core.ProviderConfig, logger *core.Logger) *Adapter {
	timeout := time.Duration(cfg.TimeoutMillis) * time.Millisecond
	if timeout <= 0 {
		timeout = 4 * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Adapter{
		client:  &http.Client{Timeout: timeout},
		logger:  logger.ForFeature("provider-apple-itunes"),
		baseURL: baseURL,
	}
}

func (a *Adapter) Name() core.ProviderName { return core.ProviderAppleITunes }
func (a *Adapter) RequiresAuth() bool      { return false }
func (a *Adapter) IsAvailable() bool       { return true }

type searchResponse struct {
	ResultCount int            `json:"resultCount"`
	Results     []trackPayload `json:"results"`
}

type trackPayload struct {
	TrackID                int64  `json:"trackId"`
	CollectionName         string `json:"collectionName"`
	ArtistName             string `json:"artistName"`
	Description            string `json:"description"`
	ArtworkURL600          string `json:"artworkUrl600"`
	ArtworkURL100          string `json:"artworkUrl100"`
	FeedURL                string `json:"feedUrl"`
	TrackCount             int    `json:"trackCount"`
	PrimaryGenreName       string `json:"primaryGenreName"`
	Country                string `json:"country"`
	ReleaseDate            string `json:"releaseDate"`
	CollectionExplicitness string `json:"collectionExplicitness"`
}

// SearchPodcasts implements providers.PodcastProvider.
func (a *Adapter) SearchPodcasts(ctx context.Context, params providers.SearchParams) []media.PodcastItem {
	if params.Query == "" {
		return nil
	}

	q := url.Values{}
	q.Set("media", "podcast")
	q.Set("term", params.Query)
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	q.Set("limit", strconv.Itoa(limit))
	if params.Language != "" {
		q.Set("lang", params.Language)
	}

	endpoint := a.baseURL + "/search?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		a.logger.Warn("failed to build request", "error", err)
		return nil
	}
	req.Header.Set("User-Agent", "mediasearch/1.0")
	req.Header.Set("Accept", "application/json")

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

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		a.logger.Warn("failed to read response body", "error", err)
		return nil
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		a.logger.Warn("failed to decode response", "error", err, "sample", sample(body))
		return nil
	}

	out := make([]media.PodcastItem, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		out = append(out, normalize(r))
	}
	return out
}

func normalize(r trackPayload) media.PodcastItem {
	artwork := r.ArtworkURL600
	if artwork == "" {
		artwork = r.ArtworkURL100
	}

	var episodeCount *int
	if r.TrackCount > 0 {
		n := r.TrackCount
		episodeCount = &n
	}

	var lastUpdated time.Time
	if t, err := time.Parse(time.RFC3339, r.ReleaseDate); err == nil {
		lastUpdated = t
	}

	explicit := media.ExplicitUnknown
	if r.CollectionExplicitness != "" {
		if r.CollectionExplicitness == "explicit" {
			explicit = media.ExplicitTrue
		} else {
			explicit = media.ExplicitFalse
		}
	}

	source := string(core.ProviderAppleITunes)
	categories := media.NewStringSet()
	categories.Add(r.PrimaryGenreName)

	return media.PodcastItem{
		ID:              strconv.FormatInt(r.TrackID, 10),
		Title:           r.CollectionName,
		Author:          r.ArtistName,
		Description:     r.Description,
		ArtworkURL:      artwork,
		FeedURL:         r.FeedURL,
		ITunesID:        strconv.FormatInt(r.TrackID, 10),
		Categories:      categories,
		EpisodeCount:    episodeCount,
		LastUpdated:     lastUpdated,
		Explicit:        explicit,
		Source:          source,
		SourceProviders: media.NewStringSet(source),
	}
}

func sample(b []byte) string {
	s := string(b)
	if len(s) > 200 {
		return s[:200]
	}
	return s
}
