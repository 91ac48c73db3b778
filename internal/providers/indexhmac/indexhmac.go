// Package indexhmac adapts the metered, HMAC-authenticated podcast index
// (spec §4.3): every request is signed with SHA1(key||secret||unix-seconds)
// and subject to a monthly quota tracked by internal/ratelimit.
package indexhmac

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
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

const defaultBaseURL = "https://api.podcastindex.org/api/1.0"

// Adapter speaks the HMAC-signed podcast index protocol.
type Adapter struct {
	client  *http.Client
	logger  *core.Logger
	config  core.ProviderConfig
	baseURL string
	now     func() time.Time
}

// New builds an Adapter. Rate-limit admission and usage recording are
// the orchestrator's responsibility (spec §2's per-provider data flow);
// this adapter only refuses to call out when credentials are absent.
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
		logger:  logger.ForFeature("provider-index-hmac"),
		config:  cfg,
		baseURL: baseURL,
		now:     time.Now,
	}
}

func (a *Adapter) Name() core.ProviderName { return core.ProviderIndexHMAC }
func (a *Adapter) RequiresAuth() bool      { return true }

// IsAvailable reports whether both halves of the credential pair are
// configured. §4.3 and §7 (ProviderAuthMissing) require the adapter to
// short-circuit without an HTTP call when either is absent.
func (a *Adapter) IsAvailable() bool {
	return a.config.APIKey != "" && a.config.APISecret != ""
}

type searchResponse struct {
	Feeds []feedPayload `json:"feeds"`
}

type feedPayload struct {
	ID           int64             `json:"id"`
	Title        string            `json:"title"`
	Author       string            `json:"author"`
	Description  string            `json:"description"`
	Image        string            `json:"image"`
	URL          string            `json:"url"`
	ItunesID     int64             `json:"itunesId"`
	Categories   map[string]string `json:"categories"`
	EpisodeCount int               `json:"episodeCount"`
	Language     string            `json:"language"`
	Link         string            `json:"link"`
	Explicit     bool              `json:"explicit"`
	Popularity   int               `json:"popularityScore"`
	LastUpdate   int64             `json:"lastUpdateTime"`
}

// SearchPodcasts implements providers.PodcastProvider.
func (a *Adapter) SearchPodcasts(ctx context.Context, params providers.SearchParams) []media.PodcastItem {
	if !a.IsAvailable() {
		a.logger.Warn("credentials not configured, skipping")
		return nil
	}
	if params.Query == "" {
		return nil
	}

	q := url.Values{}
	q.Set("q", params.Query)
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	q.Set("max", strconv.Itoa(limit))

	endpoint := a.baseURL + "/search/byterm?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		a.logger.Warn("failed to build request", "error", err)
		return nil
	}

	timestamp := strconv.FormatInt(a.now().Unix(), 10)
	req.Header.Set("User-Agent", "mediasearch/1.0")
	req.Header.Set("X-Auth-Date", timestamp)
	req.Header.Set("X-Auth-Key", a.config.APIKey)
	req.Header.Set("Authorization", signature(a.config.APIKey, a.config.APISecret, timestamp))

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
		a.logger.Warn("failed to decode response", "error", err)
		return nil
	}

	out := make([]media.PodcastItem, 0, len(parsed.Feeds))
	for _, f := range parsed.Feeds {
		out = append(out, normalize(f))
	}
	return out
}

// signature computes Authorization = SHA1(key || secret || unix-seconds),
// hex-encoded, per §4.3.
func signature(key, secret, timestamp string) string {
	h := sha1.New()
	h.Write([]byte(key))
	h.Write([]byte(secret))
	h.Write([]byte(timestamp))
	return hex.EncodeToString(h.Sum(nil))
}

func normalize(f feedPayload) media.PodcastItem {
	categories := media.NewStringSet()
	for _, name := range f.Categories {
		categories.Add(name)
	}

	var episodeCount *int
	if f.EpisodeCount > 0 {
		n := f.EpisodeCount
		episodeCount = &n
	}

	explicit := media.ExplicitFalse
	if f.Explicit {
		explicit = media.ExplicitTrue
	}

	var lastUpdated time.Time
	if f.LastUpdate > 0 {
		lastUpdated = time.Unix(f.LastUpdate, 0).UTC()
	}

	source := string(core.ProviderIndexHMAC)
	return media.PodcastItem{
		ID:              strconv.FormatInt(f.ID, 10),
		Title:           f.Title,
		Author:          f.Author,
		Description:     f.Description,
		ArtworkURL:      f.Image,
		FeedURL:         f.URL,
		ITunesID:        strconv.FormatInt(f.ItunesID, 10),
		Categories:      categories,
		EpisodeCount:    episodeCount,
		Language:        f.Language,
		WebsiteURL:      f.Link,
		LastUpdated:     lastUpdated,
		Explicit:        explicit,
		PopularityScore: f.Popularity,
		Source:          source,
		SourceProviders: media.NewStringSet(source),
	}
}
