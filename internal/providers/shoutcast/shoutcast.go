// Package shoutcast adapts a legacy Shoutcast-style directory whose
// single search endpoint accepts one free-text query field and returns a
// station list with comma-separated genre strings (spec §4.3).
package shoutcast

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mediasearch/internal/core"
	"mediasearch/internal/media"
	"mediasearch/internal/providers"
)

const defaultBaseURL = "https://shoutcast-style.example.com"

// Adapter speaks the Shoutcast-style directory protocol.
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
		logger:  logger.ForFeature("provider-shoutcast"),
		baseURL: baseURL,
	}
}

func (a *Adapter) Name() core.ProviderName { return core.ProviderShoutcastStyle }
func (a *Adapter) RequiresAuth() bool      { return false }
func (a *Adapter) IsAvailable() bool       { return true }

type stationPayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	Genre     string `json:"genre"`
	Bitrate   int    `json:"bitrate"`
	Listeners int    `json:"listeners"`
}

// SearchStations implements providers.StationProvider.
func (a *Adapter) SearchStations(ctx context.Context, params providers.SearchParams) []media.StationItem {
	query := combineQueryTerms(params)
	if query == "" {
		return nil
	}

	q := url.Values{}
	q.Set("query", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		a.baseURL+"/Search/UpdateSearch?"+q.Encode(), nil)
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

	var payloads []stationPayload
	if err := json.Unmarshal(body, &payloads); err != nil {
		a.logger.Warn("failed to decode response", "error", err)
		return nil
	}

	out := make([]media.StationItem, 0, len(payloads))
	limit := params.Limit
	for _, p := range payloads {
		if limit > 0 && len(out) >= limit {
			break
		}
		item := normalize(p)
		if item.StreamURL == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

// combineQueryTerms builds a single free-text query from name | tag |
// country | language, in that precedence order, per §4.3.
func combineQueryTerms(params providers.SearchParams) string {
	parts := make([]string, 0, 4)
	for _, v := range []string{params.Query, params.Tag, params.Country, params.Language} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

func normalize(p stationPayload) media.StationItem {
	streamURL := p.URL
	if streamURL == "" && p.ID != "" {
		streamURL = defaultBaseURL + "/stream/" + p.ID
	}

	tags := media.NewStringSet()
	for _, g := range strings.Split(p.Genre, ",") {
		tags.Add(strings.TrimSpace(g))
	}

	source := string(core.ProviderShoutcastStyle)
	return media.StationItem{
		ID:              p.ID,
		Name:            p.Name,
		StreamURL:       streamURL,
		Tags:            tags,
		BitrateKbps:     p.Bitrate,
		ClickCount:      p.Listeners,
		Source:          source,
		SourceProviders: media.NewStringSet(source),
	}
}
