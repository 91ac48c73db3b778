// Package keyworddirectory adapts a commercial station directory whose
// two search endpoints (by keyword, by country) accept no language/tag
// filters — those are applied in memory after the fact (spec §4.3).
package keyworddirectory

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"mediasearch/internal/core"
	"mediasearch/internal/media"
	"mediasearch/internal/providers"
)

const defaultBaseURL = "https://api.example-keyword-directory.com"

// fallbackKeywords is tried, in order, when the request supplies no
// search facet at all, to still elicit a non-empty result (§4.3).
var fallbackKeywords = []string{"top", "music"}

// Adapter speaks the keyword/country station directory protocol.
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
		logger:  logger.ForFeature("provider-keyword-directory"),
		baseURL: baseURL,
	}
}

func (a *Adapter) Name() core.ProviderName { return core.ProviderKeywordDirectory }
func (a *Adapter) RequiresAuth() bool      { return false }
func (a *Adapter) IsAvailable() bool       { return true }

type stationPayload struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	StreamURL   string   `json:"streamUrl"`
	StreamURLs  []string `json:"streamUrls"`
	Homepage    string   `json:"homepage"`
	Country     string   `json:"country"`
	CountryCode string   `json:"countryCode"`
	Language    string   `json:"language"`
	Genres      []string `json:"genres"`
	Bitrate     int      `json:"bitrate"`
	Votes       int      `json:"votes"`
}

// SearchStations implements providers.StationProvider.
func (a *Adapter) SearchStations(ctx context.Context, params providers.SearchParams) []media.StationItem {
	var payloads []stationPayload

	switch {
	case params.Country != "":
		payloads = a.fetchByCountry(ctx, params.Country, params.Limit)
	case params.Query != "" || params.Tag != "":
		keyword := params.Query
		if keyword == "" {
			keyword = params.Tag
		}
		payloads = a.fetchByKeyword(ctx, keyword, params.Limit)
	default:
		for _, kw := range fallbackKeywords {
			payloads = a.fetchByKeyword(ctx, kw, params.Limit)
			if len(payloads) > 0 {
				break
			}
		}
	}

	out := make([]media.StationItem, 0, len(payloads))
	for _, p := range payloads {
		item := a.normalize(p)
		if !matchesLanguageAndTag(item, params) {
			continue
		}
		if item.StreamURL == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

func (a *Adapter) fetchByKeyword(ctx context.Context, keyword string, limit int) []stationPayload {
	q := url.Values{}
	q.Set("keyword", keyword)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return a.fetch(ctx, "/search/stationsbykeyword?"+q.Encode())
}

func (a *Adapter) fetchByCountry(ctx context.Context, country string, limit int) []stationPayload {
	q := url.Values{}
	q.Set("country", country)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return a.fetch(ctx, "/search/stationsbycountry?"+q.Encode())
}

func (a *Adapter) fetch(ctx context.Context, path string) []stationPayload {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
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
	return payloads
}

func matchesLanguageAndTag(item media.StationItem, params providers.SearchParams) bool {
	if params.Language != "" && !strings.EqualFold(item.Language, params.Language) {
		return false
	}
	if params.Tag != "" && !item.Tags.Contains(params.Tag) {
		return false
	}
	return true
}

func (a *Adapter) normalize(p stationPayload) media.StationItem {
	streamURL := a.resolveStreamURL(p)

	tags := media.NewStringSet()
	tags.AddAll(p.Genres)

	source := string(core.ProviderKeywordDirectory)
	return media.StationItem{
		ID:              p.ID,
		Name:            p.Name,
		StreamURL:       streamURL,
		HomepageURL:     p.Homepage,
		Country:         p.Country,
		CountryCode:     p.CountryCode,
		Language:        p.Language,
		Tags:            tags,
		BitrateKbps:     p.Bitrate,
		Votes:           p.Votes,
		Source:          source,
		SourceProviders: media.NewStringSet(source),
	}
}

// resolveStreamURL applies the documented fallback order: explicit
// streamUrl -> streamUrls[0] -> synthesized station-id URL -> empty. The
// synthesized form uses the adapter's configured baseURL, so a BASE_URL
// override is honored rather than always pointing at defaultBaseURL.
func (a *Adapter) resolveStreamURL(p stationPayload) string {
	if p.StreamURL != "" {
		return p.StreamURL
	}
	if len(p.StreamURLs) > 0 && p.StreamURLs[0] != "" {
		return p.StreamURLs[0]
	}
	if p.ID != "" {
		return a.baseURL + "/stream/" + p.ID
	}
	return ""
}
