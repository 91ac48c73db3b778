// Package communityradio adapts the community-maintained radio station
// directory (spec §4.3): a free, unauthenticated JSON API mirrored across
// several independent hosts. The adapter rotates through the mirror list
// on failure and promotes whichever host answers first, the way the
// teacher's FetcherService issues a single HTTP call but generalized here
// to a host list because this upstream has no single canonical origin.
package communityradio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"mediasearch/internal/core"
	"mediasearch/internal/media"
	"mediasearch/internal/providers"
)

// defaultHosts is the standard mirror list for the community directory.
// An operator can override the primary via ProviderConfig.BaseURL.
var defaultHosts = []string{
	"https://de1.api.radio-browser.info",
	"https://de2.api.radio-browser.info",
	"https://nl1.api.radio-browser.info",
	"https://fr1.api.radio-browser.info",
}

// Adapter speaks the community radio directory's JSON search protocol.
type Adapter struct {
	client *http.Client
	logger *core.Logger
	config core.ProviderConfig

	mu    sync.Mutex
	hosts []string // hosts[0] is the current preferred host
}

// New builds an Adapter. If cfg.BaseURL is set it is tried first, ahead
// of the built-in mirror list.
func New(cfg core.ProviderConfig, logger *core.Logger) *Adapter {
	hosts := make([]string, 0, len(defaultHosts)+1)
	if cfg.BaseURL != "" {
		hosts = append(hosts, strings.TrimRight(cfg.BaseURL, "/"))
	}
	hosts = append(hosts, defaultHosts...)

	timeout := time.Duration(cfg.TimeoutMillis) * time.Millisecond
	if timeout <= 0 {
		timeout = 4 * time.Second
	}

	return &Adapter{
		client: &http.Client{Timeout: timeout},
		logger: logger.ForFeature("provider-community-radio"),
		config: cfg,
		hosts:  hosts,
	}
}

func (a *Adapter) Name() core.ProviderName { return core.ProviderCommunityRadio }
func (a *Adapter) RequiresAuth() bool      { return false }
func (a *Adapter) IsAvailable() bool       { return true }

type stationPayload struct {
	StationUUID string `json:"stationuuid"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	URLResolved string `json:"url_resolved"`
	Homepage    string `json:"homepage"`
	Country     string `json:"country"`
	CountryCode string `json:"countrycode"`
	State       string `json:"state"`
	Language    string `json:"language"`
	Tags        string `json:"tags"`
	Bitrate     int    `json:"bitrate"`
	Codec       string `json:"codec"`
	Favicon     string `json:"favicon"`
	Votes       int    `json:"votes"`
	ClickCount  int    `json:"clickcount"`
	SSLError    bool   `json:"ssl_error,omitempty"`
	HTTPS       bool   `json:"hls,omitempty"`
	LastChange  string `json:"lastchangetime_iso8601"`
	GeoCert     bool   `json:"geo_cert,omitempty"`
}

// SearchStations implements providers.StationProvider.
func (a *Adapter) SearchStations(ctx context.Context, params providers.SearchParams) []media.StationItem {
	query := buildQuery(params)

	a.mu.Lock()
	hosts := append([]string(nil), a.hosts...)
	a.mu.Unlock()

	for i, host := range hosts {
		items, err := a.fetchFrom(ctx, host, query)
		if err == nil {
			if i > 0 {
				a.promote(host)
			}
			return items
		}
		if ctx.Err() != nil {
			return nil
		}
		a.logger.Warn("community radio host failed, advancing to next mirror",
			"host", host, "error", err)
	}

	a.logger.Warn("all community radio mirrors failed")
	return nil
}

func (a *Adapter) fetchFrom(ctx context.Context, host string, query url.Values) ([]media.StationItem, error) {
	var body []byte

	operation := func() error {
		endpoint := host + "/json/stations/search?" + query.Encode()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", "mediasearch/1.0")
		req.Header.Set("Accept", "application/json")

		resp, err := a.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("host %s returned %d", host, resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("host %s returned %d", host, resp.StatusCode))
		}

		body, err = io.ReadAll(resp.Body)
		return err
	}

	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2)
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}

	var payloads []stationPayload
	if err := json.Unmarshal(body, &payloads); err != nil {
		return nil, core.NewProviderMalformedError(string(core.ProviderCommunityRadio), truncate(body, 200), err)
	}

	out := make([]media.StationItem, 0, len(payloads))
	for _, p := range payloads {
		item := normalize(p)
		if item.StreamURL == "" {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (a *Adapter) promote(host string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, h := range a.hosts {
		if h == host {
			a.hosts = append([]string{host}, append(a.hosts[:i], a.hosts[i+1:]...)...)
			break
		}
	}
	a.logger.Info("promoted community radio mirror to preferred host", "host", host)
}

func buildQuery(params providers.SearchParams) url.Values {
	q := url.Values{}
	if params.Query != "" {
		q.Set("name", params.Query)
	}
	if params.Country != "" {
		q.Set("country", params.Country)
	}
	if params.Language != "" {
		q.Set("language", params.Language)
	}
	if params.Tag != "" {
		q.Set("tag", params.Tag)
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", "0")
	q.Set("order", "votes")
	q.Set("reverse", "true")
	return q
}

func normalize(p stationPayload) media.StationItem {
	streamURL := p.URLResolved
	if streamURL == "" {
		streamURL = p.URL
	}
	// ssl_error reports a failed SSL handshake on the last check, so the
	// capability is its negation: only upgrade when no error was recorded.
	sslCapable := !p.SSLError
	if sslCapable {
		streamURL = upgradeToHTTPS(streamURL)
	}

	tags := media.NewStringSet()
	for _, t := range strings.Split(p.Tags, ",") {
		tags.Add(strings.TrimSpace(t))
	}

	var lastChanged time.Time
	if t, err := time.Parse("2006-01-02T15:04:05", p.LastChange); err == nil {
		lastChanged = t
	}

	source := string(core.ProviderCommunityRadio)
	return media.StationItem{
		ID:              p.StationUUID,
		Name:            p.Name,
		StreamURL:       streamURL,
		HomepageURL:     p.Homepage,
		Country:         p.Country,
		CountryCode:     p.CountryCode,
		State:           p.State,
		Language:        p.Language,
		Tags:            tags,
		BitrateKbps:     p.Bitrate,
		Codec:           p.Codec,
		LogoURL:         p.Favicon,
		Votes:           p.Votes,
		ClickCount:      p.ClickCount,
		LastChanged:     lastChanged,
		Source:          source,
		SourceProviders: media.NewStringSet(source),
	}
}

func upgradeToHTTPS(streamURL string) string {
	if strings.HasPrefix(streamURL, "http://") {
		return "https://" + strings.TrimPrefix(streamURL, "http://")
	}
	return streamURL
}

func truncate(b []byte, n int) string {
	s := string(b)
	if len(s) <= n {
		return s
	}
	return s[:n]
}
