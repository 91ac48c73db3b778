// Package feed implements the FeedParser collaborator from spec §4.8: a
// synchronous, deterministic parse of an XML podcast feed into a
// PodcastItem and its EpisodeItems. Adapted from the teacher's RSS
// fetcher/parser (internal/features/rss/services/fetcher.go), narrowed to
// podcast-feed semantics — enclosure-bearing items only, duration parsing,
// and single-or-array item shapes.
package feed

import (
	"encoding/xml"
	"strconv"
	"strings"
	"time"

	"mediasearch/internal/core"
	"mediasearch/internal/media"
)

// itunesNS is the iTunes podcast namespace for <itunes:image> and
// <itunes:duration>, which live alongside the plain RSS 2.0 tags.
const itunesNS = "http://www.itunes.com/dtds/podcast-1.0.dtd"

// rssFeed mirrors the subset of RSS 2.0 / iTunes podcast tags this parser
// understands. Items is typed as itemList so a feed carrying either a bare
// <item> or a sequence of them both unmarshal correctly.
type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Channel rssChannel `xml:"channel"`
}

// ITunesImage must precede Image: encoding/xml hands an element to the
// first matching field, and the namespace-less "image" tag matches
// <itunes:image> too.
type rssChannel struct {
	Title       string      `xml:"title"`
	Description string      `xml:"description"`
	Link        string      `xml:"link"`
	Language    string      `xml:"language"`
	ITunesImage itunesImage `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd image"`
	Image       rssImage    `xml:"image"`
	Items       itemList    `xml:"item"`
}

type rssImage struct {
	URL string `xml:"url"`
}

// itunesImage captures <itunes:image href="..."/>, which many podcast
// feeds use instead of (or alongside) the plain RSS <image><url>.
type itunesImage struct {
	Href string `xml:"href,attr"`
}

type rssItem struct {
	Title       string      `xml:"title"`
	Description string      `xml:"description"`
	GUID        string      `xml:"guid"`
	PubDate     string      `xml:"pubDate"`
	Enclosure   *enclosure  `xml:"enclosure"`
	Duration    string      `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd duration"`
	Image       itunesImage `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd image"`
}

type enclosure struct {
	URL string `xml:"url,attr"`
}

// itemList accepts either a single <item> or a sequence of them.
type itemList []rssItem

// Parser parses XML podcast feeds into canonical items.
type Parser struct {
	logger *core.Logger
}

// New creates a feed Parser.
func New(logger *core.Logger) *Parser {
	return &Parser{logger: logger.ForFeature("feed-parser")}
}

// Result is the output of a successful parse.
type Result struct {
	Podcast  *media.PodcastItem
	Episodes []media.EpisodeItem
}

// Parse parses the bytes of an XML podcast feed. It fails only with a
// FeedInvalid AppError (spec §7) when the document is not well-formed XML
// or carries no <channel> element; every other irregularity (a missing
// enclosure, an unparseable duration) is tolerated per-item.
func (p *Parser) Parse(content []byte, parentID string) (*Result, error) {
	var feed rssFeed
	if err := xml.Unmarshal(content, &feed); err != nil {
		return nil, core.NewFeedInvalidError("document is not well-formed XML", err)
	}
	if feed.Channel.Title == "" && feed.Channel.Description == "" && len(feed.Channel.Items) == 0 {
		return nil, core.NewFeedInvalidError("document has no channel element", nil)
	}

	artwork := feed.Channel.ITunesImage.Href
	if artwork == "" {
		artwork = feed.Channel.Image.URL
	}

	podcast := &media.PodcastItem{
		ID:          parentID,
		Title:       feed.Channel.Title,
		Description: feed.Channel.Description,
		ArtworkURL:  artwork,
		WebsiteURL:  feed.Channel.Link,
		Language:    feed.Channel.Language,
	}

	episodes := make([]media.EpisodeItem, 0, len(feed.Channel.Items))
	for _, item := range feed.Channel.Items {
		if item.Enclosure == nil || item.Enclosure.URL == "" {
			// Items without an enclosure carry no playable audio and are
			// silently skipped (§4.8).
			continue
		}

		guid := item.GUID
		if guid == "" {
			guid = item.Enclosure.URL
		}

		episodeArtwork := item.Image.Href
		if episodeArtwork == "" {
			episodeArtwork = artwork
		}

		ep := media.EpisodeItem{
			GUID:        guid,
			ParentID:    parentID,
			Title:       item.Title,
			Description: item.Description,
			AudioURL:    item.Enclosure.URL,
			ArtworkURL:  episodeArtwork,
			DurationSec: parseDuration(item.Duration),
		}
		if t, ok := parsePubDate(item.PubDate); ok {
			ep.PublishedAt = &t
		}

		episodes = append(episodes, ep)
	}

	return &Result{Podcast: podcast, Episodes: episodes}, nil
}

// parseDuration accepts a bare seconds integer or an HH:MM:SS / MM:SS
// string. A failure to parse yields nil rather than failing the episode.
func parseDuration(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if seconds, err := strconv.Atoi(raw); err == nil {
		return &seconds
	}

	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return nil
	}

	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil
		}
		total = total*60 + n
	}
	return &total
}

var pubDateFormats = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

func parsePubDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, format := range pubDateFormats {
		if t, err := time.Parse(format, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
