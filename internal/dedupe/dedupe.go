// Package dedupe implements identity resolution and merge across
// provider results (spec §4.4): the same station or podcast is often
// published by more than one directory under a different catalog id, and
// this package decides when two candidates are the same real-world item
// and how their fields combine.
package dedupe

import (
	"regexp"
	"strings"

	"mediasearch/internal/media"
)

// Stations merges a flat slice of candidates into a canonical list keyed
// by normalized stream URL (§4.4). Items with an empty StreamURL have
// already been discarded upstream per the data-model invariant, but an
// empty one reaching here is dropped defensively rather than merged
// under an empty key.
func Stations(items []media.StationItem) []media.StationItem {
	byKey := make(map[string]*media.StationItem)
	var order []string

	for i := range items {
		incoming := items[i]
		if incoming.StreamURL == "" {
			continue
		}
		key := normalizeStreamURL(incoming.StreamURL)

		existing, ok := byKey[key]
		if !ok {
			item := incoming
			if item.SourceProviders == nil {
				item.SourceProviders = media.NewStringSet(item.Source)
			}
			byKey[key] = &item
			order = append(order, key)
			continue
		}
		mergeStation(existing, incoming)
	}

	out := make([]media.StationItem, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	return out
}

// Podcasts merges a flat slice of candidates into a canonical list keyed
// by feed URL, then iTunes id, then title+author fallback (§4.4).
func Podcasts(items []media.PodcastItem) []media.PodcastItem {
	byKey := make(map[string]*media.PodcastItem)
	var order []string

	for i := range items {
		incoming := items[i]
		key := podcastIdentityKey(incoming)

		existing, ok := byKey[key]
		if !ok {
			item := incoming
			if item.SourceProviders == nil {
				item.SourceProviders = media.NewStringSet(item.Source)
			}
			byKey[key] = &item
			order = append(order, key)
			continue
		}
		mergePodcast(existing, incoming)
	}

	out := make([]media.PodcastItem, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	return out
}

var schemePrefix = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// normalizeStreamURL lowercases the scheme-stripped host+path and strips
// trailing slashes, per §4.4's station identity rule.
func normalizeStreamURL(raw string) string {
	stripped := schemePrefix.ReplaceAllString(strings.ToLower(strings.TrimSpace(raw)), "")
	return strings.TrimRight(stripped, "/")
}

func podcastIdentityKey(p media.PodcastItem) string {
	if p.FeedURL != "" {
		return "feed:" + strings.ToLower(strings.TrimSpace(p.FeedURL))
	}
	if p.ITunesID != "" {
		return "itunes:" + strings.ToLower(strings.TrimSpace(p.ITunesID))
	}
	return "title:" + normalizeTitleAuthor(p.Title, p.Author)
}

func normalizeTitleAuthor(title, author string) string {
	combined := strings.ToLower(strings.TrimSpace(title)) + "-" + strings.ToLower(strings.TrimSpace(author))
	return collapseWhitespace(combined)
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func mergeStation(existing *media.StationItem, incoming media.StationItem) {
	if existing.Name == "" {
		existing.Name = incoming.Name
	}
	existing.HomepageURL = keepExistingOrIncoming(existing.HomepageURL, incoming.HomepageURL)
	existing.Country = keepExistingOrIncoming(existing.Country, incoming.Country)
	existing.CountryCode = keepExistingOrIncoming(existing.CountryCode, incoming.CountryCode)
	existing.State = keepExistingOrIncoming(existing.State, incoming.State)
	existing.City = keepExistingOrIncoming(existing.City, incoming.City)
	existing.Language = keepExistingOrIncoming(existing.Language, incoming.Language)
	existing.Codec = keepExistingOrIncoming(existing.Codec, incoming.Codec)
	existing.LogoURL = keepExistingOrIncoming(existing.LogoURL, incoming.LogoURL)
	if existing.BitrateKbps == 0 {
		existing.BitrateKbps = incoming.BitrateKbps
	}
	if incoming.LastChanged.After(existing.LastChanged) {
		existing.LastChanged = incoming.LastChanged
	}

	existing.Tags = unionSets(existing.Tags, incoming.Tags)
	existing.Votes += incoming.Votes
	existing.ClickCount += incoming.ClickCount

	existing.SourceProviders = unionSourceProviders(existing.SourceProviders, incoming.SourceProviders, incoming.Source)
}

func mergePodcast(existing *media.PodcastItem, incoming media.PodcastItem) {
	if existing.Title == "" {
		existing.Title = incoming.Title
	}
	if existing.Author == "" {
		existing.Author = incoming.Author
	}
	existing.Description = longerOf(existing.Description, incoming.Description)
	existing.ArtworkURL = keepExistingOrIncoming(existing.ArtworkURL, incoming.ArtworkURL)
	existing.FeedURL = keepExistingOrIncoming(existing.FeedURL, incoming.FeedURL)
	existing.ITunesID = keepExistingOrIncoming(existing.ITunesID, incoming.ITunesID)
	existing.Language = keepExistingOrIncoming(existing.Language, incoming.Language)
	existing.WebsiteURL = keepExistingOrIncoming(existing.WebsiteURL, incoming.WebsiteURL)
	if existing.EpisodeCount == nil {
		existing.EpisodeCount = incoming.EpisodeCount
	}
	if incoming.LastUpdated.After(existing.LastUpdated) {
		existing.LastUpdated = incoming.LastUpdated
	}

	existing.Categories = unionSets(existing.Categories, incoming.Categories)
	existing.PopularityScore += incoming.PopularityScore

	existing.Explicit = mergeExplicit(existing.Explicit, incoming.Explicit)
	existing.SourceProviders = unionSourceProviders(existing.SourceProviders, incoming.SourceProviders, incoming.Source)
}

func keepExistingOrIncoming(existing, incoming string) string {
	if existing != "" {
		return existing
	}
	return incoming
}

func longerOf(a, b string) string {
	if len(b) > len(a) {
		return b
	}
	return a
}

func unionSets(a, b *media.StringSet) *media.StringSet {
	if a == nil {
		return b
	}
	return a.Union(b)
}

func unionSourceProviders(existing, incoming *media.StringSet, incomingSource string) *media.StringSet {
	merged := unionSets(existing, incoming)
	if merged == nil {
		merged = media.NewStringSet()
	}
	merged.Add(incomingSource)
	return merged
}

// mergeExplicit prefers a known value over unknown; if both are known
// and disagree, it resolves conservatively to true (§4.4).
func mergeExplicit(a, b media.Explicit) media.Explicit {
	if a == media.ExplicitUnknown {
		return b
	}
	if b == media.ExplicitUnknown {
		return a
	}
	if a != b {
		return media.ExplicitTrue
	}
	return a
}
