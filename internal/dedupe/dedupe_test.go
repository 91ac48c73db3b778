package dedupe

import (
	"testing"

	"mediasearch/internal/media"
)

// TestStationsMergeDuplicateByStreamURL covers spec §8 scenario 1: two
// providers publish the same station under different catalog ids and a
// trailing-slash stream URL variant; they must merge into one item with
// summed votes and a union of source providers.
func TestStationsMergeDuplicateByStreamURL(t *testing.T) {
	a := media.StationItem{
		ID:              "a1",
		Name:            "BBC World",
		StreamURL:       "http://x/stream",
		Votes:           10,
		Source:          "A",
		SourceProviders: media.NewStringSet("A"),
	}
	b := media.StationItem{
		ID:              "b7",
		Name:            "BBC WORLD SERVICE",
		StreamURL:       "http://x/stream/",
		Votes:           5,
		Source:          "B",
		SourceProviders: media.NewStringSet("B"),
	}

	out := Stations([]media.StationItem{a, b})
	if len(out) != 1 {
		t.Fatalf("expected 1 merged station, got %d", len(out))
	}

	merged := out[0]
	if merged.Name != "BBC World" {
		t.Fatalf("expected existing name to win, got %q", merged.Name)
	}
	if merged.Votes != 15 {
		t.Fatalf("expected summed votes 15, got %d", merged.Votes)
	}
	if !merged.SourceProviders.Contains("A") || !merged.SourceProviders.Contains("B") {
		t.Fatalf("expected sourceProviders to contain both A and B, got %v", merged.SourceProviders.Values())
	}
	if merged.Source != "A" {
		t.Fatalf("expected source to remain the first-seen provider A, got %q", merged.Source)
	}
}

func TestStationsDiscardsEmptyStreamURL(t *testing.T) {
	items := []media.StationItem{
		{ID: "1", Name: "No Stream", StreamURL: "", Source: "A"},
		{ID: "2", Name: "Has Stream", StreamURL: "http://x/y", Source: "A"},
	}
	out := Stations(items)
	if len(out) != 1 {
		t.Fatalf("expected the empty-stream item to be discarded, got %d items", len(out))
	}
}

func TestStationsUniqueListIsIdentity(t *testing.T) {
	items := []media.StationItem{
		{ID: "1", Name: "One", StreamURL: "http://a/1", Source: "A"},
		{ID: "2", Name: "Two", StreamURL: "http://a/2", Source: "A"},
		{ID: "3", Name: "Three", StreamURL: "http://a/3", Source: "A"},
	}
	out := Stations(items)
	if len(out) != len(items) {
		t.Fatalf("deduping an already-unique list changed its length: %d != %d", len(out), len(items))
	}
}

// TestPodcastsAtomicFieldPrecedence covers spec §8 scenario 5: the
// higher-priority provider's atomic fields must win, and description
// merges to the longer text, matched by title+author fallback.
func TestPodcastsAtomicFieldPrecedence(t *testing.T) {
	a := media.PodcastItem{
		ID:              "a1",
		Title:           "Daily News",
		Description:     "short",
		Source:          "A",
		SourceProviders: media.NewStringSet("A"),
	}
	b := media.PodcastItem{
		ID:              "b1",
		Title:           "daily news show",
		Description:     "long detailed description with more content",
		FeedURL:         "https://f",
		ITunesID:        "42",
		Source:          "B",
		SourceProviders: media.NewStringSet("B"),
	}

	out := Podcasts([]media.PodcastItem{a, b})
	if len(out) != 1 {
		t.Fatalf("expected title+author fallback to merge into 1 item, got %d", len(out))
	}

	merged := out[0]
	if merged.Title != "Daily News" {
		t.Fatalf("expected the first (priority A) title to win, got %q", merged.Title)
	}
	if merged.Description != "long detailed description with more content" {
		t.Fatalf("expected the longer description to win, got %q", merged.Description)
	}
	if merged.FeedURL != "https://f" {
		t.Fatalf("expected feedUrl from the second item, got %q", merged.FeedURL)
	}
	if merged.ITunesID != "42" {
		t.Fatalf("expected itunesId from the second item, got %q", merged.ITunesID)
	}
	if !merged.SourceProviders.Contains("A") || !merged.SourceProviders.Contains("B") {
		t.Fatalf("expected both providers in sourceProviders, got %v", merged.SourceProviders.Values())
	}
}

func TestMergeExplicitConservativeOr(t *testing.T) {
	cases := []struct {
		a, b media.Explicit
		want media.Explicit
	}{
		{media.ExplicitUnknown, media.ExplicitTrue, media.ExplicitTrue},
		{media.ExplicitFalse, media.ExplicitUnknown, media.ExplicitFalse},
		{media.ExplicitFalse, media.ExplicitTrue, media.ExplicitTrue},
		{media.ExplicitTrue, media.ExplicitTrue, media.ExplicitTrue},
		{media.ExplicitFalse, media.ExplicitFalse, media.ExplicitFalse},
	}
	for _, c := range cases {
		got := mergeExplicit(c.a, c.b)
		if got != c.want {
			t.Fatalf("mergeExplicit(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestNormalizeStreamURLStripsSchemeAndTrailingSlash(t *testing.T) {
	cases := map[string]string{
		"http://x/stream":    "x/stream",
		"http://x/stream/":   "x/stream",
		"HTTPS://X/Stream":   "x/stream",
		"https://x/stream//": "x/stream",
	}
	for in, want := range cases {
		got := normalizeStreamURL(in)
		if got != want {
			t.Fatalf("normalizeStreamURL(%q) = %q, want %q", in, got, want)
		}
	}
}
