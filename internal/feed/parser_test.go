package feed

import (
	"testing"

	"mediasearch/internal/core"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">
  <channel>
    <title>Test Cast</title>
    <description>A show about testing</description>
    <link>https://example.com/show</link>
    <language>en-us</language>
    <itunes:image href="https://example.com/art.jpg"/>
    <item>
      <title>Episode One</title>
      <description>The first episode</description>
      <guid>ep-1</guid>
      <pubDate>Mon, 02 Jan 2006 15:04:05 +0000</pubDate>
      <itunes:duration>01:02:03</itunes:duration>
      <enclosure url="https://example.com/ep1.mp3" type="audio/mpeg"/>
    </item>
    <item>
      <title>Show Notes Only</title>
      <description>No audio attached to this one</description>
      <guid>ep-2</guid>
      <pubDate>Tue, 03 Jan 2006 15:04:05 +0000</pubDate>
    </item>
  </channel>
</rss>`

func TestParseSkipsItemsWithoutEnclosure(t *testing.T) {
	p := New(core.NewLogger())

	result, err := p.Parse([]byte(sampleFeed), "podcast-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Episodes) != 1 {
		t.Fatalf("expected exactly 1 episode (the one with an enclosure), got %d", len(result.Episodes))
	}

	ep := result.Episodes[0]
	if ep.GUID != "ep-1" {
		t.Fatalf("expected guid ep-1, got %q", ep.GUID)
	}
	if ep.AudioURL != "https://example.com/ep1.mp3" {
		t.Fatalf("unexpected audio url %q", ep.AudioURL)
	}
	if ep.DurationSec == nil || *ep.DurationSec != 3723 {
		t.Fatalf("expected duration 3723s (01:02:03), got %v", ep.DurationSec)
	}
	if ep.PublishedAt == nil {
		t.Fatal("expected a parsed pubDate")
	}
}

func TestParsePodcastMetadata(t *testing.T) {
	p := New(core.NewLogger())

	result, err := p.Parse([]byte(sampleFeed), "podcast-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Podcast.Title != "Test Cast" {
		t.Fatalf("unexpected title %q", result.Podcast.Title)
	}
	if result.Podcast.ArtworkURL != "https://example.com/art.jpg" {
		t.Fatalf("expected itunes:image artwork, got %q", result.Podcast.ArtworkURL)
	}
	if result.Podcast.WebsiteURL != "https://example.com/show" {
		t.Fatalf("unexpected website url %q", result.Podcast.WebsiteURL)
	}
}

func TestParseIsDeterministic(t *testing.T) {
	p := New(core.NewLogger())

	first, err := p.Parse([]byte(sampleFeed), "podcast-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := p.Parse([]byte(sampleFeed), "podcast-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first.Episodes) != len(second.Episodes) {
		t.Fatalf("parse of the same feed produced different episode counts: %d vs %d",
			len(first.Episodes), len(second.Episodes))
	}
	for i := range first.Episodes {
		if first.Episodes[i].GUID != second.Episodes[i].GUID {
			t.Fatalf("episode %d guid mismatch between runs", i)
		}
	}
}

func TestParseDurationFormats(t *testing.T) {
	cases := map[string]int{
		"42":      42,
		"01:02":   62,
		"01:02:03": 3723,
		"":        0,
		"garbage": 0,
	}
	for raw, want := range cases {
		got := parseDuration(raw)
		if raw == "" || raw == "garbage" {
			if got != nil {
				t.Fatalf("expected nil duration for %q, got %v", raw, *got)
			}
			continue
		}
		if got == nil || *got != want {
			t.Fatalf("parseDuration(%q) = %v, want %d", raw, got, want)
		}
	}
}

func TestParseRejectsMalformedXML(t *testing.T) {
	p := New(core.NewLogger())
	_, err := p.Parse([]byte("<rss><channel><title>unterminated"), "podcast-1")
	if err == nil {
		t.Fatal("expected an error for malformed XML")
	}
}

func TestParseRejectsEmptyChannel(t *testing.T) {
	p := New(core.NewLogger())
	_, err := p.Parse([]byte(`<rss><channel></channel></rss>`), "podcast-1")
	if err == nil {
		t.Fatal("expected an error for a channel with no title, description, or items")
	}
}
