// Package media defines the canonical item types produced by provider
// adapters and consumed by the deduper, ranker and orchestrator.
package media

import (
	"encoding/json"
	"strings"
	"time"
)

// Explicit is a tri-state flag: a podcast's explicit-content marker is
// frequently absent from an upstream response, and "absent" must not be
// conflated with "known false".
type Explicit int

const (
	ExplicitUnknown Explicit = iota
	ExplicitFalse
	ExplicitTrue
)

// StringSet is an unordered, de-duplicated set of strings, compared
// case-insensitively but stored and displayed in original case — used for
// station tags and podcast categories.
type StringSet struct {
	order  []string
	lookup map[string]int // lowercased value -> index into order
}

// NewStringSet builds a StringSet from a slice of values.
func NewStringSet(values ...string) *StringSet {
	s := &StringSet{lookup: make(map[string]int)}
	s.AddAll(values)
	return s
}

// Add inserts a value if its lowercased form is not already present.
func (s *StringSet) Add(value string) {
	if value == "" {
		return
	}
	key := lowerTrim(value)
	if key == "" {
		return
	}
	if _, exists := s.lookup[key]; exists {
		return
	}
	s.lookup[key] = len(s.order)
	s.order = append(s.order, value)
}

// AddAll inserts every value in values.
func (s *StringSet) AddAll(values []string) {
	for _, v := range values {
		s.Add(v)
	}
}

// Union returns a new StringSet containing every element of s and other.
func (s *StringSet) Union(other *StringSet) *StringSet {
	out := NewStringSet(s.Values()...)
	if other != nil {
		out.AddAll(other.Values())
	}
	return out
}

// Contains reports whether value (case-insensitively) is a member.
func (s *StringSet) Contains(value string) bool {
	if s == nil {
		return false
	}
	_, ok := s.lookup[lowerTrim(value)]
	return ok
}

// Intersects reports whether s and other share at least one member,
// compared case-insensitively.
func (s *StringSet) Intersects(other *StringSet) bool {
	if s == nil || other == nil {
		return false
	}
	for key := range s.lookup {
		if _, ok := other.lookup[key]; ok {
			return true
		}
	}
	return false
}

// Values returns the set's members in original case, insertion order.
func (s *StringSet) Values() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len reports the number of members.
func (s *StringSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// MarshalJSON encodes the set as a plain JSON array of Values(), so a
// cached StationItem/PodcastItem round-trips its tags/categories/
// sourceProviders instead of serializing the unexported lookup fields.
func (s *StringSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Values())
}

// UnmarshalJSON rebuilds the set from a JSON array of strings.
func (s *StringSet) UnmarshalJSON(b []byte) error {
	var values []string
	if err := json.Unmarshal(b, &values); err != nil {
		return err
	}
	s.order = nil
	s.lookup = make(map[string]int)
	s.AddAll(values)
	return nil
}

func lowerTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// StationItem is a single radio station candidate (spec §3).
type StationItem struct {
	ID              string
	Name            string
	StreamURL       string
	HomepageURL     string
	Country         string
	CountryCode     string
	State           string
	City            string
	Language        string
	Tags            *StringSet
	BitrateKbps     int
	Codec           string
	LogoURL         string
	Votes           int
	ClickCount      int
	LastChanged     time.Time
	Source          string
	SourceProviders *StringSet
}

// Popularity is votes + click-count, the merged popularity signal ranked
// on for stations (§4.5).
func (s *StationItem) Popularity() int {
	if s == nil {
		return 0
	}
	return nonNegative(s.Votes) + nonNegative(s.ClickCount)
}

// DisplayName returns the name used for ranking tie breaks. Station
// identity does not use it; stations are keyed by stream URL only.
func (s *StationItem) DisplayName() string {
	return s.Name
}

// PodcastItem is a single podcast candidate (spec §3).
type PodcastItem struct {
	ID              string
	Title           string
	Author          string
	Description     string
	ArtworkURL      string
	FeedURL         string
	ITunesID        string
	Categories      *StringSet
	EpisodeCount    *int
	Language        string
	WebsiteURL      string
	LastUpdated     time.Time
	Explicit        Explicit
	PopularityScore int
	Source          string
	SourceProviders *StringSet
}

// Popularity returns the ranked popularity signal for a podcast.
func (p *PodcastItem) Popularity() int {
	if p == nil {
		return 0
	}
	return nonNegative(p.PopularityScore)
}

func (p *PodcastItem) DisplayName() string {
	return p.Title
}

// EpisodeItem is emitted only by the feed parser (§4.8).
type EpisodeItem struct {
	GUID        string
	ParentID    string
	Title       string
	Description string
	AudioURL    string
	DurationSec *int
	ArtworkURL  string
	PublishedAt *time.Time
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
