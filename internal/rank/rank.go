// Package rank orders merged items by the three-key compare of spec
// §4.5: ascending minimum source-provider priority, descending
// popularity, ascending locale-insensitive display name.
package rank

import (
	"sort"
	"strings"

	"mediasearch/internal/media"
)

// PriorityLookup resolves a provider name to its configured priority.
// Implemented by *providers.Registry; kept as a narrow interface here so
// this package never imports providers (it sits below it in dependency
// order per the spec's leaves-first ordering).
type PriorityLookup interface {
	PriorityOf(name string) int
}

// Stations sorts items in place by the three-key compare and returns
// the same slice, for call-site convenience.
func Stations(items []media.StationItem, priorities PriorityLookup) []media.StationItem {
	sort.SliceStable(items, func(i, j int) bool {
		return less(
			minPriority(items[i].SourceProviders, priorities), items[i].Popularity(), items[i].DisplayName(),
			minPriority(items[j].SourceProviders, priorities), items[j].Popularity(), items[j].DisplayName(),
		)
	})
	return items
}

// Podcasts sorts items in place by the three-key compare and returns
// the same slice.
func Podcasts(items []media.PodcastItem, priorities PriorityLookup) []media.PodcastItem {
	sort.SliceStable(items, func(i, j int) bool {
		return less(
			minPriority(items[i].SourceProviders, priorities), items[i].Popularity(), items[i].DisplayName(),
			minPriority(items[j].SourceProviders, priorities), items[j].Popularity(), items[j].DisplayName(),
		)
	})
	return items
}

func less(priorityA, popularityA int, nameA string, priorityB, popularityB int, nameB string) bool {
	if priorityA != priorityB {
		return priorityA < priorityB
	}
	if popularityA != popularityB {
		return popularityA > popularityB
	}
	return strings.ToLower(nameA) < strings.ToLower(nameB)
}

func minPriority(sourceProviders *media.StringSet, priorities PriorityLookup) int {
	best := 1 << 30
	for _, name := range sourceProviders.Values() {
		if p := priorities.PriorityOf(name); p < best {
			best = p
		}
	}
	return best
}
