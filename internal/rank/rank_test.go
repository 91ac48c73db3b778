package rank

import (
	"testing"

	"mediasearch/internal/media"
)

type fakePriorities map[string]int

func (f fakePriorities) PriorityOf(name string) int {
	if p, ok := f[name]; ok {
		return p
	}
	return 1 << 30
}

func TestStationsOrdersByPriorityThenPopularityThenName(t *testing.T) {
	priorities := fakePriorities{"A": 0, "B": 1}

	items := []media.StationItem{
		{Name: "Zeta", Votes: 1, SourceProviders: media.NewStringSet("B")},
		{Name: "Alpha", Votes: 100, SourceProviders: media.NewStringSet("A")},
		{Name: "Beta", Votes: 5, SourceProviders: media.NewStringSet("A")},
	}

	out := Stations(items, priorities)

	want := []string{"Alpha", "Beta", "Zeta"}
	for i, name := range want {
		if out[i].Name != name {
			t.Fatalf("position %d: expected %q, got %q", i, name, out[i].Name)
		}
	}
}

func TestStationsTieBreaksOnNameLocaleInsensitive(t *testing.T) {
	priorities := fakePriorities{"A": 0}

	items := []media.StationItem{
		{Name: "bravo", Votes: 10, SourceProviders: media.NewStringSet("A")},
		{Name: "Alpha", Votes: 10, SourceProviders: media.NewStringSet("A")},
	}

	out := Stations(items, priorities)
	if out[0].Name != "Alpha" || out[1].Name != "bravo" {
		t.Fatalf("expected case-insensitive name ordering Alpha, bravo; got %s, %s", out[0].Name, out[1].Name)
	}
}

func TestStationsSortIsStable(t *testing.T) {
	priorities := fakePriorities{"A": 0}

	items := []media.StationItem{
		{ID: "first", Name: "Same", Votes: 10, SourceProviders: media.NewStringSet("A")},
		{ID: "second", Name: "Same", Votes: 10, SourceProviders: media.NewStringSet("A")},
	}

	out := Stations(items, priorities)
	if out[0].ID != "first" || out[1].ID != "second" {
		t.Fatalf("expected stable sort to preserve input order for equal keys, got %s, %s", out[0].ID, out[1].ID)
	}
}
