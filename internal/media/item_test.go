package media

import (
	"encoding/json"
	"testing"
)

func TestStringSetJSONRoundTrip(t *testing.T) {
	s := NewStringSet("Jazz", "Talk", "jazz")

	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got StringSet
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got.Len() != 2 {
		t.Fatalf("expected 2 members after round trip, got %d (%v)", got.Len(), got.Values())
	}
	if !got.Contains("jazz") || !got.Contains("Talk") {
		t.Fatalf("expected round-tripped set to contain original members, got %v", got.Values())
	}
}

func TestStringSetJSONRoundTripEmbeddedInStruct(t *testing.T) {
	item := StationItem{
		ID:              "1",
		Name:            "Example",
		Tags:            NewStringSet("rock"),
		SourceProviders: NewStringSet("communityradio"),
	}

	b, err := json.Marshal(item)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got StationItem
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !got.Tags.Contains("rock") {
		t.Fatalf("expected Tags to survive round trip, got %v", got.Tags.Values())
	}
	if !got.SourceProviders.Contains("communityradio") {
		t.Fatalf("expected SourceProviders to survive round trip, got %v", got.SourceProviders.Values())
	}
}

func TestStringSetMarshalNilPointer(t *testing.T) {
	var item StationItem
	item.ID = "1"

	b, err := json.Marshal(item)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got StationItem
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Tags != nil {
		t.Fatalf("expected nil Tags to stay nil across round trip, got %v", got.Tags.Values())
	}
}
