package domain

import (
	"reflect"
	"testing"
)

func ids(items []Item) []ItemID {
	out := make([]ItemID, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestItemSetAddIsIdempotent(t *testing.T) {
	var s ItemSet
	if !s.Add(Item{ID: "1", Title: "first"}) {
		t.Fatalf("expected first add to insert")
	}
	if s.Add(Item{ID: "1", Title: "second"}) {
		t.Fatalf("expected duplicate add to be a no-op")
	}
	got, ok := s.Get("1")
	if !ok || got.Title != "first" {
		t.Fatalf("expected original entry to be kept, got %+v", got)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", s.Len())
	}
}

func TestItemSetRemoveReindexes(t *testing.T) {
	s := NewItemSet(Item{ID: "1"}, Item{ID: "2"}, Item{ID: "3"})

	if !s.Remove("2") {
		t.Fatalf("expected remove to delete")
	}
	if s.Remove("2") {
		t.Fatalf("expected second remove to be a no-op")
	}
	if !reflect.DeepEqual(ids(s.Items()), []ItemID{"1", "3"}) {
		t.Fatalf("unexpected order %v", ids(s.Items()))
	}
	if !s.Contains("3") {
		t.Fatalf("expected 3 to still be present")
	}

	// index must follow the shifted positions
	s.Remove("3")
	if !reflect.DeepEqual(ids(s.Items()), []ItemID{"1"}) {
		t.Fatalf("unexpected order %v", ids(s.Items()))
	}
}

func TestItemSetItemsReturnsCopy(t *testing.T) {
	s := NewItemSet(Item{ID: "1", Title: "original"})
	items := s.Items()
	items[0].Title = "mutated"

	got, _ := s.Get("1")
	if got.Title != "original" {
		t.Fatalf("expected set to remain unchanged, got %s", got.Title)
	}
}

func TestItemSetCloneIsIndependent(t *testing.T) {
	s := NewItemSet(Item{ID: "1"})
	c := s.Clone()
	c.Add(Item{ID: "2"})

	if s.Contains("2") {
		t.Fatalf("expected clone mutation not to leak")
	}
}

func TestDedupKeepsFirstOccurrence(t *testing.T) {
	got := Dedup([]Item{{ID: "a", Title: "x"}, {ID: "b"}, {ID: "a", Title: "y"}})
	if len(got) != 2 || got[0].Title != "x" {
		t.Fatalf("unexpected result %+v", got)
	}
}
