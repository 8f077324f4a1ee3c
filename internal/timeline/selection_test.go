package timeline

import (
	"testing"
	"time"

	"github.com/memoriahq/memoria-go/internal/api"
	"github.com/memoriahq/memoria-go/internal/bus"
)

func ts(h int) *time.Time {
	t := time.Date(2024, 3, 10, h, 0, 0, 0, time.UTC)
	return &t
}

func TestSelectionMutualExclusion(t *testing.T) {
	s := NewSelection()

	s.SelectItem("it1")
	if s.State() != SelectionItem || s.ItemID() != "it1" || s.EpisodeID() != "" {
		t.Errorf("after SelectItem: state=%v item=%q episode=%q", s.State(), s.ItemID(), s.EpisodeID())
	}

	s.SelectEpisode("ep1")
	if s.State() != SelectionEpisode || s.EpisodeID() != "ep1" || s.ItemID() != "" {
		t.Errorf("after SelectEpisode: state=%v item=%q episode=%q", s.State(), s.ItemID(), s.EpisodeID())
	}
}

func TestSelectionClearIfItem(t *testing.T) {
	s := NewSelection()
	s.SelectItem("it1")

	s.ClearIfItem("other")
	if s.State() != SelectionItem {
		t.Error("unrelated delete cleared the selection")
	}

	s.ClearIfItem("it1")
	if s.State() != SelectionEmpty {
		t.Error("selection not cleared for deleted item")
	}
}

func TestSelectionPendingPrefersEpisode(t *testing.T) {
	s := NewSelection()
	now := time.Now()

	s.RequestFocus(bus.FocusRequest{ItemID: "X"}, now)
	if s.State() != SelectionPending {
		t.Fatal("focus request should enter pending")
	}

	// No data yet: request persists.
	if s.Resolve(nil, nil, now) {
		t.Error("resolve without data should not change state")
	}
	if s.State() != SelectionPending {
		t.Error("pending request should persist until data appears")
	}

	episodes := []api.TimelineEpisode{
		{EpisodeID: "ep1", SourceItemIDs: []string{"other"}, StartTimeUTC: *ts(9)},
		{EpisodeID: "ep2", SourceItemIDs: []string{"X"}, StartTimeUTC: *ts(10)},
	}
	items := []api.TimelineItem{{ID: "X"}}

	if !s.Resolve(episodes, items, now) {
		t.Fatal("resolve with matching episode should change state")
	}
	if s.EpisodeID() != "ep2" {
		t.Errorf("selected %q, want the covering episode ep2", s.EpisodeID())
	}
}

func TestSelectionPendingByContextID(t *testing.T) {
	s := NewSelection()
	now := time.Now()

	s.RequestFocus(bus.FocusRequest{EpisodeContextID: "ctx9"}, now)
	episodes := []api.TimelineEpisode{
		{EpisodeID: "ep1", SourceItemIDs: []string{"a"}, ContextIDs: []string{"ctx9"}},
	}
	if !s.Resolve(episodes, nil, now) || s.EpisodeID() != "ep1" {
		t.Errorf("context id should resolve to ep1, got %q", s.EpisodeID())
	}
}

func TestSelectionPendingFallsBackToItem(t *testing.T) {
	s := NewSelection()
	now := time.Now()

	s.RequestFocus(bus.FocusRequest{ItemID: "X"}, now)
	items := []api.TimelineItem{{ID: "other"}, {ID: "X"}}
	if !s.Resolve(nil, items, now) || s.ItemID() != "X" {
		t.Errorf("want direct item selection, got item=%q", s.ItemID())
	}
}

func TestSelectionPendingExpires(t *testing.T) {
	s := NewSelection()
	now := time.Now()

	s.RequestFocus(bus.FocusRequest{ItemID: "ghost"}, now)
	late := now.Add(s.FocusTimeout + time.Second)

	if !s.Resolve(nil, nil, late) {
		t.Fatal("expired request should change state")
	}
	if s.State() != SelectionEmpty {
		t.Error("expired request should empty the selection")
	}
}

func TestDefaultSelect(t *testing.T) {
	episodes := []api.TimelineEpisode{
		{EpisodeID: "late", StartTimeUTC: *ts(15)},
		{EpisodeID: "early", StartTimeUTC: *ts(8)},
	}
	items := []api.TimelineItem{
		{ID: "noon", CapturedAt: ts(12)},
		{ID: "dawn", CapturedAt: ts(6)},
		{ID: "untimed"},
	}

	t.Run("prefers first chronological episode", func(t *testing.T) {
		s := NewSelection()
		if !s.DefaultSelect(episodes, items) || s.EpisodeID() != "early" {
			t.Errorf("got %q, want early", s.EpisodeID())
		}
	})

	t.Run("falls back to first chronological item", func(t *testing.T) {
		s := NewSelection()
		if !s.DefaultSelect(nil, items) || s.ItemID() != "dawn" {
			t.Errorf("got %q, want dawn", s.ItemID())
		}
	})

	t.Run("no-op with existing selection", func(t *testing.T) {
		s := NewSelection()
		s.SelectItem("keep")
		if s.DefaultSelect(episodes, items) {
			t.Error("default select must not override an existing selection")
		}
		if s.ItemID() != "keep" {
			t.Errorf("selection changed to %q", s.ItemID())
		}
	})

	t.Run("no-op without data", func(t *testing.T) {
		s := NewSelection()
		if s.DefaultSelect(nil, nil) {
			t.Error("nothing to select")
		}
	})
}
