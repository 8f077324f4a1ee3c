package timeline

import (
	"sort"
	"time"

	"github.com/memoriahq/memoria-go/internal/api"
	"github.com/memoriahq/memoria-go/internal/bus"
)

// SelectionState enumerates which entity kind the detail pane shows.
type SelectionState int

// Selection states.
const (
	SelectionEmpty SelectionState = iota
	SelectionItem
	SelectionEpisode
	SelectionPending
)

// DefaultFocusTimeout bounds how long an unresolved external focus
// request may stay pending before it expires.
const DefaultFocusTimeout = 30 * time.Second

type pendingFocus struct {
	itemID           string
	episodeContextID string
	deadline         time.Time
}

// Selection resolves which single entity is active for the detail pane.
// Exactly one of item/episode is selected at a time; selecting one kind
// clears the other. An external focus request is held pending and
// resolved opportunistically against the freshest loaded data until its
// deadline passes. Not thread-safe: the owning controller serializes
// access.
type Selection struct {
	state     SelectionState
	itemID    string
	episodeID string
	pending   *pendingFocus

	FocusTimeout time.Duration
}

// NewSelection creates an empty selection with the default focus timeout.
func NewSelection() *Selection {
	return &Selection{FocusTimeout: DefaultFocusTimeout}
}

// State returns the current selection state.
func (s *Selection) State() SelectionState { return s.state }

// ItemID returns the selected item id, or "" when no item is selected.
func (s *Selection) ItemID() string {
	if s.state == SelectionItem {
		return s.itemID
	}
	return ""
}

// EpisodeID returns the selected episode id, or "".
func (s *Selection) EpisodeID() string {
	if s.state == SelectionEpisode {
		return s.episodeID
	}
	return ""
}

// SelectItem makes an item active, clearing any episode selection or
// pending request.
func (s *Selection) SelectItem(id string) {
	s.state = SelectionItem
	s.itemID = id
	s.episodeID = ""
	s.pending = nil
}

// SelectEpisode makes an episode active, clearing any item selection or
// pending request.
func (s *Selection) SelectEpisode(id string) {
	s.state = SelectionEpisode
	s.episodeID = id
	s.itemID = ""
	s.pending = nil
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.state = SelectionEmpty
	s.itemID = ""
	s.episodeID = ""
	s.pending = nil
}

// ClearIfItem clears the selection when the given item is active.
func (s *Selection) ClearIfItem(id string) {
	if s.state == SelectionItem && s.itemID == id {
		s.Clear()
	}
}

// RequestFocus enters the pending state for a cross-view focus request,
// clearing any existing selection immediately.
func (s *Selection) RequestFocus(req bus.FocusRequest, now time.Time) {
	s.state = SelectionPending
	s.itemID = ""
	s.episodeID = ""
	s.pending = &pendingFocus{
		itemID:           req.ItemID,
		episodeContextID: req.EpisodeContextID,
		deadline:         now.Add(s.FocusTimeout),
	}
}

// Resolve attempts to settle a pending focus request against loaded data.
// Preference order: an episode whose context ids or source item ids
// contain the referenced id, then the item itself. An expired request
// empties the selection. Returns true when the state changed.
func (s *Selection) Resolve(episodes []api.TimelineEpisode, items []api.TimelineItem, now time.Time) bool {
	if s.state != SelectionPending || s.pending == nil {
		return false
	}
	if now.After(s.pending.deadline) {
		s.Clear()
		return true
	}

	ref := s.pending.itemID
	ctxRef := s.pending.episodeContextID
	for _, ep := range episodes {
		if (ctxRef != "" && ep.References(ctxRef)) || (ref != "" && ep.References(ref)) {
			s.SelectEpisode(ep.EpisodeID)
			return true
		}
	}
	if ref != "" {
		for _, it := range items {
			if it.ID == ref {
				s.SelectItem(it.ID)
				return true
			}
		}
	}
	return false
}

// DefaultSelect picks the initial selection for a day view with data and
// no current selection: the first chronological episode if any, else the
// first chronological standalone item. Returns true when a selection was
// made.
func (s *Selection) DefaultSelect(episodes []api.TimelineEpisode, items []api.TimelineItem) bool {
	if s.state != SelectionEmpty {
		return false
	}

	if len(episodes) > 0 {
		sorted := make([]api.TimelineEpisode, len(episodes))
		copy(sorted, episodes)
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i].StartTimeUTC.Before(sorted[j].StartTimeUTC)
		})
		s.SelectEpisode(sorted[0].EpisodeID)
		return true
	}

	if len(items) > 0 {
		best := 0
		for i := 1; i < len(items); i++ {
			if earlier(items[i], items[best]) {
				best = i
			}
		}
		s.SelectItem(items[best].ID)
		return true
	}
	return false
}

// earlier orders items by captured time; items without one sort last.
func earlier(a, b api.TimelineItem) bool {
	switch {
	case a.CapturedAt == nil:
		return false
	case b.CapturedAt == nil:
		return true
	default:
		return a.CapturedAt.Before(*b.CapturedAt)
	}
}
