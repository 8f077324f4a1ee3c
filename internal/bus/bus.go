// Package bus provides the typed focus channel components use to request
// cross-view navigation, in place of ambient global events.
package bus

import "sync"

// FocusRequest asks the timeline to navigate to and select a memory,
// e.g. from a chat citation or a search hit.
type FocusRequest struct {
	// ItemID references a timeline item directly.
	ItemID string
	// EpisodeContextID references an extracted context; an episode whose
	// context ids contain it takes precedence over the raw item.
	EpisodeContextID string
	// Date navigates the timeline anchor to this date-key first, so the
	// backing data can load.
	Date string
}

// FocusBus fans focus requests out to subscribers synchronously on the
// publisher's goroutine.
type FocusBus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(FocusRequest)
}

// NewFocusBus creates an empty bus.
func NewFocusBus() *FocusBus {
	return &FocusBus{subs: make(map[int]func(FocusRequest))}
}

// Subscribe registers a handler and returns its unsubscribe function.
func (b *FocusBus) Subscribe(fn func(FocusRequest)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Publish delivers a request to all current subscribers.
func (b *FocusBus) Publish(req FocusRequest) {
	b.mu.Lock()
	handlers := make([]func(FocusRequest), 0, len(b.subs))
	for _, fn := range b.subs {
		handlers = append(handlers, fn)
	}
	b.mu.Unlock()

	for _, fn := range handlers {
		fn(req)
	}
}
