package timeline

import (
	"context"
	"sync"

	"github.com/memoriahq/memoria-go/internal/api"
)

// FetchPage loads one offset-based page of items.
type FetchPage func(ctx context.Context, offset, limit int) (api.ItemPage, error)

// Paginator accumulates an offset-based item list with a "load more"
// contract: reset loads always proceed and restart at offset 0; a
// non-reset load while another load is in flight is a no-op. The offset
// advances by the length of each returned page, not the page-size
// constant, so short final pages are tolerated.
type Paginator struct {
	mu       sync.Mutex
	fetch    FetchPage
	pageSize int

	items    []api.TimelineItem
	total    int
	offset   int
	inFlight bool
	// gen invalidates responses from loads superseded by a reset.
	gen uint64
}

// NewPaginator creates a paginator over a fetch function.
func NewPaginator(fetch FetchPage, pageSize int) *Paginator {
	return &Paginator{fetch: fetch, pageSize: pageSize}
}

// Load fetches the next page (reset=false) or restarts from offset 0
// (reset=true). Returns true if a fetch was performed, false if the call
// was suppressed by the in-flight guard.
func (p *Paginator) Load(ctx context.Context, reset bool) (bool, error) {
	p.mu.Lock()
	if p.inFlight && !reset {
		p.mu.Unlock()
		return false, nil
	}
	if reset {
		p.gen++
		p.items = nil
		p.total = 0
		p.offset = 0
	}
	gen := p.gen
	offset := p.offset
	p.inFlight = true
	p.mu.Unlock()

	page, err := p.fetch(ctx, offset, p.pageSize)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		// A reset superseded this load; drop the stale result, errors
		// included.
		return true, nil
	}
	p.inFlight = false
	if err != nil {
		return true, err
	}

	p.items = append(p.items, page.Items...)
	p.total = page.Total
	p.offset += len(page.Items)
	return true, nil
}

// Items returns a copy of the accumulated list.
func (p *Paginator) Items() []api.TimelineItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]api.TimelineItem, len(p.items))
	copy(out, p.items)
	return out
}

// Total returns the server-reported total at the last fetch.
func (p *Paginator) Total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}

// Offset returns the accumulated fetch offset.
func (p *Paginator) Offset() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.offset
}

// HasMore reports whether more items remain, derived from the last
// response's total rather than tracked independently.
func (p *Paginator) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items) < p.total
}

// Remove deletes an item from the accumulated list, decrementing the
// total and offset so subsequent loads stay aligned. Reports whether the
// item was present.
func (p *Paginator) Remove(itemID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, it := range p.items {
		if it.ID == itemID {
			p.items = append(p.items[:i], p.items[i+1:]...)
			if p.total > 0 {
				p.total--
			}
			if p.offset > 0 {
				p.offset--
			}
			return true
		}
	}
	return false
}

// Reset clears accumulated state without fetching.
func (p *Paginator) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	p.items = nil
	p.total = 0
	p.offset = 0
	p.inFlight = false
}
