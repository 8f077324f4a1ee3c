package timeline

import (
	"sort"
	"sync"

	"github.com/memoriahq/memoria-go/internal/api"
)

// IndexCache maps date-keys to day summaries fetched from the backend.
// Local mutations (delete, highlight, summary edit) touch only the
// affected day; a full re-fetch happens only through the controller's
// reload key. All methods are thread-safe.
type IndexCache struct {
	mu   sync.RWMutex
	days map[DateKey]*api.TimelineDay
}

// NewIndexCache creates an empty cache.
func NewIndexCache() *IndexCache {
	return &IndexCache{days: make(map[DateKey]*api.TimelineDay)}
}

// ReplaceAll swaps in a freshly fetched range, discarding prior state.
func (c *IndexCache) ReplaceAll(days []api.TimelineDay) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.days = make(map[DateKey]*api.TimelineDay, len(days))
	for i := range days {
		d := days[i]
		c.days[DateKey(d.Date)] = &d
	}
}

// Day returns a copy of one day's record.
func (c *IndexCache) Day(key DateKey) (api.TimelineDay, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.days[key]
	if !ok {
		return api.TimelineDay{}, false
	}
	return *d, true
}

// Days returns copies of all cached days sorted by date-key.
func (c *IndexCache) Days() []api.TimelineDay {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]api.TimelineDay, 0, len(c.days))
	for _, d := range c.days {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Len returns the number of cached days.
func (c *IndexCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.days)
}

// ApplyDelete removes an item from every day that holds it, decrementing
// the day's count and clearing its highlight if it pointed at the item.
// A day left with no items, no episodes, and no daily summary is evicted.
// Returns the keys of the days that changed.
func (c *IndexCache) ApplyDelete(itemID string) []DateKey {
	c.mu.Lock()
	defer c.mu.Unlock()

	var changed []DateKey
	for key, day := range c.days {
		touched := false

		// A fresh slice, not in-place compaction: snapshots handed out by
		// Day/Days still alias the old backing array.
		kept := make([]api.TimelineItem, 0, len(day.Items))
		for _, it := range day.Items {
			if it.ID == itemID {
				touched = true
				continue
			}
			kept = append(kept, it)
		}
		day.Items = kept

		if day.Highlight != nil && day.Highlight.ID == itemID {
			day.Highlight = nil
			touched = true
		}

		if touched {
			if day.ItemCount > 0 {
				day.ItemCount--
			}
			changed = append(changed, key)
			if day.ItemCount == 0 && len(day.Items) == 0 && len(day.Episodes) == 0 && day.DailySummary == nil {
				delete(c.days, key)
			}
		}
	}
	return changed
}

// SetHighlight sets or clears (item == nil) a day's highlight.
func (c *IndexCache) SetHighlight(key DateKey, item *api.TimelineItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if day, ok := c.days[key]; ok {
		day.Highlight = item
	}
}

// SetDailySummary sets or clears a day's summary record.
func (c *IndexCache) SetDailySummary(key DateKey, summary *api.DailySummary) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if day, ok := c.days[key]; ok {
		day.DailySummary = summary
	}
}

// ReplaceEpisode swaps the server's updated episode record into whichever
// day holds it.
func (c *IndexCache) ReplaceEpisode(ep api.TimelineEpisode) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, day := range c.days {
		for i := range day.Episodes {
			if day.Episodes[i].EpisodeID == ep.EpisodeID {
				eps := make([]api.TimelineEpisode, len(day.Episodes))
				copy(eps, day.Episodes)
				eps[i] = ep
				day.Episodes = eps
				return
			}
		}
	}
}
