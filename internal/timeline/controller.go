package timeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/memoriahq/memoria-go/internal/api"
	"github.com/memoriahq/memoria-go/internal/bus"
	"github.com/memoriahq/memoria-go/internal/metrics"
)

// DefaultPageSize is the per-fetch item cap for paginators and day
// fetches.
const DefaultPageSize = 50

// Errors holds one error message per concern, so one failed fetch does
// not blank the whole view.
type Errors struct {
	List      string
	Detail    string
	Search    string
	Highlight string
	Summary   string
}

// Controller owns the view state of one timeline instance: view mode,
// zoned anchor, the day-index cache, the two paginators, and the
// selection. All state mutation happens in short critical sections;
// network calls run outside the lock and re-validate the load generation
// before applying, so a stale response is discarded rather than applied.
type Controller struct {
	mu     sync.Mutex
	client *api.Client
	log    *slog.Logger
	stats  *metrics.Collector
	now    func() time.Time

	loc       *time.Location
	mode      ViewMode
	anchor    time.Time
	reloadKey int
	loadGen   uint64

	cache    *IndexCache
	dayItems *Paginator
	allItems *Paginator
	sel      *Selection
	errs     Errors

	itemDetail    *api.TimelineItemDetail
	episodeDetail *api.TimelineEpisodeDetail
}

// NewController creates a controller anchored on today in loc.
func NewController(client *api.Client, loc *time.Location, log *slog.Logger, stats *metrics.Collector) *Controller {
	if log == nil {
		log = slog.Default()
	}
	c := &Controller{
		client: client,
		log:    log,
		stats:  stats,
		now:    time.Now,
		loc:    loc,
		mode:   ViewDay,
		cache:  NewIndexCache(),
		sel:    NewSelection(),
	}
	c.anchor = time.Now().In(loc)
	c.dayItems = NewPaginator(c.fetchDayItems, DefaultPageSize)
	c.allItems = NewPaginator(c.fetchAllItems, DefaultPageSize)
	return c
}

// Mode returns the active view mode.
func (c *Controller) Mode() ViewMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Anchor returns the zoned anchor date.
func (c *Controller) Anchor() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.anchor
}

// AnchorKey returns the anchor's date-key under the configured zone.
func (c *Controller) AnchorKey() DateKey {
	c.mu.Lock()
	defer c.mu.Unlock()
	return NewDateKey(c.anchor, c.loc)
}

// Location returns the configured time zone.
func (c *Controller) Location() *time.Location {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loc
}

// SetMode switches the view mode. Paginated accumulations restart on the
// next load.
func (c *Controller) SetMode(mode ViewMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == mode {
		return
	}
	c.mode = mode
	c.loadGen++
}

// SetAnchor moves the anchor date and invalidates in-flight range loads.
func (c *Controller) SetAnchor(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.anchor = t.In(c.loc)
	c.loadGen++
	c.dayItems.Reset()
}

// Step moves the anchor by n view-mode units (negative steps backward).
func (c *Controller) Step(n int) {
	c.mu.Lock()
	mode := c.mode
	anchor := c.anchor
	loc := c.loc
	c.mu.Unlock()

	var next time.Time
	switch mode {
	case ViewWeek:
		next = anchor.AddDate(0, 0, 7*n)
	case ViewMonth:
		next = anchor.AddDate(0, n, 0)
	case ViewYear:
		next = anchor.AddDate(n, 0, 0)
	default:
		next = anchor.AddDate(0, 0, n)
	}
	c.SetAnchor(next.In(loc))
}

// SetTimezone changes the configured zone, re-expressing the anchor so
// it keeps naming the same calendar day rather than the same instant.
func (c *Controller) SetTimezone(loc *time.Location) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.anchor = Rebase(c.anchor, c.loc, loc)
	c.loc = loc
	c.loadGen++
}

// Invalidate bumps the reload key, forcing the next LoadRange to hit the
// network even with unchanged inputs. Used after server-side effects
// that cannot be reconciled locally, such as finished upload processing.
func (c *Controller) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reloadKey++
	c.loadGen++
}

// ReloadKey returns the current cache-invalidation counter.
func (c *Controller) ReloadKey() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reloadKey
}

// Errs returns a snapshot of the per-concern error messages.
func (c *Controller) Errs() Errors {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errs
}

// Range resolves the current view's inclusive date range.
func (c *Controller) Range() (Range, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ResolveRange(c.mode, c.anchor, c.loc)
}

// LoadRange fetches the day index for the current range into the cache.
// Skipped entirely in all mode, which uses the flat paginator. A
// response is applied only if no mode/anchor/zone/reload change happened
// while it was in flight.
func (c *Controller) LoadRange(ctx context.Context) error {
	c.mu.Lock()
	if c.mode == ViewAll {
		c.mu.Unlock()
		return nil
	}
	gen := c.loadGen
	mode := c.mode
	anchor := c.anchor
	loc := c.loc
	c.mu.Unlock()

	rng, err := ResolveRange(mode, anchor, loc)
	if err != nil {
		return err
	}

	start := c.now()
	days, err := c.client.Timeline(ctx, api.TimelineQuery{
		StartDate:       string(rng.StartKey),
		EndDate:         string(rng.EndKey),
		Limit:           DefaultPageSize,
		TZOffsetMinutes: TZOffsetMinutes(rng.Start, loc),
	})
	c.record(metrics.OpTimelineLoad, c.now().Sub(start))

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.loadGen {
		// Inputs changed while in flight; ignore the resolution.
		c.log.Debug("discarding stale range load", "start", rng.StartKey, "end", rng.EndKey)
		return nil
	}
	if err != nil {
		c.errs.List = err.Error()
		return err
	}
	c.errs.List = ""
	c.cache.ReplaceAll(days)
	c.resolveSelectionLocked()
	return nil
}

// LoadDayItems loads the focused day's flat item list. reset restarts at
// offset 0 and always proceeds; a non-reset call during an in-flight
// load is a no-op.
func (c *Controller) LoadDayItems(ctx context.Context, reset bool) error {
	ran, err := c.dayItems.Load(ctx, reset)
	c.setListErr(ran, err)
	if err == nil && ran {
		c.mu.Lock()
		c.resolveSelectionLocked()
		c.mu.Unlock()
	}
	return err
}

// LoadAllItems loads the next page of the unbounded all-items list.
func (c *Controller) LoadAllItems(ctx context.Context, reset bool) error {
	ran, err := c.allItems.Load(ctx, reset)
	c.setListErr(ran, err)
	if err == nil && ran {
		c.mu.Lock()
		c.resolveSelectionLocked()
		c.mu.Unlock()
	}
	return err
}

func (c *Controller) setListErr(ran bool, err error) {
	if !ran {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.errs.List = err.Error()
	} else {
		c.errs.List = ""
	}
}

// DayItems returns the focused day's accumulated items.
func (c *Controller) DayItems() *Paginator { return c.dayItems }

// AllItems returns the flat all-items paginator.
func (c *Controller) AllItems() *Paginator { return c.allItems }

// Days returns the cached days sorted by date-key.
func (c *Controller) Days() []api.TimelineDay {
	return c.cache.Days()
}

// FocusedDay returns the cached record for the anchor's day.
func (c *Controller) FocusedDay() (api.TimelineDay, bool) {
	return c.cache.Day(c.AnchorKey())
}

// fetchDayItems pages the focused day's flat item list.
func (c *Controller) fetchDayItems(ctx context.Context, offset, limit int) (api.ItemPage, error) {
	c.mu.Lock()
	key := NewDateKey(c.anchor, c.loc)
	tz := TZOffsetMinutes(c.anchor, c.loc)
	c.mu.Unlock()

	start := c.now()
	page, err := c.client.TimelineItems(ctx, api.ItemsQuery{
		StartDate:       string(key),
		EndDate:         string(key),
		Limit:           limit,
		Offset:          offset,
		TZOffsetMinutes: tz,
	})
	c.record(metrics.OpDayItemsLoad, c.now().Sub(start))
	if err != nil {
		return api.ItemPage{}, err
	}
	return *page, nil
}

// fetchAllItems pages the unbounded item list (no date filter).
func (c *Controller) fetchAllItems(ctx context.Context, offset, limit int) (api.ItemPage, error) {
	c.mu.Lock()
	tz := TZOffsetMinutes(c.now(), c.loc)
	c.mu.Unlock()

	start := c.now()
	page, err := c.client.TimelineItems(ctx, api.ItemsQuery{
		Limit:           limit,
		Offset:          offset,
		TZOffsetMinutes: tz,
	})
	c.record(metrics.OpDayItemsLoad, c.now().Sub(start))
	if err != nil {
		return api.ItemPage{}, err
	}
	return *page, nil
}

// DeleteItem removes an item on the server, then reconciles every local
// holder: the day cache, both paginators, and the selection.
func (c *Controller) DeleteItem(ctx context.Context, id string) error {
	if err := c.client.DeleteItem(ctx, id); err != nil {
		c.mu.Lock()
		c.errs.List = err.Error()
		c.mu.Unlock()
		return err
	}

	c.cache.ApplyDelete(id)
	c.dayItems.Remove(id)
	c.allItems.Remove(id)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs.List = ""
	c.sel.ClearIfItem(id)
	if c.itemDetail != nil && c.itemDetail.ID == id {
		c.itemDetail = nil
	}
	return nil
}

// SetHighlight designates an item as the day's representative thumbnail,
// updating only that day's cache record.
func (c *Controller) SetHighlight(ctx context.Context, key DateKey, item api.TimelineItem) error {
	err := c.client.SetHighlight(ctx, api.HighlightInput{Date: string(key), ItemID: item.ID})
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.errs.Highlight = err.Error()
		return err
	}
	c.errs.Highlight = ""
	c.cache.SetHighlight(key, &item)
	return nil
}

// ClearHighlight removes a day's highlight.
func (c *Controller) ClearHighlight(ctx context.Context, key DateKey) error {
	err := c.client.ClearHighlight(ctx, string(key))
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.errs.Highlight = err.Error()
		return err
	}
	c.errs.Highlight = ""
	c.cache.SetHighlight(key, nil)
	return nil
}

// SaveDailySummary creates or updates the day's summary and applies the
// server's record to the cache.
func (c *Controller) SaveDailySummary(ctx context.Context, key DateKey, text string) error {
	day, ok := c.cache.Day(key)

	var (
		summary *api.DailySummary
		err     error
	)
	if ok && day.DailySummary != nil {
		summary, err = c.client.UpdateDailySummary(ctx, day.DailySummary.ID, text)
	} else {
		summary, err = c.client.CreateDailySummary(ctx, string(key), text)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.errs.Summary = err.Error()
		return err
	}
	c.errs.Summary = ""
	c.cache.SetDailySummary(key, summary)
	return nil
}

// EditEpisode patches an episode's title/summary and replaces the local
// record with the server's response.
func (c *Controller) EditEpisode(ctx context.Context, id string, update api.EpisodeUpdate) error {
	detail, err := c.client.UpdateEpisode(ctx, id, update)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.errs.Detail = err.Error()
		return err
	}
	c.errs.Detail = ""
	c.cache.ReplaceEpisode(detail.TimelineEpisode)
	if c.episodeDetail != nil && c.episodeDetail.EpisodeID == id {
		c.episodeDetail = detail
	}
	return nil
}

// SelectItem activates an item and lazily fetches its detail.
func (c *Controller) SelectItem(ctx context.Context, id string) error {
	c.mu.Lock()
	c.sel.SelectItem(id)
	c.episodeDetail = nil
	c.mu.Unlock()

	detail, err := c.client.ItemDetail(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.errs.Detail = err.Error()
		return err
	}
	if c.sel.ItemID() != id {
		// Selection moved on while the detail was in flight.
		return nil
	}
	c.errs.Detail = ""
	c.itemDetail = detail
	return nil
}

// SelectEpisode activates an episode and lazily fetches its detail.
func (c *Controller) SelectEpisode(ctx context.Context, id string) error {
	c.mu.Lock()
	c.sel.SelectEpisode(id)
	c.itemDetail = nil
	c.mu.Unlock()

	detail, err := c.client.EpisodeDetail(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.errs.Detail = err.Error()
		return err
	}
	if c.sel.EpisodeID() != id {
		return nil
	}
	c.errs.Detail = ""
	c.episodeDetail = detail
	return nil
}

// Selection exposes the selection state for rendering.
func (c *Controller) Selection() (state SelectionState, itemID, episodeID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel.State(), c.sel.ItemID(), c.sel.EpisodeID()
}

// ItemDetail returns the lazily fetched detail for the selected item.
func (c *Controller) ItemDetail() *api.TimelineItemDetail {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.itemDetail
}

// EpisodeDetail returns the lazily fetched detail for the selected
// episode.
func (c *Controller) EpisodeDetail() *api.TimelineEpisodeDetail {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.episodeDetail
}

// HandleFocus services a cross-view focus request: navigate the anchor
// to the request's day, switch to day view, and hold the request pending
// until matching data loads or the request expires. Callers trigger
// LoadRange/LoadDayItems afterwards.
func (c *Controller) HandleFocus(req bus.FocusRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if req.Date != "" {
		if t, err := DateKey(req.Date).Time(c.loc); err == nil {
			c.anchor = t
		}
	}
	c.mode = ViewDay
	c.loadGen++
	c.dayItems.Reset()
	c.sel.RequestFocus(req, c.now())
}

// resolveSelectionLocked re-runs pending-focus resolution and, in day
// view, the default selection, against the freshest loaded data. Caller
// holds c.mu.
func (c *Controller) resolveSelectionLocked() {
	key := NewDateKey(c.anchor, c.loc)
	day, _ := c.cache.Day(key)

	items := day.Items
	if more := c.dayItems.Items(); len(more) > len(items) {
		items = more
	}

	if c.sel.Resolve(day.Episodes, items, c.now()) {
		return
	}
	if c.mode == ViewDay && (len(day.Episodes) > 0 || len(items) > 0) {
		c.sel.DefaultSelect(day.Episodes, items)
	}
}

func (c *Controller) record(op string, d time.Duration) {
	if c.stats != nil {
		c.stats.RecordTiming(op, d)
	}
}
