package api

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
)

// TimelineQuery selects the day-index range to fetch. Start and End are
// zoned date-keys (YYYY-MM-DD); TZOffsetMinutes tells the server which
// wall-clock day events belong to.
type TimelineQuery struct {
	StartDate       string
	EndDate         string
	Limit           int
	TZOffsetMinutes int
}

// Timeline fetches the day index for an inclusive date range.
func (c *Client) Timeline(ctx context.Context, q TimelineQuery) ([]TimelineDay, error) {
	query := url.Values{}
	query.Set("start_date", q.StartDate)
	query.Set("end_date", q.EndDate)
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}
	query.Set("tz_offset_minutes", strconv.Itoa(q.TZOffsetMinutes))

	var result struct {
		Days []TimelineDay `json:"days"`
	}
	if err := c.do(ctx, "GET", "/timeline", query, nil, &result); err != nil {
		return nil, fmt.Errorf("fetch timeline: %w", err)
	}
	return result.Days, nil
}

// ItemsQuery selects a page of the flat item list.
type ItemsQuery struct {
	StartDate       string
	EndDate         string
	Limit           int
	Offset          int
	TZOffsetMinutes int
}

// ItemPage is one page of the flat item list with the total count at
// fetch time.
type ItemPage struct {
	Items []TimelineItem `json:"items"`
	Total int            `json:"total"`
}

// TimelineItems fetches one offset-based page of the flat item list.
func (c *Client) TimelineItems(ctx context.Context, q ItemsQuery) (*ItemPage, error) {
	query := url.Values{}
	if q.StartDate != "" {
		query.Set("start_date", q.StartDate)
	}
	if q.EndDate != "" {
		query.Set("end_date", q.EndDate)
	}
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}
	query.Set("offset", strconv.Itoa(q.Offset))
	query.Set("tz_offset_minutes", strconv.Itoa(q.TZOffsetMinutes))

	var result ItemPage
	if err := c.do(ctx, "GET", "/timeline/items", query, nil, &result); err != nil {
		return nil, fmt.Errorf("fetch timeline items: %w", err)
	}
	return &result, nil
}

// ItemDetail fetches the full detail record for one item.
func (c *Client) ItemDetail(ctx context.Context, id string) (*TimelineItemDetail, error) {
	var result TimelineItemDetail
	if err := c.do(ctx, "GET", "/timeline/items/"+url.PathEscape(id), nil, nil, &result); err != nil {
		return nil, fmt.Errorf("fetch item %s: %w", id, err)
	}
	return &result, nil
}

// DeleteItem removes an item.
func (c *Client) DeleteItem(ctx context.Context, id string) error {
	if err := c.do(ctx, "DELETE", "/timeline/items/"+url.PathEscape(id), nil, nil, nil); err != nil {
		return fmt.Errorf("delete item %s: %w", id, err)
	}
	return nil
}

// EpisodeDetail fetches the full detail record for one episode.
func (c *Client) EpisodeDetail(ctx context.Context, id string) (*TimelineEpisodeDetail, error) {
	var result TimelineEpisodeDetail
	if err := c.do(ctx, "GET", "/timeline/episodes/"+url.PathEscape(id), nil, nil, &result); err != nil {
		return nil, fmt.Errorf("fetch episode %s: %w", id, err)
	}
	return &result, nil
}

// EpisodeUpdate carries the editable episode fields. Nil leaves a field
// unchanged.
type EpisodeUpdate struct {
	Title   *string `json:"title,omitempty"`
	Summary *string `json:"summary,omitempty"`
}

// UpdateEpisode patches an episode's title/summary and returns the
// server's replacement record. Callers must adopt the returned record
// rather than keeping locally edited state.
func (c *Client) UpdateEpisode(ctx context.Context, id string, update EpisodeUpdate) (*TimelineEpisodeDetail, error) {
	var result TimelineEpisodeDetail
	if err := c.do(ctx, "PATCH", "/timeline/episodes/"+url.PathEscape(id), nil, update, &result); err != nil {
		return nil, fmt.Errorf("update episode %s: %w", id, err)
	}
	return &result, nil
}

// CreateDailySummary creates the singleton summary for a day. The id path
// segment is the day's date-key.
func (c *Client) CreateDailySummary(ctx context.Context, dateKey, text string) (*DailySummary, error) {
	body := map[string]string{"summary": text}
	var result DailySummary
	if err := c.do(ctx, "POST", "/timeline/daily-summaries/"+url.PathEscape(dateKey), nil, body, &result); err != nil {
		return nil, fmt.Errorf("create daily summary %s: %w", dateKey, err)
	}
	return &result, nil
}

// UpdateDailySummary replaces the text of an existing daily summary.
func (c *Client) UpdateDailySummary(ctx context.Context, id, text string) (*DailySummary, error) {
	body := map[string]string{"summary": text}
	var result DailySummary
	if err := c.do(ctx, "PATCH", "/timeline/daily-summaries/"+url.PathEscape(id), nil, body, &result); err != nil {
		return nil, fmt.Errorf("update daily summary %s: %w", id, err)
	}
	return &result, nil
}

// UploadDailySummaryVoice attaches a recorded voice note to a daily
// summary via multipart upload.
func (c *Client) UploadDailySummaryVoice(ctx context.Context, id, filename string, content io.Reader) (*DailySummary, error) {
	var result DailySummary
	path := "/timeline/daily-summaries/" + url.PathEscape(id) + "/voice"
	if err := c.doMultipart(ctx, "POST", path, "voice", filename, content, &result); err != nil {
		return nil, fmt.Errorf("upload voice note for %s: %w", id, err)
	}
	return &result, nil
}

// HighlightInput designates one item as a day's representative thumbnail.
type HighlightInput struct {
	Date   string `json:"date"`
	ItemID string `json:"item_id"`
}

// SetHighlight sets the highlight item for a day.
func (c *Client) SetHighlight(ctx context.Context, input HighlightInput) error {
	if err := c.do(ctx, "POST", "/timeline/highlights", nil, input, nil); err != nil {
		return fmt.Errorf("set highlight: %w", err)
	}
	return nil
}

// ClearHighlight removes the highlight for a day.
func (c *Client) ClearHighlight(ctx context.Context, dateKey string) error {
	if err := c.do(ctx, "DELETE", "/timeline/highlights/"+url.PathEscape(dateKey), nil, nil, nil); err != nil {
		return fmt.Errorf("clear highlight %s: %w", dateKey, err)
	}
	return nil
}
