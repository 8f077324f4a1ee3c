// Package timeline implements the view-state coordinator for the memory
// timeline: zoned range resolution, the day-index cache, item paginators,
// and selection resolution. It holds no UI code.
package timeline

import (
	"fmt"
	"time"
)

// ViewMode selects the calendar unit the timeline displays.
type ViewMode string

// Supported view modes.
const (
	ViewDay   ViewMode = "day"
	ViewWeek  ViewMode = "week"
	ViewMonth ViewMode = "month"
	ViewYear  ViewMode = "year"
	ViewAll   ViewMode = "all"
)

// ParseViewMode validates a view mode string.
func ParseViewMode(s string) (ViewMode, error) {
	switch ViewMode(s) {
	case ViewDay, ViewWeek, ViewMonth, ViewYear, ViewAll:
		return ViewMode(s), nil
	}
	return "", fmt.Errorf("unknown view mode %q", s)
}

// DateKey is a time-zone-qualified calendar day identifier (YYYY-MM-DD).
// It is the cache partition key.
type DateKey string

const dateKeyLayout = "2006-01-02"

// NewDateKey derives the date-key of an instant under a zone.
func NewDateKey(t time.Time, loc *time.Location) DateKey {
	return DateKey(t.In(loc).Format(dateKeyLayout))
}

// Time returns the zoned midnight the key identifies.
func (k DateKey) Time(loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dateKeyLayout, string(k), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date key %q: %w", k, err)
	}
	return t, nil
}

// Valid reports whether the key is a well-formed YYYY-MM-DD date.
func (k DateKey) Valid() bool {
	_, err := time.Parse(dateKeyLayout, string(k))
	return err == nil
}

// Range is an inclusive zoned date range. Start and End are the zoned
// midnights of the first and last day; StartKey and EndKey are their
// date-keys.
type Range struct {
	Start    time.Time
	End      time.Time
	StartKey DateKey
	EndKey   DateKey
}

// ResolveRange computes the inclusive date range a view mode covers
// around an anchor, with all calendar arithmetic done in loc rather than
// the process's local zone. ViewAll resolves to the anchor's single day;
// callers in all mode use the flat paginator and skip range loading.
func ResolveRange(mode ViewMode, anchor time.Time, loc *time.Location) (Range, error) {
	a := anchor.In(loc)
	day := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, loc)

	var start, end time.Time
	switch mode {
	case ViewDay, ViewAll:
		start, end = day, day
	case ViewWeek:
		start = weekStart(day, loc)
		end = start.AddDate(0, 0, 6)
	case ViewMonth:
		start = time.Date(a.Year(), a.Month(), 1, 0, 0, 0, 0, loc)
		end = start.AddDate(0, 1, -1)
	case ViewYear:
		start = time.Date(a.Year(), time.January, 1, 0, 0, 0, 0, loc)
		end = time.Date(a.Year(), time.December, 31, 0, 0, 0, 0, loc)
	default:
		return Range{}, fmt.Errorf("unknown view mode %q", mode)
	}

	return Range{
		Start:    start,
		End:      end,
		StartKey: NewDateKey(start, loc),
		EndKey:   NewDateKey(end, loc),
	}, nil
}

// weekStart returns the zoned Monday midnight of the day's week.
func weekStart(day time.Time, loc *time.Location) time.Time {
	wd := int(day.Weekday())
	// time.Weekday has Sunday == 0; weeks here run Monday..Sunday.
	offset := (wd + 6) % 7
	start := day.AddDate(0, 0, -offset)
	return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
}

// TZOffsetMinutes returns the wire tz_offset_minutes parameter: the
// zone's UTC offset at the given instant, in minutes.
func TZOffsetMinutes(t time.Time, loc *time.Location) int {
	_, offsetSeconds := t.In(loc).Zone()
	return offsetSeconds / 60
}

// Rebase re-expresses an anchor under a new zone so that it keeps naming
// the same calendar day: the date-key is derived under the old zone and a
// midnight-anchored date is reconstructed under the new zone. Without
// this, a zone change would reinterpret the same absolute instant and
// could shift the visible day.
func Rebase(anchor time.Time, oldLoc, newLoc *time.Location) time.Time {
	key := NewDateKey(anchor, oldLoc)
	t, err := key.Time(newLoc)
	if err != nil {
		// Keys produced by NewDateKey always parse; keep the anchor if not.
		return anchor
	}
	return t
}

// MonthGrid returns the calendar grid for the anchor's month as full
// Monday..Sunday week rows, padded with the adjacent months' days.
func MonthGrid(anchor time.Time, loc *time.Location) [][]DateKey {
	a := anchor.In(loc)
	first := time.Date(a.Year(), a.Month(), 1, 0, 0, 0, 0, loc)
	last := first.AddDate(0, 1, -1)

	cur := weekStart(first, loc)
	var grid [][]DateKey
	for !cur.After(last) {
		week := make([]DateKey, 7)
		for i := 0; i < 7; i++ {
			week[i] = NewDateKey(cur, loc)
			cur = cur.AddDate(0, 0, 1)
		}
		grid = append(grid, week)
	}
	return grid
}
