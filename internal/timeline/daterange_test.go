package timeline

import (
	"testing"
	"time"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load location %s: %v", name, err)
	}
	return loc
}

func TestResolveRange(t *testing.T) {
	la := mustLoc(t, "America/Los_Angeles")
	tokyo := mustLoc(t, "Asia/Tokyo")

	tests := []struct {
		name      string
		mode      ViewMode
		anchor    time.Time
		loc       *time.Location
		wantStart DateKey
		wantEnd   DateKey
	}{
		{"day", ViewDay, time.Date(2024, 3, 10, 12, 0, 0, 0, la), la, "2024-03-10", "2024-03-10"},
		{"all is a single day", ViewAll, time.Date(2024, 3, 10, 12, 0, 0, 0, la), la, "2024-03-10", "2024-03-10"},
		{"week monday to sunday", ViewWeek, time.Date(2024, 3, 13, 9, 0, 0, 0, la), la, "2024-03-11", "2024-03-17"},
		{"week anchored on sunday", ViewWeek, time.Date(2024, 3, 10, 9, 0, 0, 0, la), la, "2024-03-04", "2024-03-10"},
		{"week anchored on monday", ViewWeek, time.Date(2024, 3, 11, 0, 0, 0, 0, la), la, "2024-03-11", "2024-03-17"},
		{"month", ViewMonth, time.Date(2024, 2, 15, 0, 0, 0, 0, la), la, "2024-02-01", "2024-02-29"},
		{"year", ViewYear, time.Date(2024, 7, 4, 0, 0, 0, 0, la), la, "2024-01-01", "2024-12-31"},
		{"zone decides the day", ViewDay, time.Date(2024, 3, 10, 20, 0, 0, 0, la), tokyo, "2024-03-11", "2024-03-11"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng, err := ResolveRange(tt.mode, tt.anchor, tt.loc)
			if err != nil {
				t.Fatalf("ResolveRange: %v", err)
			}
			if rng.StartKey != tt.wantStart || rng.EndKey != tt.wantEnd {
				t.Errorf("got %s..%s, want %s..%s", rng.StartKey, rng.EndKey, tt.wantStart, tt.wantEnd)
			}
			if rng.Start.After(rng.End) {
				t.Errorf("start %v after end %v", rng.Start, rng.End)
			}
		})
	}
}

func TestResolveRangeContainsAnchor(t *testing.T) {
	la := mustLoc(t, "America/Los_Angeles")
	anchor := time.Date(2024, 3, 10, 15, 30, 0, 0, la)
	key := NewDateKey(anchor, la)

	for _, mode := range []ViewMode{ViewDay, ViewWeek, ViewMonth, ViewYear} {
		rng, err := ResolveRange(mode, anchor, la)
		if err != nil {
			t.Fatalf("%s: %v", mode, err)
		}
		if key < rng.StartKey || key > rng.EndKey {
			t.Errorf("%s: anchor %s outside %s..%s", mode, key, rng.StartKey, rng.EndKey)
		}
	}
}

func TestResolveRangeUnknownMode(t *testing.T) {
	if _, err := ResolveRange(ViewMode("fortnight"), time.Now(), time.UTC); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestRebasePreservesCalendarDay(t *testing.T) {
	la := mustLoc(t, "America/Los_Angeles")
	tokyo := mustLoc(t, "Asia/Tokyo")

	// 20:00 in LA is already the next day in Tokyo; rebasing must keep
	// the LA calendar day, not the instant.
	anchor := time.Date(2024, 3, 10, 20, 0, 0, 0, la)
	oldKey := NewDateKey(anchor, la)

	rebased := Rebase(anchor, la, tokyo)
	if got := NewDateKey(rebased, tokyo); got != oldKey {
		t.Errorf("rebased key = %s, want %s", got, oldKey)
	}
}

func TestTZOffsetMinutes(t *testing.T) {
	la := mustLoc(t, "America/Los_Angeles")

	tests := []struct {
		name string
		t    time.Time
		want int
	}{
		{"pst", time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC), -480},
		{"pdt", time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC), -420},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TZOffsetMinutes(tt.t, la); got != tt.want {
				t.Errorf("TZOffsetMinutes = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDateKey(t *testing.T) {
	if !DateKey("2024-03-10").Valid() {
		t.Error("2024-03-10 should be valid")
	}
	for _, bad := range []DateKey{"2024-3-10", "10-03-2024", "garbage", ""} {
		if bad.Valid() {
			t.Errorf("%q should be invalid", bad)
		}
	}
}

func TestMonthGrid(t *testing.T) {
	la := mustLoc(t, "America/Los_Angeles")
	// March 2024: Friday the 1st through Sunday the 31st.
	grid := MonthGrid(time.Date(2024, 3, 15, 0, 0, 0, 0, la), la)

	if len(grid) != 5 {
		t.Fatalf("got %d weeks, want 5", len(grid))
	}
	for i, week := range grid {
		if len(week) != 7 {
			t.Fatalf("week %d has %d days", i, len(week))
		}
	}
	if grid[0][0] != "2024-02-26" {
		t.Errorf("first cell = %s, want 2024-02-26 (Monday padding)", grid[0][0])
	}
	if grid[4][6] != "2024-03-31" {
		t.Errorf("last cell = %s, want 2024-03-31", grid[4][6])
	}
}

func TestParseViewMode(t *testing.T) {
	for _, good := range []string{"day", "week", "month", "year", "all"} {
		if _, err := ParseViewMode(good); err != nil {
			t.Errorf("ParseViewMode(%q): %v", good, err)
		}
	}
	if _, err := ParseViewMode("decade"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
