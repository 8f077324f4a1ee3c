package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecordTiming(t *testing.T) {
	c := NewCollector()
	c.RecordTiming(OpSearch, 40*time.Millisecond)
	c.RecordTiming(OpSearch, 20*time.Millisecond)
	c.RecordTiming(OpTimelineLoad, 100*time.Millisecond)

	snap := c.Snapshot()
	require.Len(t, snap.Operations, 2)

	// Sorted by name: search before timeline_load.
	search := snap.Operations[0]
	assert.Equal(t, OpSearch, search.Name)
	assert.Equal(t, int64(2), search.Count)
	assert.Equal(t, int64(60), search.TotalTimeMs)
	assert.Equal(t, int64(20), search.MinTimeMs)
	assert.Equal(t, int64(40), search.MaxTimeMs)
	assert.InDelta(t, 30.0, search.AvgTimeMs, 0.01)

	assert.Equal(t, OpTimelineLoad, snap.Operations[1].Name)
	assert.GreaterOrEqual(t, snap.UptimeSeconds, 0.0)
}

func TestCollectorEmptySnapshot(t *testing.T) {
	snap := NewCollector().Snapshot()
	assert.Empty(t, snap.Operations)
}
