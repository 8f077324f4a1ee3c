package api

import (
	"fmt"
	"time"
)

// ItemType classifies a timeline item's media kind.
type ItemType string

// Known item types.
const (
	ItemPhoto    ItemType = "photo"
	ItemVideo    ItemType = "video"
	ItemAudio    ItemType = "audio"
	ItemDocument ItemType = "document"
)

// Item processing states reported by the backend.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// TimelineItem is a single ingested piece of media.
type TimelineItem struct {
	ID               string     `json:"id"`
	ItemType         ItemType   `json:"item_type"`
	CapturedAt       *time.Time `json:"captured_at,omitempty"`
	Processed        bool       `json:"processed"`
	DownloadURL      *string    `json:"download_url,omitempty"`
	PosterURL        *string    `json:"poster_url,omitempty"`
	Caption          *string    `json:"caption,omitempty"`
	OriginalFilename *string    `json:"original_filename,omitempty"`
}

// Label returns the display label for an item: caption, then original
// filename, then a generic "{type} upload".
func (i TimelineItem) Label() string {
	if i.Caption != nil && *i.Caption != "" {
		return *i.Caption
	}
	if i.OriginalFilename != nil && *i.OriginalFilename != "" {
		return *i.OriginalFilename
	}
	return fmt.Sprintf("%s upload", i.ItemType)
}

// TimelineEpisode is a server-computed grouping of items into one
// narrative unit.
type TimelineEpisode struct {
	EpisodeID     string    `json:"episode_id"`
	SourceItemIDs []string  `json:"source_item_ids"`
	StartTimeUTC  time.Time `json:"start_time_utc"`
	EndTimeUTC    time.Time `json:"end_time_utc"`
	Title         string    `json:"title"`
	Summary       string    `json:"summary"`
	ItemCount     int       `json:"item_count"`
	PreviewURL    *string   `json:"preview_url,omitempty"`
	ContextIDs    []string  `json:"context_ids,omitempty"`
}

// References reports whether the episode covers the given id, either as a
// source item or as an extracted context.
func (e TimelineEpisode) References(id string) bool {
	for _, s := range e.SourceItemIDs {
		if s == id {
			return true
		}
	}
	for _, c := range e.ContextIDs {
		if c == id {
			return true
		}
	}
	return false
}

// DailySummary is the optional per-day generated summary.
type DailySummary struct {
	ID       string  `json:"id"`
	Date     string  `json:"date"`
	Summary  string  `json:"summary"`
	VoiceURL *string `json:"voice_url,omitempty"`
}

// TimelineDay is one calendar day of the timeline index, keyed by its
// zoned date-key (YYYY-MM-DD).
type TimelineDay struct {
	Date         string            `json:"date"`
	ItemCount    int               `json:"item_count"`
	Items        []TimelineItem    `json:"items"`
	Episodes     []TimelineEpisode `json:"episodes,omitempty"`
	DailySummary *DailySummary     `json:"daily_summary,omitempty"`
	Highlight    *TimelineItem     `json:"highlight,omitempty"`
}

// ContextRecord is one extracted-context entry attached to a detail view.
type ContextRecord struct {
	ID        string     `json:"id"`
	Kind      string     `json:"kind"`
	Text      string     `json:"text"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// TranscriptSegment is one timed span of a transcript.
type TranscriptSegment struct {
	StartSeconds float64 `json:"start_seconds"`
	EndSeconds   float64 `json:"end_seconds"`
	Text         string  `json:"text"`
}

// TimelineItemDetail is the lazily fetched superset of TimelineItem.
type TimelineItemDetail struct {
	TimelineItem
	Status             string              `json:"status"`
	Contexts           []ContextRecord     `json:"contexts,omitempty"`
	TranscriptSegments []TranscriptSegment `json:"transcript_segments,omitempty"`
	TranscriptText     *string             `json:"transcript_text,omitempty"`
}

// TimelineEpisodeDetail is the lazily fetched superset of TimelineEpisode.
type TimelineEpisodeDetail struct {
	TimelineEpisode
	Contexts []ContextRecord `json:"contexts,omitempty"`
}

// SearchResult is one hit from the search endpoint.
type SearchResult struct {
	ID        string   `json:"id"`
	Kind      string   `json:"kind"` // "item" or "episode"
	Title     string   `json:"title"`
	Snippet   string   `json:"snippet"`
	Date      string   `json:"date"`
	Score     float64  `json:"score"`
	ContextID *string  `json:"context_id,omitempty"`
	ItemType  ItemType `json:"item_type,omitempty"`
}

// IntegrationStatus describes one connected external source.
type IntegrationStatus struct {
	Name       string     `json:"name"`
	Connected  bool       `json:"connected"`
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
	Error      *string    `json:"error,omitempty"`
}
