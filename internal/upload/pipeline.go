// Package upload implements the sequential upload/ingest pipeline and
// the bounded poll loop that waits for server-side processing.
package upload

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/memoriahq/memoria-go/internal/api"
	"github.com/memoriahq/memoria-go/internal/metrics"
	"github.com/memoriahq/memoria-go/internal/timeline"
)

// Options configures one upload batch.
type Options struct {
	// Date scopes the storage path; defaults to today under Loc.
	Date timeline.DateKey
	Loc  *time.Location
	// CapturedAt, when set with Override, tells the server to trust this
	// time instead of extracted media metadata.
	CapturedAt *time.Time
	Override   bool
	// Progress, when set, receives per-file step events.
	Progress func(Event)
}

// Event reports pipeline progress for one file.
type Event struct {
	Filename string
	Step     string // "signing", "uploading", "probing", "ingesting", "done"
	Err      error
}

// Result summarizes a batch. Uploads are sequential; the batch stops at
// the first failure, so UploadedCount names how many files made it.
type Result struct {
	BatchID       string
	ItemIDs       []string
	UploadedCount int
}

// Pipeline uploads files one at a time to bound concurrent bandwidth and
// server load.
type Pipeline struct {
	client *api.Client
	log    *slog.Logger
	stats  *metrics.Collector
}

// NewPipeline creates an upload pipeline.
func NewPipeline(client *api.Client, log *slog.Logger, stats *metrics.Collector) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{client: client, log: log, stats: stats}
}

// UploadBatch uploads each file in order: request a signed URL, PUT the
// bytes, probe the local media duration (best effort), then register the
// item for ingestion. On failure the batch stops and the error names the
// failing file; the partial Result is still returned.
func (p *Pipeline) UploadBatch(ctx context.Context, paths []string, opts Options) (Result, error) {
	loc := opts.Loc
	if loc == nil {
		loc = time.Local
	}
	date := opts.Date
	if date == "" {
		date = timeline.NewDateKey(time.Now(), loc)
	}

	result := Result{BatchID: uuid.New().String()}
	for _, path := range paths {
		start := time.Now()
		itemID, err := p.uploadOne(ctx, path, date, loc, opts, result.BatchID)
		if p.stats != nil {
			p.stats.RecordTiming(metrics.OpUpload, time.Since(start))
		}
		if err != nil {
			name := filepath.Base(path)
			p.emit(opts, Event{Filename: name, Step: "done", Err: err})
			return result, fmt.Errorf("upload %s: %w", name, err)
		}
		result.ItemIDs = append(result.ItemIDs, itemID)
		result.UploadedCount++
		p.emit(opts, Event{Filename: filepath.Base(path), Step: "done"})
	}
	return result, nil
}

func (p *Pipeline) uploadOne(ctx context.Context, path string, date timeline.DateKey, loc *time.Location, opts Options, batchID string) (string, error) {
	name := filepath.Base(path)
	contentType := contentTypeFor(name)

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat file: %w", err)
	}

	p.emit(opts, Event{Filename: name, Step: "signing"})
	signed, err := p.client.CreateUploadURL(ctx, api.UploadURLRequest{
		Filename:    name,
		ContentType: contentType,
		DatePath:    strings.ReplaceAll(string(date), "-", "/"),
	})
	if err != nil {
		return "", err
	}

	p.emit(opts, Event{Filename: name, Step: "uploading"})
	if err := p.client.PutObject(ctx, signed.URL, signed.Headers, f, info.Size()); err != nil {
		return "", err
	}

	// Best effort: a nil duration is fine, the server re-derives it
	// during processing.
	p.emit(opts, Event{Filename: name, Step: "probing"})
	duration := ProbeDuration(path)

	p.emit(opts, Event{Filename: name, Step: "ingesting"})
	anchor, err := date.Time(loc)
	if err != nil {
		anchor = time.Now()
	}
	ingested, err := p.client.Ingest(ctx, api.IngestRequest{
		ObjectKey:          signed.ObjectKey,
		Filename:           name,
		ContentType:        contentType,
		DurationSeconds:    duration,
		CapturedAt:         opts.CapturedAt,
		CapturedAtOverride: opts.Override && opts.CapturedAt != nil,
		TZOffsetMinutes:    timeline.TZOffsetMinutes(anchor, loc),
		BatchID:            batchID,
	})
	if err != nil {
		return "", err
	}

	p.log.Info("file ingested", "file", name, "item_id", ingested.ItemID)
	return ingested.ItemID, nil
}

func (p *Pipeline) emit(opts Options, ev Event) {
	if opts.Progress != nil {
		opts.Progress(ev)
	}
}

// contentTypeFor guesses a content type from the file extension,
// defaulting to octet-stream.
func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
