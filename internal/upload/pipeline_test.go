package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memoriahq/memoria-go/internal/api"
	"github.com/memoriahq/memoria-go/internal/timeline"
)

// uploadServer fakes the sign/put/ingest endpoints. failPutFor names a
// filename whose PUT is rejected.
type uploadServer struct {
	*httptest.Server

	mu         sync.Mutex
	failPutFor string
	puts       []string
	ingests    []api.IngestRequest
}

func newUploadServer(t *testing.T) *uploadServer {
	t.Helper()
	us := &uploadServer{}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /storage/upload-url", func(w http.ResponseWriter, r *http.Request) {
		var req api.UploadURLRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		json.NewEncoder(w).Encode(api.UploadURLResponse{
			URL:       us.URL + "/put/" + req.Filename,
			Headers:   map[string]string{"Content-Type": req.ContentType},
			ObjectKey: req.DatePath + "/" + req.Filename,
		})
	})
	mux.HandleFunc("PUT /put/", func(w http.ResponseWriter, r *http.Request) {
		name := filepath.Base(r.URL.Path)
		us.mu.Lock()
		fail := us.failPutFor == name
		if !fail {
			us.puts = append(us.puts, name)
		}
		us.mu.Unlock()
		if fail {
			http.Error(w, "bucket quota exceeded", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /upload/ingest", func(w http.ResponseWriter, r *http.Request) {
		var req api.IngestRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		us.mu.Lock()
		us.ingests = append(us.ingests, req)
		n := len(us.ingests)
		us.mu.Unlock()
		json.NewEncoder(w).Encode(api.IngestResponse{
			ItemID: fmt.Sprintf("item-%d", n),
			Status: api.StatusProcessing,
		})
	})

	us.Server = httptest.NewServer(mux)
	t.Cleanup(us.Close)
	return us
}

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestUploadBatch(t *testing.T) {
	srv := newUploadServer(t)
	dir := t.TempDir()
	a := writeTempFile(t, dir, "a.jpg", "jpeg bytes")
	b := writeTempFile(t, dir, "b.txt", "notes")

	var events []Event
	pipeline := NewPipeline(api.New(srv.URL), nil, nil)
	result, err := pipeline.UploadBatch(context.Background(), []string{a, b}, Options{
		Date: timeline.DateKey("2024-03-10"),
		Loc:  time.UTC,
		Progress: func(ev Event) {
			events = append(events, ev)
		},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.BatchID)
	assert.Equal(t, 2, result.UploadedCount)
	assert.Equal(t, []string{"item-1", "item-2"}, result.ItemIDs)
	assert.Equal(t, []string{"a.jpg", "b.txt"}, srv.puts)

	require.Len(t, srv.ingests, 2)
	assert.Equal(t, "2024/03/10/a.jpg", srv.ingests[0].ObjectKey)
	assert.Equal(t, result.BatchID, srv.ingests[0].BatchID)
	assert.Equal(t, result.BatchID, srv.ingests[1].BatchID)

	var steps []string
	for _, ev := range events {
		if ev.Filename == "a.jpg" {
			steps = append(steps, ev.Step)
		}
	}
	assert.Equal(t, []string{"signing", "uploading", "probing", "ingesting", "done"}, steps)
}

func TestUploadBatchStopsAtFirstFailure(t *testing.T) {
	srv := newUploadServer(t)
	srv.failPutFor = "b.txt"
	dir := t.TempDir()
	paths := []string{
		writeTempFile(t, dir, "a.jpg", "jpeg bytes"),
		writeTempFile(t, dir, "b.txt", "notes"),
		writeTempFile(t, dir, "c.jpg", "more bytes"),
	}

	pipeline := NewPipeline(api.New(srv.URL), nil, nil)
	result, err := pipeline.UploadBatch(context.Background(), paths, Options{Loc: time.UTC})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "b.txt", "error must name the failing file")
	assert.True(t, errors.Is(err, api.ErrServer))

	assert.Equal(t, 1, result.UploadedCount, "files before the failure stay uploaded")
	assert.Equal(t, []string{"item-1"}, result.ItemIDs)
	assert.Equal(t, []string{"a.jpg"}, srv.puts, "files after the failure are not attempted")
}

func TestUploadBatchCapturedAtOverride(t *testing.T) {
	srv := newUploadServer(t)
	dir := t.TempDir()
	path := writeTempFile(t, dir, "a.jpg", "jpeg bytes")

	captured := time.Date(2024, 3, 9, 18, 30, 0, 0, time.UTC)
	pipeline := NewPipeline(api.New(srv.URL), nil, nil)
	_, err := pipeline.UploadBatch(context.Background(), []string{path}, Options{
		Date:       timeline.DateKey("2024-03-09"),
		Loc:        time.UTC,
		CapturedAt: &captured,
		Override:   true,
	})
	require.NoError(t, err)

	require.Len(t, srv.ingests, 1)
	req := srv.ingests[0]
	require.NotNil(t, req.CapturedAt)
	assert.True(t, req.CapturedAt.Equal(captured))
	assert.True(t, req.CapturedAtOverride)
	assert.Equal(t, 0, req.TZOffsetMinutes)
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "image/jpeg", contentTypeFor("IMG_0042.JPG"))
	assert.Equal(t, "application/octet-stream", contentTypeFor("blob.unknownext"))
}
