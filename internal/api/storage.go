package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// UploadURLRequest asks the backend to issue a signed upload URL scoped
// by filename, content type, and the zoned date path the object belongs
// under.
type UploadURLRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	DatePath    string `json:"date_path"`
}

// UploadURLResponse carries the signed URL and the headers the storage
// backend requires on the PUT.
type UploadURLResponse struct {
	URL       string            `json:"url"`
	Headers   map[string]string `json:"headers,omitempty"`
	ObjectKey string            `json:"object_key"`
}

// CreateUploadURL requests a signed upload URL.
func (c *Client) CreateUploadURL(ctx context.Context, req UploadURLRequest) (*UploadURLResponse, error) {
	var result UploadURLResponse
	if err := c.do(ctx, "POST", "/storage/upload-url", nil, req, &result); err != nil {
		return nil, fmt.Errorf("create upload url: %w", err)
	}
	return &result, nil
}

// PutObject streams raw bytes to a signed URL with the server-specified
// headers. A non-2xx response fails with the response body surfaced in
// the error.
func (c *Client) PutObject(ctx context.Context, signedURL string, headers map[string]string, content io.Reader, size int64) error {
	req, err := http.NewRequestWithContext(ctx, "PUT", signedURL, content)
	if err != nil {
		return fmt.Errorf("create upload request: %w", err)
	}
	if size >= 0 {
		req.ContentLength = size
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload object: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read upload response: %w", err)
	}
	if err := statusError(resp.StatusCode, resp.Status, body); err != nil {
		return fmt.Errorf("upload object: %w", err)
	}
	return nil
}

// IngestRequest registers an uploaded object as a timeline item.
type IngestRequest struct {
	ObjectKey          string     `json:"object_key"`
	Filename           string     `json:"filename"`
	ContentType        string     `json:"content_type"`
	DurationSeconds    *float64   `json:"duration_seconds,omitempty"`
	CapturedAt         *time.Time `json:"captured_at,omitempty"`
	CapturedAtOverride bool       `json:"captured_at_override,omitempty"`
	TZOffsetMinutes    int        `json:"tz_offset_minutes"`
	BatchID            string     `json:"batch_id,omitempty"`
}

// IngestResponse identifies the created item, which starts in the
// processing state.
type IngestResponse struct {
	ItemID string `json:"item_id"`
	Status string `json:"status"`
}

// Ingest registers an uploaded object for server-side processing.
func (c *Client) Ingest(ctx context.Context, req IngestRequest) (*IngestResponse, error) {
	var result IngestResponse
	if err := c.do(ctx, "POST", "/upload/ingest", nil, req, &result); err != nil {
		return nil, fmt.Errorf("ingest %s: %w", req.Filename, err)
	}
	return &result, nil
}
