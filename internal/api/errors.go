package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for backend operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrServer indicates the backend rejected or failed the request.
	// The wrapped message carries the HTTP status and response body.
	ErrServer = errors.New("server error")
)

// statusError maps a non-2xx response to a sentinel-wrapped error.
// The response body is surfaced verbatim so the caller can show it.
func statusError(code int, status string, body []byte) error {
	if code >= 200 && code < 300 {
		return nil
	}
	if code == http.StatusNotFound {
		return fmt.Errorf("%w: %s - %s", ErrNotFound, status, string(body))
	}
	return fmt.Errorf("%w: %s - %s", ErrServer, status, string(body))
}
