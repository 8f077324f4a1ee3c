package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Search queries the backend's full-text/semantic index.
func (c *Client) Search(ctx context.Context, q string, limit int) ([]SearchResult, error) {
	query := url.Values{}
	query.Set("q", q)
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var result struct {
		Results []SearchResult `json:"results"`
	}
	if err := c.do(ctx, "GET", "/search", query, nil, &result); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return result.Results, nil
}

// IntegrationsStatus reports the state of connected external sources.
func (c *Client) IntegrationsStatus(ctx context.Context) ([]IntegrationStatus, error) {
	var result struct {
		Integrations []IntegrationStatus `json:"integrations"`
	}
	if err := c.do(ctx, "GET", "/integrations/status", nil, nil, &result); err != nil {
		return nil, fmt.Errorf("fetch integrations status: %w", err)
	}
	return result.Integrations, nil
}
