// Package api reads live markers from a tracking server over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/motoyard/yardmap/pkg/core"
)

// MarkersPath is the endpoint that lists the current markers.
const MarkersPath = "/api/v1/markers"

// maxBody bounds the marker list read from the server.
const maxBody = 8 << 20

// Client handles communication with the tracking server. It implements
// locator.MarkerSource.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
	return c.httpClient.Do(req)
}

// Healthcheck checks if the tracking server is reachable.
func (c *Client) Healthcheck(ctx context.Context) error {
	resp, err := c.get(ctx, "/healthcheck")
	if err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck returned status %d", resp.StatusCode)
	}
	return nil
}

// Markers fetches the current markers. Any zone id sent by the server is
// dropped; containment is always derived locally.
func (c *Client) Markers(ctx context.Context) ([]core.Marker, error) {
	resp, err := c.get(ctx, MarkersPath)
	if err != nil {
		return nil, fmt.Errorf("markers request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("markers returned status %d", resp.StatusCode)
	}

	var markers []core.Marker
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&markers); err != nil {
		return nil, fmt.Errorf("failed to decode markers: %w", err)
	}
	for i := range markers {
		markers[i].ZoneID = ""
	}
	return markers, nil
}
