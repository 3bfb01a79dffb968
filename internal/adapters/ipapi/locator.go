// Package ipapi resolves an approximate client coordinate from its IP
// address using an ip-api.com style endpoint.
package ipapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kpetrou/villago/internal/core/domain"
)

// Client implements ports.Locator.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a locator client against the given base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

type lookupResponse struct {
	Status  string  `json:"status"` // "success" | "fail"
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Locate resolves the coordinate for an IP. Private and loopback addresses
// make the upstream respond with status "fail", which surfaces as an error
// here — the caller falls back to a reference city.
func (c *Client) Locate(ctx context.Context, ip string) (*domain.GeoPoint, error) {
	url := fmt.Sprintf("%s/json/%s?fields=status,message,lat,lon", c.baseURL, ip)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geolocation lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geolocation lookup: unexpected status %d", resp.StatusCode)
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode geolocation response: %w", err)
	}
	if body.Status != "success" {
		return nil, fmt.Errorf("geolocation denied: %s", body.Message)
	}

	pt := domain.GeoPoint{Lat: body.Lat, Lon: body.Lon}
	if !pt.Valid() {
		return nil, fmt.Errorf("geolocation returned implausible coordinate (%v,%v)", pt.Lat, pt.Lon)
	}
	return &pt, nil
}
