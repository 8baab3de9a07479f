// Package googlemaps implements domain.Geocoder with the Google Geocoding API.
package googlemaps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/crossroads-etl-service/internal/domain"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

// Client implements domain.Geocoder using the Google Geocoding API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a Google geocoding client.
func NewClient(apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: defaultBaseURL,
		logger:  logger,
	}
}

// Geocode resolves an address to the best match's location. A ZERO_RESULTS
// answer is reported as domain.ErrNoResults.
func (c *Client) Geocode(ctx context.Context, address string) (domain.Point, error) {
	params := url.Values{
		"address": {address},
		"key":     {c.apiKey},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.Point{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Point{}, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.Point{}, fmt.Errorf("google geocoding API error: status %d: %s", resp.StatusCode, body)
	}

	var gr response
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return domain.Point{}, fmt.Errorf("decode response: %w", err)
	}

	switch gr.Status {
	case statusOK:
		if len(gr.Results) == 0 {
			return domain.Point{}, domain.ErrNoResults
		}
	case statusZeroResults:
		return domain.Point{}, domain.ErrNoResults
	default:
		return domain.Point{}, fmt.Errorf("google geocoding API error: %s: %s", gr.Status, gr.ErrorMessage)
	}

	loc := gr.Results[0].Geometry.Location
	c.logger.Debug("geocoded address",
		"address", address,
		"formatted_address", gr.Results[0].FormattedAddress,
		"lat", loc.Lat,
		"lng", loc.Lng,
	)
	return domain.Point{Lat: loc.Lat, Lng: loc.Lng}, nil
}

// Google Geocoding API response types.

const (
	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
)

type response struct {
	Status       string   `json:"status"`
	ErrorMessage string   `json:"error_message,omitempty"`
	Results      []result `json:"results"`
}

type result struct {
	FormattedAddress string   `json:"formatted_address"`
	Geometry         geometry `json:"geometry"`
}

type geometry struct {
	Location location `json:"location"`
}

type location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
