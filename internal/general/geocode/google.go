package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ride-share/internal/domain/geo"
	"ride-share/internal/ports"
)

// Google resolves addresses through the Google Geocoding API.
type Google struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewGoogle(baseURL, apiKey string) *Google {
	return &Google{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

var _ ports.Geocoder = (*Google)(nil)

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Resolve returns the first result's location.
func (g *Google) Resolve(ctx context.Context, address string) (geo.Point, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return geo.Point{}, fmt.Errorf("geocode: empty address")
	}
	if g.apiKey == "" {
		return geo.Point{}, fmt.Errorf("geocode: api key not configured")
	}

	q := url.Values{}
	q.Set("address", address)
	q.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return geo.Point{}, err
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return geo.Point{}, fmt.Errorf("geocode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return geo.Point{}, fmt.Errorf("geocode: status %d", resp.StatusCode)
	}

	var out geocodeResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return geo.Point{}, fmt.Errorf("geocode: decode: %w", err)
	}
	if out.Status != "OK" || len(out.Results) == 0 {
		return geo.Point{}, fmt.Errorf("geocode: %q not resolved (%s %s)", address, out.Status, out.ErrorMessage)
	}
	loc := out.Results[0].Geometry.Location
	return geo.NewPoint(loc.Lat, loc.Lng)
}
