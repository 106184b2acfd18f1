package costclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ride-share/internal/ports"
)

// Client calls the cost-calculation service for a booking's price ceiling.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a client; timeout bounds every Estimate call.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

var _ ports.QuoteSource = (*Client)(nil)

type calculateRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	NumRiders   int    `json:"num_riders"`
	TripID      string `json:"trip_id"`
}

type calculateResponse struct {
	Data struct {
		MaxPrice *float64 `json:"max_price"`
	} `json:"data"`
}

// Estimate posts to /cost/calculate and returns data.max_price.
func (c *Client) Estimate(ctx context.Context, req ports.QuoteRequest) (float64, error) {
	body, err := json.Marshal(calculateRequest{
		Origin:      req.Origin,
		Destination: req.Destination,
		NumRiders:   req.NumRiders,
		TripID:      req.TripID,
	})
	if err != nil {
		return 0, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/cost/calculate", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("cost service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("cost service: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out calculateResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return 0, fmt.Errorf("cost service: decode: %w", err)
	}
	if out.Data.MaxPrice == nil || *out.Data.MaxPrice <= 0 {
		return 0, fmt.Errorf("cost service: missing or non-positive max_price")
	}
	return *out.Data.MaxPrice, nil
}
