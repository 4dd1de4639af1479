// Package factors provides an HTTP client for the analytics service that scores
// the non-market grading factors (offense, pitching, situation, momentum).
package factors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/XavierBriggs/Delphi/pkg/contracts"
	"github.com/XavierBriggs/Delphi/pkg/models"
)

// ErrFactorsUnavailable means the analytics service has no scores for the event side
var ErrFactorsUnavailable = errors.New("factors unavailable")

// Config holds configuration for the factors client
type Config struct {
	BaseURL string // e.g., "http://localhost:5010"
	Timeout time.Duration
}

// Client fetches raw factor scores over HTTP
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ contracts.FactorProvider = (*Client)(nil)

// FactorsResponse is the analytics service's response body
type FactorsResponse struct {
	EventID string           `json:"event_id"`
	Side    models.Side      `json:"side"`
	Factors models.FactorSet `json:"factors"`
}

// NewClient creates a new factors client
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// IsEnabled reports whether a service URL is configured
func (c *Client) IsEnabled() bool {
	return c.baseURL != ""
}

// GetFactors returns the raw factor scores for one side of an event
func (c *Client) GetFactors(ctx context.Context, eventID string, side models.Side) (*models.FactorSet, error) {
	if !c.IsEnabled() {
		return nil, ErrFactorsUnavailable
	}

	endpoint := fmt.Sprintf("%s/v1/events/%s/factors?side=%s", c.baseURL, url.PathEscape(eventID), url.QueryEscape(string(side)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s %s: %w", eventID, side, ErrFactorsUnavailable)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("factors service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var factorsResp FactorsResponse
	if err := json.Unmarshal(body, &factorsResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if err := validate(factorsResp.Factors); err != nil {
		return nil, fmt.Errorf("%s %s: %w", eventID, side, err)
	}

	return &factorsResp.Factors, nil
}

// validate rejects scores outside the 0-100 scale
func validate(set models.FactorSet) error {
	for _, factor := range models.FactorTypes() {
		if v := set.Get(factor); v < 0 || v > 100 {
			return fmt.Errorf("factor %s out of range: %.2f", factor, v)
		}
	}
	return nil
}
