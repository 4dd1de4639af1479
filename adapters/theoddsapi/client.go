package theoddsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/XavierBriggs/Delphi/pkg/models"
)

const (
	baseURL    = "https://api.the-odds-api.com"
	apiVersion = "v4"
	userAgent  = "Delphi/1.0 (Fortuna Grading Engine)"
	timeout    = 10 * time.Second
	maxRetries = 3
	retryDelay = 2 * time.Second

	// reserveRequests is held back from polling so manual lookups still work
	reserveRequests = 5
)

// ErrQuotaExhausted is returned without calling the vendor once the remaining
// request quota reported by the last response is at or below the reserve
var ErrQuotaExhausted = errors.New("odds api quota exhausted")

// Client talks to The Odds API
type Client struct {
	apiKey     string
	baseURL    string
	retryDelay time.Duration
	reserve    int
	httpClient *http.Client
	now        func() time.Time

	mu     sync.RWMutex
	limits models.RateLimits
}

// NewClient creates a new The Odds API client
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		retryDelay: retryDelay,
		reserve:    reserveRequests,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
		limits:     models.RateLimits{RequestsRemaining: 500}, // free tier until the first response says otherwise
	}
}

// SetBaseURL points the client at another host (tests, proxies)
func (c *Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimRight(u, "/")
}

// SupportsMarket reports whether odds for the market can be turned into quotes.
// Grading is moneyline only.
func (c *Client) SupportsMarket(market string) bool {
	return models.MarketType(market) == models.MarketMoneyline
}

// GetRateLimits returns a snapshot of the quota reported by the last response
func (c *Client) GetRateLimits() models.RateLimits {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.limits
}

// FetchEventOdds retrieves h2h odds for a single event
func (c *Client) FetchEventOdds(ctx context.Context, opts *models.FetchEventOddsOptions) (*models.FetchResult, error) {
	markets := opts.Markets
	if len(markets) == 0 {
		markets = []string{string(models.MarketMoneyline)}
	}
	for _, m := range markets {
		if !c.SupportsMarket(m) {
			return nil, fmt.Errorf("market %q is not supported", m)
		}
	}

	params := url.Values{}
	params.Set("regions", strings.Join(opts.Regions, ","))
	params.Set("markets", strings.Join(markets, ","))
	params.Set("oddsFormat", "american")

	var resp oddsResponse
	path := fmt.Sprintf("sports/%s/events/%s/odds", opts.Sport, opts.EventID)
	if err := c.get(ctx, path, params, &resp); err != nil {
		return nil, fmt.Errorf("fetch event odds: %w", err)
	}

	return resp.toFetchResult(c.now()), nil
}

// FetchEvents lists a sport's upcoming events without odds. Events with an
// unparseable commence time are skipped.
func (c *Client) FetchEvents(ctx context.Context, sport string) ([]models.Event, error) {
	var resp []eventResponse
	if err := c.get(ctx, fmt.Sprintf("sports/%s/events", sport), url.Values{}, &resp); err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}

	now := c.now()
	events := make([]models.Event, 0, len(resp))
	for _, evt := range resp {
		if event, ok := evt.toEvent(now); ok {
			events = append(events, event)
		}
	}
	return events, nil
}

// get calls {base}/v4/{path} and decodes the JSON body into out
func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if remaining := c.GetRateLimits().RequestsRemaining; remaining <= c.reserve {
		return fmt.Errorf("%w: %d requests left", ErrQuotaExhausted, remaining)
	}

	params.Set("apiKey", c.apiKey)
	params.Set("dateFormat", "iso")
	fullURL := fmt.Sprintf("%s/%s/%s?%s", c.baseURL, apiVersion, path, params.Encode())

	body, err := c.doRequestWithRetry(ctx, fullURL)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// doRequestWithRetry retries server errors and 429s with exponential backoff
func (c *Client) doRequestWithRetry(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay << uint(attempt-1)):
			}
		}

		body, err := c.doRequest(ctx, fullURL)
		if err == nil {
			return body, nil
		}
		if !retryable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	c.recordQuota(resp.Header)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &httpError{StatusCode: resp.StatusCode, Message: string(body)}
	}
	return body, nil
}

// recordQuota keeps the x-requests-* headers of the latest response
func (c *Client) recordQuota(headers http.Header) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if val, err := strconv.Atoi(headers.Get("x-requests-remaining")); err == nil {
		c.limits.RequestsRemaining = val
	}
	if val, err := strconv.Atoi(headers.Get("x-requests-used")); err == nil {
		c.limits.RequestsUsed = val
	}
}

// retryable is true for transport failures, 429 and 5xx
func retryable(err error) bool {
	var httpErr *httpError
	if !errors.As(err, &httpErr) {
		return true
	}
	return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
}

type httpError struct {
	StatusCode int
	Message    string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

type eventResponse struct {
	ID           string `json:"id"`
	SportKey     string `json:"sport_key"`
	CommenceTime string `json:"commence_time"`
	HomeTeam     string `json:"home_team"`
	AwayTeam     string `json:"away_team"`
}

// toEvent reports false when the commence time cannot be parsed
func (e eventResponse) toEvent(now time.Time) (models.Event, bool) {
	commence, err := time.Parse(time.RFC3339, e.CommenceTime)
	if err != nil {
		return models.Event{}, false
	}

	status := models.StatusScheduled
	if now.After(commence) {
		status = models.StatusLive
	}

	return models.Event{
		EventID:      e.ID,
		SportKey:     e.SportKey,
		HomeTeam:     e.HomeTeam,
		AwayTeam:     e.AwayTeam,
		CommenceTime: commence,
		EventStatus:  status,
	}, true
}

type oddsResponse struct {
	eventResponse
	Bookmakers []struct {
		Key        string `json:"key"`
		LastUpdate string `json:"last_update"`
		Markets    []struct {
			Key      string `json:"key"`
			Outcomes []struct {
				Name  string `json:"name"`
				Price int    `json:"price"`
			} `json:"outcomes"`
		} `json:"markets"`
	} `json:"bookmakers"`
}

// toFetchResult flattens h2h outcomes into RawOdds; other markets are ignored
func (r oddsResponse) toFetchResult(receivedAt time.Time) *models.FetchResult {
	result := &models.FetchResult{}

	if event, ok := r.toEvent(receivedAt); ok {
		result.Events = append(result.Events, event)
	}

	for _, book := range r.Bookmakers {
		updated, err := time.Parse(time.RFC3339, book.LastUpdate)
		if err != nil {
			updated = receivedAt
		}

		for _, market := range book.Markets {
			if market.Key != string(models.MarketMoneyline) {
				continue
			}
			for _, outcome := range market.Outcomes {
				result.Odds = append(result.Odds, models.RawOdds{
					EventID:          r.ID,
					SportKey:         r.SportKey,
					MarketKey:        market.Key,
					BookKey:          book.Key,
					OutcomeName:      outcome.Name,
					Price:            outcome.Price,
					VendorLastUpdate: updated,
					ReceivedAt:       receivedAt,
				})
			}
		}
	}

	return result
}
