package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "MedGuide/1.0"
	DefaultTimeout   = 5 * time.Second
	// DefaultRateLimit follows the OSM usage policy of one request per second.
	DefaultRateLimit = rate.Limit(1.0)
	MaxRetries       = 2
	RetryBaseDelay   = 1 * time.Second
)

// Client is a rate-limited Nominatim search client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
	retryDelay time.Duration
	logger     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithRateLimit sets the request rate in requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		c.retryDelay = d
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for baseURL. email is put in the User-Agent as the
// OSM usage policy asks for a contact.
func NewClient(baseURL, email string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	userAgent := DefaultUserAgent
	if email != "" {
		userAgent = fmt.Sprintf("%s (%s)", DefaultUserAgent, email)
	}

	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		limiter:    rate.NewLimiter(DefaultRateLimit, 1),
		retryDelay: RetryBaseDelay,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search runs a free-text search such as "pharmacy".
func (c *Client) Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")
	if opts.CountryCodes != "" {
		params.Set("countrycodes", opts.CountryCodes)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 1
	}
	if limit > 50 {
		limit = 50
	}
	params.Set("limit", strconv.Itoa(limit))

	if opts.Viewbox != nil {
		params.Set("viewbox", fmt.Sprintf("%f,%f,%f,%f",
			opts.Viewbox.MinLon, opts.Viewbox.MaxLat,
			opts.Viewbox.MaxLon, opts.Viewbox.MinLat))
		params.Set("bounded", "1")
	}

	var results []SearchResult
	if err := c.doWithRetry(ctx, c.baseURL+"/search?"+params.Encode(), &results); err != nil {
		return nil, fmt.Errorf("nominatim search: %w", err)
	}
	return results, nil
}

// doWithRetry GETs requestURL, retrying network errors, 429 and 5xx with exponential backoff.
func (c *Client) doWithRetry(ctx context.Context, requestURL string, result interface{}) error {
	var lastErr error

	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<uint(attempt-1))
			c.logger.WarnContext(ctx, "Retrying Nominatim request",
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
				slog.Any("error", lastErr))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("server error (%d)", resp.StatusCode)
			continue
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
		}

		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("parse json: %w", err)
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
