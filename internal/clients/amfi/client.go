// Package amfi provides a client for the AMFI NAVAll feed
package amfi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/fundwatch/internal/common"
	"github.com/bobmcallan/fundwatch/internal/interfaces"
)

const (
	DefaultFeedURL   = "https://www.amfiindia.com/spages/NAVAll.txt"
	DefaultTimeout   = 120 * time.Second
	DefaultRateLimit = 1 // requests per second
)

// Client implements the AMFIClient interface
type Client struct {
	feedURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithFeedURL sets the feed URL
func WithFeedURL(feedURL string) ClientOption {
	return func(c *Client) {
		c.feedURL = feedURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new AMFI feed client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		feedURL: DefaultFeedURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents a feed fetch error
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("AMFI feed error: %s (status: %d, url: %s)", e.Message, e.StatusCode, e.URL)
}

// FetchNavFeed downloads the full NAVAll feed as plain text
func (c *Client) FetchNavFeed(ctx context.Context) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/plain")

	c.logger.Debug().Str("url", c.feedURL).Msg("AMFI feed request")
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			URL:        c.feedURL,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read feed body: %w", err)
	}

	c.logger.Debug().
		Int("bytes", len(body)).
		Dur("duration", time.Since(start)).
		Msg("AMFI feed downloaded")

	return string(body), nil
}

// Ensure Client implements AMFIClient
var _ interfaces.AMFIClient = (*Client)(nil)
