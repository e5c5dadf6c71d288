package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/yegors/flight-kiosk/internal/geo"
	"github.com/yegors/flight-kiosk/pkg/logger"
)

const (
	DefaultBaseURL   = "https://data-cloud.flightradar24.com"
	DefaultTimeout   = 15 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	feedPath         = "/zones/fcgi/feed.js"
	maxBodyBytes     = 16 << 20
)

// ClientConfig configures a feed Client
type ClientConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	UserAgent         string
	Retry             RetryConfig
}

// Option customises a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLimiter replaces the request rate limiter
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// Client fetches positional flight data for a bounding box
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	timeout    time.Duration
	retry      RetryConfig
	limiter    *rate.Limiter
	logger     *logger.Logger
}

// parseError marks an answer that arrived but could not be decoded
type parseError struct {
	err error
}

func (e *parseError) Error() string { return e.err.Error() }
func (e *parseError) Unwrap() error { return e.err }

// NewClient creates a new feed client
func NewClient(cfg ClientConfig, log *logger.Logger, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Retry.Multiplier == 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		timeout:    cfg.Timeout,
		retry:      cfg.Retry,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     log.Named("feed-client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchBounds returns the feed records inside box. Every failure, including
// the overall timeout, wraps ErrUpstreamUnavailable.
func (c *Client) FetchBounds(ctx context.Context, box geo.Box) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := retryWithBackoff(ctx, c.retry, c.logger, func() (*Response, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return c.fetchOnce(ctx, box)
	})
	if err != nil {
		c.logger.Warn("Feed fetch failed",
			logger.String("bounds", box.String()),
			logger.Duration("elapsed", time.Since(start)),
			logger.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}

	c.logger.Debug("Fetched feed data",
		logger.String("bounds", box.String()),
		logger.Int("records", len(resp.Records)),
		logger.Int("skipped", resp.Skipped),
		logger.Int("full_count", resp.FullCount),
		logger.Duration("elapsed", time.Since(start)))

	return resp, nil
}

// FetchGlobal returns records for the whole globe, used for the most-tracked listing
func (c *Client) FetchGlobal(ctx context.Context) (*Response, error) {
	return c.FetchBounds(ctx, geo.World)
}

func (c *Client) requestURL(box geo.Box) string {
	q := url.Values{}
	q.Set("bounds", box.String())
	for _, k := range []string{"faa", "satellite", "mlat", "flarm", "adsb", "gnd", "air", "vehicles", "estimated", "gliders", "stats"} {
		q.Set(k, "1")
	}
	q.Set("maxage", "14400")
	q.Set("limit", "5000")
	return c.baseURL + feedPath + "?" + q.Encode()
}

func (c *Client) fetchOnce(ctx context.Context, box geo.Box) (*Response, error) {
	urlStr := c.requestURL(box)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &parseError{err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Origin", "https://www.flightradar24.com")
	req.Header.Set("Referer", "https://www.flightradar24.com/")

	c.logger.Debug("Fetching feed", logger.String("url", urlStr))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	data, err := Decode(body)
	if err != nil {
		return nil, &parseError{err: err}
	}
	return data, nil
}
