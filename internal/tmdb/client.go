// Package tmdb is a client for the TMDB v3 metadata API covering the
// discovery, search, credits, listing and detail endpoints the app needs.
package tmdb

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/voyagen/wolfflix/internal/busy"
	"github.com/voyagen/wolfflix/internal/cache"
	"github.com/voyagen/wolfflix/internal/logging"
	"github.com/voyagen/wolfflix/internal/metrics"
)

const (
	DefaultBaseURL  = "https://api.themoviedb.org/3"
	imageBaseURL    = "https://image.tmdb.org/t/p"
	defaultLanguage = "en-US"
	defaultTimeout  = 15 * time.Second
	defaultAttempts = 3
	listTTL         = 10 * time.Minute
	detailTTL       = time.Hour
)

// ErrNotFound is returned when the provider answers 404.
var ErrNotFound = errors.New("tmdb: not found")

// StatusError is a non-2xx provider response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb API %d: %s", e.Code, e.Body)
}

func (e *StatusError) retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Options tune a Client. Zero values select defaults.
type Options struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	Rate       float64 // requests per second
	Attempts   uint
	RetryDelay time.Duration
	Cache      *cache.Redis // optional response cache
	Busy       *busy.Tracker
	HTTPClient *http.Client
}

// Client talks to the TMDB v3 API.
type Client struct {
	apiKey     string
	baseURL    string
	userAgent  string
	attempts   uint
	retryDelay time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]
	cache      *cache.Redis
	busy       *busy.Tracker
}

// NewClient creates a TMDB client authenticated with apiKey.
func NewClient(apiKey string, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Rate <= 0 {
		opts.Rate = 20
	}
	if opts.Attempts == 0 {
		opts.Attempts = defaultAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 200 * time.Millisecond
	}
	if opts.Busy == nil {
		opts.Busy = busy.Default
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}

	log := logging.Component("tmdb")
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "tmdb",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})

	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		userAgent:  opts.UserAgent,
		attempts:   opts.Attempts,
		retryDelay: opts.RetryDelay,
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(rate.Limit(opts.Rate), int(opts.Rate)+1),
		breaker:    breaker,
		cache:      opts.Cache,
		busy:       opts.Busy,
	}
}

// ThumbnailURL returns the w200 poster URL for path, or "" when path is empty.
func ThumbnailURL(path string) string {
	return ImageURL("w200", path)
}

// ImageURL returns the image URL for path at the given size, or "".
func ImageURL(size, path string) string {
	if path == "" {
		return ""
	}
	return imageBaseURL + "/" + size + path
}

// get performs a GET against path with params and returns the body.
// endpoint names the call for metrics and cache families.
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, ttl time.Duration) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}
	// The cache key excludes the API key.
	cacheKey := ""
	if c.cache != nil && ttl > 0 {
		h := sha256.Sum256([]byte(path + "?" + params.Encode()))
		cacheKey = fmt.Sprintf("tmdb:%s:%x", endpoint, h[:8])
		if data, ok := c.cache.GetBytes(ctx, "tmdb", cacheKey); ok {
			metrics.ProviderRequests.WithLabelValues(endpoint, "cached").Inc()
			return data, nil
		}
	}

	done := c.busy.Begin()
	defer done()

	start := time.Now()
	data, err := c.breaker.Execute(func() ([]byte, error) {
		return retry.DoWithData(
			func() ([]byte, error) { return c.do(ctx, path, params) },
			retry.Context(ctx),
			retry.Attempts(c.attempts),
			retry.Delay(c.retryDelay),
			retry.DelayType(retry.BackOffDelay),
			retry.LastErrorOnly(true),
			retry.RetryIf(isRetryable),
		)
	})
	metrics.ProviderDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		outcome := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "breaker_open"
		}
		metrics.ProviderRequests.WithLabelValues(endpoint, outcome).Inc()
		return nil, fmt.Errorf("tmdb %s: %w", endpoint, err)
	}
	metrics.ProviderRequests.WithLabelValues(endpoint, "ok").Inc()

	if cacheKey != "" {
		if err := c.cache.SetBytes(ctx, cacheKey, data, ttl); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("key", cacheKey).Msg("cache: set")
		}
	}
	return data, nil
}

func (c *Client) do(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	for k, vals := range params {
		q[k] = vals
	}
	q.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, &StatusError{Code: resp.StatusCode, Body: truncate(string(body), 200)}
	}
	return body, nil
}

func isRetryable(err error) bool {
	if errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.retryable()
	}
	return true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
