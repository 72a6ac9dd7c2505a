// Package client provides the core Unsplash HTTP client with quota tracking,
// response caching, and error classification.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/unsplash-client/pkg/cache"
	"github.com/Sternrassler/unsplash-client/pkg/ratelimit"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unsplash_requests_total",
		Help: "Total Unsplash API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "unsplash_request_duration_seconds",
		Help:    "Unsplash API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unsplash_errors_total",
		Help: "Total Unsplash API errors by class",
	}, []string{"class"})
)

const (
	// DefaultBaseURL is the public Unsplash API.
	DefaultBaseURL = "https://api.unsplash.com"

	// APIVersion is sent in the Accept-Version header.
	APIVersion = "v1"

	// maxErrorBody caps how much of an error response is read.
	maxErrorBody = 64 << 10
)

// Client is the Unsplash API client.
type Client struct {
	httpClient  *http.Client
	baseURL     *url.URL
	rateLimiter *ratelimit.Tracker
	cache       *cache.Manager
	config      Config
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the API (default DefaultBaseURL)
	BaseURL string

	// AccessKey is the application access key (REQUIRED)
	AccessKey string

	// UserToken is an optional OAuth bearer token of a logged-in user.
	// When set it replaces the Client-ID authorization.
	UserToken string

	// UserAgent header
	UserAgent string

	// Timeout per request
	Timeout time.Duration

	// Redis enables response caching and shared quota tracking. Optional.
	Redis *redis.Client

	// Scope separates cached user-specific responses (usually the username).
	Scope string

	// HTTPClient overrides the transport (for testing).
	HTTPClient *http.Client
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(accessKey string) Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		AccessKey: accessKey,
		UserAgent: "unsplash-client/0.1.0",
		Timeout:   30 * time.Second,
	}
}

// New creates a new Unsplash client.
func New(cfg Config) (*Client, error) {
	if cfg.AccessKey == "" {
		return nil, fmt.Errorf("access key is required")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	baseURL, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}

	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must be >= 0 (got %s)", cfg.Timeout)
	}

	logger := log.With().Str("component", "unsplash-client").Logger()

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	c := &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		config:     cfg,
		logger:     logger,
	}

	if cfg.Redis != nil {
		c.rateLimiter = ratelimit.NewTracker(cfg.Redis, logger)
		c.cache = cache.NewManager(cfg.Redis)
	}

	return c, nil
}

// Endpoint identifies one API call.
type Endpoint struct {
	// Route is the path template used as metrics label, e.g. "/users/{username}/photos".
	Route string

	// Path is the concrete request path.
	Path string

	// Query parameters.
	Query url.Values
}

func (e Endpoint) label() string {
	if e.Route != "" {
		return e.Route
	}
	return e.Path
}

// Get performs a GET request against an API endpoint.
func (c *Client) Get(ctx context.Context, ep Endpoint) (*http.Response, error) {
	// ep.Path is already escaped; JoinPath keeps escaped segments intact.
	u := c.baseURL.JoinPath(strings.TrimLeft(ep.Path, "/"))
	if len(ep.Query) > 0 {
		u.RawQuery = ep.Query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return c.do(req, ep.label())
}

// GetJSON performs a GET request and decodes the JSON body into out.
// It returns the response headers (pagination totals live there).
// A 2xx response without a body yields ErrEmptyBody.
func (c *Client) GetJSON(ctx context.Context, ep Endpoint, out any) (http.Header, error) {
	resp, err := c.Get(ctx, ep)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, &NetworkError{Endpoint: ep.label(), Timeout: isTimeout(err), Err: fmt.Errorf("read body: %w", err)}
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		errorsTotal.WithLabelValues(string(ErrorClassEmptyBody)).Inc()
		c.logger.Warn().
			Str("endpoint", ep.label()).
			Int("status", resp.StatusCode).
			Msg("Successful response without body")
		return nil, fmt.Errorf("%w: %s", ErrEmptyBody, ep.label())
	}

	if err := json.Unmarshal(trimmed, out); err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassUnknown)).Inc()
		return nil, fmt.Errorf("decode %s: %w", ep.label(), err)
	}

	return resp.Header, nil
}

// Do performs an HTTP request with quota gating, caching, and error
// classification. Non-2xx responses are returned as *APIError with the body
// consumed; transport failures as *NetworkError. There is no automatic retry.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.do(req, req.URL.Path)
}

func (c *Client) do(req *http.Request, endpoint string) (*http.Response, error) {
	ctx := req.Context()
	requestID := uuid.NewString()
	logger := c.logger.With().
		Str("endpoint", endpoint).
		Str("request_id", requestID).
		Logger()

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Quota gate (fails open when Redis is unavailable)
	if c.rateLimiter != nil {
		allowed, err := c.rateLimiter.ShouldAllowRequest(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			logger.Warn().Err(err).Msg("Quota check failed, sending request anyway")
		case !allowed:
			requestsTotal.WithLabelValues(endpoint, "rate_limited").Inc()
			errorsTotal.WithLabelValues(string(ErrorClassRateLimit)).Inc()
			return nil, fmt.Errorf("%w: %s", ErrRateLimited, endpoint)
		}
	}

	// Step 2: Cache lookup
	var cacheKey cache.CacheKey
	var cached *cache.CacheEntry
	cacheable := c.cache != nil && req.Method == http.MethodGet
	if cacheable {
		cacheKey = cache.CacheKey{
			Endpoint:    req.URL.Path,
			QueryParams: req.URL.Query(),
			Scope:       c.config.Scope,
		}

		entry, err := c.cache.Get(ctx, cacheKey)
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			logger.Warn().Err(err).Msg("Cache get error")
		}
		cached = entry

		if cached != nil && !cached.IsExpired() {
			logger.Debug().Dur("ttl", cached.TTL()).Msg("Serving fresh cache entry")
			requestsTotal.WithLabelValues(endpoint, "cached").Inc()
			return cache.EntryToResponse(cached, req), nil
		}

		// Step 3: Revalidate stale entries
		if cache.ShouldMakeConditionalRequest(cached) {
			cache.AddConditionalHeaders(req, cached)
			cache.ConditionalRequestsSent.Inc()
			logger.Debug().Str("etag", cached.ETag).Msg("Making conditional request")
		}
	}

	// Step 4: Headers
	c.setHeaders(req, requestID)

	// Step 5: Execute (single attempt)
	logger.Debug().Str("method", req.Method).Msg("Executing Unsplash request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			requestsTotal.WithLabelValues(endpoint, "canceled").Inc()
			return nil, err
		}
		netErr := &NetworkError{Endpoint: endpoint, Timeout: isTimeout(err), Err: err}
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		logger.Error().Err(err).Bool("timeout", netErr.Timeout).Msg("HTTP request failed")
		return nil, netErr
	}

	// Step 6: Quota update
	if c.rateLimiter != nil {
		if err := c.rateLimiter.UpdateFromHeaders(ctx, resp.Header); err != nil {
			logger.Warn().Err(err).Msg("Failed to update quota from headers")
		}
	}

	status := strconv.Itoa(resp.StatusCode)

	// Step 7: 304 Not Modified
	if resp.StatusCode == http.StatusNotModified && cached != nil {
		resp.Body.Close()
		requestsTotal.WithLabelValues(endpoint, status).Inc()
		cache.NotModifiedResponses.Inc()
		logger.Debug().Msg("304 Not Modified - using cache")

		if err := c.cache.UpdateTTL(ctx, cacheKey, cache.ParseExpires(resp.Header)); err != nil {
			logger.Warn().Err(err).Msg("Failed to update cache TTL")
		}
		return cache.EntryToResponse(cached, req), nil
	}

	// Step 8: Error statuses
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()

		errClass := classifyStatus(resp.StatusCode)
		errorsTotal.WithLabelValues(string(errClass)).Inc()
		requestsTotal.WithLabelValues(endpoint, status).Inc()

		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Message:    resp.Status,
			Errors:     parseErrorEnvelope(body),
		}

		logger.Warn().
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Strs("errors", apiErr.Errors).
			Msg("Unsplash request error")

		return nil, apiErr
	}

	requestsTotal.WithLabelValues(endpoint, status).Inc()

	// Step 9: Cache store
	if cacheable && cache.Cacheable(resp) {
		entry, err := cache.ResponseToEntry(resp)
		if errors.Is(err, cache.ErrUncacheableBody) {
			logger.Debug().Msg("Response body not cached")
		} else if err != nil {
			logger.Warn().Err(err).Msg("Failed to create cache entry")
		} else if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
			logger.Warn().Err(err).Msg("Failed to cache response")
		} else {
			logger.Debug().Dur("ttl", entry.TTL()).Msg("Cached response")
		}
	}

	return resp, nil
}

func (c *Client) setHeaders(req *http.Request, requestID string) {
	if c.config.UserToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.UserToken)
	} else {
		req.Header.Set("Authorization", "Client-ID "+c.config.AccessKey)
	}
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Version", APIVersion)
	req.Header.Set("X-Request-Id", requestID)
}

// Ping checks the Redis backend used for caching. It is a no-op without Redis.
func (c *Client) Ping(ctx context.Context) error {
	if c.config.Redis == nil {
		return nil
	}
	return c.config.Redis.Ping(ctx).Err()
}

// Close releases idle HTTP connections. The Redis client belongs to the caller.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
