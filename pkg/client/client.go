// Package client provides the HTTP client for WordPress REST listings with
// response caching, retry, and error classification.
package client

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
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wpbrowse/wp-listing-client/pkg/cache"
	"github.com/wpbrowse/wp-listing-client/pkg/pagination"
	"github.com/wpbrowse/wp-listing-client/pkg/resource"
)

// Prometheus metrics for listing requests.
var (
	wpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wp_requests_total",
		Help: "Total listing requests by endpoint and status",
	}, []string{"endpoint", "status"})

	wpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wp_request_duration_seconds",
		Help:    "Listing request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	wpErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wp_errors_total",
		Help: "Total listing errors by class",
	}, []string{"class"})
)

// BasePath is the REST route prefix every listing request goes through.
const BasePath = "/wp-json/wp/v2"

// Pagination response headers of the posts endpoint.
const (
	HeaderTotal      = "X-WP-Total"
	HeaderTotalPages = "X-WP-TotalPages"
)

// Client fetches listing pages from a WordPress site.
type Client struct {
	httpClient *http.Client
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the site root, e.g. "https://example.com".
	BaseURL string

	// UserAgent header sent on every request.
	UserAgent string

	// Redis enables response caching when set; nil disables it.
	Redis *redis.Client

	// Timeout for a single HTTP request.
	Timeout time.Duration

	// Retry controls backoff for transient failures.
	Retry RetryConfig
}

// DefaultConfig returns a safe default configuration for a site.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:   baseURL,
		UserAgent: "wp-listing-client/1.0",
		Timeout:   30 * time.Second,
		Retry:     DefaultRetryConfig(),
	}
}

// New creates a listing client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	logger := log.With().Str("component", "wp-client").Logger()

	var cacheManager *cache.Manager
	if cfg.Redis != nil {
		cacheManager = cache.NewManager(cfg.Redis)
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      cacheManager,
		config:     cfg,
		logger:     logger,
	}, nil
}

// Do performs a GET request with caching, retry, and error classification.
// It is the core request method; FetchList builds on it.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := req.URL.Path

	startTime := time.Now()
	defer func() {
		wpRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	var cachedEntry *cache.Entry
	cacheKey := cache.Key{Endpoint: endpoint, QueryParams: req.URL.Query()}
	if c.cache != nil {
		entry, err := c.cache.Get(ctx, cacheKey)
		if err != nil && err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
		cachedEntry = entry

		if cachedEntry != nil && cache.CanRevalidate(cachedEntry) {
			cache.AddConditionalHeaders(req, cachedEntry)
			cache.ConditionalRequests.Inc()
			c.logger.Debug().
				Str("endpoint", endpoint).
				Str("etag", cachedEntry.ETag).
				Msg("Making conditional request")
		}
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", req.Method).
		Msg("Executing listing request")

	var resp *http.Response
	retryErr := retryWithBackoff(ctx, c.config.Retry, func() error {
		var reqErr error
		resp, reqErr = c.httpClient.Do(req)
		if reqErr != nil {
			c.logger.Error().Err(reqErr).Str("endpoint", endpoint).Msg("HTTP request failed")
			wpErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			wpRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			return &FetchError{Class: ErrorClassNetwork, Message: "request failed", Err: reqErr}
		}

		if resp.StatusCode == http.StatusNotModified {
			return nil
		}

		if resp.StatusCode >= 400 {
			errClass := classifyStatus(resp.StatusCode)
			wpErrorsTotal.WithLabelValues(string(errClass)).Inc()
			wpRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", resp.StatusCode).
				Str("error_class", string(errClass)).
				Msg("Listing request error")

			fetchErr := &FetchError{
				StatusCode: resp.StatusCode,
				Class:      errClass,
				Message:    resp.Status,
			}
			if shouldRetry(errClass) {
				resp.Body.Close()
				return fetchErr
			}
			// 4xx: hand the error to the caller without retrying
			resp.Body.Close()
			resp = nil
			return fetchErr
		}

		wpRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
		return nil
	}, classify)

	if retryErr != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return nil, retryErr
	}

	if resp.StatusCode == http.StatusNotModified {
		c.logger.Debug().Str("endpoint", endpoint).Msg("304 Not Modified, serving cache")
		wpRequestsTotal.WithLabelValues(endpoint, "304").Inc()
		cache.NotModified.Inc()
		resp.Body.Close()
		if cachedEntry == nil {
			return nil, &FetchError{
				StatusCode: http.StatusNotModified,
				Class:      ErrorClassServer,
				Message:    "304 without cached entry",
			}
		}
		return cache.EntryToResponse(cachedEntry), nil
	}

	if c.cache != nil && resp.StatusCode == http.StatusOK {
		entry, err := cache.ResponseToEntry(resp)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Failed to create cache entry")
		} else if entry.TTL() > 0 {
			if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to cache response")
			} else {
				c.logger.Debug().
					Str("endpoint", endpoint).
					Dur("ttl", entry.TTL()).
					Msg("Cached response")
			}
		}
	}

	return resp, nil
}

// FetchList retrieves one page of a listing. The query arguments come from
// the query builder; context=embed and _embed=1 are always added so the
// response carries the embedded media and terms. Pagination totals come
// from the response headers.
func (c *Client) FetchList(ctx context.Context, resourceType string, args url.Values) ([]resource.RawItem, pagination.Data, error) {
	if resourceType == "" {
		return nil, pagination.Data{}, fmt.Errorf("resource type is required")
	}

	query := url.Values{}
	for name, values := range args {
		for _, value := range values {
			query.Add(name, value)
		}
	}
	query.Set("context", "embed")
	query.Set("_embed", "1")

	endpoint := BasePath + "/" + strings.Trim(resourceType, "/")
	target := strings.TrimRight(c.config.BaseURL, "/") + endpoint + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, pagination.Data{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, pagination.Data{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pagination.Data{}, &FetchError{
			Class:   ErrorClassNetwork,
			Message: "read response body",
			Err:     err,
		}
	}

	var items []resource.RawItem
	if err := json.Unmarshal(body, &items); err != nil {
		wpErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return nil, pagination.Data{}, &FetchError{
			StatusCode: resp.StatusCode,
			Class:      ErrorClassDecode,
			Message:    "response is not a JSON listing",
			Err:        err,
		}
	}

	data := parsePagination(resp.Header, c.logger)
	return items, data, nil
}

// parsePagination reads the paging totals from the response headers. Missing
// or malformed headers degrade to zero totals.
func parsePagination(headers http.Header, logger zerolog.Logger) pagination.Data {
	var data pagination.Data

	if totalStr := headers.Get(HeaderTotal); totalStr != "" {
		if total, err := strconv.Atoi(totalStr); err == nil {
			data.Total = total
		} else {
			logger.Warn().Str("value", totalStr).Msg("Malformed X-WP-Total header")
		}
	}
	if pagesStr := headers.Get(HeaderTotalPages); pagesStr != "" {
		if pages, err := strconv.Atoi(pagesStr); err == nil {
			data.TotalPages = pages
		} else {
			logger.Warn().Str("value", pagesStr).Msg("Malformed X-WP-TotalPages header")
		}
	}
	return data
}

// classifyStatus maps an HTTP status to an error class.
func classifyStatus(status int) ErrorClass {
	switch {
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// classify extracts the class from a classified error, defaulting to
// network for anything untyped.
func classify(err error) ErrorClass {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Class
	}
	return ErrorClassNetwork
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
