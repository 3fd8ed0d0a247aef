// Package httpjson issues rate-limited JSON GET requests on behalf of the
// metadata backends and classifies their failures.
package httpjson

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/starford/shelfmark/internal/apperr"
	"github.com/starford/shelfmark/internal/metrics"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Backend    string
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned %d: %s", e.Backend, e.Endpoint, e.StatusCode, e.Body)
}

// Unwrap lets callers match every status failure with apperr.ErrUnavailable.
func (e *StatusError) Unwrap() error { return apperr.ErrUnavailable }

// Client performs GET requests against one backend.
type Client struct {
	backend    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithMinInterval spaces consecutive requests at least d apart.
// Zero or negative disables limiting.
func WithMinInterval(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// New creates a Client labelled with backend for metrics and errors.
func New(backend string, opts ...Option) *Client {
	c := &Client{
		backend:    backend,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(250*time.Millisecond), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches rawURL with params and decodes the JSON body into out.
// endpoint is a low-cardinality label such as "search" or "details".
// Transport, status and decoding failures all match apperr.ErrUnavailable.
func (c *Client) Get(ctx context.Context, endpoint, rawURL string, params url.Values, out any) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse %s url: %w", c.backend, err)
	}
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)
	metrics.BackendRequestDuration.WithLabelValues(c.backend, endpoint).Observe(latency.Seconds())
	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues(c.backend, endpoint, "error").Inc()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s %s (latency=%v): %v: %w", c.backend, endpoint, latency, withoutURL(err), apperr.ErrUnavailable)
	}
	defer resp.Body.Close()

	metrics.BackendRequestsTotal.WithLabelValues(c.backend, endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Backend: c.backend, Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %v: %w", c.backend, endpoint, err, apperr.ErrUnavailable)
	}
	return nil
}

// withoutURL drops the request URL from a transport error. Backends pass
// their API keys as query parameters, and the error ends up in logs,
// history and API responses.
func withoutURL(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s: %w", ue.Op, ue.Err)
	}
	return err
}
