// Package http provides the outbound HTTP client used to download provider public keys.
package http

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"oss-callback/internal/circuitbreaker"
	"oss-callback/internal/common/errors"
)

// ClientConfig holds HTTP client configuration
type ClientConfig struct {
	Timeout             time.Duration
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
	MaxResponseBytes    int64
	Transport           http.RoundTripper
	Breaker             *circuitbreaker.GoBreakerAdapter
}

// DefaultClientConfig returns default HTTP client configuration
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:             10 * time.Second,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		MaxResponseBytes:    16 << 10,
	}
}

// ClientOption is a function that modifies ClientConfig
type ClientOption func(*ClientConfig)

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}

// WithMaxResponseBytes bounds how much of a response body is read
func WithMaxResponseBytes(max int64) ClientOption {
	return func(c *ClientConfig) {
		c.MaxResponseBytes = max
	}
}

// WithTransport sets a custom transport
func WithTransport(transport http.RoundTripper) ClientOption {
	return func(c *ClientConfig) {
		c.Transport = transport
	}
}

// WithCircuitBreaker routes every fetch through the breaker
func WithCircuitBreaker(breaker *circuitbreaker.GoBreakerAdapter) ClientOption {
	return func(c *ClientConfig) {
		c.Breaker = breaker
	}
}

// NewHTTPClient creates an *http.Client that never follows redirects.
// A redirect from an allow-listed host could otherwise send us anywhere.
func NewHTTPClient(cfg ClientConfig) *http.Client {
	transport := cfg.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        cfg.MaxIdleConns,
			MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
			IdleConnTimeout:     cfg.IdleConnTimeout,
			TLSHandshakeTimeout: cfg.Timeout,
		}
	}

	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Response is a fully read HTTP response
type Response struct {
	StatusCode int
	Status     string
	Body       []byte
}

// Fetcher retrieves the bytes behind a URL
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Response, error)
}

// Client is the default Fetcher
type Client struct {
	client   *http.Client
	maxBytes int64
	breaker  *circuitbreaker.GoBreakerAdapter
}

var _ Fetcher = (*Client)(nil)

// NewClient creates a new Fetcher with the given options
func NewClient(opts ...ClientOption) *Client {
	cfg := DefaultClientConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Client{
		client:   NewHTTPClient(cfg),
		maxBytes: cfg.MaxResponseBytes,
		breaker:  cfg.Breaker,
	}
}

// errUpstreamStatus marks a 5xx answer so the breaker counts it; the response is still returned.
var errUpstreamStatus = stderrors.New("upstream returned a server error")

// Fetch issues a GET and reads the whole body, bounded by the configured maximum.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	if c.breaker == nil {
		return c.fetch(ctx, rawURL)
	}

	var resp *Response
	err := c.breaker.Execute(ctx, func() error {
		r, err := c.fetch(ctx, rawURL)
		if err != nil {
			return err
		}
		resp = r
		if r.StatusCode >= http.StatusInternalServerError {
			return errUpstreamStatus
		}
		return nil
	})
	if stderrors.Is(err, errUpstreamStatus) {
		return resp, nil
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) fetch(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.ValidationError(fmt.Sprintf("invalid request URL: %v", err))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			timeoutErr := errors.TimeoutError("public key download")
			timeoutErr.Cause = err
			return nil, timeoutErr
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > c.maxBytes {
		return nil, errors.ValidationError(fmt.Sprintf("response body exceeds %d bytes", c.maxBytes))
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       body,
	}, nil
}

func isTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}
