// Package gateway is the HTTP client for the Gateway's realtime endpoints.
//
// The stream connection is long lived, so the client carries dial, TLS and
// response header timeouts but no whole-request timeout. Idle detection on an
// open stream is the caller's job.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultStreamPath is the Gateway's message stream endpoint.
	DefaultStreamPath = "/api/v1/messages/stream"

	// HealthPath is the Gateway's liveness endpoint.
	HealthPath = "/health"

	// TenantQueryParam names the tenant on the stream request.
	TenantQueryParam = "tenant_id"

	defaultDialTimeout           = 10 * time.Second
	defaultTLSHandshakeTimeout   = 10 * time.Second
	defaultResponseHeaderTimeout = 30 * time.Second
	defaultHealthTimeout         = 5 * time.Second

	maxHealthBody = 4 << 10
)

var (
	// ErrBaseURL is returned for a base URL that is not absolute http(s).
	ErrBaseURL = errors.New("gateway base URL must be an absolute http or https URL")
)

// streamHeaders are set on every stream request.
var streamHeaders = map[string]string{
	"Accept":        "text/event-stream",
	"Cache-Control": "no-cache",
	"Connection":    "keep-alive",
}

// Client talks to a single Gateway.
type Client struct {
	base *url.URL
	http *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// ParseBaseURL parses and validates a Gateway base URL.
func ParseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBaseURL, err)
	}
	if err := validateBaseURL(u); err != nil {
		return nil, err
	}
	return u, nil
}

func validateBaseURL(u *url.URL) error {
	if u == nil || !u.IsAbs() || u.Host == "" {
		return ErrBaseURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrBaseURL
	}
	return nil
}

// NewClient creates a Client for base.
func NewClient(base *url.URL, opts ...Option) (*Client, error) {
	if err := validateBaseURL(base); err != nil {
		return nil, err
	}

	c := &Client{
		base: base,
		http: &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   defaultDialTimeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   defaultTLSHandshakeTimeout,
				ResponseHeaderTimeout: defaultResponseHeaderTimeout,
				ForceAttemptHTTP2:     true,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// BaseURL returns the Gateway base URL.
func (c *Client) BaseURL() *url.URL {
	return c.base
}

// StreamURL resolves path against the base URL and adds the tenant query.
func (c *Client) StreamURL(path, tenantID string) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	u.RawPath = ""

	q := u.Query()
	q.Set(TenantQueryParam, tenantID)
	u.RawQuery = q.Encode()

	return u.String()
}

// StreamRequest builds the GET request that opens a tenant's event stream.
func (c *Client) StreamRequest(ctx context.Context, path, tenantID string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.StreamURL(path, tenantID), nil)
	if err != nil {
		return nil, fmt.Errorf("building stream request: %w", err)
	}

	for k, v := range streamHeaders {
		req.Header.Set(k, v)
	}

	return req, nil
}

// Do sends req with the client's transport.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.http.Do(req)
}

// HealthStatus is the result of a Gateway health check.
type HealthStatus struct {
	StatusCode int
	Healthy    bool
	Body       string
}

// Health requests GET {base}/health. A transport error is returned as an error;
// any HTTP response, healthy or not, is returned as a HealthStatus.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultHealthTimeout)
	defer cancel()

	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + HealthPath
	u.RawQuery = ""

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building health request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("checking gateway health: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxHealthBody))
	if err != nil {
		return nil, fmt.Errorf("reading health response: %w", err)
	}

	return &HealthStatus{
		StatusCode: resp.StatusCode,
		Healthy:    resp.StatusCode >= 200 && resp.StatusCode < 300,
		Body:       strings.TrimSpace(string(body)),
	}, nil
}

// IsEventStream reports whether a Content-Type is compatible with
// text/event-stream. An absent Content-Type is accepted.
func IsEventStream(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, _ := strings.Cut(contentType, ";")
	return strings.EqualFold(strings.TrimSpace(mediaType), "text/event-stream")
}
