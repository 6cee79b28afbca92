// Package client manages connections to a hosted PostgREST-style data
// gateway. A Connection is created by a successful authenticated probe and
// is the sole handle through which every other package issues requests;
// there is no global connection state.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/operator888/supactl/pkg/httputil"
	"go.uber.org/zap"
)

// restBasePath is the data-access root of the gateway. Every table is
// exposed as a resource directly under it.
const restBasePath = "/rest/v1"

// hostedProjectPattern matches hosted project endpoints
// (https://<ref>.supabase.co and regional variants).
var hostedProjectPattern = regexp.MustCompile(`^https://[a-z0-9-]+\.supabase\.(co|in|red)$`)

// Connection is an authenticated handle to one project. It is read-only
// after creation and safe for concurrent use.
type Connection struct {
	logger      *zap.Logger
	hostPattern *regexp.Regexp
	Endpoint    string
	DisplayName string
	apiKey      string
	restURL     string
	timeout     time.Duration
	retry       bool
}

// Option configures Connect.
type Option func(*Connection)

// WithDisplayName sets a human-readable label for the connection.
func WithDisplayName(name string) Option {
	return func(c *Connection) { c.DisplayName = name }
}

// WithLogger sets the logger used for request-level debug logging.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Connection) { c.logger = logger }
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Connection) { c.timeout = d }
}

// WithRetry toggles transparent retry of idempotent requests. Discovery
// probes against an unreachable host are faster with retries off.
func WithRetry(enabled bool) Option {
	return func(c *Connection) { c.retry = enabled }
}

// WithHostPattern replaces the endpoint validation pattern. Self-hosted
// gateways serve the same API from arbitrary domains; nil keeps the
// hosted-project default.
func WithHostPattern(re *regexp.Regexp) Option {
	return func(c *Connection) {
		if re != nil {
			c.hostPattern = re
		}
	}
}

// Connect validates the endpoint, probes the gateway root with the
// credential, and returns a Connection on success.
//
// The credential is passed through opaquely: it is sent as both the apikey
// header and a bearer Authorization header on every request, which is what
// the gateway expects for service and anon keys alike.
func Connect(ctx context.Context, endpoint, apiKey string, opts ...Option) (*Connection, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")

	c := &Connection{
		Endpoint:    endpoint,
		apiKey:      apiKey,
		restURL:     endpoint + restBasePath,
		timeout:     15 * time.Second,
		retry:       true,
		logger:      zap.NewNop(),
		hostPattern: hostedProjectPattern,
	}
	for _, opt := range opts {
		opt(c)
	}

	if _, err := url.Parse(endpoint); err != nil || !c.hostPattern.MatchString(endpoint) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, endpoint)
	}

	// Lightweight authenticated probe against the data root. Any non-2xx
	// means the credential was rejected; a transport failure means the
	// host is unreachable.
	if _, err := c.do(ctx, http.MethodGet, c.restURL+"/", nil, nil); err != nil {
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) {
			return nil, fmt.Errorf("%w: %s", ErrAuthFailed, statusErr.Error())
		}
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	c.logger.Info("connected",
		zap.String("endpoint", c.Endpoint),
		zap.String("display_name", c.DisplayName))
	return c, nil
}

// Disconnect discards the credential. No network call is required; the
// gateway is stateless per request.
func (c *Connection) Disconnect() {
	c.apiKey = ""
}

// RESTURL returns the data-access root URL.
func (c *Connection) RESTURL() string {
	return c.restURL
}

// TableURL returns the resource URL for a named table.
func (c *Connection) TableURL(table string) string {
	return c.restURL + "/" + url.PathEscape(table)
}

func (c *Connection) authHeaders() map[string][]string {
	return map[string][]string{
		"apikey":        {c.apiKey},
		"Authorization": {"Bearer " + c.apiKey},
	}
}

func (c *Connection) do(ctx context.Context, method, rawURL string, extra http.Header, payload any) (*httputil.Response, error) {
	cfg := httputil.DefaultRequestConfig(method, rawURL)
	cfg.Timeout = c.timeout
	cfg.RetryEnabled = cfg.RetryEnabled && c.retry
	cfg.Logger = c.logger
	cfg.Headers = c.authHeaders()
	for key, values := range extra {
		cfg.Headers[key] = append(cfg.Headers[key], values...)
	}
	return httputil.Request(ctx, cfg, payload)
}

// Get issues an authenticated GET against path (relative to the data root)
// with the given query parameters.
func (c *Connection) Get(ctx context.Context, path string, query url.Values) (*httputil.Response, error) {
	return c.do(ctx, http.MethodGet, c.buildURL(path, query), nil, nil)
}

// Head issues an authenticated HEAD request. extra headers (eg Prefer)
// are merged on top of the auth headers.
func (c *Connection) Head(ctx context.Context, path string, query url.Values, extra http.Header) (*httputil.Response, error) {
	return c.do(ctx, http.MethodHead, c.buildURL(path, query), extra, nil)
}

// Post issues an authenticated POST with a JSON payload.
func (c *Connection) Post(ctx context.Context, path string, query url.Values, extra http.Header, payload any) (*httputil.Response, error) {
	return c.do(ctx, http.MethodPost, c.buildURL(path, query), extra, payload)
}

// Patch issues an authenticated PATCH with a JSON payload.
func (c *Connection) Patch(ctx context.Context, path string, query url.Values, payload any) (*httputil.Response, error) {
	return c.do(ctx, http.MethodPatch, c.buildURL(path, query), nil, payload)
}

// Delete issues an authenticated DELETE.
func (c *Connection) Delete(ctx context.Context, path string, query url.Values) (*httputil.Response, error) {
	return c.do(ctx, http.MethodDelete, c.buildURL(path, query), nil, nil)
}

// RPC calls a database function exposed under /rpc.
func (c *Connection) RPC(ctx context.Context, fn string, args any) (*httputil.Response, error) {
	return c.do(ctx, http.MethodPost, c.restURL+"/rpc/"+url.PathEscape(fn), nil, args)
}

func (c *Connection) buildURL(path string, query url.Values) string {
	u := c.restURL + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}
