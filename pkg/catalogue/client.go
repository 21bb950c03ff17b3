package catalogue

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	errs "cdli/pkg/errors"
	"cdli/pkg/logger"
	"cdli/pkg/progress"
	"cdli/pkg/ratelimit"
	"cdli/pkg/retry"
	"cdli/pkg/session"
)

const (
	// DefaultMaxRetries is how often a gateway timeout is retried
	DefaultMaxRetries = 3
	// DefaultRetryBackoff is the fixed wait before each retry
	DefaultRetryBackoff = 500 * time.Millisecond
)

// Client talks to one catalogue host. It is safe for concurrent use; all
// requests share the same session.
type Client struct {
	base         *url.URL
	httpClient   *http.Client
	authClient   *http.Client
	session      *session.Store
	listener     progress.Listener
	limiter      ratelimit.Limiter
	logger       logger.Logger
	userAgent    string
	maxRetries   int
	backoff      retry.BackoffStrategy
	retryNetwork bool
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for all requests
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout. The current HTTP client is
// copied first, so a client passed to WithHTTPClient is never modified.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = timeout
		c.httpClient = &hc
	}
}

// WithSession shares an existing session store
func WithSession(s *session.Store) Option {
	return func(c *Client) { c.session = s }
}

// WithListener receives page walker state events
func WithListener(l progress.Listener) Option {
	return func(c *Client) { c.listener = l }
}

// WithLimiter throttles page requests
func WithLimiter(l ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithMaxRetries sets how often a gateway timeout is retried
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithRetryBackoff sets the wait between retries
func WithRetryBackoff(b retry.BackoffStrategy) Option {
	return func(c *Client) { c.backoff = b }
}

// WithRetryNetworkErrors controls whether transport failures share the
// gateway timeout retry budget
func WithRetryNetworkErrors(enabled bool) Option {
	return func(c *Client) { c.retryNetwork = enabled }
}

// New creates a client for host. The base URL always ends in "/" so that
// collection paths resolve below it.
func New(host string, opts ...Option) (*Client, error) {
	base, err := url.Parse(host)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, errs.Input(fmt.Sprintf("invalid host %q", host))
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	c := &Client{
		base:         base,
		httpClient:   &http.Client{Timeout: 5 * time.Minute},
		session:      session.New(),
		listener:     progress.Nop,
		limiter:      ratelimit.Unlimited{},
		logger:       logger.GetLogger(),
		userAgent:    "cdli-go",
		maxRetries:   DefaultMaxRetries,
		backoff:      &retry.ConstantBackoff{Delay: DefaultRetryBackoff},
		retryNetwork: true,
	}

	for _, opt := range opts {
		opt(c)
	}

	auth := *c.httpClient
	auth.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	c.authClient = &auth

	return c, nil
}

// Base returns the normalized base URL
func (c *Client) Base() string {
	return c.base.String()
}

// Session returns the session shared by all requests
func (c *Client) Session() *session.Store {
	return c.session
}

// URL resolves a collection path (optionally with query) against the base
func (c *Client) URL(path string) string {
	return resolve(c.base, strings.TrimPrefix(path, "/"))
}

// do sends req with the session and client headers and absorbs any cookies
// from the response, whatever its status
func (c *Client) do(hc *http.Client, req *http.Request) (*http.Response, error) {
	c.session.Apply(req)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := hc.Do(req)
	duration := time.Since(start)
	requestDuration.WithLabelValues(req.Method).Observe(duration.Seconds())

	if err != nil {
		requestsTotal.WithLabelValues(req.Method, "error").Inc()
		c.logger.WarnWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.Network(req.URL.String(), err)
	}

	requestsTotal.WithLabelValues(req.Method, strconv.Itoa(resp.StatusCode)).Inc()
	logger.LogRequest(c.logger, req.Method, req.URL.String(), resp.StatusCode, duration)

	c.session.ApplyResponse(resp)
	return resp, nil
}

// drain discards the rest of the body so the connection can be reused
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
