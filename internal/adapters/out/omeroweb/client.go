// Package omeroweb implements the server gateway over the OMERO.web JSON API
// and the webgateway/webclient endpoints.
package omeroweb

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ome/omero-render/internal/boundaries/out"
	"github.com/ome/omero-render/internal/domain"
)

var _ out.Gateway = (*Client)(nil)

// Retry policy for transport errors and 5xx on idempotent methods. Variables
// so tests can shorten them.
var (
	retryMaxAttempts = 4
	retryBaseDelay   = 500 * time.Millisecond
)

const (
	defaultTimeout = 60 * time.Second
	csrfHeader     = "X-CSRFToken"
	requestIDHdr   = "X-Request-ID"
)

// Client talks to one OMERO.web deployment. It is safe for concurrent use.
type Client struct {
	baseURL  string
	apiBase  string
	serverID int

	timeout  time.Duration
	insecure bool
	limiter  *rate.Limiter
	log      zerolog.Logger

	http *retryablehttp.Client

	mu      sync.RWMutex
	csrf    string
	session *Session
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithInsecureTLS disables certificate verification.
func WithInsecureTLS(insecure bool) ClientOption {
	return func(c *Client) {
		c.insecure = insecure
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables the limit.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// WithServerID selects the OMERO server entry configured in OMERO.web.
func WithServerID(id int) ClientOption {
	return func(c *Client) {
		c.serverID = id
	}
}

// NewClient creates a client for the OMERO.web instance at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		serverID: 1,
		timeout:  defaultTimeout,
		limiter:  rate.NewLimiter(rate.Inf, 0),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.apiBase = c.baseURL + "/api/v0"

	jar, _ := cookiejar.New(nil)
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if c.insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via --insecure
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{
		Timeout:   c.timeout,
		Transport: transport,
		Jar:       jar,
	}
	rc.Logger = nil
	rc.RetryMax = retryMaxAttempts - 1
	rc.RetryWaitMin = retryBaseDelay
	rc.RetryWaitMax = retryBaseDelay * 8
	rc.CheckRetry = checkRetry
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			c.log.Debug().
				Str("url", req.URL.Redacted()).
				Str("request_id", req.Header.Get(requestIDHdr)).
				Int("attempt", attempt).
				Msg("retrying request")
		}
	}
	c.http = rc

	return c
}

// noRetryKey marks a request context whose request must be sent only once.
type noRetryKey struct{}

// checkRetry applies the default policy except to requests marked with
// noRetryKey.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Value(noRetryKey{}) != nil {
		return false, ctx.Err()
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete, http.MethodOptions:
		return true
	}
	return false
}

// BaseURL returns the normalized OMERO.web URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request describes one call. Form and JSON bodies are mutually exclusive.
type request struct {
	method string
	path   string
	query  url.Values
	form   url.Values
	json   any
}

// do sends req and returns the response. The caller closes the body.
func (c *Client) do(ctx context.Context, r request) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	target := r.path
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = c.baseURL + r.path
	}
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var body []byte
	contentType := ""
	switch {
	case r.form != nil:
		body = []byte(r.form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case r.json != nil:
		b, err := json.Marshal(r.json)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = b
		contentType = "application/json"
	}

	var reqBody any
	if body != nil {
		reqBody = body
	}
	if !idempotent(r.method) {
		ctx = context.WithValue(ctx, noRetryKey{}, true)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, r.method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set(requestIDHdr, requestID)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Referer", c.baseURL+"/")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if r.method != http.MethodGet {
		c.mu.RLock()
		if c.csrf != "" {
			req.Header.Set(csrfHeader, c.csrf)
		}
		c.mu.RUnlock()
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	event := c.log.Debug().
		Str("method", r.method).
		Str("url", req.URL.Redacted()).
		Str("request_id", requestID).
		Dur("duration", time.Since(start))
	if err != nil {
		event.Err(err).Msg("request failed")
		return nil, fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	event.Int("status", resp.StatusCode).Msg("request")
	return resp, nil
}

// call performs the request and decodes a JSON response into target.
func (c *Client) call(ctx context.Context, r request, target any) error {
	resp, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	return parseResponse(resp, target)
}

// parseResponse decodes a JSON response into target, mapping error statuses
// to domain errors.
func parseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return statusError(resp)
	}

	if target == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	msg := strings.TrimSpace(string(body))
	var errResp struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil {
		switch {
		case errResp.Message != "":
			msg = errResp.Message
		case errResp.Error != "":
			msg = errResp.Error
		}
	}

	var sentinel error
	switch resp.StatusCode {
	case http.StatusNotFound:
		sentinel = domain.ErrObjectNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		sentinel = domain.ErrNotLoggedIn
	default:
		return fmt.Errorf("%s: %s", resp.Status, msg)
	}
	return fmt.Errorf("%w: %s: %s", sentinel, resp.Status, msg)
}

// readAll returns the body of a successful response.
func readAll(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, statusError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return data, nil
}

// discard drains and closes a successful response.
func discard(resp *http.Response) error {
	_, err := readAll(resp)
	return err
}
