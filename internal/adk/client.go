package adk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"

	"oauthrelay/pkg/logging"
)

// ErrUnexpectedStatus is wrapped by errors for non-2xx responses.
var ErrUnexpectedStatus = errors.New("unexpected status from agent server")

// maxErrorBody bounds how much of an error response is kept in the error message.
const maxErrorBody = 512

type leveledSlog struct {
	inner *slog.Logger
}

// Error is logged as WARN because the request is retried.
func (l leveledSlog) Error(msg string, keysAndValues ...any) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l leveledSlog) Warn(msg string, keysAndValues ...any) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l leveledSlog) Info(msg string, keysAndValues ...any) {
	l.inner.Debug(msg, keysAndValues...)
}

func (l leveledSlog) Debug(msg string, keysAndValues ...any) {
	l.inner.Debug(msg, keysAndValues...)
}

// Option configures a Client.
type Option func(*retryablehttp.Client)

// WithMaxRetries sets the maximum number of retries.
func WithMaxRetries(n int) Option {
	return func(c *retryablehttp.Client) {
		c.RetryMax = n
	}
}

// WithRetryWait sets the bounds of the retry backoff.
func WithRetryWait(minWait, maxWait time.Duration) Option {
	return func(c *retryablehttp.Client) {
		c.RetryWaitMin = minWait
		c.RetryWaitMax = maxWait
	}
}

// WithRetryPolicy replaces RetryPolicy.
func WithRetryPolicy(policy retryablehttp.CheckRetry) Option {
	return func(c *retryablehttp.Client) {
		c.CheckRetry = policy
	}
}

type singleAttemptKey struct{}

// RetryPolicy wraps retryablehttp.DefaultRetryPolicy. Requests marked single-attempt
// (every non-GET request) are never resent: a message posted to /run may already
// have been appended to the conversation when the server fails.
func RetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if single, _ := ctx.Value(singleAttemptKey{}).(bool); single {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// WithTransport sets the underlying transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *retryablehttp.Client) {
		c.HTTPClient.Transport = rt
	}
}

// Client calls the agent server API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// NewClient creates a client for the agent server at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid agent server URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid agent server URL %q: scheme must be http or https", baseURL)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Transport = cleanhttp.DefaultPooledTransport()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.CheckRetry = RetryPolicy
	retryClient.Logger = retryablehttp.LeveledLogger(leveledSlog{inner: logging.Logger("ADK")})
	for _, opt := range opts {
		opt(retryClient)
	}

	client := retryClient.StandardClient()
	client.Timeout = 30 * time.Second
	return &Client{baseURL: u, http: client}, nil
}

func (c *Client) endpoint(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return c.baseURL.String() + "/" + strings.Join(escaped, "/")
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	if method != http.MethodGet {
		ctx = context.WithValue(ctx, singleAttemptKey{}, true)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: %s %s returned %d: %s", ErrUnexpectedStatus, method, endpoint, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
	}
	return nil
}

// ListSessions returns the sessions of user in app.
func (c *Client) ListSessions(ctx context.Context, app, user string) ([]Session, error) {
	var sessions []Session
	if err := c.do(ctx, http.MethodGet, c.endpoint("apps", app, "users", user, "sessions"), nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// CreateSession creates a session with the given id.
func (c *Client) CreateSession(ctx context.Context, app, user, id string) (Session, error) {
	var s Session
	err := c.do(ctx, http.MethodPost, c.endpoint("apps", app, "users", user, "sessions", id), map[string]any{}, &s)
	if err != nil {
		return Session{}, err
	}
	return s, nil
}

// Run sends a message into a session and returns the agent's events.
func (c *Client) Run(ctx context.Context, req RunRequest) ([]Event, error) {
	var events []Event
	if err := c.do(ctx, http.MethodPost, c.endpoint("run"), req, &events); err != nil {
		return nil, err
	}
	return events, nil
}
