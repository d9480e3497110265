// Package apiclient is the authenticated HTTP client for the CuraTime REST API.
//
// Every call attaches the session's bearer token, decodes JSON responses and
// funnels failures through one place: the user is notified with the server's
// message (or a generic one), and the error is returned to the caller as an
// *Error. A 401 is additionally reported as ErrUnauthenticated so that a
// navigation-aware caller can send the user back to the right login page;
// the client itself never navigates.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/curatime/portal/internal/notify"
)

// DefaultBaseURL is the API origin used when none is configured.
const DefaultBaseURL = "http://127.0.0.1:8000/api"

// TokenSource yields the bearer token for the current session. An empty
// token means the request goes out without an Authorization header.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) { return string(s), nil }

// Observer is told about every completed call. status is 0 when no response
// was received.
type Observer interface {
	ObserveRequest(method, path string, status int, duration time.Duration)
}

// Client performs JSON and multipart calls against a single base endpoint.
// It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	notifier   notify.Notifier
	observer   Observer
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithTimeout sets the overall timeout of each call. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		clone := *c.httpClient
		clone.Timeout = d
		c.httpClient = &clone
	}
}

// WithTokenSource sets the default token source, used when the request
// context does not carry one.
func WithTokenSource(tokens TokenSource) Option {
	return func(c *Client) { c.tokens = tokens }
}

// WithNotifier sets where failure messages are delivered.
func WithNotifier(n notify.Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

// WithObserver registers a call observer.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithLogger sets the client logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger.With().Str("component", "apiclient").Logger() }
}

// New creates a client for baseURL. An empty baseURL falls back to
// DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		notifier: notify.Discard,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the endpoint every path is appended to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type tokenSourceKey struct{}

// ContextWithTokenSource returns a context whose calls authenticate with
// tokens instead of the client's default source. The portal server uses it to
// bind each request to its browser session.
func ContextWithTokenSource(ctx context.Context, tokens TokenSource) context.Context {
	return context.WithValue(ctx, tokenSourceKey{}, tokens)
}

func (c *Client) tokenSource(ctx context.Context) TokenSource {
	if tokens, ok := ctx.Value(tokenSourceKey{}).(TokenSource); ok && tokens != nil {
		return tokens
	}
	return c.tokens
}

// Request describes one API call.
type Request struct {
	Method string
	Path   string
	// Body is JSON-encoded when non-nil.
	Body any
	// Form, when set, replaces Body with a multipart payload.
	Form *FormData
	// Route, when set, is reported to the Observer instead of Path.
	Route string
}

// Do sends r and decodes a successful response into out, which may be nil.
// Failures are notified and returned as *Error, except for failures to build
// the request, which never reached the network.
func (c *Client) Do(ctx context.Context, r Request, out any) error {
	req, err := c.newRequest(ctx, r)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(r, 0, time.Since(start))
		apiErr := &Error{Method: r.Method, Path: r.Path, Message: FallbackMessage, Err: err}
		if errors.Is(ctx.Err(), context.Canceled) {
			// Cancelled by the caller.
			apiErr.Message = ""
		}
		c.fail(ctx, apiErr)
		return apiErr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.observe(r, resp.StatusCode, time.Since(start))
	if err != nil {
		apiErr := &Error{Method: r.Method, Path: r.Path, StatusCode: resp.StatusCode, Message: FallbackMessage,
			Err: fmt.Errorf("failed to read response: %w", err)}
		c.fail(ctx, apiErr)
		return apiErr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newStatusError(r, resp.StatusCode, body)
		c.fail(ctx, apiErr)
		return apiErr
	}

	c.logger.Debug().
		Str("method", r.Method).
		Str("path", r.Path).
		Int("status", resp.StatusCode).
		Msg("API call succeeded")

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		apiErr := &Error{Method: r.Method, Path: r.Path, StatusCode: resp.StatusCode, Message: FallbackMessage,
			Body: body, Err: fmt.Errorf("failed to decode response: %w", err)}
		c.fail(ctx, apiErr)
		return apiErr
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, r Request) (*http.Request, error) {
	var (
		body        io.Reader
		contentType = "application/json"
	)

	switch {
	case r.Form != nil:
		encoded, ct, err := r.Form.encode()
		if err != nil {
			return nil, fmt.Errorf("failed to encode form: %w", err)
		}
		body, contentType = encoded, ct
	case r.Body != nil:
		jsonData, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	target, err := c.resolveURL(r.Path)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	if tokens := c.tokenSource(ctx); tokens != nil {
		token, err := tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
		}
	}

	return req, nil
}

// resolveURL appends path to the base URL. Absolute URLs are accepted only on
// the API origin so the bearer token never leaves it.
func (c *Client) resolveURL(path string) (string, error) {
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		return c.baseURL + "/" + strings.TrimLeft(path, "/"), nil
	}

	target, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("failed to parse %q: %w", path, err)
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse base URL: %w", err)
	}
	if !strings.EqualFold(target.Scheme, base.Scheme) || !strings.EqualFold(target.Host, base.Host) {
		return "", fmt.Errorf("%w: %s://%s", ErrForeignOrigin, target.Scheme, target.Host)
	}
	return path, nil
}

func (c *Client) fail(ctx context.Context, apiErr *Error) {
	event := c.logger.Warn()
	if errors.Is(apiErr, ErrUnauthenticated) {
		event = c.logger.Debug()
	}
	event.
		Err(apiErr.Err).
		Str("method", apiErr.Method).
		Str("path", apiErr.Path).
		Int("status", apiErr.StatusCode).
		Msg("API call failed")

	if apiErr.Message != "" {
		notify.Error(ctx, c.notifier, apiErr.Message)
	}
}

func (c *Client) observe(r Request, status int, d time.Duration) {
	if c.observer == nil {
		return
	}
	route := r.Route
	if route == "" {
		route = r.Path
	}
	c.observer.ObserveRequest(r.Method, route, status, d)
}
