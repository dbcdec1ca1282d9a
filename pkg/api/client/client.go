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
	"strings"
	"time"
)

const defaultBaseURL = "http://localhost:8000/api/v1"

// TokenSource yields the bearer token attached to outgoing requests.
// An empty token means the request is sent unauthenticated.
type TokenSource interface {
	Token() (string, error)
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() (string, error)

// Token implements TokenSource.
func (f TokenFunc) Token() (string, error) { return f() }

// StaticToken is a fixed bearer token.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token() (string, error) { return string(t), nil }

// Observer receives one call per completed API request. Status is zero when
// the request failed before a response arrived.
type Observer func(method, route string, status int, duration time.Duration)

// Client provides typed access to the ResumeIQ API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	observer   Observer
	userAgent  string
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithTimeout sets the transport timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithTokenSource binds the client to a token source.
func WithTokenSource(src TokenSource) Option {
	return func(c *Client) {
		c.tokens = src
	}
}

// WithObserver registers a per-request callback.
func WithObserver(obs Observer) Option {
	return func(c *Client) {
		c.observer = obs
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = strings.TrimSpace(ua)
	}
}

// New constructs a Client pointing at the provided API base URL.
func New(base string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("invalid api base url: missing host in %q", base)
	}
	cli := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		userAgent:  "resumeiq-web",
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli, nil
}

// BaseURL reports the normalised API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// WithTokens returns a copy of the client that reads its bearer token from src.
// The receiver is left untouched, so a shared client can be bound per request.
func (c *Client) WithTokens(src TokenSource) *Client {
	cp := *c
	cp.tokens = src
	return &cp
}

// APIError represents a non-2xx response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return fmt.Sprintf("api request failed (%d): %s", e.Status, e.Message)
}

// IsAuthError reports whether err carries a 401 or 403 API response.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
}

// IsNotFound reports whether err carries a 404 API response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Detail returns the backend-provided error text of err, or fallback when err
// is not an API error or the backend sent no detail.
func Detail(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	return fallback
}

type request struct {
	method      string
	path        string
	route       string
	body        io.Reader
	contentType string
}

func jsonRequest(method, path, route string, payload any) (request, error) {
	req := request{method: method, path: path, route: route}
	if payload == nil {
		return req, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return request{}, fmt.Errorf("encode request body: %w", err)
	}
	req.body = bytes.NewReader(data)
	req.contentType = "application/json"
	return req, nil
}

func (c *Client) do(ctx context.Context, r request, v any) error {
	if c == nil {
		return errors.New("client is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	route := r.route
	if route == "" {
		route = routeOf(r.path)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, r.body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.tokens != nil {
		token, err := c.tokens.Token()
		if err != nil {
			return fmt.Errorf("read bearer token: %w", err)
		}
		if strings.TrimSpace(token) != "" {
			req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(token))
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(r.method, route, 0, start)
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()
	c.observe(r.method, route, resp.StatusCode, start)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Message: extractError(resp.Body)}
	}

	if v == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) observe(method, route string, status int, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer(method, route, status, time.Since(start))
}

func routeOf(path string) string {
	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		return path[:idx]
	}
	return path
}

// extractError pulls the message out of FastAPI style {"detail": ...} bodies,
// falling back to {"error": ...} and finally to the raw body text.
func extractError(body io.Reader) string {
	if body == nil {
		return ""
	}
	data, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return strings.TrimSpace(string(data))
	}
	if len(payload.Detail) > 0 {
		var text string
		if err := json.Unmarshal(payload.Detail, &text); err == nil {
			return strings.TrimSpace(text)
		}
		var items []struct {
			Loc []any  `json:"loc"`
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(payload.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, item := range items {
				msg := strings.TrimSpace(item.Msg)
				if msg == "" {
					continue
				}
				if n := len(item.Loc); n > 0 {
					msg = fmt.Sprintf("%v: %s", item.Loc[n-1], msg)
				}
				msgs = append(msgs, msg)
			}
			return strings.Join(msgs, "; ")
		}
	}
	return strings.TrimSpace(payload.Error)
}

// Get issues a GET and decodes the JSON response into v.
func (c *Client) Get(ctx context.Context, path string, v any) error {
	return c.do(ctx, request{method: http.MethodGet, path: path}, v)
}

// Post issues a POST with an optional JSON body and decodes the response into v.
func (c *Client) Post(ctx context.Context, path string, body any, v any) error {
	req, err := jsonRequest(http.MethodPost, path, "", body)
	if err != nil {
		return err
	}
	return c.do(ctx, req, v)
}

// PostForm issues a form-encoded POST and decodes the response into v.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values, v any) error {
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        path,
		body:        strings.NewReader(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
	}, v)
}

// PostMultipart issues a POST with a prepared multipart body and decodes the
// response into v.
func (c *Client) PostMultipart(ctx context.Context, path string, body io.Reader, contentType string, v any) error {
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        path,
		body:        body,
		contentType: contentType,
	}, v)
}

// Delete issues a DELETE and discards the response body.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: path}, nil)
}
