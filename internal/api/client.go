package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"papri/internal/config"
	"papri/internal/logging"
	"papri/internal/tasks"
)

const defaultHTTPTimeout = 30 * time.Second

// Client wraps the Papri backend REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	csrfCookie string
	csrfHeader string
	pageSize   int
	logger     *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client. The replacement gets the
// client's cookie jar if it has none, since CSRF handling depends on one.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured API base (useful for tests/mocks).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		base = strings.TrimSpace(base)
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New constructs a backend client from configuration.
func New(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("api client: config is required")
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("api client: cookie jar: %w", err)
	}
	timeout := time.Duration(cfg.API.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	client := &Client{
		baseURL:    strings.TrimRight(cfg.API.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout, Jar: jar},
		userAgent:  cfg.API.UserAgent,
		csrfCookie: cfg.API.CSRFCookie,
		csrfHeader: cfg.API.CSRFHeader,
		pageSize:   cfg.API.PageSize,
		logger:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient.Jar == nil {
		client.httpClient.Jar = jar
	}
	return client, nil
}

// PageSize returns the configured results page size.
func (c *Client) PageSize() int {
	return c.pageSize
}

func (c *Client) endpoint(parts ...string) (string, error) {
	joined, err := url.JoinPath(c.baseURL, parts...)
	if err != nil {
		return "", fmt.Errorf("build url: %w", err)
	}
	// The backend routes all end with a trailing slash.
	if !strings.HasSuffix(joined, "/") {
		joined += "/"
	}
	return joined, nil
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if method != http.MethodGet && method != http.MethodHead {
		token, err := c.csrfToken(ctx)
		if err != nil {
			return nil, err
		}
		if token != "" {
			req.Header.Set(c.csrfHeader, token)
		}
	}
	return req, nil
}

// csrfToken returns the backend's CSRF cookie value, priming the jar with a
// GET to auth/status/ when it is not present yet.
func (c *Client) csrfToken(ctx context.Context) (string, error) {
	if token := c.cookieValue(c.csrfCookie); token != "" {
		return token, nil
	}
	endpoint, err := c.endpoint("auth", "status")
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build csrf probe: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("prime csrf token: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return c.cookieValue(c.csrfCookie), nil
}

func (c *Client) cookieValue(name string) string {
	base, err := url.Parse(c.baseURL)
	if err != nil || c.httpClient.Jar == nil {
		return ""
	}
	for _, cookie := range c.httpClient.Jar.Cookies(base) {
		if cookie.Name == name {
			return cookie.Value
		}
	}
	return ""
}

// doJSON executes a request and decodes a JSON response body into out.
// Non-success statuses are mapped onto the task error taxonomy.
func (c *Client) doJSON(req *http.Request, kind tasks.Kind, operation string, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return tasks.Wrap(tasks.ErrTransient, kind, operation, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return tasks.Wrap(tasks.ErrTransient, kind, operation, "read body", err)
	}
	c.logger.Debug("api call",
		"method", req.Method, "url", req.URL.String(),
		"status", resp.StatusCode, "elapsed", time.Since(start).Round(time.Millisecond))

	if resp.StatusCode >= http.StatusBadRequest {
		return c.statusError(resp.StatusCode, body, kind, operation)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return tasks.Wrap(tasks.ErrTransient, kind, operation, "decode response", err)
	}
	return nil
}

func (c *Client) statusError(status int, body []byte, kind tasks.Kind, operation string) error {
	message := apiErrorMessage(body)
	switch {
	case status == http.StatusPaymentRequired:
		return tasks.Wrap(tasks.ErrDemoLimit, kind, operation, message, nil)
	case status == http.StatusNotFound:
		return tasks.Wrap(tasks.ErrNotFound, kind, operation, message, nil)
	case status >= http.StatusInternalServerError:
		return tasks.Wrap(tasks.ErrTransient, kind, operation, fmt.Sprintf("http %d: %s", status, message), nil)
	default:
		return tasks.Wrap(tasks.ErrSubmission, kind, operation, fmt.Sprintf("http %d: %s", status, message), nil)
	}
}

// apiErrorMessage extracts the human-readable part of a backend error body.
// The backend emits {"error": ...}, {"detail": ...}, or serializer field maps.
func apiErrorMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "no error detail"
	}
	var envelope map[string]any
	if err := json.Unmarshal(body, &envelope); err != nil {
		if len(trimmed) > 200 {
			trimmed = trimmed[:200]
		}
		return trimmed
	}
	for _, key := range []string{"error", "detail"} {
		if value, ok := envelope[key].(string); ok && value != "" {
			return value
		}
	}
	// Serializer validation errors: {"field": ["msg", ...], ...}
	var parts []string
	for field, value := range envelope {
		switch v := value.(type) {
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					parts = append(parts, field+": "+s)
				}
			}
		case string:
			parts = append(parts, field+": "+v)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, "; ")
	}
	return trimmed
}

func jsonBody(v any) (io.Reader, error) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return bytes.NewReader(encoded), nil
}
