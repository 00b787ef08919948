// Package api is the HTTP client for the library service REST API.
package api

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

	"github.com/mmcdole/stacks/internal/domain"
)

const defaultTimeout = 15 * time.Second

// Client talks to the library service. Every request carries the current
// bearer token; a 401 on an authenticated request fires the unauthorized
// hook so the session can be torn down.
type Client struct {
	baseURL    string
	tokens     domain.TokenSource
	httpClient *http.Client
	logger     *slog.Logger

	onUnauthorized func()
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default http.Client
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient creates a client for the API rooted at baseURL
func NewClient(baseURL string, tokens domain.TokenSource, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnUnauthorized sets the hook fired when an authenticated request gets a 401
func (c *Client) OnUnauthorized(fn func()) {
	c.onUnauthorized = fn
}

// requestOpts marks endpoints that must not trigger the unauthorized hook
type requestOpts struct {
	public bool
}

// doRequest sends one request and returns the raw body of a 2xx response.
// Non-2xx responses become *domain.APIError.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body any, opts requestOpts) ([]byte, int, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL = fmt.Sprintf("%s?%s", reqURL, query.Encode())
	}

	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to encode request: %w", err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, payload)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	c.logger.Debug("api request", "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		c.logger.Error("api request failed", "method", method, "path", path, "error", err)
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrServerOffline, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return respBody, resp.StatusCode, nil
	}

	apiErr := parseError(resp.StatusCode, respBody)
	switch {
	case resp.StatusCode == http.StatusUnauthorized && !opts.public:
		c.logger.Warn("credential rejected", "path", path)
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
	case resp.StatusCode >= 500:
		c.logger.Error("api server error", "status", resp.StatusCode, "path", path, "body", string(respBody))
	default:
		c.logger.Debug("api request rejected", "status", resp.StatusCode, "path", path, "message", apiErr.Message)
	}
	return nil, resp.StatusCode, apiErr
}

// parseError reads the failure envelope, tolerating bodies that are not JSON
func parseError(status int, body []byte) *domain.APIError {
	apiErr := &domain.APIError{Status: status}

	var env domain.Envelope[json.RawMessage]
	if err := json.Unmarshal(body, &env); err != nil {
		return apiErr
	}
	apiErr.Message = env.Message
	if env.Error != nil {
		if apiErr.Message == "" {
			apiErr.Message = env.Error.Message
		}
		apiErr.Details = env.Error.Details
	}
	return apiErr
}

// do sends a request and decodes the envelope of a 2xx response
func do[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any, opts requestOpts) (domain.Envelope[T], error) {
	var env domain.Envelope[T]

	raw, status, err := c.doRequest(ctx, method, path, query, body, opts)
	if err != nil {
		return env, err
	}
	if status == http.StatusNoContent || len(bytes.TrimSpace(raw)) == 0 {
		env.Success = true
		return env, nil
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		c.logger.Error("failed to decode response", "path", path, "error", err)
		return env, fmt.Errorf("failed to decode response: %w", err)
	}
	return env, nil
}

// IsUnauthorized reports whether err is a 401 from the service
func IsUnauthorized(err error) bool {
	return errors.Is(err, domain.ErrUnauthorized)
}
