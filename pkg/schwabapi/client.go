// Package schwabapi provides a Go client for the Charles Schwab Trader API.
//
// This package can be imported by external projects to query accounts,
// market data, orders and transactions programmatically. Every method maps
// to exactly one outbound HTTP request.
package schwabapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the production Schwab API host.
const DefaultBaseURL = "https://api.schwabapi.com"

// DefaultTimeout is the HTTP timeout used by NewClient.
const DefaultTimeout = 30 * time.Second

// TokenProvider is an interface for obtaining authentication tokens.
// Implementations should handle token caching and refresh logic internally.
type TokenProvider interface {
	// Token returns a valid access token.
	// It may return a cached token or fetch a new one.
	Token() (string, error)
}

// Logger is the logging surface the client writes request failures to.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
}

// TokenInvalidator is implemented by token providers that can discard a
// token the server rejected, so the next Token call fetches a fresh one.
type TokenInvalidator interface {
	InvalidateToken()
}

type nopLogger struct{}

// NewNopLogger returns a Logger that discards everything.
func NewNopLogger() Logger { return nopLogger{} }

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Client handles HTTP requests to the Schwab API.
type Client struct {
	BaseURL       string
	TokenProvider TokenProvider
	HTTPClient    *http.Client
	Logger        Logger

	// staticToken is used when a fixed token is provided (no refresh capability)
	staticToken string
}

// NewClient creates a new API client with the given base URL and token provider.
// The token provider will be called to obtain tokens, allowing for automatic
// token refresh when needed.
func NewClient(baseURL string, tokenProvider TokenProvider) *Client {
	return &Client{
		BaseURL:       strings.TrimSuffix(baseURL, "/"),
		TokenProvider: tokenProvider,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		Logger: nopLogger{},
	}
}

// NewClientWithToken creates a new API client with a static token.
// The client will not attempt to refresh the token on 401 responses.
func NewClientWithToken(baseURL, token string) *Client {
	return &Client{
		BaseURL:     strings.TrimSuffix(baseURL, "/"),
		staticToken: token,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		Logger: nopLogger{},
	}
}

// WithLogger sets the logger used for failed requests. A nil logger disables logging.
func (c *Client) WithLogger(l Logger) *Client {
	if l == nil {
		l = nopLogger{}
	}
	c.Logger = l
	return c
}

// WithTimeout sets the HTTP client timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	if d > 0 {
		c.HTTPClient.Timeout = d
	}
	return c
}

// Get performs a GET request to the specified path.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// GetWithParams performs a GET request to the specified path with query parameters.
// Absent parameters are filtered out before encoding.
func (c *Client) GetWithParams(ctx context.Context, path string, params Params) (*http.Response, error) {
	if query := params.Values(); len(query) > 0 {
		path = path + "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request to the specified path with the given body.
func (c *Client) Post(ctx context.Context, path string, body io.Reader) (*http.Response, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

// Put performs a PUT request to the specified path with the given body.
func (c *Client) Put(ctx context.Context, path string, body io.Reader) (*http.Response, error) {
	return c.do(ctx, http.MethodPut, path, body)
}

// Delete performs a DELETE request to the specified path.
func (c *Client) Delete(ctx context.Context, path string) (*http.Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}

// getToken returns the current authentication token.
func (c *Client) getToken() (string, error) {
	if c.TokenProvider != nil {
		return c.TokenProvider.Token()
	}
	return c.staticToken, nil
}

// do performs an HTTP request with auth header injection.
// On 401, if a TokenProvider is configured, it will refresh the token and retry once.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	// Buffer body if present so we can retry
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
	}

	token, err := c.getToken()
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	resp, err := c.doOnce(ctx, method, path, bodyBytes, token)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && c.TokenProvider != nil {
		_ = resp.Body.Close()
		c.Logger.Debug("token rejected, retrying", "method", method, "path", path)
		if inv, ok := c.TokenProvider.(TokenInvalidator); ok {
			inv.InvalidateToken()
		}

		newToken, refreshErr := c.TokenProvider.Token()
		if refreshErr != nil {
			// Refresh failed, re-do request to get a fresh response
			return c.doOnce(ctx, method, path, bodyBytes, token)
		}

		return c.doOnce(ctx, method, path, bodyBytes, newToken)
	}

	return resp, nil
}

// doOnce performs a single HTTP request.
func (c *Client) doOnce(ctx context.Context, method, path string, bodyBytes []byte, token string) (*http.Response, error) {
	url := c.BaseURL + path

	var body io.Reader
	if bodyBytes != nil {
		body = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if bodyBytes != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.Logger.Debug("request", "method", method, "path", path)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return resp, nil
}

// getJSON issues a GET and decodes a successful response into target.
// Non-2xx responses are logged and returned as *APIError.
func (c *Client) getJSON(ctx context.Context, path string, params Params, target any) error {
	resp, err := c.GetWithParams(ctx, path, params)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := c.check(resp, http.MethodGet, path); err != nil {
		return err
	}
	return DecodeJSON(resp, target)
}

// check wraps CheckResponse and logs the failure.
func (c *Client) check(resp *http.Response, method, path string) error {
	if err := CheckResponse(resp); err != nil {
		c.Logger.Warn("API request failed", "method", method, "path", path, "status", resp.StatusCode, "err", err)
		return err
	}
	return nil
}
