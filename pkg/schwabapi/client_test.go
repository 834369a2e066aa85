package schwabapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTokenProvider implements TokenProvider for testing.
type mockTokenProvider struct {
	token string
	err   error
	calls int
}

func (m *mockTokenProvider) Token() (string, error) {
	m.calls++
	return m.token, m.err
}

// recordingLogger captures Warn messages.
type recordingLogger struct {
	warns []string
}

func (l *recordingLogger) Debug(string, ...any) {}
func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.warns = append(l.warns, msg)
}
func (l *recordingLogger) Error(string, ...any) {}

func TestNewClient(t *testing.T) {
	provider := &mockTokenProvider{token: "test-token"}
	client := NewClient("https://api.example.com", provider)

	assert.NotNil(t, client)
	assert.Equal(t, "https://api.example.com", client.BaseURL)
	assert.NotNil(t, client.HTTPClient)
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	provider := &mockTokenProvider{token: "test-token"}
	client := NewClient("https://api.example.com/", provider)

	assert.Equal(t, "https://api.example.com", client.BaseURL)
}

func TestClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/test-path", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	provider := &mockTokenProvider{token: "test-token"}
	client := NewClient(server.URL, provider)

	resp, err := client.Get(context.Background(), "/test-path")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, `{"status":"ok"}`, string(body))
}

func TestClient_GetWithParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/test", r.URL.Path)
		assert.Equal(t, "value1", r.URL.Query().Get("key1"))
		assert.Equal(t, "value2", r.URL.Query().Get("key2"))
		assert.False(t, r.URL.Query().Has("key3"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	provider := &mockTokenProvider{token: "test-token"}
	client := NewClient(server.URL, provider)

	params := Params{"key1": "value1", "key2": "value2", "key3": nil}
	resp, err := client.GetWithParams(context.Background(), "/test", params)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestClient_Post(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"data":"test"}`, string(body))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	provider := &mockTokenProvider{token: "test-token"}
	client := NewClient(server.URL, provider)

	resp, err := client.Post(context.Background(), "/create", strings.NewReader(`{"data":"test"}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestClient_Put(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"data":"new"}`, string(body))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(server.URL, &mockTokenProvider{token: "test-token"})

	resp, err := client.Put(context.Background(), "/replace", strings.NewReader(`{"data":"new"}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestClient_Delete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/resource/123", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	provider := &mockTokenProvider{token: "test-token"}
	client := NewClient(server.URL, provider)

	resp, err := client.Delete(context.Background(), "/resource/123")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestClient_TokenRefreshOn401(t *testing.T) {
	callCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		if callCount == 1 {
			// First call returns 401
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		// Second call with new token should succeed
		assert.Equal(t, "Bearer new-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	provider := &mockTokenProvider{token: "old-token"}
	client := NewClient(server.URL, provider)

	// After first 401, provider returns new token
	provider.token = "new-token"

	resp, err := client.Get(context.Background(), "/protected")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, callCount, "should have made 2 requests (original + retry)")
	assert.Equal(t, 2, provider.calls, "should have called token provider twice")
}

// rotatingProvider hands out a new token after InvalidateToken.
type rotatingProvider struct {
	tokens      []string
	invalidated int
}

func (r *rotatingProvider) Token() (string, error) {
	return r.tokens[r.invalidated], nil
}

func (r *rotatingProvider) InvalidateToken() {
	r.invalidated++
}

func TestClient_InvalidatesRejectedToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer second" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	provider := &rotatingProvider{tokens: []string{"first", "second"}}
	client := NewClient(server.URL, provider)

	resp, err := client.Get(context.Background(), "/protected")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, provider.invalidated)
}

func TestClient_NoRetryOn401WithoutProvider(t *testing.T) {
	callCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	// Create client with nil token provider (static token mode)
	client := NewClientWithToken(server.URL, "static-token")

	resp, err := client.Get(context.Background(), "/protected")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 1, callCount, "should only make 1 request without provider")
}

func TestClient_TokenProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("server should not be called without a token")
	}))
	defer server.Close()

	client := NewClient(server.URL, &mockTokenProvider{err: errors.New("login required")})

	_, err := client.Get(context.Background(), "/anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get token")
	assert.Contains(t, err.Error(), "login required")
}

func TestClient_WithTimeout(t *testing.T) {
	client := NewClientWithToken("https://api.example.com", "tok").WithTimeout(5 * time.Second)
	assert.Equal(t, 5*time.Second, client.HTTPClient.Timeout)

	client.WithTimeout(0)
	assert.Equal(t, 5*time.Second, client.HTTPClient.Timeout, "zero timeout is ignored")
}

func TestClient_LogsFailedRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"bad symbol"}`))
	}))
	defer server.Close()

	logger := &recordingLogger{}
	client := NewClientWithToken(server.URL, "tok").WithLogger(logger)

	_, err := client.GetQuote(context.Background(), "???", "")
	require.Error(t, err)
	assert.Equal(t, []string{"API request failed"}, logger.warns)
}

func TestNewClientWithToken(t *testing.T) {
	client := NewClientWithToken("https://api.example.com", "my-token")

	assert.NotNil(t, client)
	assert.Equal(t, "https://api.example.com", client.BaseURL)
	assert.Nil(t, client.TokenProvider)
}
