package auth

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonandersen/sch/pkg/schwabapi"
)

var _ schwabapi.TokenProvider = (*Provider)(nil)
var _ schwabapi.TokenInvalidator = (*Provider)(nil)

func writeCache(t *testing.T, token *Token) string {
	t.Helper()
	cachePath := filepath.Join(t.TempDir(), ".token_cache")
	require.NoError(t, SaveToken(cachePath, token))
	return cachePath
}

func TestProvider_FromCache(t *testing.T) {
	cachePath := writeCache(t, &Token{
		AccessToken:     "cached-token",
		RefreshToken:    "refresh",
		ExpiresAt:       time.Now().Unix() + 1800,
		RefreshIssuedAt: time.Now().Unix(),
	})

	// Server should NOT be called
	cfg := OAuthConfig("app-key", "app-secret", "https://127.0.0.1", "http://127.0.0.1:1")
	provider := NewProvider(context.Background(), cfg, cachePath, nil)

	token, err := provider.Token()
	require.NoError(t, err)
	assert.Equal(t, "cached-token", token)
}

func TestProvider_RefreshExpired(t *testing.T) {
	issued := time.Now().Add(-2 * 24 * time.Hour).Unix()
	cachePath := writeCache(t, &Token{
		AccessToken:     "expired-token",
		RefreshToken:    "refresh-1",
		ExpiresAt:       time.Now().Unix() - 60,
		RefreshIssuedAt: issued,
	})

	var form url.Values
	server := tokenServer(t, http.StatusOK, map[string]any{
		"access_token": "fresh-token",
		"token_type":   "Bearer",
		"expires_in":   1800,
	}, &form)
	defer server.Close()

	cfg := OAuthConfig("app-key", "app-secret", "https://127.0.0.1", server.URL)
	provider := NewProvider(context.Background(), cfg, cachePath, nil)

	token, err := provider.Token()
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token)
	assert.Equal(t, "refresh_token", form.Get("grant_type"))
	assert.Equal(t, "refresh-1", form.Get("refresh_token"))

	// The refreshed pair is persisted and the refresh token's issue time kept.
	cached, err := LoadToken(cachePath)
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", cached.AccessToken)
	assert.Equal(t, "refresh-1", cached.RefreshToken)
	assert.Equal(t, issued, cached.RefreshIssuedAt)
}

func TestProvider_InvalidateForcesRefresh(t *testing.T) {
	cachePath := writeCache(t, &Token{
		AccessToken:     "rejected-token",
		RefreshToken:    "refresh-1",
		ExpiresAt:       time.Now().Unix() + 1800,
		RefreshIssuedAt: time.Now().Unix(),
	})

	server := tokenServer(t, http.StatusOK, map[string]any{
		"access_token":  "replacement",
		"refresh_token": "refresh-2",
		"expires_in":    1800,
	}, nil)
	defer server.Close()

	cfg := OAuthConfig("app-key", "app-secret", "https://127.0.0.1", server.URL)
	provider := NewProvider(context.Background(), cfg, cachePath, nil)

	token, err := provider.Token()
	require.NoError(t, err)
	assert.Equal(t, "rejected-token", token)

	provider.InvalidateToken()

	token, err = provider.Token()
	require.NoError(t, err)
	assert.Equal(t, "replacement", token)
}

func TestProvider_NoCache(t *testing.T) {
	cfg := OAuthConfig("app-key", "app-secret", "https://127.0.0.1", "http://127.0.0.1:1")
	provider := NewProvider(context.Background(), cfg, filepath.Join(t.TempDir(), "missing"), nil)

	_, err := provider.Token()
	assert.ErrorIs(t, err, ErrLoginRequired)
}

func TestProvider_CorruptedCache(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), ".token_cache")
	require.NoError(t, os.WriteFile(cachePath, []byte("not json"), 0600))

	cfg := OAuthConfig("app-key", "app-secret", "https://127.0.0.1", "http://127.0.0.1:1")
	provider := NewProvider(context.Background(), cfg, cachePath, nil)

	_, err := provider.Token()
	assert.ErrorIs(t, err, ErrLoginRequired)
}

func TestProvider_RefreshTokenTooOld(t *testing.T) {
	cachePath := writeCache(t, &Token{
		AccessToken:     "expired",
		RefreshToken:    "old-refresh",
		ExpiresAt:       time.Now().Unix() - 60,
		RefreshIssuedAt: time.Now().Add(-8 * 24 * time.Hour).Unix(),
	})

	cfg := OAuthConfig("app-key", "app-secret", "https://127.0.0.1", "http://127.0.0.1:1")
	provider := NewProvider(context.Background(), cfg, cachePath, nil)

	_, err := provider.Token()
	assert.ErrorIs(t, err, ErrLoginRequired)
}

func TestProvider_RefreshRejected(t *testing.T) {
	cachePath := writeCache(t, &Token{
		AccessToken:     "expired",
		RefreshToken:    "revoked",
		ExpiresAt:       time.Now().Unix() - 60,
		RefreshIssuedAt: time.Now().Unix(),
	})

	server := tokenServer(t, http.StatusBadRequest, map[string]any{
		"error": "invalid_grant",
	}, nil)
	defer server.Close()

	cfg := OAuthConfig("app-key", "app-secret", "https://127.0.0.1", server.URL)
	provider := NewProvider(context.Background(), cfg, cachePath, nil)

	_, err := provider.Token()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoginRequired)
}

func TestProvider_ContextCancellation(t *testing.T) {
	cachePath := writeCache(t, &Token{
		AccessToken:     "expired",
		RefreshToken:    "refresh",
		ExpiresAt:       time.Now().Unix() - 60,
		RefreshIssuedAt: time.Now().Unix(),
	})

	server := tokenServer(t, http.StatusOK, map[string]any{"access_token": "token"}, nil)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := OAuthConfig("app-key", "app-secret", "https://127.0.0.1", server.URL)
	provider := NewProvider(ctx, cfg, cachePath, nil)

	_, err := provider.Token()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLoginRequired)
}
