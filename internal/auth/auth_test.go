package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tokenServer serves a Schwab-like token endpoint and records the last form.
func tokenServer(t *testing.T, status int, body any, form *url.Values) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/oauth/token", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok, "client credentials should be sent as basic auth")
		assert.Equal(t, "app-key", user)
		assert.Equal(t, "app-secret", pass)

		require.NoError(t, r.ParseForm())
		if form != nil {
			*form = r.PostForm
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
}

func TestOAuthConfig(t *testing.T) {
	cfg := OAuthConfig("app-key", "app-secret", "https://127.0.0.1", "https://api.schwabapi.com/")

	assert.Equal(t, "app-key", cfg.ClientID)
	assert.Equal(t, "https://api.schwabapi.com/v1/oauth/authorize", cfg.Endpoint.AuthURL)
	assert.Equal(t, "https://api.schwabapi.com/v1/oauth/token", cfg.Endpoint.TokenURL)
}

func TestAuthorizeURL(t *testing.T) {
	cfg := OAuthConfig("app-key", "app-secret", "https://127.0.0.1", "https://api.schwabapi.com")

	u, err := url.Parse(AuthorizeURL(cfg))
	require.NoError(t, err)

	assert.Equal(t, "/v1/oauth/authorize", u.Path)
	assert.Equal(t, "app-key", u.Query().Get("client_id"))
	assert.Equal(t, "https://127.0.0.1", u.Query().Get("redirect_uri"))
	assert.Equal(t, "code", u.Query().Get("response_type"))
}

func TestCodeFromRedirect(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr string
	}{
		{
			name:  "escaped at sign",
			input: "https://127.0.0.1/?code=C0.abc%40&session=xyz",
			want:  "C0.abc@",
		},
		{
			name:  "surrounding whitespace",
			input: "  https://127.0.0.1/?code=plain\n",
			want:  "plain",
		},
		{
			name:    "missing code",
			input:   "https://127.0.0.1/?session=xyz",
			wantErr: "no code parameter",
		},
		{
			name:    "denied",
			input:   "https://127.0.0.1/?error=access_denied",
			wantErr: "authorization denied",
		},
		{
			name:    "not a URL",
			input:   "://bad",
			wantErr: "invalid redirect URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CodeFromRedirect(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExchangeCode_Success(t *testing.T) {
	var form url.Values
	server := tokenServer(t, http.StatusOK, map[string]any{
		"access_token":  "access-123",
		"refresh_token": "refresh-456",
		"token_type":    "Bearer",
		"expires_in":    1800,
	}, &form)
	defer server.Close()

	cfg := OAuthConfig("app-key", "app-secret", "https://127.0.0.1", server.URL)

	token, err := ExchangeCode(context.Background(), cfg, "https://127.0.0.1/?code=abc%40&session=s")
	require.NoError(t, err)

	assert.Equal(t, "authorization_code", form.Get("grant_type"))
	assert.Equal(t, "abc@", form.Get("code"))
	assert.Equal(t, "https://127.0.0.1", form.Get("redirect_uri"))

	assert.Equal(t, "access-123", token.AccessToken)
	assert.Equal(t, "refresh-456", token.RefreshToken)
	assert.InDelta(t, time.Now().Unix()+1800, token.ExpiresAt, 5)
	assert.InDelta(t, time.Now().Unix(), token.RefreshIssuedAt, 5)
	assert.True(t, token.CanRefresh())
}

func TestExchangeCode_Rejected(t *testing.T) {
	server := tokenServer(t, http.StatusBadRequest, map[string]any{
		"error":             "invalid_grant",
		"error_description": "code expired",
	}, nil)
	defer server.Close()

	cfg := OAuthConfig("app-key", "app-secret", "https://127.0.0.1", server.URL)

	token, err := ExchangeCode(context.Background(), cfg, "https://127.0.0.1/?code=old")
	assert.Nil(t, token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token exchange failed")
}

func TestExchangeCode_BadRedirect(t *testing.T) {
	cfg := OAuthConfig("app-key", "app-secret", "https://127.0.0.1", "http://unused")

	_, err := ExchangeCode(context.Background(), cfg, "https://127.0.0.1/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no code parameter")
}

func TestToken_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		token Token
		want  bool
	}{
		{name: "expires in an hour", token: Token{AccessToken: "a", ExpiresAt: time.Now().Unix() + 3600}, want: true},
		{name: "expired", token: Token{AccessToken: "a", ExpiresAt: time.Now().Unix() - 60}, want: false},
		{name: "inside skew window", token: Token{AccessToken: "a", ExpiresAt: time.Now().Unix() + 5}, want: false},
		{name: "no access token", token: Token{ExpiresAt: time.Now().Unix() + 3600}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.token.IsValid())
		})
	}
}

func TestToken_CanRefresh(t *testing.T) {
	now := time.Now()

	fresh := Token{RefreshToken: "r", RefreshIssuedAt: now.Add(-time.Hour).Unix()}
	assert.True(t, fresh.CanRefresh())

	stale := Token{RefreshToken: "r", RefreshIssuedAt: now.Add(-8 * 24 * time.Hour).Unix()}
	assert.False(t, stale.CanRefresh())

	missing := Token{RefreshIssuedAt: now.Unix()}
	assert.False(t, missing.CanRefresh())

	issued := Token{RefreshIssuedAt: now.Unix()}
	assert.WithinDuration(t, now.Add(RefreshTokenLifetime), issued.RefreshExpiresAt(), 2*time.Second)
}
