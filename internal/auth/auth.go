// Package auth implements the Schwab OAuth2 authorization-code flow and
// caches the resulting tokens on disk.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	authorizePath = "/v1/oauth/authorize"
	tokenPath     = "/v1/oauth/token"

	// RefreshTokenLifetime is how long a refresh token stays usable after
	// the interactive login that issued it.
	RefreshTokenLifetime = 7 * 24 * time.Hour

	// expirySkew treats access tokens as expired slightly early so a token
	// does not lapse in flight.
	expirySkew = 30 * time.Second

	httpTimeout = 30 * time.Second
)

// ErrLoginRequired is returned when no usable token is cached and the user
// must run the login flow again.
var ErrLoginRequired = errors.New("login required: run 'sch login'")

// Token is a cached access/refresh token pair. Times are Unix seconds.
type Token struct {
	AccessToken     string
	RefreshToken    string
	ExpiresAt       int64
	RefreshIssuedAt int64
}

// IsValid returns true if the access token has not expired.
func (t *Token) IsValid() bool {
	return t.AccessToken != "" && t.ExpiresAt > time.Now().Add(expirySkew).Unix()
}

// CanRefresh reports whether the refresh token is present and still within
// RefreshTokenLifetime.
func (t *Token) CanRefresh() bool {
	if t.RefreshToken == "" {
		return false
	}
	return time.Unix(t.RefreshIssuedAt, 0).Add(RefreshTokenLifetime).After(time.Now())
}

// RefreshExpiresAt returns when the refresh token stops working.
func (t *Token) RefreshExpiresAt() time.Time {
	return time.Unix(t.RefreshIssuedAt, 0).Add(RefreshTokenLifetime)
}

func (t *Token) oauth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       time.Unix(t.ExpiresAt, 0),
	}
}

// OAuthConfig builds the oauth2 configuration for a Schwab developer app.
// The app key and secret are sent in a Basic Authorization header.
func OAuthConfig(appKey, appSecret, callbackURL, baseURL string) *oauth2.Config {
	baseURL = strings.TrimSuffix(baseURL, "/")
	return &oauth2.Config{
		ClientID:     appKey,
		ClientSecret: appSecret,
		RedirectURL:  callbackURL,
		Endpoint: oauth2.Endpoint{
			AuthURL:   baseURL + authorizePath,
			TokenURL:  baseURL + tokenPath,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

// AuthorizeURL returns the URL the user opens to grant access.
func AuthorizeURL(cfg *oauth2.Config) string {
	return cfg.AuthCodeURL("")
}

// CodeFromRedirect extracts the authorization code from the URL the browser
// was redirected to. Schwab codes end with an escaped "@", which is decoded.
func CodeFromRedirect(redirectedURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(redirectedURL))
	if err != nil {
		return "", fmt.Errorf("invalid redirect URL: %w", err)
	}
	q := u.Query()
	if e := q.Get("error"); e != "" {
		return "", fmt.Errorf("authorization denied: %s", e)
	}
	code := q.Get("code")
	if code == "" {
		return "", fmt.Errorf("redirect URL has no code parameter")
	}
	return code, nil
}

// ExchangeCode trades the code found in redirectedURL for a token pair.
func ExchangeCode(ctx context.Context, cfg *oauth2.Config, redirectedURL string) (*Token, error) {
	code, err := CodeFromRedirect(redirectedURL)
	if err != nil {
		return nil, err
	}

	tok, err := cfg.Exchange(withHTTPClient(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("empty access token in response")
	}

	now := time.Now()
	return &Token{
		AccessToken:     tok.AccessToken,
		RefreshToken:    tok.RefreshToken,
		ExpiresAt:       expiryOf(tok, now),
		RefreshIssuedAt: now.Unix(),
	}, nil
}

func expiryOf(tok *oauth2.Token, now time.Time) int64 {
	if tok.Expiry.IsZero() {
		// Schwab access tokens last 30 minutes.
		return now.Add(30 * time.Minute).Unix()
	}
	return tok.Expiry.Unix()
}

// withHTTPClient attaches a client with a timeout unless one is already set.
func withHTTPClient(ctx context.Context) context.Context {
	if _, ok := ctx.Value(oauth2.HTTPClient).(*http.Client); ok {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: httpTimeout})
}
