package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/jonandersen/sch/pkg/schwabapi"
)

// Provider supplies access tokens from the cache file, refreshing them with
// the refresh token when they expire. Refreshed tokens are written back.
type Provider struct {
	ctx       context.Context
	cfg       *oauth2.Config
	cachePath string
	logger    schwabapi.Logger

	mu    sync.Mutex
	token *Token
}

// NewProvider creates a Provider. ctx bounds refresh requests.
func NewProvider(ctx context.Context, cfg *oauth2.Config, cachePath string, logger schwabapi.Logger) *Provider {
	if logger == nil {
		logger = schwabapi.NewNopLogger()
	}
	return &Provider{
		ctx:       ctx,
		cfg:       cfg,
		cachePath: cachePath,
		logger:    logger,
	}
}

// Token returns a valid access token.
func (p *Provider) Token() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token == nil {
		tok, err := LoadToken(p.cachePath)
		if err != nil {
			p.logger.Debug("no usable token cache", "path", p.cachePath, "err", err)
			return "", ErrLoginRequired
		}
		p.token = tok
	}

	if p.token.IsValid() {
		return p.token.AccessToken, nil
	}
	if err := p.refresh(); err != nil {
		return "", err
	}
	return p.token.AccessToken, nil
}

// InvalidateToken marks the current access token as expired so the next
// Token call refreshes it.
func (p *Provider) InvalidateToken() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.token != nil {
		p.token.ExpiresAt = 0
	}
}

func (p *Provider) refresh() error {
	if !p.token.CanRefresh() {
		return ErrLoginRequired
	}

	expired := p.token.oauth2Token()
	expired.Expiry = time.Unix(1, 0)

	fresh, err := p.cfg.TokenSource(withHTTPClient(p.ctx), expired).Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil &&
			(re.Response.StatusCode == http.StatusBadRequest || re.Response.StatusCode == http.StatusUnauthorized) {
			return fmt.Errorf("%w (refresh rejected: %v)", ErrLoginRequired, err)
		}
		return fmt.Errorf("failed to refresh token: %w", err)
	}

	next := &Token{
		AccessToken:     fresh.AccessToken,
		RefreshToken:    fresh.RefreshToken,
		ExpiresAt:       expiryOf(fresh, time.Now()),
		RefreshIssuedAt: p.token.RefreshIssuedAt,
	}
	if next.RefreshToken == "" {
		next.RefreshToken = p.token.RefreshToken
	}
	p.token = next
	p.logger.Debug("access token refreshed", "expires_at", time.Unix(next.ExpiresAt, 0))

	if err := SaveToken(p.cachePath, next); err != nil {
		p.logger.Warn("failed to persist refreshed token", "path", p.cachePath, "err", err)
	}
	return nil
}
