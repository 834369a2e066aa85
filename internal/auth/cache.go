package auth

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// tokenCache is the JSON structure for the cached token file.
type tokenCache struct {
	AccessToken     string `json:"access_token"`
	RefreshToken    string `json:"refresh_token"`
	ExpiresAt       int64  `json:"expires_at"`
	RefreshIssuedAt int64  `json:"refresh_issued_at"`
}

// SaveToken writes a token to the cache file.
// Creates parent directories if needed with 0700 permissions.
// The file is written with 0600 permissions.
func SaveToken(path string, token *Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := json.Marshal(tokenCache{
		AccessToken:     token.AccessToken,
		RefreshToken:    token.RefreshToken,
		ExpiresAt:       token.ExpiresAt,
		RefreshIssuedAt: token.RefreshIssuedAt,
	})
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// LoadToken reads a token from the cache file.
func LoadToken(path string) (*Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cache tokenCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, err
	}

	return &Token{
		AccessToken:     cache.AccessToken,
		RefreshToken:    cache.RefreshToken,
		ExpiresAt:       cache.ExpiresAt,
		RefreshIssuedAt: cache.RefreshIssuedAt,
	}, nil
}

// DeleteToken removes the token cache file.
// Returns nil if the file doesn't exist.
func DeleteToken(path string) error {
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// TokenCachePath returns the path to the token cache file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/sch.
func TokenCachePath() string {
	var configDir string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		configDir = filepath.Join(xdg, "sch")
	} else {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".config", "sch")
	}
	return filepath.Join(configDir, ".token_cache")
}
