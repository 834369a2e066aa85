// Package keyring stores the Schwab app credentials in the system keyring.
package keyring

import (
	"errors"
	"fmt"
	"os"

	gokeyring "github.com/zalando/go-keyring"
)

const (
	// ServiceName is the keyring service name for storing secrets.
	ServiceName = "com.schwab.sch"

	// KeyAppKey is the keyring key for the developer app key (OAuth client ID).
	KeyAppKey = "app_key"
	// KeyAppSecret is the keyring key for the developer app secret.
	KeyAppSecret = "app_secret"

	// EnvAppKey overrides the keyring app key for CI/headless environments.
	EnvAppKey = "SCHWAB_APP_KEY"
	// EnvAppSecret overrides the keyring app secret.
	EnvAppSecret = "SCHWAB_APP_SECRET"
)

// ErrNotFound is returned when a secret is not found in the keyring.
var ErrNotFound = errors.New("secret not found")

// envOverrides maps keyring keys to the environment variables that shadow them.
var envOverrides = map[string]string{
	KeyAppKey:    EnvAppKey,
	KeyAppSecret: EnvAppSecret,
}

// Store provides an interface for secure secret storage.
type Store interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// Credentials are the developer app credentials issued by Schwab.
type Credentials struct {
	AppKey    string
	AppSecret string
}

// LoadCredentials reads both app credentials from store.
func LoadCredentials(store Store) (Credentials, error) {
	appKey, err := store.Get(ServiceName, KeyAppKey)
	if err != nil {
		return Credentials{}, fmt.Errorf("app key: %w", err)
	}
	appSecret, err := store.Get(ServiceName, KeyAppSecret)
	if err != nil {
		return Credentials{}, fmt.Errorf("app secret: %w", err)
	}
	return Credentials{AppKey: appKey, AppSecret: appSecret}, nil
}

// SaveCredentials writes both app credentials to store.
func SaveCredentials(store Store, creds Credentials) error {
	if err := store.Set(ServiceName, KeyAppKey, creds.AppKey); err != nil {
		return fmt.Errorf("failed to store app key: %w", err)
	}
	if err := store.Set(ServiceName, KeyAppSecret, creds.AppSecret); err != nil {
		return fmt.Errorf("failed to store app secret: %w", err)
	}
	return nil
}

// DeleteCredentials removes both app credentials from store.
func DeleteCredentials(store Store) error {
	return errors.Join(
		store.Delete(ServiceName, KeyAppKey),
		store.Delete(ServiceName, KeyAppSecret),
	)
}

// SystemStore implements Store using the system keyring.
type SystemStore struct{}

// NewSystemStore creates a new system keyring store.
func NewSystemStore() *SystemStore {
	return &SystemStore{}
}

// Get retrieves a secret from the system keyring.
func (s *SystemStore) Get(service, key string) (string, error) {
	secret, err := gokeyring.Get(service, key)
	if err != nil {
		if errors.Is(err, gokeyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return secret, nil
}

// Set stores a secret in the system keyring.
func (s *SystemStore) Set(service, key, value string) error {
	return gokeyring.Set(service, key, value)
}

// Delete removes a secret from the system keyring.
// Deleting a missing secret is not an error.
func (s *SystemStore) Delete(service, key string) error {
	err := gokeyring.Delete(service, key)
	if errors.Is(err, gokeyring.ErrNotFound) {
		return nil
	}
	return err
}

// EnvStore wraps another Store and checks environment variables first.
type EnvStore struct {
	underlying Store
}

// NewEnvStore creates a new EnvStore wrapping the given store.
func NewEnvStore(underlying Store) *EnvStore {
	return &EnvStore{underlying: underlying}
}

// Get returns the environment override for key when set, otherwise the
// underlying value.
func (e *EnvStore) Get(service, key string) (string, error) {
	if env, ok := envOverrides[key]; ok {
		if v := os.Getenv(env); v != "" {
			return v, nil
		}
	}
	return e.underlying.Get(service, key)
}

// Set stores a secret in the underlying store.
func (e *EnvStore) Set(service, key, value string) error {
	return e.underlying.Set(service, key, value)
}

// Delete removes a secret from the underlying store.
func (e *EnvStore) Delete(service, key string) error {
	return e.underlying.Delete(service, key)
}
