// Package auth keeps CLI sessions in the OS keychain, one set of session keys
// per environment.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/curatime/portal/internal/session"
)

const (
	service = "curatime-cli"
)

// getKeyringKey returns a unique key for one session value of one environment
func getKeyringKey(apiURL, key string) string {
	return fmt.Sprintf("%s|%s", apiURL, key)
}

// KeyringStore is a session.Store backed by the OS keychain/credential manager
type KeyringStore struct {
	apiURL string
}

// NewKeyringStore returns the keychain store of the environment at apiURL
func NewKeyringStore(apiURL string) *KeyringStore {
	return &KeyringStore{apiURL: apiURL}
}

func (s *KeyringStore) Get(_ context.Context, key string) (string, error) {
	value, err := keyring.Get(service, getKeyringKey(s.apiURL, key))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", session.ErrNotFound
		}
		return "", fmt.Errorf("failed to load %s: %w", key, err)
	}
	return value, nil
}

func (s *KeyringStore) Set(_ context.Context, key, value string) error {
	if err := keyring.Set(service, getKeyringKey(s.apiURL, key), value); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

func (s *KeyringStore) Delete(_ context.Context, key string) error {
	if err := keyring.Delete(service, getKeyringKey(s.apiURL, key)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// StoreFactory opens the session store of an environment. Commands take one
// so tests can swap the keychain for memory.
type StoreFactory func(apiURL string) session.Store

// Default opens keychain-backed stores
var Default StoreFactory = func(apiURL string) session.Store {
	return NewKeyringStore(apiURL)
}
