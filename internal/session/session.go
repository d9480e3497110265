// Package session owns the client-side credential storage contract: which keys
// hold the bearer token, in which order they are consulted, and the stores
// that back them (memory, OS keyring, portal browser storage).
package session

import (
	"context"
	"errors"
	"fmt"
)

// Storage keys. The first three hold the bearer token and are consulted in
// TokenKeys order; the legacy ones only exist in sessions created by older
// clients.
const (
	KeyAuthToken    = "authToken"
	KeyToken        = "token"
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refreshToken"
	KeyUser         = "user"
	KeyUserType     = "userType"
)

// TokenKeys lists the credential keys in precedence order, modern key first.
var TokenKeys = []string{KeyAuthToken, KeyToken, KeyAccessToken}

// ErrNotFound is returned by stores when a key holds no value.
var ErrNotFound = errors.New("session: key not found")

// Store is a string key/value store scoped to one user session.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Resolver reads the bearer token out of a Store. It never writes.
type Resolver struct {
	store Store
}

// NewResolver creates a token resolver over store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Token returns the first non-empty token found under TokenKeys, or "" when
// none is stored.
func (r *Resolver) Token(ctx context.Context) (string, error) {
	return ResolveToken(ctx, r.store)
}

// ResolveToken applies the key precedence to store.
func ResolveToken(ctx context.Context, store Store) (string, error) {
	for _, key := range TokenKeys {
		value, err := store.Get(ctx, key)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return "", fmt.Errorf("failed to read %s: %w", key, err)
		}
		if value != "" {
			return value, nil
		}
	}
	return "", nil
}

// Promote copies a token found only under a legacy key into KeyAuthToken so
// that the modern key becomes the canonical one. It reports whether a write
// happened. Legacy keys are left in place; Clear removes them at logout.
func Promote(ctx context.Context, store Store) (bool, error) {
	current, err := store.Get(ctx, KeyAuthToken)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return false, fmt.Errorf("failed to read %s: %w", KeyAuthToken, err)
	}
	if current != "" {
		return false, nil
	}

	token, err := ResolveToken(ctx, store)
	if err != nil {
		return false, err
	}
	if token == "" {
		return false, nil
	}

	if err := store.Set(ctx, KeyAuthToken, token); err != nil {
		return false, fmt.Errorf("failed to promote legacy token: %w", err)
	}
	return true, nil
}

// Clear deletes every credential and identity key from store.
func Clear(ctx context.Context, store Store) error {
	keys := append([]string{}, TokenKeys...)
	keys = append(keys, KeyRefreshToken, KeyUser, KeyUserType)

	var errs []error
	for _, key := range keys {
		if err := store.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
			errs = append(errs, fmt.Errorf("failed to delete %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
