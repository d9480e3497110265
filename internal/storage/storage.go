// Package storage persists browser sessions and their key/value storage for
// the portal server, on SQLite or PostgreSQL.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/curatime/portal/internal/session"
)

// ErrSessionNotFound is returned for unknown or expired browser sessions.
var ErrSessionNotFound = errors.New("browser session not found")

// Backend stores browser sessions and their entries. Get returns
// session.ErrNotFound for a missing key.
type Backend interface {
	CreateSession(ctx context.Context, ttl time.Duration) (*BrowserSession, error)
	GetSession(ctx context.Context, id string) (*BrowserSession, error)
	TouchSession(ctx context.Context, id string, ttl time.Duration) error
	DeleteSession(ctx context.Context, id string) error

	Get(ctx context.Context, sessionID, key string) (string, error)
	Set(ctx context.Context, sessionID, key, value string) error
	Delete(ctx context.Context, sessionID, key string) error

	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
	Close() error
}

// Open picks the backend from the URL scheme: postgres:// and postgresql://
// go to PostgreSQL, anything else is a SQLite path (an optional sqlite://
// prefix is stripped).
func Open(databaseURL string, logger zerolog.Logger) (Backend, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return OpenPostgres(databaseURL)
	case databaseURL == "":
		return nil, fmt.Errorf("database URL is empty")
	default:
		return OpenSQLite(strings.TrimPrefix(databaseURL, "sqlite://"), logger)
	}
}

// Store hands out per-session views of a Backend, sealing values when a
// Sealer is configured.
type Store struct {
	backend Backend
	sealer  *Sealer
	logger  zerolog.Logger
}

// NewStore wraps backend. sealer may be nil to store values as is.
func NewStore(backend Backend, sealer *Sealer, logger zerolog.Logger) *Store {
	return &Store{backend: backend, sealer: sealer, logger: logger.With().Str("component", "storage").Logger()}
}

// Backend returns the wrapped backend.
func (s *Store) Backend() Backend {
	return s.backend
}

// ForSession returns the session.Store of browser session id.
func (s *Store) ForSession(id string) session.Store {
	return &sessionStore{id: id, backend: s.backend, sealer: s.sealer, logger: s.logger}
}

type sessionStore struct {
	id      string
	backend Backend
	sealer  *Sealer
	logger  zerolog.Logger
}

func (s *sessionStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.backend.Get(ctx, s.id, key)
	if err != nil {
		return "", err
	}
	if s.sealer == nil {
		return value, nil
	}
	plain, err := s.sealer.Open(value, s.id, key)
	if errors.Is(err, ErrSealed) {
		// Sealed under another storage key: the value is gone for good.
		s.logger.Warn().Str("session_id", s.id).Str("key", key).Msg("Dropping stored value that cannot be opened")
		if err := s.backend.Delete(ctx, s.id, key); err != nil && !errors.Is(err, session.ErrNotFound) {
			s.logger.Warn().Err(err).Str("session_id", s.id).Str("key", key).Msg("Failed to drop stale stored value")
		}
		return "", session.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", key, err)
	}
	return plain, nil
}

func (s *sessionStore) Set(ctx context.Context, key, value string) error {
	if s.sealer != nil {
		sealed, err := s.sealer.Seal(value, s.id, key)
		if err != nil {
			return fmt.Errorf("failed to seal %s: %w", key, err)
		}
		value = sealed
	}
	return s.backend.Set(ctx, s.id, key, value)
}

func (s *sessionStore) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, s.id, key)
}
