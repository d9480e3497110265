package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	_ "github.com/lib/pq"

	"github.com/curatime/portal/internal/session"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS browser_sessions (
	id           varchar(26) PRIMARY KEY,
	created_at   timestamptz NOT NULL,
	last_seen_at timestamptz NOT NULL,
	expires_at   timestamptz NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_browser_sessions_expires_at ON browser_sessions (expires_at);
CREATE TABLE IF NOT EXISTS storage_entries (
	session_id  varchar(26) NOT NULL REFERENCES browser_sessions (id) ON DELETE CASCADE,
	storage_key varchar(64) NOT NULL,
	value       text NOT NULL,
	updated_at  timestamptz NOT NULL,
	PRIMARY KEY (session_id, storage_key)
);
`

// PostgresBackend stores sessions in PostgreSQL through database/sql.
type PostgresBackend struct {
	db  *sql.DB
	now func() time.Time
}

// OpenPostgres connects to connectionString and creates the tables if they
// do not exist.
func OpenPostgres(connectionString string) (*PostgresBackend, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &PostgresBackend{db: db, now: time.Now}, nil
}

func (b *PostgresBackend) CreateSession(ctx context.Context, ttl time.Duration) (*BrowserSession, error) {
	now := b.now().UTC()
	s := &BrowserSession{
		BaseModel:  BaseModel{ID: ulid.Make().String(), CreatedAt: now},
		LastSeenAt: now,
		ExpiresAt:  now.Add(ttl),
	}
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO browser_sessions (id, created_at, last_seen_at, expires_at) VALUES ($1, $2, $3, $4)`,
		s.ID, s.CreatedAt, s.LastSeenAt, s.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return s, nil
}

func (b *PostgresBackend) GetSession(ctx context.Context, id string) (*BrowserSession, error) {
	var s BrowserSession
	err := b.db.QueryRowContext(ctx,
		`SELECT id, created_at, last_seen_at, expires_at FROM browser_sessions WHERE id = $1`, id).
		Scan(&s.ID, &s.CreatedAt, &s.LastSeenAt, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if s.Expired(b.now()) {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (b *PostgresBackend) TouchSession(ctx context.Context, id string, ttl time.Duration) error {
	now := b.now().UTC()
	result, err := b.db.ExecContext(ctx,
		`UPDATE browser_sessions SET last_seen_at = $2, expires_at = $3 WHERE id = $1`,
		id, now, now.Add(ttl))
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteSession removes the session; its entries go with it through the
// foreign key cascade.
func (b *PostgresBackend) DeleteSession(ctx context.Context, id string) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM browser_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Get(ctx context.Context, sessionID, key string) (string, error) {
	var value string
	err := b.db.QueryRowContext(ctx,
		`SELECT value FROM storage_entries WHERE session_id = $1 AND storage_key = $2`, sessionID, key).
		Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", session.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

func (b *PostgresBackend) Set(ctx context.Context, sessionID, key, value string) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO storage_entries (session_id, storage_key, value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id, storage_key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		sessionID, key, value, b.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (b *PostgresBackend) Delete(ctx context.Context, sessionID, key string) error {
	_, err := b.db.ExecContext(ctx,
		`DELETE FROM storage_entries WHERE session_id = $1 AND storage_key = $2`, sessionID, key)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (b *PostgresBackend) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := b.db.ExecContext(ctx, `DELETE FROM browser_sessions WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}
	return result.RowsAffected()
}

func (b *PostgresBackend) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
