package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/curatime/portal/internal/session"
)

// GormBackend stores sessions in SQLite through GORM.
type GormBackend struct {
	db  *gorm.DB
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the SQLite database at path and
// migrates it.
func OpenSQLite(path string, zlog zerolog.Logger) (*GormBackend, error) {
	const (
		maxOpenConns      = 8
		maxIdleConns      = 4
		connMaxLifetime   = 300   // 5 minutes
		busyTimeout       = 5000  // 5 seconds
		cacheSize         = 10000 // 10MB
		walAutocheckpoint = 1000  // pages
	)

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// WAL mode must be set first
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA wal_autocheckpoint=%d", walAutocheckpoint),
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		fmt.Sprintf("PRAGMA cache_size=-%d", cacheSize),
		"PRAGMA foreign_keys=1",
		"PRAGMA temp_store=2",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	zlog.Info().Str("path", path).Msg("Session storage opened")
	return &GormBackend{db: db, now: time.Now}, nil
}

// DB exposes the underlying GORM handle.
func (b *GormBackend) DB() *gorm.DB {
	return b.db
}

func (b *GormBackend) CreateSession(ctx context.Context, ttl time.Duration) (*BrowserSession, error) {
	now := b.now().UTC()
	s := &BrowserSession{LastSeenAt: now, ExpiresAt: now.Add(ttl)}
	if err := b.db.WithContext(ctx).Create(s).Error; err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return s, nil
}

func (b *GormBackend) GetSession(ctx context.Context, id string) (*BrowserSession, error) {
	var s BrowserSession
	err := b.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
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

func (b *GormBackend) TouchSession(ctx context.Context, id string, ttl time.Duration) error {
	now := b.now().UTC()
	result := b.db.WithContext(ctx).Model(&BrowserSession{}).
		Where("id = ?", id).
		Updates(map[string]any{"last_seen_at": now, "expires_at": now.Add(ttl)})
	if result.Error != nil {
		return fmt.Errorf("failed to touch session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (b *GormBackend) DeleteSession(ctx context.Context, id string) error {
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&StorageEntry{}).Error; err != nil {
			return fmt.Errorf("failed to delete session entries: %w", err)
		}
		if err := tx.Where("id = ?", id).Delete(&BrowserSession{}).Error; err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		return nil
	})
}

func (b *GormBackend) Get(ctx context.Context, sessionID, key string) (string, error) {
	var entry StorageEntry
	err := b.db.WithContext(ctx).
		Where("session_id = ? AND storage_key = ?", sessionID, key).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", session.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return entry.Value, nil
}

func (b *GormBackend) Set(ctx context.Context, sessionID, key, value string) error {
	entry := StorageEntry{SessionID: sessionID, Key: key, Value: value, UpdatedAt: b.now().UTC()}
	err := b.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "storage_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (b *GormBackend) Delete(ctx context.Context, sessionID, key string) error {
	err := b.db.WithContext(ctx).
		Where("session_id = ? AND storage_key = ?", sessionID, key).
		Delete(&StorageEntry{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// PurgeExpired removes sessions expired at now along with their entries and
// returns the number of sessions removed.
func (b *GormBackend) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	now = now.UTC()
	var purged int64
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expired := tx.Model(&BrowserSession{}).Select("id").Where("expires_at <= ?", now)
		if err := tx.Where("session_id IN (?)", expired).Delete(&StorageEntry{}).Error; err != nil {
			return err
		}
		result := tx.Where("expires_at <= ?", now).Delete(&BrowserSession{})
		if result.Error != nil {
			return result.Error
		}
		purged = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}
	return purged, nil
}

func (b *GormBackend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
