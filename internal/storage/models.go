package storage

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// BrowserSession is one browser's server-side session, identified by the
// cookie value.
type BrowserSession struct {
	BaseModel
	LastSeenAt time.Time `json:"last_seen_at" gorm:"not null"`
	ExpiresAt  time.Time `json:"expires_at" gorm:"not null;index"`
}

// Expired reports whether the session is past its expiry at now.
func (s *BrowserSession) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// StorageEntry is one key of a session's key/value storage.
type StorageEntry struct {
	SessionID string    `gorm:"primaryKey;type:varchar(26)"`
	Key       string    `gorm:"column:storage_key;primaryKey;type:varchar(64)"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	models := []interface{}{
		&BrowserSession{}, &StorageEntry{},
	}

	return db.AutoMigrate(models...)
}
