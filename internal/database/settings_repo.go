package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

var ErrSettingNotFound = errors.New("setting not found")

// Common settings keys
const (
	SettingSessionSecret = "session.secret"
)

// SettingsRepo handles settings database operations
type SettingsRepo struct {
	db *sqlx.DB
}

// NewSettingsRepo creates a new settings repository
func NewSettingsRepo(db *sqlx.DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

// Get retrieves a setting value
func (r *SettingsRepo) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.GetContext(ctx, &value, r.db.Rebind("SELECT value FROM settings WHERE key = ?"), key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrSettingNotFound
	}
	return value, err
}

// Set sets a setting value
func (r *SettingsRepo) Set(ctx context.Context, key, value string) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = ?
	`), key, value, now, value, now)
	return err
}

// SetIfAbsent stores value only when key has no value yet and returns
// whichever value is stored afterwards.
func (r *SettingsRepo) SetIfAbsent(ctx context.Context, key, value string) (string, error) {
	var stored string
	err := WithTx(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO NOTHING
		`), key, value, time.Now().UTC())
		if err != nil {
			return err
		}
		return tx.GetContext(ctx, &stored, tx.Rebind("SELECT value FROM settings WHERE key = ?"), key)
	})
	return stored, err
}
