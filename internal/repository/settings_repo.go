package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"anagramgame/internal/database"
)

// Setting keys
const (
	SettingAutoApprove = "auto_approve_submissions"
)

// ErrSettingNotFound is returned for keys that were never written
var ErrSettingNotFound = errors.New("setting not found")

type SettingsRepository struct {
	db *database.DB
}

func NewSettingsRepository(db *database.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetSetting retrieves a setting value by key
func (r *SettingsRepository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT setting_value FROM settings WHERE setting_key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrSettingNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, nil
}

// AllSettings returns every stored setting
func (r *SettingsRepository) AllSettings(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT setting_key, setting_value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings[key] = value
	}
	return settings, rows.Err()
}

// SetSetting updates or inserts a setting
func (r *SettingsRepository) SetSetting(ctx context.Context, key, value string) error {
	if _, err := r.db.ExecContext(ctx, r.db.Dialect.UpsertSetting(), key, value); err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}
