package postgres

import (
	"context"
	"database/sql"
	"errors"

	"socialdl/internal/domain"
)

// SettingRepo implements repository.SettingRepository
type SettingRepo struct {
	db *sql.DB
}

// NewSettingRepo creates a new settings repository
func NewSettingRepo(db *sql.DB) *SettingRepo {
	return &SettingRepo{db: db}
}

// GetSetting returns the value of key; ok is false when the key is absent
func (r *SettingRepo) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM bot_settings WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, storeErr("get setting", err)
	}
	return value, true, nil
}

// SetSetting inserts or overwrites a setting
func (r *SettingRepo) SetSetting(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO bot_settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`
	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return storeErr("set setting", err)
	}
	return nil
}

// ListSettings returns all settings ordered by key
func (r *SettingRepo) ListSettings(ctx context.Context) ([]domain.Setting, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM bot_settings ORDER BY key`)
	if err != nil {
		return nil, storeErr("list settings", err)
	}
	defer rows.Close()

	var settings []domain.Setting
	for rows.Next() {
		var s domain.Setting
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, storeErr("list settings", err)
		}
		settings = append(settings, s)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("list settings", err)
	}
	return settings, nil
}
