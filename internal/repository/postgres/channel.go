package postgres

import (
	"context"
	"database/sql"

	"socialdl/internal/domain"
)

// ChannelRepo implements repository.ChannelRepository
type ChannelRepo struct {
	db *sql.DB
}

// NewChannelRepo creates a new locked channel repository
func NewChannelRepo(db *sql.DB) *ChannelRepo {
	return &ChannelRepo{db: db}
}

// ListChannels returns channels in insertion order
func (r *ChannelRepo) ListChannels(ctx context.Context, activeOnly bool) ([]domain.LockedChannel, error) {
	query := `
		SELECT id, channel_id, name, link, is_active
		FROM locked_channels
		WHERE is_active OR NOT $1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, activeOnly)
	if err != nil {
		return nil, storeErr("list channels", err)
	}
	defer rows.Close()

	var channels []domain.LockedChannel
	for rows.Next() {
		var c domain.LockedChannel
		if err := rows.Scan(&c.ID, &c.ChannelID, &c.Name, &c.Link, &c.IsActive); err != nil {
			return nil, storeErr("list channels", err)
		}
		channels = append(channels, c)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("list channels", err)
	}
	return channels, nil
}

// AddChannel stores a new requirement
func (r *ChannelRepo) AddChannel(ctx context.Context, c domain.LockedChannel) (int64, error) {
	query := `
		INSERT INTO locked_channels (channel_id, name, link, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64
	if err := r.db.QueryRowContext(ctx, query, c.ChannelID, c.Name, c.Link, c.IsActive).Scan(&id); err != nil {
		return 0, storeErr("add channel", err)
	}
	return id, nil
}

// SetChannelActive toggles a requirement on or off
func (r *ChannelRepo) SetChannelActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE locked_channels SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return storeErr("set channel active", err)
	}
	return rowsAffected("set channel active", res)
}

// RemoveChannel deletes a requirement
func (r *ChannelRepo) RemoveChannel(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM locked_channels WHERE id = $1`, id)
	if err != nil {
		return storeErr("remove channel", err)
	}
	return rowsAffected("remove channel", res)
}
