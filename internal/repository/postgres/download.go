package postgres

import (
	"context"
	"database/sql"
	"time"

	"socialdl/internal/domain"
)

// DownloadRepo implements repository.DownloadRepository
type DownloadRepo struct {
	db *sql.DB
}

// NewDownloadRepo creates a new download log repository
func NewDownloadRepo(db *sql.DB) *DownloadRepo {
	return &DownloadRepo{db: db}
}

// AppendLog inserts one status row; rows are never updated
func (r *DownloadRepo) AppendLog(ctx context.Context, e domain.DownloadLogEntry) (int64, error) {
	query := `
		INSERT INTO downloads (user_id, telegram_user_id, platform, url, status, file_path, file_size_bytes, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	var userID sql.NullInt64
	if e.UserID != 0 {
		userID = sql.NullInt64{Int64: e.UserID, Valid: true}
	}

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		userID,
		e.TelegramUserID,
		string(e.Platform),
		e.URL,
		string(e.Status),
		nullString(e.FilePath),
		nullInt64(e.FileSize),
		nullString(e.ErrorMessage),
	).Scan(&id)
	if err != nil {
		return 0, storeErr("append download log", err)
	}

	return id, nil
}

// RecentLogs returns the newest entries first
func (r *DownloadRepo) RecentLogs(ctx context.Context, limit int) ([]domain.DownloadLogEntry, error) {
	query := `
		SELECT id, COALESCE(user_id, 0), telegram_user_id, platform, url, status,
		       file_path, file_size_bytes, error_message, created_at
		FROM downloads
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, storeErr("recent downloads", err)
	}
	defer rows.Close()

	var entries []domain.DownloadLogEntry
	for rows.Next() {
		var e domain.DownloadLogEntry
		var platform, status string
		var filePath, errMsg sql.NullString
		var fileSize sql.NullInt64
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.TelegramUserID, &platform, &e.URL, &status,
			&filePath, &fileSize, &errMsg, &e.CreatedAt,
		); err != nil {
			return nil, storeErr("recent downloads", err)
		}
		e.Platform = domain.Platform(platform)
		e.Status = domain.DownloadStatus(status)
		if filePath.Valid {
			e.FilePath = &filePath.String
		}
		if fileSize.Valid {
			e.FileSize = &fileSize.Int64
		}
		if errMsg.Valid {
			e.ErrorMessage = &errMsg.String
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("recent downloads", err)
	}
	return entries, nil
}

// CountByStatus returns the number of log rows per status
func (r *DownloadRepo) CountByStatus(ctx context.Context) (map[domain.DownloadStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM downloads GROUP BY status`)
	if err != nil {
		return nil, storeErr("count downloads", err)
	}
	defer rows.Close()

	counts := make(map[domain.DownloadStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, storeErr("count downloads", err)
		}
		counts[domain.DownloadStatus(status)] = n
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("count downloads", err)
	}
	return counts, nil
}

// DeleteOlderThan prunes log rows created before cutoff
func (r *DownloadRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM downloads WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, storeErr("prune downloads", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storeErr("prune downloads", err)
	}
	return n, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt64(n *int64) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *n, Valid: true}
}
