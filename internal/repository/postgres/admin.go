package postgres

import (
	"context"
	"database/sql"
	"errors"

	"socialdl/internal/domain"
)

// AdminRepo implements repository.AdminRepository
type AdminRepo struct {
	db *sql.DB
}

// NewAdminRepo creates a new admin account repository
func NewAdminRepo(db *sql.DB) *AdminRepo {
	return &AdminRepo{db: db}
}

// GetAdminByUsername returns nil when no such admin exists
func (r *AdminRepo) GetAdminByUsername(ctx context.Context, username string) (*domain.AdminUser, error) {
	query := `
		SELECT id, username, password_hash, is_super_admin, telegram_user_id, created_at
		FROM admin_users
		WHERE username = $1
	`

	a, err := scanAdmin(r.db.QueryRowContext(ctx, query, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get admin", err)
	}
	return a, nil
}

// CreateAdmin stores a new admin account
func (r *AdminRepo) CreateAdmin(ctx context.Context, a domain.AdminUser) (int64, error) {
	query := `
		INSERT INTO admin_users (username, password_hash, is_super_admin, telegram_user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		a.Username, a.PasswordHash, a.IsSuperAdmin, nullInt64(a.TelegramUserID),
	).Scan(&id)
	if err != nil {
		return 0, storeErr("create admin", err)
	}
	return id, nil
}

// ListAdmins returns every admin account
func (r *AdminRepo) ListAdmins(ctx context.Context) ([]domain.AdminUser, error) {
	query := `
		SELECT id, username, password_hash, is_super_admin, telegram_user_id, created_at
		FROM admin_users
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storeErr("list admins", err)
	}
	defer rows.Close()

	var admins []domain.AdminUser
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, storeErr("list admins", err)
		}
		admins = append(admins, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("list admins", err)
	}
	return admins, nil
}

// DeleteAdmin removes an admin account
func (r *AdminRepo) DeleteAdmin(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM admin_users WHERE id = $1`, id)
	if err != nil {
		return storeErr("delete admin", err)
	}
	return rowsAffected("delete admin", res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAdmin(s scanner) (*domain.AdminUser, error) {
	var a domain.AdminUser
	var tgID sql.NullInt64
	if err := s.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.IsSuperAdmin, &tgID, &a.CreatedAt); err != nil {
		return nil, err
	}
	if tgID.Valid {
		a.TelegramUserID = &tgID.Int64
	}
	return &a, nil
}
