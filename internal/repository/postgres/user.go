package postgres

import (
	"context"
	"database/sql"
	"errors"

	"socialdl/internal/domain"
)

// UserRepo implements repository.UserRepository
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetUser returns nil when the user has never contacted the bot
func (r *UserRepo) GetUser(ctx context.Context, telegramID int64) (*domain.User, error) {
	query := `
		SELECT id, telegram_id, first_name, last_name, username, language_code,
		       is_bot, current_state, is_blocked, created_at, last_activity
		FROM users
		WHERE telegram_id = $1
	`

	var u domain.User
	var state string
	err := r.db.QueryRowContext(ctx, query, telegramID).Scan(
		&u.ID,
		&u.TelegramID,
		&u.FirstName,
		&u.LastName,
		&u.Username,
		&u.LanguageCode,
		&u.IsBot,
		&state,
		&u.IsBlocked,
		&u.CreatedAt,
		&u.LastActivity,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get user", err)
	}

	u.State = domain.ParseState(state)
	return &u, nil
}

// UpsertUser creates the user or refreshes its profile and last activity.
// An inbound event proves the user has not blocked the bot.
// xmax is zero only for a freshly inserted row version.
func (r *UserRepo) UpsertUser(ctx context.Context, p domain.Profile) (int64, bool, error) {
	query := `
		INSERT INTO users (telegram_id, first_name, last_name, username, language_code, is_bot)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (telegram_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			username = EXCLUDED.username,
			language_code = EXCLUDED.language_code,
			is_bot = EXCLUDED.is_bot,
			is_blocked = FALSE,
			last_activity = NOW()
		RETURNING id, (xmax = 0) AS inserted
	`

	var id int64
	var inserted bool
	err := r.db.QueryRowContext(ctx, query,
		p.TelegramID, p.FirstName, p.LastName, p.Username, p.LanguageCode, p.IsBot,
	).Scan(&id, &inserted)
	if err != nil {
		return 0, false, storeErr("upsert user", err)
	}

	return id, inserted, nil
}

// SetState stores the conversation state of an existing user
func (r *UserRepo) SetState(ctx context.Context, telegramID int64, state domain.State) error {
	query := `UPDATE users SET current_state = $1 WHERE telegram_id = $2`
	if _, err := r.db.ExecContext(ctx, query, state.String(), telegramID); err != nil {
		return storeErr("set state", err)
	}
	return nil
}

// TakeState reads the state and resets it to idle. A missing user is idle.
func (r *UserRepo) TakeState(ctx context.Context, telegramID int64) (domain.State, error) {
	query := `
		WITH prev AS (
			SELECT current_state FROM users WHERE telegram_id = $1 FOR UPDATE
		)
		UPDATE users SET current_state = $2
		WHERE telegram_id = $1
		RETURNING (SELECT current_state FROM prev)
	`

	var raw string
	err := r.db.QueryRowContext(ctx, query, telegramID, domain.Idle().String()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Idle(), nil
	}
	if err != nil {
		return domain.Idle(), storeErr("take state", err)
	}

	return domain.ParseState(raw), nil
}

// SetBlocked flags whether the user has blocked the bot
func (r *UserRepo) SetBlocked(ctx context.Context, telegramID int64, blocked bool) error {
	query := `UPDATE users SET is_blocked = $1 WHERE telegram_id = $2`
	if _, err := r.db.ExecContext(ctx, query, blocked, telegramID); err != nil {
		return storeErr("set blocked", err)
	}
	return nil
}

// CountUsers returns the total number of known users
func (r *UserRepo) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, storeErr("count users", err)
	}
	return count, nil
}

func storeErr(op string, err error) error {
	return &domain.StoreError{Op: op, Err: err}
}

// rowsAffected maps an update that matched nothing to domain.ErrNotFound
func rowsAffected(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr(op, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
