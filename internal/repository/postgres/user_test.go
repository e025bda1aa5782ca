package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialdl/internal/domain"
)

var userColumns = []string{
	"id", "telegram_id", "first_name", "last_name", "username", "language_code",
	"is_bot", "current_state", "is_blocked", "created_at", "last_activity",
}

func TestUserRepo_GetUser(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name          string
		mockRows      *sqlmock.Rows
		mockError     error
		expectedNil   bool
		expectedState domain.State
		expectedError bool
	}{
		{
			name: "awaiting user",
			mockRows: sqlmock.NewRows(userColumns).
				AddRow(1, 123, "Ada", "", "ada", "en", false, "awaiting_link:tiktok", false, now, now),
			expectedState: domain.AwaitingLink(domain.PlatformTikTok),
		},
		{
			name: "legacy state",
			mockRows: sqlmock.NewRows(userColumns).
				AddRow(1, 123, "Ada", "", "ada", "en", false, "waiting_for_link_youtube", false, now, now),
			expectedState: domain.AwaitingLink(domain.PlatformYouTube),
		},
		{
			name:        "user not exists",
			mockError:   sql.ErrNoRows,
			expectedNil: true,
		},
		{
			name:          "connection lost",
			mockError:     errors.New("connection refused"),
			expectedNil:   true,
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			repo := NewUserRepo(db)

			query := "SELECT id, telegram_id, .* FROM users WHERE telegram_id = \\$1"
			if tt.mockError != nil {
				mock.ExpectQuery(query).WithArgs(123).WillReturnError(tt.mockError)
			} else {
				mock.ExpectQuery(query).WithArgs(123).WillReturnRows(tt.mockRows)
			}

			user, err := repo.GetUser(context.Background(), 123)

			if tt.expectedError {
				var storeErr *domain.StoreError
				assert.ErrorAs(t, err, &storeErr)
			} else {
				assert.NoError(t, err)
			}
			if tt.expectedNil {
				assert.Nil(t, user)
			} else {
				require.NotNil(t, user)
				assert.Equal(t, int64(123), user.TelegramID)
				assert.Equal(t, tt.expectedState, user.State)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepo_UpsertUser_Idempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepo(db)
	profile := domain.Profile{TelegramID: 123, FirstName: "Ada", Username: "ada", LanguageCode: "en"}

	mock.ExpectQuery("INSERT INTO users .* ON CONFLICT \\(telegram_id\\) DO UPDATE").
		WithArgs(123, "Ada", "", "ada", "en", false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "inserted"}).AddRow(7, true))
	mock.ExpectQuery("INSERT INTO users .* ON CONFLICT \\(telegram_id\\) DO UPDATE").
		WithArgs(123, "Ada", "", "ada", "en", false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "inserted"}).AddRow(7, false))

	id1, created1, err := repo.UpsertUser(context.Background(), profile)
	require.NoError(t, err)
	id2, created2, err := repo.UpsertUser(context.Background(), profile)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.True(t, created1)
	assert.False(t, created2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_UpsertUser_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO users").WillReturnError(errors.New("connection reset"))

	_, _, err = NewUserRepo(db).UpsertUser(context.Background(), domain.Profile{TelegramID: 1})

	var storeErr *domain.StoreError
	assert.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "upsert user", storeErr.Op)
}

func TestUserRepo_SetState(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE users SET current_state").
		WithArgs("awaiting_link:instagram", 123).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewUserRepo(db).SetState(context.Background(), 123, domain.AwaitingLink(domain.PlatformInstagram))

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_TakeState(t *testing.T) {
	tests := []struct {
		name     string
		mockRows *sqlmock.Rows
		mockErr  error
		expected domain.State
		wantErr  bool
	}{
		{
			name:     "awaiting state returned and reset",
			mockRows: sqlmock.NewRows([]string{"current_state"}).AddRow("awaiting_link:x"),
			expected: domain.AwaitingLink(domain.PlatformX),
		},
		{
			name:     "idle state",
			mockRows: sqlmock.NewRows([]string{"current_state"}).AddRow("idle"),
			expected: domain.Idle(),
		},
		{
			name:     "unknown user is idle",
			mockErr:  sql.ErrNoRows,
			expected: domain.Idle(),
		},
		{
			name:     "store failure",
			mockErr:  errors.New("timeout"),
			expected: domain.Idle(),
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			exp := mock.ExpectQuery("WITH prev AS .* UPDATE users SET current_state = \\$2").WithArgs(123, "idle")
			if tt.mockErr != nil {
				exp.WillReturnError(tt.mockErr)
			} else {
				exp.WillReturnRows(tt.mockRows)
			}

			state, err := NewUserRepo(db).TakeState(context.Background(), 123)

			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.expected, state)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepo_SetBlocked(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE users SET is_blocked").
		WithArgs(true, 123).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewUserRepo(db).SetBlocked(context.Background(), 123, true)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_CountUsers(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := NewUserRepo(db).CountUsers(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 42, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
