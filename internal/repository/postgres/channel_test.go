package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialdl/internal/domain"
)

func TestChannelRepo_ListChannels(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, channel_id, name, link, is_active FROM locked_channels").
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "channel_id", "name", "link", "is_active"}).
			AddRow(1, "@news", "News", "https://t.me/news", true))

	channels, err := NewChannelRepo(db).ListChannels(context.Background(), true)

	require.NoError(t, err)
	assert.Equal(t, []domain.LockedChannel{
		{ID: 1, ChannelID: "@news", Name: "News", Link: "https://t.me/news", IsActive: true},
	}, channels)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChannelRepo_AddChannel(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO locked_channels").
		WithArgs("-100123", "Private", "https://t.me/+abc", true).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	id, err := NewChannelRepo(db).AddChannel(context.Background(), domain.LockedChannel{
		ChannelID: "-100123", Name: "Private", Link: "https://t.me/+abc", IsActive: true,
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(3), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChannelRepo_SetChannelActive(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{name: "updated", affected: 1},
		{name: "unknown id", affected: 0, wantErr: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectExec("UPDATE locked_channels SET is_active").
				WithArgs(false, 3).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			err = NewChannelRepo(db).SetChannelActive(context.Background(), 3, false)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestChannelRepo_RemoveChannel(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM locked_channels WHERE id = \\$1").
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewChannelRepo(db).RemoveChannel(context.Background(), 3)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
