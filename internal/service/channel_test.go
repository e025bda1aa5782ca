package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"socialdl/internal/domain"
	"socialdl/internal/testutil"
)

func TestChannelService_Add(t *testing.T) {
	tests := []struct {
		name       string
		input      domain.LockedChannel
		expectedID string
		expectErr  bool
	}{
		{
			name:       "username gets @ prefix",
			input:      domain.LockedChannel{ChannelID: "news", Name: "News", Link: "https://t.me/news", IsActive: true},
			expectedID: "@news",
		},
		{
			name:       "numeric id kept",
			input:      domain.LockedChannel{ChannelID: "-1001234", Name: "Private", Link: "https://t.me/+x", IsActive: true},
			expectedID: "-1001234",
		},
		{
			name:      "missing link",
			input:     domain.LockedChannel{ChannelID: "@news", Name: "News"},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(testutil.MockChannelRepository)
			if !tt.expectErr {
				mockRepo.On("AddChannel", mock.Anything, mock.MatchedBy(func(c domain.LockedChannel) bool {
					return c.ChannelID == tt.expectedID
				})).Return(int64(5), nil)
			}

			ch, err := NewChannelService(mockRepo, testutil.NewTestLogger()).Add(context.Background(), tt.input)

			if tt.expectErr {
				assert.ErrorIs(t, err, ErrInvalidChannel)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(5), ch.ID)
			assert.Equal(t, tt.expectedID, ch.ChannelID)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestChannelService_SetActiveAndRemove(t *testing.T) {
	mockRepo := new(testutil.MockChannelRepository)
	mockRepo.On("SetChannelActive", mock.Anything, int64(2), false).Return(nil)
	mockRepo.On("RemoveChannel", mock.Anything, int64(3)).Return(domain.ErrNotFound)

	svc := NewChannelService(mockRepo, testutil.NewTestLogger())

	assert.NoError(t, svc.SetActive(context.Background(), 2, false))
	assert.ErrorIs(t, svc.Remove(context.Background(), 3), domain.ErrNotFound)
	mockRepo.AssertExpectations(t)
}
