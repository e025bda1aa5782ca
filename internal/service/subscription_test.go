package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"socialdl/internal/domain"
	"socialdl/internal/testutil"
)

func newGate(forceSubscribe string) (*SubscriptionGate, *testutil.MockChannelRepository, *testutil.MockMembershipChecker) {
	settingRepo := new(testutil.MockSettingRepository)
	settingRepo.On("GetSetting", mock.Anything, domain.SettingForceSubscribe).Return(forceSubscribe, true, nil)

	channelRepo := new(testutil.MockChannelRepository)
	checker := new(testutil.MockMembershipChecker)
	logger := testutil.NewTestLogger()

	gate := NewSubscriptionGate(NewSettingsService(settingRepo, logger), channelRepo, checker, logger)
	return gate, channelRepo, checker
}

func TestSubscriptionGate_Disabled(t *testing.T) {
	gate, channelRepo, checker := newGate("false")

	ok, unmet := gate.Check(context.Background(), 1)

	assert.True(t, ok)
	assert.Empty(t, unmet)
	channelRepo.AssertNotCalled(t, "ListChannels", mock.Anything, mock.Anything)
	checker.AssertNotCalled(t, "MemberStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubscriptionGate_NoActiveChannels(t *testing.T) {
	gate, channelRepo, checker := newGate("true")
	channelRepo.On("ListChannels", mock.Anything, true).Return([]domain.LockedChannel{}, nil)

	ok, unmet := gate.Check(context.Background(), 1)

	assert.True(t, ok)
	assert.Empty(t, unmet)
	checker.AssertNotCalled(t, "MemberStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubscriptionGate_ChannelStoreFailure(t *testing.T) {
	gate, channelRepo, _ := newGate("true")
	channelRepo.On("ListChannels", mock.Anything, true).Return(nil, errors.New("db down"))

	ok, unmet := gate.Check(context.Background(), 1)

	assert.True(t, ok)
	assert.Empty(t, unmet)
}

func TestSubscriptionGate_Statuses(t *testing.T) {
	tests := []struct {
		name      string
		status    string
		lookupErr error
		satisfied bool
	}{
		{name: "member", status: "member", satisfied: true},
		{name: "administrator", status: "administrator", satisfied: true},
		{name: "creator", status: "creator", satisfied: true},
		{name: "left", status: "left", satisfied: false},
		{name: "kicked", status: "kicked", satisfied: false},
		{name: "restricted", status: "restricted", satisfied: false},
		{name: "lookup error fails closed", lookupErr: errors.New("chat not found"), satisfied: false},
	}

	channel := domain.LockedChannel{ID: 1, ChannelID: "@news", Name: "News", Link: "https://t.me/news", IsActive: true}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate, channelRepo, checker := newGate("true")
			channelRepo.On("ListChannels", mock.Anything, true).Return([]domain.LockedChannel{channel}, nil)
			checker.On("MemberStatus", mock.Anything, "@news", int64(5)).Return(tt.status, tt.lookupErr)

			ok, unmet := gate.Check(context.Background(), 5)

			assert.Equal(t, tt.satisfied, ok)
			if tt.satisfied {
				assert.Empty(t, unmet)
			} else {
				assert.Equal(t, []domain.LockedChannel{channel}, unmet)
			}
			checker.AssertExpectations(t)
		})
	}
}

func TestSubscriptionGate_PartialMembershipKeepsOrder(t *testing.T) {
	channels := []domain.LockedChannel{
		{ID: 1, ChannelID: "@a", IsActive: true},
		{ID: 2, ChannelID: "@b", IsActive: true},
		{ID: 3, ChannelID: "@c", IsActive: true},
	}

	gate, channelRepo, checker := newGate("true")
	channelRepo.On("ListChannels", mock.Anything, true).Return(channels, nil)
	checker.On("MemberStatus", mock.Anything, "@a", int64(5)).Return("left", nil)
	checker.On("MemberStatus", mock.Anything, "@b", int64(5)).Return("member", nil)
	checker.On("MemberStatus", mock.Anything, "@c", int64(5)).Return("", errors.New("forbidden"))

	ok, unmet := gate.Check(context.Background(), 5)

	assert.False(t, ok)
	assert.Equal(t, []domain.LockedChannel{channels[0], channels[2]}, unmet)
}
