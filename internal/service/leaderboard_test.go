package service

import (
	"context"
	"testing"
	"time"

	"communitybot/internal/model"
	"communitybot/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestLeaderboardService_ResolveWindow(t *testing.T) {
	service := NewLeaderboardService(nil, time.Time{}, time.Time{}, 0)

	tests := []struct {
		name          string
		today         time.Time
		expectedKind  model.WindowKind
		expectedStart time.Time
		expectedEnd   time.Time
	}{
		{
			name:          "Inside the campaign range",
			today:         time.Date(2026, 2, 8, 14, 0, 0, 0, time.UTC),
			expectedKind:  model.WindowCampaign,
			expectedStart: time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC),
			expectedEnd:   time.Date(2026, 2, 12, 0, 0, 0, 0, time.UTC),
		},
		{
			name:          "Campaign boundaries are inclusive",
			today:         time.Date(2026, 2, 12, 23, 59, 0, 0, time.UTC),
			expectedKind:  model.WindowCampaign,
			expectedStart: time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC),
			expectedEnd:   time.Date(2026, 2, 12, 0, 0, 0, 0, time.UTC),
		},
		{
			name:          "Day after the campaign falls back to the week",
			today:         time.Date(2026, 2, 13, 0, 0, 0, 0, time.UTC), // friday
			expectedKind:  model.WindowWeekly,
			expectedStart: time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC),
			expectedEnd:   time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:          "Weeks start on monday",
			today:         time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC), // sunday
			expectedKind:  model.WindowWeekly,
			expectedStart: time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
			expectedEnd:   time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:          "A monday starts its own week",
			today:         time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
			expectedKind:  model.WindowWeekly,
			expectedStart: time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
			expectedEnd:   time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			window := service.ResolveWindow(tt.today)

			assert.Equal(t, tt.expectedKind, window.Kind)
			assert.True(t, window.Start.Equal(tt.expectedStart), "start %v", window.Start)
			assert.True(t, window.End.Equal(tt.expectedEnd), "end %v", window.End)
		})
	}
}

func TestLeaderboardService_Get(t *testing.T) {
	weekDay := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	weekStart := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	campaignDay := time.Date(2026, 2, 8, 0, 0, 0, 0, time.UTC)

	rank := 5

	t.Run("Weekly window reads the aggregate", func(t *testing.T) {
		mockRepo := &mocks.MockLeaderboardRepository{}
		mockRepo.On("TopPeriod", mock.Anything, weekStart, DefaultLeaderboardSize).
			Return([]model.LeaderRow{{UserID: 2, Points: 20}}, nil)
		mockRepo.On("UserRankPeriod", mock.Anything, weekStart, int64(1)).
			Return(&rank, 7, nil)

		service := NewLeaderboardService(mockRepo, time.Time{}, time.Time{}, 0)
		lb, err := service.Get(context.Background(), 1, weekDay)

		assert.NoError(t, err)
		assert.Equal(t, model.WindowWeekly, lb.Window.Kind)
		assert.Len(t, lb.Top, 1)
		assert.Equal(t, &rank, lb.MyRank)
		assert.Equal(t, 7, lb.MyPoints)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Campaign window sums the ledger", func(t *testing.T) {
		mockRepo := &mocks.MockLeaderboardRepository{}
		mockRepo.On("TopRange", mock.Anything,
			DefaultCampaignStart, DefaultCampaignEnd, DefaultLeaderboardSize).
			Return([]model.LeaderRow{{UserID: 2, Points: 42}}, nil)
		mockRepo.On("UserRankRange", mock.Anything,
			DefaultCampaignStart, DefaultCampaignEnd, int64(1)).
			Return(nil, 0, nil)

		service := NewLeaderboardService(mockRepo, time.Time{}, time.Time{}, 0)
		lb, err := service.Get(context.Background(), 1, campaignDay)

		assert.NoError(t, err)
		assert.Equal(t, model.WindowCampaign, lb.Window.Kind)
		assert.Nil(t, lb.MyRank)
		assert.Equal(t, 0, lb.MyPoints)
		mockRepo.AssertExpectations(t)
	})
}
