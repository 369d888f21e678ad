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

func TestCheckinService_Checkin(t *testing.T) {
	day := time.Date(2026, 3, 12, 15, 4, 5, 0, time.UTC) // thursday
	dayUTC := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	weekStart := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		setupMocks func(mockRepo *mocks.MockCheckinRepository)
		expected   *model.CheckinResult
	}{
		{
			name: "First checkin of the week",
			setupMocks: func(mockRepo *mocks.MockCheckinRepository) {
				mockRepo.On("CreateCheckin", mock.Anything, int64(1), dayUTC).
					Return(true, nil)
				mockRepo.On("MarkActionDone", mock.Anything, int64(1), dayUTC, model.ActionCheckin).
					Return(nil)
				mockRepo.On("GetPeriodStats", mock.Anything, weekStart, int64(1)).
					Return(&model.PeriodStats{PeriodStart: weekStart, UserID: 1}, nil)
				mockRepo.On("AwardOnce", mock.Anything, mock.MatchedBy(func(p model.AwardParams) bool {
					return p.UserID == 1 &&
						p.Source == model.SourceCheckin &&
						p.RefType == "checkin" &&
						p.RefID == "20260312" &&
						p.Points == DefaultCheckinPoints &&
						p.Streak != nil && p.Streak.Streak == 1
				})).Return(&model.AwardResult{Awarded: true, NewTotal: 2, NewStreak: 1}, nil)
			},
			expected: &model.CheckinResult{
				PointsAwarded: 2,
				WeekPoints:    2,
				WeekStreak:    1,
			},
		},
		{
			name: "Consecutive day extends the streak",
			setupMocks: func(mockRepo *mocks.MockCheckinRepository) {
				yesterday := dayUTC.AddDate(0, 0, -1)
				mockRepo.On("CreateCheckin", mock.Anything, int64(1), dayUTC).
					Return(true, nil)
				mockRepo.On("MarkActionDone", mock.Anything, int64(1), dayUTC, model.ActionCheckin).
					Return(nil)
				mockRepo.On("GetPeriodStats", mock.Anything, weekStart, int64(1)).
					Return(&model.PeriodStats{
						PeriodStart:    weekStart,
						UserID:         1,
						Points:         6,
						CheckinStreak:  3,
						LastCheckinDay: &yesterday,
					}, nil)
				mockRepo.On("AwardOnce", mock.Anything, mock.MatchedBy(func(p model.AwardParams) bool {
					return p.Streak != nil && p.Streak.Streak == 4
				})).Return(&model.AwardResult{Awarded: true, NewTotal: 8, NewStreak: 4}, nil)
			},
			expected: &model.CheckinResult{
				PointsAwarded: 2,
				WeekPoints:    8,
				WeekStreak:    4,
			},
		},
		{
			name: "Gap resets the streak to one",
			setupMocks: func(mockRepo *mocks.MockCheckinRepository) {
				twoDaysAgo := dayUTC.AddDate(0, 0, -2)
				mockRepo.On("CreateCheckin", mock.Anything, int64(1), dayUTC).
					Return(true, nil)
				mockRepo.On("MarkActionDone", mock.Anything, int64(1), dayUTC, model.ActionCheckin).
					Return(nil)
				mockRepo.On("GetPeriodStats", mock.Anything, weekStart, int64(1)).
					Return(&model.PeriodStats{
						PeriodStart:    weekStart,
						UserID:         1,
						Points:         4,
						CheckinStreak:  2,
						LastCheckinDay: &twoDaysAgo,
					}, nil)
				mockRepo.On("AwardOnce", mock.Anything, mock.MatchedBy(func(p model.AwardParams) bool {
					return p.Streak != nil && p.Streak.Streak == 1
				})).Return(&model.AwardResult{Awarded: true, NewTotal: 6, NewStreak: 1}, nil)
			},
			expected: &model.CheckinResult{
				PointsAwarded: 2,
				WeekPoints:    6,
				WeekStreak:    1,
			},
		},
		{
			name: "Second press the same day is a no-op",
			setupMocks: func(mockRepo *mocks.MockCheckinRepository) {
				mockRepo.On("CreateCheckin", mock.Anything, int64(1), dayUTC).
					Return(false, nil)
				mockRepo.On("MarkActionDone", mock.Anything, int64(1), dayUTC, model.ActionCheckin).
					Return(nil)
				mockRepo.On("GetPeriodStats", mock.Anything, weekStart, int64(1)).
					Return(&model.PeriodStats{
						PeriodStart:   weekStart,
						UserID:        1,
						Points:        8,
						CheckinStreak: 4,
					}, nil)
			},
			expected: &model.CheckinResult{
				Already:    true,
				WeekPoints: 8,
				WeekStreak: 4,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockCheckinRepository{}
			tt.setupMocks(mockRepo)

			service := NewCheckinService(mockRepo, 0)
			res, err := service.Checkin(context.Background(), 1, day)

			assert.NoError(t, err)
			assert.Equal(t, tt.expected, res)
			mockRepo.AssertExpectations(t)
		})
	}
}
