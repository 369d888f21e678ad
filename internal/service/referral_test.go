package service

import (
	"context"
	"testing"
	"time"

	"communitybot/internal/model"
	"communitybot/internal/repository"
	"communitybot/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestReferralService_ProcessJoin(t *testing.T) {
	day := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	referrerID := int64(10)

	tests := []struct {
		name       string
		setupMocks func(mockRepo *mocks.MockReferralRepository)
		expected   *ReferralOutcome
	}{
		{
			name: "Joiner never talked to the bot",
			setupMocks: func(mockRepo *mocks.MockReferralRepository) {
				mockRepo.On("GetUserByTelegramID", mock.Anything, int64(555)).
					Return(nil, repository.ErrNotFound)
			},
			expected: &ReferralOutcome{},
		},
		{
			name: "Join already processed",
			setupMocks: func(mockRepo *mocks.MockReferralRepository) {
				mockRepo.On("GetUserByTelegramID", mock.Anything, int64(555)).
					Return(&model.User{ID: 1, TelegramID: 555, ReferralProcessed: true}, nil)
			},
			expected: &ReferralOutcome{},
		},
		{
			name: "No referrer attached",
			setupMocks: func(mockRepo *mocks.MockReferralRepository) {
				mockRepo.On("GetUserByTelegramID", mock.Anything, int64(555)).
					Return(&model.User{ID: 1, TelegramID: 555}, nil)
				mockRepo.On("MarkReferralProcessed", mock.Anything, int64(1)).Return(nil)
			},
			expected: &ReferralOutcome{},
		},
		{
			name: "Referrer at the lifetime cap is processed without payout",
			setupMocks: func(mockRepo *mocks.MockReferralRepository) {
				mockRepo.On("GetUserByTelegramID", mock.Anything, int64(555)).
					Return(&model.User{ID: 1, TelegramID: 555, ReferredByUserID: &referrerID}, nil)
				mockRepo.On("GetUserByID", mock.Anything, referrerID).
					Return(&model.User{ID: referrerID, TelegramID: 777}, nil)
				mockRepo.On("CountSourceEvents", mock.Anything, referrerID, model.SourceReferral, (*time.Time)(nil)).
					Return(DefaultReferralCap, nil)
				mockRepo.On("MarkReferralProcessed", mock.Anything, int64(1)).Return(nil)
			},
			expected: &ReferralOutcome{ReferrerTelegramID: 777},
		},
		{
			name: "Referrer under the cap is paid once",
			setupMocks: func(mockRepo *mocks.MockReferralRepository) {
				mockRepo.On("GetUserByTelegramID", mock.Anything, int64(555)).
					Return(&model.User{ID: 1, TelegramID: 555, ReferredByUserID: &referrerID}, nil)
				mockRepo.On("GetUserByID", mock.Anything, referrerID).
					Return(&model.User{ID: referrerID, TelegramID: 777}, nil)
				mockRepo.On("CountSourceEvents", mock.Anything, referrerID, model.SourceReferral, (*time.Time)(nil)).
					Return(3, nil)
				mockRepo.On("AwardOnce", mock.Anything, mock.MatchedBy(func(p model.AwardParams) bool {
					return p.UserID == referrerID &&
						p.Source == model.SourceReferral &&
						p.RefType == "referral" &&
						p.RefID == "1" &&
						p.Points == DefaultReferralPoints
				})).Return(&model.AwardResult{Awarded: true, NewTotal: 4}, nil)
				mockRepo.On("MarkReferralProcessed", mock.Anything, int64(1)).Return(nil)
			},
			expected: &ReferralOutcome{Awarded: true, ReferrerTelegramID: 777},
		},
		{
			name: "Replayed join does not double pay",
			setupMocks: func(mockRepo *mocks.MockReferralRepository) {
				mockRepo.On("GetUserByTelegramID", mock.Anything, int64(555)).
					Return(&model.User{ID: 1, TelegramID: 555, ReferredByUserID: &referrerID}, nil)
				mockRepo.On("GetUserByID", mock.Anything, referrerID).
					Return(&model.User{ID: referrerID, TelegramID: 777}, nil)
				mockRepo.On("CountSourceEvents", mock.Anything, referrerID, model.SourceReferral, (*time.Time)(nil)).
					Return(3, nil)
				mockRepo.On("AwardOnce", mock.Anything, mock.Anything).
					Return(&model.AwardResult{Awarded: false, NewTotal: 4}, nil)
				mockRepo.On("MarkReferralProcessed", mock.Anything, int64(1)).Return(nil)
			},
			expected: &ReferralOutcome{Awarded: false, ReferrerTelegramID: 777},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockReferralRepository{}
			tt.setupMocks(mockRepo)

			service := NewReferralService(mockRepo, 0, 0)
			outcome, err := service.ProcessJoin(context.Background(), 555, day)

			assert.NoError(t, err)
			assert.Equal(t, tt.expected, outcome)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestReferralService_Stats(t *testing.T) {
	mockRepo := &mocks.MockReferralRepository{}
	mockRepo.On("CountSourceEvents", mock.Anything, int64(10), model.SourceReferral, (*time.Time)(nil)).
		Return(97, nil)

	service := NewReferralService(mockRepo, 0, 0)
	stats, err := service.Stats(context.Background(), 10)

	assert.NoError(t, err)
	assert.Equal(t, 97, stats.Total)
	assert.Equal(t, 3, stats.Remaining)
	mockRepo.AssertExpectations(t)
}
