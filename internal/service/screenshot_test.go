package service

import (
	"context"
	"testing"
	"time"

	"communitybot/internal/model"
	"communitybot/internal/repository"
	"communitybot/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestScreenshotService_Decide(t *testing.T) {
	day := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	weekStart := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	subID := uuid.New()

	submission := &model.Submission{
		ID:     subID,
		UserID: 7,
		DayUTC: day,
		Status: model.SubmissionPending,
	}

	tests := []struct {
		name          string
		approve       bool
		setupMocks    func(mockRepo *mocks.MockScreenshotRepository)
		expected      *model.DecideResult
		expectedError error
	}{
		{
			name:    "Approval carries the award into the decision",
			approve: true,
			setupMocks: func(mockRepo *mocks.MockScreenshotRepository) {
				mockRepo.On("GetSubmission", mock.Anything, subID).Return(submission, nil)
				mockRepo.On("DecideSubmission", mock.Anything, subID, int64(99), true, "looks good",
					mock.MatchedBy(func(p model.AwardParams) bool {
						return p.UserID == 7 &&
							p.Source == model.SourceScreenshot &&
							p.RefType == "screenshot" &&
							p.RefID == subID.String() &&
							p.Points == DefaultScreenshotPoints &&
							p.PeriodStart.Equal(weekStart)
					})).Return(&model.DecideResult{Applied: true, PointsAwarded: 3}, nil)
			},
			expected: &model.DecideResult{Applied: true, PointsAwarded: 3},
		},
		{
			name:    "Second verdict reports already decided",
			approve: false,
			setupMocks: func(mockRepo *mocks.MockScreenshotRepository) {
				mockRepo.On("GetSubmission", mock.Anything, subID).Return(submission, nil)
				mockRepo.On("DecideSubmission", mock.Anything, subID, int64(99), false, "looks good",
					mock.Anything).Return(&model.DecideResult{AlreadyDecided: true}, nil)
			},
			expected: &model.DecideResult{AlreadyDecided: true},
		},
		{
			name:    "Unknown submission",
			approve: true,
			setupMocks: func(mockRepo *mocks.MockScreenshotRepository) {
				mockRepo.On("GetSubmission", mock.Anything, subID).
					Return(nil, repository.ErrNotFound)
			},
			expectedError: ErrSubmissionNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockScreenshotRepository{}
			tt.setupMocks(mockRepo)

			service := NewScreenshotService(mockRepo, 0, 0)
			res, err := service.Decide(context.Background(), subID, 99, tt.approve, "looks good")

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.expected, res)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestScreenshotService_Claim(t *testing.T) {
	subID := uuid.New()

	tests := []struct {
		name          string
		setupMocks    func(mockRepo *mocks.MockScreenshotRepository)
		expectedOK    bool
		expectedError error
	}{
		{
			name: "Claim granted on a free submission",
			setupMocks: func(mockRepo *mocks.MockScreenshotRepository) {
				mockRepo.On("ClaimSubmission", mock.Anything, subID, int64(99), DefaultClaimTTL).
					Return(true, nil)
			},
			expectedOK: true,
		},
		{
			name: "Claim refused while another admin holds a live claim",
			setupMocks: func(mockRepo *mocks.MockScreenshotRepository) {
				mockRepo.On("ClaimSubmission", mock.Anything, subID, int64(99), DefaultClaimTTL).
					Return(false, nil)
			},
			expectedOK: false,
		},
		{
			name: "Claim granted after the previous hold timed out",
			setupMocks: func(mockRepo *mocks.MockScreenshotRepository) {
				mockRepo.On("ClaimSubmission", mock.Anything, subID, int64(99), DefaultClaimTTL).
					Return(true, nil)
			},
			expectedOK: true,
		},
		{
			name: "Storage error propagates",
			setupMocks: func(mockRepo *mocks.MockScreenshotRepository) {
				mockRepo.On("ClaimSubmission", mock.Anything, subID, int64(99), DefaultClaimTTL).
					Return(false, assert.AnError)
			},
			expectedError: assert.AnError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockScreenshotRepository{}
			tt.setupMocks(mockRepo)

			service := NewScreenshotService(mockRepo, 0, 0)
			ok, err := service.Claim(context.Background(), subID, 99)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedOK, ok)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestScreenshotService_SweepExpired(t *testing.T) {
	mockRepo := &mocks.MockScreenshotRepository{}
	mockRepo.On("SweepExpiredClaims", mock.Anything).Return(int64(2), nil)

	service := NewScreenshotService(mockRepo, 0, 0)
	released, err := service.SweepExpired(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, int64(2), released)
	mockRepo.AssertExpectations(t)
}

func TestScreenshotService_Submit(t *testing.T) {
	day := time.Date(2026, 3, 12, 18, 30, 0, 0, time.UTC)
	dayUTC := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)

	mockRepo := &mocks.MockScreenshotRepository{}
	mockRepo.On("CreateSubmissionOnce", mock.Anything, int64(7), dayUTC, "file123").
		Return(&model.SubmitResult{Created: true, Submission: &model.Submission{UserID: 7}}, nil)

	service := NewScreenshotService(mockRepo, 0, 0)
	res, err := service.Submit(context.Background(), 7, day, "file123")

	assert.NoError(t, err)
	assert.True(t, res.Created)
	mockRepo.AssertExpectations(t)
}
