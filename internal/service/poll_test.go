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

func postedPoll(id uuid.UUID, points int) *model.Poll {
	return &model.Poll{
		ID:       id,
		ChatID:   -100,
		Question: "Which feature should we ship next?",
		Options:  []string{"Dark mode", "Widgets"},
		Points:   points,
		Status:   model.PollPosted,
	}
}

func TestPollService_Vote(t *testing.T) {
	day := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	pollID := uuid.New()

	tests := []struct {
		name        string
		awardOnVote bool
		setupMocks  func(mockRepo *mocks.MockPollRepository)
		expected    *model.VoteResult
	}{
		{
			name:        "Vote on a posted poll without immediate payout",
			awardOnVote: false,
			setupMocks: func(mockRepo *mocks.MockPollRepository) {
				mockRepo.On("GetPoll", mock.Anything, pollID).Return(postedPoll(pollID, 2), nil)
				mockRepo.On("RecordVote", mock.Anything, pollID, int64(1), 0).Return(true, nil)
				mockRepo.On("MarkActionDone", mock.Anything, int64(1), day, model.ActionPollVote).
					Return(nil)
			},
			expected: &model.VoteResult{Accepted: true},
		},
		{
			name:        "Award-on-vote pays through the poll ledger key",
			awardOnVote: true,
			setupMocks: func(mockRepo *mocks.MockPollRepository) {
				mockRepo.On("GetPoll", mock.Anything, pollID).Return(postedPoll(pollID, 2), nil)
				mockRepo.On("RecordVote", mock.Anything, pollID, int64(1), 0).Return(true, nil)
				mockRepo.On("MarkActionDone", mock.Anything, int64(1), day, model.ActionPollVote).
					Return(nil)
				mockRepo.On("AwardOnce", mock.Anything, mock.MatchedBy(func(p model.AwardParams) bool {
					return p.Source == model.SourcePoll &&
						p.RefType == "poll" &&
						p.RefID == pollID.String() &&
						p.Points == 2
				})).Return(&model.AwardResult{Awarded: true, NewTotal: 4}, nil)
			},
			expected: &model.VoteResult{Accepted: true, PointsAwarded: 2},
		},
		{
			name:        "Duplicate vote is refused without side effects",
			awardOnVote: true,
			setupMocks: func(mockRepo *mocks.MockPollRepository) {
				mockRepo.On("GetPoll", mock.Anything, pollID).Return(postedPoll(pollID, 2), nil)
				mockRepo.On("RecordVote", mock.Anything, pollID, int64(1), 0).Return(false, nil)
			},
			expected: &model.VoteResult{Accepted: false, Already: true},
		},
		{
			name:        "Votes on a closed poll are refused",
			awardOnVote: true,
			setupMocks: func(mockRepo *mocks.MockPollRepository) {
				closed := postedPoll(pollID, 2)
				closed.Status = model.PollClosed
				mockRepo.On("GetPoll", mock.Anything, pollID).Return(closed, nil)
			},
			expected: &model.VoteResult{Accepted: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockPollRepository{}
			tt.setupMocks(mockRepo)

			service := NewPollService(mockRepo, tt.awardOnVote, 0)
			res, err := service.Vote(context.Background(), pollID, 1, 0, day)

			assert.NoError(t, err)
			assert.Equal(t, tt.expected, res)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestPollService_AwardClosed(t *testing.T) {
	now := time.Date(2026, 3, 13, 9, 0, 0, 0, time.UTC)
	pollID := uuid.New()

	closedPoll := func(points int) *model.Poll {
		p := postedPoll(pollID, points)
		p.Status = model.PollClosed
		return p
	}

	t.Run("Pays every voter once and stamps the poll", func(t *testing.T) {
		mockRepo := &mocks.MockPollRepository{}
		mockRepo.On("GetPoll", mock.Anything, pollID).Return(closedPoll(2), nil)
		mockRepo.On("PollVoters", mock.Anything, pollID).Return([]int64{1, 2, 3}, nil)
		// Voter 2 was already paid during voting.
		mockRepo.On("AwardOnce", mock.Anything, mock.MatchedBy(func(p model.AwardParams) bool {
			return p.UserID == 2
		})).Return(&model.AwardResult{Awarded: false}, nil)
		mockRepo.On("AwardOnce", mock.Anything, mock.MatchedBy(func(p model.AwardParams) bool {
			return p.UserID != 2 && p.RefID == pollID.String()
		})).Return(&model.AwardResult{Awarded: true}, nil)
		mockRepo.On("MarkPollAwarded", mock.Anything, pollID, now).Return(true, nil)

		service := NewPollService(mockRepo, false, 0)
		n, err := service.AwardClosed(context.Background(), pollID, now)

		assert.NoError(t, err)
		assert.Equal(t, 2, n)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Already awarded poll is skipped entirely", func(t *testing.T) {
		poll := closedPoll(2)
		poll.AwardedAtUTC = &now

		mockRepo := &mocks.MockPollRepository{}
		mockRepo.On("GetPoll", mock.Anything, pollID).Return(poll, nil)

		service := NewPollService(mockRepo, false, 0)
		n, err := service.AwardClosed(context.Background(), pollID, now)

		assert.NoError(t, err)
		assert.Equal(t, 0, n)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Zero point poll only gets the stamp", func(t *testing.T) {
		mockRepo := &mocks.MockPollRepository{}
		mockRepo.On("GetPoll", mock.Anything, pollID).Return(closedPoll(0), nil)
		mockRepo.On("MarkPollAwarded", mock.Anything, pollID, now).Return(true, nil)

		service := NewPollService(mockRepo, false, 0)
		n, err := service.AwardClosed(context.Background(), pollID, now)

		assert.NoError(t, err)
		assert.Equal(t, 0, n)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Poll still open yields nothing", func(t *testing.T) {
		mockRepo := &mocks.MockPollRepository{}
		mockRepo.On("GetPoll", mock.Anything, pollID).Return(postedPoll(pollID, 2), nil)

		service := NewPollService(mockRepo, false, 0)
		n, err := service.AwardClosed(context.Background(), pollID, now)

		assert.NoError(t, err)
		assert.Equal(t, 0, n)
		mockRepo.AssertExpectations(t)
	})
}

func TestPollService_Create(t *testing.T) {
	future := time.Now().UTC().Add(2 * time.Hour)

	tests := []struct {
		name          string
		inp           CreatePollInput
		expectedError error
	}{
		{
			name: "Valid poll",
			inp: CreatePollInput{
				ChatID:          -100,
				ScheduledForUTC: future,
				Question:        "Which feature should we ship next?",
				Options:         []string{"Dark mode", "Widgets"},
				Points:          2,
			},
		},
		{
			name: "Schedule in the past",
			inp: CreatePollInput{
				ChatID:          -100,
				ScheduledForUTC: time.Now().UTC().Add(-time.Hour),
				Question:        "Which feature should we ship next?",
				Options:         []string{"Dark mode", "Widgets"},
			},
			expectedError: ErrInvalidPoll,
		},
		{
			name: "Points above the cap",
			inp: CreatePollInput{
				ChatID:          -100,
				ScheduledForUTC: future,
				Question:        "Which feature should we ship next?",
				Options:         []string{"Dark mode", "Widgets"},
				Points:          500,
			},
			expectedError: ErrInvalidPoll,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockPollRepository{}
			if tt.expectedError == nil {
				mockRepo.On("CreatePoll", mock.Anything, mock.MatchedBy(func(p *model.Poll) bool {
					return p.Status == model.PollScheduled && p.ID != uuid.Nil
				})).Return(nil)
			}

			service := NewPollService(mockRepo, false, 0)
			poll, err := service.Create(context.Background(), tt.inp)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, poll)
				return
			}

			assert.NoError(t, err)
			assert.NotNil(t, poll)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestPollService_Create_LivePollConflict(t *testing.T) {
	mockRepo := &mocks.MockPollRepository{}
	mockRepo.On("CreatePoll", mock.Anything, mock.Anything).
		Return(repository.ErrPollConflict)

	service := NewPollService(mockRepo, false, 0)
	poll, err := service.Create(context.Background(), CreatePollInput{
		ChatID:          -100,
		ScheduledForUTC: time.Now().UTC().Add(2 * time.Hour),
		Question:        "Which feature should we ship next?",
		Options:         []string{"Dark mode", "Widgets"},
		Points:          2,
	})

	assert.ErrorIs(t, err, ErrPollConflict)
	assert.Nil(t, poll)
	mockRepo.AssertExpectations(t)
}
