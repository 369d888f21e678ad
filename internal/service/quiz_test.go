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

func TestQuizService_Submit(t *testing.T) {
	day := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	weekStart := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	quizID := uuid.New()

	quiz := &model.Quiz{
		ID:            quizID,
		DayUTC:        day,
		Question:      "Which command shows the current branch?",
		Options:       []string{"git status", "git stash", "git tag"},
		CorrectIndex:  0,
		PointsCorrect: 3,
		PointsWrong:   0,
	}

	tests := []struct {
		name          string
		quizID        uuid.UUID
		chosenIndex   int
		setupMocks    func(mockRepo *mocks.MockQuizRepository)
		expected      *model.QuizResult
		expectedError error
	}{
		{
			name:        "Correct answer awards points",
			quizID:      quizID,
			chosenIndex: 0,
			setupMocks: func(mockRepo *mocks.MockQuizRepository) {
				mockRepo.On("GetQuizByDay", mock.Anything, day).Return(quiz, nil)
				mockRepo.On("CreateAttempt", mock.Anything, mock.MatchedBy(func(a *model.QuizAttempt) bool {
					return a.QuizID == quizID && a.UserID == 1 && a.Correct && a.PointsAwarded == 3
				})).Return(nil)
				mockRepo.On("MarkActionDone", mock.Anything, int64(1), day, model.ActionQuiz).
					Return(nil)
				mockRepo.On("AwardOnce", mock.Anything, mock.MatchedBy(func(p model.AwardParams) bool {
					return p.Source == model.SourceQuiz &&
						p.RefType == "quiz" &&
						p.RefID == quizID.String() &&
						p.Points == 3 &&
						p.Streak == nil
				})).Return(&model.AwardResult{Awarded: true, NewTotal: 5}, nil)
			},
			expected: &model.QuizResult{Correct: true, PointsAwarded: 3, WeekPoints: 5},
		},
		{
			name:        "Wrong answer worth zero writes no ledger event",
			quizID:      quizID,
			chosenIndex: 1,
			setupMocks: func(mockRepo *mocks.MockQuizRepository) {
				mockRepo.On("GetQuizByDay", mock.Anything, day).Return(quiz, nil)
				mockRepo.On("CreateAttempt", mock.Anything, mock.MatchedBy(func(a *model.QuizAttempt) bool {
					return !a.Correct && a.PointsAwarded == 0
				})).Return(nil)
				mockRepo.On("MarkActionDone", mock.Anything, int64(1), day, model.ActionQuiz).
					Return(nil)
				mockRepo.On("GetPeriodStats", mock.Anything, weekStart, int64(1)).
					Return(&model.PeriodStats{Points: 2}, nil)
			},
			expected: &model.QuizResult{Correct: false, PointsAwarded: 0, WeekPoints: 2},
		},
		{
			name:        "Duplicate attempt replays the stored outcome",
			quizID:      quizID,
			chosenIndex: 1,
			setupMocks: func(mockRepo *mocks.MockQuizRepository) {
				mockRepo.On("GetQuizByDay", mock.Anything, day).Return(quiz, nil)
				mockRepo.On("CreateAttempt", mock.Anything, mock.Anything).
					Return(repository.ErrAlreadyExists)
				mockRepo.On("GetAttempt", mock.Anything, quizID, int64(1)).
					Return(&model.QuizAttempt{
						QuizID:        quizID,
						UserID:        1,
						ChosenIndex:   0,
						Correct:       true,
						PointsAwarded: 3,
					}, nil)
				mockRepo.On("GetPeriodStats", mock.Anything, weekStart, int64(1)).
					Return(&model.PeriodStats{Points: 5}, nil)
			},
			expected: &model.QuizResult{Already: true, Correct: true, PointsAwarded: 3, WeekPoints: 5},
		},
		{
			name:        "Stale quiz id is rejected",
			quizID:      uuid.New(),
			chosenIndex: 0,
			setupMocks: func(mockRepo *mocks.MockQuizRepository) {
				mockRepo.On("GetQuizByDay", mock.Anything, day).Return(quiz, nil)
			},
			expectedError: ErrNoQuizToday,
		},
		{
			name:        "Option index out of range",
			quizID:      quizID,
			chosenIndex: 7,
			setupMocks: func(mockRepo *mocks.MockQuizRepository) {
				mockRepo.On("GetQuizByDay", mock.Anything, day).Return(quiz, nil)
			},
			expectedError: ErrInvalidOption,
		},
		{
			name:        "No quiz scheduled for the day",
			quizID:      quizID,
			chosenIndex: 0,
			setupMocks: func(mockRepo *mocks.MockQuizRepository) {
				mockRepo.On("GetQuizByDay", mock.Anything, day).
					Return(nil, repository.ErrNotFound)
			},
			expectedError: ErrNoQuizToday,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockQuizRepository{}
			tt.setupMocks(mockRepo)

			service := NewQuizService(mockRepo)
			res, err := service.Submit(context.Background(), 1, tt.quizID, tt.chosenIndex, day)

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

func TestQuizService_CreateQuiz(t *testing.T) {
	future := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		question      string
		options       []string
		correctIndex  int
		expectedError error
	}{
		{
			name:         "Valid quiz",
			question:     "Which port does PostgreSQL listen on by default?",
			options:      []string{"5432", "3306", "6379"},
			correctIndex: 0,
		},
		{
			name:          "Question too short",
			question:      "Hi?",
			options:       []string{"a", "b"},
			expectedError: ErrInvalidPoll,
		},
		{
			name:          "Single option",
			question:      "Which port does PostgreSQL listen on by default?",
			options:       []string{"5432"},
			expectedError: ErrInvalidPoll,
		},
		{
			name:          "Correct index out of range",
			question:      "Which port does PostgreSQL listen on by default?",
			options:       []string{"5432", "3306"},
			correctIndex:  5,
			expectedError: ErrInvalidOption,
		},
		{
			name:          "Blank options are dropped before validation",
			question:      "Which port does PostgreSQL listen on by default?",
			options:       []string{"5432", "  ", ""},
			expectedError: ErrInvalidPoll,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockQuizRepository{}
			if tt.expectedError == nil {
				mockRepo.On("CreateQuiz", mock.Anything, mock.MatchedBy(func(q *model.Quiz) bool {
					return q.DayUTC.Equal(future) && q.ID != uuid.Nil
				})).Return(nil)
			}

			service := NewQuizService(mockRepo)
			quiz, err := service.CreateQuiz(context.Background(), future, tt.question, tt.options, tt.correctIndex, 3, 0)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, quiz)
				return
			}

			assert.NoError(t, err)
			assert.NotNil(t, quiz)
			mockRepo.AssertExpectations(t)
		})
	}
}
