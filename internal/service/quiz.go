package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"communitybot/internal/model"
	"communitybot/internal/repository"

	"github.com/google/uuid"
)

type QuizService struct {
	repo QuizRepository
}

func NewQuizService(repo QuizRepository) *QuizService {
	return &QuizService{repo: repo}
}

// CreateQuiz sets up the single quiz of a day (admin flow). A second quiz
// for the same day is rejected by the day uniqueness.
func (s *QuizService) CreateQuiz(ctx context.Context, day time.Time, question string, options []string, correctIndex, pointsCorrect, pointsWrong int) (*model.Quiz, error) {
	question = strings.TrimSpace(question)

	cleaned := make([]string, 0, len(options))
	for _, o := range options {
		if o = strings.TrimSpace(o); o != "" {
			cleaned = append(cleaned, o)
		}
	}

	if len(question) < 5 || len(question) > 300 {
		return nil, fmt.Errorf("%w: question must be 5..300 characters", ErrInvalidPoll)
	}
	if len(cleaned) < 2 || len(cleaned) > 10 {
		return nil, fmt.Errorf("%w: options must be 2..10 items", ErrInvalidPoll)
	}
	if correctIndex < 0 || correctIndex >= len(cleaned) {
		return nil, ErrInvalidOption
	}
	if pointsCorrect < 0 || pointsWrong < 0 {
		return nil, fmt.Errorf("%w: points must not be negative", ErrInvalidPoll)
	}

	quiz := &model.Quiz{
		ID:            uuid.New(),
		DayUTC:        model.Day(day),
		Question:      question,
		Options:       cleaned,
		CorrectIndex:  correctIndex,
		PointsCorrect: pointsCorrect,
		PointsWrong:   pointsWrong,
	}
	if err := s.repo.CreateQuiz(ctx, quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *QuizService) GetToday(ctx context.Context, day time.Time) (*model.Quiz, error) {
	quiz, err := s.repo.GetQuizByDay(ctx, model.Day(day))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoQuizToday
		}
		return nil, err
	}
	return quiz, nil
}

// Submit records a user's only attempt at the day's quiz. The attempt
// uniqueness decides duplicates: a losing insert returns the originally
// stored outcome, never a recomputed one. Wrong answers worth zero write
// no ledger event, only the completion marker.
func (s *QuizService) Submit(ctx context.Context, userID int64, quizID uuid.UUID, chosenIndex int, day time.Time) (*model.QuizResult, error) {
	day = model.Day(day)
	periodStart := model.WeekStart(day)

	quiz, err := s.GetToday(ctx, day)
	if err != nil {
		return nil, err
	}
	if quiz.ID != quizID {
		return nil, ErrNoQuizToday
	}
	if chosenIndex < 0 || chosenIndex >= len(quiz.Options) {
		return nil, ErrInvalidOption
	}

	correct := chosenIndex == quiz.CorrectIndex
	points := quiz.PointsWrong
	if correct {
		points = quiz.PointsCorrect
	}

	err = s.repo.CreateAttempt(ctx, &model.QuizAttempt{
		QuizID:        quiz.ID,
		UserID:        userID,
		DayUTC:        day,
		ChosenIndex:   chosenIndex,
		Correct:       correct,
		PointsAwarded: points,
	})
	if err != nil {
		if !errors.Is(err, repository.ErrAlreadyExists) {
			return nil, err
		}
		stored, err := s.repo.GetAttempt(ctx, quiz.ID, userID)
		if err != nil {
			return nil, err
		}
		stats, err := s.repo.GetPeriodStats(ctx, periodStart, userID)
		if err != nil {
			return nil, err
		}
		return &model.QuizResult{
			Already:       true,
			Correct:       stored.Correct,
			PointsAwarded: stored.PointsAwarded,
			WeekPoints:    stats.Points,
		}, nil
	}

	if err := s.repo.MarkActionDone(ctx, userID, day, model.ActionQuiz); err != nil {
		return nil, err
	}

	weekPoints := 0
	if points != 0 {
		res, err := s.repo.AwardOnce(ctx, model.AwardParams{
			UserID:      userID,
			DayUTC:      day,
			PeriodStart: periodStart,
			Source:      model.SourceQuiz,
			Points:      points,
			RefType:     "quiz",
			RefID:       quiz.ID.String(),
		})
		if err != nil {
			return nil, err
		}
		weekPoints = res.NewTotal
	} else {
		stats, err := s.repo.GetPeriodStats(ctx, periodStart, userID)
		if err != nil {
			return nil, err
		}
		weekPoints = stats.Points
	}

	return &model.QuizResult{
		Correct:       correct,
		PointsAwarded: points,
		WeekPoints:    weekPoints,
	}, nil
}
