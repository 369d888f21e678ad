package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"communitybot/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type quizRow struct {
	ID            uuid.UUID `db:"id"`
	DayUTC        time.Time `db:"day_utc"`
	Question      string    `db:"question"`
	CorrectIndex  int       `db:"correct_index"`
	PointsCorrect int       `db:"points_correct"`
	PointsWrong   int       `db:"points_wrong"`
}

type quizAttemptRow struct {
	QuizID        uuid.UUID `db:"quiz_id"`
	UserID        int64     `db:"user_id"`
	DayUTC        time.Time `db:"day_utc"`
	ChosenIndex   int       `db:"chosen_index"`
	Correct       bool      `db:"correct"`
	PointsAwarded int       `db:"points_awarded"`
	CreatedAt     time.Time `db:"created_at"`
}

// CreateQuiz inserts the quiz of one day together with its ordered
// options. One quiz per day, enforced by uniqueness on day_utc.
func (r *Repository) CreateQuiz(ctx context.Context, quiz *model.Quiz) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Insert("quizzes").
			SetMap(map[string]interface{}{
				"id":             quiz.ID,
				"day_utc":        quiz.DayUTC,
				"question":       quiz.Question,
				"correct_index":  quiz.CorrectIndex,
				"points_correct": quiz.PointsCorrect,
				"points_wrong":   quiz.PointsWrong,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build quiz insert query: %w", err)
		}

		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyExists
			}
			return fmt.Errorf("failed to insert quiz: %w", err)
		}

		builder := squirrel.
			Insert("quiz_options").
			Columns("quiz_id", "position", "text")
		for i, opt := range quiz.Options {
			builder = builder.Values(quiz.ID, i, opt)
		}

		query, args, err = builder.PlaceholderFormat(squirrel.Dollar).ToSql()
		if err != nil {
			return fmt.Errorf("failed to build quiz options insert query: %w", err)
		}

		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert quiz options: %w", err)
		}
		return nil
	})
}

func (r *Repository) GetQuizByDay(ctx context.Context, day time.Time) (*model.Quiz, error) {
	query, args, err := squirrel.
		Select("id", "day_utc", "question", "correct_index", "points_correct", "points_wrong").
		From("quizzes").
		Where(squirrel.Eq{"day_utc": day}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row quizRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	optQuery, optArgs, err := squirrel.
		Select("text").
		From("quiz_options").
		Where(squirrel.Eq{"quiz_id": row.ID}).
		OrderBy("position ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var options []string
	if err := r.db.SelectContext(ctx, &options, optQuery, optArgs...); err != nil {
		return nil, fmt.Errorf("failed to get quiz options: %w", err)
	}

	return &model.Quiz{
		ID:            row.ID,
		DayUTC:        row.DayUTC,
		Question:      row.Question,
		Options:       options,
		CorrectIndex:  row.CorrectIndex,
		PointsCorrect: row.PointsCorrect,
		PointsWrong:   row.PointsWrong,
	}, nil
}

// CreateAttempt stores a user's single attempt. The (quiz_id, user_id)
// uniqueness resolves the check-then-insert race at the storage layer;
// a duplicate surfaces as ErrAlreadyExists, never as a second row.
func (r *Repository) CreateAttempt(ctx context.Context, attempt *model.QuizAttempt) error {
	query, args, err := squirrel.
		Insert("quiz_attempts").
		SetMap(map[string]interface{}{
			"quiz_id":        attempt.QuizID,
			"user_id":        attempt.UserID,
			"day_utc":        attempt.DayUTC,
			"chosen_index":   attempt.ChosenIndex,
			"correct":        attempt.Correct,
			"points_awarded": attempt.PointsAwarded,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build quiz attempt insert query: %w", err)
	}

	if _, err = r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert quiz attempt: %w", err)
	}
	return nil
}

func (r *Repository) GetAttempt(ctx context.Context, quizID uuid.UUID, userID int64) (*model.QuizAttempt, error) {
	query, args, err := squirrel.
		Select("quiz_id", "user_id", "day_utc", "chosen_index", "correct", "points_awarded", "created_at").
		From("quiz_attempts").
		Where(squirrel.Eq{"quiz_id": quizID, "user_id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row quizAttemptRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &model.QuizAttempt{
		QuizID:        row.QuizID,
		UserID:        row.UserID,
		DayUTC:        row.DayUTC,
		ChosenIndex:   row.ChosenIndex,
		Correct:       row.Correct,
		PointsAwarded: row.PointsAwarded,
		CreatedAt:     row.CreatedAt,
	}, nil
}
