package model

import (
	"time"

	"github.com/google/uuid"
)

// Quiz is the single quiz of one UTC day. Options keep their insertion
// order; CorrectIndex points into that order.
type Quiz struct {
	ID            uuid.UUID
	DayUTC        time.Time
	Question      string
	Options       []string
	CorrectIndex  int
	PointsCorrect int
	PointsWrong   int
}

type QuizAttempt struct {
	QuizID        uuid.UUID
	UserID        int64
	DayUTC        time.Time
	ChosenIndex   int
	Correct       bool
	PointsAwarded int
	CreatedAt     time.Time
}

// QuizResult is what the transport renders after a submission. On a
// duplicate submission it carries the originally stored outcome.
type QuizResult struct {
	Already       bool
	Correct       bool
	PointsAwarded int
	WeekPoints    int
}
