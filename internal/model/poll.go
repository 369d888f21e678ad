package model

import (
	"time"

	"github.com/google/uuid"
)

type PollStatus string

const (
	PollScheduled PollStatus = "scheduled"
	PollPosted    PollStatus = "posted"
	PollClosed    PollStatus = "closed"
	PollCanceled  PollStatus = "canceled"
)

type Poll struct {
	ID               uuid.UUID
	ChatID           int64
	ScheduledForUTC  time.Time
	Question         string
	Options          []string
	Points           int
	Status           PollStatus
	CreatedByAdminID *int64
	MessageID        *int
	PostedAtUTC      *time.Time
	ClosesAtUTC      *time.Time
	AwardedAtUTC     *time.Time
}

type VoteResult struct {
	Accepted      bool
	Already       bool
	PointsAwarded int
}
