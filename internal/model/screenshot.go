package model

import (
	"time"

	"github.com/google/uuid"
)

type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
	SubmissionExpired  SubmissionStatus = "expired"
)

// Submission is one screenshot per user per UTC day. While under review it
// is claimed by at most one admin, bounded by a TTL. A claim whose expiry
// has passed counts as released even before the sweep flips the status.
type Submission struct {
	ID     uuid.UUID
	UserID int64
	DayUTC time.Time

	ImageFileID string
	Status      SubmissionStatus

	AssignedAdminID *int64
	AssignedAtUTC   *time.Time
	ExpiresAtUTC    *time.Time

	DecidedByAdminID *int64
	DecidedAtUTC     *time.Time
	DecisionNote     string

	CreatedAt time.Time
}

type SubmitResult struct {
	Created    bool
	Submission *Submission
}

type DecideResult struct {
	Applied        bool
	AlreadyDecided bool
	PointsAwarded  int
}

// QueueCounts summarizes the review queue for the admin panel.
type QueueCounts struct {
	Pending  int
	Approved int
	Rejected int
	Expired  int
}
