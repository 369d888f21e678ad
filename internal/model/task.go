package model

import "time"

// ActionKind names a daily action tracked for gating and status display.
// Markers are point-independent: a marker exists even when the action
// paid nothing.
type ActionKind string

const (
	ActionCheckin    ActionKind = "checkin"
	ActionQuiz       ActionKind = "quiz"
	ActionScreenshot ActionKind = "screenshot"
	ActionSpin       ActionKind = "spin"
	ActionPollVote   ActionKind = "poll_vote"
)

// DailyStatus is the per-day progress view rendered by /status.
type DailyStatus struct {
	DayUTC      time.Time
	Done        map[ActionKind]bool
	WeekPoints  int
	WeekStreak  int
	SpinsUnlock bool
}
