package model

import "time"

// PointSource tags every ledger event with the feature that granted it.
type PointSource string

const (
	SourceCheckin     PointSource = "checkin"
	SourceQuiz        PointSource = "quiz"
	SourcePoll        PointSource = "poll"
	SourceScreenshot  PointSource = "screenshot"
	SourceSpin        PointSource = "spin"
	SourceAdminAdjust PointSource = "admin_adjust"
	SourceReferral    PointSource = "referral"
)

// PointEvent is one immutable row of the ledger. Corrections are new
// events with a negative amount, never edits.
type PointEvent struct {
	ID          int64
	UserID      int64
	PeriodStart time.Time
	DayUTC      time.Time
	Source      PointSource
	Points      int
	RefType     string
	RefID       string
	CreatedAt   time.Time
}

// PeriodStats is the denormalized running total for one user in one
// period. It is a cache over the ledger, kept consistent by updating both
// in a single transaction.
type PeriodStats struct {
	PeriodStart    time.Time
	UserID         int64
	Points         int
	CheckinStreak  int
	LastCheckinDay *time.Time
	UpdatedAt      time.Time
}

// StreakUpdate carries check-in streak fields into an award. Only the
// check-in flow supplies it.
type StreakUpdate struct {
	Streak         int
	LastCheckinDay time.Time
}

type AwardParams struct {
	UserID      int64
	DayUTC      time.Time
	PeriodStart time.Time
	Source      PointSource
	Points      int
	RefType     string
	RefID       string
	Streak      *StreakUpdate
}

type AwardResult struct {
	Awarded   bool
	NewTotal  int
	NewStreak int
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekStart returns the Monday of the week containing day (UTC).
func WeekStart(day time.Time) time.Time {
	day = Day(day)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// DayKey renders a day as a stable YYYYMMDD dedup reference.
func DayKey(day time.Time) string {
	return day.UTC().Format("20060102")
}
