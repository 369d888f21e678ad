package model

import "time"

type WindowKind string

const (
	WindowWeekly   WindowKind = "weekly"
	WindowCampaign WindowKind = "campaign"
)

// Window is a leaderboard accounting bucket: either the current
// Monday-start week or a fixed campaign date range. Both bounds are
// inclusive calendar days.
type Window struct {
	Kind  WindowKind
	Start time.Time
	End   time.Time
}

type LeaderRow struct {
	UserID     int64
	TelegramID int64
	Points     int
	Username   string
	FirstName  string
	LastName   string
}

// Leaderboard is the resolved view for one user: the top rows of the
// active window plus that user's own rank. Rank is nil for users without
// any points in the window.
type Leaderboard struct {
	Window   Window
	Top      []LeaderRow
	MyRank   *int
	MyPoints int
}
