package model

import "time"

// WinnerRow is one row of an immutable per-period top-3 snapshot. The
// snapshot is written once when a period completes so later re-displays
// cannot drift from the announced result.
type WinnerRow struct {
	PeriodStart time.Time
	Rank        int
	UserID      int64
	Points      int
	Username    string
	FirstName   string
	LastName    string
}
