package model

type CheckinResult struct {
	Already       bool
	PointsAwarded int
	WeekPoints    int
	WeekStreak    int
}
