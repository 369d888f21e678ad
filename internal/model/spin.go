package model

import "time"

type SpinRewardType string

const (
	SpinRewardNone   SpinRewardType = "none"
	SpinRewardPoints SpinRewardType = "points"
	SpinRewardCash   SpinRewardType = "cash"
)

type SpinHistory struct {
	UserID      int64
	DayUTC      time.Time
	PeriodStart time.Time
	RewardType  SpinRewardType
	RewardValue int
	Roll        string
	CreatedAt   time.Time
}

type SpinResult struct {
	Locked  bool
	Missing []ActionKind
	Already bool

	RewardType  SpinRewardType
	RewardValue int
	WeekPoints  int
}
