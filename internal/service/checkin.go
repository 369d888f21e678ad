package service

import (
	"context"
	"time"

	"communitybot/internal/model"
)

const DefaultCheckinPoints = 2

type CheckinService struct {
	repo   CheckinRepository
	points int
}

func NewCheckinService(repo CheckinRepository, points int) *CheckinService {
	if points <= 0 {
		points = DefaultCheckinPoints
	}
	return &CheckinService{repo: repo, points: points}
}

// Checkin registers the day's check-in. The checkins uniqueness is the
// anti-abuse gate: a second call the same day is a friendly no-op with
// current totals. The streak is read from the aggregate before awarding
// and written back through the award itself, so it rides in the same
// transaction as the points.
func (s *CheckinService) Checkin(ctx context.Context, userID int64, day time.Time) (*model.CheckinResult, error) {
	day = model.Day(day)
	periodStart := model.WeekStart(day)

	created, err := s.repo.CreateCheckin(ctx, userID, day)
	if err != nil {
		return nil, err
	}

	if !created {
		// Backfill the completion marker; it is idempotent anyway.
		if err := s.repo.MarkActionDone(ctx, userID, day, model.ActionCheckin); err != nil {
			return nil, err
		}
		stats, err := s.repo.GetPeriodStats(ctx, periodStart, userID)
		if err != nil {
			return nil, err
		}
		return &model.CheckinResult{
			Already:    true,
			WeekPoints: stats.Points,
			WeekStreak: stats.CheckinStreak,
		}, nil
	}

	if err := s.repo.MarkActionDone(ctx, userID, day, model.ActionCheckin); err != nil {
		return nil, err
	}

	stats, err := s.repo.GetPeriodStats(ctx, periodStart, userID)
	if err != nil {
		return nil, err
	}

	streak := 1
	yesterday := day.AddDate(0, 0, -1)
	if stats.LastCheckinDay != nil && stats.LastCheckinDay.Equal(yesterday) {
		streak = stats.CheckinStreak + 1
	}

	res, err := s.repo.AwardOnce(ctx, model.AwardParams{
		UserID:      userID,
		DayUTC:      day,
		PeriodStart: periodStart,
		Source:      model.SourceCheckin,
		Points:      s.points,
		RefType:     "checkin",
		RefID:       model.DayKey(day),
		Streak: &model.StreakUpdate{
			Streak:         streak,
			LastCheckinDay: day,
		},
	})
	if err != nil {
		return nil, err
	}

	awarded := 0
	if res.Awarded {
		awarded = s.points
	}
	return &model.CheckinResult{
		Already:       false,
		PointsAwarded: awarded,
		WeekPoints:    res.NewTotal,
		WeekStreak:    res.NewStreak,
	}, nil
}
