package service

import (
	"context"
	"time"

	"communitybot/internal/model"
)

type StatusService struct {
	repo         StatusRepository
	spinRequires []model.ActionKind
}

func NewStatusService(repo StatusRepository, spinRequires []model.ActionKind) *StatusService {
	if len(spinRequires) == 0 {
		spinRequires = DefaultSpinConfig().Required
	}
	return &StatusService{repo: repo, spinRequires: spinRequires}
}

// Status assembles the per-day progress view: which actions are marked
// done, the week aggregate, and whether the spin gate is open.
func (s *StatusService) Status(ctx context.Context, userID int64, day time.Time) (*model.DailyStatus, error) {
	day = model.Day(day)

	done, err := s.repo.DoneSet(ctx, userID, day)
	if err != nil {
		return nil, err
	}

	stats, err := s.repo.GetPeriodStats(ctx, model.WeekStart(day), userID)
	if err != nil {
		return nil, err
	}

	unlock := true
	for _, kind := range s.spinRequires {
		if !done[kind] {
			unlock = false
			break
		}
	}

	return &model.DailyStatus{
		DayUTC:      day,
		Done:        done,
		WeekPoints:  stats.Points,
		WeekStreak:  stats.CheckinStreak,
		SpinsUnlock: unlock,
	}, nil
}
