package service

import (
	"context"
	"time"

	"communitybot/internal/model"
)

const DefaultLeaderboardSize = 10

// Campaign default boundaries; overridable from config. Inclusive days.
var (
	DefaultCampaignStart = time.Date(2026, time.February, 5, 0, 0, 0, 0, time.UTC)
	DefaultCampaignEnd   = time.Date(2026, time.February, 12, 0, 0, 0, 0, time.UTC)
)

type LeaderboardService struct {
	repo          LeaderboardRepository
	campaignStart time.Time
	campaignEnd   time.Time
	topN          int
}

func NewLeaderboardService(repo LeaderboardRepository, campaignStart, campaignEnd time.Time, topN int) *LeaderboardService {
	if campaignStart.IsZero() || campaignEnd.IsZero() {
		campaignStart = DefaultCampaignStart
		campaignEnd = DefaultCampaignEnd
	}
	if topN <= 0 {
		topN = DefaultLeaderboardSize
	}
	return &LeaderboardService{
		repo:          repo,
		campaignStart: model.Day(campaignStart),
		campaignEnd:   model.Day(campaignEnd),
		topN:          topN,
	}
}

// ResolveWindow picks the accounting bucket for a day: the campaign
// range while today falls inside it, the Monday-start week otherwise.
// Pure and side-effect free.
func (s *LeaderboardService) ResolveWindow(today time.Time) model.Window {
	today = model.Day(today)

	if !today.Before(s.campaignStart) && !today.After(s.campaignEnd) {
		return model.Window{
			Kind:  model.WindowCampaign,
			Start: s.campaignStart,
			End:   s.campaignEnd,
		}
	}

	ws := model.WeekStart(today)
	return model.Window{
		Kind:  model.WindowWeekly,
		Start: ws,
		End:   ws.AddDate(0, 0, 6),
	}
}

// Get resolves the active window and answers both queries at once: the
// top rows and the asking user's own rank. Weekly windows read the
// aggregate; campaign windows sum the ledger over the date range, with
// its documented coarser tie-breaking.
func (s *LeaderboardService) Get(ctx context.Context, userID int64, today time.Time) (*model.Leaderboard, error) {
	window := s.ResolveWindow(today)

	var (
		top    []model.LeaderRow
		rank   *int
		points int
		err    error
	)

	switch window.Kind {
	case model.WindowCampaign:
		top, err = s.repo.TopRange(ctx, window.Start, window.End, s.topN)
		if err != nil {
			return nil, err
		}
		rank, points, err = s.repo.UserRankRange(ctx, window.Start, window.End, userID)
	default:
		top, err = s.repo.TopPeriod(ctx, window.Start, s.topN)
		if err != nil {
			return nil, err
		}
		rank, points, err = s.repo.UserRankPeriod(ctx, window.Start, userID)
	}
	if err != nil {
		return nil, err
	}

	return &model.Leaderboard{
		Window:   window,
		Top:      top,
		MyRank:   rank,
		MyPoints: points,
	}, nil
}
