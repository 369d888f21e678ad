package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"communitybot/internal/model"
)

// SpinConfig holds the wheel's outcome space. Probabilities are cash
// first, then nothing; the remainder of the unit interval pays points.
type SpinConfig struct {
	CashChance float64
	NoneChance float64

	PointsMin int
	PointsMax int

	CashCents        int
	CashMaxPerPeriod int

	Required []model.ActionKind
}

func DefaultSpinConfig() SpinConfig {
	return SpinConfig{
		CashChance:       0.01,
		NoneChance:       0.15,
		PointsMin:        1,
		PointsMax:        5,
		CashCents:        500,
		CashMaxPerPeriod: 1,
		Required: []model.ActionKind{
			model.ActionCheckin,
			model.ActionQuiz,
			model.ActionScreenshot,
		},
	}
}

type SpinService struct {
	repo SpinRepository
	cfg  SpinConfig
}

func NewSpinService(repo SpinRepository, cfg SpinConfig) *SpinService {
	return &SpinService{repo: repo, cfg: cfg}
}

// Spin runs the daily reward draw. The draw is deliberately not random:
// it is seeded from (user, day) so any outcome can be re-derived later
// for audit. The spin row reserves the day first, so repeat presses are
// cheap no-ops and the cash cap is counted before the roll rather than
// patched up after it.
func (s *SpinService) Spin(ctx context.Context, userID int64, day time.Time) (*model.SpinResult, error) {
	day = model.Day(day)
	periodStart := model.WeekStart(day)

	done, err := s.repo.DoneSet(ctx, userID, day)
	if err != nil {
		return nil, err
	}

	var missing []model.ActionKind
	for _, kind := range s.cfg.Required {
		if !done[kind] {
			missing = append(missing, kind)
		}
	}
	if len(missing) > 0 {
		return &model.SpinResult{Locked: true, Missing: missing}, nil
	}

	created, err := s.repo.CreateSpin(ctx, userID, day, periodStart)
	if err != nil {
		return nil, err
	}
	if !created {
		return &model.SpinResult{Already: true}, nil
	}

	canCash := true
	if s.cfg.CashMaxPerPeriod > 0 {
		wins, err := s.repo.CountCashWins(ctx, userID, periodStart)
		if err != nil {
			return nil, err
		}
		canCash = wins < s.cfg.CashMaxPerPeriod
	} else {
		canCash = false
	}

	rewardType, rewardValue, roll := s.draw(userID, day, canCash)

	if err := s.repo.UpdateSpinReward(ctx, userID, day, rewardType, rewardValue, fmt.Sprintf("%.6f", roll)); err != nil {
		return nil, err
	}

	weekPoints := 0
	if rewardType == model.SpinRewardPoints && rewardValue > 0 {
		res, err := s.repo.AwardOnce(ctx, model.AwardParams{
			UserID:      userID,
			DayUTC:      day,
			PeriodStart: periodStart,
			Source:      model.SourceSpin,
			Points:      rewardValue,
			RefType:     "spin",
			RefID:       model.DayKey(day),
		})
		if err != nil {
			return nil, err
		}
		weekPoints = res.NewTotal
	}

	if err := s.repo.MarkActionDone(ctx, userID, day, model.ActionSpin); err != nil {
		return nil, err
	}

	return &model.SpinResult{
		RewardType:  rewardType,
		RewardValue: rewardValue,
		WeekPoints:  weekPoints,
	}, nil
}

// draw maps the (user, day) seed onto the outcome space. Reproducible by
// construction: same inputs, same reward.
func (s *SpinService) draw(userID int64, day time.Time, canCash bool) (model.SpinRewardType, int, float64) {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d:%s", userID, day.Format("2006-01-02"))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	roll := rng.Float64()

	switch {
	case roll < s.cfg.CashChance && canCash:
		return model.SpinRewardCash, s.cfg.CashCents, roll
	case roll < s.cfg.CashChance+s.cfg.NoneChance:
		return model.SpinRewardNone, 0, roll
	default:
		span := s.cfg.PointsMax - s.cfg.PointsMin + 1
		if span < 1 {
			span = 1
		}
		return model.SpinRewardPoints, s.cfg.PointsMin + rng.Intn(span), roll
	}
}
