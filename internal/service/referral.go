package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"communitybot/internal/model"
	"communitybot/internal/repository"
)

const (
	DefaultReferralCap    = 100
	DefaultReferralPoints = 1
)

type ReferralService struct {
	repo   ReferralRepository
	cap    int
	points int
}

func NewReferralService(repo ReferralRepository, cap, points int) *ReferralService {
	if cap <= 0 {
		cap = DefaultReferralCap
	}
	if points <= 0 {
		points = DefaultReferralPoints
	}
	return &ReferralService{repo: repo, cap: cap, points: points}
}

type ReferralOutcome struct {
	Awarded            bool
	ReferrerTelegramID int64
}

// ProcessJoin handles an observed community join. The referred user is
// processed at most once (flag), the referrer is paid at most once per
// referred user (ledger key = referred user id) and only while under the
// lifetime cap, which is counted from the ledger, not a counter column.
func (s *ReferralService) ProcessJoin(ctx context.Context, telegramID int64, day time.Time) (*ReferralOutcome, error) {
	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Joined without ever talking to the bot; nothing to settle.
			return &ReferralOutcome{}, nil
		}
		return nil, err
	}

	if user.ReferralProcessed {
		return &ReferralOutcome{}, nil
	}

	if user.ReferredByUserID == nil {
		if err := s.repo.MarkReferralProcessed(ctx, user.ID); err != nil {
			return nil, err
		}
		return &ReferralOutcome{}, nil
	}

	referrer, err := s.repo.GetUserByID(ctx, *user.ReferredByUserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			if err := s.repo.MarkReferralProcessed(ctx, user.ID); err != nil {
				return nil, err
			}
			return &ReferralOutcome{}, nil
		}
		return nil, err
	}

	total, err := s.repo.CountSourceEvents(ctx, referrer.ID, model.SourceReferral, nil)
	if err != nil {
		return nil, err
	}
	if total >= s.cap {
		if err := s.repo.MarkReferralProcessed(ctx, user.ID); err != nil {
			return nil, err
		}
		return &ReferralOutcome{ReferrerTelegramID: referrer.TelegramID}, nil
	}

	day = model.Day(day)
	res, err := s.repo.AwardOnce(ctx, model.AwardParams{
		UserID:      referrer.ID,
		DayUTC:      day,
		PeriodStart: model.WeekStart(day),
		Source:      model.SourceReferral,
		Points:      s.points,
		RefType:     "referral",
		RefID:       strconv.FormatInt(user.ID, 10),
	})
	if err != nil {
		return nil, err
	}

	// Processed regardless of whether the award was new.
	if err := s.repo.MarkReferralProcessed(ctx, user.ID); err != nil {
		return nil, err
	}

	return &ReferralOutcome{
		Awarded:            res.Awarded,
		ReferrerTelegramID: referrer.TelegramID,
	}, nil
}

type ReferralStats struct {
	Total     int
	Remaining int
}

// Stats reports a referrer's successful referrals against the lifetime
// cap, counted from the ledger.
func (s *ReferralService) Stats(ctx context.Context, userID int64) (*ReferralStats, error) {
	total, err := s.repo.CountSourceEvents(ctx, userID, model.SourceReferral, nil)
	if err != nil {
		return nil, err
	}

	remaining := s.cap - total
	if remaining < 0 {
		remaining = 0
	}
	return &ReferralStats{Total: total, Remaining: remaining}, nil
}
