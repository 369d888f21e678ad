package service

import (
	"context"
	"time"

	"communitybot/internal/model"

	"github.com/google/uuid"
)

type AdjustService struct {
	repo AdjustRepository
}

func NewAdjustService(repo AdjustRepository) *AdjustService {
	return &AdjustService{repo: repo}
}

// AdjustPoints posts a manual correction into the ledger. Each call
// gets a fresh reference id, so two identical adjustments are two
// distinct ledger entries, unlike every automatic source.
func (s *AdjustService) AdjustPoints(ctx context.Context, userID int64, points int, day time.Time) (*model.AwardResult, error) {
	if points == 0 {
		return nil, ErrInvalidAdjustment
	}

	day = model.Day(day)
	return s.repo.AwardOnce(ctx, model.AwardParams{
		UserID:      userID,
		DayUTC:      day,
		PeriodStart: model.WeekStart(day),
		Source:      model.SourceAdminAdjust,
		Points:      points,
		RefType:     "admin_adjust",
		RefID:       uuid.NewString(),
	})
}
