package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"communitybot/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

type periodStatsRow struct {
	PeriodStart    time.Time  `db:"period_start"`
	UserID         int64      `db:"user_id"`
	Points         int        `db:"points"`
	CheckinStreak  int        `db:"checkin_streak"`
	LastCheckinDay *time.Time `db:"last_checkin_day"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

func (row *periodStatsRow) toModel() *model.PeriodStats {
	return &model.PeriodStats{
		PeriodStart:    row.PeriodStart,
		UserID:         row.UserID,
		Points:         row.Points,
		CheckinStreak:  row.CheckinStreak,
		LastCheckinDay: row.LastCheckinDay,
		UpdatedAt:      row.UpdatedAt,
	}
}

// AwardOnce grants points for one qualifying action at most once. The
// ledger insert runs first; its unique key (user_id, source, ref_type,
// ref_id) is the sole duplicate detector. When the insert conflicts, the
// call is a no-op that reports the current aggregate values. When it
// succeeds, the period aggregate is upserted in the same transaction, so
// ledger and aggregate either move together or not at all.
func (r *Repository) AwardOnce(ctx context.Context, p model.AwardParams) (*model.AwardResult, error) {
	var res *model.AwardResult
	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		var err error
		res, err = r.awardOnceTx(ctx, tx, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *Repository) awardOnceTx(ctx context.Context, tx *sqlx.Tx, p model.AwardParams) (*model.AwardResult, error) {
	if p.Points == 0 {
		// Zero-point events are meaningless and the ledger rejects them by
		// check constraint; report current totals without writing anything.
		stats, err := r.periodStatsTx(ctx, tx, p.PeriodStart, p.UserID)
		if err != nil {
			return nil, err
		}
		return &model.AwardResult{
			Awarded:   false,
			NewTotal:  stats.Points,
			NewStreak: stats.CheckinStreak,
		}, nil
	}

	insertErr := r.nested(ctx, tx, func() error {
		query, args, err := squirrel.
			Insert("point_events").
			SetMap(map[string]interface{}{
				"user_id":      p.UserID,
				"period_start": p.PeriodStart,
				"day_utc":      p.DayUTC,
				"source":       p.Source,
				"points":       p.Points,
				"ref_type":     p.RefType,
				"ref_id":       p.RefID,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build point event insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, query, args...)
		return err
	})
	if insertErr != nil {
		if !isUniqueViolation(insertErr) {
			return nil, fmt.Errorf("failed to insert point event: %w", insertErr)
		}

		// Lost to an earlier (possibly concurrent) award with the same
		// dedup key. The savepoint rollback kept the transaction usable,
		// so read and return the stable current totals.
		stats, err := r.periodStatsTx(ctx, tx, p.PeriodStart, p.UserID)
		if err != nil {
			return nil, err
		}
		return &model.AwardResult{
			Awarded:   false,
			NewTotal:  stats.Points,
			NewStreak: stats.CheckinStreak,
		}, nil
	}

	if err := r.upsertPeriodStatsTx(ctx, tx, p); err != nil {
		return nil, fmt.Errorf("failed to upsert period stats: %w", err)
	}

	stats, err := r.periodStatsTx(ctx, tx, p.PeriodStart, p.UserID)
	if err != nil {
		return nil, err
	}
	return &model.AwardResult{
		Awarded:   true,
		NewTotal:  stats.Points,
		NewStreak: stats.CheckinStreak,
	}, nil
}

func (r *Repository) upsertPeriodStatsTx(ctx context.Context, tx *sqlx.Tx, p model.AwardParams) error {
	builder := squirrel.
		Insert("period_stats").
		Columns("period_start", "user_id", "points", "checkin_streak", "last_checkin_day", "updated_at")

	if p.Streak != nil {
		builder = builder.
			Values(p.PeriodStart, p.UserID, p.Points, p.Streak.Streak, p.Streak.LastCheckinDay, squirrel.Expr("now()")).
			Suffix(`ON CONFLICT (period_start, user_id) DO UPDATE SET
				points = period_stats.points + EXCLUDED.points,
				checkin_streak = EXCLUDED.checkin_streak,
				last_checkin_day = EXCLUDED.last_checkin_day,
				updated_at = now()`)
	} else {
		builder = builder.
			Values(p.PeriodStart, p.UserID, p.Points, 0, nil, squirrel.Expr("now()")).
			Suffix(`ON CONFLICT (period_start, user_id) DO UPDATE SET
				points = period_stats.points + EXCLUDED.points,
				updated_at = now()`)
	}

	query, args, err := builder.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build period stats upsert query: %w", err)
	}

	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

func (r *Repository) periodStatsTx(ctx context.Context, tx *sqlx.Tx, periodStart time.Time, userID int64) (*model.PeriodStats, error) {
	query, args, err := squirrel.
		Select("period_start", "user_id", "points", "checkin_streak", "last_checkin_day", "updated_at").
		From("period_stats").
		Where(squirrel.Eq{"period_start": periodStart, "user_id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row periodStatsRow
	err = tx.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Lazily created on first award; absence simply means zero.
			return &model.PeriodStats{PeriodStart: periodStart, UserID: userID}, nil
		}
		return nil, err
	}
	return row.toModel(), nil
}

// GetPeriodStats reads one user's aggregate outside any transaction. A
// missing row is returned as a zero-valued stats record.
func (r *Repository) GetPeriodStats(ctx context.Context, periodStart time.Time, userID int64) (*model.PeriodStats, error) {
	query, args, err := squirrel.
		Select("period_start", "user_id", "points", "checkin_streak", "last_checkin_day", "updated_at").
		From("period_stats").
		Where(squirrel.Eq{"period_start": periodStart, "user_id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row periodStatsRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &model.PeriodStats{PeriodStart: periodStart, UserID: userID}, nil
		}
		return nil, err
	}
	return row.toModel(), nil
}

// CountSourceEvents counts ledger events of one source for a user,
// optionally bounded to a period. Used for referral caps and audit.
func (r *Repository) CountSourceEvents(ctx context.Context, userID int64, source model.PointSource, periodStart *time.Time) (int, error) {
	builder := squirrel.
		Select("count(*)").
		From("point_events").
		Where(squirrel.Eq{"user_id": userID, "source": source})
	if periodStart != nil {
		builder = builder.Where(squirrel.Eq{"period_start": *periodStart})
	}

	query, args, err := builder.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, err
	}
	return count, nil
}
