package repository

import (
	"context"
	"fmt"
	"time"

	"communitybot/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// SnapshotExists reports whether a period has already been frozen. The
// marker row, not the winner rows, carries the answer: a period with no
// winners is still a frozen period.
func (r *Repository) SnapshotExists(ctx context.Context, periodStart time.Time) (bool, error) {
	query, args, err := squirrel.
		Select("count(*)").
		From("winner_snapshots").
		Where(squirrel.Eq{"period_start": periodStart}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, err
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return false, err
	}
	return count > 0, nil
}

// SaveSnapshot freezes a period's winners. Without overwrite an existing
// snapshot wins and the call is a no-op; overwrite is the explicit admin
// escape hatch and replaces the period's rows wholesale. An empty winners
// list still records the marker, so the period counts as frozen.
func (r *Repository) SaveSnapshot(ctx context.Context, periodStart time.Time, winners []model.LeaderRow, overwrite bool) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		existsQuery, existsArgs, err := squirrel.
			Select("count(*)").
			From("winner_snapshots").
			Where(squirrel.Eq{"period_start": periodStart}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		var count int
		if err := tx.GetContext(ctx, &count, existsQuery, existsArgs...); err != nil {
			return err
		}
		if count > 0 {
			if !overwrite {
				return nil
			}
			markQuery, markArgs, err := squirrel.
				Update("winner_snapshots").
				Set("overridden", true).
				Where(squirrel.Eq{"period_start": periodStart}).
				PlaceholderFormat(squirrel.Dollar).
				ToSql()
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, markQuery, markArgs...); err != nil {
				return err
			}
			delQuery, delArgs, err := squirrel.
				Delete("weekly_winners").
				Where(squirrel.Eq{"period_start": periodStart}).
				PlaceholderFormat(squirrel.Dollar).
				ToSql()
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, delQuery, delArgs...); err != nil {
				return err
			}
		} else {
			markQuery, markArgs, err := squirrel.
				Insert("winner_snapshots").
				SetMap(map[string]interface{}{"period_start": periodStart}).
				PlaceholderFormat(squirrel.Dollar).
				ToSql()
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, markQuery, markArgs...); err != nil {
				return fmt.Errorf("failed to insert snapshot marker: %w", err)
			}
		}

		if len(winners) == 0 {
			return nil
		}
		if len(winners) > 3 {
			winners = winners[:3]
		}

		builder := squirrel.
			Insert("weekly_winners").
			Columns("period_start", "rank", "user_id", "points")
		for i, w := range winners {
			builder = builder.Values(periodStart, i+1, w.UserID, w.Points)
		}

		query, args, err := builder.PlaceholderFormat(squirrel.Dollar).ToSql()
		if err != nil {
			return fmt.Errorf("failed to build winners insert query: %w", err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert winners: %w", err)
		}
		return nil
	})
}

// GetSnapshot reads the frozen winners joined with display names.
func (r *Repository) GetSnapshot(ctx context.Context, periodStart time.Time) ([]model.WinnerRow, error) {
	query, args, err := squirrel.
		Select("w.period_start", "w.rank", "w.user_id", "w.points", "u.username", "u.first_name", "u.last_name").
		From("weekly_winners w").
		Join("users u ON u.id = w.user_id").
		Where(squirrel.Eq{"w.period_start": periodStart}).
		OrderBy("w.rank ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []struct {
		PeriodStart time.Time `db:"period_start"`
		Rank        int       `db:"rank"`
		UserID      int64     `db:"user_id"`
		Points      int       `db:"points"`
		Username    string    `db:"username"`
		FirstName   string    `db:"first_name"`
		LastName    string    `db:"last_name"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get winners snapshot: %w", err)
	}

	out := make([]model.WinnerRow, len(rows))
	for i, row := range rows {
		out[i] = model.WinnerRow{
			PeriodStart: row.PeriodStart,
			Rank:        row.Rank,
			UserID:      row.UserID,
			Points:      row.Points,
			Username:    row.Username,
			FirstName:   row.FirstName,
			LastName:    row.LastName,
		}
	}
	return out, nil
}
