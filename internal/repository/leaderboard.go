package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"communitybot/internal/model"

	"github.com/Masterminds/squirrel"
)

type leaderRow struct {
	UserID     int64  `db:"user_id"`
	TelegramID int64  `db:"telegram_id"`
	Points     int    `db:"points"`
	Username   string `db:"username"`
	FirstName  string `db:"first_name"`
	LastName   string `db:"last_name"`
}

func toLeaderRows(rows []leaderRow) []model.LeaderRow {
	out := make([]model.LeaderRow, len(rows))
	for i, row := range rows {
		out[i] = model.LeaderRow{
			UserID:     row.UserID,
			TelegramID: row.TelegramID,
			Points:     row.Points,
			Username:   row.Username,
			FirstName:  row.FirstName,
			LastName:   row.LastName,
		}
	}
	return out
}

// TopPeriod returns the aggregate-mode top-N for one period. Ordering is
// points DESC, then earlier updated_at (whoever reached the total first
// ranks higher), then user_id as the final deterministic key.
func (r *Repository) TopPeriod(ctx context.Context, periodStart time.Time, limit int) ([]model.LeaderRow, error) {
	query, args, err := squirrel.
		Select("s.user_id", "s.points", "u.telegram_id", "u.username", "u.first_name", "u.last_name").
		From("period_stats s").
		Join("users u ON u.id = s.user_id").
		Where(squirrel.Eq{"s.period_start": periodStart}).
		Where(squirrel.Gt{"s.points": 0}).
		OrderBy("s.points DESC", "s.updated_at ASC", "s.user_id ASC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []leaderRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get period leaderboard: %w", err)
	}
	return toLeaderRows(rows), nil
}

// UserRankPeriod computes one user's 1-based rank in aggregate mode:
// 1 + the number of rows strictly ordered before theirs under the same
// three-key comparator TopPeriod uses. A user without an aggregate row,
// or with a non-positive total, is unranked.
func (r *Repository) UserRankPeriod(ctx context.Context, periodStart time.Time, userID int64) (*int, int, error) {
	query, args, err := squirrel.
		Select("points", "updated_at").
		From("period_stats").
		Where(squirrel.Eq{"period_start": periodStart, "user_id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, 0, err
	}

	var me struct {
		Points    int       `db:"points"`
		UpdatedAt time.Time `db:"updated_at"`
	}
	err = r.db.GetContext(ctx, &me, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, nil
		}
		return nil, 0, err
	}
	if me.Points <= 0 {
		return nil, me.Points, nil
	}

	countQuery, countArgs, err := squirrel.
		Select("count(*)").
		From("period_stats").
		Where(squirrel.Eq{"period_start": periodStart}).
		Where(squirrel.Or{
			squirrel.Gt{"points": me.Points},
			squirrel.And{
				squirrel.Eq{"points": me.Points},
				squirrel.Lt{"updated_at": me.UpdatedAt},
			},
			squirrel.And{
				squirrel.Eq{"points": me.Points},
				squirrel.Eq{"updated_at": me.UpdatedAt},
				squirrel.Lt{"user_id": userID},
			},
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, 0, err
	}

	var ahead int
	if err := r.db.GetContext(ctx, &ahead, countQuery, countArgs...); err != nil {
		return nil, 0, err
	}

	rank := ahead + 1
	return &rank, me.Points, nil
}

// TopRange returns the range-mode top-N: ledger sums over an inclusive
// day range. No aggregate timestamps exist at this resolution, so ties
// break by user_id only.
func (r *Repository) TopRange(ctx context.Context, start, end time.Time, limit int) ([]model.LeaderRow, error) {
	query, args, err := squirrel.
		Select("e.user_id", "SUM(e.points) AS points", "u.telegram_id", "u.username", "u.first_name", "u.last_name").
		From("point_events e").
		Join("users u ON u.id = e.user_id").
		Where(squirrel.GtOrEq{"e.day_utc": start}).
		Where(squirrel.LtOrEq{"e.day_utc": end}).
		GroupBy("e.user_id", "u.telegram_id", "u.username", "u.first_name", "u.last_name").
		Having("SUM(e.points) > 0").
		OrderBy("points DESC", "e.user_id ASC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []leaderRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get range leaderboard: %w", err)
	}
	return toLeaderRows(rows), nil
}

// UserRankRange computes one user's rank in range mode. A user with no
// events in the range is unranked.
func (r *Repository) UserRankRange(ctx context.Context, start, end time.Time, userID int64) (*int, int, error) {
	totalQuery, totalArgs, err := squirrel.
		Select("COALESCE(SUM(points), 0)").
		From("point_events").
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.GtOrEq{"day_utc": start}).
		Where(squirrel.LtOrEq{"day_utc": end}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, 0, err
	}

	var myTotal int
	if err := r.db.GetContext(ctx, &myTotal, totalQuery, totalArgs...); err != nil {
		return nil, 0, err
	}

	const existsSQL = `SELECT EXISTS (
		SELECT 1 FROM point_events WHERE user_id = $1 AND day_utc >= $2 AND day_utc <= $3)`

	var hasEvents bool
	if err := r.db.GetContext(ctx, &hasEvents, existsSQL, userID, start, end); err != nil {
		return nil, 0, err
	}
	if !hasEvents || myTotal <= 0 {
		return nil, myTotal, nil
	}

	const aheadSQL = `
		SELECT count(*) FROM (
			SELECT user_id, SUM(points) AS total
			FROM point_events
			WHERE day_utc >= $1 AND day_utc <= $2
			GROUP BY user_id
		) t
		WHERE t.total > $3 OR (t.total = $3 AND t.user_id < $4)`

	var ahead int
	if err := r.db.GetContext(ctx, &ahead, aheadSQL, start, end, myTotal, userID); err != nil {
		return nil, 0, err
	}

	rank := ahead + 1
	return &rank, myTotal, nil
}
