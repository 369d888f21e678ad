package repository

import (
	"context"
	"fmt"
	"time"

	"communitybot/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// MarkActionDone records "user did action on day" exactly once. A
// duplicate marker is swallowed: completion is a fact, not a counter.
func (r *Repository) MarkActionDone(ctx context.Context, userID int64, day time.Time, kind model.ActionKind) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		return r.markActionDoneTx(ctx, tx, userID, day, kind)
	})
}

// markActionDoneTx is the in-transaction variant. The insert sits under a
// savepoint so a duplicate never aborts sibling work already done in the
// caller's transaction.
func (r *Repository) markActionDoneTx(ctx context.Context, tx *sqlx.Tx, userID int64, day time.Time, kind model.ActionKind) error {
	err := r.nested(ctx, tx, func() error {
		query, args, err := squirrel.
			Insert("daily_actions").
			SetMap(map[string]interface{}{
				"user_id": userID,
				"day_utc": day,
				"action":  kind,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build daily action insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil && !isUniqueViolation(err) {
		return fmt.Errorf("failed to insert daily action: %w", err)
	}
	return nil
}

// DoneSet returns every action kind the user completed on the given day.
func (r *Repository) DoneSet(ctx context.Context, userID int64, day time.Time) (map[model.ActionKind]bool, error) {
	query, args, err := squirrel.
		Select("action").
		From("daily_actions").
		Where(squirrel.Eq{"user_id": userID, "day_utc": day}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var kinds []model.ActionKind
	if err := r.db.SelectContext(ctx, &kinds, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get daily actions: %w", err)
	}

	done := make(map[model.ActionKind]bool, len(kinds))
	for _, k := range kinds {
		done[k] = true
	}
	return done, nil
}
