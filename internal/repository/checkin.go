package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
)

// CreateCheckin inserts the per-day check-in row. The (user_id, day_utc)
// uniqueness is the serialization point: of two concurrent check-ins for
// the same day, exactly one sees created=true.
func (r *Repository) CreateCheckin(ctx context.Context, userID int64, day time.Time) (bool, error) {
	query, args, err := squirrel.
		Insert("checkins").
		SetMap(map[string]interface{}{
			"user_id": userID,
			"day_utc": day,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build checkin insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert checkin: %w", err)
	}
	return true, nil
}
