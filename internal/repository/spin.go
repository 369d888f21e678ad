package repository

import (
	"context"
	"fmt"
	"time"

	"communitybot/internal/model"

	"github.com/Masterminds/squirrel"
)

// CreateSpin reserves the day's single spin. The (user_id, day_utc)
// uniqueness makes repeat presses a no-op: created=false means the spin
// already happened (or is happening) today.
func (r *Repository) CreateSpin(ctx context.Context, userID int64, day, periodStart time.Time) (bool, error) {
	query, args, err := squirrel.
		Insert("spin_history").
		SetMap(map[string]interface{}{
			"user_id":      userID,
			"day_utc":      day,
			"period_start": periodStart,
			"reward_type":  string(model.SpinRewardNone),
			"reward_value": 0,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build spin insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert spin: %w", err)
	}
	return true, nil
}

// UpdateSpinReward stores the drawn outcome on the reserved row, with the
// raw roll kept for audit.
func (r *Repository) UpdateSpinReward(ctx context.Context, userID int64, day time.Time, rewardType model.SpinRewardType, rewardValue int, roll string) error {
	query, args, err := squirrel.
		Update("spin_history").
		SetMap(map[string]interface{}{
			"reward_type":  string(rewardType),
			"reward_value": rewardValue,
			"roll":         roll,
		}).
		Where(squirrel.Eq{"user_id": userID, "day_utc": day}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update spin reward: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// CountCashWins counts a user's cash rewards in one period. Checked
// before the draw so a capped user never even rolls cash.
func (r *Repository) CountCashWins(ctx context.Context, userID int64, periodStart time.Time) (int, error) {
	query, args, err := squirrel.
		Select("count(*)").
		From("spin_history").
		Where(squirrel.Eq{
			"user_id":      userID,
			"period_start": periodStart,
			"reward_type":  string(model.SpinRewardCash),
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, err
	}
	return count, nil
}
