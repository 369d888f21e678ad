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

type userRow struct {
	ID                int64     `db:"id"`
	TelegramID        int64     `db:"telegram_id"`
	Username          string    `db:"username"`
	FirstName         string    `db:"first_name"`
	LastName          string    `db:"last_name"`
	ReferredByUserID  *int64    `db:"referred_by_user_id"`
	ReferralProcessed bool      `db:"referral_processed"`
	IsAdmin           bool      `db:"is_admin"`
	CreatedAt         time.Time `db:"created_at"`
}

func (row *userRow) toModel() *model.User {
	return &model.User{
		ID:                row.ID,
		TelegramID:        row.TelegramID,
		Username:          row.Username,
		FirstName:         row.FirstName,
		LastName:          row.LastName,
		ReferredByUserID:  row.ReferredByUserID,
		ReferralProcessed: row.ReferralProcessed,
		IsAdmin:           row.IsAdmin,
		CreatedAt:         row.CreatedAt,
	}
}

// EnsureUser creates the user on first interaction and refreshes display
// name fields afterwards. Users are never deleted.
func (r *Repository) EnsureUser(ctx context.Context, identity model.Identity) (*model.User, error) {
	query, args, err := squirrel.
		Insert("users").
		SetMap(map[string]interface{}{
			"telegram_id": identity.TelegramID,
			"username":    identity.Username,
			"first_name":  identity.FirstName,
			"last_name":   identity.LastName,
		}).
		Suffix(`ON CONFLICT (telegram_id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name`).
		Suffix("RETURNING id, telegram_id, username, first_name, last_name, referred_by_user_id, referral_processed, is_admin, created_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build user upsert query: %w", err)
	}

	var row userRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return row.toModel(), nil
}

func (r *Repository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	query, args, err := squirrel.
		Select("id", "telegram_id", "username", "first_name", "last_name", "referred_by_user_id", "referral_processed", "is_admin", "created_at").
		From("users").
		Where(squirrel.Eq{"telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row userRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return row.toModel(), nil
}

func (r *Repository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	query, args, err := squirrel.
		Select("id", "telegram_id", "username", "first_name", "last_name", "referred_by_user_id", "referral_processed", "is_admin", "created_at").
		From("users").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row userRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return row.toModel(), nil
}

// SetReferrer attaches a referrer exactly once, before the referred user's
// join has been processed. Self-referrals are the caller's problem to
// filter; existing attachments are left untouched.
func (r *Repository) SetReferrer(ctx context.Context, userID, referrerUserID int64) error {
	query, args, err := squirrel.
		Update("users").
		Set("referred_by_user_id", referrerUserID).
		Where(squirrel.Eq{"id": userID, "referral_processed": false}).
		Where("referred_by_user_id IS NULL").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *Repository) MarkReferralProcessed(ctx context.Context, userID int64) error {
	query, args, err := squirrel.
		Update("users").
		Set("referral_processed", true).
		Where(squirrel.Eq{"id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}
