package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"communitybot/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type submissionRow struct {
	ID               uuid.UUID  `db:"id"`
	UserID           int64      `db:"user_id"`
	DayUTC           time.Time  `db:"day_utc"`
	ImageFileID      string     `db:"image_file_id"`
	Status           string     `db:"status"`
	AssignedAdminID  *int64     `db:"assigned_admin_id"`
	AssignedAtUTC    *time.Time `db:"assigned_at_utc"`
	ExpiresAtUTC     *time.Time `db:"expires_at_utc"`
	DecidedByAdminID *int64     `db:"decided_by_admin_id"`
	DecidedAtUTC     *time.Time `db:"decided_at_utc"`
	DecisionNote     string     `db:"decision_note"`
	CreatedAt        time.Time  `db:"created_at"`
}

const submissionColumns = "id, user_id, day_utc, image_file_id, status, assigned_admin_id, assigned_at_utc, expires_at_utc, decided_by_admin_id, decided_at_utc, decision_note, created_at"

func (row *submissionRow) toModel() *model.Submission {
	return &model.Submission{
		ID:               row.ID,
		UserID:           row.UserID,
		DayUTC:           row.DayUTC,
		ImageFileID:      row.ImageFileID,
		Status:           model.SubmissionStatus(row.Status),
		AssignedAdminID:  row.AssignedAdminID,
		AssignedAtUTC:    row.AssignedAtUTC,
		ExpiresAtUTC:     row.ExpiresAtUTC,
		DecidedByAdminID: row.DecidedByAdminID,
		DecidedAtUTC:     row.DecidedAtUTC,
		DecisionNote:     row.DecisionNote,
		CreatedAt:        row.CreatedAt,
	}
}

// CreateSubmissionOnce inserts one screenshot submission per user per
// day. The uniqueness constraint, not a prior read, decides the race: on
// conflict the existing submission is fetched and returned with
// created=false.
func (r *Repository) CreateSubmissionOnce(ctx context.Context, userID int64, day time.Time, imageFileID string) (*model.SubmitResult, error) {
	sub := &model.Submission{
		ID:          uuid.New(),
		UserID:      userID,
		DayUTC:      day,
		ImageFileID: imageFileID,
		Status:      model.SubmissionPending,
	}

	query, args, err := squirrel.
		Insert("screenshot_submissions").
		SetMap(map[string]interface{}{
			"id":            sub.ID,
			"user_id":       userID,
			"day_utc":       day,
			"image_file_id": imageFileID,
			"status":        string(model.SubmissionPending),
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build submission insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if !isUniqueViolation(err) {
			return nil, fmt.Errorf("failed to insert submission: %w", err)
		}
		existing, err := r.GetSubmissionForDay(ctx, userID, day)
		if err != nil {
			return nil, err
		}
		return &model.SubmitResult{Created: false, Submission: existing}, nil
	}
	return &model.SubmitResult{Created: true, Submission: sub}, nil
}

func (r *Repository) GetSubmission(ctx context.Context, id uuid.UUID) (*model.Submission, error) {
	return r.getSubmission(ctx, squirrel.Eq{"id": id})
}

func (r *Repository) GetSubmissionForDay(ctx context.Context, userID int64, day time.Time) (*model.Submission, error) {
	return r.getSubmission(ctx, squirrel.Eq{"user_id": userID, "day_utc": day})
}

func (r *Repository) getSubmission(ctx context.Context, pred squirrel.Eq) (*model.Submission, error) {
	query, args, err := squirrel.
		Select(submissionColumns).
		From("screenshot_submissions").
		Where(pred).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row submissionRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return row.toModel(), nil
}

// ClaimSubmission gives one admin a TTL-bounded exclusive hold. A single
// conditional update is the whole mechanism: claimable means status is
// pending or expired AND nobody holds a live claim. Two racing admins
// cannot both see rows > 0.
func (r *Repository) ClaimSubmission(ctx context.Context, id uuid.UUID, adminID int64, ttl time.Duration) (bool, error) {
	now := time.Now().UTC()

	query, args, err := squirrel.
		Update("screenshot_submissions").
		SetMap(map[string]interface{}{
			"status":            string(model.SubmissionPending),
			"assigned_admin_id": adminID,
			"assigned_at_utc":   now,
			"expires_at_utc":    now.Add(ttl),
		}).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": []string{string(model.SubmissionPending), string(model.SubmissionExpired)}}).
		Where(squirrel.Or{
			squirrel.Expr("assigned_admin_id IS NULL"),
			squirrel.Expr("expires_at_utc IS NULL"),
			squirrel.Lt{"expires_at_utc": now},
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to claim submission: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// DecideSubmission applies approve/reject atomically with its side
// effects. The decision is a conditional update guarded on status=pending;
// zero rows means somebody else decided first and nothing happens. On
// approve, the point award and the completion marker ride in the same
// transaction, so an approved submission is never persisted without its
// payout.
func (r *Repository) DecideSubmission(
	ctx context.Context,
	id uuid.UUID,
	adminID int64,
	approve bool,
	note string,
	award model.AwardParams,
) (*model.DecideResult, error) {
	status := model.SubmissionRejected
	if approve {
		status = model.SubmissionApproved
	}

	res := &model.DecideResult{}
	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Update("screenshot_submissions").
			SetMap(map[string]interface{}{
				"status":              string(status),
				"decided_by_admin_id": adminID,
				"decided_at_utc":      time.Now().UTC(),
				"decision_note":       note,
			}).
			Where(squirrel.Eq{"id": id, "status": string(model.SubmissionPending)}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to decide submission: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			res.AlreadyDecided = true
			return nil
		}
		res.Applied = true

		if !approve {
			return nil
		}

		awardRes, err := r.awardOnceTx(ctx, tx, award)
		if err != nil {
			return err
		}
		if awardRes.Awarded {
			res.PointsAwarded = award.Points
		}

		return r.markActionDoneTx(ctx, tx, award.UserID, award.DayUTC, model.ActionScreenshot)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// SweepExpiredClaims bulk-releases timed-out holds: pending rows whose
// claim expiry has passed become expired and unassigned. Racing claim
// attempts either win their conditional update first or lose to this
// sweep; no in-between state is observable.
func (r *Repository) SweepExpiredClaims(ctx context.Context) (int64, error) {
	now := time.Now().UTC()

	query, args, err := squirrel.
		Update("screenshot_submissions").
		SetMap(map[string]interface{}{
			"status":            string(model.SubmissionExpired),
			"assigned_admin_id": nil,
			"assigned_at_utc":   nil,
			"expires_at_utc":    nil,
		}).
		Where(squirrel.Eq{"status": string(model.SubmissionPending)}).
		Where(squirrel.Expr("expires_at_utc IS NOT NULL")).
		Where(squirrel.Lt{"expires_at_utc": now}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired claims: %w", err)
	}
	return result.RowsAffected()
}

// QueueCounts summarizes the review queue, optionally for one day.
func (r *Repository) QueueCounts(ctx context.Context, day *time.Time) (*model.QueueCounts, error) {
	builder := squirrel.
		Select("status", "count(*) AS n").
		From("screenshot_submissions").
		GroupBy("status")
	if day != nil {
		builder = builder.Where(squirrel.Eq{"day_utc": *day})
	}

	query, args, err := builder.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Status string `db:"status"`
		N      int    `db:"n"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get queue counts: %w", err)
	}

	counts := &model.QueueCounts{}
	for _, row := range rows {
		switch model.SubmissionStatus(row.Status) {
		case model.SubmissionPending:
			counts.Pending = row.N
		case model.SubmissionApproved:
			counts.Approved = row.N
		case model.SubmissionRejected:
			counts.Rejected = row.N
		case model.SubmissionExpired:
			counts.Expired = row.N
		}
	}
	return counts, nil
}
