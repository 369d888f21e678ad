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
	"github.com/lib/pq"
)

type pollRow struct {
	ID               uuid.UUID      `db:"id"`
	ChatID           int64          `db:"chat_id"`
	DayUTC           time.Time      `db:"day_utc"`
	ScheduledForUTC  time.Time      `db:"scheduled_for_utc"`
	Question         string         `db:"question"`
	Options          pq.StringArray `db:"options"`
	Points           int            `db:"points"`
	Status           string         `db:"status"`
	CreatedByAdminID *int64         `db:"created_by_admin_id"`
	MessageID        *int           `db:"message_id"`
	PostedAtUTC      *time.Time     `db:"posted_at_utc"`
	ClosesAtUTC      *time.Time     `db:"closes_at_utc"`
	AwardedAtUTC     *time.Time     `db:"awarded_at_utc"`
}

const pollColumns = "id, chat_id, day_utc, scheduled_for_utc, question, options, points, status, created_by_admin_id, message_id, posted_at_utc, closes_at_utc, awarded_at_utc"

func (row *pollRow) toModel() *model.Poll {
	return &model.Poll{
		ID:               row.ID,
		ChatID:           row.ChatID,
		ScheduledForUTC:  row.ScheduledForUTC,
		Question:         row.Question,
		Options:          []string(row.Options),
		Points:           row.Points,
		Status:           model.PollStatus(row.Status),
		CreatedByAdminID: row.CreatedByAdminID,
		MessageID:        row.MessageID,
		PostedAtUTC:      row.PostedAtUTC,
		ClosesAtUTC:      row.ClosesAtUTC,
		AwardedAtUTC:     row.AwardedAtUTC,
	}
}

// CreatePoll inserts a scheduled poll. One chat cannot hold two live
// (scheduled or posted) polls on the same day; the partial unique index
// on (chat_id, day_utc) resolves concurrent creates, so a second create
// surfaces as ErrPollConflict rather than a second row.
func (r *Repository) CreatePoll(ctx context.Context, poll *model.Poll) error {
	query, args, err := squirrel.
		Insert("polls").
		SetMap(map[string]interface{}{
			"id":                  poll.ID,
			"chat_id":             poll.ChatID,
			"day_utc":             model.Day(poll.ScheduledForUTC),
			"scheduled_for_utc":   poll.ScheduledForUTC,
			"question":            poll.Question,
			"options":             pq.StringArray(poll.Options),
			"points":              poll.Points,
			"status":              string(model.PollScheduled),
			"created_by_admin_id": poll.CreatedByAdminID,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build poll insert query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return ErrPollConflict
		}
		return fmt.Errorf("failed to insert poll: %w", err)
	}
	return nil
}

func (r *Repository) GetPoll(ctx context.Context, id uuid.UUID) (*model.Poll, error) {
	query, args, err := squirrel.
		Select(pollColumns).
		From("polls").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row pollRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return row.toModel(), nil
}

func (r *Repository) ListPollsDueToPost(ctx context.Context, now time.Time, limit int) ([]*model.Poll, error) {
	return r.listPolls(ctx, squirrel.And{
		squirrel.Eq{"status": string(model.PollScheduled)},
		squirrel.LtOrEq{"scheduled_for_utc": now},
	}, "scheduled_for_utc ASC", limit)
}

func (r *Repository) ListPollsDueToClose(ctx context.Context, now time.Time, limit int) ([]*model.Poll, error) {
	return r.listPolls(ctx, squirrel.And{
		squirrel.Eq{"status": string(model.PollPosted)},
		squirrel.Expr("closes_at_utc IS NOT NULL"),
		squirrel.LtOrEq{"closes_at_utc": now},
	}, "closes_at_utc ASC", limit)
}

func (r *Repository) listPolls(ctx context.Context, pred interface{}, order string, limit int) ([]*model.Poll, error) {
	query, args, err := squirrel.
		Select(pollColumns).
		From("polls").
		Where(pred).
		OrderBy(order).
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []pollRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}

	polls := make([]*model.Poll, len(rows))
	for i := range rows {
		polls[i] = rows[i].toModel()
	}
	return polls, nil
}

// MarkPollPosted flips scheduled -> posted. The status guard makes the
// transition safe against a concurrent tick processing the same poll.
func (r *Repository) MarkPollPosted(ctx context.Context, id uuid.UUID, messageID int, postedAt, closesAt time.Time) (bool, error) {
	return r.conditionalPollUpdate(ctx, squirrel.
		Update("polls").
		SetMap(map[string]interface{}{
			"status":        string(model.PollPosted),
			"message_id":    messageID,
			"posted_at_utc": postedAt,
			"closes_at_utc": closesAt,
		}).
		Where(squirrel.Eq{"id": id, "status": string(model.PollScheduled)}))
}

func (r *Repository) MarkPollClosed(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.conditionalPollUpdate(ctx, squirrel.
		Update("polls").
		Set("status", string(model.PollClosed)).
		Where(squirrel.Eq{"id": id, "status": string(model.PollPosted)}))
}

// MarkPollCanceled freezes a scheduled or posted poll; no further votes
// or awards happen once it succeeds.
func (r *Repository) MarkPollCanceled(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.conditionalPollUpdate(ctx, squirrel.
		Update("polls").
		Set("status", string(model.PollCanceled)).
		Where(squirrel.Eq{
			"id":     id,
			"status": []string{string(model.PollScheduled), string(model.PollPosted)},
		}))
}

// MarkPollAwarded stamps the payout exactly once per poll. The stamp is a
// convenience for skipping finished polls; per-voter exactness still
// comes from the ledger dedup key.
func (r *Repository) MarkPollAwarded(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	return r.conditionalPollUpdate(ctx, squirrel.
		Update("polls").
		Set("awarded_at_utc", at).
		Where(squirrel.Eq{"id": id, "status": string(model.PollClosed)}).
		Where("awarded_at_utc IS NULL"))
}

func (r *Repository) conditionalPollUpdate(ctx context.Context, builder squirrel.UpdateBuilder) (bool, error) {
	query, args, err := builder.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return false, err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update poll: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// RecordVote stores a user's first and only vote on a poll. Votes are
// immutable; a repeat surfaces as accepted=false.
func (r *Repository) RecordVote(ctx context.Context, pollID uuid.UUID, userID int64, optionIndex int) (bool, error) {
	query, args, err := squirrel.
		Insert("poll_votes").
		SetMap(map[string]interface{}{
			"poll_id":      pollID,
			"user_id":      userID,
			"option_index": optionIndex,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build poll vote insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert poll vote: %w", err)
	}
	return true, nil
}

func (r *Repository) PollVoters(ctx context.Context, pollID uuid.UUID) ([]int64, error) {
	query, args, err := squirrel.
		Select("user_id").
		From("poll_votes").
		Where(squirrel.Eq{"poll_id": pollID}).
		OrderBy("user_id ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var voters []int64
	if err := r.db.SelectContext(ctx, &voters, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get poll voters: %w", err)
	}
	return voters, nil
}
