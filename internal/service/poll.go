package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"communitybot/internal/model"
	"communitybot/internal/repository"

	"github.com/google/uuid"
)

const defaultPollCloseAfter = 24 * time.Hour

type CreatePollInput struct {
	ChatID           int64
	ScheduledForUTC  time.Time
	Question         string
	Options          []string
	Points           int
	CreatedByAdminID *int64
}

type PollService struct {
	repo        PollRepository
	awardOnVote bool
	closeAfter  time.Duration
}

// NewPollService configures the poll lifecycle. awardOnVote switches
// between paying voters immediately and paying them when the poll
// closes; both paths share one ledger key per (poll, user), so flipping
// the flag mid-flight cannot double-pay anyone.
func NewPollService(repo PollRepository, awardOnVote bool, closeAfter time.Duration) *PollService {
	if closeAfter <= 0 {
		closeAfter = defaultPollCloseAfter
	}
	return &PollService{repo: repo, awardOnVote: awardOnVote, closeAfter: closeAfter}
}

func (s *PollService) Create(ctx context.Context, inp CreatePollInput) (*model.Poll, error) {
	question := strings.TrimSpace(inp.Question)

	options := make([]string, 0, len(inp.Options))
	for _, o := range inp.Options {
		if o = strings.TrimSpace(o); o != "" {
			options = append(options, o)
		}
	}

	if len(question) < 5 || len(question) > 300 {
		return nil, fmt.Errorf("%w: question must be 5..300 characters", ErrInvalidPoll)
	}
	if len(options) < 2 || len(options) > 10 {
		return nil, fmt.Errorf("%w: options must be 2..10 items", ErrInvalidPoll)
	}
	for _, o := range options {
		if len(o) > 100 {
			return nil, fmt.Errorf("%w: each option must be <= 100 characters", ErrInvalidPoll)
		}
	}
	if inp.Points < 0 || inp.Points > 100 {
		return nil, fmt.Errorf("%w: points must be between 0 and 100", ErrInvalidPoll)
	}
	if !inp.ScheduledForUTC.After(time.Now().UTC()) {
		return nil, fmt.Errorf("%w: scheduled time must be in the future", ErrInvalidPoll)
	}

	poll := &model.Poll{
		ID:               uuid.New(),
		ChatID:           inp.ChatID,
		ScheduledForUTC:  inp.ScheduledForUTC.UTC(),
		Question:         question,
		Options:          options,
		Points:           inp.Points,
		Status:           model.PollScheduled,
		CreatedByAdminID: inp.CreatedByAdminID,
	}

	if err := s.repo.CreatePoll(ctx, poll); err != nil {
		if errors.Is(err, repository.ErrPollConflict) {
			return nil, ErrPollConflict
		}
		return nil, err
	}
	return poll, nil
}

// Vote records a user's immutable vote. Closed, canceled and not-yet
// posted polls refuse votes as a result value, not an error. In
// award-on-vote mode the payout happens here, through the same ledger
// key the close path would use.
func (s *PollService) Vote(ctx context.Context, pollID uuid.UUID, userID int64, optionIndex int, day time.Time) (*model.VoteResult, error) {
	poll, err := s.repo.GetPoll(ctx, pollID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPollNotFound
		}
		return nil, err
	}

	if poll.Status != model.PollPosted {
		return &model.VoteResult{Accepted: false}, nil
	}
	if optionIndex < 0 || optionIndex >= len(poll.Options) {
		return nil, ErrInvalidOption
	}

	created, err := s.repo.RecordVote(ctx, pollID, userID, optionIndex)
	if err != nil {
		return nil, err
	}
	if !created {
		return &model.VoteResult{Accepted: false, Already: true}, nil
	}

	day = model.Day(day)
	if err := s.repo.MarkActionDone(ctx, userID, day, model.ActionPollVote); err != nil {
		return nil, err
	}

	awarded := 0
	if s.awardOnVote && poll.Points > 0 {
		res, err := s.repo.AwardOnce(ctx, model.AwardParams{
			UserID:      userID,
			DayUTC:      day,
			PeriodStart: model.WeekStart(day),
			Source:      model.SourcePoll,
			Points:      poll.Points,
			RefType:     "poll",
			RefID:       poll.ID.String(),
		})
		if err != nil {
			return nil, err
		}
		if res.Awarded {
			awarded = poll.Points
		}
	}

	return &model.VoteResult{Accepted: true, PointsAwarded: awarded}, nil
}

func (s *PollService) DueToPost(ctx context.Context, now time.Time) ([]*model.Poll, error) {
	return s.repo.ListPollsDueToPost(ctx, now, 20)
}

// MarkPosted stamps the transport's message id on a freshly posted poll
// and starts its closing clock.
func (s *PollService) MarkPosted(ctx context.Context, pollID uuid.UUID, messageID int, now time.Time) (bool, error) {
	return s.repo.MarkPollPosted(ctx, pollID, messageID, now, now.Add(s.closeAfter))
}

func (s *PollService) DueToClose(ctx context.Context, now time.Time) ([]*model.Poll, error) {
	return s.repo.ListPollsDueToClose(ctx, now, 20)
}

func (s *PollService) Close(ctx context.Context, pollID uuid.UUID) (bool, error) {
	return s.repo.MarkPollClosed(ctx, pollID)
}

func (s *PollService) Cancel(ctx context.Context, pollID uuid.UUID) (bool, error) {
	return s.repo.MarkPollCanceled(ctx, pollID)
}

func (s *PollService) GetPoll(ctx context.Context, pollID uuid.UUID) (*model.Poll, error) {
	poll, err := s.repo.GetPoll(ctx, pollID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPollNotFound
		}
		return nil, err
	}
	return poll, nil
}

// AwardClosed pays every voter of a closed poll and returns how many were
// newly awarded. Safe to re-run: the awarded stamp short-circuits whole
// polls, and the ledger key makes each voter's payout exactly-once even
// if the stamp write was lost.
func (s *PollService) AwardClosed(ctx context.Context, pollID uuid.UUID, now time.Time) (int, error) {
	poll, err := s.repo.GetPoll(ctx, pollID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrPollNotFound
		}
		return 0, err
	}
	if poll.Status != model.PollClosed || poll.AwardedAtUTC != nil {
		return 0, nil
	}

	if poll.Points <= 0 {
		_, err := s.repo.MarkPollAwarded(ctx, pollID, now)
		return 0, err
	}

	voters, err := s.repo.PollVoters(ctx, pollID)
	if err != nil {
		return 0, err
	}

	day := model.Day(now)
	periodStart := model.WeekStart(day)

	newlyAwarded := 0
	for _, voterID := range voters {
		res, err := s.repo.AwardOnce(ctx, model.AwardParams{
			UserID:      voterID,
			DayUTC:      day,
			PeriodStart: periodStart,
			Source:      model.SourcePoll,
			Points:      poll.Points,
			RefType:     "poll",
			RefID:       poll.ID.String(),
		})
		if err != nil {
			return newlyAwarded, err
		}
		if res.Awarded {
			newlyAwarded++
		}
	}

	if _, err := s.repo.MarkPollAwarded(ctx, pollID, now); err != nil {
		return newlyAwarded, err
	}
	return newlyAwarded, nil
}
