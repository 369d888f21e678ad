package service

import (
	"context"
	"errors"
	"time"

	"communitybot/internal/model"
	"communitybot/internal/repository"

	"github.com/google/uuid"
)

const (
	DefaultScreenshotPoints = 3
	DefaultClaimTTL         = 10 * time.Minute
)

type ScreenshotService struct {
	repo     ScreenshotRepository
	points   int
	claimTTL time.Duration
}

func NewScreenshotService(repo ScreenshotRepository, points int, claimTTL time.Duration) *ScreenshotService {
	if points <= 0 {
		points = DefaultScreenshotPoints
	}
	if claimTTL <= 0 {
		claimTTL = DefaultClaimTTL
	}
	return &ScreenshotService{repo: repo, points: points, claimTTL: claimTTL}
}

// Submit files the day's screenshot for review. One per user per day; a
// repeat returns the existing submission with Created=false.
func (s *ScreenshotService) Submit(ctx context.Context, userID int64, day time.Time, imageFileID string) (*model.SubmitResult, error) {
	return s.repo.CreateSubmissionOnce(ctx, userID, model.Day(day), imageFileID)
}

func (s *ScreenshotService) Get(ctx context.Context, id uuid.UUID) (*model.Submission, error) {
	sub, err := s.repo.GetSubmission(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	return sub, nil
}

// Claim attempts to take the exclusive review hold for an admin. False
// means another admin holds a live claim or the submission is already
// decided.
func (s *ScreenshotService) Claim(ctx context.Context, submissionID uuid.UUID, adminID int64) (bool, error) {
	return s.repo.ClaimSubmission(ctx, submissionID, adminID, s.claimTTL)
}

// Decide applies the admin's verdict. An approval grants the screenshot
// points and marks the day's action done atomically with the status
// flip; a verdict that arrives second reports AlreadyDecided.
func (s *ScreenshotService) Decide(ctx context.Context, submissionID uuid.UUID, adminID int64, approve bool, note string) (*model.DecideResult, error) {
	sub, err := s.Get(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	award := model.AwardParams{
		UserID:      sub.UserID,
		DayUTC:      sub.DayUTC,
		PeriodStart: model.WeekStart(sub.DayUTC),
		Source:      model.SourceScreenshot,
		Points:      s.points,
		RefType:     "screenshot",
		RefID:       sub.ID.String(),
	}
	return s.repo.DecideSubmission(ctx, submissionID, adminID, approve, note, award)
}

// SweepExpired releases every timed-out claim; returns how many were
// released. Invoked from the periodic tick.
func (s *ScreenshotService) SweepExpired(ctx context.Context) (int64, error) {
	return s.repo.SweepExpiredClaims(ctx)
}

func (s *ScreenshotService) QueueCounts(ctx context.Context, day *time.Time) (*model.QueueCounts, error) {
	return s.repo.QueueCounts(ctx, day)
}
