package service

import (
	"context"
	"errors"
	"time"

	"communitybot/internal/model"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrNoQuizToday        = errors.New("no quiz for today")
	ErrInvalidOption      = errors.New("invalid option index")
	ErrInvalidPoll        = errors.New("invalid poll parameters")
	ErrPollNotFound       = errors.New("poll not found")
	ErrPollConflict       = errors.New("another poll is already active for this chat and day")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrInvalidAdjustment  = errors.New("adjustment must be a non-zero amount")
)

type UserRepository interface {
	EnsureUser(ctx context.Context, identity model.Identity) (*model.User, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	SetReferrer(ctx context.Context, userID, referrerUserID int64) error
	MarkReferralProcessed(ctx context.Context, userID int64) error
}

type CheckinRepository interface {
	CreateCheckin(ctx context.Context, userID int64, day time.Time) (bool, error)
	GetPeriodStats(ctx context.Context, periodStart time.Time, userID int64) (*model.PeriodStats, error)
	AwardOnce(ctx context.Context, p model.AwardParams) (*model.AwardResult, error)
	MarkActionDone(ctx context.Context, userID int64, day time.Time, kind model.ActionKind) error
}

type QuizRepository interface {
	CreateQuiz(ctx context.Context, quiz *model.Quiz) error
	GetQuizByDay(ctx context.Context, day time.Time) (*model.Quiz, error)
	CreateAttempt(ctx context.Context, attempt *model.QuizAttempt) error
	GetAttempt(ctx context.Context, quizID uuid.UUID, userID int64) (*model.QuizAttempt, error)
	GetPeriodStats(ctx context.Context, periodStart time.Time, userID int64) (*model.PeriodStats, error)
	AwardOnce(ctx context.Context, p model.AwardParams) (*model.AwardResult, error)
	MarkActionDone(ctx context.Context, userID int64, day time.Time, kind model.ActionKind) error
}

type PollRepository interface {
	CreatePoll(ctx context.Context, poll *model.Poll) error
	GetPoll(ctx context.Context, id uuid.UUID) (*model.Poll, error)
	ListPollsDueToPost(ctx context.Context, now time.Time, limit int) ([]*model.Poll, error)
	ListPollsDueToClose(ctx context.Context, now time.Time, limit int) ([]*model.Poll, error)
	MarkPollPosted(ctx context.Context, id uuid.UUID, messageID int, postedAt, closesAt time.Time) (bool, error)
	MarkPollClosed(ctx context.Context, id uuid.UUID) (bool, error)
	MarkPollCanceled(ctx context.Context, id uuid.UUID) (bool, error)
	MarkPollAwarded(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	RecordVote(ctx context.Context, pollID uuid.UUID, userID int64, optionIndex int) (bool, error)
	PollVoters(ctx context.Context, pollID uuid.UUID) ([]int64, error)
	AwardOnce(ctx context.Context, p model.AwardParams) (*model.AwardResult, error)
	MarkActionDone(ctx context.Context, userID int64, day time.Time, kind model.ActionKind) error
}

type ScreenshotRepository interface {
	CreateSubmissionOnce(ctx context.Context, userID int64, day time.Time, imageFileID string) (*model.SubmitResult, error)
	GetSubmission(ctx context.Context, id uuid.UUID) (*model.Submission, error)
	GetSubmissionForDay(ctx context.Context, userID int64, day time.Time) (*model.Submission, error)
	ClaimSubmission(ctx context.Context, id uuid.UUID, adminID int64, ttl time.Duration) (bool, error)
	DecideSubmission(ctx context.Context, id uuid.UUID, adminID int64, approve bool, note string, award model.AwardParams) (*model.DecideResult, error)
	SweepExpiredClaims(ctx context.Context) (int64, error)
	QueueCounts(ctx context.Context, day *time.Time) (*model.QueueCounts, error)
}

type SpinRepository interface {
	CreateSpin(ctx context.Context, userID int64, day, periodStart time.Time) (bool, error)
	UpdateSpinReward(ctx context.Context, userID int64, day time.Time, rewardType model.SpinRewardType, rewardValue int, roll string) error
	CountCashWins(ctx context.Context, userID int64, periodStart time.Time) (int, error)
	DoneSet(ctx context.Context, userID int64, day time.Time) (map[model.ActionKind]bool, error)
	AwardOnce(ctx context.Context, p model.AwardParams) (*model.AwardResult, error)
	MarkActionDone(ctx context.Context, userID int64, day time.Time, kind model.ActionKind) error
}

type ReferralRepository interface {
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	SetReferrer(ctx context.Context, userID, referrerUserID int64) error
	MarkReferralProcessed(ctx context.Context, userID int64) error
	CountSourceEvents(ctx context.Context, userID int64, source model.PointSource, periodStart *time.Time) (int, error)
	AwardOnce(ctx context.Context, p model.AwardParams) (*model.AwardResult, error)
}

type LeaderboardRepository interface {
	TopPeriod(ctx context.Context, periodStart time.Time, limit int) ([]model.LeaderRow, error)
	UserRankPeriod(ctx context.Context, periodStart time.Time, userID int64) (*int, int, error)
	TopRange(ctx context.Context, start, end time.Time, limit int) ([]model.LeaderRow, error)
	UserRankRange(ctx context.Context, start, end time.Time, userID int64) (*int, int, error)
}

type WinnersRepository interface {
	SnapshotExists(ctx context.Context, periodStart time.Time) (bool, error)
	SaveSnapshot(ctx context.Context, periodStart time.Time, winners []model.LeaderRow, overwrite bool) error
	GetSnapshot(ctx context.Context, periodStart time.Time) ([]model.WinnerRow, error)
	TopPeriod(ctx context.Context, periodStart time.Time, limit int) ([]model.LeaderRow, error)
}

type StatusRepository interface {
	DoneSet(ctx context.Context, userID int64, day time.Time) (map[model.ActionKind]bool, error)
	GetPeriodStats(ctx context.Context, periodStart time.Time, userID int64) (*model.PeriodStats, error)
}

type AdjustRepository interface {
	AwardOnce(ctx context.Context, p model.AwardParams) (*model.AwardResult, error)
}

// Service bundles every feature service behind one value for the
// composition root.
type Service struct {
	*UserService
	*CheckinService
	*QuizService
	*PollService
	*ScreenshotService
	*SpinService
	*ReferralService
	*LeaderboardService
	*WinnersService
	*StatusService
	*AdjustService
}
