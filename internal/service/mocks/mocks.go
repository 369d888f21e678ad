package mocks

import (
	"context"
	"time"

	"communitybot/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) EnsureUser(ctx context.Context, identity model.Identity) (*model.User, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) SetReferrer(ctx context.Context, userID, referrerUserID int64) error {
	args := m.Called(ctx, userID, referrerUserID)
	return args.Error(0)
}

func (m *MockUserRepository) MarkReferralProcessed(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockCheckinRepository struct {
	mock.Mock
}

func (m *MockCheckinRepository) CreateCheckin(ctx context.Context, userID int64, day time.Time) (bool, error) {
	args := m.Called(ctx, userID, day)
	return args.Bool(0), args.Error(1)
}

func (m *MockCheckinRepository) GetPeriodStats(ctx context.Context, periodStart time.Time, userID int64) (*model.PeriodStats, error) {
	args := m.Called(ctx, periodStart, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PeriodStats), args.Error(1)
}

func (m *MockCheckinRepository) AwardOnce(ctx context.Context, p model.AwardParams) (*model.AwardResult, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AwardResult), args.Error(1)
}

func (m *MockCheckinRepository) MarkActionDone(ctx context.Context, userID int64, day time.Time, kind model.ActionKind) error {
	args := m.Called(ctx, userID, day, kind)
	return args.Error(0)
}

type MockQuizRepository struct {
	mock.Mock
}

func (m *MockQuizRepository) CreateQuiz(ctx context.Context, quiz *model.Quiz) error {
	args := m.Called(ctx, quiz)
	return args.Error(0)
}

func (m *MockQuizRepository) GetQuizByDay(ctx context.Context, day time.Time) (*model.Quiz, error) {
	args := m.Called(ctx, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Quiz), args.Error(1)
}

func (m *MockQuizRepository) CreateAttempt(ctx context.Context, attempt *model.QuizAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockQuizRepository) GetAttempt(ctx context.Context, quizID uuid.UUID, userID int64) (*model.QuizAttempt, error) {
	args := m.Called(ctx, quizID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QuizAttempt), args.Error(1)
}

func (m *MockQuizRepository) GetPeriodStats(ctx context.Context, periodStart time.Time, userID int64) (*model.PeriodStats, error) {
	args := m.Called(ctx, periodStart, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PeriodStats), args.Error(1)
}

func (m *MockQuizRepository) AwardOnce(ctx context.Context, p model.AwardParams) (*model.AwardResult, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AwardResult), args.Error(1)
}

func (m *MockQuizRepository) MarkActionDone(ctx context.Context, userID int64, day time.Time, kind model.ActionKind) error {
	args := m.Called(ctx, userID, day, kind)
	return args.Error(0)
}

type MockPollRepository struct {
	mock.Mock
}

func (m *MockPollRepository) CreatePoll(ctx context.Context, poll *model.Poll) error {
	args := m.Called(ctx, poll)
	return args.Error(0)
}

func (m *MockPollRepository) GetPoll(ctx context.Context, id uuid.UUID) (*model.Poll, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Poll), args.Error(1)
}

func (m *MockPollRepository) ListPollsDueToPost(ctx context.Context, now time.Time, limit int) ([]*model.Poll, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Poll), args.Error(1)
}

func (m *MockPollRepository) ListPollsDueToClose(ctx context.Context, now time.Time, limit int) ([]*model.Poll, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Poll), args.Error(1)
}

func (m *MockPollRepository) MarkPollPosted(ctx context.Context, id uuid.UUID, messageID int, postedAt, closesAt time.Time) (bool, error) {
	args := m.Called(ctx, id, messageID, postedAt, closesAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockPollRepository) MarkPollClosed(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockPollRepository) MarkPollCanceled(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockPollRepository) MarkPollAwarded(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	args := m.Called(ctx, id, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockPollRepository) RecordVote(ctx context.Context, pollID uuid.UUID, userID int64, optionIndex int) (bool, error) {
	args := m.Called(ctx, pollID, userID, optionIndex)
	return args.Bool(0), args.Error(1)
}

func (m *MockPollRepository) PollVoters(ctx context.Context, pollID uuid.UUID) ([]int64, error) {
	args := m.Called(ctx, pollID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockPollRepository) AwardOnce(ctx context.Context, p model.AwardParams) (*model.AwardResult, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AwardResult), args.Error(1)
}

func (m *MockPollRepository) MarkActionDone(ctx context.Context, userID int64, day time.Time, kind model.ActionKind) error {
	args := m.Called(ctx, userID, day, kind)
	return args.Error(0)
}

type MockScreenshotRepository struct {
	mock.Mock
}

func (m *MockScreenshotRepository) CreateSubmissionOnce(ctx context.Context, userID int64, day time.Time, imageFileID string) (*model.SubmitResult, error) {
	args := m.Called(ctx, userID, day, imageFileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SubmitResult), args.Error(1)
}

func (m *MockScreenshotRepository) GetSubmission(ctx context.Context, id uuid.UUID) (*model.Submission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Submission), args.Error(1)
}

func (m *MockScreenshotRepository) GetSubmissionForDay(ctx context.Context, userID int64, day time.Time) (*model.Submission, error) {
	args := m.Called(ctx, userID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Submission), args.Error(1)
}

func (m *MockScreenshotRepository) ClaimSubmission(ctx context.Context, id uuid.UUID, adminID int64, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, id, adminID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockScreenshotRepository) DecideSubmission(ctx context.Context, id uuid.UUID, adminID int64, approve bool, note string, award model.AwardParams) (*model.DecideResult, error) {
	args := m.Called(ctx, id, adminID, approve, note, award)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DecideResult), args.Error(1)
}

func (m *MockScreenshotRepository) SweepExpiredClaims(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockScreenshotRepository) QueueCounts(ctx context.Context, day *time.Time) (*model.QueueCounts, error) {
	args := m.Called(ctx, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QueueCounts), args.Error(1)
}

type MockSpinRepository struct {
	mock.Mock
}

func (m *MockSpinRepository) CreateSpin(ctx context.Context, userID int64, day, periodStart time.Time) (bool, error) {
	args := m.Called(ctx, userID, day, periodStart)
	return args.Bool(0), args.Error(1)
}

func (m *MockSpinRepository) UpdateSpinReward(ctx context.Context, userID int64, day time.Time, rewardType model.SpinRewardType, rewardValue int, roll string) error {
	args := m.Called(ctx, userID, day, rewardType, rewardValue, roll)
	return args.Error(0)
}

func (m *MockSpinRepository) CountCashWins(ctx context.Context, userID int64, periodStart time.Time) (int, error) {
	args := m.Called(ctx, userID, periodStart)
	return args.Int(0), args.Error(1)
}

func (m *MockSpinRepository) DoneSet(ctx context.Context, userID int64, day time.Time) (map[model.ActionKind]bool, error) {
	args := m.Called(ctx, userID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[model.ActionKind]bool), args.Error(1)
}

func (m *MockSpinRepository) AwardOnce(ctx context.Context, p model.AwardParams) (*model.AwardResult, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AwardResult), args.Error(1)
}

func (m *MockSpinRepository) MarkActionDone(ctx context.Context, userID int64, day time.Time, kind model.ActionKind) error {
	args := m.Called(ctx, userID, day, kind)
	return args.Error(0)
}

type MockReferralRepository struct {
	mock.Mock
}

func (m *MockReferralRepository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockReferralRepository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockReferralRepository) SetReferrer(ctx context.Context, userID, referrerUserID int64) error {
	args := m.Called(ctx, userID, referrerUserID)
	return args.Error(0)
}

func (m *MockReferralRepository) MarkReferralProcessed(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockReferralRepository) CountSourceEvents(ctx context.Context, userID int64, source model.PointSource, periodStart *time.Time) (int, error) {
	args := m.Called(ctx, userID, source, periodStart)
	return args.Int(0), args.Error(1)
}

func (m *MockReferralRepository) AwardOnce(ctx context.Context, p model.AwardParams) (*model.AwardResult, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AwardResult), args.Error(1)
}

type MockLeaderboardRepository struct {
	mock.Mock
}

func (m *MockLeaderboardRepository) TopPeriod(ctx context.Context, periodStart time.Time, limit int) ([]model.LeaderRow, error) {
	args := m.Called(ctx, periodStart, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LeaderRow), args.Error(1)
}

func (m *MockLeaderboardRepository) UserRankPeriod(ctx context.Context, periodStart time.Time, userID int64) (*int, int, error) {
	args := m.Called(ctx, periodStart, userID)
	var rank *int
	if args.Get(0) != nil {
		rank = args.Get(0).(*int)
	}
	return rank, args.Int(1), args.Error(2)
}

func (m *MockLeaderboardRepository) TopRange(ctx context.Context, start, end time.Time, limit int) ([]model.LeaderRow, error) {
	args := m.Called(ctx, start, end, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LeaderRow), args.Error(1)
}

func (m *MockLeaderboardRepository) UserRankRange(ctx context.Context, start, end time.Time, userID int64) (*int, int, error) {
	args := m.Called(ctx, start, end, userID)
	var rank *int
	if args.Get(0) != nil {
		rank = args.Get(0).(*int)
	}
	return rank, args.Int(1), args.Error(2)
}

type MockWinnersRepository struct {
	mock.Mock
}

func (m *MockWinnersRepository) SnapshotExists(ctx context.Context, periodStart time.Time) (bool, error) {
	args := m.Called(ctx, periodStart)
	return args.Bool(0), args.Error(1)
}

func (m *MockWinnersRepository) SaveSnapshot(ctx context.Context, periodStart time.Time, winners []model.LeaderRow, overwrite bool) error {
	args := m.Called(ctx, periodStart, winners, overwrite)
	return args.Error(0)
}

func (m *MockWinnersRepository) GetSnapshot(ctx context.Context, periodStart time.Time) ([]model.WinnerRow, error) {
	args := m.Called(ctx, periodStart)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.WinnerRow), args.Error(1)
}

func (m *MockWinnersRepository) TopPeriod(ctx context.Context, periodStart time.Time, limit int) ([]model.LeaderRow, error) {
	args := m.Called(ctx, periodStart, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LeaderRow), args.Error(1)
}

type MockStatusRepository struct {
	mock.Mock
}

func (m *MockStatusRepository) DoneSet(ctx context.Context, userID int64, day time.Time) (map[model.ActionKind]bool, error) {
	args := m.Called(ctx, userID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[model.ActionKind]bool), args.Error(1)
}

func (m *MockStatusRepository) GetPeriodStats(ctx context.Context, periodStart time.Time, userID int64) (*model.PeriodStats, error) {
	args := m.Called(ctx, periodStart, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PeriodStats), args.Error(1)
}

type MockAdjustRepository struct {
	mock.Mock
}

func (m *MockAdjustRepository) AwardOnce(ctx context.Context, p model.AwardParams) (*model.AwardResult, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AwardResult), args.Error(1)
}
