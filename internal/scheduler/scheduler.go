package scheduler

import (
	"context"
	"sync"
	"time"

	"communitybot/internal/model"
	"communitybot/internal/service"
	"communitybot/pkg/logger"
	"go.uber.org/zap"
)

// Notifier is the transport half of the background jobs: the scheduler
// decides WHAT is due, the notifier owns how it reaches the chat.
type Notifier interface {
	PostPoll(ctx context.Context, poll *model.Poll) (messageID int, err error)
	ClosePoll(ctx context.Context, poll *model.Poll) error
	AnnounceWinners(ctx context.Context, periodStart time.Time, winners []model.WinnerRow) error
}

type Scheduler struct {
	svc      *service.Service
	notifier Notifier

	CheckInterval time.Duration

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func New(svc *service.Service, notifier Notifier) *Scheduler {
	return &Scheduler{
		svc:           svc,
		notifier:      notifier,
		CheckInterval: time.Minute,
		stop:          make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ticker = time.NewTicker(s.CheckInterval)
	s.wg.Add(1)
	go s.run()

	logger.Logger().Info("scheduler started", zap.Duration("interval", s.CheckInterval))
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		logger.Logger().Info("scheduler stopped")
	}
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	// Catch up on anything that came due while the process was down.
	s.tick()

	for {
		select {
		case <-s.ticker.C:
			s.tick()
		case <-s.stop:
			return
		}
	}
}

// tick runs every job once. Each job is idempotent on its own, so a tick
// that races a restart or a second instance re-does nothing.
func (s *Scheduler) tick() {
	ctx := context.Background()
	now := time.Now().UTC()

	s.postDuePolls(ctx, now)
	s.closeDuePolls(ctx, now)
	s.sweepClaims(ctx)
	s.snapshotWinners(ctx, now)
}

func (s *Scheduler) postDuePolls(ctx context.Context, now time.Time) {
	log := logger.Logger()

	due, err := s.svc.DueToPost(ctx, now)
	if err != nil {
		log.Error("failed to list due polls", zap.Error(err))
		return
	}

	for _, poll := range due {
		messageID, err := s.notifier.PostPoll(ctx, poll)
		if err != nil {
			log.Error("failed to post poll", zap.String("poll_id", poll.ID.String()), zap.Error(err))
			continue
		}

		updated, err := s.svc.MarkPosted(ctx, poll.ID, messageID, now)
		if err != nil {
			log.Error("failed to mark poll posted", zap.String("poll_id", poll.ID.String()), zap.Error(err))
			continue
		}
		if !updated {
			// Another instance won the race after we posted; the duplicate
			// message stays but votes land on whichever was stamped.
			log.Warn("poll already marked posted", zap.String("poll_id", poll.ID.String()))
		}
	}
}

func (s *Scheduler) closeDuePolls(ctx context.Context, now time.Time) {
	log := logger.Logger()

	due, err := s.svc.DueToClose(ctx, now)
	if err != nil {
		log.Error("failed to list closing polls", zap.Error(err))
		return
	}

	for _, poll := range due {
		closed, err := s.svc.Close(ctx, poll.ID)
		if err != nil {
			log.Error("failed to close poll", zap.String("poll_id", poll.ID.String()), zap.Error(err))
			continue
		}
		if closed {
			if err := s.notifier.ClosePoll(ctx, poll); err != nil {
				log.Error("failed to update closed poll message", zap.Error(err))
			}
		}

		awarded, err := s.svc.AwardClosed(ctx, poll.ID, now)
		if err != nil {
			log.Error("failed to award poll voters", zap.String("poll_id", poll.ID.String()), zap.Error(err))
			continue
		}
		if awarded > 0 {
			log.Info("awarded poll voters", zap.String("poll_id", poll.ID.String()), zap.Int("voters", awarded))
		}
	}
}

func (s *Scheduler) sweepClaims(ctx context.Context) {
	released, err := s.svc.SweepExpired(ctx)
	if err != nil {
		logger.Logger().Error("failed to sweep expired claims", zap.Error(err))
		return
	}
	if released > 0 {
		logger.Logger().Info("released expired review claims", zap.Int64("count", released))
	}
}

// snapshotWinners freezes and announces the previous week once it is
// over. EnsureSnapshot is write-once, so only the first tick after the
// week's boundary actually announces.
func (s *Scheduler) snapshotWinners(ctx context.Context, now time.Time) {
	log := logger.Logger()

	previous := model.WeekStart(now).AddDate(0, 0, -7)

	exists, err := s.svc.SnapshotTaken(ctx, previous)
	if err != nil {
		log.Error("failed to check winners snapshot", zap.Error(err))
		return
	}
	if exists {
		return
	}

	winners, err := s.svc.EnsureSnapshot(ctx, previous)
	if err != nil {
		log.Error("failed to snapshot winners", zap.Error(err))
		return
	}

	if err := s.notifier.AnnounceWinners(ctx, previous, winners); err != nil {
		log.Error("failed to announce winners", zap.Error(err))
	}
}
