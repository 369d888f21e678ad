package service

import (
	"context"
	"time"

	"communitybot/internal/model"
)

const winnersSnapshotSize = 3

type WinnersService struct {
	repo WinnersRepository
}

func NewWinnersService(repo WinnersRepository) *WinnersService {
	return &WinnersService{repo: repo}
}

// SnapshotTaken reports whether a period has already been frozen.
func (s *WinnersService) SnapshotTaken(ctx context.Context, periodStart time.Time) (bool, error) {
	return s.repo.SnapshotExists(ctx, model.Day(periodStart))
}

// EnsureSnapshot freezes the top rows of a finished period exactly
// once. A period already snapshotted is left untouched, so repeated
// scheduler ticks and restarts are safe.
func (s *WinnersService) EnsureSnapshot(ctx context.Context, periodStart time.Time) ([]model.WinnerRow, error) {
	periodStart = model.Day(periodStart)

	exists, err := s.repo.SnapshotExists(ctx, periodStart)
	if err != nil {
		return nil, err
	}
	if !exists {
		top, err := s.repo.TopPeriod(ctx, periodStart, winnersSnapshotSize)
		if err != nil {
			return nil, err
		}
		if err := s.repo.SaveSnapshot(ctx, periodStart, top, false); err != nil {
			return nil, err
		}
	}
	return s.repo.GetSnapshot(ctx, periodStart)
}

func (s *WinnersService) GetSnapshot(ctx context.Context, periodStart time.Time) ([]model.WinnerRow, error) {
	return s.repo.GetSnapshot(ctx, model.Day(periodStart))
}

// Override replaces a period's snapshot with the current standings.
// Admin-only escape hatch for correcting an announcement.
func (s *WinnersService) Override(ctx context.Context, periodStart time.Time) ([]model.WinnerRow, error) {
	periodStart = model.Day(periodStart)

	top, err := s.repo.TopPeriod(ctx, periodStart, winnersSnapshotSize)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveSnapshot(ctx, periodStart, top, true); err != nil {
		return nil, err
	}
	return s.repo.GetSnapshot(ctx, periodStart)
}
