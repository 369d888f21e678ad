package service

import (
	"context"
	"errors"
	"fmt"

	"communitybot/internal/model"
	"communitybot/internal/repository"
)

type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// EnsureUser registers the user on first contact and refreshes display
// names on every later one.
func (s *UserService) EnsureUser(ctx context.Context, identity model.Identity) (*model.User, error) {
	user, err := s.repo.EnsureUser(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}
	return user, nil
}

func (s *UserService) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by telegram ID: %w", err)
	}
	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// AttachReferrer links a freshly started user to whoever invited them via
// a deep link. The attachment only sticks while the user has no referrer
// and their join has not been processed; self-referrals are dropped.
func (s *UserService) AttachReferrer(ctx context.Context, user *model.User, referrerTelegramID int64) error {
	if user.TelegramID == referrerTelegramID {
		return nil
	}

	referrer, err := s.repo.GetUserByTelegramID(ctx, referrerTelegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to resolve referrer: %w", err)
	}

	return s.repo.SetReferrer(ctx, user.ID, referrer.ID)
}
