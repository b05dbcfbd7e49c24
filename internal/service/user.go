package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"reviewant/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type UserService struct {
	users  UserStore
	logger zerolog.Logger
	now    func() time.Time
}

func NewUserService(users UserStore, logger zerolog.Logger) *UserService {
	return &UserService{users: users, logger: logger, now: time.Now}
}

// Register creates a user whose username is the canonical name#tag.
func (s *UserService) Register(ctx context.Context, id domain.Identity, email string) (*domain.User, error) {
	if id.IsZero() {
		return nil, fmt.Errorf("identity required: %w", domain.ErrInvalidInput)
	}
	user := &domain.User{
		ID:        uuid.NewString(),
		Username:  id.String(),
		Email:     strings.TrimSpace(email),
		CreatedAt: s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return user, nil
}

func (s *UserService) Username(ctx context.Context, userID string) (string, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Username, nil
}

// ChangeIdentity replaces the game identity linked to a user.
func (s *UserService) ChangeIdentity(ctx context.Context, userID string, id domain.Identity) error {
	if id.IsZero() {
		return fmt.Errorf("identity required: %w", domain.ErrInvalidInput)
	}
	return s.users.UpdateUsername(ctx, userID, id.String())
}
