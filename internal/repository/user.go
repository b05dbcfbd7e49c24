package repository

import (
	"context"
	"database/sql"

	"reviewant/internal/db"
	"reviewant/internal/domain"

	"github.com/rs/zerolog"
)

type UserRepository struct {
	queries *db.Queries
	logger  zerolog.Logger
}

func NewUserRepository(queries *db.Queries, logger zerolog.Logger) *UserRepository {
	return &UserRepository{queries: queries, logger: logger}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	err := r.queries.CreateUser(ctx, db.CreateUserParams{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt.UTC(),
	})
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to create user")
		return classify("create user", err)
	}
	return nil
}

func (r *UserRepository) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := r.queries.GetUser(ctx, id)
	if err != nil {
		return nil, classify("get user", err)
	}
	return &domain.User{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.UTC(),
	}, nil
}

func (r *UserRepository) UpdateUsername(ctx context.Context, id, username string) error {
	n, err := r.queries.UpdateUsername(ctx, db.UpdateUsernameParams{Username: username, ID: id})
	if err != nil {
		return classify("update username", err)
	}
	if n == 0 {
		return classify("update username", sql.ErrNoRows)
	}
	r.logger.Debug().Str("user_id", id).Str("username", username).Msg("username updated")
	return nil
}
