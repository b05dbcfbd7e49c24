package service

import (
	"context"
	"time"

	"reviewant/internal/domain"
	"reviewant/internal/repository"
)

type MatchFetcher interface {
	FetchMatches(ctx context.Context, id domain.Identity) ([]domain.NormalizedMatch, error)
}

type UserStore interface {
	Create(ctx context.Context, user *domain.User) error
	Get(ctx context.Context, id string) (*domain.User, error)
	UpdateUsername(ctx context.Context, id, username string) error
}

type PlayerStore interface {
	GetByName(ctx context.Context, id domain.Identity) (*domain.Player, error)
	CreateIfAbsent(ctx context.Context, id domain.Identity, now time.Time) (*domain.Player, bool, error)
	Search(ctx context.Context, query string, limit int) ([]domain.Player, error)
}

type ReviewStore interface {
	Insert(ctx context.Context, review *domain.Review) error
	ListByPlayer(ctx context.Context, playerID int64) ([]domain.Review, error)
	ListRecent(ctx context.Context, limit int) ([]repository.RecentReview, error)
}
