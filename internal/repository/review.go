package repository

import (
	"context"

	"reviewant/internal/db"
	"reviewant/internal/domain"

	"github.com/rs/zerolog"
)

type ReviewRepository struct {
	queries *db.Queries
	logger  zerolog.Logger
}

func NewReviewRepository(queries *db.Queries, logger zerolog.Logger) *ReviewRepository {
	return &ReviewRepository{queries: queries, logger: logger}
}

// enriched
type RecentReview struct {
	Review     domain.Review
	PlayerName string
}

// Insert stores review and sets its ID.
func (r *ReviewRepository) Insert(ctx context.Context, review *domain.Review) error {
	id, err := r.queries.InsertReview(ctx, db.InsertReviewParams{
		PlayerID:          review.PlayerID,
		UserID:            nullString(review.UserID),
		Rank:              review.Rank,
		Rating:            int64(review.Rating),
		Comment:           review.Comment,
		CreatedAt:         review.CreatedAt.UTC(),
		ScheduledPostTime: nullTime(review.ScheduledPostTime),
	})
	if err != nil {
		r.logger.Error().Err(err).Int64("player_id", review.PlayerID).Msg("failed to insert review")
		return classify("insert review", err)
	}
	review.ID = id
	return nil
}

// ListByPlayer returns every review of a player, scheduled ones included,
// in insertion order.
func (r *ReviewRepository) ListByPlayer(ctx context.Context, playerID int64) ([]domain.Review, error) {
	rows, err := r.queries.ListReviewsByPlayer(ctx, playerID)
	if err != nil {
		return nil, classify("list reviews", err)
	}

	result := make([]domain.Review, len(rows))
	for i, row := range rows {
		result[i] = toReview(row.Review, row.Username.String)
	}
	return result, nil
}

// ListRecent returns the newest reviews across all players, newest first.
func (r *ReviewRepository) ListRecent(ctx context.Context, limit int) ([]RecentReview, error) {
	rows, err := r.queries.ListRecentReviews(ctx, int64(limit))
	if err != nil {
		return nil, classify("list recent reviews", err)
	}

	result := make([]RecentReview, len(rows))
	for i, row := range rows {
		result[i] = RecentReview{
			Review:     toReview(row.Review, row.Username.String),
			PlayerName: row.PlayerName,
		}
	}
	return result, nil
}

func toReview(r db.Review, username string) domain.Review {
	review := domain.Review{
		ID:        r.ID,
		PlayerID:  r.PlayerID,
		Rank:      r.Rank,
		Rating:    int(r.Rating),
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt.UTC(),
	}
	if r.UserID.Valid {
		uid := r.UserID.String
		review.UserID = &uid
		review.Username = username
	}
	if r.ScheduledPostTime.Valid {
		at := r.ScheduledPostTime.Time.UTC()
		review.ScheduledPostTime = &at
	}
	return review
}
