package db

import (
	"context"
	"database/sql"
	"time"
)

const insertReview = `-- name: InsertReview :one
INSERT INTO reviews (player_id, user_id, rank, rating, comment, created_at, scheduled_post_time)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id
`

type InsertReviewParams struct {
	PlayerID          int64
	UserID            sql.NullString
	Rank              string
	Rating            int64
	Comment           string
	CreatedAt         time.Time
	ScheduledPostTime sql.NullTime
}

func (q *Queries) InsertReview(ctx context.Context, arg InsertReviewParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, insertReview,
		arg.PlayerID,
		arg.UserID,
		arg.Rank,
		arg.Rating,
		arg.Comment,
		arg.CreatedAt,
		arg.ScheduledPostTime,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const listReviewsByPlayer = `-- name: ListReviewsByPlayer :many
SELECT r.id, r.player_id, r.user_id, r.rank, r.rating, r.comment, r.created_at, r.scheduled_post_time,
       u.username
FROM reviews r
LEFT JOIN users u ON u.id = r.user_id
WHERE r.player_id = $1
ORDER BY r.id
`

type ListReviewsByPlayerRow struct {
	Review   Review
	Username sql.NullString
}

func (q *Queries) ListReviewsByPlayer(ctx context.Context, playerID int64) ([]ListReviewsByPlayerRow, error) {
	rows, err := q.db.QueryContext(ctx, listReviewsByPlayer, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListReviewsByPlayerRow
	for rows.Next() {
		var i ListReviewsByPlayerRow
		if err := rows.Scan(
			&i.Review.ID,
			&i.Review.PlayerID,
			&i.Review.UserID,
			&i.Review.Rank,
			&i.Review.Rating,
			&i.Review.Comment,
			&i.Review.CreatedAt,
			&i.Review.ScheduledPostTime,
			&i.Username,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listRecentReviews = `-- name: ListRecentReviews :many
SELECT r.id, r.player_id, r.user_id, r.rank, r.rating, r.comment, r.created_at, r.scheduled_post_time,
       u.username, p.name
FROM reviews r
JOIN players p ON p.id = r.player_id
LEFT JOIN users u ON u.id = r.user_id
ORDER BY r.id DESC
LIMIT $1
`

type ListRecentReviewsRow struct {
	Review     Review
	Username   sql.NullString
	PlayerName string
}

func (q *Queries) ListRecentReviews(ctx context.Context, limit int64) ([]ListRecentReviewsRow, error) {
	rows, err := q.db.QueryContext(ctx, listRecentReviews, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListRecentReviewsRow
	for rows.Next() {
		var i ListRecentReviewsRow
		if err := rows.Scan(
			&i.Review.ID,
			&i.Review.PlayerID,
			&i.Review.UserID,
			&i.Review.Rank,
			&i.Review.Rating,
			&i.Review.Comment,
			&i.Review.CreatedAt,
			&i.Review.ScheduledPostTime,
			&i.Username,
			&i.PlayerName,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
