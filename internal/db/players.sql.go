package db

import (
	"context"
	"time"
)

const getPlayerByName = `-- name: GetPlayerByName :one
SELECT id, name, created_at FROM players
WHERE name = $1
`

func (q *Queries) GetPlayerByName(ctx context.Context, name string) (Player, error) {
	row := q.db.QueryRowContext(ctx, getPlayerByName, name)
	var i Player
	err := row.Scan(&i.ID, &i.Name, &i.CreatedAt)
	return i, err
}

const insertPlayerIfAbsent = `-- name: InsertPlayerIfAbsent :one
INSERT INTO players (name, created_at)
VALUES ($1, $2)
ON CONFLICT (name) DO NOTHING
RETURNING id
`

type InsertPlayerIfAbsentParams struct {
	Name      string
	CreatedAt time.Time
}

// InsertPlayerIfAbsent returns sql.ErrNoRows when the name already exists.
func (q *Queries) InsertPlayerIfAbsent(ctx context.Context, arg InsertPlayerIfAbsentParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, insertPlayerIfAbsent, arg.Name, arg.CreatedAt)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const searchPlayers = `-- name: SearchPlayers :many
SELECT id, name, created_at FROM players
WHERE LOWER(name) LIKE LOWER($1) ESCAPE '\'
ORDER BY name
LIMIT $2
`

type SearchPlayersParams struct {
	Pattern string
	Limit   int64
}

func (q *Queries) SearchPlayers(ctx context.Context, arg SearchPlayersParams) ([]Player, error) {
	rows, err := q.db.QueryContext(ctx, searchPlayers, arg.Pattern, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Player
	for rows.Next() {
		var i Player
		if err := rows.Scan(&i.ID, &i.Name, &i.CreatedAt); err != nil {
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
