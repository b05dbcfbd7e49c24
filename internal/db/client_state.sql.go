package db

import (
	"context"
	"time"
)

const getClientState = `-- name: GetClientState :one
SELECT value FROM client_state
WHERE key = $1
`

func (q *Queries) GetClientState(ctx context.Context, key string) (string, error) {
	row := q.db.QueryRowContext(ctx, getClientState, key)
	var value string
	err := row.Scan(&value)
	return value, err
}

const upsertClientState = `-- name: UpsertClientState :exec
INSERT INTO client_state (key, value, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET
    value = excluded.value,
    updated_at = excluded.updated_at
`

type UpsertClientStateParams struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

func (q *Queries) UpsertClientState(ctx context.Context, arg UpsertClientStateParams) error {
	_, err := q.db.ExecContext(ctx, upsertClientState, arg.Key, arg.Value, arg.UpdatedAt)
	return err
}

const deleteClientState = `-- name: DeleteClientState :exec
DELETE FROM client_state
WHERE key = $1
`

func (q *Queries) DeleteClientState(ctx context.Context, key string) error {
	_, err := q.db.ExecContext(ctx, deleteClientState, key)
	return err
}
