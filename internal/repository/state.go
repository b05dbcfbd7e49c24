package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"reviewant/internal/db"
	"reviewant/internal/state"

	"github.com/rs/zerolog"
)

// StateRepository is the durable state.Store backed by the client_state table.
type StateRepository struct {
	queries *db.Queries
	logger  zerolog.Logger
	now     func() time.Time
}

var _ state.Store = (*StateRepository)(nil)

func NewStateRepository(queries *db.Queries, logger zerolog.Logger) *StateRepository {
	return &StateRepository{queries: queries, logger: logger, now: time.Now}
}

func (r *StateRepository) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.queries.GetClientState(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, classify("get state", err)
	}
	return value, true, nil
}

func (r *StateRepository) Set(ctx context.Context, key, value string) error {
	err := r.queries.UpsertClientState(ctx, db.UpsertClientStateParams{
		Key:       key,
		Value:     value,
		UpdatedAt: r.now().UTC(),
	})
	if err != nil {
		return classify("set state", err)
	}
	return nil
}

func (r *StateRepository) Delete(ctx context.Context, key string) error {
	if err := r.queries.DeleteClientState(ctx, key); err != nil {
		return classify("delete state", err)
	}
	return nil
}
