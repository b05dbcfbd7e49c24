package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"reviewant/internal/db"
	"reviewant/internal/domain"

	"github.com/rs/zerolog"
)

type PlayerRepository struct {
	queries *db.Queries
	logger  zerolog.Logger
}

func NewPlayerRepository(queries *db.Queries, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{queries: queries, logger: logger}
}

// GetByName looks a player up by the exact canonical name#tag.
func (r *PlayerRepository) GetByName(ctx context.Context, id domain.Identity) (*domain.Player, error) {
	p, err := r.queries.GetPlayerByName(ctx, id.String())
	if err != nil {
		return nil, classify("get player", err)
	}
	return toPlayer(p), nil
}

// CreateIfAbsent returns the player for id, inserting it first when unknown.
// Concurrent callers racing on the same identity all observe one row.
func (r *PlayerRepository) CreateIfAbsent(ctx context.Context, id domain.Identity, now time.Time) (*domain.Player, bool, error) {
	name := id.String()

	newID, err := r.queries.InsertPlayerIfAbsent(ctx, db.InsertPlayerIfAbsentParams{
		Name:      name,
		CreatedAt: now.UTC(),
	})
	switch {
	case err == nil:
		r.logger.Debug().Str("player", name).Int64("player_id", newID).Msg("player created")
		return &domain.Player{ID: newID, Name: name, CreatedAt: now.UTC()}, true, nil
	case errors.Is(err, sql.ErrNoRows):
		// lost the race or already known
		p, err := r.GetByName(ctx, id)
		if err != nil {
			return nil, false, err
		}
		return p, false, nil
	default:
		r.logger.Error().Err(err).Str("player", name).Msg("failed to create player")
		return nil, false, classify("create player", err)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search does a case-insensitive substring match on player names.
func (r *PlayerRepository) Search(ctx context.Context, query string, limit int) ([]domain.Player, error) {
	rows, err := r.queries.SearchPlayers(ctx, db.SearchPlayersParams{
		Pattern: "%" + likeEscaper.Replace(query) + "%",
		Limit:   int64(limit),
	})
	if err != nil {
		return nil, classify("search players", err)
	}

	result := make([]domain.Player, len(rows))
	for i, p := range rows {
		result[i] = *toPlayer(p)
	}
	return result, nil
}

func toPlayer(p db.Player) *domain.Player {
	return &domain.Player{
		ID:        p.ID,
		Name:      p.Name,
		CreatedAt: p.CreatedAt.UTC(),
	}
}
