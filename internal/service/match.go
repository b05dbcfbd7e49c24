package service

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"reviewant/internal/constants"
	"reviewant/internal/domain"
	"reviewant/internal/metrics"
	"reviewant/internal/refresh"
	"reviewant/internal/state"
	"reviewant/internal/telemetry"

	"github.com/rs/zerolog"
)

type MatchService struct {
	provider MatchFetcher
	store    state.Store
	users    UserStore
	metrics  *metrics.Recorder
	reporter *telemetry.Reporter
	logger   zerolog.Logger

	now      func() time.Time
	gateOpts []refresh.Option
}

func NewMatchService(provider MatchFetcher, store state.Store, users UserStore, rec *metrics.Recorder, reporter *telemetry.Reporter, logger zerolog.Logger) *MatchService {
	return &MatchService{
		provider: provider,
		store:    store,
		users:    users,
		metrics:  rec,
		reporter: reporter,
		logger:   logger,
		now:      time.Now,
	}
}

type MatchQuery struct {
	Session  string
	Identity domain.Identity // zero means reuse the session's or the user's identity
	UserID   string
	Refresh  bool
}

type MatchesResult struct {
	Identity domain.Identity
	Matches  []domain.NormalizedMatch
	Cached   bool
	Cooldown refresh.Decision
}

type matchCache struct {
	Identity string                   `json:"identity"`
	Matches  []domain.NormalizedMatch `json:"matches"`
}

// Gate returns the refresh gate of one session.
func (s *MatchService) Gate(session string) *refresh.Gate {
	return s.gate(state.Namespace(s.store, session))
}

func (s *MatchService) gate(store state.Store) *refresh.Gate {
	opts := append([]refresh.Option{refresh.WithMetrics(s.metrics)}, s.gateOpts...)
	return refresh.New(store, s.logger, opts...)
}

// GetMatches serves the session's match list. Cached matches are returned
// unless a refresh is requested and the gate allows it; upstream failures
// degrade to an empty list that is not cached.
func (s *MatchService) GetMatches(ctx context.Context, q MatchQuery) (*MatchesResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	store := state.Namespace(s.store, q.Session)
	gate := s.gate(store)
	now := s.now()

	id, err := s.resolveIdentity(ctx, store, q)
	if err != nil {
		return nil, err
	}
	if err := rememberIdentity(ctx, store, id); err != nil {
		return nil, err
	}

	cached, hit, err := s.loadCache(ctx, store)
	if err != nil {
		return nil, err
	}
	if hit && cached.Identity != id.String() {
		hit = false
	}

	log := s.logger.With().Str("identity", id.String()).Bool("refresh", q.Refresh).Logger()

	if q.Refresh {
		d, err := gate.ShouldRefresh(ctx, now)
		if err != nil {
			return nil, err
		}
		if !d.Allowed {
			log.Debug().Int("remaining_seconds", d.RemainingSeconds).Msg("refresh refused, serving cache")
			result := &MatchesResult{Identity: id, Matches: []domain.NormalizedMatch{}, Cached: hit, Cooldown: d}
			if hit {
				result.Matches = cached.Matches
			}
			return result, nil
		}
		if err := gate.RecordRefresh(ctx, now); err != nil {
			return nil, err
		}
	} else if hit {
		d, err := gate.ShouldRefresh(ctx, now)
		if err != nil {
			return nil, err
		}
		log.Debug().Int("matches", len(cached.Matches)).Msg("serving cached matches")
		return &MatchesResult{Identity: id, Matches: cached.Matches, Cached: true, Cooldown: d}, nil
	}

	fetched := s.fetch(ctx, store, id)

	d, err := gate.ShouldRefresh(ctx, now)
	if err != nil {
		return nil, err
	}
	log.Info().Int("matches", len(fetched)).Msg("matches fetched")
	return &MatchesResult{Identity: id, Matches: fetched, Cooldown: d}, nil
}

// GetMatch returns one cached match with its roster grouped by team.
func (s *MatchService) GetMatch(ctx context.Context, session, matchID string) (*domain.NormalizedMatch, error) {
	cached, hit, err := s.loadCache(ctx, state.Namespace(s.store, session))
	if err != nil {
		return nil, err
	}
	if !hit {
		return nil, fmt.Errorf("match %s: %w", matchID, domain.ErrNotFound)
	}

	for _, m := range cached.Matches {
		if m.MatchID != matchID {
			continue
		}
		m.Players = slices.Clone(m.Players)
		slices.SortStableFunc(m.Players, func(a, b domain.PlayerMatchEntry) int {
			return cmp.Compare(a.Team, b.Team)
		})
		return &m, nil
	}
	return nil, fmt.Errorf("match %s: %w", matchID, domain.ErrNotFound)
}

func (s *MatchService) fetch(ctx context.Context, store state.Store, id domain.Identity) []domain.NormalizedMatch {
	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	fetched, err := s.provider.FetchMatches(apiCtx, id)
	if err != nil {
		s.logger.Warn().Err(err).Str("identity", id.String()).Msg("match provider failed, returning no matches")
		s.reporter.CaptureError("fetch matches", err, map[string]any{"identity": id.String()})
		return []domain.NormalizedMatch{}
	}

	raw, err := json.Marshal(matchCache{Identity: id.String(), Matches: fetched})
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode match cache")
		return fetched
	}
	if err := store.Set(ctx, state.KeyMatchCache, string(raw)); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store match cache")
		s.reporter.CaptureError("store match cache", err, nil)
	}
	return fetched
}

func (s *MatchService) loadCache(ctx context.Context, store state.Store) (matchCache, bool, error) {
	raw, ok, err := store.Get(ctx, state.KeyMatchCache)
	if err != nil {
		return matchCache{}, false, fmt.Errorf("failed to read match cache: %w", err)
	}
	if !ok {
		return matchCache{}, false, nil
	}

	var c matchCache
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		s.logger.Warn().Err(err).Msg("corrupt match cache, discarding")
		if err := store.Delete(ctx, state.KeyMatchCache); err != nil {
			return matchCache{}, false, fmt.Errorf("failed to drop match cache: %w", err)
		}
		return matchCache{}, false, nil
	}
	return c, true, nil
}

func (s *MatchService) resolveIdentity(ctx context.Context, store state.Store, q MatchQuery) (domain.Identity, error) {
	if !q.Identity.IsZero() {
		return q.Identity, nil
	}

	name, okName, err := store.Get(ctx, state.KeyName)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("failed to read stored name: %w", err)
	}
	tag, okTag, err := store.Get(ctx, state.KeyTag)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("failed to read stored tag: %w", err)
	}
	if okName && okTag {
		if id, err := domain.NewIdentity(name, tag); err == nil {
			return id, nil
		}
	}

	if q.UserID != "" {
		user, err := s.users.Get(ctx, q.UserID)
		switch {
		case err == nil:
			return domain.ParseIdentity(user.Username)
		case !errors.Is(err, domain.ErrNotFound):
			return domain.Identity{}, err
		}
	}
	return domain.Identity{}, fmt.Errorf("no player identity given: %w", domain.ErrInvalidInput)
}

func rememberIdentity(ctx context.Context, store state.Store, id domain.Identity) error {
	if err := store.Set(ctx, state.KeyName, id.Name); err != nil {
		return fmt.Errorf("failed to store name: %w", err)
	}
	if err := store.Set(ctx, state.KeyTag, id.Tag); err != nil {
		return fmt.Errorf("failed to store tag: %w", err)
	}
	return nil
}
