// Package refresh decides whether a session may pull fresh match history.
//
// A gate is either Allowed or CoolingDown(remaining seconds). It moves to
// CoolingDown only when a refresh is actually recorded, and back to Allowed
// when the countdown reaches zero or the marker is reset.
package refresh

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"reviewant/internal/constants"
	"reviewant/internal/metrics"
	"reviewant/internal/state"

	"github.com/rs/zerolog"
)

type Decision struct {
	Allowed          bool `json:"allowed"`
	RemainingSeconds int  `json:"remaining_seconds"`
}

// Decide is the pure cooldown rule. Elapsed time is floored to whole seconds.
func Decide(last *time.Time, now time.Time, cooldown time.Duration) Decision {
	if last == nil {
		return Decision{Allowed: true}
	}
	elapsed := int(now.Sub(*last) / time.Second)
	window := int(cooldown / time.Second)
	if elapsed >= window {
		return Decision{Allowed: true}
	}
	// a marker in the future counts as a fresh refresh
	return Decision{RemainingSeconds: window - max(elapsed, 0)}
}

type Gate struct {
	store    state.Store
	cooldown time.Duration
	tick     time.Duration
	metrics  *metrics.Recorder
	logger   zerolog.Logger
}

type Option func(*Gate)

func WithCooldown(d time.Duration) Option { return func(g *Gate) { g.cooldown = d } }

// WithTick sets the countdown step; each tick removes one second.
func WithTick(d time.Duration) Option { return func(g *Gate) { g.tick = d } }

func WithMetrics(r *metrics.Recorder) Option { return func(g *Gate) { g.metrics = r } }

func New(store state.Store, logger zerolog.Logger, opts ...Option) *Gate {
	g := &Gate{
		store:    store,
		cooldown: constants.RefreshCooldown,
		tick:     constants.CountdownTick,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ShouldRefresh reports whether a refresh is allowed at now. Once the
// cooldown has elapsed the stored marker is cleared.
func (g *Gate) ShouldRefresh(ctx context.Context, now time.Time) (Decision, error) {
	last, err := g.lastRefresh(ctx)
	if err != nil {
		return Decision{}, err
	}

	d := Decide(last, now, g.cooldown)
	if d.Allowed && last != nil {
		if err := g.store.Delete(ctx, state.KeyLastRefresh); err != nil {
			return Decision{}, fmt.Errorf("failed to clear refresh marker: %w", err)
		}
	}

	g.metrics.RefreshDecision(d.Allowed)
	g.logger.Debug().
		Bool("allowed", d.Allowed).
		Int("remaining_seconds", d.RemainingSeconds).
		Msg("refresh decision")
	return d, nil
}

// RecordRefresh starts a new cooldown at now and drops the cached matches so
// the next read goes to the match provider.
func (g *Gate) RecordRefresh(ctx context.Context, now time.Time) error {
	if err := g.store.Set(ctx, state.KeyLastRefresh, strconv.FormatInt(now.UnixMilli(), 10)); err != nil {
		return fmt.Errorf("failed to store refresh marker: %w", err)
	}
	if err := g.store.Delete(ctx, state.KeyMatchCache); err != nil {
		return fmt.Errorf("failed to invalidate match cache: %w", err)
	}
	g.logger.Debug().Time("at", now).Msg("refresh recorded")
	return nil
}

// Reset returns the gate to Allowed immediately.
func (g *Gate) Reset(ctx context.Context) error {
	return g.store.Delete(ctx, state.KeyLastRefresh)
}

// Countdown calls fn with the remaining seconds once per tick, strictly
// decreasing, until it reaches zero; the final call reports an allowed
// decision after the marker has been cleared. It returns immediately with
// a single allowed call when no cooldown is active.
func (g *Gate) Countdown(ctx context.Context, now time.Time, fn func(Decision) error) error {
	d, err := g.ShouldRefresh(ctx, now)
	if err != nil {
		return err
	}
	if err := fn(d); err != nil || d.Allowed {
		return err
	}

	ticker := time.NewTicker(g.tick)
	defer ticker.Stop()

	remaining := d.RemainingSeconds
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		remaining--
		if remaining > 0 {
			if err := fn(Decision{RemainingSeconds: remaining}); err != nil {
				return err
			}
			continue
		}

		if err := g.Reset(ctx); err != nil {
			return fmt.Errorf("failed to clear refresh marker: %w", err)
		}
		return fn(Decision{Allowed: true})
	}
}

func (g *Gate) lastRefresh(ctx context.Context) (*time.Time, error) {
	raw, ok, err := g.store.Get(ctx, state.KeyLastRefresh)
	if err != nil {
		return nil, fmt.Errorf("failed to read refresh marker: %w", err)
	}
	if !ok {
		return nil, nil
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		g.logger.Warn().Str("marker", raw).Msg("unparsable refresh marker, discarding")
		if err := g.store.Delete(ctx, state.KeyLastRefresh); err != nil {
			return nil, fmt.Errorf("failed to clear refresh marker: %w", err)
		}
		return nil, nil
	}
	t := time.UnixMilli(ms)
	return &t, nil
}
