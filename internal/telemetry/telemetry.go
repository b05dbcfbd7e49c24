// Package telemetry reports persistence and upstream failures to Sentry.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"reviewant/internal/config"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

const flushTimeout = 2 * time.Second

// Reporter is a no-op when no DSN is configured. A nil *Reporter is valid.
type Reporter struct {
	hub     *sentry.Hub
	enabled bool
}

func New(cfg *config.Config, logger zerolog.Logger) (*Reporter, error) {
	if cfg.SentryDSN == "" {
		logger.Debug().Msg("sentry disabled, no dsn configured")
		return &Reporter{}, nil
	}

	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		AttachStacktrace: true,
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			if event.Tags == nil {
				event.Tags = make(map[string]string)
			}
			event.Tags["app"] = "reviewant"
			return event
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init sentry: %w", err)
	}

	logger.Info().Str("environment", cfg.Environment).Msg("sentry enabled")
	return &Reporter{hub: sentry.NewHub(client, sentry.NewScope()), enabled: true}, nil
}

func (r *Reporter) Enabled() bool {
	return r != nil && r.enabled
}

// CaptureError sends err tagged with op and any extra fields.
func (r *Reporter) CaptureError(op string, err error, fields map[string]any) {
	if !r.Enabled() || err == nil {
		return
	}
	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelError)
		scope.SetTag("op", op)
		for k, v := range fields {
			scope.SetExtra(k, v)
		}
		r.hub.CaptureException(err)
	})
}

// CapturePanic reports a recovered panic value.
func (r *Reporter) CapturePanic(v any) {
	if !r.Enabled() {
		return
	}
	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelFatal)
		scope.SetTag("panic", "true")
		if e, ok := v.(error); ok {
			r.hub.CaptureException(e)
			return
		}
		r.hub.CaptureMessage(fmt.Sprintf("panic: %v", v))
	})
}

func (r *Reporter) Flush() {
	if r.Enabled() {
		r.hub.Flush(flushTimeout)
	}
}

func register(lc fx.Lifecycle, r *Reporter) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			r.Flush()
			return nil
		},
	})
}

var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(register),
)
