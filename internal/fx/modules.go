package fx

import (
	"database/sql"

	"reviewant/internal/api"
	"reviewant/internal/config"
	"reviewant/internal/database"
	"reviewant/internal/db"
	"reviewant/internal/logger"
	"reviewant/internal/matches"
	"reviewant/internal/metrics"
	"reviewant/internal/repository"
	"reviewant/internal/server"
	"reviewant/internal/service"
	"reviewant/internal/share"
	"reviewant/internal/state"
	"reviewant/internal/telemetry"

	"go.uber.org/fx"
)

func ProvideQueries(sqlDB *sql.DB) *db.Queries {
	return db.New(sqlDB)
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	metrics.Module,
	telemetry.Module,
	fx.Provide(database.New),
	fx.Provide(ProvideQueries),
	// repos
	fx.Provide(fx.Annotate(repository.NewUserRepository, fx.As(new(service.UserStore)))),
	fx.Provide(fx.Annotate(repository.NewPlayerRepository, fx.As(new(service.PlayerStore)))),
	fx.Provide(fx.Annotate(repository.NewReviewRepository, fx.As(new(service.ReviewStore)))),
	fx.Provide(fx.Annotate(repository.NewStateRepository, fx.As(new(state.Store)))),
	// api client
	fx.Provide(fx.Annotate(api.NewHDevClient, fx.As(new(matches.Source)))),
	fx.Provide(fx.Annotate(matches.NewProvider, fx.As(new(service.MatchFetcher)))),
	fx.Provide(share.NewAnnouncer),
	// svc
	fx.Provide(service.NewMatchService),
	fx.Provide(service.NewReviewService),
	fx.Provide(service.NewUserService),
	// server
	fx.Provide(server.NewReviewantServer),
)
