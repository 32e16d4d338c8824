//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/google/wire"

	"educonnect/placement-service/internal/config"
	"educonnect/placement-service/internal/db"
	"educonnect/placement-service/internal/ingest"
	"educonnect/placement-service/internal/jobs"
	"educonnect/placement-service/internal/lifecycle"
	"educonnect/placement-service/internal/logging"
	"educonnect/placement-service/internal/matching"
	"educonnect/placement-service/internal/payment"
	"educonnect/placement-service/internal/profiles"
	"educonnect/placement-service/internal/selection"
	"educonnect/placement-service/internal/storage/postgres"
)

var infraSet = wire.NewSet(
	providePool,
	provideRedis,
	providePublisher,
	provideVerifier,
	provideLocker,
	wire.Bind(new(matching.Locker), new(*db.Locker)),
)

var repoSet = wire.NewSet(
	postgres.NewProfileRepo,
	wire.Bind(new(profiles.Repository), new(*postgres.ProfileRepo)),
	postgres.NewJobRepo,
	wire.Bind(new(jobs.Repository), new(*postgres.JobRepo)),
	wire.Bind(new(ingest.Store), new(*postgres.JobRepo)),
	postgres.NewApplicationRepo,
	wire.Bind(new(lifecycle.Repository), new(*postgres.ApplicationRepo)),
	postgres.NewSelectionRepo,
	wire.Bind(new(selection.Repository), new(*postgres.SelectionRepo)),
	postgres.NewMatchRepo,
	wire.Bind(new(matching.Repository), new(*postgres.MatchRepo)),
	postgres.NewPaymentRepo,
	wire.Bind(new(payment.Repository), new(*postgres.PaymentRepo)),
)

var serviceSet = wire.NewSet(
	provideProfiles,
	wire.Bind(new(jobs.AccessResolver), new(*profiles.Service)),
	wire.Bind(new(matching.Directory), new(*profiles.Service)),
	jobs.NewService,
	lifecycle.NewService,
	selection.NewService,
	provideMatching,
	provideGateway,
	wire.Bind(new(payment.Gateway), new(*payment.Midtrans)),
	payment.NewService,
	provideFetcher,
	wire.Bind(new(ingest.Source), new(*ingest.AdzunaFetcher)),
	provideImporter,
)

var handlerSet = wire.NewSet(
	profiles.NewHandler,
	jobs.NewHandler,
	lifecycle.NewHandler,
	selection.NewHandler,
	matching.NewHandler,
	payment.NewHandler,
	wire.Struct(new(Handlers), "*"),
	NewRouter,
)

// Initialize builds the App. The returned cleanup releases every resource
// in reverse order of creation.
func Initialize(ctx context.Context, cfg *config.Config, log *logging.Logger) (*App, func(), error) {
	wire.Build(
		infraSet,
		repoSet,
		serviceSet,
		handlerSet,
		provideHTTPServer,
		provideGRPC,
		provideScheduler,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}
