package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"educonnect/placement-service/internal/auth"
	"educonnect/placement-service/internal/config"
	"educonnect/placement-service/internal/db"
	"educonnect/placement-service/internal/events"
	"educonnect/placement-service/internal/grpcserver"
	"educonnect/placement-service/internal/ingest"
	"educonnect/placement-service/internal/jobs"
	"educonnect/placement-service/internal/logging"
	"educonnect/placement-service/internal/matching"
	"educonnect/placement-service/internal/payment"
	"educonnect/placement-service/internal/profiles"
	"educonnect/placement-service/internal/scheduler"
)

const (
	tokenLeeway    = 30 * time.Second
	healthInterval = 15 * time.Second
	lockPrefix     = "placement:"
)

func providePool(ctx context.Context, cfg *config.Config, log *logging.Logger) (*pgxpool.Pool, func(), error) {
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL, db.PoolConfig{MaxConns: cfg.DBMaxConns})
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: %w", err)
	}
	log.Info("PostgreSQL connected")
	return pool, pool.Close, nil
}

func provideRedis(ctx context.Context, cfg *config.Config, log *logging.Logger) (*redis.Client, func(), error) {
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	log.Info("Redis connected")
	return rdb, func() { _ = rdb.Close() }, nil
}

// providePublisher picks the event backend. Closing the Redis publisher
// does not close rdb.
func providePublisher(cfg *config.Config, rdb *redis.Client, log *logging.Logger) (events.Publisher, func()) {
	var pub events.Publisher
	switch cfg.EventsBackend {
	case "kafka":
		pub = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
	case "none":
		pub = events.Nop{}
	default:
		pub = events.NewRedisPublisher(rdb, cfg.EventsPrefix)
	}
	log.Info("event publisher ready", "backend", cfg.EventsBackend)
	return pub, func() {
		if err := pub.Close(); err != nil {
			log.Warn("close publisher", "err", err)
		}
	}
}

func provideVerifier(cfg *config.Config) *auth.Verifier {
	return auth.NewVerifier(cfg.JWTSecret, tokenLeeway)
}

func provideLocker(rdb *redis.Client) *db.Locker {
	return db.NewLocker(rdb, lockPrefix)
}

func provideProfiles(repo profiles.Repository, log *logging.Logger, cfg *config.Config) *profiles.Service {
	return profiles.NewService(repo, log, cfg.DefaultMaxJobs)
}

func provideMatching(cfg *config.Config, repo matching.Repository, locker matching.Locker, pub events.Publisher, log *logging.Logger) *matching.Service {
	return matching.NewService(repo, locker, pub, log, cfg.MatchLockTTL, matching.WithMinimumScore(cfg.MatchMinScore))
}

func provideGateway(cfg *config.Config) *payment.Midtrans {
	return payment.NewMidtrans(cfg.MidtransServerKey, cfg.MidtransProduction)
}

func provideFetcher(cfg *config.Config, log *logging.Logger) *ingest.AdzunaFetcher {
	return ingest.NewAdzunaFetcher(cfg.AdzunaAppID, cfg.AdzunaAppKey, cfg.AdzunaCountry, log)
}

func provideImporter(cfg *config.Config, source ingest.Source, store ingest.Store, log *logging.Logger) *ingest.Worker {
	return ingest.NewWorker(source, store, ingest.Search{
		Titles:    cfg.ImportTitles,
		Locations: cfg.ImportLocations,
		RedFlags:  cfg.ImportRedFlags,
		TTL:       cfg.ImportTTL,
	}, log)
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
}

func provideGRPC(log *logging.Logger, pool *pgxpool.Pool, rdb *redis.Client) *grpcserver.Server {
	return grpcserver.New(log, healthInterval, map[string]grpcserver.Check{
		"postgres": pool.Ping,
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	})
}

// provideScheduler registers the periodic jobs. The import task is left
// out when no Adzuna credentials are configured.
func provideScheduler(cfg *config.Config, log *logging.Logger, js *jobs.Service, importer *ingest.Worker) *scheduler.Scheduler {
	s := scheduler.New(log)
	s.Add(scheduler.Task{
		Name: "expire-jobs",
		Spec: cfg.SweepSchedule,
		Run: func(ctx context.Context) error {
			_, err := js.Sweep(ctx)
			return err
		},
	})
	if cfg.AdzunaAppID != "" && cfg.AdzunaAppKey != "" {
		s.Add(scheduler.Task{
			Name: "import-jobs",
			Spec: cfg.ImportSchedule,
			Run: func(ctx context.Context) error {
				_, err := importer.Run(ctx)
				return err
			},
		})
	}
	return s
}
