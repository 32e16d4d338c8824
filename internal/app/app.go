// Package app assembles the placement service from its parts and runs the
// HTTP server, the gRPC health server and the scheduler together.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"educonnect/placement-service/internal/config"
	"educonnect/placement-service/internal/grpcserver"
	"educonnect/placement-service/internal/ingest"
	"educonnect/placement-service/internal/jobs"
	"educonnect/placement-service/internal/logging"
	"educonnect/placement-service/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

// App is the fully wired service.
type App struct {
	Config    *config.Config
	Log       *logging.Logger
	Pool      *pgxpool.Pool
	Redis     *redis.Client
	HTTP      *http.Server
	GRPC      *grpcserver.Server
	Scheduler *scheduler.Scheduler
	Jobs      *jobs.Service
	Importer  *ingest.Worker
}

// Run serves HTTP and gRPC and runs the scheduler until ctx is cancelled,
// then shuts everything down gracefully.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	lis, err := net.Listen("tcp", ":"+a.Config.GRPCPort)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}
	if err := a.Scheduler.Start(ctx); err != nil {
		_ = lis.Close()
		return err
	}

	errc := make(chan error, 2)
	go func() {
		a.Log.Info("HTTP listening", "addr", a.HTTP.Addr, "version", Version)
		if err := a.HTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		if err := a.GRPC.Serve(lis); err != nil {
			errc <- fmt.Errorf("grpc server: %w", err)
		}
	}()
	go a.GRPC.Probe(ctx)

	select {
	case <-ctx.Done():
	case err = <-errc:
		a.Log.Error("server failed", "err", err)
	}

	a.Log.Info("shutting down")
	stop()
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	a.Scheduler.Stop()
	a.GRPC.Stop(shutdownCtx)
	if serr := a.HTTP.Shutdown(shutdownCtx); serr != nil {
		a.Log.Warn("http shutdown", "err", serr)
	}
	a.Log.Info("stopped")
	return err
}
