// Package grpcserver runs the gRPC side of the service: the standard
// grpc.health.v1 service driven by Postgres and Redis probes, plus server
// reflection for tooling.
package grpcserver

import (
	"context"
	"errors"
	"net"
	"sort"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"educonnect/placement-service/internal/domain"
	"educonnect/placement-service/internal/logging"
)

// ServiceName is the name health clients query.
const ServiceName = "placement"

// Check reports whether one dependency is reachable.
type Check func(ctx context.Context) error

// Server wraps a grpc.Server with a health service kept current by Probe.
type Server struct {
	grpc     *grpc.Server
	health   *health.Server
	checks   map[string]Check
	interval time.Duration
	log      *logging.Logger
}

// New builds the server. checks are probed every interval.
func New(log *logging.Logger, interval time.Duration, checks map[string]Check) *Server {
	l := log.With("component", "grpc")
	s := &Server{
		health:   health.NewServer(),
		checks:   checks,
		interval: interval,
		log:      l,
	}
	s.grpc = grpc.NewServer(grpc.ChainUnaryInterceptor(s.logUnary, errorUnary))
	healthpb.RegisterHealthServer(s.grpc, s.health)
	reflection.Register(s.grpc)

	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Serve accepts connections on lis until Stop.
func (s *Server) Serve(lis net.Listener) error {
	s.log.Info("gRPC listening", "addr", lis.Addr().String())
	if err := s.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Probe runs the dependency checks now and then every interval until ctx
// ends.
func (s *Server) Probe(ctx context.Context) {
	s.Refresh(ctx)
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Refresh(ctx)
		}
	}
}

// Refresh runs every check once and publishes the resulting status for
// ServiceName and the overall server.
func (s *Server) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	st := healthpb.HealthCheckResponse_SERVING

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := s.checks[name](cctx)
		cancel()
		if err != nil {
			s.log.Warn("health check failed", "dependency", name, "err", err)
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}

	s.health.SetServingStatus(ServiceName, st)
	s.health.SetServingStatus("", st)
	return st
}

// Stop marks every service NOT_SERVING and drains in-flight RPCs. Once ctx
// is done the remaining connections are closed.
func (s *Server) Stop(ctx context.Context) {
	s.health.Shutdown()
	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn("graceful stop timed out, closing connections", "err", ctx.Err())
		s.grpc.Stop()
		<-done
	}
}

// ─── Interceptors ────────────────────────────────────────────────────────────

func (s *Server) logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.log.Debug("rpc", "method", info.FullMethod, "code", status.Code(err).String(), "dur", time.Since(start))
	return resp, err
}

func errorUnary(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	return resp, ToStatus(err)
}

// ToStatus maps domain errors to gRPC status errors. Errors that already
// carry a status pass through; unknown errors become a generic Internal.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var (
		ve *domain.ValidationError
		te *domain.TransitionError
		qe *domain.QuotaError
	)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, domain.ErrPaymentRequired):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrAlreadyApplied), errors.Is(err, domain.ErrAlreadySelected):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, domain.ErrRunInProgress):
		return status.Error(codes.Aborted, err.Error())
	case errors.As(err, &qe):
		return status.Error(codes.ResourceExhausted, qe.Error())
	case errors.As(err, &ve):
		return status.Error(codes.InvalidArgument, ve.Msg)
	case errors.As(err, &te):
		return status.Error(codes.FailedPrecondition, te.Error())
	}
	return status.Error(codes.Internal, "internal server error")
}
