package grpcserver_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"educonnect/placement-service/internal/domain"
	"educonnect/placement-service/internal/grpcserver"
	"educonnect/placement-service/internal/logging"
)

func TestHealth_FollowsDependencyChecks(t *testing.T) {
	var redisErr error
	checks := map[string]grpcserver.Check{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return redisErr },
	}
	srv := grpcserver.New(logging.Nop(), time.Hour, checks)

	lis := bufconn.Listen(1 << 20)
	go srv.Serve(lis)
	t.Cleanup(func() { srv.Stop(context.Background()) })

	conn := dial(t, lis)
	client := healthpb.NewHealthClient(conn)
	ctx := context.Background()

	check := func() healthpb.HealthCheckResponse_ServingStatus {
		t.Helper()
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: grpcserver.ServiceName})
		if err != nil {
			t.Fatalf("Check: %v", err)
		}
		return resp.Status
	}

	if got := check(); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("before first probe = %v, want NOT_SERVING", got)
	}

	srv.Refresh(ctx)
	if got := check(); got != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("all checks pass = %v, want SERVING", got)
	}

	redisErr = errors.New("connection refused")
	srv.Refresh(ctx)
	if got := check(); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("redis down = %v, want NOT_SERVING", got)
	}
}

func dial(t *testing.T, lis *bufconn.Listener) *grpc.ClientConn {
	t.Helper()
	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestStop_BoundedByContext(t *testing.T) {
	srv := grpcserver.New(logging.Nop(), time.Hour, nil)
	lis := bufconn.Listen(1 << 20)
	go srv.Serve(lis)

	// A Watch stream stays open until the server closes it, so a plain
	// graceful stop would never return.
	stream, err := healthpb.NewHealthClient(dial(t, lis)).Watch(context.Background(), &healthpb.HealthCheckRequest{Service: grpcserver.ServiceName})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if _, err := stream.Recv(); err != nil {
		t.Fatalf("first Recv: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	done := make(chan struct{})
	go func() {
		srv.Stop(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return after its context expired")
	}

	for {
		if _, err := stream.Recv(); err != nil {
			break
		}
	}
}

func TestToStatus(t *testing.T) {
	cases := []struct {
		err  error
		want codes.Code
	}{
		{domain.ErrNotFound, codes.NotFound},
		{fmt.Errorf("wrap: %w", domain.ErrNotFound), codes.NotFound},
		{domain.ErrForbidden, codes.PermissionDenied},
		{domain.ErrPaymentRequired, codes.FailedPrecondition},
		{domain.ErrAlreadyApplied, codes.AlreadyExists},
		{domain.ErrAlreadySelected, codes.AlreadyExists},
		{domain.ErrRunInProgress, codes.Aborted},
		{&domain.QuotaError{Max: 5, Active: 5}, codes.ResourceExhausted},
		{domain.Invalid("bad"), codes.InvalidArgument},
		{&domain.TransitionError{From: "placed", To: "submitted"}, codes.FailedPrecondition},
		{status.Error(codes.Unavailable, "x"), codes.Unavailable},
		{errors.New("db exploded"), codes.Internal},
	}
	for _, c := range cases {
		if got := status.Code(grpcserver.ToStatus(c.err)); got != c.want {
			t.Errorf("ToStatus(%v) = %v, want %v", c.err, got, c.want)
		}
	}
	if grpcserver.ToStatus(nil) != nil {
		t.Error("ToStatus(nil) should be nil")
	}
	if msg := status.Convert(grpcserver.ToStatus(errors.New("secret dsn"))).Message(); msg != "internal server error" {
		t.Errorf("internal message leaked: %q", msg)
	}
}
