package app

import (
	"net/http"

	"educonnect/placement-service/internal/auth"
	"educonnect/placement-service/internal/httpx"
	"educonnect/placement-service/internal/jobs"
	"educonnect/placement-service/internal/lifecycle"
	"educonnect/placement-service/internal/logging"
	"educonnect/placement-service/internal/matching"
	"educonnect/placement-service/internal/payment"
	"educonnect/placement-service/internal/profiles"
	"educonnect/placement-service/internal/selection"
)

// Version is stamped at build time with -ldflags "-X ...app.Version=...".
var Version = "dev"

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Profiles     *profiles.Handler
	Jobs         *jobs.Handler
	Applications *lifecycle.Handler
	Selections   *selection.Handler
	Matching     *matching.Handler
	Payments     *payment.Handler
}

// NewRouter mounts /health and the authenticated /api/v1 routes and wraps
// everything in request logging.
func NewRouter(log *logging.Logger, verifier *auth.Verifier, hs Handlers) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)

	authn := auth.Middleware(verifier)
	hs.Profiles.RegisterRoutes(mux, authn)
	hs.Jobs.RegisterRoutes(mux, authn)
	hs.Applications.RegisterRoutes(mux, authn)
	hs.Selections.RegisterRoutes(mux, authn)
	hs.Matching.RegisterRoutes(mux, authn)
	hs.Payments.RegisterRoutes(mux, authn)

	return httpx.Logging(log.With("component", "http"))(mux)
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	httpx.OK(w, map[string]string{
		"status":  "ok",
		"service": "placement-service",
		"version": Version,
	})
}
