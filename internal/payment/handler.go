package payment

import (
	"net/http"
	"strings"

	"educonnect/placement-service/internal/auth"
	"educonnect/placement-service/internal/domain"
	"educonnect/placement-service/internal/httpx"
	"educonnect/placement-service/internal/logging"
)

// countryHeaders are set by edge proxies with the client's country.
var countryHeaders = []string{"CF-IPCountry", "X-Vercel-IP-Country", "X-Country-Code"}

// Handler serves payment routes.
type Handler struct {
	svc *Service
	log *logging.Logger
}

// NewHandler returns a configured Handler.
func NewHandler(svc *Service, log *logging.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// RegisterRoutes mounts payment routes.
//
//	GET  /api/v1/payments/detect-currency[?country=]
//	POST /api/v1/payments/create-checkout-session
//	GET  /api/v1/payments/verify-session?session_id=
func (h *Handler) RegisterRoutes(mux *http.ServeMux, authn httpx.Middleware) {
	buyers := auth.RequireRole(domain.RoleTeacher, domain.RoleSchool)

	mux.Handle("GET /api/v1/payments/detect-currency", httpx.Chain(h.detect, authn))
	mux.Handle("POST /api/v1/payments/create-checkout-session", httpx.Chain(h.create, authn, buyers))
	mux.Handle("GET /api/v1/payments/verify-session", httpx.Chain(h.verify, authn))
}

func (h *Handler) detect(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	httpx.OK(w, h.svc.Detect(actor, country(r)))
}

type checkoutRequest struct {
	Plan     string `json:"plan" validate:"required"`
	Currency string `json:"currency" validate:"omitempty,len=3"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())

	var req checkoutRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	if req.Currency == "" {
		req.Currency = DetectCurrency(country(r))
	}
	sess, err := h.svc.CreateCheckoutSession(r.Context(), actor, req.Plan, req.Currency)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.Created(w, sess)
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())

	id, err := httpx.QueryID(r, "session_id")
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	if id == "" {
		httpx.Error(w, h.log, domain.Invalid("session_id is required"))
		return
	}
	v, err := h.svc.VerifySession(r.Context(), actor, id)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.OK(w, v)
}

func country(r *http.Request) string {
	if c := r.URL.Query().Get("country"); c != "" {
		return strings.ToUpper(c)
	}
	for _, h := range countryHeaders {
		if c := r.Header.Get(h); c != "" && c != "XX" {
			return strings.ToUpper(c)
		}
	}
	return ""
}
