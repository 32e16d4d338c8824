package jobs

import (
	"net/http"

	"educonnect/placement-service/internal/auth"
	"educonnect/placement-service/internal/domain"
	"educonnect/placement-service/internal/httpx"
	"educonnect/placement-service/internal/logging"
	"educonnect/placement-service/internal/visibility"
)

// Handler serves job posting routes.
type Handler struct {
	svc *Service
	log *logging.Logger
}

// NewHandler returns a configured Handler.
func NewHandler(svc *Service, log *logging.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// RegisterRoutes mounts job routes.
//
//	GET    /api/v1/jobs               → public board, gated by payment
//	POST   /api/v1/jobs               → create (school or admin)
//	GET    /api/v1/jobs/{id}
//	PATCH  /api/v1/jobs/{id}          → owner or admin
//	DELETE /api/v1/jobs/{id}          → owner or admin
//	GET    /api/v1/schools/jobs       → caller's postings with quota usage
//	POST   /api/v1/schools/jobs       → create (school)
func (h *Handler) RegisterRoutes(mux *http.ServeMux, authn httpx.Middleware) {
	writers := auth.RequireRole(domain.RoleSchool, domain.RoleAdmin)

	mux.Handle("GET /api/v1/jobs", httpx.Chain(h.list, authn))
	mux.Handle("POST /api/v1/jobs", httpx.Chain(h.create, authn, writers))
	mux.Handle("GET /api/v1/jobs/{id}", httpx.Chain(h.get, authn))
	mux.Handle("PATCH /api/v1/jobs/{id}", httpx.Chain(h.update, authn, writers))
	mux.Handle("DELETE /api/v1/jobs/{id}", httpx.Chain(h.delete, authn, writers))
	mux.Handle("GET /api/v1/schools/jobs", httpx.Chain(h.listForSchool, authn, auth.RequireRole(domain.RoleSchool)))
	mux.Handle("POST /api/v1/schools/jobs", httpx.Chain(h.create, authn, auth.RequireRole(domain.RoleSchool)))
}

type schoolJobsResponse struct {
	httpx.List[*domain.Job]
	ActiveJobs int  `json:"active_jobs"`
	MaxJobs    int  `json:"max_jobs"`
	CanCreate  bool `json:"can_create"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())

	page, err := httpx.Page(r)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	q := r.URL.Query()
	f := Filter{City: q.Get("city"), Source: q.Get("source"), Query: q.Get("q")}

	jobs, total, access, err := h.svc.List(r.Context(), actor, f, page)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	views := make([]visibility.OpportunityView, 0, len(jobs))
	for _, j := range jobs {
		views = append(views, visibility.Opportunity(j, access))
	}
	httpx.OK(w, httpx.NewList(views, total, page, access.HasPaid))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())

	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	job, access, err := h.svc.Get(r.Context(), actor, id)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.OK(w, visibility.Opportunity(job, access))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())

	var in Input
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	job, err := h.svc.Create(r.Context(), actor, in)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.Created(w, job)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())

	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	var p Patch
	if err := httpx.Decode(r, &p); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	job, err := h.svc.Update(r.Context(), actor, id, p)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.OK(w, job)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())

	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	if err := h.svc.Delete(r.Context(), actor, id); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) listForSchool(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())

	page, err := httpx.Page(r)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	res, err := h.svc.ListForSchool(r.Context(), actor, r.URL.Query().Get("status"), page)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.OK(w, schoolJobsResponse{
		List:       httpx.NewList(res.Jobs, res.Total, page, res.HasPaid),
		ActiveJobs: res.Active,
		MaxJobs:    res.MaxJobs,
		CanCreate:  res.HasPaid && res.Active < res.MaxJobs,
	})
}
