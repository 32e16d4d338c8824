package profiles

import (
	"net/http"
	"strconv"

	"educonnect/placement-service/internal/auth"
	"educonnect/placement-service/internal/domain"
	"educonnect/placement-service/internal/httpx"
	"educonnect/placement-service/internal/logging"
)

// Handler serves profile routes.
type Handler struct {
	svc *Service
	log *logging.Logger
}

// NewHandler returns a configured Handler.
func NewHandler(svc *Service, log *logging.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// RegisterRoutes mounts profile routes.
//
//	GET/PUT /api/v1/teachers/me
//	GET     /api/v1/admin/teachers
//	PATCH   /api/v1/admin/teachers/{id}
//	GET/PUT /api/v1/schools/me
func (h *Handler) RegisterRoutes(mux *http.ServeMux, authn httpx.Middleware) {
	teacher := auth.RequireRole(domain.RoleTeacher)
	school := auth.RequireRole(domain.RoleSchool)
	admin := auth.RequireRole(domain.RoleAdmin)

	mux.Handle("GET /api/v1/teachers/me", httpx.Chain(h.getTeacher, authn, teacher))
	mux.Handle("PUT /api/v1/teachers/me", httpx.Chain(h.putTeacher, authn, teacher))
	mux.Handle("GET /api/v1/admin/teachers", httpx.Chain(h.listTeachers, authn, admin))
	mux.Handle("PATCH /api/v1/admin/teachers/{id}", httpx.Chain(h.setTeacherStatus, authn, admin))
	mux.Handle("GET /api/v1/schools/me", httpx.Chain(h.getSchool, authn, school))
	mux.Handle("PUT /api/v1/schools/me", httpx.Chain(h.putSchool, authn, school))
}

func (h *Handler) getTeacher(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	t, err := h.svc.Teacher(r.Context(), actor)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.OK(w, t)
}

func (h *Handler) putTeacher(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())

	var req TeacherUpdate
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	t, err := h.svc.UpdateTeacher(r.Context(), actor, req)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.OK(w, t)
}

func (h *Handler) listTeachers(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())

	page, err := httpx.Page(r)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	q := r.URL.Query()
	f := TeacherFilter{Status: q.Get("status"), Query: q.Get("q")}
	if raw := q.Get("has_paid"); raw != "" {
		paid, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.Error(w, h.log, domain.Invalid("has_paid must be true or false"))
			return
		}
		f.HasPaid = &paid
	}

	teachers, total, err := h.svc.ListTeachers(r.Context(), actor, f, page)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.OK(w, httpx.NewList(teachers, total, page, true))
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

func (h *Handler) setTeacherStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())

	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	var req statusRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	t, err := h.svc.SetTeacherStatus(r.Context(), actor, id, req.Status)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.OK(w, t)
}

func (h *Handler) getSchool(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	sa, err := h.svc.School(r.Context(), actor)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.OK(w, sa)
}

func (h *Handler) putSchool(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())

	var req SchoolUpdate
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	sa, err := h.svc.UpdateSchool(r.Context(), actor, req)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.OK(w, sa)
}
