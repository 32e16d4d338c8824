package matching

import (
	"context"
	"net/http"

	"educonnect/placement-service/internal/auth"
	"educonnect/placement-service/internal/domain"
	"educonnect/placement-service/internal/httpx"
	"educonnect/placement-service/internal/logging"
	"educonnect/placement-service/internal/visibility"
)

// Directory resolves the caller's own teacher or school record and their
// payment entitlement.
type Directory interface {
	Access(ctx context.Context, actor domain.Actor) (visibility.Access, error)
	TeacherByUserID(ctx context.Context, userID string) (*domain.TeacherProfile, error)
	SchoolByUserID(ctx context.Context, userID string) (*domain.SchoolAccount, error)
}

// Handler serves matching routes.
type Handler struct {
	svc *Service
	dir Directory
	log *logging.Logger
}

// NewHandler returns a configured Handler.
func NewHandler(svc *Service, dir Directory, log *logging.Logger) *Handler {
	return &Handler{svc: svc, dir: dir, log: log}
}

// RegisterRoutes mounts matching routes.
//
//	GET  /api/v1/matching/teacher/{id}            → stored matches for a teacher
//	POST /api/v1/matching/run?teacher_id=         → recompute a teacher's matches
//	POST /api/v1/schools/jobs/{id}/matching/run   → recompute a job's candidates
//	GET  /api/v1/schools/jobs/{id}/matches        → stored candidates for a job
func (h *Handler) RegisterRoutes(mux *http.ServeMux, authn httpx.Middleware) {
	teachers := auth.RequireRole(domain.RoleTeacher, domain.RoleAdmin)
	schools := auth.RequireRole(domain.RoleSchool, domain.RoleAdmin)

	mux.Handle("GET /api/v1/matching/teacher/{id}", httpx.Chain(h.teacherMatches, authn, teachers))
	mux.Handle("POST /api/v1/matching/run", httpx.Chain(h.runTeacher, authn, teachers))
	mux.Handle("POST /api/v1/schools/jobs/{id}/matching/run", httpx.Chain(h.runJob, authn, schools))
	mux.Handle("GET /api/v1/schools/jobs/{id}/matches", httpx.Chain(h.jobMatches, authn, schools))
}

func (h *Handler) teacherMatches(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())

	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	page, err := httpx.Page(r)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	if err := h.ownTeacher(r.Context(), actor, id); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	access, err := h.dir.Access(r.Context(), actor)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}

	ms, total, err := h.svc.TeacherMatches(r.Context(), id, page)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	views := make([]visibility.MatchView, 0, len(ms))
	for _, m := range ms {
		views = append(views, visibility.Match(m.Match, m.Opportunity, m.Applied, access))
	}
	httpx.OK(w, httpx.NewList(views, total, page, access.HasPaid))
}

func (h *Handler) runTeacher(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())

	id, err := httpx.QueryID(r, "teacher_id")
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	if id == "" {
		if !actor.IsTeacher() {
			httpx.Error(w, h.log, domain.Invalid("teacher_id is required"))
			return
		}
		t, err := h.dir.TeacherByUserID(r.Context(), actor.UserID)
		if err != nil {
			httpx.Error(w, h.log, err)
			return
		}
		id = t.ID
	}
	if err := h.ownTeacher(r.Context(), actor, id); err != nil {
		httpx.Error(w, h.log, err)
		return
	}

	sum, err := h.svc.RunForTeacher(r.Context(), id)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.OK(w, sum)
}

func (h *Handler) runJob(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())

	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	if err := h.ownJob(r.Context(), actor, id, true); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	sum, err := h.svc.RunForJob(r.Context(), id)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.OK(w, sum)
}

func (h *Handler) jobMatches(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())

	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	page, err := httpx.Page(r)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	if err := h.ownJob(r.Context(), actor, id, false); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	access, err := h.dir.Access(r.Context(), actor)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}

	ms, total, err := h.svc.JobMatches(r.Context(), id, page)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	views := make([]visibility.CandidateView, 0, len(ms))
	for _, m := range ms {
		views = append(views, visibility.Candidate(m.Match, m.Teacher, m.Selected, access))
	}
	httpx.OK(w, httpx.NewList(views, total, page, access.HasPaid))
}

// ownTeacher allows admins any teacher and teachers only themselves.
func (h *Handler) ownTeacher(ctx context.Context, actor domain.Actor, teacherID string) error {
	if actor.IsAdmin() {
		return nil
	}
	t, err := h.dir.TeacherByUserID(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if t.ID != teacherID {
		return domain.ErrForbidden
	}
	return nil
}

// ownJob allows admins any job and schools only their own. Running matching
// additionally requires a paid school account.
func (h *Handler) ownJob(ctx context.Context, actor domain.Actor, jobID string, run bool) error {
	if actor.IsAdmin() {
		return nil
	}
	school, err := h.dir.SchoolByUserID(ctx, actor.UserID)
	if err != nil {
		return err
	}
	job, err := h.svc.repo.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.SchoolID == nil || *job.SchoolID != school.ID {
		return domain.ErrNotFound
	}
	if run && !school.HasPaid {
		return domain.ErrPaymentRequired
	}
	return nil
}
