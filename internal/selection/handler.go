package selection

import (
	"net/http"
	"time"

	"educonnect/placement-service/internal/auth"
	"educonnect/placement-service/internal/domain"
	"educonnect/placement-service/internal/httpx"
	"educonnect/placement-service/internal/logging"
	"educonnect/placement-service/internal/visibility"
)

// View is the JSON shape of a selection.
type View struct {
	ID              string                  `json:"id"`
	SchoolID        string                  `json:"school_id"`
	JobID           string                  `json:"job_id"`
	JobTitle        string                  `json:"job_title,omitempty"`
	TeacherID       string                  `json:"teacher_id"`
	Teacher         *visibility.TeacherView `json:"teacher,omitempty"`
	Status          Status                  `json:"status"`
	NextStatuses    []Status                `json:"next_statuses"`
	Notes           *string                 `json:"notes"`
	SelectedAt      time.Time               `json:"selected_at"`
	StatusUpdatedAt time.Time               `json:"status_updated_at"`
}

func view(s *Selection) View {
	next := Next(s.Status)
	if next == nil {
		next = []Status{}
	}
	return View{
		ID:              s.ID,
		SchoolID:        s.SchoolID,
		JobID:           s.JobID,
		TeacherID:       s.TeacherID,
		Status:          s.Status,
		NextStatuses:    next,
		Notes:           s.Notes,
		SelectedAt:      s.SelectedAt,
		StatusUpdatedAt: s.StatusUpdatedAt,
	}
}

func itemView(it *Item, a visibility.Access) View {
	v := view(&it.Selection)
	v.JobTitle = it.JobTitle
	if it.Teacher != nil {
		tv := visibility.Teacher(it.Teacher, a)
		v.Teacher = &tv
	}
	return v
}

// Handler serves interview selection routes.
type Handler struct {
	svc *Service
	log *logging.Logger
}

// NewHandler returns a configured Handler.
func NewHandler(svc *Service, log *logging.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// RegisterRoutes mounts the school interview selection routes.
//
//	GET    /api/v1/schools/interview-selections[?job_id=]
//	POST   /api/v1/schools/interview-selections
//	PATCH  /api/v1/schools/interview-selections/{id}
//	DELETE /api/v1/schools/interview-selections/{id}
func (h *Handler) RegisterRoutes(mux *http.ServeMux, authn httpx.Middleware) {
	schools := auth.RequireRole(domain.RoleSchool, domain.RoleAdmin)

	mux.Handle("GET /api/v1/schools/interview-selections", httpx.Chain(h.list, authn, schools))
	mux.Handle("POST /api/v1/schools/interview-selections", httpx.Chain(h.create, authn, schools))
	mux.Handle("PATCH /api/v1/schools/interview-selections/{id}", httpx.Chain(h.update, authn, schools))
	mux.Handle("DELETE /api/v1/schools/interview-selections/{id}", httpx.Chain(h.delete, authn, schools))
}

type createRequest struct {
	TeacherID string `json:"teacher_id" validate:"required,uuid"`
	JobID     string `json:"job_id" validate:"required,uuid"`
	Notes     string `json:"notes" validate:"max=2000"`
}

type updateRequest struct {
	Status string  `json:"status" validate:"required"`
	Notes  *string `json:"notes" validate:"omitempty,max=2000"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())

	jobID, err := httpx.QueryID(r, "job_id")
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	items, access, err := h.svc.List(r.Context(), actor, jobID)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	views := make([]View, 0, len(items))
	for i := range items {
		views = append(views, itemView(&items[i], access))
	}
	httpx.OK(w, httpx.NewList(views, len(views), domain.Page{Limit: len(views)}, access.HasPaid))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())

	var req createRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	sel, err := h.svc.Create(r.Context(), actor, CreateInput{TeacherID: req.TeacherID, JobID: req.JobID, Notes: req.Notes})
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.Created(w, view(sel))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())

	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	var req updateRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	sel, err := h.svc.Update(r.Context(), actor, id, Status(req.Status), req.Notes)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.OK(w, view(sel))
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
