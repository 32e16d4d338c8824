package lifecycle

import (
	"net/http"
	"time"

	"educonnect/placement-service/internal/auth"
	"educonnect/placement-service/internal/domain"
	"educonnect/placement-service/internal/httpx"
	"educonnect/placement-service/internal/logging"
)

// ─── Response types ───────────────────────────────────────────────────────────

// ApplicationView is the JSON shape returned to web clients.
type ApplicationView struct {
	ID              string         `json:"id"`
	TeacherID       string         `json:"teacher_id"`
	OpportunityType string         `json:"opportunity_type"`
	OpportunityID   string         `json:"opportunity_id"`
	Status          Status         `json:"status"`
	Stage           DisplayStage   `json:"stage"`
	StageIndex      int            `json:"stage_index"`
	IsTerminal      bool           `json:"is_terminal"`
	Notes           *string        `json:"notes"`
	History         []HistoryEntry `json:"history_log"`
	ExpiryDate      *time.Time     `json:"expiry_date,omitempty"`
	SubmittedAt     time.Time      `json:"submitted_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// View converts an Application to its wire shape.
func View(a *Application) ApplicationView {
	hist := a.History
	if hist == nil {
		hist = []HistoryEntry{}
	}
	return ApplicationView{
		ID:              a.ID,
		TeacherID:       a.TeacherID,
		OpportunityType: string(a.Opportunity.Kind),
		OpportunityID:   a.Opportunity.ID,
		Status:          a.Status,
		Stage:           Stage(a.Status),
		StageIndex:      StageIndex(a.Status),
		IsTerminal:      IsTerminal(a.Status),
		Notes:           a.Notes,
		History:         hist,
		ExpiryDate:      a.ExpiryDate,
		SubmittedAt:     a.SubmittedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

// ─── Handler ─────────────────────────────────────────────────────────────────

// Handler holds shared dependencies.
type Handler struct {
	svc *Service
	log *logging.Logger
}

// NewHandler returns a configured Handler.
func NewHandler(svc *Service, log *logging.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// RegisterRoutes mounts all application routes on mux behind authn.
//
// Routes:
//
//	GET   /api/v1/applications              → caller's applications (admins: all)
//	POST  /api/v1/applications              → apply to a job or school
//	GET   /api/v1/applications/{id}         → one application
//	PATCH /api/v1/applications/{id}         → move status / edit notes
//	GET   /api/v1/admin/applications        → admin listing with filters
//	PATCH /api/v1/admin/applications/{id}   → admin status update
func (h *Handler) RegisterRoutes(mux *http.ServeMux, authn httpx.Middleware) {
	admin := auth.RequireRole(domain.RoleAdmin)

	mux.Handle("GET /api/v1/applications", httpx.Chain(h.list, authn))
	mux.Handle("POST /api/v1/applications", httpx.Chain(h.create, authn, auth.RequireRole(domain.RoleTeacher, domain.RoleAdmin)))
	mux.Handle("GET /api/v1/applications/{id}", httpx.Chain(h.get, authn))
	mux.Handle("PATCH /api/v1/applications/{id}", httpx.Chain(h.updateStatus, authn))
	mux.Handle("GET /api/v1/admin/applications", httpx.Chain(h.list, authn, admin))
	mux.Handle("PATCH /api/v1/admin/applications/{id}", httpx.Chain(h.updateStatus, authn, admin))
}

// ─── Individual handlers ──────────────────────────────────────────────────────

type createRequest struct {
	OpportunityType string `json:"opportunity_type" validate:"omitempty,oneof=job school"`
	OpportunityID   string `json:"opportunity_id" validate:"omitempty,uuid"`
	JobID           string `json:"job_id" validate:"omitempty,uuid"`
	SchoolID        string `json:"school_id" validate:"omitempty,uuid"`
	TeacherID       string `json:"teacher_id" validate:"omitempty,uuid"`
	Notes           string `json:"notes" validate:"max=2000"`
}

// ref resolves the target from either the generic or the typed id fields.
func (req createRequest) ref() (domain.OpportunityRef, error) {
	switch {
	case req.JobID != "":
		return domain.OpportunityRef{Kind: domain.KindJob, ID: req.JobID}, nil
	case req.SchoolID != "":
		return domain.OpportunityRef{Kind: domain.KindSchool, ID: req.SchoolID}, nil
	case req.OpportunityID != "":
		kind := domain.KindJob
		if req.OpportunityType != "" {
			kind = domain.OpportunityKind(req.OpportunityType)
		}
		return domain.OpportunityRef{Kind: kind, ID: req.OpportunityID}, nil
	}
	return domain.OpportunityRef{}, domain.Invalid("job_id, school_id or opportunity_id is required")
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())

	var req createRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	ref, err := req.ref()
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}

	app, err := h.svc.Apply(r.Context(), actor, ApplyInput{Opportunity: ref, TeacherID: req.TeacherID, Notes: req.Notes})
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.Created(w, View(app))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())

	page, err := httpx.Page(r)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	teacherID, err := httpx.QueryID(r, "teacher_id")
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	oppID, err := httpx.QueryID(r, "opportunity_id")
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}

	f := Filter{TeacherID: teacherID, Status: Status(r.URL.Query().Get("status")), OpportunityID: oppID}
	apps, total, err := h.svc.List(r.Context(), actor, f, page)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}

	views := make([]ApplicationView, 0, len(apps))
	for i := range apps {
		views = append(views, View(&apps[i]))
	}
	httpx.OK(w, httpx.NewList(views, total, page, true))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())

	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	app, err := h.svc.Get(r.Context(), actor, id)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.OK(w, View(app))
}

type updateRequest struct {
	Status string  `json:"status" validate:"required"`
	Notes  *string `json:"notes" validate:"omitempty,max=2000"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
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

	app, err := h.svc.UpdateStatus(r.Context(), actor, id, StatusUpdate{Status: Status(req.Status), Notes: req.Notes})
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.OK(w, View(app))
}
