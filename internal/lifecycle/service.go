package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"educonnect/placement-service/internal/domain"
	"educonnect/placement-service/internal/events"
	"educonnect/placement-service/internal/logging"
)

// ─── Model ───────────────────────────────────────────────────────────────────

// HistoryEntry records one status change.
type HistoryEntry struct {
	From string    `json:"from"`
	To   string    `json:"to"`
	By   string    `json:"by"`
	At   time.Time `json:"at"`
}

// Application is a teacher's submission to one opportunity.
type Application struct {
	ID          string                `json:"id"`
	TeacherID   string                `json:"teacher_id"`
	Opportunity domain.OpportunityRef `json:"opportunity"`
	Status      Status                `json:"status"`
	Notes       *string               `json:"notes"`
	History     []HistoryEntry        `json:"history_log"`
	ExpiryDate  *time.Time            `json:"expiry_date,omitempty"`
	SubmittedAt time.Time             `json:"submitted_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// Filter narrows List results. Zero values mean "any".
type Filter struct {
	TeacherID     string
	Status        Status
	OpportunityID string
}

// ApplyInput is the request to create an application.
type ApplyInput struct {
	Opportunity domain.OpportunityRef
	// TeacherID is honoured only for admins applying on a teacher's behalf.
	TeacherID string
	Notes     string
}

// StatusUpdate is the request to move an application. A nil Notes leaves
// the note untouched; a pointer to "" clears it.
type StatusUpdate struct {
	Status Status
	Notes  *string
}

// ─── Dependencies ────────────────────────────────────────────────────────────

// Repository is the storage the lifecycle service needs.
type Repository interface {
	TeacherByUserID(ctx context.Context, userID string) (*domain.TeacherProfile, error)
	GetTeacher(ctx context.Context, teacherID string) (*domain.TeacherProfile, error)
	GetOpportunity(ctx context.Context, ref domain.OpportunityRef) (domain.Opportunity, error)
	// Insert returns domain.ErrAlreadyApplied when a non-declined application
	// exists for the same teacher and opportunity.
	Insert(ctx context.Context, app *Application) error
	Get(ctx context.Context, id string) (*Application, error)
	List(ctx context.Context, f Filter, p domain.Page) ([]Application, int, error)
	// UpdateStatus applies the change only while the stored status still
	// equals from; it returns domain.ErrNotFound otherwise.
	UpdateStatus(ctx context.Context, id string, from Status, u StatusUpdate, entry *HistoryEntry, at time.Time) (*Application, error)
}

// ─── Service ─────────────────────────────────────────────────────────────────

// Service encapsulates the application lifecycle. It has no dependency on
// net/http.
type Service struct {
	repo  Repository
	pub   events.Publisher
	log   *logging.Logger
	clock func() time.Time
}

// NewService returns a configured Service.
func NewService(repo Repository, pub events.Publisher, log *logging.Logger) *Service {
	return &Service{repo: repo, pub: pub, log: log.With("component", "lifecycle"), clock: time.Now}
}

// WithClock replaces the service clock. Used by tests.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// Apply creates a submitted application. Teachers must have full access;
// admins may apply on behalf of any active teacher.
func (s *Service) Apply(ctx context.Context, actor domain.Actor, in ApplyInput) (*Application, error) {
	if _, err := domain.ParseOpportunityKind(string(in.Opportunity.Kind)); err != nil {
		return nil, &domain.ValidationError{Msg: err.Error()}
	}
	if strings.TrimSpace(in.Opportunity.ID) == "" {
		return nil, domain.Invalid("opportunity id is required")
	}

	teacher, err := s.applicant(ctx, actor, in.TeacherID)
	if err != nil {
		return nil, err
	}
	if teacher.Status != domain.ProfileActive {
		return nil, domain.Invalid("teacher profile is not active")
	}

	opp, err := s.repo.GetOpportunity(ctx, in.Opportunity)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	var expiry *time.Time
	if job, ok := opp.(*domain.Job); ok {
		if !job.IsOpen(now) {
			return nil, domain.Invalid("this job is no longer accepting applications")
		}
		if job.ApplyBy != nil && job.ApplyBy.Before(now) {
			return nil, domain.Invalid("the application deadline for this job has passed")
		}
		expiry = job.ExpiryDate
	}
	if school, ok := opp.(*domain.School); ok && !school.Account.Accepting {
		return nil, domain.Invalid("this school is not accepting applications")
	}

	app := &Application{
		TeacherID:   teacher.ID,
		Opportunity: domain.RefOf(opp),
		Status:      StatusSubmitted,
		History: []HistoryEntry{{
			To: string(StatusSubmitted),
			By: string(actor.Role),
			At: now.UTC(),
		}},
		ExpiryDate:  expiry,
		SubmittedAt: now,
		UpdatedAt:   now,
	}
	if note := strings.TrimSpace(in.Notes); note != "" {
		app.Notes = &note
	}

	if err := s.repo.Insert(ctx, app); err != nil {
		if errors.Is(err, domain.ErrAlreadyApplied) {
			return nil, err
		}
		return nil, fmt.Errorf("insert application: %w", err)
	}

	s.publish(ctx, events.New(events.TypeApplicationCreated, app.ID, map[string]string{
		"applicationId":   app.ID,
		"teacherId":       app.TeacherID,
		"opportunityType": string(app.Opportunity.Kind),
		"opportunityId":   app.Opportunity.ID,
	}))
	return app, nil
}

// Get returns one application. Teachers see only their own.
func (s *Service) Get(ctx context.Context, actor domain.Actor, id string) (*Application, error) {
	app, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, app); err != nil {
		return nil, err
	}
	return app, nil
}

// List returns applications visible to actor, most recently updated first.
// Teachers are always restricted to their own applications.
func (s *Service) List(ctx context.Context, actor domain.Actor, f Filter, p domain.Page) ([]Application, int, error) {
	switch {
	case actor.IsAdmin():
	case actor.IsTeacher():
		t, err := s.repo.TeacherByUserID(ctx, actor.UserID)
		if err != nil {
			return nil, 0, err
		}
		f.TeacherID = t.ID
	default:
		return nil, 0, domain.ErrForbidden
	}
	if f.Status != "" {
		if _, err := ParseStatus(string(f.Status)); err != nil {
			return nil, 0, &domain.ValidationError{Msg: err.Error()}
		}
	}
	return s.repo.List(ctx, f, p)
}

// UpdateStatus moves an application along the state machine. Admins may
// make any allowed transition and edit notes; teachers may only decline
// their own application. Re-submitting the current status only updates the
// note.
func (s *Service) UpdateStatus(ctx context.Context, actor domain.Actor, id string, u StatusUpdate) (*Application, error) {
	to, err := ParseStatus(string(u.Status))
	if err != nil {
		return nil, &domain.ValidationError{Msg: err.Error()}
	}

	app, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() {
		if err := s.authorize(ctx, actor, app); err != nil {
			return nil, err
		}
		if to != StatusDeclined && to != app.Status {
			return nil, domain.ErrForbidden
		}
		u.Notes = nil
	}

	from := app.Status
	var entry *HistoryEntry
	if to == from {
		if u.Notes == nil {
			return app, nil
		}
	} else {
		if !IsTransitionAllowed(from, to) {
			return nil, &domain.TransitionError{From: string(from), To: string(to)}
		}
		entry = &HistoryEntry{From: string(from), To: string(to), By: string(actor.Role), At: s.clock().UTC()}
	}
	u.Status = to

	updated, err := s.repo.UpdateStatus(ctx, id, from, u, entry, s.clock())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Lost a race with another writer; report against the fresh state.
			if cur, gerr := s.repo.Get(ctx, id); gerr == nil {
				return nil, &domain.TransitionError{From: string(cur.Status), To: string(to)}
			}
		}
		return nil, err
	}

	if entry != nil {
		s.log.Info("application status changed", "applicationId", id, "from", from, "to", to, "by", actor.Role)
		s.publish(ctx, events.New(events.TypeApplicationStatus, id, map[string]string{
			"applicationId": id,
			"teacherId":     updated.TeacherID,
			"from":          string(from),
			"to":            string(to),
			"stage":         string(Stage(to)),
		}))
	}
	return updated, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func (s *Service) applicant(ctx context.Context, actor domain.Actor, teacherID string) (*domain.TeacherProfile, error) {
	switch {
	case actor.IsAdmin():
		if teacherID == "" {
			return nil, domain.Invalid("teacher_id is required when applying on behalf of a teacher")
		}
		return s.repo.GetTeacher(ctx, teacherID)
	case actor.IsTeacher():
		t, err := s.repo.TeacherByUserID(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		if !t.HasPaid {
			return nil, domain.ErrPaymentRequired
		}
		return t, nil
	}
	return nil, domain.ErrForbidden
}

func (s *Service) authorize(ctx context.Context, actor domain.Actor, app *Application) error {
	if actor.IsAdmin() {
		return nil
	}
	if !actor.IsTeacher() {
		return domain.ErrForbidden
	}
	t, err := s.repo.TeacherByUserID(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if t.ID != app.TeacherID {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.pub.Publish(ctx, e); err != nil {
		s.log.Warn("publish event failed", "type", e.Type, "err", err)
	}
}
