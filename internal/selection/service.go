package selection

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"educonnect/placement-service/internal/domain"
	"educonnect/placement-service/internal/events"
	"educonnect/placement-service/internal/logging"
	"educonnect/placement-service/internal/visibility"
)

// Selection is a school's shortlisting of one teacher for one of its jobs.
type Selection struct {
	ID              string    `json:"id"`
	SchoolID        string    `json:"school_id"`
	TeacherID       string    `json:"teacher_id"`
	JobID           string    `json:"job_id"`
	Status          Status    `json:"status"`
	Notes           *string   `json:"notes"`
	SelectedAt      time.Time `json:"selected_at"`
	StatusUpdatedAt time.Time `json:"status_updated_at"`
}

// Item is a selection hydrated for listing.
type Item struct {
	Selection Selection
	Teacher   *domain.TeacherProfile
	JobTitle  string
}

// CreateInput is the request to shortlist a teacher.
type CreateInput struct {
	TeacherID string
	JobID     string
	Notes     string
}

// Repository is the storage the selection service needs.
type Repository interface {
	SchoolByUserID(ctx context.Context, userID string) (*domain.SchoolAccount, error)
	GetTeacher(ctx context.Context, teacherID string) (*domain.TeacherProfile, error)
	GetJob(ctx context.Context, jobID string) (*domain.Job, error)
	// Insert returns domain.ErrAlreadySelected when the (teacher, job) pair
	// already has a selection.
	Insert(ctx context.Context, sel *Selection) error
	Get(ctx context.Context, id string) (*Selection, error)
	// List returns selections for schoolID, optionally narrowed to jobID,
	// newest first. An empty schoolID lists every school.
	List(ctx context.Context, schoolID, jobID string) ([]Item, error)
	// UpdateStatus applies the change only while the stored status equals
	// from, returning domain.ErrNotFound otherwise.
	UpdateStatus(ctx context.Context, id string, from, to Status, notes *string, at time.Time) (*Selection, error)
	Delete(ctx context.Context, id string) error
}

// Service manages interview selections.
type Service struct {
	repo  Repository
	pub   events.Publisher
	log   *logging.Logger
	clock func() time.Time
}

// NewService returns a configured Service.
func NewService(repo Repository, pub events.Publisher, log *logging.Logger) *Service {
	return &Service{repo: repo, pub: pub, log: log.With("component", "selection"), clock: time.Now}
}

// WithClock replaces the service clock. Used by tests.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// Create shortlists a teacher for a job owned by the calling school.
// Admins may shortlist against any school-owned job.
func (s *Service) Create(ctx context.Context, actor domain.Actor, in CreateInput) (*Selection, error) {
	if in.TeacherID == "" || in.JobID == "" {
		return nil, domain.Invalid("teacher_id and job_id are required")
	}

	job, err := s.repo.GetJob(ctx, in.JobID)
	if err != nil {
		return nil, err
	}
	if job.SchoolID == nil {
		return nil, domain.Invalid("interview selections can only be made against a school's own job postings")
	}

	if !actor.IsAdmin() {
		school, err := s.school(ctx, actor)
		if err != nil {
			return nil, err
		}
		if *job.SchoolID != school.ID {
			return nil, domain.ErrNotFound
		}
		if !school.HasPaid {
			return nil, domain.ErrPaymentRequired
		}
	}
	if !job.IsOpen(s.clock()) {
		return nil, domain.Invalid("job %q is no longer open for selections", job.Title)
	}

	teacher, err := s.repo.GetTeacher(ctx, in.TeacherID)
	if err != nil {
		return nil, err
	}
	if teacher.Status != domain.ProfileActive {
		return nil, domain.Invalid("teacher profile is not active")
	}

	now := s.clock()
	sel := &Selection{
		SchoolID:        *job.SchoolID,
		TeacherID:       teacher.ID,
		JobID:           job.ID,
		Status:          StatusSelected,
		SelectedAt:      now,
		StatusUpdatedAt: now,
	}
	if note := strings.TrimSpace(in.Notes); note != "" {
		sel.Notes = &note
	}
	if err := s.repo.Insert(ctx, sel); err != nil {
		if errors.Is(err, domain.ErrAlreadySelected) {
			return nil, err
		}
		return nil, fmt.Errorf("insert selection: %w", err)
	}

	s.publish(ctx, events.New(events.TypeSelectionCreated, sel.ID, map[string]string{
		"selectionId": sel.ID,
		"schoolId":    sel.SchoolID,
		"teacherId":   sel.TeacherID,
		"jobId":       sel.JobID,
	}))
	return sel, nil
}

// List returns the caller's selections, optionally for one job, and the
// access level their rows should be rendered with.
func (s *Service) List(ctx context.Context, actor domain.Actor, jobID string) ([]Item, visibility.Access, error) {
	if actor.IsAdmin() {
		items, err := s.repo.List(ctx, "", jobID)
		return items, visibility.Full, err
	}
	school, err := s.school(ctx, actor)
	if err != nil {
		return nil, visibility.Preview, err
	}
	items, err := s.repo.List(ctx, school.ID, jobID)
	return items, visibility.Access{HasPaid: school.HasPaid}, err
}

// Update moves a selection. Submitting the current status is a no-op and
// only touches notes when they are supplied.
func (s *Service) Update(ctx context.Context, actor domain.Actor, id string, status Status, notes *string) (*Selection, error) {
	to, err := ParseStatus(string(status))
	if err != nil {
		return nil, &domain.ValidationError{Msg: err.Error()}
	}
	sel, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	from := sel.Status
	if to == from && notes == nil {
		return sel, nil
	}
	if to != from && !IsTransitionAllowed(from, to) {
		return nil, &domain.TransitionError{From: string(from), To: string(to)}
	}

	updated, err := s.repo.UpdateStatus(ctx, id, from, to, notes, s.clock())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			if cur, gerr := s.repo.Get(ctx, id); gerr == nil {
				return nil, &domain.TransitionError{From: string(cur.Status), To: string(to)}
			}
		}
		return nil, err
	}

	if to != from {
		s.log.Info("selection status changed", "selectionId", id, "from", from, "to", to)
		s.publish(ctx, events.New(events.TypeSelectionStatus, id, map[string]string{
			"selectionId": id,
			"teacherId":   updated.TeacherID,
			"jobId":       updated.JobID,
			"from":        string(from),
			"to":          string(to),
		}))
	}
	return updated, nil
}

// Delete removes a selection permanently.
func (s *Service) Delete(ctx context.Context, actor domain.Actor, id string) error {
	sel, err := s.owned(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.New(events.TypeSelectionDeleted, id, map[string]string{
		"selectionId": id,
		"teacherId":   sel.TeacherID,
		"jobId":       sel.JobID,
	}))
	return nil
}

func (s *Service) school(ctx context.Context, actor domain.Actor) (*domain.SchoolAccount, error) {
	if !actor.IsSchool() {
		return nil, domain.ErrForbidden
	}
	return s.repo.SchoolByUserID(ctx, actor.UserID)
}

func (s *Service) owned(ctx context.Context, actor domain.Actor, id string) (*Selection, error) {
	sel, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin() {
		return sel, nil
	}
	school, err := s.school(ctx, actor)
	if err != nil {
		return nil, err
	}
	if sel.SchoolID != school.ID {
		return nil, domain.ErrNotFound
	}
	return sel, nil
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.pub.Publish(ctx, e); err != nil {
		s.log.Warn("publish event failed", "type", e.Type, "err", err)
	}
}
