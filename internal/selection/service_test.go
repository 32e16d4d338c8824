package selection_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"educonnect/placement-service/internal/domain"
	"educonnect/placement-service/internal/events"
	"educonnect/placement-service/internal/logging"
	"educonnect/placement-service/internal/selection"
)

type memRepo struct {
	seq      int
	schools  map[string]*domain.SchoolAccount
	teachers map[string]*domain.TeacherProfile
	jobs     map[string]*domain.Job
	sels     map[string]*selection.Selection
}

func (m *memRepo) SchoolByUserID(_ context.Context, userID string) (*domain.SchoolAccount, error) {
	for _, s := range m.schools {
		if s.UserID == userID {
			return s, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memRepo) GetTeacher(_ context.Context, id string) (*domain.TeacherProfile, error) {
	if t, ok := m.teachers[id]; ok {
		return t, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memRepo) GetJob(_ context.Context, id string) (*domain.Job, error) {
	if j, ok := m.jobs[id]; ok {
		return j, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memRepo) Insert(_ context.Context, sel *selection.Selection) error {
	for _, s := range m.sels {
		if s.TeacherID == sel.TeacherID && s.JobID == sel.JobID {
			return domain.ErrAlreadySelected
		}
	}
	m.seq++
	sel.ID = fmt.Sprintf("sel-%d", m.seq)
	cp := *sel
	m.sels[sel.ID] = &cp
	return nil
}

func (m *memRepo) Get(_ context.Context, id string) (*selection.Selection, error) {
	s, ok := m.sels[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memRepo) List(_ context.Context, schoolID, jobID string) ([]selection.Item, error) {
	var out []selection.Item
	for _, s := range m.sels {
		if (schoolID == "" || s.SchoolID == schoolID) && (jobID == "" || s.JobID == jobID) {
			out = append(out, selection.Item{Selection: *s, Teacher: m.teachers[s.TeacherID]})
		}
	}
	return out, nil
}

func (m *memRepo) UpdateStatus(_ context.Context, id string, from, to selection.Status, notes *string, at time.Time) (*selection.Selection, error) {
	s, ok := m.sels[id]
	if !ok || s.Status != from {
		return nil, domain.ErrNotFound
	}
	if to != from {
		s.Status = to
		s.StatusUpdatedAt = at
	}
	if notes != nil {
		n := *notes
		s.Notes = &n
	}
	cp := *s
	return &cp, nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.sels[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.sels, id)
	return nil
}

var (
	schoolActor = domain.Actor{UserID: "user-s1", Role: domain.RoleSchool}
	otherSchool = domain.Actor{UserID: "user-s2", Role: domain.RoleSchool}
	now         = time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
)

func setup(t *testing.T) (*selection.Service, *memRepo) {
	t.Helper()
	s1 := "s1"
	repo := &memRepo{
		schools: map[string]*domain.SchoolAccount{
			"s1": {ID: "s1", UserID: "user-s1", HasPaid: true},
			"s2": {ID: "s2", UserID: "user-s2", HasPaid: true},
		},
		teachers: map[string]*domain.TeacherProfile{
			"t1": {ID: "t1", FirstName: "Ana", Status: domain.ProfileActive},
		},
		jobs: map[string]*domain.Job{
			"j1": {ID: "j1", SchoolID: &s1, Title: "ESL Teacher", Status: domain.JobActive},
			"j2": {ID: "j2", Title: "External", Status: domain.JobActive, Source: domain.SourceExternal},
		},
		sels: map[string]*selection.Selection{},
	}
	svc := selection.NewService(repo, events.Nop{}, logging.Nop()).WithClock(func() time.Time { return now })
	return svc, repo
}

func TestCreate(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	sel, err := svc.Create(ctx, schoolActor, selection.CreateInput{TeacherID: "t1", JobID: "j1"})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	if sel.Status != selection.StatusSelected || sel.SchoolID != "s1" {
		t.Errorf("Create() = %+v, want selected_for_interview for s1", sel)
	}
	if _, err := svc.Create(ctx, schoolActor, selection.CreateInput{TeacherID: "t1", JobID: "j1"}); !errors.Is(err, domain.ErrAlreadySelected) {
		t.Errorf("duplicate Create() error = %v, want ErrAlreadySelected", err)
	}
}

func TestCreate_JobOwnership(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, otherSchool, selection.CreateInput{TeacherID: "t1", JobID: "j1"}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Create() on another school's job error = %v, want ErrNotFound", err)
	}
	if _, err := svc.Create(ctx, schoolActor, selection.CreateInput{TeacherID: "t1", JobID: "j2"}); err == nil {
		t.Error("Create() on an external job should fail")
	}
}

func TestCreate_UnpaidSchool(t *testing.T) {
	svc, repo := setup(t)
	repo.schools["s1"].HasPaid = false
	if _, err := svc.Create(context.Background(), schoolActor, selection.CreateInput{TeacherID: "t1", JobID: "j1"}); !errors.Is(err, domain.ErrPaymentRequired) {
		t.Errorf("Create() error = %v, want ErrPaymentRequired", err)
	}
}

func TestCreate_JobNotOpen(t *testing.T) {
	yesterday := now.Add(-24 * time.Hour)
	tests := []struct {
		name string
		edit func(j *domain.Job)
	}{
		{"closed", func(j *domain.Job) { j.Status = domain.JobClosed }},
		{"expired", func(j *domain.Job) { j.ExpiryDate = &yesterday }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := setup(t)
			tt.edit(repo.jobs["j1"])

			var ve *domain.ValidationError
			_, err := svc.Create(context.Background(), schoolActor, selection.CreateInput{TeacherID: "t1", JobID: "j1"})
			if !errors.As(err, &ve) {
				t.Errorf("Create() error = %v, want ValidationError", err)
			}
			if len(repo.sels) != 0 {
				t.Errorf("selection stored for a job that is not open")
			}
		})
	}
}

func TestUpdate_SameStatusIsNoop(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	sel, _ := svc.Create(ctx, schoolActor, selection.CreateInput{TeacherID: "t1", JobID: "j1"})

	got, err := svc.Update(ctx, schoolActor, sel.ID, selection.StatusSelected, nil)
	if err != nil {
		t.Fatalf("Update() same status unexpected error: %v", err)
	}
	if got.Status != selection.StatusSelected || !got.StatusUpdatedAt.Equal(sel.StatusUpdatedAt) {
		t.Errorf("Update() same status changed the record: %+v", got)
	}
}

func TestUpdate_ForwardOnly(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	sel, _ := svc.Create(ctx, schoolActor, selection.CreateInput{TeacherID: "t1", JobID: "j1"})

	if _, err := svc.Update(ctx, schoolActor, sel.ID, selection.StatusInterviewCompleted, nil); err != nil {
		t.Fatalf("forward Update(): %v", err)
	}
	_, err := svc.Update(ctx, schoolActor, sel.ID, selection.StatusInterviewScheduled, nil)
	var te *domain.TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("backward Update() error = %v, want TransitionError", err)
	}
	got, err := svc.Update(ctx, schoolActor, sel.ID, selection.StatusWithdrawn, nil)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if got.Status != selection.StatusWithdrawn {
		t.Errorf("status = %s, want withdrawn", got.Status)
	}
	if _, err := svc.Update(ctx, schoolActor, sel.ID, selection.StatusOfferExtended, nil); err == nil {
		t.Error("Update() out of withdrawn should fail")
	}
}

func TestDelete_RemovesSelection(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	sel, _ := svc.Create(ctx, schoolActor, selection.CreateInput{TeacherID: "t1", JobID: "j1"})

	if err := svc.Delete(ctx, otherSchool, sel.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Delete() by another school error = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, schoolActor, sel.ID); err != nil {
		t.Fatalf("Delete(): %v", err)
	}
	items, _, err := svc.List(ctx, schoolActor, "")
	if err != nil {
		t.Fatalf("List(): %v", err)
	}
	if len(items) != 0 {
		t.Errorf("List() after delete = %d items, want 0", len(items))
	}
}
