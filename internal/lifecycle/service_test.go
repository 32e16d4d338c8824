package lifecycle_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"educonnect/placement-service/internal/domain"
	"educonnect/placement-service/internal/events"
	"educonnect/placement-service/internal/lifecycle"
	"educonnect/placement-service/internal/logging"
)

// ── in-memory repository ───────────────────────────────────────────────────

type memRepo struct {
	mu       sync.Mutex
	seq      int
	teachers map[string]*domain.TeacherProfile
	jobs     map[string]*domain.Job
	apps     map[string]*lifecycle.Application
}

func newMemRepo() *memRepo {
	return &memRepo{
		teachers: map[string]*domain.TeacherProfile{},
		jobs:     map[string]*domain.Job{},
		apps:     map[string]*lifecycle.Application{},
	}
}

func (m *memRepo) TeacherByUserID(_ context.Context, userID string) (*domain.TeacherProfile, error) {
	for _, t := range m.teachers {
		if t.UserID == userID {
			return t, nil
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

func (m *memRepo) GetOpportunity(_ context.Context, ref domain.OpportunityRef) (domain.Opportunity, error) {
	if ref.Kind == domain.KindJob {
		if j, ok := m.jobs[ref.ID]; ok {
			return j, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memRepo) Insert(_ context.Context, app *lifecycle.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.apps {
		if a.TeacherID == app.TeacherID && a.Opportunity == app.Opportunity && a.Status != lifecycle.StatusDeclined {
			return domain.ErrAlreadyApplied
		}
	}
	m.seq++
	app.ID = fmt.Sprintf("app-%d", m.seq)
	cp := *app
	m.apps[app.ID] = &cp
	return nil
}

func (m *memRepo) Get(_ context.Context, id string) (*lifecycle.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.apps[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memRepo) List(_ context.Context, f lifecycle.Filter, p domain.Page) ([]lifecycle.Application, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []lifecycle.Application
	for _, a := range m.apps {
		if f.TeacherID != "" && a.TeacherID != f.TeacherID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (m *memRepo) UpdateStatus(_ context.Context, id string, from lifecycle.Status, u lifecycle.StatusUpdate, entry *lifecycle.HistoryEntry, at time.Time) (*lifecycle.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.apps[id]
	if !ok || a.Status != from {
		return nil, domain.ErrNotFound
	}
	a.Status = u.Status
	if u.Notes != nil {
		if *u.Notes == "" {
			a.Notes = nil
		} else {
			n := *u.Notes
			a.Notes = &n
		}
	}
	if entry != nil {
		a.History = append(a.History, *entry)
	}
	a.UpdatedAt = at
	cp := *a
	return &cp, nil
}

// ── fixtures ───────────────────────────────────────────────────────────────

var (
	teacherActor = domain.Actor{UserID: "user-t1", Role: domain.RoleTeacher}
	adminActor   = domain.Actor{UserID: "user-admin", Role: domain.RoleAdmin}
	fixedNow     = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
)

func setup(t *testing.T, paid bool) (*lifecycle.Service, *memRepo) {
	t.Helper()
	repo := newMemRepo()
	repo.teachers["t1"] = &domain.TeacherProfile{ID: "t1", UserID: "user-t1", HasPaid: paid, Status: domain.ProfileActive}
	repo.jobs["j1"] = &domain.Job{ID: "j1", Title: "English Teacher", City: "Shanghai", Status: domain.JobActive, CreatedAt: fixedNow.Add(-48 * time.Hour)}
	svc := lifecycle.NewService(repo, events.Nop{}, logging.Nop()).WithClock(func() time.Time { return fixedNow })
	return svc, repo
}

func jobRef() domain.OpportunityRef {
	return domain.OpportunityRef{Kind: domain.KindJob, ID: "j1"}
}

// ── Apply ──────────────────────────────────────────────────────────────────

func TestApply_RequiresPayment(t *testing.T) {
	svc, _ := setup(t, false)
	_, err := svc.Apply(context.Background(), teacherActor, lifecycle.ApplyInput{Opportunity: jobRef()})
	if !errors.Is(err, domain.ErrPaymentRequired) {
		t.Fatalf("Apply() error = %v, want ErrPaymentRequired", err)
	}
}

func TestApply_CreatesSubmitted(t *testing.T) {
	svc, _ := setup(t, true)
	app, err := svc.Apply(context.Background(), teacherActor, lifecycle.ApplyInput{Opportunity: jobRef()})
	if err != nil {
		t.Fatalf("Apply() unexpected error: %v", err)
	}
	if app.Status != lifecycle.StatusSubmitted {
		t.Errorf("status = %s, want submitted", app.Status)
	}
	if !app.SubmittedAt.Equal(fixedNow) || !app.UpdatedAt.Equal(fixedNow) {
		t.Errorf("timestamps = %v/%v, want %v", app.SubmittedAt, app.UpdatedAt, fixedNow)
	}
	if len(app.History) != 1 || app.History[0].To != "submitted" {
		t.Errorf("history = %+v, want one submitted entry", app.History)
	}
}

func TestApply_OneActivePerPair(t *testing.T) {
	svc, _ := setup(t, true)
	ctx := context.Background()
	first, err := svc.Apply(ctx, teacherActor, lifecycle.ApplyInput{Opportunity: jobRef()})
	if err != nil {
		t.Fatalf("first Apply(): %v", err)
	}
	if _, err := svc.Apply(ctx, teacherActor, lifecycle.ApplyInput{Opportunity: jobRef()}); !errors.Is(err, domain.ErrAlreadyApplied) {
		t.Fatalf("second Apply() error = %v, want ErrAlreadyApplied", err)
	}

	// A declined application no longer blocks reapplying.
	if _, err := svc.UpdateStatus(ctx, teacherActor, first.ID, lifecycle.StatusUpdate{Status: lifecycle.StatusDeclined}); err != nil {
		t.Fatalf("decline: %v", err)
	}
	if _, err := svc.Apply(ctx, teacherActor, lifecycle.ApplyInput{Opportunity: jobRef()}); err != nil {
		t.Errorf("Apply() after decline unexpected error: %v", err)
	}
}

func TestApply_ClosedJob(t *testing.T) {
	svc, repo := setup(t, true)
	expired := fixedNow.Add(-time.Hour)
	repo.jobs["j1"].ExpiryDate = &expired

	_, err := svc.Apply(context.Background(), teacherActor, lifecycle.ApplyInput{Opportunity: jobRef()})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Apply() error = %v, want ValidationError", err)
	}
}

func TestApply_AdminOnBehalf(t *testing.T) {
	svc, _ := setup(t, false)
	ctx := context.Background()

	if _, err := svc.Apply(ctx, adminActor, lifecycle.ApplyInput{Opportunity: jobRef()}); err == nil {
		t.Fatal("Apply() by admin without teacher_id should fail")
	}
	app, err := svc.Apply(ctx, adminActor, lifecycle.ApplyInput{Opportunity: jobRef(), TeacherID: "t1"})
	if err != nil {
		t.Fatalf("Apply() by admin unexpected error: %v", err)
	}
	if app.TeacherID != "t1" {
		t.Errorf("TeacherID = %q, want t1", app.TeacherID)
	}
}

// ── UpdateStatus ───────────────────────────────────────────────────────────

func TestUpdateStatus_AdminForwardAndNotes(t *testing.T) {
	svc, _ := setup(t, true)
	ctx := context.Background()
	app, _ := svc.Apply(ctx, teacherActor, lifecycle.ApplyInput{Opportunity: jobRef()})

	note := "Documents received"
	got, err := svc.UpdateStatus(ctx, adminActor, app.ID, lifecycle.StatusUpdate{Status: lifecycle.StatusDocumentVerification, Notes: &note})
	if err != nil {
		t.Fatalf("UpdateStatus() unexpected error: %v", err)
	}
	if got.Status != lifecycle.StatusDocumentVerification {
		t.Errorf("status = %s, want document_verification", got.Status)
	}
	if got.Notes == nil || *got.Notes != note {
		t.Errorf("notes = %v, want %q", got.Notes, note)
	}

	empty := ""
	got, err = svc.UpdateStatus(ctx, adminActor, app.ID, lifecycle.StatusUpdate{Status: lifecycle.StatusDocumentVerification, Notes: &empty})
	if err != nil {
		t.Fatalf("same-status note clear unexpected error: %v", err)
	}
	if got.Notes != nil {
		t.Errorf("notes = %q, want cleared", *got.Notes)
	}
	if len(got.History) != 2 {
		t.Errorf("history length = %d, want 2 (note edits add no entry)", len(got.History))
	}
}

func TestUpdateStatus_BackwardRejected(t *testing.T) {
	svc, _ := setup(t, true)
	ctx := context.Background()
	app, _ := svc.Apply(ctx, teacherActor, lifecycle.ApplyInput{Opportunity: jobRef()})
	if _, err := svc.UpdateStatus(ctx, adminActor, app.ID, lifecycle.StatusUpdate{Status: lifecycle.StatusInterviewScheduled}); err != nil {
		t.Fatalf("forward jump: %v", err)
	}

	_, err := svc.UpdateStatus(ctx, adminActor, app.ID, lifecycle.StatusUpdate{Status: lifecycle.StatusDocumentVerification})
	var te *domain.TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("UpdateStatus() backwards error = %v, want TransitionError", err)
	}
}

func TestUpdateStatus_TeacherMayOnlyDecline(t *testing.T) {
	svc, _ := setup(t, true)
	ctx := context.Background()
	app, _ := svc.Apply(ctx, teacherActor, lifecycle.ApplyInput{Opportunity: jobRef()})

	if _, err := svc.UpdateStatus(ctx, teacherActor, app.ID, lifecycle.StatusUpdate{Status: lifecycle.StatusPlaced}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("teacher placing own application error = %v, want ErrForbidden", err)
	}
	got, err := svc.UpdateStatus(ctx, teacherActor, app.ID, lifecycle.StatusUpdate{Status: lifecycle.StatusDeclined})
	if err != nil {
		t.Fatalf("teacher decline unexpected error: %v", err)
	}
	if got.Status != lifecycle.StatusDeclined {
		t.Errorf("status = %s, want declined", got.Status)
	}
}

func TestUpdateStatus_DeclineRetainsRecord(t *testing.T) {
	svc, _ := setup(t, true)
	ctx := context.Background()
	app, _ := svc.Apply(ctx, teacherActor, lifecycle.ApplyInput{Opportunity: jobRef()})
	if _, err := svc.UpdateStatus(ctx, adminActor, app.ID, lifecycle.StatusUpdate{Status: lifecycle.StatusDeclined}); err != nil {
		t.Fatalf("decline: %v", err)
	}

	apps, total, err := svc.List(ctx, teacherActor, lifecycle.Filter{}, domain.Page{Limit: 20})
	if err != nil {
		t.Fatalf("List(): %v", err)
	}
	if total != 1 || apps[0].Status != lifecycle.StatusDeclined {
		t.Fatalf("List() = %+v (total %d), want the declined application", apps, total)
	}

	// declined is absorbing.
	if _, err := svc.UpdateStatus(ctx, adminActor, app.ID, lifecycle.StatusUpdate{Status: lifecycle.StatusSubmitted}); err == nil {
		t.Error("transition out of declined should fail")
	}
}

func TestGet_OtherTeacherSeesNotFound(t *testing.T) {
	svc, repo := setup(t, true)
	ctx := context.Background()
	app, _ := svc.Apply(ctx, teacherActor, lifecycle.ApplyInput{Opportunity: jobRef()})

	repo.teachers["t2"] = &domain.TeacherProfile{ID: "t2", UserID: "user-t2", HasPaid: true, Status: domain.ProfileActive}
	other := domain.Actor{UserID: "user-t2", Role: domain.RoleTeacher}
	if _, err := svc.Get(ctx, other, app.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get() by other teacher error = %v, want ErrNotFound", err)
	}
}
