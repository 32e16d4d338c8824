// Package profiles manages teacher profiles and school accounts and resolves
// a caller's payment entitlement for the visibility gate.
package profiles

import (
	"context"
	"errors"
	"strings"
	"time"

	"educonnect/placement-service/internal/domain"
	"educonnect/placement-service/internal/logging"
	"educonnect/placement-service/internal/visibility"
)

// TeacherFilter narrows the admin teacher listing.
type TeacherFilter struct {
	Status  string
	HasPaid *bool
	Query   string
}

// Repository is the storage the profile service needs.
type Repository interface {
	TeacherByUserID(ctx context.Context, userID string) (*domain.TeacherProfile, error)
	GetTeacher(ctx context.Context, id string) (*domain.TeacherProfile, error)
	// SaveTeacher inserts or updates the profile keyed by UserID and
	// returns the stored row. HasPaid is never written.
	SaveTeacher(ctx context.Context, t *domain.TeacherProfile) (*domain.TeacherProfile, error)
	SetTeacherStatus(ctx context.Context, id, status string) (*domain.TeacherProfile, error)
	ListTeachers(ctx context.Context, f TeacherFilter, p domain.Page) ([]*domain.TeacherProfile, int, error)
	SchoolByUserID(ctx context.Context, userID string) (*domain.SchoolAccount, error)
	// SaveSchool inserts or updates the account keyed by UserID. Billing
	// fields (HasPaid, PaymentDate, MaxJobs) are never written.
	SaveSchool(ctx context.Context, s *domain.SchoolAccount) (*domain.SchoolAccount, error)
}

// TeacherUpdate carries the fields a teacher may edit.
type TeacherUpdate struct {
	FirstName         string   `json:"first_name" validate:"required,max=100"`
	LastName          string   `json:"last_name" validate:"max=100"`
	Phone             string   `json:"phone" validate:"max=40"`
	Nationality       string   `json:"nationality" validate:"max=80"`
	YearsExperience   *int     `json:"years_experience" validate:"omitempty,min=0,max=60"`
	SubjectSpecialty  []string `json:"subject_specialty" validate:"max=20,dive,max=80"`
	PreferredLocation []string `json:"preferred_location" validate:"max=20,dive,max=80"`
	PreferredAgeGroup []string `json:"preferred_age_group" validate:"max=10,dive,max=80"`
	ChineseLevel      string   `json:"chinese_level" validate:"omitempty,oneof=none basic conversational fluent"`
	CVURL             string   `json:"cv_url" validate:"omitempty,url"`
	HeadshotURL       string   `json:"headshot_url" validate:"omitempty,url"`
	VideoURL          string   `json:"video_url" validate:"omitempty,url"`
}

// SchoolUpdate carries the fields a school may edit.
type SchoolUpdate struct {
	Name               string   `json:"name" validate:"required,max=200"`
	SchoolType         string   `json:"school_type" validate:"max=80"`
	City               string   `json:"city" validate:"max=80"`
	Province           string   `json:"province" validate:"max=80"`
	SalaryRange        string   `json:"salary_range" validate:"max=80"`
	ContactName        string   `json:"contact_name" validate:"max=100"`
	ContactEmail       string   `json:"contact_email" validate:"omitempty,email"`
	ContactPhone       string   `json:"contact_phone" validate:"max=40"`
	Subjects           []string `json:"subjects" validate:"max=20,dive,max=80"`
	AgeGroups          []string `json:"age_groups" validate:"max=10,dive,max=80"`
	MinExperience      *int     `json:"min_experience" validate:"omitempty,min=0,max=60"`
	ChineseRequirement string   `json:"chinese_requirement" validate:"omitempty,oneof=none basic conversational fluent"`
	Accepting          bool     `json:"accepting_teachers"`
}

// Service manages profiles.
type Service struct {
	repo  Repository
	log   *logging.Logger
	clock func() time.Time

	defaultMaxJobs int
}

// NewService returns a configured Service. defaultMaxJobs seeds the quota of
// newly created school accounts.
func NewService(repo Repository, log *logging.Logger, defaultMaxJobs int) *Service {
	return &Service{repo: repo, log: log.With("component", "profiles"), clock: time.Now, defaultMaxJobs: defaultMaxJobs}
}

// Access resolves what the caller may see. The flag is read from the stored
// account; callers without an account get the preview.
func (s *Service) Access(ctx context.Context, actor domain.Actor) (visibility.Access, error) {
	switch {
	case actor.IsAdmin():
		return visibility.Full, nil
	case actor.IsSchool():
		sa, err := s.repo.SchoolByUserID(ctx, actor.UserID)
		if errors.Is(err, domain.ErrNotFound) {
			return visibility.Preview, nil
		}
		if err != nil {
			return visibility.Preview, err
		}
		return visibility.Access{HasPaid: sa.HasPaid}, nil
	default:
		t, err := s.repo.TeacherByUserID(ctx, actor.UserID)
		if errors.Is(err, domain.ErrNotFound) {
			return visibility.Preview, nil
		}
		if err != nil {
			return visibility.Preview, err
		}
		return visibility.Access{HasPaid: t.HasPaid}, nil
	}
}

// TeacherByUserID looks up a teacher profile by auth user id.
func (s *Service) TeacherByUserID(ctx context.Context, userID string) (*domain.TeacherProfile, error) {
	return s.repo.TeacherByUserID(ctx, userID)
}

// SchoolByUserID looks up a school account by auth user id.
func (s *Service) SchoolByUserID(ctx context.Context, userID string) (*domain.SchoolAccount, error) {
	return s.repo.SchoolByUserID(ctx, userID)
}

// Teacher returns the caller's own profile.
func (s *Service) Teacher(ctx context.Context, actor domain.Actor) (*domain.TeacherProfile, error) {
	if !actor.IsTeacher() {
		return nil, domain.ErrForbidden
	}
	return s.repo.TeacherByUserID(ctx, actor.UserID)
}

// UpdateTeacher creates or edits the caller's profile.
func (s *Service) UpdateTeacher(ctx context.Context, actor domain.Actor, u TeacherUpdate) (*domain.TeacherProfile, error) {
	if !actor.IsTeacher() {
		return nil, domain.ErrForbidden
	}
	t, err := s.repo.TeacherByUserID(ctx, actor.UserID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		t = &domain.TeacherProfile{UserID: actor.UserID, Email: actor.Email, Status: domain.ProfileActive, CreatedAt: s.clock()}
	case err != nil:
		return nil, err
	}

	t.FirstName = strings.TrimSpace(u.FirstName)
	t.LastName = strings.TrimSpace(u.LastName)
	t.Phone = strings.TrimSpace(u.Phone)
	t.Nationality = strings.TrimSpace(u.Nationality)
	t.YearsExperience = u.YearsExperience
	t.SubjectSpecialty = clean(u.SubjectSpecialty)
	t.PreferredLocation = clean(u.PreferredLocation)
	t.PreferredAgeGroup = clean(u.PreferredAgeGroup)
	t.ChineseLevel = u.ChineseLevel
	t.CVURL = u.CVURL
	t.HeadshotURL = u.HeadshotURL
	t.VideoURL = u.VideoURL
	t.UpdatedAt = s.clock()
	return s.repo.SaveTeacher(ctx, t)
}

// ListTeachers is the admin directory.
func (s *Service) ListTeachers(ctx context.Context, actor domain.Actor, f TeacherFilter, p domain.Page) ([]*domain.TeacherProfile, int, error) {
	if !actor.IsAdmin() {
		return nil, 0, domain.ErrForbidden
	}
	if f.Status != "" && f.Status != domain.ProfileActive && f.Status != domain.ProfileInactive {
		return nil, 0, domain.Invalid("status must be active or inactive")
	}
	return s.repo.ListTeachers(ctx, f, p)
}

// SetTeacherStatus soft-deletes or restores a teacher profile.
func (s *Service) SetTeacherStatus(ctx context.Context, actor domain.Actor, id, status string) (*domain.TeacherProfile, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if status != domain.ProfileActive && status != domain.ProfileInactive {
		return nil, domain.Invalid("status must be active or inactive")
	}
	t, err := s.repo.SetTeacherStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.log.Info("teacher status changed", "teacherId", id, "status", status)
	return t, nil
}

// School returns the caller's school account.
func (s *Service) School(ctx context.Context, actor domain.Actor) (*domain.SchoolAccount, error) {
	if !actor.IsSchool() {
		return nil, domain.ErrForbidden
	}
	return s.repo.SchoolByUserID(ctx, actor.UserID)
}

// UpdateSchool creates or edits the caller's school account.
func (s *Service) UpdateSchool(ctx context.Context, actor domain.Actor, u SchoolUpdate) (*domain.SchoolAccount, error) {
	if !actor.IsSchool() {
		return nil, domain.ErrForbidden
	}
	sa, err := s.repo.SchoolByUserID(ctx, actor.UserID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		sa = &domain.SchoolAccount{UserID: actor.UserID, MaxJobs: s.defaultMaxJobs, CreatedAt: s.clock()}
	case err != nil:
		return nil, err
	}

	sa.Name = strings.TrimSpace(u.Name)
	sa.SchoolType = strings.TrimSpace(u.SchoolType)
	sa.City = strings.TrimSpace(u.City)
	sa.Province = strings.TrimSpace(u.Province)
	sa.SalaryRange = strings.TrimSpace(u.SalaryRange)
	sa.ContactName = strings.TrimSpace(u.ContactName)
	sa.ContactEmail = strings.TrimSpace(u.ContactEmail)
	sa.ContactPhone = strings.TrimSpace(u.ContactPhone)
	sa.Reqs = domain.Requirements{
		Subjects:           clean(u.Subjects),
		AgeGroups:          clean(u.AgeGroups),
		MinExperience:      u.MinExperience,
		ChineseRequirement: u.ChineseRequirement,
	}
	sa.Accepting = u.Accepting
	sa.UpdatedAt = s.clock()
	return s.repo.SaveSchool(ctx, sa)
}

func clean(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		k := strings.ToLower(v)
		if v == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}
