// Package jobs manages job postings and enforces each school's active job
// quota.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"educonnect/placement-service/internal/domain"
	"educonnect/placement-service/internal/events"
	"educonnect/placement-service/internal/logging"
	"educonnect/placement-service/internal/visibility"
)

// ─── Inputs ──────────────────────────────────────────────────────────────────

// Input is the body of a new posting.
type Input struct {
	// SchoolID is honoured for admins posting on a school's behalf.
	SchoolID           string     `json:"school_id" validate:"omitempty,uuid"`
	Title              string     `json:"title" validate:"required,max=200"`
	Company            string     `json:"company" validate:"max=200"`
	City               string     `json:"city" validate:"max=80"`
	Province           string     `json:"province" validate:"max=80"`
	ExternalURL        string     `json:"external_url" validate:"omitempty,url"`
	SalaryMin          *int       `json:"salary_min" validate:"omitempty,min=0"`
	SalaryMax          *int       `json:"salary_max" validate:"omitempty,min=0"`
	Description        string     `json:"description" validate:"max=10000"`
	Subjects           []string   `json:"subjects" validate:"max=20,dive,max=80"`
	AgeGroups          []string   `json:"age_groups" validate:"max=10,dive,max=80"`
	MinExperience      *int       `json:"min_experience" validate:"omitempty,min=0,max=60"`
	ChineseRequirement string     `json:"chinese_requirement" validate:"omitempty,oneof=none basic conversational fluent"`
	ExpiryDate         *time.Time `json:"expiry_date"`
	ApplyBy            *time.Time `json:"apply_by"`
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Title              *string    `json:"title" validate:"omitempty,min=1,max=200"`
	City               *string    `json:"city" validate:"omitempty,max=80"`
	Province           *string    `json:"province" validate:"omitempty,max=80"`
	ExternalURL        *string    `json:"external_url" validate:"omitempty,url"`
	SalaryMin          *int       `json:"salary_min" validate:"omitempty,min=0"`
	SalaryMax          *int       `json:"salary_max" validate:"omitempty,min=0"`
	Description        *string    `json:"description" validate:"omitempty,max=10000"`
	Subjects           []string   `json:"subjects" validate:"omitempty,max=20,dive,max=80"`
	AgeGroups          []string   `json:"age_groups" validate:"omitempty,max=10,dive,max=80"`
	MinExperience      *int       `json:"min_experience" validate:"omitempty,min=0,max=60"`
	ChineseRequirement *string    `json:"chinese_requirement" validate:"omitempty,oneof=none basic conversational fluent"`
	ExpiryDate         *time.Time `json:"expiry_date"`
	ApplyBy            *time.Time `json:"apply_by"`
	Status             *string    `json:"status" validate:"omitempty,oneof=active closed"`
}

// Filter narrows listings. Zero values mean "any".
type Filter struct {
	SchoolID string
	Status   string
	Source   string
	City     string
	Query    string
	// OpenAt restricts to active jobs whose expiry is after it.
	OpenAt *time.Time
}

// SchoolJobs is a school's own postings with its quota usage.
type SchoolJobs struct {
	Jobs    []*domain.Job
	Total   int
	Active  int
	MaxJobs int
	HasPaid bool
}

// ─── Dependencies ────────────────────────────────────────────────────────────

// QuotaTx runs inside a transaction that holds the school's row lock.
type QuotaTx interface {
	ActiveJobs(ctx context.Context, now time.Time) (int, error)
	Insert(ctx context.Context, j *domain.Job) error
	Update(ctx context.Context, j *domain.Job) error
}

// Repository is the storage the jobs service needs.
type Repository interface {
	SchoolByUserID(ctx context.Context, userID string) (*domain.SchoolAccount, error)
	GetSchool(ctx context.Context, id string) (*domain.SchoolAccount, error)
	// LockSchool runs fn in one transaction with the school row locked, so
	// concurrent quota checks for the same school serialize.
	LockSchool(ctx context.Context, schoolID string, fn func(ctx context.Context, school *domain.SchoolAccount, tx QuotaTx) error) error
	Insert(ctx context.Context, j *domain.Job) error
	Get(ctx context.Context, id string) (*domain.Job, error)
	Update(ctx context.Context, j *domain.Job) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f Filter, p domain.Page) ([]*domain.Job, int, error)
	CountActive(ctx context.Context, schoolID string, now time.Time) (int, error)
	// ExpireBefore marks active jobs with expiry_date <= now as expired and
	// returns their ids.
	ExpireBefore(ctx context.Context, now time.Time) ([]string, error)
}

// AccessResolver resolves a caller's payment entitlement.
type AccessResolver interface {
	Access(ctx context.Context, actor domain.Actor) (visibility.Access, error)
}

// ─── Service ─────────────────────────────────────────────────────────────────

// Service manages job postings.
type Service struct {
	repo   Repository
	access AccessResolver
	pub    events.Publisher
	log    *logging.Logger
	clock  func() time.Time
}

// NewService returns a configured Service.
func NewService(repo Repository, access AccessResolver, pub events.Publisher, log *logging.Logger) *Service {
	return &Service{repo: repo, access: access, pub: pub, log: log.With("component", "jobs"), clock: time.Now}
}

// WithClock replaces the service clock. Used by tests.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// Create publishes a posting. Schools must have paid and stay within
// max_jobs active postings; the count and insert happen under the school
// lock. Admin postings bypass the quota.
func (s *Service) Create(ctx context.Context, actor domain.Actor, in Input) (*domain.Job, error) {
	now := s.clock()
	job := &domain.Job{
		Title:       strings.TrimSpace(in.Title),
		Company:     strings.TrimSpace(in.Company),
		City:        strings.TrimSpace(in.City),
		Province:    strings.TrimSpace(in.Province),
		ExternalURL: in.ExternalURL,
		SalaryMin:   in.SalaryMin,
		SalaryMax:   in.SalaryMax,
		Description: strings.TrimSpace(in.Description),
		Reqs: domain.Requirements{
			Subjects:           in.Subjects,
			AgeGroups:          in.AgeGroups,
			MinExperience:      in.MinExperience,
			ChineseRequirement: in.ChineseRequirement,
		},
		Status:     domain.JobActive,
		ExpiryDate: in.ExpiryDate,
		ApplyBy:    in.ApplyBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := check(job, now); err != nil {
		return nil, err
	}

	switch {
	case actor.IsAdmin():
		job.Source = domain.SourceAdmin
		if in.SchoolID != "" {
			school, err := s.repo.GetSchool(ctx, in.SchoolID)
			if err != nil {
				return nil, err
			}
			job.SchoolID = &school.ID
			if job.Company == "" {
				job.Company = school.Name
			}
		}
		if err := s.repo.Insert(ctx, job); err != nil {
			return nil, fmt.Errorf("insert job: %w", err)
		}

	case actor.IsSchool():
		school, err := s.repo.SchoolByUserID(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		if !school.HasPaid {
			return nil, domain.ErrPaymentRequired
		}
		job.Source = domain.SourceSchool
		job.SchoolID = &school.ID
		job.Company = school.Name
		err = s.withinQuota(ctx, school.ID, now, func(ctx context.Context, tx QuotaTx) error {
			return tx.Insert(ctx, job)
		})
		if err != nil {
			return nil, quotaOr(err, "create job")
		}

	default:
		return nil, domain.ErrForbidden
	}

	s.log.Info("job created", "jobId", job.ID, "source", job.Source)
	s.publish(ctx, events.New(events.TypeJobCreated, job.ID, map[string]string{
		"jobId":  job.ID,
		"source": job.Source,
		"title":  job.Title,
	}))
	return job, nil
}

// Update edits a posting owned by the caller. Re-activating a closed school
// posting counts against the quota again.
func (s *Service) Update(ctx context.Context, actor domain.Actor, id string, p Patch) (*domain.Job, error) {
	job, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	now := s.clock()
	wasOpen := job.IsOpen(now)

	apply(job, p)
	job.UpdatedAt = now
	if err := check(job, now); err != nil {
		return nil, err
	}

	if !wasOpen && job.IsOpen(now) && job.SchoolID != nil && !actor.IsAdmin() {
		err = s.withinQuota(ctx, *job.SchoolID, now, func(ctx context.Context, tx QuotaTx) error {
			return tx.Update(ctx, job)
		})
		if err != nil {
			return nil, quotaOr(err, "update job")
		}
		return job, nil
	}

	if err := s.repo.Update(ctx, job); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update job: %w", err)
	}
	return job, nil
}

// Delete removes a posting owned by the caller.
func (s *Service) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Get returns one posting and the access the caller sees it with. Owners and
// admins always get full access to their own postings.
func (s *Service) Get(ctx context.Context, actor domain.Actor, id string) (*domain.Job, visibility.Access, error) {
	job, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, visibility.Preview, err
	}
	if s.owns(ctx, actor, job) == nil {
		return job, visibility.Full, nil
	}
	if !job.IsOpen(s.clock()) {
		return nil, visibility.Preview, domain.ErrNotFound
	}
	a, err := s.access.Access(ctx, actor)
	return job, a, err
}

// List is the public job board: open postings only, newest first.
func (s *Service) List(ctx context.Context, actor domain.Actor, f Filter, p domain.Page) ([]*domain.Job, int, visibility.Access, error) {
	a, err := s.access.Access(ctx, actor)
	if err != nil {
		return nil, 0, visibility.Preview, err
	}
	now := s.clock()
	f.OpenAt = &now
	f.Status = ""
	jobs, total, err := s.repo.List(ctx, f, p)
	return jobs, total, a, err
}

// ListForSchool returns every posting of the calling school with its quota
// usage.
func (s *Service) ListForSchool(ctx context.Context, actor domain.Actor, status string, p domain.Page) (*SchoolJobs, error) {
	if !actor.IsSchool() {
		return nil, domain.ErrForbidden
	}
	school, err := s.repo.SchoolByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if status != "" && status != domain.JobActive && status != domain.JobClosed && status != domain.JobExpired {
		return nil, domain.Invalid("status must be active, closed or expired")
	}
	jobs, total, err := s.repo.List(ctx, Filter{SchoolID: school.ID, Status: status}, p)
	if err != nil {
		return nil, err
	}
	active, err := s.repo.CountActive(ctx, school.ID, s.clock())
	if err != nil {
		return nil, err
	}
	return &SchoolJobs{Jobs: jobs, Total: total, Active: active, MaxJobs: school.MaxJobs, HasPaid: school.HasPaid}, nil
}

// Sweep expires active postings past their expiry date and returns how many
// changed.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	ids, err := s.repo.ExpireBefore(ctx, s.clock())
	if err != nil {
		return 0, fmt.Errorf("expire jobs: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	s.log.Info("expired jobs", "count", len(ids))
	s.publish(ctx, events.New(events.TypeJobsExpired, "sweep", map[string]string{
		"count":  strconv.Itoa(len(ids)),
		"jobIds": strings.Join(ids, ","),
	}))
	return len(ids), nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// withinQuota runs write under the school lock after checking that one more
// active posting fits the school's plan.
func (s *Service) withinQuota(ctx context.Context, schoolID string, now time.Time, write func(context.Context, QuotaTx) error) error {
	return s.repo.LockSchool(ctx, schoolID, func(ctx context.Context, school *domain.SchoolAccount, tx QuotaTx) error {
		active, err := tx.ActiveJobs(ctx, now)
		if err != nil {
			return err
		}
		if active >= school.MaxJobs {
			return &domain.QuotaError{Max: school.MaxJobs, Active: active}
		}
		return write(ctx, tx)
	})
}

func (s *Service) owned(ctx context.Context, actor domain.Actor, id string) (*domain.Job, error) {
	job, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.owns(ctx, actor, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *Service) owns(ctx context.Context, actor domain.Actor, job *domain.Job) error {
	if actor.IsAdmin() {
		return nil
	}
	if !actor.IsSchool() {
		return domain.ErrForbidden
	}
	school, err := s.repo.SchoolByUserID(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if job.SchoolID == nil || *job.SchoolID != school.ID {
		return domain.ErrNotFound
	}
	return nil
}

func apply(j *domain.Job, p Patch) {
	if p.Title != nil {
		j.Title = strings.TrimSpace(*p.Title)
	}
	if p.City != nil {
		j.City = strings.TrimSpace(*p.City)
	}
	if p.Province != nil {
		j.Province = strings.TrimSpace(*p.Province)
	}
	if p.ExternalURL != nil {
		j.ExternalURL = *p.ExternalURL
	}
	if p.SalaryMin != nil {
		j.SalaryMin = p.SalaryMin
	}
	if p.SalaryMax != nil {
		j.SalaryMax = p.SalaryMax
	}
	if p.Description != nil {
		j.Description = strings.TrimSpace(*p.Description)
	}
	if p.Subjects != nil {
		j.Reqs.Subjects = p.Subjects
	}
	if p.AgeGroups != nil {
		j.Reqs.AgeGroups = p.AgeGroups
	}
	if p.MinExperience != nil {
		j.Reqs.MinExperience = p.MinExperience
	}
	if p.ChineseRequirement != nil {
		j.Reqs.ChineseRequirement = *p.ChineseRequirement
	}
	if p.ExpiryDate != nil {
		j.ExpiryDate = p.ExpiryDate
	}
	if p.ApplyBy != nil {
		j.ApplyBy = p.ApplyBy
	}
	if p.Status != nil {
		j.Status = *p.Status
	}
}

func check(j *domain.Job, now time.Time) error {
	if j.Title == "" {
		return domain.Invalid("title is required")
	}
	if j.SalaryMin != nil && j.SalaryMax != nil && *j.SalaryMin > *j.SalaryMax {
		return domain.Invalid("salary_min cannot exceed salary_max")
	}
	if j.Status == domain.JobActive && j.ExpiryDate != nil && !j.ExpiryDate.After(now) {
		return domain.Invalid("expiry_date must be in the future")
	}
	if j.ApplyBy != nil && j.ExpiryDate != nil && j.ApplyBy.After(*j.ExpiryDate) {
		return domain.Invalid("apply_by cannot be after expiry_date")
	}
	return nil
}

func quotaOr(err error, op string) error {
	var qe *domain.QuotaError
	if errors.As(err, &qe) || errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.pub.Publish(ctx, e); err != nil {
		s.log.Warn("publish event failed", "type", e.Type, "err", err)
	}
}
