package domain

import (
	"fmt"
	"time"
)

// Profile status values. Teachers are never hard-deleted.
const (
	ProfileActive   = "active"
	ProfileInactive = "inactive"
)

// TeacherProfile mirrors the teacher_profiles table.
type TeacherProfile struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	FirstName         string    `json:"first_name"`
	LastName          string    `json:"last_name"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone,omitempty"`
	Nationality       string    `json:"nationality,omitempty"`
	YearsExperience   *int      `json:"years_experience,omitempty"`
	SubjectSpecialty  []string  `json:"subject_specialty"`
	PreferredLocation []string  `json:"preferred_location"`
	PreferredAgeGroup []string  `json:"preferred_age_group"`
	ChineseLevel      string    `json:"chinese_level,omitempty"`
	CVURL             string    `json:"cv_url,omitempty"`
	HeadshotURL       string    `json:"headshot_url,omitempty"`
	VideoURL          string    `json:"video_url,omitempty"`
	HasPaid           bool      `json:"has_paid"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// FullName joins first and last name.
func (t *TeacherProfile) FullName() string {
	switch {
	case t.FirstName == "":
		return t.LastName
	case t.LastName == "":
		return t.FirstName
	}
	return t.FirstName + " " + t.LastName
}

// SchoolAccount is a school's identity, billing and quota record. When the
// school is accepting teachers it is also matchable as a School opportunity.
type SchoolAccount struct {
	ID           string       `json:"id"`
	UserID       string       `json:"user_id"`
	Name         string       `json:"name"`
	SchoolType   string       `json:"school_type,omitempty"`
	City         string       `json:"city,omitempty"`
	Province     string       `json:"province,omitempty"`
	SalaryRange  string       `json:"salary_range,omitempty"`
	ContactName  string       `json:"contact_name,omitempty"`
	ContactEmail string       `json:"contact_email,omitempty"`
	ContactPhone string       `json:"contact_phone,omitempty"`
	Reqs         Requirements `json:"requirements"`
	Accepting    bool         `json:"accepting_teachers"`
	HasPaid      bool         `json:"has_paid"`
	PaymentDate  *time.Time   `json:"payment_date,omitempty"`
	MaxJobs      int          `json:"max_jobs"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// School is the opportunity face of a SchoolAccount.
type School struct {
	Account *SchoolAccount
}

func (s *School) OpportunityID() string      { return s.Account.ID }
func (s *School) Kind() OpportunityKind      { return KindSchool }
func (s *School) DisplayName() string        { return s.Account.Name }
func (s *School) Requirements() Requirements { return s.Account.Reqs }
func (s *School) PostedAt() time.Time        { return s.Account.CreatedAt }

func (s *School) Location() Location {
	return Location{City: s.Account.City, Province: s.Account.Province}
}

func (s *School) SalaryDisplay() string {
	if s.Account.SalaryRange == "" {
		return "Competitive"
	}
	return s.Account.SalaryRange
}

// Job status values.
const (
	JobActive  = "active"
	JobClosed  = "closed"
	JobExpired = "expired"
)

// Job source values.
const (
	SourceSchool   = "school"
	SourceAdmin    = "admin"
	SourceExternal = "external"
)

// Job is a one-off posting, owned by a school or published by admins or
// imported from an external feed.
type Job struct {
	ID          string       `json:"id"`
	SchoolID    *string      `json:"school_id,omitempty"`
	Title       string       `json:"title"`
	Company     string       `json:"company"`
	City        string       `json:"city,omitempty"`
	Province    string       `json:"province,omitempty"`
	ExternalURL string       `json:"external_url,omitempty"`
	SalaryMin   *int         `json:"salary_min,omitempty"`
	SalaryMax   *int         `json:"salary_max,omitempty"`
	Description string       `json:"description,omitempty"`
	Reqs        Requirements `json:"requirements"`
	Status      string       `json:"status"`
	Source      string       `json:"source"`
	ExpiryDate  *time.Time   `json:"expiry_date,omitempty"`
	ApplyBy     *time.Time   `json:"apply_by,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (j *Job) OpportunityID() string      { return j.ID }
func (j *Job) Kind() OpportunityKind      { return KindJob }
func (j *Job) Requirements() Requirements { return j.Reqs }
func (j *Job) PostedAt() time.Time        { return j.CreatedAt }
func (j *Job) Location() Location         { return Location{City: j.City, Province: j.Province} }

func (j *Job) DisplayName() string {
	if j.Company == "" {
		return j.Title
	}
	return j.Title + " at " + j.Company
}

// SalaryDisplay renders the monthly RMB range.
func (j *Job) SalaryDisplay() string {
	switch {
	case j.SalaryMin != nil && j.SalaryMax != nil:
		return fmt.Sprintf("%d - %d RMB/month", *j.SalaryMin, *j.SalaryMax)
	case j.SalaryMin != nil:
		return fmt.Sprintf("From %d RMB/month", *j.SalaryMin)
	case j.SalaryMax != nil:
		return fmt.Sprintf("Up to %d RMB/month", *j.SalaryMax)
	}
	return "Competitive"
}

// IsOpen reports whether the job still accepts applications at now.
func (j *Job) IsOpen(now time.Time) bool {
	if j.Status != JobActive {
		return false
	}
	if j.ExpiryDate != nil && !j.ExpiryDate.After(now) {
		return false
	}
	return true
}

// Breakdown holds the five weighted sub-scores, each 0-100.
type Breakdown struct {
	Location   float64 `json:"location"`
	Subject    float64 `json:"subject"`
	AgeGroup   float64 `json:"age_group"`
	Experience float64 `json:"experience"`
	Language   float64 `json:"language"`
}

// Match is a scored teacher/opportunity pairing produced by a matching run.
type Match struct {
	TeacherID   string         `json:"teacher_id"`
	Opportunity OpportunityRef `json:"opportunity"`
	Score       int            `json:"match_score"`
	Breakdown   Breakdown      `json:"breakdown"`
	Reasons     []string       `json:"match_reasons"`
	PostedAt    time.Time      `json:"posted_at"`
	ComputedAt  time.Time      `json:"computed_at"`
}

// Page is a skip/limit window.
type Page struct {
	Skip  int
	Limit int
}
