// Package visibility redacts identity and contact data for accounts that have
// not paid. It is a pure transform applied at the API boundary; the payment
// flag always comes from the server-side account record, never the client.
package visibility

import (
	"regexp"
	"time"

	"educonnect/placement-service/internal/domain"
)

// Placeholder replaces every redacted value.
const Placeholder = "••••••"

// Access is the caller's resolved entitlement.
type Access struct {
	HasPaid bool
}

// Full grants passthrough.
var Full = Access{HasPaid: true}

// Preview is the unpaid entitlement.
var Preview = Access{}

// OpportunityView is the wire shape of a School or Job, unified by Type.
type OpportunityView struct {
	ID           string     `json:"id"`
	Type         string     `json:"type"`
	Source       string     `json:"source,omitempty"`
	Name         string     `json:"name"`
	Title        string     `json:"title,omitempty"`
	Company      string     `json:"company,omitempty"`
	SchoolType   string     `json:"school_type,omitempty"`
	City         string     `json:"city,omitempty"`
	Province     string     `json:"province,omitempty"`
	Location     string     `json:"location"`
	Salary       string     `json:"salary"`
	Description  string     `json:"description,omitempty"`
	ExternalURL  string     `json:"external_url,omitempty"`
	ContactEmail string     `json:"contact_email,omitempty"`
	ContactPhone string     `json:"contact_phone,omitempty"`
	ExpiryDate   *time.Time `json:"expiry_date,omitempty"`
	ApplyBy      *time.Time `json:"apply_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	Locked       bool       `json:"is_locked"`
}

// TeacherView is the wire shape of a teacher seen by a school or admin.
type TeacherView struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Email             string   `json:"email,omitempty"`
	Phone             string   `json:"phone,omitempty"`
	Nationality       string   `json:"nationality,omitempty"`
	YearsExperience   *int     `json:"years_experience,omitempty"`
	SubjectSpecialty  []string `json:"subject_specialty"`
	PreferredLocation []string `json:"preferred_location"`
	PreferredAgeGroup []string `json:"preferred_age_group"`
	ChineseLevel      string   `json:"chinese_level,omitempty"`
	CVURL             string   `json:"cv_url,omitempty"`
	HeadshotURL       string   `json:"headshot_url,omitempty"`
	VideoURL          string   `json:"video_url,omitempty"`
	Locked            bool     `json:"is_locked"`
}

// Opportunity renders o for a caller with access a.
func Opportunity(o domain.Opportunity, a Access) OpportunityView {
	loc := o.Location()
	v := OpportunityView{
		ID:        o.OpportunityID(),
		Type:      string(o.Kind()),
		Name:      o.DisplayName(),
		City:      loc.City,
		Province:  loc.Province,
		Location:  loc.String(),
		Salary:    o.SalaryDisplay(),
		CreatedAt: o.PostedAt(),
	}

	switch x := o.(type) {
	case *domain.School:
		v.Source = domain.SourceSchool
		v.SchoolType = x.Account.SchoolType
		v.ContactEmail = x.Account.ContactEmail
		v.ContactPhone = x.Account.ContactPhone
	case *domain.Job:
		v.Source = x.Source
		v.Title = x.Title
		v.Company = x.Company
		v.Description = x.Description
		v.ExternalURL = x.ExternalURL
		v.ExpiryDate = x.ExpiryDate
		v.ApplyBy = x.ApplyBy
	}

	if a.HasPaid {
		return v
	}

	v.Locked = true
	v.Name = Placeholder
	v.Title = maskWithin(v.Title, v.Company)
	v.Company = mask(v.Company)
	v.Description = ""
	v.ExternalURL = mask(v.ExternalURL)
	v.ContactEmail = mask(v.ContactEmail)
	v.ContactPhone = mask(v.ContactPhone)
	if _, isSchool := o.(*domain.School); isSchool {
		v.Title = ""
	}
	return v
}

// Teacher renders t for a caller with access a.
func Teacher(t *domain.TeacherProfile, a Access) TeacherView {
	v := TeacherView{
		ID:                t.ID,
		Name:              t.FullName(),
		Email:             t.Email,
		Phone:             t.Phone,
		Nationality:       t.Nationality,
		YearsExperience:   t.YearsExperience,
		SubjectSpecialty:  nonNil(t.SubjectSpecialty),
		PreferredLocation: nonNil(t.PreferredLocation),
		PreferredAgeGroup: nonNil(t.PreferredAgeGroup),
		ChineseLevel:      t.ChineseLevel,
		CVURL:             t.CVURL,
		HeadshotURL:       t.HeadshotURL,
		VideoURL:          t.VideoURL,
	}
	if a.HasPaid {
		return v
	}

	v.Locked = true
	v.Name = Placeholder
	v.Email = mask(v.Email)
	v.Phone = mask(v.Phone)
	v.CVURL = mask(v.CVURL)
	v.HeadshotURL = mask(v.HeadshotURL)
	v.VideoURL = mask(v.VideoURL)
	return v
}

// MatchView is a teacher-side match: the opportunity plus score.
type MatchView struct {
	Score       int              `json:"match_score"`
	Reasons     []string         `json:"match_reasons"`
	Breakdown   domain.Breakdown `json:"breakdown"`
	Opportunity OpportunityView  `json:"opportunity"`
	Submitted   bool             `json:"is_submitted"`
	ComputedAt  time.Time        `json:"computed_at"`
}

// CandidateView is a job-side match: the teacher plus score.
type CandidateView struct {
	Score      int              `json:"match_score"`
	Reasons    []string         `json:"match_reasons"`
	Breakdown  domain.Breakdown `json:"breakdown"`
	Teacher    TeacherView      `json:"teacher"`
	Selected   bool             `json:"is_selected"`
	ComputedAt time.Time        `json:"computed_at"`
}

// Match renders a teacher-side match.
func Match(m domain.Match, o domain.Opportunity, submitted bool, a Access) MatchView {
	return MatchView{
		Score:       m.Score,
		Reasons:     nonNil(m.Reasons),
		Breakdown:   m.Breakdown,
		Opportunity: Opportunity(o, a),
		Submitted:   submitted,
		ComputedAt:  m.ComputedAt,
	}
}

// Candidate renders a job-side match.
func Candidate(m domain.Match, t *domain.TeacherProfile, selected bool, a Access) CandidateView {
	return CandidateView{
		Score:      m.Score,
		Reasons:    nonNil(m.Reasons),
		Breakdown:  m.Breakdown,
		Teacher:    Teacher(t, a),
		Selected:   selected,
		ComputedAt: m.ComputedAt,
	}
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return Placeholder
}

// maskWithin replaces every case-insensitive occurrence of name in s.
// Posted titles often embed the employer, as in "ESL Teacher at Bright Academy".
func maskWithin(s, name string) string {
	if s == "" || name == "" {
		return s
	}
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(name))
	return re.ReplaceAllLiteralString(s, Placeholder)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
