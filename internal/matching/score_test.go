package matching_test

import (
	"math"
	"strings"
	"testing"
	"time"

	"educonnect/placement-service/internal/domain"
	"educonnect/placement-service/internal/matching"
)

func intp(v int) *int { return &v }

func TestScore_ShanghaiEnglishScenario(t *testing.T) {
	teacher := &domain.TeacherProfile{
		PreferredLocation: []string{"Shanghai"},
		SubjectSpecialty:  []string{"English"},
	}
	job := &domain.Job{
		Title: "English Teacher",
		City:  "Shanghai",
		Reqs:  domain.Requirements{Subjects: []string{"English"}},
	}

	r := matching.Score(teacher, job)
	if r.Breakdown.Location < 99 || r.Breakdown.Subject < 99 {
		t.Errorf("location/subject = %.0f/%.0f, want ~100", r.Breakdown.Location, r.Breakdown.Subject)
	}
	if r.Score < 80 {
		t.Errorf("Score = %d, want >= 80", r.Score)
	}
	joined := strings.Join(r.Reasons, "|")
	if !strings.Contains(joined, "Location match: Shanghai") || !strings.Contains(joined, "Subject match: English") {
		t.Errorf("Reasons = %v, want location and subject matches", r.Reasons)
	}
}

func TestScore_BoundsAndDeterminism(t *testing.T) {
	teachers := []*domain.TeacherProfile{
		{},
		{PreferredLocation: []string{"anywhere"}, ChineseLevel: "fluent", YearsExperience: intp(10)},
		{PreferredLocation: []string{"Beijing"}, SubjectSpecialty: []string{"Math", "Science"}, PreferredAgeGroup: []string{"Kindergarten"}, YearsExperience: intp(0), ChineseLevel: "none"},
		{PreferredLocation: []string{"Zhejiang"}, SubjectSpecialty: []string{"english"}, YearsExperience: intp(-3), ChineseLevel: "klingon"},
	}
	opps := []domain.Opportunity{
		&domain.Job{},
		&domain.Job{City: "Hangzhou", Province: "Zhejiang", Reqs: domain.Requirements{Subjects: []string{"English", "Math", "Art", "Music"}, MinExperience: intp(2), ChineseRequirement: "basic"}},
		&domain.School{Account: &domain.SchoolAccount{City: "Beijing", Reqs: domain.Requirements{AgeGroups: []string{"Kindergarten", "Primary"}, MinExperience: intp(0), ChineseRequirement: "fluent"}}},
	}
	for _, tp := range teachers {
		for _, o := range opps {
			a, b := matching.Score(tp, o), matching.Score(tp, o)
			if a.Score < 0 || a.Score > 100 {
				t.Errorf("Score = %d out of range for %+v vs %+v", a.Score, tp, o)
			}
			if a.Score != b.Score || a.Total != b.Total || strings.Join(a.Reasons, "|") != strings.Join(b.Reasons, "|") {
				t.Errorf("Score not deterministic: %+v vs %+v", a, b)
			}
			if math.Abs(matching.Total(a.Breakdown)-float64(a.Score)) > 1 {
				t.Errorf("weighted total %.2f differs from score %d by more than 1", matching.Total(a.Breakdown), a.Score)
			}
		}
	}
}

func TestScore_MissingDataIsNeutral(t *testing.T) {
	r := matching.Score(&domain.TeacherProfile{}, &domain.Job{})
	if r.Score <= 0 || r.Score >= 100 {
		t.Errorf("empty vs empty Score = %d, want a partial score", r.Score)
	}
	if r.Score != 50 {
		t.Errorf("empty vs empty Score = %d, want 50", r.Score)
	}
}

func TestScore_SubScores(t *testing.T) {
	cases := []struct {
		name    string
		teacher *domain.TeacherProfile
		job     *domain.Job
		get     func(domain.Breakdown) float64
		want    float64
	}{
		{
			name:    "province only",
			teacher: &domain.TeacherProfile{PreferredLocation: []string{"zhejiang"}},
			job:     &domain.Job{City: "Ningbo", Province: "Zhejiang"},
			get:     func(b domain.Breakdown) float64 { return b.Location },
			want:    70,
		},
		{
			name:    "open location",
			teacher: &domain.TeacherProfile{PreferredLocation: []string{"Flexible"}},
			job:     &domain.Job{City: "Shenzhen"},
			get:     func(b domain.Breakdown) float64 { return b.Location },
			want:    80,
		},
		{
			name:    "no location match",
			teacher: &domain.TeacherProfile{PreferredLocation: []string{"Chengdu"}},
			job:     &domain.Job{City: "Shenzhen", Province: "Guangdong"},
			get:     func(b domain.Breakdown) float64 { return b.Location },
			want:    0,
		},
		{
			name:    "half the subjects",
			teacher: &domain.TeacherProfile{SubjectSpecialty: []string{" ENGLISH "}},
			job:     &domain.Job{Reqs: domain.Requirements{Subjects: []string{"English", "Phonics"}}},
			get:     func(b domain.Breakdown) float64 { return b.Subject },
			want:    50,
		},
		{
			name:    "partial experience",
			teacher: &domain.TeacherProfile{YearsExperience: intp(1)},
			job:     &domain.Job{Reqs: domain.Requirements{MinExperience: intp(4)}},
			get:     func(b domain.Breakdown) float64 { return b.Experience },
			want:    25,
		},
		{
			name:    "no experience required",
			teacher: &domain.TeacherProfile{},
			job:     &domain.Job{Reqs: domain.Requirements{MinExperience: intp(0)}},
			get:     func(b domain.Breakdown) float64 { return b.Experience },
			want:    100,
		},
		{
			name:    "chinese below requirement",
			teacher: &domain.TeacherProfile{ChineseLevel: "basic"},
			job:     &domain.Job{Reqs: domain.Requirements{ChineseRequirement: "fluent"}},
			get:     func(b domain.Breakdown) float64 { return b.Language },
			want:    100.0 / 3,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := c.get(matching.Score(c.teacher, c.job).Breakdown)
			if math.Abs(got-c.want) > 0.01 {
				t.Errorf("sub-score = %.2f, want %.2f", got, c.want)
			}
		})
	}
}

func TestScore_MoreCriteriaScoresHigher(t *testing.T) {
	job := &domain.Job{City: "Shanghai", Reqs: domain.Requirements{Subjects: []string{"English"}, AgeGroups: []string{"Primary"}}}
	weaker := &domain.TeacherProfile{PreferredLocation: []string{"Shanghai"}, SubjectSpecialty: []string{"Math"}, PreferredAgeGroup: []string{"Adult"}}
	stronger := &domain.TeacherProfile{PreferredLocation: []string{"Shanghai"}, SubjectSpecialty: []string{"English"}, PreferredAgeGroup: []string{"Adult"}}
	strongest := &domain.TeacherProfile{PreferredLocation: []string{"Shanghai"}, SubjectSpecialty: []string{"English"}, PreferredAgeGroup: []string{"Primary"}}

	a, b, c := matching.Score(weaker, job).Score, matching.Score(stronger, job).Score, matching.Score(strongest, job).Score
	if !(a < b && b < c) {
		t.Errorf("scores %d, %d, %d should strictly increase", a, b, c)
	}
}

func TestRank_TieBreaksOnRecency(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	teacher := &domain.TeacherProfile{PreferredLocation: []string{"Shanghai"}}
	older := &domain.Job{ID: "older", City: "Shanghai", CreatedAt: base}
	newer := &domain.Job{ID: "newer", City: "Shanghai", CreatedAt: base.Add(24 * time.Hour)}
	worse := &domain.Job{ID: "worse", City: "Xi'an", CreatedAt: base.Add(48 * time.Hour)}

	cs := matching.ScoreAll(teacher, []domain.Opportunity{older, worse, newer})
	got := []string{cs[0].Opportunity.OpportunityID(), cs[1].Opportunity.OpportunityID(), cs[2].Opportunity.OpportunityID()}
	want := []string{"newer", "older", "worse"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rank order = %v, want %v", got, want)
		}
	}
}
