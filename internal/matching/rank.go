package matching

import (
	"sort"
	"time"

	"educonnect/placement-service/internal/domain"
)

// Candidate pairs a teacher with an opportunity and its score.
type Candidate struct {
	Teacher     *domain.TeacherProfile
	Opportunity domain.Opportunity
	Result      Result
}

// Rank orders candidates by score, then most recent posting, keeping the
// input order for full ties.
func Rank(cs []Candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Result.Score != cs[j].Result.Score {
			return cs[i].Result.Score > cs[j].Result.Score
		}
		return cs[i].Opportunity.PostedAt().After(cs[j].Opportunity.PostedAt())
	})
}

// ScoreAll scores every opportunity for one teacher and ranks the result.
func ScoreAll(t *domain.TeacherProfile, opps []domain.Opportunity) []Candidate {
	cs := make([]Candidate, 0, len(opps))
	for _, o := range opps {
		cs = append(cs, Candidate{Teacher: t, Opportunity: o, Result: Score(t, o)})
	}
	Rank(cs)
	return cs
}

// ScoreTeachers scores every teacher against one opportunity and ranks them.
func ScoreTeachers(teachers []*domain.TeacherProfile, o domain.Opportunity) []Candidate {
	cs := make([]Candidate, 0, len(teachers))
	for _, t := range teachers {
		cs = append(cs, Candidate{Teacher: t, Opportunity: o, Result: Score(t, o)})
	}
	Rank(cs)
	return cs
}

// ToMatches converts ranked candidates into persisted Match rows.
func ToMatches(cs []Candidate, now time.Time) []domain.Match {
	out := make([]domain.Match, 0, len(cs))
	for _, c := range cs {
		out = append(out, domain.Match{
			TeacherID:   c.Teacher.ID,
			Opportunity: domain.RefOf(c.Opportunity),
			Score:       c.Result.Score,
			Breakdown:   c.Result.Breakdown,
			Reasons:     c.Result.Reasons,
			PostedAt:    c.Opportunity.PostedAt(),
			ComputedAt:  now,
		})
	}
	return out
}
