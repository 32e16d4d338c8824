// Package matching scores teachers against opportunities and runs the
// on-demand matching jobs that persist ranked results.
//
// Weights:
//
//	Location 35 · Subject 25 · Age group 20 · Experience 15 · Chinese 5
//
// Each criterion yields a 0-100 sub-score; the total is the weighted sum.
// Missing data on either side scores neutralScore instead of zero.
package matching

import (
	"fmt"
	"math"
	"strings"

	"educonnect/placement-service/internal/domain"
)

const (
	WeightLocation   = 0.35
	WeightSubject    = 0.25
	WeightAgeGroup   = 0.20
	WeightExperience = 0.15
	WeightLanguage   = 0.05

	neutralScore       = 50.0
	provinceScore      = 70.0
	openLocationScore  = 80.0
	reasonMinSubScore  = 70.0
	maxReasonListItems = 3
)

// openLocations are preference values meaning "anywhere in China".
var openLocations = map[string]bool{
	"any":      true,
	"anywhere": true,
	"flexible": true,
	"open":     true,
	"all":      true,
}

// Result is the outcome of scoring one teacher against one opportunity.
type Result struct {
	Score     int              `json:"match_score"`
	Total     float64          `json:"total"`
	Breakdown domain.Breakdown `json:"breakdown"`
	Reasons   []string         `json:"match_reasons"`
}

// Score computes the match between t and o. It is pure and deterministic.
func Score(t *domain.TeacherProfile, o domain.Opportunity) Result {
	reqs := o.Requirements()
	loc := o.Location()

	var r Result
	var reasons []string

	r.Breakdown.Location, reasons = scoreLocation(t.PreferredLocation, loc, reasons)
	r.Breakdown.Subject, reasons = scoreOverlap("Subject match", t.SubjectSpecialty, reqs.Subjects, reasons)
	r.Breakdown.AgeGroup, reasons = scoreOverlap("Age group match", t.PreferredAgeGroup, reqs.AgeGroups, reasons)
	r.Breakdown.Experience, reasons = scoreExperience(t.YearsExperience, reqs.MinExperience, reasons)
	r.Breakdown.Language, reasons = scoreLanguage(t.ChineseLevel, reqs.ChineseRequirement, reasons)

	r.Total = Total(r.Breakdown)
	r.Score = int(math.Round(r.Total))
	if reasons == nil {
		reasons = []string{}
	}
	r.Reasons = reasons
	return r
}

// Total returns the weighted sum of b, clamped to 0-100.
func Total(b domain.Breakdown) float64 {
	total := b.Location*WeightLocation +
		b.Subject*WeightSubject +
		b.AgeGroup*WeightAgeGroup +
		b.Experience*WeightExperience +
		b.Language*WeightLanguage
	return clamp(total)
}

func scoreLocation(prefs []string, loc domain.Location, reasons []string) (float64, []string) {
	prefs = normalizeAll(prefs)
	city := normalize(loc.City)
	province := normalize(loc.Province)

	if len(prefs) == 0 || (city == "" && province == "") {
		return neutralScore, reasons
	}

	for _, p := range prefs {
		if city != "" && p == city {
			return 100, append(reasons, "Location match: "+loc.City)
		}
	}
	for _, p := range prefs {
		if province != "" && p == province {
			return provinceScore, append(reasons, "Province match: "+loc.Province)
		}
	}
	for _, p := range prefs {
		if openLocations[p] {
			return openLocationScore, append(reasons, "Open to any location")
		}
	}
	return 0, reasons
}

// scoreOverlap scores the share of required values the teacher covers.
func scoreOverlap(label string, have, want []string, reasons []string) (float64, []string) {
	have = normalizeAll(have)
	if len(have) == 0 || len(want) == 0 {
		return neutralScore, reasons
	}

	haveSet := make(map[string]bool, len(have))
	for _, h := range have {
		haveSet[h] = true
	}

	var matched []string
	required := 0
	seen := make(map[string]bool, len(want))
	for _, w := range want {
		n := normalize(w)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		required++
		if haveSet[n] {
			matched = append(matched, strings.TrimSpace(w))
		}
	}
	if required == 0 {
		return neutralScore, reasons
	}

	score := clamp(float64(len(matched)) / float64(required) * 100)
	if len(matched) > 0 {
		reasons = append(reasons, label+": "+joinLimited(matched))
	}
	return score, reasons
}

func scoreExperience(years, required *int, reasons []string) (float64, []string) {
	if required != nil && *required <= 0 {
		if years != nil {
			return 100, append(reasons, fmt.Sprintf("Experience: %d years", *years))
		}
		return 100, reasons
	}
	if years == nil || required == nil {
		return neutralScore, reasons
	}

	y, req := *years, *required
	if y < 0 {
		y = 0
	}
	if y >= req {
		return 100, append(reasons, fmt.Sprintf("Experience: %d years (%d required)", y, req))
	}
	score := clamp(float64(y) / float64(req) * 100)
	if score >= reasonMinSubScore {
		reasons = append(reasons, fmt.Sprintf("Experience: %d of %d years required", y, req))
	}
	return score, reasons
}

func scoreLanguage(level, requirement string, reasons []string) (float64, []string) {
	need := domain.ChineseRank(requirement)
	if need == 0 {
		return 100, append(reasons, "No Chinese required")
	}
	have := domain.ChineseRank(level)
	if need < 0 || have < 0 {
		return neutralScore, reasons
	}
	if have >= need {
		return 100, append(reasons, "Chinese level: "+strings.ToLower(strings.TrimSpace(level)))
	}
	return clamp(float64(have) / float64(need) * 100), reasons
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func normalizeAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if n := normalize(s); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func joinLimited(items []string) string {
	if len(items) <= maxReasonListItems {
		return strings.Join(items, ", ")
	}
	return fmt.Sprintf("%s +%d more", strings.Join(items[:maxReasonListItems], ", "), len(items)-maxReasonListItems)
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
