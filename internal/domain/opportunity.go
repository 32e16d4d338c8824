// Package domain defines the shared data model of the placement service:
// teachers, the two opportunity variants (School and Job), school accounts,
// matches and the error vocabulary used across packages.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// OpportunityKind discriminates the two opportunity variants on the wire.
type OpportunityKind string

const (
	KindSchool OpportunityKind = "school"
	KindJob    OpportunityKind = "job"
)

// ParseOpportunityKind converts a raw string to an OpportunityKind.
func ParseOpportunityKind(s string) (OpportunityKind, error) {
	switch k := OpportunityKind(s); k {
	case KindSchool, KindJob:
		return k, nil
	}
	return "", fmt.Errorf("unknown opportunity type %q", s)
}

// Location is a city/province pair inside China.
type Location struct {
	City     string `json:"city,omitempty"`
	Province string `json:"province,omitempty"`
}

// String renders "City, Province" skipping empty parts.
func (l Location) String() string {
	parts := make([]string, 0, 2)
	if l.City != "" {
		parts = append(parts, l.City)
	}
	if l.Province != "" && !strings.EqualFold(l.Province, l.City) {
		parts = append(parts, l.Province)
	}
	return strings.Join(parts, ", ")
}

// Chinese language levels, ordered from weakest to strongest.
const (
	ChineseNone           = "none"
	ChineseBasic          = "basic"
	ChineseConversational = "conversational"
	ChineseFluent         = "fluent"
)

// ChineseRank returns the ordinal of a Chinese level, or -1 when unknown.
func ChineseRank(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case ChineseNone:
		return 0
	case ChineseBasic:
		return 1
	case ChineseConversational:
		return 2
	case ChineseFluent:
		return 3
	}
	return -1
}

// Requirements are the structured criteria an opportunity scores against.
// Empty slices, a nil MinExperience and an empty ChineseRequirement mean
// "not specified".
type Requirements struct {
	Subjects           []string `json:"subjects,omitempty"`
	AgeGroups          []string `json:"age_groups,omitempty"`
	MinExperience      *int     `json:"min_experience,omitempty"`
	ChineseRequirement string   `json:"chinese_requirement,omitempty"`
}

// Opportunity is what a teacher can be matched against: a School seat or a
// Job posting.
type Opportunity interface {
	OpportunityID() string
	Kind() OpportunityKind
	DisplayName() string
	Location() Location
	SalaryDisplay() string
	Requirements() Requirements
	PostedAt() time.Time
}

// OpportunityRef identifies an opportunity without carrying its data.
type OpportunityRef struct {
	Kind OpportunityKind `json:"type"`
	ID   string          `json:"id"`
}

// RefOf returns the reference of o.
func RefOf(o Opportunity) OpportunityRef {
	return OpportunityRef{Kind: o.Kind(), ID: o.OpportunityID()}
}
