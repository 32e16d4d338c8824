// Package lifecycle defines the state machine for teacher applications.
//
// Valid status graph (forward jumps allowed, never backwards):
//
//	pending ─► submitted ─► document_verification ─► school_matching ─► interview_scheduled
//	                                                                          │
//	placed ◄── offer_extended ◄── interview_completed ◄───────────────────────┘
//
//	any non-terminal ──► declined
//
// placed and declined are terminal states.
package lifecycle

import "fmt"

// Status values are wire literals; the web client pattern-matches on them.
type Status string

const (
	StatusPending              Status = "pending"
	StatusSubmitted            Status = "submitted"
	StatusDocumentVerification Status = "document_verification"
	StatusSchoolMatching       Status = "school_matching"
	StatusInterviewScheduled   Status = "interview_scheduled"
	StatusInterviewCompleted   Status = "interview_completed"
	StatusOfferExtended        Status = "offer_extended"
	StatusPlaced               Status = "placed"
	StatusDeclined             Status = "declined"
)

// order is the forward progression. declined sits outside it.
var order = map[Status]int{
	StatusPending:              0,
	StatusSubmitted:            1,
	StatusDocumentVerification: 2,
	StatusSchoolMatching:       3,
	StatusInterviewScheduled:   4,
	StatusInterviewCompleted:   5,
	StatusOfferExtended:        6,
	StatusPlaced:               7,
}

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := order[st]; ok || st == StatusDeclined {
		return st, nil
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s Status) bool {
	return s == StatusPlaced || s == StatusDeclined
}

// IsTransitionAllowed returns true when moving from → to is permitted:
// strictly forward along the progression, or to declined from any
// non-terminal state.
func IsTransitionAllowed(from, to Status) bool {
	if IsTerminal(from) {
		return false
	}
	fromRank, ok := order[from]
	if !ok {
		return false
	}
	if to == StatusDeclined {
		return true
	}
	toRank, ok := order[to]
	return ok && toRank > fromRank
}

// IsPlaced returns true when status is placed.
func IsPlaced(s Status) bool { return s == StatusPlaced }

// DisplayStage is the five-step progress bar shown to teachers.
type DisplayStage string

const (
	StageApplied      DisplayStage = "Applied"
	StageVerification DisplayStage = "Verification"
	StageInterview    DisplayStage = "Interview"
	StageOffer        DisplayStage = "Offer"
	StagePlaced       DisplayStage = "Placed"
)

// Stages lists the display stages in order.
var Stages = []DisplayStage{StageApplied, StageVerification, StageInterview, StageOffer, StagePlaced}

// Stage collapses a raw status onto its progress-bar stage. school_matching,
// interview_scheduled and interview_completed all render as Interview.
// declined has no stage and returns "".
func Stage(s Status) DisplayStage {
	switch s {
	case StatusPending, StatusSubmitted:
		return StageApplied
	case StatusDocumentVerification:
		return StageVerification
	case StatusSchoolMatching, StatusInterviewScheduled, StatusInterviewCompleted:
		return StageInterview
	case StatusOfferExtended:
		return StageOffer
	case StatusPlaced:
		return StagePlaced
	}
	return ""
}

// StageIndex returns the 0-based position of s in Stages, or -1 for declined.
func StageIndex(s Status) int {
	st := Stage(s)
	for i, v := range Stages {
		if v == st {
			return i
		}
	}
	return -1
}
