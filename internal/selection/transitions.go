// Package selection tracks schools shortlisting teachers for interview
// against one of their own job postings.
//
//	selected_for_interview ─► interview_scheduled ─► interview_completed ─► offer_extended ─► offer_accepted
//
//	any non-terminal ──► offer_declined | withdrawn
//
// offer_accepted, offer_declined and withdrawn are terminal. This machine is
// separate from the application lifecycle; both can exist for the same
// teacher and job.
package selection

import "fmt"

// Status values are wire literals.
type Status string

const (
	StatusSelected           Status = "selected_for_interview"
	StatusInterviewScheduled Status = "interview_scheduled"
	StatusInterviewCompleted Status = "interview_completed"
	StatusOfferExtended      Status = "offer_extended"
	StatusOfferAccepted      Status = "offer_accepted"
	StatusOfferDeclined      Status = "offer_declined"
	StatusWithdrawn          Status = "withdrawn"
)

var order = map[Status]int{
	StatusSelected:           0,
	StatusInterviewScheduled: 1,
	StatusInterviewCompleted: 2,
	StatusOfferExtended:      3,
	StatusOfferAccepted:      4,
}

// ParseStatus converts a raw string to a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := order[st]; ok || st == StatusOfferDeclined || st == StatusWithdrawn {
		return st, nil
	}
	return "", fmt.Errorf("unknown interview selection status %q", s)
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s Status) bool {
	switch s {
	case StatusOfferAccepted, StatusOfferDeclined, StatusWithdrawn:
		return true
	}
	return false
}

// IsTransitionAllowed reports whether from → to is a real move: forward
// along the progression, or an exit to offer_declined / withdrawn from a
// non-terminal state. from == to is not a transition; callers treat it as a
// no-op.
func IsTransitionAllowed(from, to Status) bool {
	if from == to || IsTerminal(from) {
		return false
	}
	fromRank, ok := order[from]
	if !ok {
		return false
	}
	if to == StatusOfferDeclined || to == StatusWithdrawn {
		return true
	}
	toRank, ok := order[to]
	return ok && toRank > fromRank
}

// Next lists the statuses reachable from s, in menu order.
func Next(s Status) []Status {
	var out []Status
	for _, to := range []Status{
		StatusInterviewScheduled, StatusInterviewCompleted, StatusOfferExtended,
		StatusOfferAccepted, StatusOfferDeclined, StatusWithdrawn,
	} {
		if IsTransitionAllowed(s, to) {
			out = append(out, to)
		}
	}
	return out
}
