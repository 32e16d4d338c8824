package selection_test

import (
	"testing"

	"educonnect/placement-service/internal/selection"
)

var allStatuses = []selection.Status{
	selection.StatusSelected,
	selection.StatusInterviewScheduled,
	selection.StatusInterviewCompleted,
	selection.StatusOfferExtended,
	selection.StatusOfferAccepted,
	selection.StatusOfferDeclined,
	selection.StatusWithdrawn,
}

func TestParseStatus(t *testing.T) {
	for _, s := range allStatuses {
		if got, err := selection.ParseStatus(string(s)); err != nil || got != s {
			t.Errorf("ParseStatus(%q) = %q, %v", s, got, err)
		}
	}
	for _, s := range []string{"", "placed", "declined", "submitted", "Withdrawn"} {
		if _, err := selection.ParseStatus(s); err == nil {
			t.Errorf("ParseStatus(%q) expected error, got nil", s)
		}
	}
}

func TestIsTransitionAllowed(t *testing.T) {
	cases := []struct {
		from selection.Status
		to   selection.Status
		want bool
	}{
		{selection.StatusSelected, selection.StatusInterviewScheduled, true},
		{selection.StatusSelected, selection.StatusOfferExtended, true},
		{selection.StatusInterviewScheduled, selection.StatusInterviewCompleted, true},
		{selection.StatusOfferExtended, selection.StatusOfferAccepted, true},
		{selection.StatusSelected, selection.StatusWithdrawn, true},
		{selection.StatusOfferExtended, selection.StatusOfferDeclined, true},
		{selection.StatusInterviewCompleted, selection.StatusInterviewScheduled, false},
		{selection.StatusOfferExtended, selection.StatusSelected, false},
		{selection.StatusInterviewScheduled, selection.StatusInterviewScheduled, false},
		{selection.StatusOfferAccepted, selection.StatusWithdrawn, false},
		{selection.StatusWithdrawn, selection.StatusSelected, false},
		{selection.StatusOfferDeclined, selection.StatusOfferAccepted, false},
	}
	for _, c := range cases {
		if got := selection.IsTransitionAllowed(c.from, c.to); got != c.want {
			t.Errorf("IsTransitionAllowed(%s → %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestNext(t *testing.T) {
	if got := selection.Next(selection.StatusOfferExtended); len(got) != 3 {
		t.Errorf("Next(offer_extended) = %v, want accepted, declined, withdrawn", got)
	}
	for _, s := range []selection.Status{selection.StatusOfferAccepted, selection.StatusOfferDeclined, selection.StatusWithdrawn} {
		if got := selection.Next(s); len(got) != 0 {
			t.Errorf("Next(%s) = %v, want none", s, got)
		}
	}
	for _, s := range selection.Next(selection.StatusSelected) {
		if s == selection.StatusSelected {
			t.Error("Next(selected_for_interview) must not offer the current status")
		}
	}
}
