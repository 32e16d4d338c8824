package ingest_test

import (
	"testing"

	"educonnect/placement-service/internal/ingest"
)

func TestContainsRedFlag(t *testing.T) {
	p := ingest.Posting{
		Title:       "ESL Teacher - Volunteer Program",
		Company:     "Bright Future Agency",
		Description: "Teach kindergarten classes in Hangzhou.",
	}
	cases := []struct {
		flags []string
		want  bool
	}{
		{nil, false},
		{[]string{""}, false},
		{[]string{"volunteer"}, true},
		{[]string{"VOLUNTEER"}, true},
		{[]string{"unpaid", "agency"}, true},
		{[]string{"hangzhou"}, true},
		{[]string{"commission only"}, false},
	}
	for _, c := range cases {
		if got := ingest.ContainsRedFlag(p, c.flags); got != c.want {
			t.Errorf("ContainsRedFlag(%q) = %v, want %v", c.flags, got, c.want)
		}
	}
}
