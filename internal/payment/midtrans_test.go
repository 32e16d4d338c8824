package payment

import "testing"

func TestMapStatus(t *testing.T) {
	cases := []struct {
		transaction, fraud, want string
	}{
		{"settlement", "", StatusPaid},
		{"capture", "accept", StatusPaid},
		{"capture", "challenge", StatusPending},
		{"capture", "deny", StatusFailed},
		{"pending", "", StatusPending},
		{"deny", "", StatusFailed},
		{"cancel", "", StatusCanceled},
		{"expire", "", StatusExpired},
		{"refund", "", StatusRefunded},
		{"something_new", "", StatusPending},
	}
	for _, c := range cases {
		if got := mapStatus(c.transaction, c.fraud); got != c.want {
			t.Errorf("mapStatus(%q, %q) = %s, want %s", c.transaction, c.fraud, got, c.want)
		}
	}
}
