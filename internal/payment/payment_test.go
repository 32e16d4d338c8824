package payment_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"educonnect/placement-service/internal/domain"
	"educonnect/placement-service/internal/events"
	"educonnect/placement-service/internal/logging"
	"educonnect/placement-service/internal/payment"
)

func TestDetectCurrency(t *testing.T) {
	cases := map[string]string{
		"CN": "CNY", "hk": "HKD", "GB": "GBP", "DE": "EUR", "FR": "EUR", "IE": "EUR",
		"ID": "IDR", "AU": "AUD", "CA": "CAD", "US": "USD", "BR": "USD", "": "USD", " au ": "AUD",
	}
	for country, want := range cases {
		if got := payment.DetectCurrency(country); got != want {
			t.Errorf("DetectCurrency(%q) = %s, want %s", country, got, want)
		}
	}
}

func TestQuotesFor(t *testing.T) {
	teacher := payment.QuotesFor(domain.RoleTeacher, "GBP")
	if len(teacher) != 1 || teacher[0].Plan != payment.PlanTeacherFullAccess || teacher[0].Currency != "GBP" {
		t.Errorf("teacher quotes = %+v", teacher)
	}
	school := payment.QuotesFor(domain.RoleSchool, "JPY")
	if len(school) != 2 {
		t.Fatalf("school quotes = %+v, want 2 plans", school)
	}
	for _, q := range school {
		if q.Currency != "USD" || q.MaxJobs == 0 {
			t.Errorf("school quote %+v should fall back to USD and carry a quota", q)
		}
	}
}

// ── fakes ──────────────────────────────────────────────────────────────────

type fakeGateway struct {
	status  string
	created []payment.Checkout
	checked int
}

func (g *fakeGateway) CreateCheckout(_ context.Context, c payment.Checkout) (string, string, error) {
	g.created = append(g.created, c)
	return "tok-" + c.OrderID, "https://app.sandbox.midtrans.com/snap/v2/vtweb/tok-" + c.OrderID, nil
}

func (g *fakeGateway) Status(context.Context, string) (string, error) {
	g.checked++
	return g.status, nil
}

type memRepo struct {
	payments map[string]*payment.Payment
	grants   []payment.Grant
}

func (m *memRepo) Insert(_ context.Context, p *payment.Payment) error {
	cp := *p
	m.payments[p.ID] = &cp
	return nil
}

func (m *memRepo) Get(_ context.Context, id string) (*payment.Payment, error) {
	p, ok := m.payments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memRepo) SetStatus(_ context.Context, id, status string) error {
	m.payments[id].Status = status
	return nil
}

func (m *memRepo) MarkPaid(_ context.Context, id string, g payment.Grant, at time.Time) (bool, error) {
	p := m.payments[id]
	if p.Status == payment.StatusPaid {
		return false, nil
	}
	p.Status = payment.StatusPaid
	p.PaidAt = &at
	m.grants = append(m.grants, g)
	return true, nil
}

var school = domain.Actor{UserID: "user-school", Email: "hr@school.cn", Role: domain.RoleSchool}

func newService(status string) (*payment.Service, *fakeGateway, *memRepo) {
	gw := &fakeGateway{status: status}
	repo := &memRepo{payments: map[string]*payment.Payment{}}
	return payment.NewService(repo, gw, events.Nop{}, logging.Nop()), gw, repo
}

func TestCreateCheckoutSession(t *testing.T) {
	svc, gw, repo := newService(payment.StatusPending)

	sess, err := svc.CreateCheckoutSession(context.Background(), school, payment.PlanSchoolStarter, "CNY")
	if err != nil {
		t.Fatalf("CreateCheckoutSession() unexpected error: %v", err)
	}
	if sess.SessionID == "" || sess.Token == "" || sess.CheckoutURL == "" {
		t.Errorf("session = %+v, want id, token and url", sess)
	}
	if sess.Currency != "CNY" || sess.Amount != payment.Plans[payment.PlanSchoolStarter].Prices["CNY"] {
		t.Errorf("quote = %+v, want CNY price", sess.Quote)
	}
	if len(gw.created) != 1 || gw.created[0].AmountIDR != payment.Plans[payment.PlanSchoolStarter].AmountIDR {
		t.Errorf("gateway checkout = %+v", gw.created)
	}
	if p := repo.payments[sess.SessionID]; p == nil || p.Status != payment.StatusPending {
		t.Errorf("stored payment = %+v, want pending", p)
	}
}

func TestCreateCheckoutSession_RejectsWrongPlan(t *testing.T) {
	svc, _, _ := newService(payment.StatusPending)
	ctx := context.Background()

	if _, err := svc.CreateCheckoutSession(ctx, school, payment.PlanTeacherFullAccess, "USD"); err == nil {
		t.Error("school buying the teacher plan should fail")
	}
	if _, err := svc.CreateCheckoutSession(ctx, school, "platinum", "USD"); err == nil {
		t.Error("unknown plan should fail")
	}
}

func TestVerifySession_GrantsOnce(t *testing.T) {
	svc, gw, repo := newService(payment.StatusPaid)
	ctx := context.Background()
	sess, _ := svc.CreateCheckoutSession(ctx, school, payment.PlanSchoolGrowth, "USD")

	for i := 0; i < 2; i++ {
		v, err := svc.VerifySession(ctx, school, sess.SessionID)
		if err != nil {
			t.Fatalf("VerifySession() #%d unexpected error: %v", i+1, err)
		}
		if !v.HasPaid || v.Status != payment.StatusPaid {
			t.Errorf("VerifySession() #%d = %+v, want paid", i+1, v)
		}
	}
	if len(repo.grants) != 1 || repo.grants[0].MaxJobs != 20 || repo.grants[0].Role != domain.RoleSchool {
		t.Errorf("grants = %+v, want one school grant with 20 jobs", repo.grants)
	}
	if gw.checked != 1 {
		t.Errorf("gateway checked %d times, want 1", gw.checked)
	}
}

func TestVerifySession_PendingAndOwnership(t *testing.T) {
	svc, _, repo := newService(payment.StatusPending)
	ctx := context.Background()
	sess, _ := svc.CreateCheckoutSession(ctx, school, payment.PlanSchoolStarter, "")

	v, err := svc.VerifySession(ctx, school, sess.SessionID)
	if err != nil {
		t.Fatalf("VerifySession(): %v", err)
	}
	if v.HasPaid || len(repo.grants) != 0 {
		t.Errorf("pending payment granted access: %+v", v)
	}

	stranger := domain.Actor{UserID: "someone-else", Role: domain.RoleSchool}
	if _, err := svc.VerifySession(ctx, stranger, sess.SessionID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("VerifySession() by stranger error = %v, want ErrNotFound", err)
	}
}

func TestVerifySession_FailureRecorded(t *testing.T) {
	svc, _, repo := newService(payment.StatusExpired)
	ctx := context.Background()
	sess, _ := svc.CreateCheckoutSession(ctx, school, payment.PlanSchoolStarter, "USD")

	if _, err := svc.VerifySession(ctx, school, sess.SessionID); err != nil {
		t.Fatalf("VerifySession(): %v", err)
	}
	if got := repo.payments[sess.SessionID].Status; got != payment.StatusExpired {
		t.Errorf("stored status = %s, want expired", got)
	}
}
