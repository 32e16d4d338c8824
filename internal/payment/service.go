// Package payment sells full-access plans through a hosted checkout and
// flips the account's has_paid flag once the gateway confirms settlement.
package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"educonnect/placement-service/internal/domain"
	"educonnect/placement-service/internal/events"
	"educonnect/placement-service/internal/logging"
)

// Payment statuses.
const (
	StatusPending  = "pending"
	StatusPaid     = "paid"
	StatusFailed   = "failed"
	StatusExpired  = "expired"
	StatusCanceled = "canceled"
	StatusRefunded = "refunded"
)

// Payment is one checkout attempt. ID doubles as the gateway order id.
type Payment struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	Role        domain.Role `json:"role"`
	Plan        string      `json:"plan"`
	Currency    string      `json:"currency"`
	Amount      int64       `json:"amount"`
	AmountIDR   int64       `json:"amount_idr"`
	Status      string      `json:"status"`
	Token       string      `json:"-"`
	RedirectURL string      `json:"checkout_url"`
	CreatedAt   time.Time   `json:"created_at"`
	PaidAt      *time.Time  `json:"paid_at,omitempty"`
}

// Grant is the entitlement applied when a payment settles.
type Grant struct {
	UserID  string
	Role    domain.Role
	MaxJobs int
}

// Checkout is what the gateway needs to open a hosted payment page.
type Checkout struct {
	OrderID   string
	AmountIDR int64
	ItemID    string
	ItemName  string
	Email     string
}

// Gateway is the hosted payment provider.
type Gateway interface {
	CreateCheckout(ctx context.Context, c Checkout) (token, redirectURL string, err error)
	// Status returns one of the Status* constants for orderID.
	Status(ctx context.Context, orderID string) (string, error)
}

// Repository stores payments.
type Repository interface {
	Insert(ctx context.Context, p *Payment) error
	Get(ctx context.Context, id string) (*Payment, error)
	SetStatus(ctx context.Context, id, status string) error
	// MarkPaid moves a pending payment to paid and applies g to the owning
	// account in one transaction. It reports false when the payment was
	// already paid.
	MarkPaid(ctx context.Context, id string, g Grant, at time.Time) (bool, error)
}

// Session is returned to the client to open checkout.
type Session struct {
	SessionID   string `json:"session_id"`
	Token       string `json:"token"`
	CheckoutURL string `json:"checkout_url"`
	Quote
}

// Verification is the outcome of checking a session.
type Verification struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	HasPaid   bool   `json:"has_paid"`
	Plan      string `json:"plan"`
}

// Service runs checkouts.
type Service struct {
	repo    Repository
	gateway Gateway
	pub     events.Publisher
	log     *logging.Logger
	clock   func() time.Time
	newID   func() string
}

// NewService returns a configured Service.
func NewService(repo Repository, gateway Gateway, pub events.Publisher, log *logging.Logger) *Service {
	return &Service{
		repo:    repo,
		gateway: gateway,
		pub:     pub,
		log:     log.With("component", "payment"),
		clock:   time.Now,
		newID:   uuid.NewString,
	}
}

// Detection is the currency detected for a caller and the plan prices in it.
type Detection struct {
	Country  string  `json:"country"`
	Currency string  `json:"currency"`
	Plans    []Quote `json:"plans"`
}

// Detect quotes the caller's plans in the currency of country.
func (s *Service) Detect(actor domain.Actor, country string) Detection {
	cur := DetectCurrency(country)
	return Detection{Country: country, Currency: cur, Plans: QuotesFor(actor.Role, cur)}
}

// CreateCheckoutSession records a pending payment and opens a gateway
// checkout for it.
func (s *Service) CreateCheckoutSession(ctx context.Context, actor domain.Actor, planCode, currency string) (*Session, error) {
	plan, ok := Plans[planCode]
	if !ok {
		return nil, domain.Invalid("unknown plan %q", planCode)
	}
	if plan.Role != actor.Role {
		return nil, domain.Invalid("plan %q is not available for %s accounts", planCode, actor.Role)
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	q := quote(plan, currency)

	p := &Payment{
		ID:        s.newID(),
		UserID:    actor.UserID,
		Role:      actor.Role,
		Plan:      plan.Code,
		Currency:  q.Currency,
		Amount:    q.Amount,
		AmountIDR: plan.AmountIDR,
		Status:    StatusPending,
		CreatedAt: s.clock(),
	}

	token, redirect, err := s.gateway.CreateCheckout(ctx, Checkout{
		OrderID:   p.ID,
		AmountIDR: plan.AmountIDR,
		ItemID:    plan.Code,
		ItemName:  plan.Name,
		Email:     actor.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout: %w", err)
	}
	p.Token, p.RedirectURL = token, redirect

	if err := s.repo.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}
	s.log.Info("checkout created", "paymentId", p.ID, "plan", p.Plan, "userId", p.UserID)
	return &Session{SessionID: p.ID, Token: token, CheckoutURL: redirect, Quote: q}, nil
}

// VerifySession asks the gateway for the payment's state and grants the
// plan on settlement. Verifying an already paid session is a no-op.
func (s *Service) VerifySession(ctx context.Context, actor domain.Actor, sessionID string) (*Verification, error) {
	p, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if p.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, domain.ErrNotFound
	}
	v := &Verification{SessionID: p.ID, Plan: p.Plan}
	if p.Status == StatusPaid {
		v.Status, v.HasPaid = StatusPaid, true
		return v, nil
	}

	status, err := s.gateway.Status(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("check payment status: %w", err)
	}
	v.Status = status

	switch status {
	case StatusPaid:
		plan := Plans[p.Plan]
		changed, err := s.repo.MarkPaid(ctx, p.ID, Grant{UserID: p.UserID, Role: p.Role, MaxJobs: plan.MaxJobs}, s.clock())
		if err != nil {
			return nil, fmt.Errorf("mark paid: %w", err)
		}
		v.HasPaid = true
		if changed {
			s.log.Info("payment confirmed", "paymentId", p.ID, "plan", p.Plan, "userId", p.UserID)
			if err := s.pub.Publish(ctx, events.New(events.TypePaymentConfirmed, p.UserID, map[string]string{
				"paymentId": p.ID,
				"userId":    p.UserID,
				"plan":      p.Plan,
			})); err != nil {
				s.log.Warn("publish event failed", "type", events.TypePaymentConfirmed, "err", err)
			}
		}
	case StatusPending:
	default:
		if err := s.repo.SetStatus(ctx, p.ID, status); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("set payment status: %w", err)
		}
	}
	return v, nil
}
