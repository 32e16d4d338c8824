package payment

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
)

// Midtrans is a Gateway backed by Midtrans Snap (hosted checkout) and the
// Core API (status checks).
type Midtrans struct {
	snap snap.Client
	core coreapi.Client
}

// NewMidtrans returns a Midtrans gateway for serverKey. production selects
// the live environment instead of the sandbox.
func NewMidtrans(serverKey string, production bool) *Midtrans {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	m := &Midtrans{}
	m.snap.New(serverKey, env)
	m.core.New(serverKey, env)
	return m
}

// CreateCheckout opens a Snap transaction.
func (m *Midtrans) CreateCheckout(_ context.Context, c Checkout) (string, string, error) {
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  c.OrderID,
			GrossAmt: c.AmountIDR,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			Email: c.Email,
		},
		Items: &[]midtrans.ItemDetails{{
			ID:    c.ItemID,
			Name:  truncate(c.ItemName, 50),
			Price: c.AmountIDR,
			Qty:   1,
		}},
		CreditCard: &snap.CreditCardDetails{Secure: true},
	}
	resp, merr := m.snap.CreateTransaction(req)
	if merr != nil {
		return "", "", fmt.Errorf("midtrans snap: %w", merr)
	}
	return resp.Token, resp.RedirectURL, nil
}

// Status maps the Core API transaction status onto payment statuses. An
// order the customer has not yet opened is reported by Midtrans as 404 and
// is still pending.
func (m *Midtrans) Status(_ context.Context, orderID string) (string, error) {
	resp, merr := m.core.CheckTransaction(orderID)
	if merr != nil {
		if merr.StatusCode == http.StatusNotFound {
			return StatusPending, nil
		}
		return "", fmt.Errorf("midtrans status: %w", merr)
	}
	return mapStatus(resp.TransactionStatus, resp.FraudStatus), nil
}

func mapStatus(transaction, fraud string) string {
	switch strings.ToLower(transaction) {
	case "settlement":
		return StatusPaid
	case "capture":
		switch strings.ToLower(fraud) {
		case "accept", "":
			return StatusPaid
		case "challenge":
			return StatusPending
		}
		return StatusFailed
	case "pending", "authorize":
		return StatusPending
	case "deny", "failure":
		return StatusFailed
	case "cancel":
		return StatusCanceled
	case "expire":
		return StatusExpired
	case "refund", "partial_refund":
		return StatusRefunded
	}
	return StatusPending
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
