package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"educonnect/placement-service/internal/domain"
	"educonnect/placement-service/internal/payment"
)

// PaymentRepo stores checkout attempts and applies settled plans.
type PaymentRepo struct{ base }

// NewPaymentRepo returns a PaymentRepo on pool.
func NewPaymentRepo(pool *pgxpool.Pool) *PaymentRepo {
	return &PaymentRepo{base{pool: pool}}
}

var _ payment.Repository = (*PaymentRepo)(nil)

const paymentCols = `p.id, p.user_id, p.role, p.plan, p.currency, p.amount, p.amount_idr,
	p.status, p.token, p.redirect_url, p.created_at, p.paid_at`

func scanPayment(row pgx.Row) (*payment.Payment, error) {
	var (
		p    payment.Payment
		role string
	)
	err := row.Scan(
		&p.ID, &p.UserID, &role, &p.Plan, &p.Currency, &p.Amount, &p.AmountIDR,
		&p.Status, &p.Token, &p.RedirectURL, &p.CreatedAt, &p.PaidAt,
	)
	if err != nil {
		return nil, err
	}
	p.Role = domain.Role(role)
	return &p, nil
}

func (r *PaymentRepo) Insert(ctx context.Context, p *payment.Payment) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO payments (id, user_id, role, plan, currency, amount, amount_idr, status, token, redirect_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.UserID, string(p.Role), p.Plan, p.Currency, p.Amount, p.AmountIDR,
		p.Status, p.Token, p.RedirectURL, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insertPayment: %w", err)
	}
	return nil
}

func (r *PaymentRepo) Get(ctx context.Context, id string) (*payment.Payment, error) {
	p, err := scanPayment(r.pool.QueryRow(ctx, `SELECT `+paymentCols+` FROM payments p WHERE p.id = $1`, id))
	return p, notFound(err, "getPayment")
}

// SetStatus records a non-paid gateway status. A paid payment never moves.
func (r *PaymentRepo) SetStatus(ctx context.Context, id, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE payments SET status = $2 WHERE id = $1 AND status <> 'paid'`, id, status)
	if err != nil {
		return notFound(err, "setPaymentStatus")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkPaid flips the payment to paid and grants the plan in one
// transaction. The account row is created when the buyer has not filled in
// a profile yet.
func (r *PaymentRepo) MarkPaid(ctx context.Context, id string, g payment.Grant, at time.Time) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("markPaid begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `UPDATE payments SET status = 'paid', paid_at = $2 WHERE id = $1 AND status <> 'paid'`, id, at)
	if err != nil {
		return false, fmt.Errorf("markPaid payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	switch g.Role {
	case domain.RoleTeacher:
		_, err = tx.Exec(ctx, `
			INSERT INTO teacher_profiles (user_id, has_paid) VALUES ($1, true)
			ON CONFLICT (user_id) DO UPDATE SET has_paid = true, updated_at = now()`, g.UserID)
	case domain.RoleSchool:
		_, err = tx.Exec(ctx, `
			INSERT INTO schools (user_id, name, has_paid, payment_date, max_jobs) VALUES ($1, '', true, $2, $3)
			ON CONFLICT (user_id) DO UPDATE SET
				has_paid     = true,
				payment_date = EXCLUDED.payment_date,
				max_jobs     = GREATEST(schools.max_jobs, EXCLUDED.max_jobs),
				updated_at   = now()`, g.UserID, at, g.MaxJobs)
	default:
		err = fmt.Errorf("no plan grant for role %q", g.Role)
	}
	if err != nil {
		return false, fmt.Errorf("markPaid grant: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("markPaid commit: %w", err)
	}
	return true, nil
}
