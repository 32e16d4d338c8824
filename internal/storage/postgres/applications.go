package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"educonnect/placement-service/internal/domain"
	"educonnect/placement-service/internal/lifecycle"
)

// ApplicationRepo stores teacher applications.
type ApplicationRepo struct{ base }

// NewApplicationRepo returns an ApplicationRepo on pool.
func NewApplicationRepo(pool *pgxpool.Pool) *ApplicationRepo {
	return &ApplicationRepo{base{pool: pool}}
}

var _ lifecycle.Repository = (*ApplicationRepo)(nil)

const applicationCols = `a.id, a.teacher_id, a.opportunity_type, a.opportunity_id, a.status,
	a.notes, a.history_log, a.expiry_date, a.submitted_at, a.updated_at`

func scanApplication(row pgx.Row) (*lifecycle.Application, error) {
	var (
		a      lifecycle.Application
		kind   string
		status string
	)
	err := row.Scan(
		&a.ID, &a.TeacherID, &kind, &a.Opportunity.ID, &status,
		&a.Notes, &a.History, &a.ExpiryDate, &a.SubmittedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Opportunity.Kind = domain.OpportunityKind(kind)
	a.Status = lifecycle.Status(status)
	return &a, nil
}

func (r *ApplicationRepo) Insert(ctx context.Context, app *lifecycle.Application) error {
	history, err := json.Marshal(app.History)
	if err != nil {
		return fmt.Errorf("insertApplication marshal history: %w", err)
	}

	err = r.pool.QueryRow(ctx, `
		INSERT INTO applications (
			teacher_id, opportunity_type, opportunity_id, status, notes,
			history_log, expiry_date, submitted_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8, $9)
		RETURNING id`,
		app.TeacherID, string(app.Opportunity.Kind), app.Opportunity.ID, string(app.Status), app.Notes,
		string(history), app.ExpiryDate, app.SubmittedAt, app.UpdatedAt,
	).Scan(&app.ID)
	switch {
	case err == nil:
		return nil
	case uniqueViolation(err, "applications_active_key"):
		return domain.ErrAlreadyApplied
	case foreignKeyViolation(err):
		return domain.ErrNotFound
	}
	return fmt.Errorf("insertApplication: %w", err)
}

func (r *ApplicationRepo) Get(ctx context.Context, id string) (*lifecycle.Application, error) {
	a, err := scanApplication(r.pool.QueryRow(ctx,
		`SELECT `+applicationCols+` FROM applications a WHERE a.id = $1`, id))
	return a, notFound(err, "getApplication")
}

func (r *ApplicationRepo) List(ctx context.Context, f lifecycle.Filter, p domain.Page) ([]lifecycle.Application, int, error) {
	var w where
	if f.TeacherID != "" {
		w.add("a.teacher_id = ?", f.TeacherID)
	}
	if f.Status != "" {
		w.add("a.status = ?", string(f.Status))
	}
	if f.OpportunityID != "" {
		w.add("a.opportunity_id = ?", f.OpportunityID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM applications a`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("listApplications count: %w", err)
	}

	limit, args := w.page(p)
	rows, err := r.pool.Query(ctx,
		`SELECT `+applicationCols+` FROM applications a`+w.String()+` ORDER BY a.updated_at DESC, a.id`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listApplications query: %w", err)
	}
	defer rows.Close()

	apps := make([]lifecycle.Application, 0)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("listApplications scan: %w", err)
		}
		apps = append(apps, *a)
	}
	return apps, total, rows.Err()
}

// UpdateStatus is a compare-and-set on status: the row changes only while it
// still holds from. A non-nil entry is appended to history_log.
func (r *ApplicationRepo) UpdateStatus(ctx context.Context, id string, from lifecycle.Status, u lifecycle.StatusUpdate, entry *lifecycle.HistoryEntry, at time.Time) (*lifecycle.Application, error) {
	appended := "[]"
	if entry != nil {
		b, err := json.Marshal([]*lifecycle.HistoryEntry{entry})
		if err != nil {
			return nil, fmt.Errorf("updateApplication marshal history: %w", err)
		}
		appended = string(b)
	}
	setNotes, notes := u.Notes != nil, ""
	if setNotes {
		notes = *u.Notes
	}

	a, err := scanApplication(r.pool.QueryRow(ctx, `
		UPDATE applications a SET
			status      = $3,
			notes       = CASE WHEN $4::boolean THEN NULLIF($5::text, '') ELSE a.notes END,
			history_log = a.history_log || $6::jsonb,
			updated_at  = $7
		WHERE a.id = $1 AND a.status = $2
		RETURNING `+applicationCols,
		id, string(from), string(u.Status), setNotes, notes, appended, at,
	))
	return a, notFound(err, "updateApplication")
}
