package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"educonnect/placement-service/internal/domain"
	"educonnect/placement-service/internal/selection"
)

// SelectionRepo stores interview selections.
type SelectionRepo struct{ base }

// NewSelectionRepo returns a SelectionRepo on pool.
func NewSelectionRepo(pool *pgxpool.Pool) *SelectionRepo {
	return &SelectionRepo{base{pool: pool}}
}

var _ selection.Repository = (*SelectionRepo)(nil)

const selectionCols = `i.id, i.school_id, i.teacher_id, i.job_id, i.status, i.notes,
	i.selected_at, i.status_updated_at`

func selectionDest(s *selection.Selection, status *string) []any {
	return []any{&s.ID, &s.SchoolID, &s.TeacherID, &s.JobID, status, &s.Notes, &s.SelectedAt, &s.StatusUpdatedAt}
}

func scanSelection(row pgx.Row) (*selection.Selection, error) {
	var (
		s      selection.Selection
		status string
	)
	if err := row.Scan(selectionDest(&s, &status)...); err != nil {
		return nil, err
	}
	s.Status = selection.Status(status)
	return &s, nil
}

func (r *SelectionRepo) Insert(ctx context.Context, sel *selection.Selection) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO interview_selections (school_id, teacher_id, job_id, status, notes, selected_at, status_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (teacher_id, job_id) DO NOTHING
		RETURNING id`,
		sel.SchoolID, sel.TeacherID, sel.JobID, string(sel.Status), sel.Notes, sel.SelectedAt, sel.StatusUpdatedAt,
	).Scan(&sel.ID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return domain.ErrAlreadySelected
	case foreignKeyViolation(err):
		return domain.ErrNotFound
	}
	return fmt.Errorf("insertSelection: %w", err)
}

func (r *SelectionRepo) Get(ctx context.Context, id string) (*selection.Selection, error) {
	s, err := scanSelection(r.pool.QueryRow(ctx,
		`SELECT `+selectionCols+` FROM interview_selections i WHERE i.id = $1`, id))
	return s, notFound(err, "getSelection")
}

func (r *SelectionRepo) List(ctx context.Context, schoolID, jobID string) ([]selection.Item, error) {
	var w where
	if schoolID != "" {
		w.add("i.school_id = ?", schoolID)
	}
	if jobID != "" {
		w.add("i.job_id = ?", jobID)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+selectionCols+`, `+teacherCols+`, j.title
		FROM interview_selections i
		JOIN teacher_profiles t ON t.id = i.teacher_id
		JOIN jobs j ON j.id = i.job_id`+w.String()+`
		ORDER BY i.selected_at DESC, i.id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("listSelections query: %w", err)
	}
	defer rows.Close()

	items := make([]selection.Item, 0)
	for rows.Next() {
		var (
			it     selection.Item
			status string
			t      domain.TeacherProfile
		)
		dest := append(selectionDest(&it.Selection, &status), teacherDest(&t)...)
		if err := rows.Scan(append(dest, &it.JobTitle)...); err != nil {
			return nil, fmt.Errorf("listSelections scan: %w", err)
		}
		it.Selection.Status = selection.Status(status)
		it.Teacher = &t
		items = append(items, it)
	}
	return items, rows.Err()
}

// UpdateStatus changes the row only while its status is still from. A nil
// notes keeps the stored note; a pointer to "" clears it.
func (r *SelectionRepo) UpdateStatus(ctx context.Context, id string, from, to selection.Status, notes *string, at time.Time) (*selection.Selection, error) {
	setNotes, note := notes != nil, ""
	if setNotes {
		note = *notes
	}
	s, err := scanSelection(r.pool.QueryRow(ctx, `
		UPDATE interview_selections i SET
			status            = $3,
			notes             = CASE WHEN $4::boolean THEN NULLIF($5::text, '') ELSE i.notes END,
			status_updated_at = CASE WHEN i.status <> $3 THEN $6 ELSE i.status_updated_at END
		WHERE i.id = $1 AND i.status = $2
		RETURNING `+selectionCols,
		id, string(from), string(to), setNotes, note, at,
	))
	return s, notFound(err, "updateSelection")
}

func (r *SelectionRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM interview_selections WHERE id = $1`, id)
	if err != nil {
		return notFound(err, "deleteSelection")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
