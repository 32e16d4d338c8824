package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"educonnect/placement-service/internal/domain"
	"educonnect/placement-service/internal/jobs"
)

// JobRepo stores job postings.
type JobRepo struct{ base }

// NewJobRepo returns a JobRepo on pool.
func NewJobRepo(pool *pgxpool.Pool) *JobRepo {
	return &JobRepo{base{pool: pool}}
}

var _ jobs.Repository = (*JobRepo)(nil)

func (r *JobRepo) Insert(ctx context.Context, j *domain.Job) error {
	return insertJob(ctx, r.pool, j)
}

func (r *JobRepo) Get(ctx context.Context, id string) (*domain.Job, error) {
	return r.GetJob(ctx, id)
}

func (r *JobRepo) Update(ctx context.Context, j *domain.Job) error {
	return updateJob(ctx, r.pool, j)
}

func (r *JobRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return notFound(err, "deleteJob")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// LockSchool holds the school row with SELECT ... FOR UPDATE for the whole
// of fn; parallel postings for the same school queue behind it.
func (r *JobRepo) LockSchool(ctx context.Context, schoolID string, fn func(context.Context, *domain.SchoolAccount, jobs.QuotaTx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("lockSchool begin: %w", err)
	}
	defer tx.Rollback(ctx)

	school, err := scanSchool(tx.QueryRow(ctx,
		`SELECT `+schoolCols+` FROM schools s WHERE s.id = $1 FOR UPDATE`, schoolID))
	if err != nil {
		return notFound(err, "lockSchool")
	}

	if err := fn(ctx, school, quotaTx{q: tx, schoolID: schoolID}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("lockSchool commit: %w", err)
	}
	return nil
}

func (r *JobRepo) CountActive(ctx context.Context, schoolID string, now time.Time) (int, error) {
	return countActive(ctx, r.pool, schoolID, now)
}

func (r *JobRepo) List(ctx context.Context, f jobs.Filter, p domain.Page) ([]*domain.Job, int, error) {
	var w where
	if f.SchoolID != "" {
		w.add("j.school_id = ?", f.SchoolID)
	}
	if f.Status != "" {
		w.add("j.status = ?", f.Status)
	}
	if f.Source != "" {
		w.add("j.source = ?", f.Source)
	}
	if f.City != "" {
		w.add("(j.city ILIKE ? OR j.province ILIKE ?)", likePattern(f.City), likePattern(f.City))
	}
	if f.Query != "" {
		w.add("(j.title ILIKE ? OR j.company ILIKE ? OR j.description ILIKE ?)",
			likePattern(f.Query), likePattern(f.Query), likePattern(f.Query))
	}
	if f.OpenAt != nil {
		w.add("j.status = 'active' AND (j.expiry_date IS NULL OR j.expiry_date > ?)", *f.OpenAt)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM jobs j`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("listJobs count: %w", err)
	}

	limit, args := w.page(p)
	rows, err := r.pool.Query(ctx,
		`SELECT `+jobCols+` FROM jobs j`+w.String()+` ORDER BY j.created_at DESC, j.id`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listJobs query: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("listJobs scan: %w", err)
		}
		out = append(out, j)
	}
	return out, total, rows.Err()
}

func (r *JobRepo) ExpireBefore(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE jobs SET status = 'expired', updated_at = now()
		WHERE status = 'active' AND expiry_date IS NOT NULL AND expiry_date <= $1
		RETURNING id`, now)
	if err != nil {
		return nil, fmt.Errorf("expireJobs: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("expireJobs scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// InsertExternal stores imported postings, skipping any whose external URL
// is already on file. It returns how many were new.
func (r *JobRepo) InsertExternal(ctx context.Context, js []*domain.Job) (int, error) {
	inserted := 0
	for _, j := range js {
		var id string
		err := r.pool.QueryRow(ctx, `
			INSERT INTO jobs (
				title, company, city, province, external_url, salary_min, salary_max,
				description, subjects, age_groups, status, source, expiry_date, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'active', 'external', $11, $12, $12)
			ON CONFLICT (external_url) WHERE source = 'external' DO NOTHING
			RETURNING id`,
			j.Title, j.Company, j.City, j.Province, j.ExternalURL, j.SalaryMin, j.SalaryMax,
			j.Description, orEmpty(j.Reqs.Subjects), orEmpty(j.Reqs.AgeGroups), j.ExpiryDate, j.CreatedAt,
		).Scan(&id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return inserted, fmt.Errorf("insertExternal: %w", err)
		}
		j.ID = id
		inserted++
	}
	return inserted, nil
}

// ─── Quota transaction ───────────────────────────────────────────────────────

type quotaTx struct {
	q        querier
	schoolID string
}

func (t quotaTx) ActiveJobs(ctx context.Context, now time.Time) (int, error) {
	return countActive(ctx, t.q, t.schoolID, now)
}

func (t quotaTx) Insert(ctx context.Context, j *domain.Job) error { return insertJob(ctx, t.q, j) }
func (t quotaTx) Update(ctx context.Context, j *domain.Job) error { return updateJob(ctx, t.q, j) }

// ─── Writes shared by pool and tx ────────────────────────────────────────────

func countActive(ctx context.Context, q querier, schoolID string, now time.Time) (int, error) {
	var n int
	err := q.QueryRow(ctx, `
		SELECT count(*) FROM jobs
		WHERE school_id = $1 AND status = 'active'
		  AND (expiry_date IS NULL OR expiry_date > $2)`, schoolID, now).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("countActive: %w", err)
	}
	return n, nil
}

func insertJob(ctx context.Context, q querier, j *domain.Job) error {
	err := q.QueryRow(ctx, `
		INSERT INTO jobs (
			school_id, title, company, city, province, external_url, salary_min, salary_max,
			description, subjects, age_groups, min_experience, chinese_requirement,
			status, source, expiry_date, apply_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $18)
		RETURNING id`,
		j.SchoolID, j.Title, j.Company, j.City, j.Province, j.ExternalURL, j.SalaryMin, j.SalaryMax,
		j.Description, orEmpty(j.Reqs.Subjects), orEmpty(j.Reqs.AgeGroups), j.Reqs.MinExperience, j.Reqs.ChineseRequirement,
		j.Status, j.Source, j.ExpiryDate, j.ApplyBy, j.CreatedAt,
	).Scan(&j.ID)
	if err != nil {
		if foreignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insertJob: %w", err)
	}
	return nil
}

func updateJob(ctx context.Context, q querier, j *domain.Job) error {
	tag, err := q.Exec(ctx, `
		UPDATE jobs SET
			title = $2, company = $3, city = $4, province = $5, external_url = $6,
			salary_min = $7, salary_max = $8, description = $9, subjects = $10,
			age_groups = $11, min_experience = $12, chinese_requirement = $13,
			status = $14, expiry_date = $15, apply_by = $16, updated_at = $17
		WHERE id = $1`,
		j.ID, j.Title, j.Company, j.City, j.Province, j.ExternalURL,
		j.SalaryMin, j.SalaryMax, j.Description, orEmpty(j.Reqs.Subjects),
		orEmpty(j.Reqs.AgeGroups), j.Reqs.MinExperience, j.Reqs.ChineseRequirement,
		j.Status, j.ExpiryDate, j.ApplyBy, j.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("updateJob: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
