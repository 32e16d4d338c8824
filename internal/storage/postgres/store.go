// Package postgres implements the service repositories on pgx. Each
// repository embeds base, which reads the shared teacher, school and job
// rows.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"educonnect/placement-service/internal/domain"
)

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type base struct {
	pool *pgxpool.Pool
}

// ─── Column lists and scanners ───────────────────────────────────────────────

const teacherCols = `t.id, t.user_id, t.first_name, t.last_name, t.email, t.phone, t.nationality,
	t.years_experience, t.subject_specialty, t.preferred_location, t.preferred_age_group,
	t.chinese_level, t.cv_url, t.headshot_url, t.video_url, t.has_paid, t.status,
	t.created_at, t.updated_at`

func teacherDest(t *domain.TeacherProfile) []any {
	return []any{
		&t.ID, &t.UserID, &t.FirstName, &t.LastName, &t.Email, &t.Phone, &t.Nationality,
		&t.YearsExperience, &t.SubjectSpecialty, &t.PreferredLocation, &t.PreferredAgeGroup,
		&t.ChineseLevel, &t.CVURL, &t.HeadshotURL, &t.VideoURL, &t.HasPaid, &t.Status,
		&t.CreatedAt, &t.UpdatedAt,
	}
}

func scanTeacher(row pgx.Row) (*domain.TeacherProfile, error) {
	var t domain.TeacherProfile
	if err := row.Scan(teacherDest(&t)...); err != nil {
		return nil, err
	}
	return &t, nil
}

const schoolCols = `s.id, s.user_id, s.name, s.school_type, s.city, s.province, s.salary_range,
	s.contact_name, s.contact_email, s.contact_phone, s.subjects, s.age_groups,
	s.min_experience, s.chinese_requirement, s.accepting_teachers, s.has_paid,
	s.payment_date, s.max_jobs, s.created_at, s.updated_at`

func schoolDest(s *domain.SchoolAccount) []any {
	return []any{
		&s.ID, &s.UserID, &s.Name, &s.SchoolType, &s.City, &s.Province, &s.SalaryRange,
		&s.ContactName, &s.ContactEmail, &s.ContactPhone, &s.Reqs.Subjects, &s.Reqs.AgeGroups,
		&s.Reqs.MinExperience, &s.Reqs.ChineseRequirement, &s.Accepting, &s.HasPaid,
		&s.PaymentDate, &s.MaxJobs, &s.CreatedAt, &s.UpdatedAt,
	}
}

func scanSchool(row pgx.Row) (*domain.SchoolAccount, error) {
	var s domain.SchoolAccount
	if err := row.Scan(schoolDest(&s)...); err != nil {
		return nil, err
	}
	return &s, nil
}

const jobCols = `j.id, j.school_id, j.title, j.company, j.city, j.province, j.external_url,
	j.salary_min, j.salary_max, j.description, j.subjects, j.age_groups, j.min_experience,
	j.chinese_requirement, j.status, j.source, j.expiry_date, j.apply_by,
	j.created_at, j.updated_at`

func jobDest(j *domain.Job) []any {
	return []any{
		&j.ID, &j.SchoolID, &j.Title, &j.Company, &j.City, &j.Province, &j.ExternalURL,
		&j.SalaryMin, &j.SalaryMax, &j.Description, &j.Reqs.Subjects, &j.Reqs.AgeGroups, &j.Reqs.MinExperience,
		&j.Reqs.ChineseRequirement, &j.Status, &j.Source, &j.ExpiryDate, &j.ApplyBy,
		&j.CreatedAt, &j.UpdatedAt,
	}
}

func scanJob(row pgx.Row) (*domain.Job, error) {
	var j domain.Job
	if err := row.Scan(jobDest(&j)...); err != nil {
		return nil, err
	}
	return &j, nil
}

// ─── Shared reads ────────────────────────────────────────────────────────────

func (b base) TeacherByUserID(ctx context.Context, userID string) (*domain.TeacherProfile, error) {
	t, err := scanTeacher(b.pool.QueryRow(ctx,
		`SELECT `+teacherCols+` FROM teacher_profiles t WHERE t.user_id = $1`, userID))
	return t, notFound(err, "teacherByUserID")
}

func (b base) GetTeacher(ctx context.Context, id string) (*domain.TeacherProfile, error) {
	t, err := scanTeacher(b.pool.QueryRow(ctx,
		`SELECT `+teacherCols+` FROM teacher_profiles t WHERE t.id = $1`, id))
	return t, notFound(err, "getTeacher")
}

func (b base) SchoolByUserID(ctx context.Context, userID string) (*domain.SchoolAccount, error) {
	s, err := scanSchool(b.pool.QueryRow(ctx,
		`SELECT `+schoolCols+` FROM schools s WHERE s.user_id = $1`, userID))
	return s, notFound(err, "schoolByUserID")
}

func (b base) GetSchool(ctx context.Context, id string) (*domain.SchoolAccount, error) {
	s, err := scanSchool(b.pool.QueryRow(ctx,
		`SELECT `+schoolCols+` FROM schools s WHERE s.id = $1`, id))
	return s, notFound(err, "getSchool")
}

func (b base) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	j, err := scanJob(b.pool.QueryRow(ctx,
		`SELECT `+jobCols+` FROM jobs j WHERE j.id = $1`, id))
	return j, notFound(err, "getJob")
}

// GetOpportunity loads the Job or School ref points at.
func (b base) GetOpportunity(ctx context.Context, ref domain.OpportunityRef) (domain.Opportunity, error) {
	switch ref.Kind {
	case domain.KindJob:
		j, err := b.GetJob(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		return j, nil
	case domain.KindSchool:
		s, err := b.GetSchool(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		return &domain.School{Account: s}, nil
	}
	return nil, domain.Invalid("unknown opportunity type %q", ref.Kind)
}

// ─── Error mapping ───────────────────────────────────────────────────────────

// notFound maps pgx.ErrNoRows and malformed ids to domain.ErrNotFound and
// wraps anything else with op.
func notFound(err error, op string) error {
	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return domain.ErrNotFound
	case errors.As(err, &pgErr) && pgErr.Code == "22P02":
		return domain.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// uniqueViolation reports whether err is a unique_violation on constraint.
// An empty constraint matches any unique violation.
func uniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// foreignKeyViolation reports whether err is a foreign_key_violation.
func foreignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// ─── Query building ──────────────────────────────────────────────────────────

// where accumulates AND-ed conditions with positional arguments.
type where struct {
	conds []string
	args  []any
}

// add appends cond, replacing each "?" with the next placeholder.
func (w *where) add(cond string, args ...any) {
	for _, a := range args {
		w.args = append(w.args, a)
		cond = strings.Replace(cond, "?", "$"+strconv.Itoa(len(w.args)), 1)
	}
	w.conds = append(w.conds, cond)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// page appends LIMIT/OFFSET placeholders and returns the clause and args.
func (w *where) page(p domain.Page) (string, []any) {
	n := len(w.args)
	args := append(append([]any{}, w.args...), p.Limit, p.Skip)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2), args
}

// likePattern escapes s for an ILIKE containment match.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(s)) + "%"
}

// orEmpty turns a nil slice into an empty one so text[] NOT NULL columns
// accept it.
func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
