package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"educonnect/placement-service/internal/domain"
	"educonnect/placement-service/internal/profiles"
)

// ProfileRepo stores teacher profiles and school accounts.
type ProfileRepo struct{ base }

// NewProfileRepo returns a ProfileRepo on pool.
func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{base{pool: pool}}
}

var _ profiles.Repository = (*ProfileRepo)(nil)

func (r *ProfileRepo) SaveTeacher(ctx context.Context, t *domain.TeacherProfile) (*domain.TeacherProfile, error) {
	saved, err := scanTeacher(r.pool.QueryRow(ctx, `
		INSERT INTO teacher_profiles AS t (
			user_id, first_name, last_name, email, phone, nationality, years_experience,
			subject_specialty, preferred_location, preferred_age_group, chinese_level,
			cv_url, headshot_url, video_url, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (user_id) DO UPDATE SET
			first_name          = EXCLUDED.first_name,
			last_name           = EXCLUDED.last_name,
			email               = EXCLUDED.email,
			phone               = EXCLUDED.phone,
			nationality         = EXCLUDED.nationality,
			years_experience    = EXCLUDED.years_experience,
			subject_specialty   = EXCLUDED.subject_specialty,
			preferred_location  = EXCLUDED.preferred_location,
			preferred_age_group = EXCLUDED.preferred_age_group,
			chinese_level       = EXCLUDED.chinese_level,
			cv_url              = EXCLUDED.cv_url,
			headshot_url        = EXCLUDED.headshot_url,
			video_url           = EXCLUDED.video_url,
			updated_at          = now()
		RETURNING `+teacherCols,
		t.UserID, t.FirstName, t.LastName, t.Email, t.Phone, t.Nationality, t.YearsExperience,
		orEmpty(t.SubjectSpecialty), orEmpty(t.PreferredLocation), orEmpty(t.PreferredAgeGroup), t.ChineseLevel,
		t.CVURL, t.HeadshotURL, t.VideoURL, statusOr(t.Status),
	))
	if err != nil {
		return nil, fmt.Errorf("saveTeacher: %w", err)
	}
	return saved, nil
}

func (r *ProfileRepo) SetTeacherStatus(ctx context.Context, id, status string) (*domain.TeacherProfile, error) {
	t, err := scanTeacher(r.pool.QueryRow(ctx, `
		UPDATE teacher_profiles t SET status = $2, updated_at = now()
		WHERE t.id = $1
		RETURNING `+teacherCols, id, status))
	return t, notFound(err, "setTeacherStatus")
}

func (r *ProfileRepo) ListTeachers(ctx context.Context, f profiles.TeacherFilter, p domain.Page) ([]*domain.TeacherProfile, int, error) {
	var w where
	if f.Status != "" {
		w.add("t.status = ?", f.Status)
	}
	if f.HasPaid != nil {
		w.add("t.has_paid = ?", *f.HasPaid)
	}
	if f.Query != "" {
		w.add("(t.first_name ILIKE ? OR t.last_name ILIKE ? OR t.email ILIKE ?)",
			likePattern(f.Query), likePattern(f.Query), likePattern(f.Query))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM teacher_profiles t`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("listTeachers count: %w", err)
	}

	limit, args := w.page(p)
	rows, err := r.pool.Query(ctx,
		`SELECT `+teacherCols+` FROM teacher_profiles t`+w.String()+` ORDER BY t.created_at DESC, t.id`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listTeachers query: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.TeacherProfile, 0)
	for rows.Next() {
		t, err := scanTeacher(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("listTeachers scan: %w", err)
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

func (r *ProfileRepo) SaveSchool(ctx context.Context, s *domain.SchoolAccount) (*domain.SchoolAccount, error) {
	saved, err := scanSchool(r.pool.QueryRow(ctx, `
		INSERT INTO schools AS s (
			user_id, name, school_type, city, province, salary_range, contact_name,
			contact_email, contact_phone, subjects, age_groups, min_experience,
			chinese_requirement, accepting_teachers, max_jobs
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (user_id) DO UPDATE SET
			name                = EXCLUDED.name,
			school_type         = EXCLUDED.school_type,
			city                = EXCLUDED.city,
			province            = EXCLUDED.province,
			salary_range        = EXCLUDED.salary_range,
			contact_name        = EXCLUDED.contact_name,
			contact_email       = EXCLUDED.contact_email,
			contact_phone       = EXCLUDED.contact_phone,
			subjects            = EXCLUDED.subjects,
			age_groups          = EXCLUDED.age_groups,
			min_experience      = EXCLUDED.min_experience,
			chinese_requirement = EXCLUDED.chinese_requirement,
			accepting_teachers  = EXCLUDED.accepting_teachers,
			updated_at          = now()
		RETURNING `+schoolCols,
		s.UserID, s.Name, s.SchoolType, s.City, s.Province, s.SalaryRange, s.ContactName,
		s.ContactEmail, s.ContactPhone, orEmpty(s.Reqs.Subjects), orEmpty(s.Reqs.AgeGroups), s.Reqs.MinExperience,
		s.Reqs.ChineseRequirement, s.Accepting, s.MaxJobs,
	))
	if err != nil {
		return nil, fmt.Errorf("saveSchool: %w", err)
	}
	return saved, nil
}

func statusOr(s string) string {
	if s == "" {
		return domain.ProfileActive
	}
	return s
}
