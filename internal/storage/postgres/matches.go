package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"educonnect/placement-service/internal/domain"
	"educonnect/placement-service/internal/matching"
)

// MatchRepo stores matching results and reads the candidate pools.
type MatchRepo struct{ base }

// NewMatchRepo returns a MatchRepo on pool.
func NewMatchRepo(pool *pgxpool.Pool) *MatchRepo {
	return &MatchRepo{base{pool: pool}}
}

var _ matching.Repository = (*MatchRepo)(nil)

const matchCols = `m.teacher_id, m.opportunity_type, m.opportunity_id, m.match_score,
	m.breakdown, m.match_reasons, m.posted_at, m.computed_at`

func matchDest(m *domain.Match, kind *string) []any {
	return []any{
		&m.TeacherID, kind, &m.Opportunity.ID, &m.Score,
		&m.Breakdown, &m.Reasons, &m.PostedAt, &m.ComputedAt,
	}
}

// ─── Candidate pools ─────────────────────────────────────────────────────────

func (r *MatchRepo) ListActiveTeachers(ctx context.Context) ([]*domain.TeacherProfile, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+teacherCols+` FROM teacher_profiles t WHERE t.status = 'active' ORDER BY t.created_at`)
	if err != nil {
		return nil, fmt.Errorf("listActiveTeachers query: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.TeacherProfile, 0)
	for rows.Next() {
		t, err := scanTeacher(rows)
		if err != nil {
			return nil, fmt.Errorf("listActiveTeachers scan: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListOpenOpportunities returns every job open at now plus every paid school
// accepting teachers.
func (r *MatchRepo) ListOpenOpportunities(ctx context.Context, now time.Time) ([]domain.Opportunity, error) {
	out := make([]domain.Opportunity, 0)

	rows, err := r.pool.Query(ctx, `
		SELECT `+jobCols+` FROM jobs j
		WHERE j.status = 'active' AND (j.expiry_date IS NULL OR j.expiry_date > $1)`, now)
	if err != nil {
		return nil, fmt.Errorf("listOpenJobs query: %w", err)
	}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("listOpenJobs scan: %w", err)
		}
		out = append(out, j)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listOpenJobs: %w", err)
	}

	rows, err = r.pool.Query(ctx, `
		SELECT `+schoolCols+` FROM schools s
		WHERE s.accepting_teachers AND s.has_paid`)
	if err != nil {
		return nil, fmt.Errorf("listOpenSchools query: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		s, err := scanSchool(rows)
		if err != nil {
			return nil, fmt.Errorf("listOpenSchools scan: %w", err)
		}
		out = append(out, &domain.School{Account: s})
	}
	return out, rows.Err()
}

// ─── Writes ──────────────────────────────────────────────────────────────────

func (r *MatchRepo) ReplaceTeacherMatches(ctx context.Context, teacherID string, ms []domain.Match) error {
	return r.replace(ctx, ms, `DELETE FROM matches WHERE teacher_id = $1`, teacherID)
}

func (r *MatchRepo) ReplaceJobMatches(ctx context.Context, jobID string, ms []domain.Match) error {
	return r.replace(ctx, ms, `DELETE FROM matches WHERE opportunity_type = 'job' AND opportunity_id = $1`, jobID)
}

// replace runs clear and inserts ms in one transaction, so readers see
// either the previous run or the new one.
func (r *MatchRepo) replace(ctx context.Context, ms []domain.Match, clear, arg string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("replaceMatches begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, clear, arg); err != nil {
		return fmt.Errorf("replaceMatches clear: %w", err)
	}

	batch := &pgx.Batch{}
	for _, m := range ms {
		batch.Queue(`
			INSERT INTO matches (teacher_id, opportunity_type, opportunity_id, match_score,
				breakdown, match_reasons, posted_at, computed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (teacher_id, opportunity_type, opportunity_id) DO UPDATE SET
				match_score   = EXCLUDED.match_score,
				breakdown     = EXCLUDED.breakdown,
				match_reasons = EXCLUDED.match_reasons,
				posted_at     = EXCLUDED.posted_at,
				computed_at   = EXCLUDED.computed_at`,
			m.TeacherID, string(m.Opportunity.Kind), m.Opportunity.ID, m.Score,
			m.Breakdown, orEmpty(m.Reasons), m.PostedAt, m.ComputedAt,
		)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("replaceMatches insert: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("replaceMatches commit: %w", err)
	}
	return nil
}

// ─── Reads ───────────────────────────────────────────────────────────────────

// ListTeacherMatches pages the teacher's matches best first and hydrates
// each with its opportunity. Matches whose opportunity has since been
// removed are dropped from the page.
func (r *MatchRepo) ListTeacherMatches(ctx context.Context, teacherID string, p domain.Page) ([]matching.TeacherMatch, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM matches WHERE teacher_id = $1`, teacherID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("listTeacherMatches count: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+matchCols+` FROM matches m
		WHERE m.teacher_id = $1
		ORDER BY m.match_score DESC, m.posted_at DESC, m.opportunity_id
		LIMIT $2 OFFSET $3`, teacherID, p.Limit, p.Skip)
	if err != nil {
		return nil, 0, fmt.Errorf("listTeacherMatches query: %w", err)
	}
	ms := make([]domain.Match, 0)
	for rows.Next() {
		var (
			m    domain.Match
			kind string
		)
		if err := rows.Scan(matchDest(&m, &kind)...); err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("listTeacherMatches scan: %w", err)
		}
		m.Opportunity.Kind = domain.OpportunityKind(kind)
		ms = append(ms, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("listTeacherMatches: %w", err)
	}

	opps, err := r.opportunities(ctx, ms)
	if err != nil {
		return nil, 0, err
	}
	applied, err := r.applied(ctx, teacherID)
	if err != nil {
		return nil, 0, err
	}

	out := make([]matching.TeacherMatch, 0, len(ms))
	for _, m := range ms {
		opp, ok := opps[m.Opportunity]
		if !ok {
			continue
		}
		out = append(out, matching.TeacherMatch{Match: m, Opportunity: opp, Applied: applied[m.Opportunity]})
	}
	return out, total, nil
}

// ListJobMatches pages the job's candidate teachers best first.
func (r *MatchRepo) ListJobMatches(ctx context.Context, jobID string, p domain.Page) ([]matching.JobMatch, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM matches WHERE opportunity_type = 'job' AND opportunity_id = $1`, jobID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("listJobMatches count: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+matchCols+`, `+teacherCols+`,
		       EXISTS (
		           SELECT 1 FROM interview_selections i
		           WHERE i.job_id = m.opportunity_id AND i.teacher_id = m.teacher_id
		       )
		FROM matches m
		JOIN teacher_profiles t ON t.id = m.teacher_id
		WHERE m.opportunity_type = 'job' AND m.opportunity_id = $1
		ORDER BY m.match_score DESC, t.updated_at DESC, t.id
		LIMIT $2 OFFSET $3`, jobID, p.Limit, p.Skip)
	if err != nil {
		return nil, 0, fmt.Errorf("listJobMatches query: %w", err)
	}
	defer rows.Close()

	out := make([]matching.JobMatch, 0)
	for rows.Next() {
		var (
			jm   matching.JobMatch
			kind string
			t    domain.TeacherProfile
		)
		dest := append(matchDest(&jm.Match, &kind), teacherDest(&t)...)
		if err := rows.Scan(append(dest, &jm.Selected)...); err != nil {
			return nil, 0, fmt.Errorf("listJobMatches scan: %w", err)
		}
		jm.Match.Opportunity.Kind = domain.OpportunityKind(kind)
		jm.Teacher = &t
		out = append(out, jm)
	}
	return out, total, rows.Err()
}

// opportunities loads the jobs and schools referenced by ms.
func (r *MatchRepo) opportunities(ctx context.Context, ms []domain.Match) (map[domain.OpportunityRef]domain.Opportunity, error) {
	var jobIDs, schoolIDs []string
	for _, m := range ms {
		switch m.Opportunity.Kind {
		case domain.KindJob:
			jobIDs = append(jobIDs, m.Opportunity.ID)
		case domain.KindSchool:
			schoolIDs = append(schoolIDs, m.Opportunity.ID)
		}
	}

	out := make(map[domain.OpportunityRef]domain.Opportunity, len(ms))
	if len(jobIDs) > 0 {
		rows, err := r.pool.Query(ctx, `SELECT `+jobCols+` FROM jobs j WHERE j.id = ANY($1)`, jobIDs)
		if err != nil {
			return nil, fmt.Errorf("matchJobs query: %w", err)
		}
		for rows.Next() {
			j, err := scanJob(rows)
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("matchJobs scan: %w", err)
			}
			out[domain.RefOf(j)] = j
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("matchJobs: %w", err)
		}
	}
	if len(schoolIDs) > 0 {
		rows, err := r.pool.Query(ctx, `SELECT `+schoolCols+` FROM schools s WHERE s.id = ANY($1)`, schoolIDs)
		if err != nil {
			return nil, fmt.Errorf("matchSchools query: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			s, err := scanSchool(rows)
			if err != nil {
				return nil, fmt.Errorf("matchSchools scan: %w", err)
			}
			school := &domain.School{Account: s}
			out[domain.RefOf(school)] = school
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("matchSchools: %w", err)
		}
	}
	return out, nil
}

// applied returns the opportunities the teacher holds a non-declined
// application for.
func (r *MatchRepo) applied(ctx context.Context, teacherID string) (map[domain.OpportunityRef]bool, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT opportunity_type, opportunity_id FROM applications
		WHERE teacher_id = $1 AND status <> 'declined'`, teacherID)
	if err != nil {
		return nil, fmt.Errorf("appliedOpportunities query: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.OpportunityRef]bool)
	for rows.Next() {
		var kind, id string
		if err := rows.Scan(&kind, &id); err != nil {
			return nil, fmt.Errorf("appliedOpportunities scan: %w", err)
		}
		out[domain.OpportunityRef{Kind: domain.OpportunityKind(kind), ID: id}] = true
	}
	return out, rows.Err()
}
