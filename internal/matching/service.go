package matching

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"educonnect/placement-service/internal/domain"
	"educonnect/placement-service/internal/events"
	"educonnect/placement-service/internal/logging"
)

// ─── Dependencies ────────────────────────────────────────────────────────────

// TeacherMatch is a stored match hydrated with its opportunity and whether
// the teacher already has an active application for it.
type TeacherMatch struct {
	Match       domain.Match
	Opportunity domain.Opportunity
	Applied     bool
}

// JobMatch is a stored match seen from the job side, with the candidate
// teacher and whether the school already selected them for interview.
type JobMatch struct {
	Match    domain.Match
	Teacher  *domain.TeacherProfile
	Selected bool
}

// Repository is the storage the matching service needs.
type Repository interface {
	GetTeacher(ctx context.Context, teacherID string) (*domain.TeacherProfile, error)
	GetJob(ctx context.Context, jobID string) (*domain.Job, error)
	ListActiveTeachers(ctx context.Context) ([]*domain.TeacherProfile, error)
	ListOpenOpportunities(ctx context.Context, now time.Time) ([]domain.Opportunity, error)
	ReplaceTeacherMatches(ctx context.Context, teacherID string, ms []domain.Match) error
	ReplaceJobMatches(ctx context.Context, jobID string, ms []domain.Match) error
	ListTeacherMatches(ctx context.Context, teacherID string, p domain.Page) ([]TeacherMatch, int, error)
	ListJobMatches(ctx context.Context, jobID string, p domain.Page) ([]JobMatch, int, error)
}

// Locker guards a matching run across service instances.
type Locker interface {
	// TryLock returns ok=false without error when the key is already held.
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(context.Context) error, ok bool, err error)
}

// RunSummary describes a completed matching run.
type RunSummary struct {
	Subject    string    `json:"subject_id"`
	Count      int       `json:"matches_found"`
	TopScore   int       `json:"top_score"`
	ComputedAt time.Time `json:"computed_at"`
}

// ─── Service ─────────────────────────────────────────────────────────────────

// Service runs and serves matching results.
type Service struct {
	repo    Repository
	locker  Locker
	pub     events.Publisher
	log     *logging.Logger
	lockTTL time.Duration
	minimum int
	clock   func() time.Time
	flight  singleflight.Group
}

// Option configures Service.
type Option func(*Service)

// WithClock sets a custom clock.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// WithMinimumScore drops candidates below min from stored results.
func WithMinimumScore(min int) Option {
	return func(s *Service) { s.minimum = min }
}

// NewService returns a configured Service.
func NewService(repo Repository, locker Locker, pub events.Publisher, log *logging.Logger, lockTTL time.Duration, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		locker:  locker,
		pub:     pub,
		log:     log.With("component", "matching"),
		lockTTL: lockTTL,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunForTeacher scores every open opportunity for the teacher and replaces
// their stored matches. Concurrent calls for the same teacher in this
// process share one run; across processes a second caller gets
// domain.ErrRunInProgress.
func (s *Service) RunForTeacher(ctx context.Context, teacherID string) (*RunSummary, error) {
	return s.run(ctx, "teacher:"+teacherID, func(ctx context.Context) (*RunSummary, error) {
		t, err := s.repo.GetTeacher(ctx, teacherID)
		if err != nil {
			return nil, err
		}
		now := s.clock()
		opps, err := s.repo.ListOpenOpportunities(ctx, now)
		if err != nil {
			return nil, fmt.Errorf("list opportunities: %w", err)
		}

		ms := s.filter(ToMatches(ScoreAll(t, opps), now))
		if err := s.repo.ReplaceTeacherMatches(ctx, teacherID, ms); err != nil {
			return nil, fmt.Errorf("replace teacher matches: %w", err)
		}
		return summarize(teacherID, ms, now), nil
	})
}

// RunForJob scores every active teacher against the job.
func (s *Service) RunForJob(ctx context.Context, jobID string) (*RunSummary, error) {
	return s.run(ctx, "job:"+jobID, func(ctx context.Context) (*RunSummary, error) {
		job, err := s.repo.GetJob(ctx, jobID)
		if err != nil {
			return nil, err
		}
		now := s.clock()
		if !job.IsOpen(now) {
			return nil, domain.Invalid("job %q is no longer open for matching", job.Title)
		}
		teachers, err := s.repo.ListActiveTeachers(ctx)
		if err != nil {
			return nil, fmt.Errorf("list teachers: %w", err)
		}

		ms := s.filter(ToMatches(ScoreTeachers(teachers, job), now))
		if err := s.repo.ReplaceJobMatches(ctx, jobID, ms); err != nil {
			return nil, fmt.Errorf("replace job matches: %w", err)
		}
		return summarize(jobID, ms, now), nil
	})
}

// TeacherMatches returns the teacher's stored matches, best first.
func (s *Service) TeacherMatches(ctx context.Context, teacherID string, p domain.Page) ([]TeacherMatch, int, error) {
	return s.repo.ListTeacherMatches(ctx, teacherID, p)
}

// JobMatches returns the job's stored candidate teachers, best first.
func (s *Service) JobMatches(ctx context.Context, jobID string, p domain.Page) ([]JobMatch, int, error) {
	return s.repo.ListJobMatches(ctx, jobID, p)
}

// run executes fn under the per-subject lock. The shared run is detached
// from the caller that started it and bounded by the lock TTL; each caller
// stops waiting when its own ctx is done.
func (s *Service) run(ctx context.Context, key string, fn func(context.Context) (*RunSummary, error)) (*RunSummary, error) {
	ch := s.flight.DoChan(key, func() (any, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.lockTTL)
		defer cancel()

		unlock, ok, err := s.locker.TryLock(runCtx, "matching:run:"+key, s.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire matching lock: %w", err)
		}
		if !ok {
			return nil, domain.ErrRunInProgress
		}
		defer func() {
			if err := unlock(context.WithoutCancel(runCtx)); err != nil {
				s.log.Warn("release matching lock failed", "key", key, "err", err)
			}
		}()
		start := s.clock()
		sum, err := fn(runCtx)
		if err != nil {
			return nil, err
		}
		s.log.Info("matching run complete", "key", key, "matches", sum.Count, "top", sum.TopScore, "dur", time.Since(start))
		err = s.pub.Publish(runCtx, events.New(events.TypeMatchingCompleted, key, map[string]string{
			"subject":  key,
			"matches":  strconv.Itoa(sum.Count),
			"topScore": strconv.Itoa(sum.TopScore),
		}))
		if err != nil {
			s.log.Warn("publish matching.completed failed", "key", key, "err", err)
		}
		return sum, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.log.Debug("matching run shared with concurrent caller", "key", key)
		}
		return res.Val.(*RunSummary), nil
	}
}

func (s *Service) filter(ms []domain.Match) []domain.Match {
	if s.minimum <= 0 {
		return ms
	}
	out := ms[:0]
	for _, m := range ms {
		if m.Score >= s.minimum {
			out = append(out, m)
		}
	}
	return out
}

func summarize(subject string, ms []domain.Match, now time.Time) *RunSummary {
	sum := &RunSummary{Subject: subject, Count: len(ms), ComputedAt: now}
	if len(ms) > 0 {
		sum.TopScore = ms[0].Score
	}
	return sum
}
