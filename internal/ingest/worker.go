package ingest

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"educonnect/placement-service/internal/domain"
	"educonnect/placement-service/internal/logging"
)

// Source fetches postings for one search.
type Source interface {
	Fetch(ctx context.Context, title, location string) ([]Posting, error)
}

// Store persists imported jobs, skipping external URLs already on file.
type Store interface {
	InsertExternal(ctx context.Context, jobs []*domain.Job) (int, error)
}

// Search is the set of queries one import round runs: every title against
// every location. An empty Locations searches the whole country.
type Search struct {
	Titles    []string
	Locations []string
	RedFlags  []string
	// TTL sets expiry_date on imported jobs so stale listings age out.
	TTL time.Duration
}

// Report summarises one import round.
type Report struct {
	Fetched    int `json:"fetched"`
	Inserted   int `json:"inserted"`
	Filtered   int `json:"filtered"`
	Duplicates int `json:"duplicates"`
	Failed     int `json:"failed_searches"`
}

// Worker runs import rounds.
type Worker struct {
	source Source
	store  Store
	search Search
	log    *logging.Logger
	clock  func() time.Time
}

// NewWorker constructs a Worker.
func NewWorker(source Source, store Store, search Search, log *logging.Logger) *Worker {
	return &Worker{source: source, store: store, search: search, log: log.With("component", "ingest"), clock: time.Now}
}

// WithClock replaces the worker clock. Used by tests.
func (w *Worker) WithClock(clock func() time.Time) *Worker {
	w.clock = clock
	return w
}

// Run executes one import round. A failed search is logged and skipped;
// only a storage failure aborts the round.
func (w *Worker) Run(ctx context.Context) (*Report, error) {
	locations := w.search.Locations
	if len(locations) == 0 {
		locations = []string{""}
	}

	rep := &Report{}
	seen := make(map[string]bool)
	now := w.clock()

	for _, title := range w.search.Titles {
		for _, location := range locations {
			postings, err := w.source.Fetch(ctx, title, location)
			if err != nil {
				w.log.Warn("fetch failed, continuing", "title", title, "location", location, "err", err)
				rep.Failed++
				continue
			}
			rep.Fetched += len(postings)

			batch := make([]*domain.Job, 0, len(postings))
			for _, p := range postings {
				if ContainsRedFlag(p, w.search.RedFlags) {
					rep.Filtered++
					continue
				}
				if p.SourceURL == "" {
					p.SourceURL = "adzuna:" + p.ExternalID
				}
				if seen[p.SourceURL] {
					rep.Duplicates++
					continue
				}
				seen[p.SourceURL] = true
				batch = append(batch, w.toJob(p, now))
			}
			if len(batch) == 0 {
				continue
			}

			n, err := w.store.InsertExternal(ctx, batch)
			if err != nil {
				return rep, fmt.Errorf("insert external jobs: %w", err)
			}
			rep.Inserted += n
			rep.Duplicates += len(batch) - n
		}
	}

	w.log.Info("import done", "fetched", rep.Fetched, "inserted", rep.Inserted,
		"filtered", rep.Filtered, "duplicates", rep.Duplicates, "failed", rep.Failed)
	return rep, nil
}

func (w *Worker) toJob(p Posting, now time.Time) *domain.Job {
	city, province := splitLocation(p.Location)
	text := strings.ToLower(p.Title + " " + p.Description)
	j := &domain.Job{
		Title:       strings.TrimSpace(p.Title),
		Company:     strings.TrimSpace(p.Company),
		City:        city,
		Province:    province,
		ExternalURL: p.SourceURL,
		SalaryMin:   salary(p.SalaryMin),
		SalaryMax:   salary(p.SalaryMax),
		Description: strings.TrimSpace(p.Description),
		Reqs: domain.Requirements{
			Subjects:  detect(text, subjectKeywords),
			AgeGroups: detect(text, ageGroupKeywords),
		},
		Status:    domain.JobActive,
		Source:    domain.SourceExternal,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if j.SalaryMin != nil && j.SalaryMax != nil && *j.SalaryMin > *j.SalaryMax {
		j.SalaryMin, j.SalaryMax = j.SalaryMax, j.SalaryMin
	}
	if w.search.TTL > 0 {
		exp := now.Add(w.search.TTL)
		j.ExpiryDate = &exp
	}
	return j
}

// splitLocation turns "Pudong, Shanghai, China" into the two most specific
// parts that are not the country.
func splitLocation(loc string) (city, province string) {
	parts := make([]string, 0, 3)
	for _, p := range strings.Split(loc, ",") {
		p = strings.TrimSpace(p)
		if p == "" || strings.EqualFold(p, "china") {
			continue
		}
		parts = append(parts, p)
	}
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return parts[len(parts)-2], parts[len(parts)-1]
}

func salary(v float64) *int {
	if v <= 0 {
		return nil
	}
	n := int(math.Round(v))
	return &n
}

var subjectKeywords = []keyword{
	{"English", []string{"english", "esl", "efl", "tefl", "ielts", "toefl"}},
	{"Math", []string{"math", "maths", "mathematics"}},
	{"Science", []string{"science", "physics", "chemistry", "biology"}},
	{"Music", []string{"music"}},
	{"Art", []string{" art ", "art teacher"}},
	{"PE", []string{"physical education", " pe "}},
}

var ageGroupKeywords = []keyword{
	{"Kindergarten", []string{"kindergarten", "preschool", "early years", "nursery"}},
	{"Primary", []string{"primary", "elementary"}},
	{"Middle School", []string{"middle school", "junior high"}},
	{"High School", []string{"high school", "secondary"}},
	{"University", []string{"university", "college"}},
	{"Adults", []string{"adult", "business english"}},
}

type keyword struct {
	label string
	terms []string
}

func detect(text string, table []keyword) []string {
	text = " " + text + " "
	var out []string
	for _, k := range table {
		for _, t := range k.terms {
			if strings.Contains(text, t) {
				out = append(out, k.label)
				break
			}
		}
	}
	return out
}
