package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"educonnect/placement-service/internal/logging"
)

const (
	adzunaBaseURL  = "https://api.adzuna.com/v1/api/jobs"
	adzunaPageSize = 50
	adzunaMaxPages = 3 // max 150 results per (title × location) pair
	httpTimeout    = 15 * time.Second
)

// AdzunaFetcher fetches job offers from the Adzuna search API. With no
// credentials Fetch returns (nil, nil) and the import round is skipped.
type AdzunaFetcher struct {
	AppID   string
	AppKey  string
	Country string // "gb", "us", …
	BaseURL string
	client  *http.Client
	log     *logging.Logger
}

// NewAdzunaFetcher constructs a fetcher with a shared HTTP client.
func NewAdzunaFetcher(appID, appKey, country string, log *logging.Logger) *AdzunaFetcher {
	return &AdzunaFetcher{
		AppID:   appID,
		AppKey:  appKey,
		Country: country,
		BaseURL: adzunaBaseURL,
		client:  &http.Client{Timeout: httpTimeout},
		log:     log.With("component", "adzuna"),
	}
}

type adzunaResponse struct {
	Results []adzunaResult `json:"results"`
	Count   int            `json:"count"`
}

type adzunaResult struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Company     adzunaName `json:"company"`
	Location    adzunaName `json:"location"`
	SalaryMin   float64    `json:"salary_min"`
	SalaryMax   float64    `json:"salary_max"`
	RedirectURL string     `json:"redirect_url"`
	Created     string     `json:"created"`
}

type adzunaName struct {
	DisplayName string `json:"display_name"`
}

// Fetch retrieves the offers for one title and location, paging until a
// short page or adzunaMaxPages.
func (f *AdzunaFetcher) Fetch(ctx context.Context, title, location string) ([]Posting, error) {
	if f.AppID == "" || f.AppKey == "" {
		f.log.Warn("ADZUNA_APP_ID / ADZUNA_APP_KEY not set, skipping import")
		return nil, nil
	}

	var out []Posting
	for page := 1; page <= adzunaMaxPages; page++ {
		batch, err := f.fetchPage(ctx, title, location, page)
		if err != nil {
			return out, fmt.Errorf("page %d: %w", page, err)
		}
		out = append(out, batch...)
		if len(batch) < adzunaPageSize {
			break
		}
	}
	return out, nil
}

func (f *AdzunaFetcher) fetchPage(ctx context.Context, title, location string, page int) ([]Posting, error) {
	endpoint := fmt.Sprintf("%s/%s/search/%d", f.BaseURL, f.Country, page)

	params := url.Values{}
	params.Set("app_id", f.AppID)
	params.Set("app_key", f.AppKey)
	params.Set("results_per_page", strconv.Itoa(adzunaPageSize))
	params.Set("what", title)
	if location != "" {
		params.Set("where", location)
	}
	params.Set("content-type", "application/json")
	params.Set("sort_by", "date")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query adzuna: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read adzuna response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("adzuna returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var res adzunaResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode adzuna response: %w", err)
	}

	out := make([]Posting, 0, len(res.Results))
	for _, r := range res.Results {
		out = append(out, Posting{
			ExternalID:  r.ID,
			Title:       r.Title,
			Company:     r.Company.DisplayName,
			Location:    r.Location.DisplayName,
			Description: r.Description,
			SalaryMin:   r.SalaryMin,
			SalaryMax:   r.SalaryMax,
			SourceURL:   r.RedirectURL,
			PublishedAt: r.Created,
		})
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
