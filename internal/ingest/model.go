package ingest

// Posting is a normalised offer fetched from an external job board.
type Posting struct {
	ExternalID  string  `json:"externalId"`
	Title       string  `json:"title"`
	Company     string  `json:"company"`
	Location    string  `json:"location"`
	Description string  `json:"description"`
	SalaryMin   float64 `json:"salaryMin,omitempty"`
	SalaryMax   float64 `json:"salaryMax,omitempty"`
	SourceURL   string  `json:"sourceUrl"`
	PublishedAt string  `json:"publishedAt,omitempty"`
}
