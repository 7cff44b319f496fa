package jobs

import "time"

// Posting is the canonical job record produced by a source adapter.
// Downstream components treat postings as read-only; the deduplication
// engine may drop a posting but never mutates one.
type Posting struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	Type        string    `json:"type"`
	Salary      int       `json:"salary"` // annualized, in thousands
	Team        string    `json:"team"`
	PostedDate  string    `json:"posted_date"` // relative-time string, e.g. "3 days ago"
	Views       int       `json:"views"`
	Applicants  int       `json:"applicants"`
	Description string    `json:"description"`
	Skills      []string  `json:"skills"`
	Source      string    `json:"source"`
	SourceURL   string    `json:"source_url"`
	SourceID    string    `json:"source_id"`
	FetchedAt   time.Time `json:"fetched_at"`
	Fresh       bool      `json:"fresh"`
}

// Filters narrows an aggregation result. Zero values mean "not set".
type Filters struct {
	JobType    string   `json:"job_type,omitempty"`
	SalaryMin  int      `json:"salary_min,omitempty"`
	SalaryMax  int      `json:"salary_max,omitempty"`
	Location   string   `json:"location,omitempty"`
	Skills     []string `json:"skills,omitempty"`
	Company    string   `json:"company,omitempty"`
	MaxAgeDays int      `json:"max_age_days,omitempty"`
	Category   string   `json:"category,omitempty"`
	Sort       string   `json:"sort,omitempty"`
}

// Sort keys accepted by the aggregation orchestrator.
const (
	SortDate      = "date"
	SortSalary    = "salary"
	SortCompany   = "company"
	SortTitle     = "title"
	SortRelevance = "relevance"
)
