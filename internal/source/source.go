// Package source defines the adapter contract for external job providers
// and ships a generic retrying HTTP adapter plus the normalization applied
// to every posting at the adapter boundary.
package source

import (
	"context"

	"github.com/remotelyhq/jobradar/internal/jobs"
)

// Result is one page of postings from a single source.
type Result struct {
	Postings []jobs.Posting `json:"postings"`
	Total    int            `json:"total"`
	HasMore  bool           `json:"has_more"`
}

// Adapter wraps one external job source. Implementations normalize raw
// upstream records into Postings and handle their own transient retries;
// callers only ever see a Result or a SourceError.
type Adapter interface {
	// Name returns the source identifier used for priority ordering,
	// cache keys, and the posting Source field.
	Name() string

	// Search fetches one page of postings matching the query and filters.
	Search(ctx context.Context, query string, filters jobs.Filters, page int) (*Result, error)
}

// SampleProvider supplies placeholder postings. The aggregation loader
// consults it only when every live source has failed.
type SampleProvider interface {
	Name() string
	Sample(query string, filters jobs.Filters) []jobs.Posting
}
