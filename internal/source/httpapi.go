package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/remotelyhq/jobradar/internal/jobs"
)

// HTTPConfig holds the settings for one JSON API source.
type HTTPConfig struct {
	Name       string
	BaseURL    string
	PageSize   int
	Timeout    time.Duration
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// HTTPAdapter fetches postings from a JSON job API. Transient failures
// (network errors, timeouts, 5xx) are retried with exponential backoff up
// to MaxRetries; malformed payloads and client errors propagate
// immediately as ErrInvalidResponseShape.
type HTTPAdapter struct {
	config HTTPConfig
	client *http.Client
	logger *slog.Logger
}

// NewHTTPAdapter constructs an adapter with a dedicated HTTP client.
func NewHTTPAdapter(cfg HTTPConfig, logger *slog.Logger) *HTTPAdapter {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}

	return &HTTPAdapter{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With(slog.String("source", cfg.Name)),
	}
}

// Name returns the source identifier.
func (a *HTTPAdapter) Name() string {
	return a.config.Name
}

// apiEnvelope mirrors the upstream search response.
type apiEnvelope struct {
	Jobs    []apiJob `json:"jobs"`
	Total   int      `json:"total"`
	HasMore bool     `json:"has_more"`
}

// apiJob mirrors a single upstream job record.
type apiJob struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Type        string `json:"type"`
	URL         string `json:"url"`
	Description string `json:"description"`
	PostedAt    string `json:"posted_at"`
	Views       int    `json:"views"`
	Applicants  int    `json:"applicants"`
}

// Search fetches one page and normalizes it. Records with an empty title
// or company are dropped at this boundary.
func (a *HTTPAdapter) Search(ctx context.Context, query string, filters jobs.Filters, page int) (*Result, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", strconv.Itoa(a.config.PageSize))
	if filters.JobType != "" {
		params.Set("type", filters.JobType)
	}
	if filters.Location != "" {
		params.Set("location", filters.Location)
	}

	reqURL := strings.TrimRight(a.config.BaseURL, "/") + "/search?" + params.Encode()

	var envelope *apiEnvelope

	operation := func() error {
		env, err := a.fetch(ctx, reqURL)
		if err != nil {
			return err
		}
		envelope = env
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = a.config.BaseDelay
	policy.MaxInterval = a.config.MaxDelay

	err := backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(policy, uint64(a.config.MaxRetries)), ctx))
	if err != nil {
		var srcErr *SourceError
		if errors.As(err, &srcErr) {
			return nil, err
		}
		return nil, NewUnavailable(a.config.Name, err)
	}

	return a.normalize(envelope), nil
}

// fetch performs one HTTP round trip. Retryable failures are returned
// bare so the backoff policy retries them; terminal ones are wrapped in
// backoff.Permanent.
func (a *HTTPAdapter) fetch(ctx context.Context, reqURL string) (*apiEnvelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, backoff.Permanent(NewInvalidShape(a.config.Name, err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Warn("Request failed, will retry",
			slog.String("url", reqURL),
			slog.Any("error", err),
		)
		return nil, NewUnavailable(a.config.Name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewUnavailable(a.config.Name, err)
	}

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		a.logger.Warn("Upstream error, will retry",
			slog.Int("status", resp.StatusCode),
		)
		return nil, NewUnavailable(a.config.Name, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, backoff.Permanent(NewInvalidShape(a.config.Name, fmt.Errorf("status %d", resp.StatusCode)))
	}

	var env apiEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, backoff.Permanent(NewInvalidShape(a.config.Name, err))
	}

	return &env, nil
}

// normalize converts upstream records into canonical postings, enriching
// each with extracted skills, an inferred team, and a salary estimate.
func (a *HTTPAdapter) normalize(env *apiEnvelope) *Result {
	now := time.Now()
	postings := make([]jobs.Posting, 0, len(env.Jobs))

	for _, raw := range env.Jobs {
		if raw.Title == "" || raw.Company == "" {
			a.logger.Debug("Dropping record with missing title or company",
				slog.String("raw_id", raw.ID),
			)
			continue
		}

		var postedAt time.Time
		if raw.PostedAt != "" {
			if t, err := time.Parse(time.RFC3339, raw.PostedAt); err == nil {
				postedAt = t
			}
		}

		postings = append(postings, jobs.Posting{
			ID:          fmt.Sprintf("%s-%s", slug(a.config.Name), raw.ID),
			Title:       raw.Title,
			Company:     raw.Company,
			Location:    raw.Location,
			Type:        raw.Type,
			Salary:      EstimateSalary(raw.Title),
			Team:        InferTeam(raw.Title),
			PostedDate:  jobs.FormatRelativeDate(postedAt),
			Views:       raw.Views,
			Applicants:  raw.Applicants,
			Description: raw.Description,
			Skills:      ExtractSkills(raw.Title + " " + raw.Description),
			Source:      a.config.Name,
			SourceURL:   raw.URL,
			SourceID:    raw.ID,
			FetchedAt:   now,
		})
	}

	return &Result{
		Postings: postings,
		Total:    env.Total,
		HasMore:  env.HasMore,
	}
}

func slug(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "-"))
}
