package aggregate

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/remotelyhq/jobradar/internal/cache"
	"github.com/remotelyhq/jobradar/internal/dedup"
	"github.com/remotelyhq/jobradar/internal/jobs"
	"github.com/remotelyhq/jobradar/internal/rank"
	"github.com/remotelyhq/jobradar/internal/source"
)

const (
	// DefaultMaxConcurrent bounds the parallel source fetches per Load.
	DefaultMaxConcurrent = 3
	minConcurrent        = 1
	maxConcurrent        = 10
)

// Result is one aggregated page of postings.
type Result struct {
	Postings       []jobs.Posting `json:"postings"`
	Total          int            `json:"total"`
	TotalAvailable int            `json:"total_available"`
	HasMore        bool           `json:"has_more"`
	Sources        []string       `json:"sources"`
	FailedSources  []string       `json:"failed_sources,omitempty"`
	Dedup          dedup.Stats    `json:"dedup"`
	Err            string         `json:"error,omitempty"`
}

// Loader fans a search out across source adapters, caches per-source
// pages, deduplicates the merged results, and applies filters and
// ordering. It remembers delivered posting IDs so later pages never
// repeat a posting until Reset.
type Loader struct {
	adapters  []source.Adapter
	priority  []string
	rankOrder map[string]int
	cache     *cache.Cache
	threshold float64
	ranker    *rank.Engine
	samples   source.SampleProvider
	logger    *slog.Logger

	mu        sync.Mutex
	conc      int64
	delivered map[string]struct{}
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithSimilarityThreshold overrides the dedup similarity threshold.
func WithSimilarityThreshold(threshold float64) LoaderOption {
	return func(l *Loader) { l.threshold = threshold }
}

// WithSampleProvider sets the fallback used when every source fails.
func WithSampleProvider(p source.SampleProvider) LoaderOption {
	return func(l *Loader) { l.samples = p }
}

// WithMaxConcurrent sets the initial fetch concurrency.
func WithMaxConcurrent(n int) LoaderOption {
	return func(l *Loader) { l.conc = clampConcurrency(n) }
}

// NewLoader creates a Loader. The priority list orders sources when a
// duplicate must pick a winner; adapters absent from it rank last.
func NewLoader(adapters []source.Adapter, priority []string, c *cache.Cache, ranker *rank.Engine, logger *slog.Logger, opts ...LoaderOption) *Loader {
	rankOrder := make(map[string]int, len(priority))
	for i, name := range priority {
		rankOrder[name] = i
	}

	l := &Loader{
		adapters:  adapters,
		priority:  priority,
		rankOrder: rankOrder,
		cache:     c,
		threshold: dedup.DefaultSimilarityThreshold,
		ranker:    ranker,
		logger:    logger,
		conc:      DefaultMaxConcurrent,
		delivered: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetMaxConcurrent adjusts the fetch concurrency, clamped to [1, 10].
func (l *Loader) SetMaxConcurrent(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.conc = clampConcurrency(n)
}

func clampConcurrency(n int) int64 {
	if n < minConcurrent {
		return minConcurrent
	}
	if n > maxConcurrent {
		return maxConcurrent
	}
	return int64(n)
}

// Reset forgets all delivered postings and clears the cache, so the
// next Load starts a fresh session.
func (l *Loader) Reset() {
	l.mu.Lock()
	l.delivered = make(map[string]struct{})
	l.mu.Unlock()

	if l.cache != nil {
		l.cache.Clear(context.Background())
	}
}

type sourceOutcome struct {
	name     string
	postings []jobs.Posting
	err      error
}

// Load aggregates one page. Every adapter is queried in parallel; a
// failed source is reported but never fails the page. If every source
// fails, the sample provider (when configured) backfills the page and
// Err carries the reason.
func (l *Loader) Load(ctx context.Context, query string, filters jobs.Filters, page, pageSize int) *Result {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	start := time.Now()
	outcomes := l.fetchAll(ctx, query, filters, page, pageSize)

	bySource := make(map[string][]jobs.Posting, len(outcomes))
	var succeeded []string
	var failed []string
	for _, o := range outcomes {
		if o.err != nil {
			failed = append(failed, o.name)
			l.logger.Warn("Source fetch failed",
				slog.String("source", o.name),
				slog.Any("error", o.err),
			)
			continue
		}
		succeeded = append(succeeded, o.name)
		bySource[o.name] = o.postings
	}

	if len(bySource) == 0 {
		return l.fallback(query, filters, pageSize, failed)
	}

	engine := dedup.NewEngine(l.threshold)
	l.mu.Lock()
	seeded := make([]string, 0, len(l.delivered))
	for id := range l.delivered {
		seeded = append(seeded, id)
	}
	l.mu.Unlock()
	engine.SeedIDs(seeded)

	merged := engine.DeduplicateBySource(bySource, l.priority)
	merged = applyFilters(merged, filters)
	if filters.Category != "" && l.ranker != nil {
		kept := merged[:0]
		for _, p := range merged {
			if l.ranker.MatchesCategory(p, filters.Category) {
				kept = append(kept, p)
			}
		}
		merged = kept
	}

	merged = l.order(merged, query, filters.Sort)

	total := len(merged)
	pagePostings := merged
	if len(pagePostings) > pageSize {
		pagePostings = pagePostings[:pageSize]
	}

	l.mu.Lock()
	for _, p := range pagePostings {
		l.delivered[p.ID] = struct{}{}
	}
	l.mu.Unlock()

	l.logger.Info("Aggregated page",
		slog.String("query", query),
		slog.Int("page", page),
		slog.Int("returned", len(pagePostings)),
		slog.Int("total", total),
		slog.Int("failed_sources", len(failed)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return &Result{
		Postings:       pagePostings,
		Total:          len(pagePostings),
		TotalAvailable: total,
		HasMore:        total > pageSize,
		Sources:        succeeded,
		FailedSources:  failed,
		Dedup:          engine.Stats(),
	}
}

// fetchAll queries every adapter under the concurrency bound and waits
// for all of them, collecting per-source outcomes.
func (l *Loader) fetchAll(ctx context.Context, query string, filters jobs.Filters, page, pageSize int) []sourceOutcome {
	l.mu.Lock()
	conc := l.conc
	l.mu.Unlock()

	sem := semaphore.NewWeighted(conc)
	outcomes := make([]sourceOutcome, len(l.adapters))
	var wg sync.WaitGroup

	for i, adapter := range l.adapters {
		wg.Add(1)
		go func(i int, adapter source.Adapter) {
			defer wg.Done()
			name := adapter.Name()
			if err := sem.Acquire(ctx, 1); err != nil {
				outcomes[i] = sourceOutcome{name: name, err: err}
				return
			}
			defer sem.Release(1)

			postings, err := l.fetchOne(ctx, adapter, query, filters, page, pageSize)
			outcomes[i] = sourceOutcome{name: name, postings: postings, err: err}
		}(i, adapter)
	}
	wg.Wait()

	return outcomes
}

// fetchOne serves one source page from cache when possible, and fills
// the cache on a successful non-empty fetch.
func (l *Loader) fetchOne(ctx context.Context, adapter source.Adapter, query string, filters jobs.Filters, page, pageSize int) ([]jobs.Posting, error) {
	name := adapter.Name()
	key := cache.Key("jobs:", name, query, filters, page, pageSize)

	if l.cache != nil {
		var cached []jobs.Posting
		hit, err := l.cache.Get(ctx, key, &cached)
		if err == nil && hit {
			l.logger.Debug("Source page served from cache",
				slog.String("source", name),
				slog.Int("page", page),
			)
			return cached, nil
		}
	}

	res, err := adapter.Search(ctx, query, filters, page)
	if err != nil {
		return nil, err
	}

	if l.cache != nil && len(res.Postings) > 0 {
		if err := l.cache.Set(ctx, key, res.Postings); err != nil {
			l.logger.Warn("Failed to cache source page",
				slog.String("source", name),
				slog.Any("error", err),
			)
		}
	}
	return res.Postings, nil
}

// order applies relevance ranking and the requested sort. A search term
// with no explicit sort ranks purely by relevance; an explicit sort
// reorders the relevance-filtered set.
func (l *Loader) order(postings []jobs.Posting, query, sortKey string) []jobs.Posting {
	if query != "" {
		postings = rank.RankSearch(postings, query)
		if sortKey == "" {
			return postings
		}
	}
	sortPostings(postings, sortKey, l.rankOrder)
	return postings
}

// fallback builds the page when every source failed. No source
// succeeded, so the sources list stays empty.
func (l *Loader) fallback(query string, filters jobs.Filters, pageSize int, failed []string) *Result {
	l.logger.Error("All sources failed, serving fallback",
		slog.String("query", query),
		slog.Int("sources", len(failed)),
	)

	res := &Result{
		FailedSources: failed,
		Err:           "all sources unavailable",
	}
	if l.samples == nil {
		res.Postings = []jobs.Posting{}
		return res
	}

	postings := l.samples.Sample(query, filters)
	postings = applyFilters(postings, filters)
	if len(postings) > pageSize {
		postings = postings[:pageSize]
	}
	res.Postings = postings
	res.Total = len(postings)
	res.TotalAvailable = len(postings)
	return res
}
