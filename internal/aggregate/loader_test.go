package aggregate

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remotelyhq/jobradar/internal/cache"
	"github.com/remotelyhq/jobradar/internal/jobs"
	"github.com/remotelyhq/jobradar/internal/rank"
	"github.com/remotelyhq/jobradar/internal/source"
	"github.com/remotelyhq/jobradar/shared/logger"
)

type fakeAdapter struct {
	name     string
	postings []jobs.Posting
	err      error
	calls    atomic.Int64
}

func (a *fakeAdapter) Name() string { return a.name }

func (a *fakeAdapter) Search(context.Context, string, jobs.Filters, int) (*source.Result, error) {
	a.calls.Add(1)
	if a.err != nil {
		return nil, a.err
	}
	return &source.Result{Postings: a.postings, Total: len(a.postings)}, nil
}

type fakeSamples struct{}

func (fakeSamples) Name() string { return "samples" }

func (fakeSamples) Sample(string, jobs.Filters) []jobs.Posting {
	return []jobs.Posting{mkPosting("samples", "sample-1", "Sample Engineer", "Demo Co")}
}

func mkPosting(src, id, title, company string) jobs.Posting {
	return jobs.Posting{
		ID:         id,
		Title:      title,
		Company:    company,
		Location:   "Remote",
		Type:       "Full-time",
		Salary:     120,
		PostedDate: "Today",
		Source:     src,
		SourceURL:  fmt.Sprintf("https://%s.example.com/%s", src, id),
	}
}

func newLoader(t *testing.T, adapters []source.Adapter, opts ...LoaderOption) *Loader {
	t.Helper()
	c := cache.New(cache.NewMemoryStore(), logger.NewDefault().Logger)
	return NewLoader(adapters, []string{"alpha", "beta"}, c, rank.NewEngine(nil, 0), logger.NewDefault().Logger, opts...)
}

func TestLoaderMergesAndSurvivesFailingSource(t *testing.T) {
	alpha := &fakeAdapter{name: "alpha", postings: []jobs.Posting{
		mkPosting("alpha", "a-1", "Backend Engineer", "Acme"),
		mkPosting("alpha", "a-2", "Data Scientist", "Initech"),
		mkPosting("alpha", "a-3", "Mobile Developer", "Globex"),
		mkPosting("alpha", "a-4", "Product Manager", "Umbrella"),
		mkPosting("alpha", "a-5", "Marketing Lead", "Hooli"),
	}}
	beta := &fakeAdapter{name: "beta", postings: []jobs.Posting{
		// Same title and company as a-1: dropped as a duplicate.
		mkPosting("beta", "b-1", "Backend Engineer", "Acme"),
		mkPosting("beta", "b-2", "Security Analyst", "Initrode"),
		mkPosting("beta", "b-3", "QA Engineer", "Vandelay"),
	}}
	gamma := &fakeAdapter{name: "gamma", err: source.NewUnavailable("gamma", fmt.Errorf("boom"))}

	l := newLoader(t, []source.Adapter{alpha, beta, gamma})
	res := l.Load(context.Background(), "", jobs.Filters{}, 1, 20)

	require.Empty(t, res.Err)
	assert.Len(t, res.Postings, 7)
	assert.Equal(t, []string{"gamma"}, res.FailedSources)
	// A failed source only shows up in FailedSources.
	assert.ElementsMatch(t, []string{"alpha", "beta"}, res.Sources)
	assert.NotContains(t, res.Sources, "gamma")
	assert.Equal(t, 1, res.Dedup.Removed)
	assert.False(t, res.HasMore)

	// The alpha copy of the duplicate wins on priority.
	ids := make([]string, 0, len(res.Postings))
	for _, p := range res.Postings {
		ids = append(ids, p.ID)
	}
	assert.Contains(t, ids, "a-1")
	assert.NotContains(t, ids, "b-1")
}

func TestLoaderPagination(t *testing.T) {
	postings := make([]jobs.Posting, 0, 5)
	titles := []string{"Backend Engineer", "Data Scientist", "Mobile Developer", "Product Manager", "Marketing Lead"}
	companies := []string{"Acme", "Initech", "Globex", "Umbrella", "Hooli"}
	for i, title := range titles {
		postings = append(postings, mkPosting("alpha", fmt.Sprintf("a-%d", i), title, companies[i]))
	}
	alpha := &fakeAdapter{name: "alpha", postings: postings}

	l := newLoader(t, []source.Adapter{alpha})

	first := l.Load(context.Background(), "", jobs.Filters{}, 1, 3)
	require.Len(t, first.Postings, 3)
	assert.True(t, first.HasMore)
	assert.Equal(t, 5, first.TotalAvailable)

	// Already-delivered postings never repeat on the next page, even
	// though the fake returns the same five rows.
	l.cache.Clear(context.Background())
	second := l.Load(context.Background(), "", jobs.Filters{}, 2, 3)
	require.Len(t, second.Postings, 2)
	for _, p := range second.Postings {
		for _, q := range first.Postings {
			assert.NotEqual(t, q.ID, p.ID)
		}
	}
}

func TestLoaderCachesSourcePages(t *testing.T) {
	alpha := &fakeAdapter{name: "alpha", postings: []jobs.Posting{
		mkPosting("alpha", "a-1", "Backend Engineer", "Acme"),
	}}

	c := cache.New(cache.NewMemoryStore(), logger.NewDefault().Logger)
	l := NewLoader([]source.Adapter{alpha}, []string{"alpha"}, c, nil, logger.NewDefault().Logger)

	l.Load(context.Background(), "backend", jobs.Filters{}, 1, 20)
	assert.Equal(t, int64(1), alpha.calls.Load())

	// Forget delivered IDs but keep the cache: the second load is served
	// without touching the adapter.
	l.mu.Lock()
	l.delivered = make(map[string]struct{})
	l.mu.Unlock()

	res := l.Load(context.Background(), "backend", jobs.Filters{}, 1, 20)
	assert.Equal(t, int64(1), alpha.calls.Load())
	require.Len(t, res.Postings, 1)
}

func TestLoaderResetClearsSession(t *testing.T) {
	alpha := &fakeAdapter{name: "alpha", postings: []jobs.Posting{
		mkPosting("alpha", "a-1", "Backend Engineer", "Acme"),
	}}
	l := newLoader(t, []source.Adapter{alpha})

	first := l.Load(context.Background(), "", jobs.Filters{}, 1, 20)
	require.Len(t, first.Postings, 1)

	drained := l.Load(context.Background(), "", jobs.Filters{}, 2, 20)
	assert.Empty(t, drained.Postings)

	l.Reset()
	again := l.Load(context.Background(), "", jobs.Filters{}, 1, 20)
	assert.Len(t, again.Postings, 1)
	assert.Equal(t, int64(3), alpha.calls.Load())
}

func TestLoaderFilters(t *testing.T) {
	lowPay := mkPosting("alpha", "a-1", "Backend Engineer", "Acme")
	lowPay.Salary = 80
	highPay := mkPosting("alpha", "a-2", "Platform Engineer", "Initech")
	highPay.Salary = 150
	contract := mkPosting("alpha", "a-3", "Data Scientist", "Globex")
	contract.Type = "Contract"

	alpha := &fakeAdapter{name: "alpha", postings: []jobs.Posting{lowPay, highPay, contract}}
	l := newLoader(t, []source.Adapter{alpha})

	res := l.Load(context.Background(), "", jobs.Filters{SalaryMin: 100, JobType: "full-time"}, 1, 20)
	require.Len(t, res.Postings, 1)
	assert.Equal(t, "a-2", res.Postings[0].ID)
}

func TestLoaderSearchRanksByRelevance(t *testing.T) {
	alpha := &fakeAdapter{name: "alpha", postings: []jobs.Posting{
		mkPosting("alpha", "a-1", "Gardener", "Acme"),
		mkPosting("alpha", "a-2", "Senior React Developer", "Initech"),
		mkPosting("alpha", "a-3", "React Developer", "Globex"),
	}}
	l := newLoader(t, []source.Adapter{alpha})

	res := l.Load(context.Background(), "react", jobs.Filters{}, 1, 20)
	require.Len(t, res.Postings, 2)
	assert.Equal(t, "a-3", res.Postings[0].ID)
	assert.Equal(t, "a-2", res.Postings[1].ID)
}

func TestLoaderSortBySalary(t *testing.T) {
	low := mkPosting("alpha", "a-1", "Backend Engineer", "Acme")
	low.Salary = 90
	high := mkPosting("alpha", "a-2", "Data Scientist", "Initech")
	high.Salary = 160

	alpha := &fakeAdapter{name: "alpha", postings: []jobs.Posting{low, high}}
	l := newLoader(t, []source.Adapter{alpha})

	res := l.Load(context.Background(), "", jobs.Filters{Sort: jobs.SortSalary}, 1, 20)
	require.Len(t, res.Postings, 2)
	assert.Equal(t, "a-2", res.Postings[0].ID)
}

func TestLoaderFallsBackToSamples(t *testing.T) {
	down := &fakeAdapter{name: "alpha", err: source.NewUnavailable("alpha", fmt.Errorf("down"))}
	l := newLoader(t, []source.Adapter{down}, WithSampleProvider(fakeSamples{}))

	res := l.Load(context.Background(), "", jobs.Filters{}, 1, 20)
	assert.Equal(t, "all sources unavailable", res.Err)
	require.Len(t, res.Postings, 1)
	assert.Equal(t, "sample-1", res.Postings[0].ID)
	assert.Equal(t, []string{"alpha"}, res.FailedSources)
	assert.Empty(t, res.Sources)
}

func TestLoaderWithoutSamplesReturnsEmptyOnTotalFailure(t *testing.T) {
	down := &fakeAdapter{name: "alpha", err: source.NewUnavailable("alpha", fmt.Errorf("down"))}
	l := newLoader(t, []source.Adapter{down})

	res := l.Load(context.Background(), "", jobs.Filters{}, 1, 20)
	assert.NotEmpty(t, res.Err)
	assert.Empty(t, res.Postings)
	assert.NotNil(t, res.Postings)
}

func TestSetMaxConcurrentClamps(t *testing.T) {
	l := newLoader(t, nil)

	l.SetMaxConcurrent(0)
	assert.Equal(t, int64(1), l.conc)

	l.SetMaxConcurrent(50)
	assert.Equal(t, int64(10), l.conc)

	l.SetMaxConcurrent(4)
	assert.Equal(t, int64(4), l.conc)
}
