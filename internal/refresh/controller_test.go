package refresh

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remotelyhq/jobradar/internal/aggregate"
	"github.com/remotelyhq/jobradar/internal/jobs"
	"github.com/remotelyhq/jobradar/shared/logger"
)

type fakeAggregator struct {
	postings []jobs.Posting
	sources  []string
	failed   []string
	failWith string
	resets   atomic.Int64
	loads    atomic.Int64
	block    chan struct{}
}

func (f *fakeAggregator) Reset() {
	f.resets.Add(1)
}

func (f *fakeAggregator) Load(context.Context, string, jobs.Filters, int, int) *aggregate.Result {
	f.loads.Add(1)
	if f.block != nil {
		<-f.block
	}
	if f.failWith != "" {
		return &aggregate.Result{Postings: []jobs.Posting{}, Err: f.failWith}
	}
	return &aggregate.Result{
		Postings:      f.postings,
		Total:         len(f.postings),
		Sources:       f.sources,
		FailedSources: f.failed,
	}
}

func newController(agg Aggregator, opts ...Option) *Controller {
	return NewController(agg, logger.NewDefault().Logger, opts...)
}

func TestForceRefreshSwapsSnapshot(t *testing.T) {
	agg := &fakeAggregator{postings: []jobs.Posting{
		{ID: "a-1", Title: "Backend Engineer"},
	}}
	c := newController(agg)

	require.NoError(t, c.ForceRefresh(context.Background()))

	snap := c.Current()
	require.Len(t, snap, 1)
	assert.True(t, snap[0].Fresh)
	assert.False(t, snap[0].FetchedAt.IsZero())
	assert.Equal(t, int64(1), agg.resets.Load())

	status := c.Status()
	assert.Equal(t, 1, status.Cycles)
	assert.Equal(t, 0, status.Failures)
	assert.NotEmpty(t, status.LastCycleID)
	assert.Empty(t, status.LastError)
}

func TestRefreshRejectsOverlap(t *testing.T) {
	agg := &fakeAggregator{block: make(chan struct{})}
	c := newController(agg)

	done := make(chan error, 1)
	go func() {
		done <- c.ForceRefresh(context.Background())
	}()

	// Wait until the first cycle is inside Load.
	require.Eventually(t, func() bool {
		return agg.loads.Load() == 1
	}, time.Second, 5*time.Millisecond)

	err := c.ForceRefresh(context.Background())
	assert.ErrorIs(t, err, ErrRefreshInProgress)

	close(agg.block)
	require.NoError(t, <-done)
}

func TestFailedRefreshKeepsPreviousSnapshot(t *testing.T) {
	agg := &fakeAggregator{postings: []jobs.Posting{{ID: "a-1"}}}
	c := newController(agg)

	require.NoError(t, c.ForceRefresh(context.Background()))
	require.Len(t, c.Current(), 1)

	agg.failWith = "all sources unavailable"
	err := c.ForceRefresh(context.Background())
	require.Error(t, err)

	assert.Len(t, c.Current(), 1)
	status := c.Status()
	assert.Equal(t, 2, status.Cycles)
	assert.Equal(t, 1, status.Failures)
	assert.Equal(t, "all sources unavailable", status.LastError)
}

func TestListeners(t *testing.T) {
	agg := &fakeAggregator{postings: []jobs.Posting{{ID: "a-1"}}}
	c := newController(agg)

	var notified atomic.Int64
	unsubscribe := c.Subscribe(func(u Update) {
		require.NotEmpty(t, u.CycleID)
		notified.Add(int64(len(u.Postings)))
	})
	c.Subscribe(func(Update) {
		panic("bad listener")
	})

	// The panicking listener must not stop the cycle or the other
	// listener.
	require.NoError(t, c.ForceRefresh(context.Background()))
	assert.Equal(t, int64(1), notified.Load())

	unsubscribe()
	require.NoError(t, c.ForceRefresh(context.Background()))
	assert.Equal(t, int64(1), notified.Load())
}

func TestListenerUpdateCarriesSources(t *testing.T) {
	// Sources come from the load result, not the surviving postings, so
	// a source whose postings were all deduplicated away still shows up.
	agg := &fakeAggregator{
		postings: []jobs.Posting{{ID: "a-1", Source: "alpha"}},
		sources:  []string{"alpha", "beta"},
		failed:   []string{"gamma"},
	}
	c := newController(agg)

	var got Update
	c.Subscribe(func(u Update) { got = u })

	require.NoError(t, c.ForceRefresh(context.Background()))
	assert.Equal(t, []string{"alpha", "beta"}, got.Sources)
	assert.Equal(t, []string{"gamma"}, got.FailedSources)
}

func TestStartStop(t *testing.T) {
	agg := &fakeAggregator{postings: []jobs.Posting{{ID: "a-1"}}}
	c := newController(agg, WithInterval(time.Hour), WithSnapshotSize(10))

	require.NoError(t, c.Start(context.Background()))
	require.NoError(t, c.Start(context.Background())) // idempotent

	// The immediate cycle runs in the background.
	require.Eventually(t, func() bool {
		return len(c.Current()) == 1
	}, time.Second, 5*time.Millisecond)

	c.Stop()
	c.Stop() // idempotent
}
