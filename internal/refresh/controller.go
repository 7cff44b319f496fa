package refresh

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/remotelyhq/jobradar/internal/aggregate"
	"github.com/remotelyhq/jobradar/internal/jobs"
)

// ErrRefreshInProgress is returned when a refresh is requested while
// another one is still running. Requests are rejected, not queued.
var ErrRefreshInProgress = errors.New("refresh: cycle already in progress")

const (
	// DefaultInterval is how often the background refresh runs.
	DefaultInterval = 10 * time.Minute
	// DefaultSnapshotSize is how many postings one refresh cycle loads.
	DefaultSnapshotSize = 100
)

// Aggregator is the slice of the loader the controller needs.
type Aggregator interface {
	Load(ctx context.Context, query string, filters jobs.Filters, page, pageSize int) *aggregate.Result
	Reset()
}

// Update summarizes one successful refresh cycle. Sources are the
// sources that answered the cycle, even when every posting they
// contributed was deduplicated away.
type Update struct {
	CycleID       string
	Postings      []jobs.Posting
	Sources       []string
	FailedSources []string
	Duration      time.Duration
	RefreshedAt   time.Time
}

// Listener is notified after every successful refresh cycle.
type Listener func(Update)

// Status describes the controller's recent activity.
type Status struct {
	Refreshing   bool      `json:"refreshing"`
	LastRefresh  time.Time `json:"last_refresh,omitempty"`
	LastCycleID  string    `json:"last_cycle_id,omitempty"`
	LastDuration string    `json:"last_duration,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
	Cycles       int       `json:"cycles"`
	Failures     int       `json:"failures"`
	SnapshotSize int       `json:"snapshot_size"`
}

// Controller periodically rebuilds an in-memory snapshot of postings.
// A failed cycle keeps the previous snapshot; overlapping cycles are
// rejected rather than queued.
type Controller struct {
	agg          Aggregator
	logger       *slog.Logger
	interval     time.Duration
	snapshotSize int

	cron    *cron.Cron
	entryID cron.EntryID

	mu          sync.Mutex
	refreshing  bool
	snapshot    []jobs.Posting
	lastRefresh time.Time
	lastCycleID string
	lastCycle   time.Duration
	lastErr     error
	cycles      int
	failures    int
	listeners   map[int]Listener
	nextListen  int
	started     bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithInterval overrides the refresh interval.
func WithInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithSnapshotSize overrides how many postings each cycle loads.
func WithSnapshotSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.snapshotSize = n
		}
	}
}

// NewController creates a Controller. Start must be called to begin
// the refresh schedule.
func NewController(agg Aggregator, logger *slog.Logger, opts ...Option) *Controller {
	c := &Controller{
		agg:          agg,
		logger:       logger,
		interval:     DefaultInterval,
		snapshotSize: DefaultSnapshotSize,
		listeners:    make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start runs one refresh immediately in the background and schedules
// recurring refreshes. Calling Start twice is a no-op.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.cron = cron.New()
	c.mu.Unlock()

	id, err := c.cron.AddFunc("@every "+c.interval.String(), func() {
		if err := c.refresh(ctx); err != nil && !errors.Is(err, ErrRefreshInProgress) {
			c.logger.Error("Scheduled refresh failed",
				slog.Any("error", err),
			)
		}
	})
	if err != nil {
		return err
	}
	c.entryID = id
	c.cron.Start()

	go func() {
		if err := c.refresh(ctx); err != nil {
			c.logger.Error("Initial refresh failed",
				slog.Any("error", err),
			)
		}
	}()

	c.logger.Info("Refresh controller started",
		slog.Duration("interval", c.interval),
		slog.Int("snapshot_size", c.snapshotSize),
	)
	return nil
}

// Stop halts the refresh schedule and waits for a running cron job to
// finish. Safe to call more than once.
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	c.started = false
	cr := c.cron
	c.mu.Unlock()

	<-cr.Stop().Done()
	c.logger.Info("Refresh controller stopped")
}

// ForceRefresh runs one refresh cycle now. It returns
// ErrRefreshInProgress when a cycle is already running.
func (c *Controller) ForceRefresh(ctx context.Context) error {
	return c.refresh(ctx)
}

// Current returns the latest snapshot. The slice is shared; callers
// must not mutate it.
func (c *Controller) Current() []jobs.Posting {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// Status reports the controller's recent activity.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Status{
		Refreshing:   c.refreshing,
		LastRefresh:  c.lastRefresh,
		LastCycleID:  c.lastCycleID,
		Cycles:       c.cycles,
		Failures:     c.failures,
		SnapshotSize: len(c.snapshot),
	}
	if c.lastCycle > 0 {
		s.LastDuration = c.lastCycle.String()
	}
	if c.lastErr != nil {
		s.LastError = c.lastErr.Error()
	}
	return s
}

// Subscribe registers a listener for successful refreshes and returns
// a function that removes it.
func (c *Controller) Subscribe(l Listener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextListen
	c.nextListen++
	c.listeners[id] = l

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// refresh runs one cycle: reset the loader session, load a fresh
// snapshot, stamp it, swap it in, and notify listeners.
func (c *Controller) refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.refreshing {
		c.mu.Unlock()
		return ErrRefreshInProgress
	}
	c.refreshing = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.refreshing = false
		c.mu.Unlock()
	}()

	cycleID := uuid.NewString()
	start := time.Now()

	c.logger.Info("Refresh cycle started",
		slog.String("cycle_id", cycleID),
	)

	c.agg.Reset()
	res := c.agg.Load(ctx, "", jobs.Filters{}, 1, c.snapshotSize)

	elapsed := time.Since(start)

	if res.Err != "" {
		err := errors.New(res.Err)
		c.mu.Lock()
		c.failures++
		c.cycles++
		c.lastErr = err
		c.lastCycleID = cycleID
		c.lastCycle = elapsed
		c.mu.Unlock()

		c.logger.Error("Refresh cycle failed, keeping previous snapshot",
			slog.String("cycle_id", cycleID),
			slog.String("error", res.Err),
			slog.Duration("elapsed", elapsed),
		)
		return err
	}

	snapshot := make([]jobs.Posting, len(res.Postings))
	copy(snapshot, res.Postings)
	for i := range snapshot {
		snapshot[i].FetchedAt = start
		snapshot[i].Fresh = true
	}

	c.mu.Lock()
	c.snapshot = snapshot
	c.lastRefresh = start
	c.lastCycleID = cycleID
	c.lastCycle = elapsed
	c.lastErr = nil
	c.cycles++
	listeners := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()

	update := Update{
		CycleID:       cycleID,
		Postings:      snapshot,
		Sources:       res.Sources,
		FailedSources: res.FailedSources,
		Duration:      elapsed,
		RefreshedAt:   start,
	}
	for _, l := range listeners {
		c.notify(l, update)
	}

	c.logger.Info("Refresh cycle completed",
		slog.String("cycle_id", cycleID),
		slog.Int("postings", len(snapshot)),
		slog.Int("failed_sources", len(res.FailedSources)),
		slog.Duration("elapsed", elapsed),
	)
	return nil
}

// notify calls one listener, recovering panics so a bad listener
// cannot break the cycle.
func (c *Controller) notify(l Listener, update Update) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Refresh listener panicked",
				slog.String("cycle_id", update.CycleID),
				slog.Any("panic", r),
			)
		}
	}()
	l(update)
}
