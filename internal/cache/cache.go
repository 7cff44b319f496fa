package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrNotFound is returned by stores when a key is absent or expired.
var ErrNotFound = errors.New("cache: key not found")

const (
	// DefaultFastTTL bounds how long entries live in the in-process tier.
	DefaultFastTTL = 5 * time.Minute
	// DefaultSlowTTL bounds how long entries live in the backing store.
	DefaultSlowTTL = 1 * time.Hour
)

// Entry is a cached value with its lifetime. Values are stored as raw
// JSON so both tiers share one representation.
type Entry struct {
	Value     json.RawMessage `json:"value" db:"payload"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	ExpiresAt time.Time       `json:"expires_at" db:"expires_at"`
}

// Expired reports whether the entry's lifetime has passed at now.
func (e Entry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Store is the slow cache tier. Implementations return ErrNotFound for
// missing keys and may be backed by Redis, Postgres, or memory.
type Store interface {
	Get(ctx context.Context, key string) (Entry, error)
	Set(ctx context.Context, key string, entry Entry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Close() error
}

// Stats reports cache effectiveness counters.
type Stats struct {
	FastEntries int     `json:"fast_entries"`
	FastHits    int64   `json:"fast_hits"`
	SlowHits    int64   `json:"slow_hits"`
	Misses      int64   `json:"misses"`
	HitRate     float64 `json:"hit_rate"`
}

// Cache layers a mutex-guarded in-process map over a Store. Reads try
// the fast tier first and promote slow-tier hits; expired entries are
// deleted on sight from both tiers.
type Cache struct {
	mu      sync.Mutex
	fast    map[string]Entry
	slow    Store
	fastTTL time.Duration
	slowTTL time.Duration
	logger  *slog.Logger

	fastHits int64
	slowHits int64
	misses   int64

	now func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTLs overrides the fast and slow tier lifetimes.
func WithTTLs(fast, slow time.Duration) Option {
	return func(c *Cache) {
		if fast > 0 {
			c.fastTTL = fast
		}
		if slow > 0 {
			c.slowTTL = slow
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates a two-tier cache. A nil store leaves only the fast tier
// active.
func New(store Store, logger *slog.Logger, opts ...Option) *Cache {
	c := &Cache{
		fast:    make(map[string]Entry),
		slow:    store,
		fastTTL: DefaultFastTTL,
		slowTTL: DefaultSlowTTL,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get looks the key up in the fast tier, then the slow tier, promoting
// slow hits. The second return is false on a miss.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	now := c.now()

	c.mu.Lock()
	if entry, ok := c.fast[key]; ok {
		if !entry.Expired(now) {
			c.fastHits++
			c.mu.Unlock()
			return true, json.Unmarshal(entry.Value, dest)
		}
		delete(c.fast, key)
	}
	c.mu.Unlock()

	if c.slow == nil {
		c.miss()
		return false, nil
	}

	entry, err := c.slow.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.logger.Warn("Slow cache tier read failed",
				slog.String("key", key),
				slog.Any("error", err),
			)
		}
		c.miss()
		return false, nil
	}

	if entry.Expired(now) {
		if err := c.slow.Delete(ctx, key); err != nil {
			c.logger.Warn("Failed to delete expired cache entry",
				slog.String("key", key),
				slog.Any("error", err),
			)
		}
		c.miss()
		return false, nil
	}

	// Promote with a fresh fast-tier lifetime, capped by the entry's own
	// remaining lifetime.
	promoted := entry
	if exp := now.Add(c.fastTTL); exp.Before(promoted.ExpiresAt) {
		promoted.ExpiresAt = exp
	}
	c.mu.Lock()
	c.fast[key] = promoted
	c.slowHits++
	c.mu.Unlock()

	return true, json.Unmarshal(entry.Value, dest)
}

// Set stores the value in both tiers with the default lifetimes.
func (c *Cache) Set(ctx context.Context, key string, value interface{}) error {
	return c.SetWithTTL(ctx, key, value, c.fastTTL, c.slowTTL)
}

// SetWithTTL stores the value with explicit per-tier lifetimes. A
// slow-tier write failure is logged, not returned, so callers keep
// working on the fast tier alone.
func (c *Cache) SetWithTTL(ctx context.Context, key string, value interface{}, fastTTL, slowTTL time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	now := c.now()

	c.mu.Lock()
	c.fast[key] = Entry{Value: raw, CreatedAt: now, ExpiresAt: now.Add(fastTTL)}
	c.mu.Unlock()

	if c.slow != nil {
		entry := Entry{Value: raw, CreatedAt: now, ExpiresAt: now.Add(slowTTL)}
		if err := c.slow.Set(ctx, key, entry); err != nil {
			c.logger.Warn("Slow cache tier write failed",
				slog.String("key", key),
				slog.Any("error", err),
			)
		}
	}
	return nil
}

// Invalidate removes one key from both tiers.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	c.mu.Lock()
	delete(c.fast, key)
	c.mu.Unlock()

	if c.slow != nil {
		if err := c.slow.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
			c.logger.Warn("Failed to invalidate cache entry",
				slog.String("key", key),
				slog.Any("error", err),
			)
		}
	}
}

// Clear empties both tiers.
func (c *Cache) Clear(ctx context.Context) {
	c.mu.Lock()
	c.fast = make(map[string]Entry)
	c.mu.Unlock()

	if c.slow != nil {
		if err := c.slow.Clear(ctx); err != nil {
			c.logger.Warn("Failed to clear slow cache tier",
				slog.Any("error", err),
			)
		}
	}
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		FastEntries: len(c.fast),
		FastHits:    c.fastHits,
		SlowHits:    c.slowHits,
		Misses:      c.misses,
	}
	if total := s.FastHits + s.SlowHits + s.Misses; total > 0 {
		s.HitRate = float64(s.FastHits+s.SlowHits) / float64(total)
	}
	return s
}

// Close releases the slow tier.
func (c *Cache) Close() error {
	if c.slow != nil {
		return c.slow.Close()
	}
	return nil
}

func (c *Cache) miss() {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
}
