package handler

import (
	"context"
	"log/slog"

	"github.com/remotelyhq/jobradar/internal/aggregate"
	"github.com/remotelyhq/jobradar/internal/cache"
	"github.com/remotelyhq/jobradar/internal/jobs"
	"github.com/remotelyhq/jobradar/internal/rank"
	"github.com/remotelyhq/jobradar/internal/refresh"
)

// Aggregator is the slice of the loader the handlers need.
type Aggregator interface {
	Load(ctx context.Context, query string, filters jobs.Filters, page, pageSize int) *aggregate.Result
}

// Refresher is the slice of the refresh controller the handlers need.
type Refresher interface {
	ForceRefresh(ctx context.Context) error
	Status() refresh.Status
	Current() []jobs.Posting
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger    *slog.Logger
	Loader    Aggregator
	Refresher Refresher
	Ranker    *rank.Engine
	Cache     *cache.Cache
}

// JobHandler handles job aggregation HTTP requests
type JobHandler struct {
	logger    *slog.Logger
	loader    Aggregator
	refresher Refresher
	ranker    *rank.Engine
	cache     *cache.Cache
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger:    deps.Logger,
		loader:    deps.Loader,
		refresher: deps.Refresher,
		ranker:    deps.Ranker,
		cache:     deps.Cache,
	}
}
