package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"time"

	"github.com/remotelyhq/jobradar/internal/refresh"
	"github.com/remotelyhq/jobradar/shared/rabbitmq"
)

// RefreshEvent is published after every successful refresh cycle so
// downstream consumers (notifiers, indexers) can react to new data.
type RefreshEvent struct {
	CycleID       string    `json:"cycle_id"`
	Postings      int       `json:"postings"`
	Sources       []string  `json:"sources,omitempty"`
	FailedSources []string  `json:"failed_sources,omitempty"`
	DurationMS    int64     `json:"duration_ms"`
	RefreshedAt   time.Time `json:"refreshed_at"`
}

// Publisher sends refresh events to RabbitMQ. Publish failures are
// logged and swallowed; event delivery must never affect the refresh
// cycle itself.
type Publisher struct {
	client *rabbitmq.Client
	logger *slog.Logger
}

// NewPublisher wraps a connected RabbitMQ client.
func NewPublisher(client *rabbitmq.Client, logger *slog.Logger) *Publisher {
	return &Publisher{client: client, logger: logger}
}

// PublishRefresh emits one refresh event.
func (p *Publisher) PublishRefresh(ctx context.Context, event RefreshEvent) {
	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to encode refresh event",
			slog.Any("error", err),
		)
		return
	}

	if err := p.client.PublishWithRetry(ctx, body, "application/json"); err != nil {
		p.logger.Error("Failed to publish refresh event",
			slog.String("cycle_id", event.CycleID),
			slog.Any("error", err),
		)
		return
	}

	p.logger.Debug("Refresh event published",
		slog.String("cycle_id", event.CycleID),
		slog.Int("postings", event.Postings),
	)
}

// Listener adapts the publisher to the refresh controller's listener
// contract.
func (p *Publisher) Listener() refresh.Listener {
	return func(u refresh.Update) {
		sources := make([]string, len(u.Sources))
		copy(sources, u.Sources)
		sort.Strings(sources)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		p.PublishRefresh(ctx, RefreshEvent{
			CycleID:       u.CycleID,
			Postings:      len(u.Postings),
			Sources:       sources,
			FailedSources: u.FailedSources,
			DurationMS:    u.Duration.Milliseconds(),
			RefreshedAt:   u.RefreshedAt,
		})
	}
}

// Close releases the underlying client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
