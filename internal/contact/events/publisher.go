package events

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"contactbook/internal/contact/metrics"
	"contactbook/pkg/requestcontext"
)

// DefaultQueueSize bounds the number of undelivered events held in memory.
const DefaultQueueSize = 256

// ErrQueueFull is returned by Emit when the queue has no room.
var ErrQueueFull = errors.New("event queue full")

// Publisher enqueues events for a Worker. Emit never blocks.
type Publisher struct {
	queue   chan Event
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Publisher.
type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithQueueSize overrides DefaultQueueSize.
func WithQueueSize(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.queue = make(chan Event, n)
		}
	}
}

func NewPublisher(opts ...Option) *Publisher {
	p := &Publisher{
		queue:  make(chan Event, DefaultQueueSize),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Emit stamps the event with an id, the request id and a timestamp, then
// queues it. A full queue drops the event and returns ErrQueueFull.
func (p *Publisher) Emit(ctx context.Context, ev Event) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.RequestID == "" {
		ev.RequestID = requestcontext.RequestID(ctx)
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = requestcontext.Now(ctx)
	}

	select {
	case p.queue <- ev:
		return nil
	default:
		p.metrics.IncrementEventDropped("queue_full")
		p.logger.WarnContext(ctx, "dropping contact event",
			"action", ev.Action,
			"contact_id", ev.ContactID,
			"request_id", ev.RequestID,
			"reason", "queue_full",
		)
		return ErrQueueFull
	}
}

// Queue exposes the receive side for the Worker.
func (p *Publisher) Queue() <-chan Event {
	return p.queue
}
