package events

import (
	"context"
	"log/slog"
	"time"

	"contactbook/internal/contact/metrics"
)

// drainTimeout bounds delivery of events still queued at shutdown.
const drainTimeout = 5 * time.Second

// Sink delivers events to their destination.
type Sink interface {
	Deliver(ctx context.Context, ev Event) error
}

// Worker consumes events from the publisher queue and hands them to a Sink.
// A failing delivery is logged and counted; the worker keeps going.
type Worker struct {
	sink    Sink
	inbox   <-chan Event
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewWorker(sink Sink, inbox <-chan Event, logger *slog.Logger, m *metrics.Metrics) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{sink: sink, inbox: inbox, logger: logger, metrics: m}
}

// Run delivers events until ctx is cancelled, then flushes whatever is
// already queued and returns nil.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain(ctx)
			return nil
		case ev := <-w.inbox:
			w.deliver(ctx, ev)
		}
	}
}

func (w *Worker) drain(ctx context.Context) {
	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
	defer cancel()
	for {
		select {
		case ev := <-w.inbox:
			w.deliver(drainCtx, ev)
		default:
			return
		}
	}
}

func (w *Worker) deliver(ctx context.Context, ev Event) {
	if err := w.sink.Deliver(ctx, ev); err != nil {
		w.metrics.IncrementEventDropped("sink_error")
		w.logger.ErrorContext(ctx, "failed to deliver contact event",
			"event_id", ev.ID,
			"action", ev.Action,
			"contact_id", ev.ContactID,
			"error", err,
		)
	}
}
