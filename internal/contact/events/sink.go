package events

import (
	"context"
	"log/slog"
)

// LogSink writes events to the structured log. Used when no broker is set.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Deliver(ctx context.Context, ev Event) error {
	s.logger.InfoContext(ctx, "contact event",
		"event_id", ev.ID,
		"action", ev.Action,
		"contact_id", ev.ContactID,
		"request_id", ev.RequestID,
		"occurred_at", ev.OccurredAt,
	)
	return nil
}
