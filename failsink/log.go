package failsink

import (
	"context"
	"log/slog"

	"github.com/next-trace/scg-user-event-relay/contract/event"
)

// Log writes each failure to a logger at error level. It never fails.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}

	return &Log{logger: logger}
}

func (l *Log) Sink(ctx context.Context, msg event.Message, cause error) error {
	l.logger.ErrorContext(ctx, "event delivery exhausted",
		"source_kind", msg.SourceKind,
		"operation", msg.Operation,
		"subject_id", msg.SubjectID,
		"error", cause,
	)

	return nil
}
