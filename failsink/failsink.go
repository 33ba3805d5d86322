// Package failsink provides stream.FailureSink implementations for messages whose delivery
// was exhausted: a log line, a JSON-lines file, a Redis list and a Postgres table.
package failsink

import (
	"context"
	"errors"
	"time"

	"github.com/next-trace/scg-user-event-relay/contract/event"
	"github.com/next-trace/scg-user-event-relay/contract/stream"
)

// Record is the stored form of one failed delivery.
type Record struct {
	FailedAt time.Time     `json:"failedAt"`
	Cause    string        `json:"cause"`
	Message  event.Message `json:"message"`
}

func newRecord(now time.Time, msg event.Message, cause error) Record {
	r := Record{FailedAt: now.UTC(), Message: msg}
	if cause != nil {
		r.Cause = cause.Error()
	}

	return r
}

type multi []stream.FailureSink

// Multi hands each failure to every sink and joins their errors.
func Multi(sinks ...stream.FailureSink) stream.FailureSink { //nolint:ireturn
	return multi(sinks)
}

func (m multi) Sink(ctx context.Context, msg event.Message, cause error) error {
	var errs []error

	for _, s := range m {
		if s == nil {
			continue
		}

		if err := s.Sink(ctx, msg, cause); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
