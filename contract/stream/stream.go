package stream

import (
	"context"

	"github.com/next-trace/scg-user-event-relay/contract/event"
)

// Record is one durable append addressed to a hierarchical subject.
// Key carries the subject id so transports without per-subject topics can partition on it.
type Record struct {
	Subject string
	Key     string
	Data    []byte
	Headers map[string]string
}

// Ack is the broker's acknowledgement of a durable append.
// Sequence is the broker-assigned position (stream sequence, partition offset or delivery tag).
type Ack struct {
	Stream    string
	Sequence  uint64
	Duplicate bool
}

// Stream abstracts a durable append-only destination (JetStream, Kafka, RabbitMQ, in-memory).
// Implementations must be safe for concurrent use; a single handle is shared by every publish.
type Stream interface {
	Publish(ctx context.Context, rec Record) (Ack, error)
}

// FailureSink receives messages whose delivery was exhausted, together with the last error.
// Implementations must be safe for concurrent use.
type FailureSink interface {
	Sink(ctx context.Context, msg event.Message, cause error) error
}

// FailureSinkFunc adapts a function to FailureSink.
type FailureSinkFunc func(ctx context.Context, msg event.Message, cause error) error

func (f FailureSinkFunc) Sink(ctx context.Context, msg event.Message, cause error) error {
	return f(ctx, msg, cause)
}
