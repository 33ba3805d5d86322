package inmemory

import (
	"context"
	"sync"

	"github.com/next-trace/scg-user-event-relay/contract/event"
	"github.com/next-trace/scg-user-event-relay/contract/stream"
)

// StreamName is reported in every Ack issued by Stream.
const StreamName = "inmemory"

// Stream is a thread-safe in-memory implementation of stream.Stream.
// It records appended records with a global sequence, and can be scripted to fail.
type Stream struct {
	mu       sync.Mutex
	records  []stream.Record
	seq      uint64
	failures []error
}

var _ stream.Stream = (*Stream)(nil)

// FailNext makes the next len(errs) publishes fail with errs, in order.
func (s *Stream) FailNext(errs ...error) {
	s.mu.Lock()
	s.failures = append(s.failures, errs...)
	s.mu.Unlock()
}

func (s *Stream) Publish(ctx context.Context, rec stream.Record) (stream.Ack, error) {
	if err := ctx.Err(); err != nil {
		return stream.Ack{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.failures) > 0 {
		err := s.failures[0]
		s.failures = s.failures[1:]

		return stream.Ack{}, err
	}

	s.seq++
	s.records = append(s.records, rec)

	return stream.Ack{Stream: StreamName, Sequence: s.seq}, nil
}

// Records returns a copy of the stored records in append order.
func (s *Stream) Records() []stream.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]stream.Record(nil), s.records...)
}

// Subject returns the stored records whose subject equals subject.
func (s *Stream) Subject(subject string) []stream.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []stream.Record

	for _, r := range s.records {
		if r.Subject == subject {
			out = append(out, r)
		}
	}

	return out
}

// Failure is one message handed to Sink.
type Failure struct {
	Message event.Message
	Cause   error
}

// Sink is a thread-safe in-memory implementation of stream.FailureSink.
type Sink struct {
	mu       sync.Mutex
	Failures []Failure
}

var _ stream.FailureSink = (*Sink)(nil)

func (s *Sink) Sink(ctx context.Context, msg event.Message, cause error) error {
	s.mu.Lock()
	s.Failures = append(s.Failures, Failure{Message: msg, Cause: cause})
	s.mu.Unlock()

	return nil
}

// Snapshot returns a copy of the recorded failures.
func (s *Sink) Snapshot() []Failure {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Failure(nil), s.Failures...)
}

// Adapter combines Stream and Sink.
type Adapter struct {
	Stream
	Sink
}

// New creates a new in-memory adapter instance.
func New() *Adapter { return &Adapter{} }
