package relay_test

import (
	"context"
	"sync"
	"time"

	"github.com/next-trace/scg-user-event-relay/contract/event"
	"github.com/next-trace/scg-user-event-relay/contract/stream"
	"github.com/next-trace/scg-user-event-relay/relay"
)

// fakeStream fails the first len(errs) publishes with the scripted errors.
type fakeStream struct {
	mu    sync.Mutex
	errs  []error
	calls []stream.Record
	hook  func(attempt int)
}

func (f *fakeStream) Publish(ctx context.Context, rec stream.Record) (stream.Ack, error) {
	f.mu.Lock()
	f.calls = append(f.calls, rec)
	n := len(f.calls)
	hook := f.hook
	f.mu.Unlock()

	if hook != nil {
		hook(n)
	}

	if n <= len(f.errs) && f.errs[n-1] != nil {
		return stream.Ack{}, f.errs[n-1]
	}

	return stream.Ack{Stream: "USER_EVENT", Sequence: uint64(n)}, nil
}

func (f *fakeStream) records() []stream.Record {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]stream.Record(nil), f.calls...)
}

type sunk struct {
	msg   event.Message
	cause error
}

type fakeSink struct {
	mu    sync.Mutex
	calls []sunk
	err   error
}

func (f *fakeSink) Sink(_ context.Context, msg event.Message, cause error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, sunk{msg: msg, cause: cause})

	return f.err
}

// recordingWaiter records requested backoff durations instead of sleeping.
type recordingWaiter struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (w *recordingWaiter) wait(ctx context.Context, d time.Duration) error {
	w.mu.Lock()
	w.waits = append(w.waits, d)
	w.mu.Unlock()

	return ctx.Err()
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []event.Message
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, msg event.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.msgs = append(f.msgs, msg)

	return f.err
}

type countingObserver struct {
	mu       sync.Mutex
	received map[event.SourceKind]int
	dropped  map[event.SourceKind]int
	attempts map[bool]int
	outcomes map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{
		received: map[event.SourceKind]int{},
		dropped:  map[event.SourceKind]int{},
		attempts: map[bool]int{},
		outcomes: map[string]int{},
	}
}

func (o *countingObserver) EventReceived(s event.SourceKind) {
	o.mu.Lock()
	o.received[s]++
	o.mu.Unlock()
}

func (o *countingObserver) EventDropped(s event.SourceKind) {
	o.mu.Lock()
	o.dropped[s]++
	o.mu.Unlock()
}

func (o *countingObserver) AttemptFinished(ok bool) {
	o.mu.Lock()
	o.attempts[ok]++
	o.mu.Unlock()
}

func (o *countingObserver) PublishFinished(outcome relay.Outcome) {
	o.mu.Lock()
	o.outcomes[string(outcome)]++
	o.mu.Unlock()
}
