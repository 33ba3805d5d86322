package relay

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/next-trace/scg-user-event-relay/contract/event"
)

// MessagePublisher is the publish step the Dispatcher routes to. *Publisher implements it.
type MessagePublisher interface {
	Publish(ctx context.Context, msg event.Message) error
}

// Dispatcher is the callback surface the identity provider invokes, once per event.
// It holds no per-call state and never returns or panics into the caller.
type Dispatcher struct {
	pub      MessagePublisher
	logger   *slog.Logger
	observer Observer
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatchObserver records received and dropped events.
func WithDispatchObserver(o Observer) DispatcherOption {
	return func(d *Dispatcher) {
		if o != nil {
			d.observer = o
		}
	}
}

// NewDispatcher constructs a Dispatcher that hands mapped messages to pub.
func NewDispatcher(pub MessagePublisher, logger *slog.Logger, opts ...DispatcherOption) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	d := &Dispatcher{pub: pub, logger: logger, observer: nopObserver{}}
	for _, o := range opts {
		o(d)
	}

	return d
}

// OnUserEvent handles a self-service event. A nil event is a no-op.
func (d *Dispatcher) OnUserEvent(ctx context.Context, e *event.UserEvent) {
	if e == nil {
		return
	}

	d.dispatch(ctx, event.SourceUserEvent, e)
}

// OnAdminEvent handles an administrative event. A nil event is a no-op.
// includeRepresentation is accepted for callback parity and does not affect routing.
func (d *Dispatcher) OnAdminEvent(ctx context.Context, e *event.AdminEvent, includeRepresentation bool) {
	_ = includeRepresentation

	if e == nil {
		return
	}

	d.dispatch(ctx, event.SourceAdminEvent, e)
}

func (d *Dispatcher) dispatch(ctx context.Context, source event.SourceKind, raw event.RawEvent) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.ErrorContext(ctx, "event dispatch panicked",
				"source", source, "panic", fmt.Sprint(r))
		}
	}()

	d.observer.EventReceived(source)

	op, ok := Classify(raw)
	if !ok {
		d.observer.EventDropped(source)
		d.logger.DebugContext(ctx, "event out of scope", "source", source, "event", raw)

		return
	}

	d.logger.InfoContext(ctx, "identity event", "source", source, "operation", op, "event", raw)

	if err := d.pub.Publish(ctx, Map(raw, op)); err != nil {
		d.logger.DebugContext(ctx, "event dispatch interrupted", "source", source, "error", err)
	}
}
