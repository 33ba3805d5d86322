package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	berr "github.com/next-trace/scg-user-event-relay/contract/errors"
	"github.com/next-trace/scg-user-event-relay/contract/event"
	"github.com/next-trace/scg-user-event-relay/contract/stream"
)

const (
	// DefaultSubjectPrefix is the first token of every destination subject.
	DefaultSubjectPrefix = "USER_EVENT"

	maxAttempts    = 3
	initialBackoff = time.Second

	HeaderMsgID       = "Nats-Msg-Id"
	HeaderContentType = "Content-Type"
	HeaderSourceKind  = "Source-Kind"
	HeaderOperation   = "Operation"
)

// Publisher serializes messages and appends them to a Stream with bounded retries.
// Each Publish call keeps its own retry state, so one Publisher may be shared freely.
type Publisher struct {
	stream     stream.Stream
	sink       stream.FailureSink
	propagator stream.HeaderPropagator
	observer   Observer
	logger     *slog.Logger

	prefix  string
	marshal func(v any) ([]byte, error)
	wait    func(ctx context.Context, d time.Duration) error
	newID   func() string
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithFailureSink sets the collaborator that receives exhausted messages.
func WithFailureSink(s stream.FailureSink) PublisherOption {
	return func(p *Publisher) { p.sink = s }
}

// WithPropagator injects tracing context into every record's headers.
func WithPropagator(hp stream.HeaderPropagator) PublisherOption {
	return func(p *Publisher) { p.propagator = hp }
}

// WithObserver records publish attempts and outcomes.
func WithObserver(o Observer) PublisherOption {
	return func(p *Publisher) { p.observer = o }
}

// WithLogger sets the publisher logger.
func WithLogger(l *slog.Logger) PublisherOption {
	return func(p *Publisher) { p.logger = l }
}

// WithSubjectPrefix replaces DefaultSubjectPrefix.
func WithSubjectPrefix(prefix string) PublisherOption {
	return func(p *Publisher) { p.prefix = prefix }
}

// WithMarshaler replaces encoding/json as the wire encoder.
func WithMarshaler(fn func(v any) ([]byte, error)) PublisherOption {
	return func(p *Publisher) { p.marshal = fn }
}

// WithWaiter replaces the backoff wait. fn must return ctx.Err() when ctx ends first.
func WithWaiter(fn func(ctx context.Context, d time.Duration) error) PublisherOption {
	return func(p *Publisher) { p.wait = fn }
}

// WithMessageID replaces the generator of the per-message de-duplication id.
func WithMessageID(fn func() string) PublisherOption {
	return func(p *Publisher) { p.newID = fn }
}

// NewPublisher constructs a Publisher over the shared stream handle s.
func NewPublisher(s stream.Stream, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		stream:     s,
		propagator: stream.NopHeaderPropagator{},
		observer:   nopObserver{},
		prefix:     DefaultSubjectPrefix,
		marshal:    json.Marshal,
		wait:       sleep,
		newID:      uuid.NewString,
	}

	for _, o := range opts {
		o(p)
	}

	if p.logger == nil {
		p.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if p.observer == nil {
		p.observer = nopObserver{}
	}

	if p.propagator == nil {
		p.propagator = stream.NopHeaderPropagator{}
	}

	return p
}

// Subject returns the destination subject for msg.
func (p *Publisher) Subject(msg event.Message) string {
	return p.prefix + "." + msg.SubjectID
}

// Publish delivers msg with up to three attempts, waiting 1s then 2s between them.
// Delivery failures never surface: an exhausted message goes to the failure sink and a
// message that cannot be serialized is logged and dropped. The only error returned is
// ctx.Err() when the context ends during a wait or a broker round-trip; no further
// attempts are made and nothing is sunk in that case.
func (p *Publisher) Publish(ctx context.Context, msg event.Message) error {
	subject := p.Subject(msg)
	log := p.logger.With("subject", subject, "subject_id", msg.SubjectID)

	body, err := p.marshal(msg)
	if err != nil {
		log.ErrorContext(ctx, "serialize message", "error", errors.Join(berr.ErrSerializationFailed, err))
		p.observer.PublishFinished(OutcomeSerializationFailed)

		return nil
	}

	rec := stream.Record{
		Subject: subject,
		Key:     msg.SubjectID,
		Data:    body,
		Headers: p.headers(ctx, msg),
	}

	backoff := initialBackoff

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return p.cancelled(ctx, log, attempt, err)
		}

		ack, err := p.stream.Publish(ctx, rec)
		if err == nil {
			p.observer.AttemptFinished(true)
			p.observer.PublishFinished(OutcomePublished)
			log.InfoContext(ctx, "published event",
				"stream", ack.Stream, "seq", ack.Sequence, "duplicate", ack.Duplicate, "attempt", attempt)

			return nil
		}

		p.observer.AttemptFinished(false)

		if ctxErr := ctx.Err(); ctxErr != nil {
			return p.cancelled(ctx, log, attempt, ctxErr)
		}

		lastErr = err
		log.WarnContext(ctx, "publish attempt failed", "attempt", attempt, "max_attempts", maxAttempts, "error", err)

		if attempt == maxAttempts {
			break
		}

		if err := p.wait(ctx, backoff); err != nil {
			return p.cancelled(ctx, log, attempt, err)
		}

		backoff *= 2
	}

	log.ErrorContext(ctx, "giving up on event", "attempts", maxAttempts, "error", lastErr)
	p.fail(ctx, log, msg, lastErr)

	return nil
}

func (p *Publisher) fail(ctx context.Context, log *slog.Logger, msg event.Message, cause error) {
	p.observer.PublishFinished(OutcomeSunk)

	if p.sink == nil {
		return
	}

	if err := p.sink.Sink(ctx, msg, cause); err != nil {
		log.ErrorContext(ctx, "failure sink rejected event", "error", errors.Join(berr.ErrSinkFailed, err))
	}
}

func (p *Publisher) cancelled(ctx context.Context, log *slog.Logger, attempt int, err error) error {
	p.observer.PublishFinished(OutcomeCancelled)
	log.WarnContext(ctx, "publish cancelled", "attempt", attempt, "error", err)

	return err
}

func (p *Publisher) headers(ctx context.Context, msg event.Message) map[string]string {
	h := map[string]string{
		HeaderContentType: "application/json",
		HeaderMsgID:       p.newID(),
		HeaderSourceKind:  string(msg.SourceKind),
		HeaderOperation:   string(msg.Operation),
	}

	p.propagator.Inject(ctx, h)

	return h
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
