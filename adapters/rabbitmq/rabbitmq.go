package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"maps"

	berr "github.com/next-trace/scg-user-event-relay/contract/errors"
	"github.com/next-trace/scg-user-event-relay/contract/stream"
)

// DefaultExchange is the topic exchange records are published to.
const DefaultExchange = "USER_EVENT"

type PubMsg struct {
	Exchange   string
	RoutingKey string
	Body       []byte
	Headers    map[string]string
}

// Publisher publishes one message and returns its delivery tag once the broker confirms it.
type Publisher interface {
	Publish(ctx context.Context, m PubMsg) (uint64, error)
}

type Adapter struct {
	Publisher Publisher
	Exchange  string
}

var _ stream.Stream = (*Adapter)(nil)

func New(p Publisher) *Adapter { return &Adapter{Publisher: p, Exchange: DefaultExchange} }

// NewWithExchange publishes to the named exchange instead of DefaultExchange.
func NewWithExchange(p Publisher, exchange string) *Adapter {
	return &Adapter{Publisher: p, Exchange: exchange}
}

func (a *Adapter) Publish(ctx context.Context, rec stream.Record) (stream.Ack, error) {
	if err := a.ready(ctx); err != nil {
		return stream.Ack{}, err
	}

	// copy headers to avoid mutating caller-provided map
	hdrs := make(map[string]string, len(rec.Headers))
	maps.Copy(hdrs, rec.Headers)

	msg := PubMsg{
		Exchange:   a.Exchange,
		RoutingKey: rec.Subject,
		Body:       rec.Data,
		Headers:    hdrs,
	}

	tag, err := a.Publisher.Publish(ctx, msg)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return stream.Ack{}, err
		}

		return stream.Ack{}, fmt.Errorf("rabbitmq publish %s: %w", rec.Subject, errors.Join(berr.ErrPublishFailed, err))
	}

	return stream.Ack{Stream: a.Exchange, Sequence: tag}, nil
}

func (a *Adapter) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.Publisher == nil {
		return fmt.Errorf("rabbitmq publish: %w", berr.ErrNotConnected)
	}

	return nil
}
