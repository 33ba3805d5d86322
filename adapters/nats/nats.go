package nats

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	berr "github.com/next-trace/scg-user-event-relay/contract/errors"
	"github.com/next-trace/scg-user-event-relay/contract/stream"
)

// Client is the slice of jetstream.JetStream the adapter needs.
// Tests provide a fake; Connect wires the real JetStream context.
type Client interface {
	PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Adapter implements stream.Stream on JetStream. Every publish waits for the server ack,
// so a nil error means the record is stored in a stream.
type Adapter struct {
	Client Client
}

// Ensure Adapter implements the stream contract.
var _ stream.Stream = (*Adapter)(nil)

// New creates a new JetStream adapter instance with the provided client.
func New(c Client) *Adapter { return &Adapter{Client: c} }

func (a *Adapter) Publish(ctx context.Context, rec stream.Record) (stream.Ack, error) {
	if err := a.ready(ctx); err != nil {
		return stream.Ack{}, err
	}

	msg := &nats.Msg{
		Subject: rec.Subject,
		Data:    rec.Data,
		Header:  toHeader(rec.Headers),
	}

	ack, err := a.Client.PublishMsg(ctx, msg)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return stream.Ack{}, err
		}

		return stream.Ack{}, fmt.Errorf("nats publish %s: %w", rec.Subject, errors.Join(berr.ErrPublishFailed, err))
	}

	if ack == nil {
		return stream.Ack{}, nil
	}

	return stream.Ack{Stream: ack.Stream, Sequence: ack.Sequence, Duplicate: ack.Duplicate}, nil
}

func (a *Adapter) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.Client == nil {
		return fmt.Errorf("nats publish: %w", berr.ErrNotConnected)
	}

	return nil
}

func toHeader(headers map[string]string) nats.Header {
	if len(headers) == 0 {
		return nil
	}

	h := nats.Header{}
	for k, v := range headers {
		h.Set(k, v)
	}

	return h
}
