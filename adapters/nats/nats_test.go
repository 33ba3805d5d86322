package nats_test

import (
	"context"
	"errors"
	"testing"

	gonats "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/next-trace/scg-user-event-relay/adapters/nats"
	berr "github.com/next-trace/scg-user-event-relay/contract/errors"
	"github.com/next-trace/scg-user-event-relay/contract/stream"
)

type fakeClient struct {
	calls []*gonats.Msg
	ack   *jetstream.PubAck
	err   error
}

func (f *fakeClient) PublishMsg(_ context.Context, msg *gonats.Msg, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	f.calls = append(f.calls, msg)

	return f.ack, f.err
}

func TestJetStream_Publish_MapsRecordAndAck(t *testing.T) {
	fc := &fakeClient{ack: &jetstream.PubAck{Stream: "USER_EVENT", Sequence: 42}}
	ad := nats.New(fc)

	rec := stream.Record{
		Subject: "USER_EVENT.u1",
		Key:     "u1",
		Data:    []byte(`{"subjectId":"u1"}`),
		Headers: map[string]string{"Nats-Msg-Id": "m1", "Content-Type": "application/json"},
	}

	ack, err := ad.Publish(t.Context(), rec)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	if ack.Stream != "USER_EVENT" || ack.Sequence != 42 || ack.Duplicate {
		t.Fatalf("ack mismatch: %+v", ack)
	}

	if len(fc.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(fc.calls))
	}

	m := fc.calls[0]
	if m.Subject != "USER_EVENT.u1" || string(m.Data) != `{"subjectId":"u1"}` {
		t.Fatalf("msg mismatch: %s %s", m.Subject, m.Data)
	}

	if m.Header.Get("Nats-Msg-Id") != "m1" || m.Header.Get("Content-Type") != "application/json" {
		t.Fatalf("headers missing or wrong: %+v", m.Header)
	}
}

func TestJetStream_Publish_DuplicateAck(t *testing.T) {
	fc := &fakeClient{ack: &jetstream.PubAck{Stream: "USER_EVENT", Sequence: 7, Duplicate: true}}

	ack, err := nats.New(fc).Publish(t.Context(), stream.Record{Subject: "USER_EVENT.u1"})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	if !ack.Duplicate {
		t.Fatalf("expected duplicate ack")
	}

	if fc.calls[0].Header != nil {
		t.Fatalf("expected nil header for empty headers, got %+v", fc.calls[0].Header)
	}
}

func TestJetStream_NilClientError(t *testing.T) {
	ad := nats.New(nil)

	_, err := ad.Publish(t.Context(), stream.Record{Subject: "USER_EVENT.u1"})
	if !errors.Is(err, berr.ErrNotConnected) {
		t.Fatalf("want ErrNotConnected, got %v", err)
	}
}

func TestJetStream_Publish_ErrorWrapping_And_ContextCancel(t *testing.T) {
	// client returns broker error -> should wrap
	errNoResponse := errors.New("nats: no response from stream")
	fc := &fakeClient{err: errNoResponse}

	_, err := nats.New(fc).Publish(t.Context(), stream.Record{Subject: "USER_EVENT.u1"})
	if !errors.Is(err, berr.ErrPublishFailed) || !errors.Is(err, errNoResponse) {
		t.Fatalf("want wrapped ErrPublishFailed, got %v", err)
	}

	// client returns context.DeadlineExceeded -> propagate as-is
	fc2 := &fakeClient{err: context.DeadlineExceeded}

	_, err = nats.New(fc2).Publish(t.Context(), stream.Record{Subject: "USER_EVENT.u1"})
	if !errors.Is(err, context.DeadlineExceeded) || errors.Is(err, berr.ErrPublishFailed) {
		t.Fatalf("want bare context.DeadlineExceeded, got %v", err)
	}

	// cancelled context short-circuits before the client
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	fc3 := &fakeClient{}
	if _, err := nats.New(fc3).Publish(ctx, stream.Record{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}

	if len(fc3.calls) != 0 {
		t.Fatalf("expected no client call")
	}
}
