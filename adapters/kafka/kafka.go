package kafka

import (
	"context"
	"errors"
	"fmt"
	"strings"

	berr "github.com/next-trace/scg-user-event-relay/contract/errors"
	"github.com/next-trace/scg-user-event-relay/contract/stream"
)

// Writer is a minimal synchronous Kafka producer.
// It returns the partition and offset the broker assigned once the record is acknowledged.
type Writer interface {
	Write(ctx context.Context, topic string, key, value []byte, headers map[string]string) (partition int32, offset int64, err error)
}

// Adapter implements stream.Stream using an injected Writer.
//
// Kafka topics are not hierarchical, so the subject "USER_EVENT.u1" is written to topic
// "USER_EVENT" keyed by the record key. All events of one subject id share a partition.
type Adapter struct {
	Writer Writer
}

var _ stream.Stream = (*Adapter)(nil)

// New creates a new Kafka adapter instance with the provided writer.
func New(w Writer) *Adapter { return &Adapter{Writer: w} }

func (a *Adapter) Publish(ctx context.Context, rec stream.Record) (stream.Ack, error) {
	if err := ctx.Err(); err != nil {
		return stream.Ack{}, err
	}

	if a.Writer == nil {
		return stream.Ack{}, fmt.Errorf("kafka publish: %w", berr.ErrNotConnected)
	}

	topic, key := topicAndKey(rec)

	partition, offset, err := a.Writer.Write(ctx, topic, []byte(key), rec.Data, rec.Headers)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return stream.Ack{}, err
		}

		// separate return from preceding multi-line block (wsl)
		return stream.Ack{}, fmt.Errorf("kafka publish write %q: %w", topic, errors.Join(berr.ErrPublishFailed, err))
	}

	return stream.Ack{
		Stream:   fmt.Sprintf("%s/%d", topic, partition),
		Sequence: uint64(max(offset, 0)),
	}, nil
}

// topicAndKey splits "PREFIX.rest" into topic PREFIX and key rest, preferring an explicit Key.
func topicAndKey(rec stream.Record) (string, string) {
	topic, rest, found := strings.Cut(rec.Subject, ".")
	if !found {
		return rec.Subject, rec.Key
	}

	if rec.Key != "" {
		return topic, rec.Key
	}

	return topic, rest
}
