package memory

import (
	"log/slog"

	"github.com/next-trace/scg-user-event-relay/adapters/inmemory"
	"github.com/next-trace/scg-user-event-relay/relay"
)

// New constructs a dispatcher whose publisher appends to an in-memory stream and hands
// exhausted messages to an in-memory sink. The adapter is returned for inspection and
// scripting failures. opts are applied after the in-memory stream and sink are wired.
func New(logger *slog.Logger, opts ...relay.PublisherOption) (*relay.Dispatcher, *inmemory.Adapter) {
	ad := inmemory.New()

	base := []relay.PublisherOption{
		relay.WithFailureSink(&ad.Sink),
		relay.WithLogger(logger),
	}

	pub := relay.NewPublisher(&ad.Stream, append(base, opts...)...)
	d := relay.NewDispatcher(pub, logger)

	return d, ad
}
