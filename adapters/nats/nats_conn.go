package nats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	berr "github.com/next-trace/scg-user-event-relay/contract/errors"
)

// Concrete NATS connection-backed JetStream client and constructor.

type Config struct {
	URL           string
	Name          string
	ConnTimeout   time.Duration
	MaxReconnects int

	// EnsureStream creates or updates StreamName bound to Subjects before the adapter is returned.
	EnsureStream bool
	StreamName   string
	Subjects     []string
}

// Connect dials NATS, opens a JetStream context and returns an Adapter and a cleanup.
// A failure at any step closes the connection and reports ErrConnectFailed, so callers
// can abort startup without leaking the handle.
func Connect(ctx context.Context, cfg Config) (*Adapter, func(), error) {
	if cfg.URL == "" {
		return nil, nil, fmt.Errorf("%w: nats url required", berr.ErrConfigInvalid)
	}

	opts := []nats.Option{}
	if cfg.Name != "" {
		opts = append(opts, nats.Name(cfg.Name))
	}

	if cfg.ConnTimeout > 0 {
		opts = append(opts, nats.Timeout(cfg.ConnTimeout))
	}

	if cfg.MaxReconnects != 0 {
		opts = append(opts, nats.MaxReconnects(cfg.MaxReconnects))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: nats connect: %w", berr.ErrConnectFailed, err)
	}

	cleanup := func() {
		if nc != nil && !nc.IsClosed() {
			_ = nc.Drain() //nolint:errcheck // best-effort shutdown; cannot return error here
			nc.Close()
		}
	}

	js, err := jetstream.New(nc)
	if err != nil {
		cleanup()

		return nil, nil, fmt.Errorf("%w: jetstream init: %w", berr.ErrConnectFailed, err)
	}

	if cfg.EnsureStream {
		if err := ensureStream(ctx, js, cfg); err != nil {
			cleanup()

			return nil, nil, err
		}
	}

	return New(js), cleanup, nil
}

func ensureStream(ctx context.Context, js jetstream.JetStream, cfg Config) error {
	if cfg.StreamName == "" || len(cfg.Subjects) == 0 {
		return fmt.Errorf("%w: stream name and subjects required", berr.ErrConfigInvalid)
	}

	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       cfg.StreamName,
		Subjects:   cfg.Subjects,
		Storage:    jetstream.FileStorage,
		Retention:  jetstream.LimitsPolicy,
		Duplicates: 2 * time.Minute,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("%w: ensure stream %s: %w", berr.ErrConnectFailed, cfg.StreamName, err)
	}

	return nil
}
