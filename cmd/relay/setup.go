package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/next-trace/scg-user-event-relay/adapters"
	berr "github.com/next-trace/scg-user-event-relay/contract/errors"
	"github.com/next-trace/scg-user-event-relay/contract/stream"
	"github.com/next-trace/scg-user-event-relay/failsink"
	"github.com/next-trace/scg-user-event-relay/internal/config"
)

const serviceName = "scg-user-event-relay"

func newLogger(w io.Writer, cfg *config.Config) (*slog.Logger, error) {
	lvl, err := cfg.Level()
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	if cfg.LogFormat == "text" {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}

	return slog.New(h).With("service", serviceName), nil
}

func openStream(ctx context.Context, cfg *config.Config) (stream.Stream, func(), error) { //nolint:ireturn
	return adapters.Open(ctx, adapters.Config{
		URL:           cfg.BrokerURL,
		ClientName:    cfg.ClientName,
		ConnTimeout:   cfg.ConnectTimeout,
		MaxReconnects: cfg.MaxReconnects,
		SubjectPrefix: cfg.SubjectPrefix,
		EnsureStream:  cfg.EnsureStream,
	})
}

// buildSink always logs exhausted messages and additionally stores them in the configured sink.
func buildSink(ctx context.Context, cfg *config.Config, logger *slog.Logger) (stream.FailureSink, func(), error) { //nolint:ireturn
	logSink := failsink.NewLog(logger)
	sc := cfg.FailureSink

	switch sc.Type {
	case "", config.SinkLog:
		return logSink, func() {}, nil

	case config.SinkFile:
		f, err := failsink.OpenFile(sc.Path)
		if err != nil {
			return nil, nil, err
		}

		return failsink.Multi(logSink, f), func() { _ = f.Close() }, nil

	case config.SinkRedis:
		client := redis.NewClient(&redis.Options{Addr: sc.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()

			return nil, nil, fmt.Errorf("%w: redis ping %s: %w", berr.ErrConnectFailed, sc.RedisAddr, err)
		}

		return failsink.Multi(logSink, failsink.NewRedis(client, sc.RedisKey)), func() { _ = client.Close() }, nil

	case config.SinkPostgres:
		pool, err := failsink.ConnectPostgres(ctx, sc.PostgresURL)
		if err != nil {
			return nil, nil, err
		}

		pg := failsink.NewPostgres(pool, sc.PostgresTable)
		if err := pg.EnsureTable(ctx); err != nil {
			pool.Close()

			return nil, nil, err
		}

		return failsink.Multi(logSink, pg), pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("%w: unknown failure sink type %q", berr.ErrConfigInvalid, sc.Type)
	}
}
