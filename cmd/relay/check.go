package main

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/next-trace/scg-user-event-relay/adapters"
	"github.com/next-trace/scg-user-event-relay/internal/config"
)

var checkCmd = &cli.Command{
	Name:  "check",
	Usage: "Validate configuration, connect to the broker and failure sink, then exit",
	Action: func(ctx context.Context, c *cli.Command) error {
		cfg, err := config.FromCommand(c)
		if err != nil {
			return err
		}

		return check(ctx, c.Root().Writer, cfg)
	},
}

func check(ctx context.Context, w io.Writer, cfg *config.Config) error {
	logger, err := newLogger(io.Discard, cfg)
	if err != nil {
		return err
	}

	broker, err := adapters.Detect(cfg.BrokerURL)
	if err != nil {
		return err
	}

	_, closeStream, err := openStream(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s broker: %w", broker, err)
	}
	closeStream()

	_, closeSink, err := buildSink(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failure sink: %w", err)
	}
	closeSink()

	_, _ = fmt.Fprintf(w, "ok: %s broker reachable, failure sink %q ready\n", broker, sinkType(cfg))

	return nil
}

func sinkType(cfg *config.Config) string {
	if cfg.FailureSink.Type == "" {
		return config.SinkLog
	}

	return cfg.FailureSink.Type
}
