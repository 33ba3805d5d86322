package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/next-trace/scg-user-event-relay/ingest"
	"github.com/next-trace/scg-user-event-relay/internal/config"
	"github.com/next-trace/scg-user-event-relay/internal/metrics"
	"github.com/next-trace/scg-user-event-relay/internal/tracing"
	"github.com/next-trace/scg-user-event-relay/relay"
)

const shutdownTimeout = 10 * time.Second

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "Serve the event ingest endpoint and relay events to the broker",
	Action: func(ctx context.Context, c *cli.Command) error {
		cfg, err := config.FromCommand(c)
		if err != nil {
			return err
		}

		logger, err := newLogger(os.Stdout, cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return run(ctx, cfg, logger)
	},
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	st, closeStream, err := openStream(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open broker: %w", err)
	}
	defer closeStream()

	sink, closeSink, err := buildSink(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failure sink: %w", err)
	}
	defer closeSink()

	m := metrics.New()

	opts := []relay.PublisherOption{
		relay.WithFailureSink(sink),
		relay.WithObserver(m),
		relay.WithLogger(logger.With("component", "publisher")),
		relay.WithSubjectPrefix(cfg.SubjectPrefix),
	}

	if cfg.Tracing {
		tracing.Install()
		opts = append(opts, relay.WithPropagator(tracing.New(nil)))
	}

	d := relay.NewDispatcher(relay.NewPublisher(st, opts...), logger.With("component", "dispatcher"),
		relay.WithDispatchObserver(m))

	servers := []*http.Server{{
		Addr:              cfg.ListenAddr,
		Handler:           ingest.NewHandler(d, logger.With("component", "ingest")),
		ReadHeaderTimeout: 5 * time.Second,
	}}

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", m.Handler())
		servers = append(servers, &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		})
	}

	errc := make(chan error, len(servers))

	for _, srv := range servers {
		go func() {
			logger.InfoContext(ctx, "http server starting", "addr", srv.Addr)

			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- fmt.Errorf("listen %s: %w", srv.Addr, err)
			}
		}()
	}

	var runErr error

	select {
	case <-ctx.Done():
		logger.InfoContext(ctx, "shutting down")
	case runErr = <-errc:
		logger.ErrorContext(ctx, "http server failed", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.ErrorContext(shutdownCtx, "http server shutdown", "addr", srv.Addr, "error", err)
		}
	}

	logger.InfoContext(shutdownCtx, "relay stopped")

	return runErr
}
