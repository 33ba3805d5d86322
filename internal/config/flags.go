package config

import (
	"fmt"

	"github.com/urfave/cli/v3"
)

const (
	FlagConfig         = "config"
	FlagBrokerURL      = "broker-url"
	FlagSubjectPrefix  = "subject-prefix"
	FlagClientName     = "client-name"
	FlagConnectTimeout = "connect-timeout"
	FlagMaxReconnects  = "max-reconnects"
	FlagEnsureStream   = "ensure-stream"
	FlagListenAddr     = "listen-addr"
	FlagMetricsAddr    = "metrics-addr"
	FlagLogLevel       = "log-level"
	FlagLogFormat      = "log-format"
	FlagTracing        = "tracing"
	FlagSinkType       = "failure-sink"
	FlagSinkPath       = "failure-sink-path"
	FlagSinkRedisAddr  = "failure-sink-redis-addr"
	FlagSinkRedisKey   = "failure-sink-redis-key"
	FlagSinkPGURL      = "failure-sink-postgres-url"
	FlagSinkPGTable    = "failure-sink-postgres-table"
)

// Flags declares every setting as a flag with an environment source.
// Values left unset fall through to the config file, then to Default.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: FlagConfig, Usage: "TOML config file", Sources: cli.EnvVars("RELAY_CONFIG")},
		&cli.StringFlag{Name: FlagBrokerURL, Usage: "broker url (nats://, kafka://, amqp://)", Sources: cli.EnvVars("BROKER_URL", "NATS_URL")},
		&cli.StringFlag{Name: FlagSubjectPrefix, Usage: "first subject token", Sources: cli.EnvVars("RELAY_SUBJECT_PREFIX")},
		&cli.StringFlag{Name: FlagClientName, Usage: "client name reported to the broker", Sources: cli.EnvVars("RELAY_CLIENT_NAME")},
		&cli.DurationFlag{Name: FlagConnectTimeout, Usage: "broker dial timeout", Sources: cli.EnvVars("RELAY_CONNECT_TIMEOUT")},
		&cli.IntFlag{Name: FlagMaxReconnects, Usage: "NATS reconnect limit, -1 for unlimited", Sources: cli.EnvVars("RELAY_MAX_RECONNECTS")},
		&cli.BoolFlag{Name: FlagEnsureStream, Usage: "create or update the JetStream stream on start", Sources: cli.EnvVars("RELAY_ENSURE_STREAM")},
		&cli.StringFlag{Name: FlagListenAddr, Usage: "event ingest listen address", Sources: cli.EnvVars("RELAY_LISTEN_ADDR")},
		&cli.StringFlag{Name: FlagMetricsAddr, Usage: "metrics listen address, empty to disable", Sources: cli.EnvVars("RELAY_METRICS_ADDR")},
		&cli.StringFlag{Name: FlagLogLevel, Usage: "debug, info, warn or error", Sources: cli.EnvVars("RELAY_LOG_LEVEL")},
		&cli.StringFlag{Name: FlagLogFormat, Usage: "json or text", Sources: cli.EnvVars("RELAY_LOG_FORMAT")},
		&cli.BoolFlag{Name: FlagTracing, Usage: "inject W3C trace headers", Sources: cli.EnvVars("RELAY_TRACING")},
		&cli.StringFlag{Name: FlagSinkType, Usage: "log, file, redis or postgres", Sources: cli.EnvVars("RELAY_FAILURE_SINK")},
		&cli.StringFlag{Name: FlagSinkPath, Usage: "file sink path", Sources: cli.EnvVars("RELAY_FAILURE_SINK_PATH")},
		&cli.StringFlag{Name: FlagSinkRedisAddr, Usage: "redis sink address", Sources: cli.EnvVars("RELAY_FAILURE_SINK_REDIS_ADDR")},
		&cli.StringFlag{Name: FlagSinkRedisKey, Usage: "redis sink list key", Sources: cli.EnvVars("RELAY_FAILURE_SINK_REDIS_KEY")},
		&cli.StringFlag{Name: FlagSinkPGURL, Usage: "postgres sink url", Sources: cli.EnvVars("RELAY_FAILURE_SINK_POSTGRES_URL")},
		&cli.StringFlag{Name: FlagSinkPGTable, Usage: "postgres sink table", Sources: cli.EnvVars("RELAY_FAILURE_SINK_POSTGRES_TABLE")},
	}
}

// FromCommand loads the file named by --config, if any, applies every flag that was set
// and validates the result.
func FromCommand(c *cli.Command) (*Config, error) {
	cfg := Default()

	if path := c.String(FlagConfig); path != "" {
		loaded, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}

		cfg = *loaded
	}

	strs := map[string]*string{
		FlagBrokerURL:     &cfg.BrokerURL,
		FlagSubjectPrefix: &cfg.SubjectPrefix,
		FlagClientName:    &cfg.ClientName,
		FlagListenAddr:    &cfg.ListenAddr,
		FlagMetricsAddr:   &cfg.MetricsAddr,
		FlagLogLevel:      &cfg.LogLevel,
		FlagLogFormat:     &cfg.LogFormat,
		FlagSinkType:      &cfg.FailureSink.Type,
		FlagSinkPath:      &cfg.FailureSink.Path,
		FlagSinkRedisAddr: &cfg.FailureSink.RedisAddr,
		FlagSinkRedisKey:  &cfg.FailureSink.RedisKey,
		FlagSinkPGURL:     &cfg.FailureSink.PostgresURL,
		FlagSinkPGTable:   &cfg.FailureSink.PostgresTable,
	}

	for name, dst := range strs {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}

	if c.IsSet(FlagConnectTimeout) {
		cfg.ConnectTimeout = c.Duration(FlagConnectTimeout)
	}

	if c.IsSet(FlagMaxReconnects) {
		cfg.MaxReconnects = int(c.Int(FlagMaxReconnects))
	}

	if c.IsSet(FlagEnsureStream) {
		cfg.EnsureStream = c.Bool(FlagEnsureStream)
	}

	if c.IsSet(FlagTracing) {
		cfg.Tracing = c.Bool(FlagTracing)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return &cfg, nil
}
