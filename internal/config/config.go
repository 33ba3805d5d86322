// Package config loads relay settings from an optional TOML file overlaid by flags and
// environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/samber/lo"

	berr "github.com/next-trace/scg-user-event-relay/contract/errors"
	"github.com/next-trace/scg-user-event-relay/relay"
)

// Failure sink types.
const (
	SinkLog      = "log"
	SinkFile     = "file"
	SinkRedis    = "redis"
	SinkPostgres = "postgres"
)

type Config struct {
	BrokerURL      string        `toml:"broker_url"`
	SubjectPrefix  string        `toml:"subject_prefix"`
	ClientName     string        `toml:"client_name"`
	ConnectTimeout time.Duration `toml:"connect_timeout"`
	MaxReconnects  int           `toml:"max_reconnects"`
	EnsureStream   bool          `toml:"ensure_stream"`

	ListenAddr  string `toml:"listen_addr"`
	MetricsAddr string `toml:"metrics_addr"`
	LogLevel    string `toml:"log_level"`
	LogFormat   string `toml:"log_format"`
	Tracing     bool   `toml:"tracing"`

	FailureSink FailureSinkConfig `toml:"failure_sink"`
}

type FailureSinkConfig struct {
	Type          string `toml:"type"`
	Path          string `toml:"path"`
	RedisAddr     string `toml:"redis_addr"`
	RedisKey      string `toml:"redis_key"`
	PostgresURL   string `toml:"postgres_url"`
	PostgresTable string `toml:"postgres_table"`
}

// Default returns the settings used when nothing overrides them. BrokerURL has no default.
func Default() Config {
	return Config{
		SubjectPrefix:  relay.DefaultSubjectPrefix,
		ClientName:     "scg-user-event-relay",
		ConnectTimeout: 5 * time.Second,
		MaxReconnects:  -1,
		ListenAddr:     ":8080",
		MetricsAddr:    ":9090",
		LogLevel:       "info",
		LogFormat:      "json",
		FailureSink:    FailureSinkConfig{Type: SinkLog},
	}
}

// LoadFromFile decodes path over Default. Unknown keys are rejected.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", berr.ErrConfigInvalid, path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := lo.Map(undecoded, func(k toml.Key, _ int) string { return k.String() })

		return nil, fmt.Errorf("%w: unknown keys in %s: %s", berr.ErrConfigInvalid, path, strings.Join(keys, ", "))
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.BrokerURL) == "" {
		return fmt.Errorf("%w: broker url is required", berr.ErrConfigInvalid)
	}

	if c.SubjectPrefix == "" || strings.ContainsAny(c.SubjectPrefix, "*> \t") {
		return fmt.Errorf("%w: invalid subject prefix %q", berr.ErrConfigInvalid, c.SubjectPrefix)
	}

	if c.ConnectTimeout < 0 {
		return fmt.Errorf("%w: connect timeout must not be negative", berr.ErrConfigInvalid)
	}

	if _, err := c.Level(); err != nil {
		return err
	}

	if !lo.Contains([]string{"json", "text"}, c.LogFormat) {
		return fmt.Errorf("%w: log format %q (want json or text)", berr.ErrConfigInvalid, c.LogFormat)
	}

	return c.FailureSink.validate()
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: log level %q: %w", berr.ErrConfigInvalid, c.LogLevel, err)
	}

	return lvl, nil
}

func (f FailureSinkConfig) validate() error {
	switch f.Type {
	case "", SinkLog:
	case SinkFile:
		if f.Path == "" {
			return fmt.Errorf("%w: file failure sink needs a path", berr.ErrConfigInvalid)
		}
	case SinkRedis:
		if f.RedisAddr == "" {
			return fmt.Errorf("%w: redis failure sink needs an address", berr.ErrConfigInvalid)
		}
	case SinkPostgres:
		if f.PostgresURL == "" {
			return fmt.Errorf("%w: postgres failure sink needs a url", berr.ErrConfigInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown failure sink type %q", berr.ErrConfigInvalid, f.Type)
	}

	return nil
}
