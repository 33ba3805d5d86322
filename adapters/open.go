package adapters

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/next-trace/scg-user-event-relay/adapters/kafka"
	"github.com/next-trace/scg-user-event-relay/adapters/nats"
	"github.com/next-trace/scg-user-event-relay/adapters/rabbitmq"
	berr "github.com/next-trace/scg-user-event-relay/contract/errors"
	"github.com/next-trace/scg-user-event-relay/contract/stream"
)

// Broker names a supported transport.
type Broker string

const (
	BrokerNATS     Broker = "nats"
	BrokerKafka    Broker = "kafka"
	BrokerRabbitMQ Broker = "rabbitmq"
)

// Config describes the broker connection. URL selects the transport by scheme.
type Config struct {
	URL           string
	ClientName    string
	ConnTimeout   time.Duration
	MaxReconnects int
	SubjectPrefix string
	EnsureStream  bool
}

// Detect maps a broker URL scheme to a transport.
func Detect(rawURL string) (Broker, error) {
	scheme, _, found := strings.Cut(strings.TrimSpace(rawURL), "://")
	if !found {
		return "", fmt.Errorf("%w: broker url %q has no scheme", berr.ErrUnsupportedBroker, rawURL)
	}

	switch strings.ToLower(scheme) {
	case "nats", "tls", "ws", "wss":
		return BrokerNATS, nil
	case "kafka":
		return BrokerKafka, nil
	case "amqp", "amqps":
		return BrokerRabbitMQ, nil
	default:
		return "", fmt.Errorf("%w: scheme %q", berr.ErrUnsupportedBroker, scheme)
	}
}

// KafkaBrokers extracts the seed list from kafka://host1:9092,host2:9092.
func KafkaBrokers(rawURL string) []string {
	_, hosts, _ := strings.Cut(strings.TrimSpace(rawURL), "://")
	hosts, _, _ = strings.Cut(hosts, "/")

	return lo.Compact(lo.Map(strings.Split(hosts, ","), func(h string, _ int) string {
		return strings.TrimSpace(h)
	}))
}

// Open connects the transport selected by cfg.URL and returns the shared stream handle
// and its cleanup. Any failure is fatal for the caller; no handle is leaked.
func Open(ctx context.Context, cfg Config) (stream.Stream, func(), error) { //nolint:ireturn
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, nil, fmt.Errorf("%w: broker url required", berr.ErrConfigInvalid)
	}

	broker, err := Detect(cfg.URL)
	if err != nil {
		return nil, nil, err
	}

	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = "USER_EVENT"
	}

	switch broker {
	case BrokerKafka:
		ad, cleanup, err := kafka.Connect(ctx, kafka.Config{
			Brokers:     KafkaBrokers(cfg.URL),
			ClientID:    cfg.ClientName,
			DialTimeout: cfg.ConnTimeout,
		})
		if err != nil {
			return nil, nil, err
		}

		return ad, cleanup, nil
	case BrokerRabbitMQ:
		ad, cleanup, err := rabbitmq.Connect(ctx, rabbitmq.Config{
			URL:         cfg.URL,
			Exchange:    prefix,
			ConnTimeout: cfg.ConnTimeout,
			ClientName:  cfg.ClientName,
		})
		if err != nil {
			return nil, nil, err
		}

		return ad, cleanup, nil
	default:
		ad, cleanup, err := nats.Connect(ctx, nats.Config{
			URL:           cfg.URL,
			Name:          cfg.ClientName,
			ConnTimeout:   cfg.ConnTimeout,
			MaxReconnects: cfg.MaxReconnects,
			EnsureStream:  cfg.EnsureStream,
			StreamName:    prefix,
			Subjects:      []string{prefix + ".>"},
		})
		if err != nil {
			return nil, nil, err
		}

		return ad, cleanup, nil
	}
}
