package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	berr "github.com/next-trace/scg-user-event-relay/contract/errors"
)

// Concrete AMQP connection-backed publisher with publisher confirms and auto-reconnect.

const exchangeKind = "topic"

var errNacked = errors.New("rabbitmq: broker nacked message")

type Config struct {
	URL         string
	Exchange    string
	ConnTimeout time.Duration
	ClientName  string
}

type reconnectingPublisher struct {
	cfg    Config
	mu     sync.RWMutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	closed chan struct{}
	ready  chan struct{} // closed when a channel is ready
}

func (rp *reconnectingPublisher) Publish(ctx context.Context, m PubMsg) (uint64, error) {
	// Fast path: ensure channel available
	rp.mu.RLock()
	ch := rp.ch
	ready := rp.ready
	rp.mu.RUnlock()

	if ch == nil {
		// Wait for readiness or context cancellation
		select {
		case <-ready:
		case <-ctx.Done():
			return 0, ctx.Err()
		}

		rp.mu.RLock()
		ch = rp.ch
		rp.mu.RUnlock()

		if ch == nil {
			return 0, fmt.Errorf("%w: rabbitmq not connected", berr.ErrNotConnected)
		}
	}

	var h amqp.Table
	if len(m.Headers) > 0 {
		h = amqp.Table{}
		for k, v := range m.Headers {
			h[k] = v
		}
	}

	dc, err := ch.PublishWithDeferredConfirmWithContext(
		ctx,
		m.Exchange,
		m.RoutingKey,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			Headers:      h,
			ContentType:  "application/json",
			MessageId:    m.Headers["Nats-Msg-Id"],
			Timestamp:    time.Now().UTC(),
			Body:         m.Body,
		},
	)
	if err != nil {
		return 0, err
	}

	if dc == nil {
		return 0, fmt.Errorf("%w: channel not in confirm mode", berr.ErrPublishFailed)
	}

	acked, err := dc.WaitContext(ctx)
	if err != nil {
		return 0, err
	}

	if !acked {
		return dc.DeliveryTag, errNacked
	}

	return dc.DeliveryTag, nil
}

func (rp *reconnectingPublisher) dial() (*amqp.Connection, *amqp.Channel, error) {
	props := amqp.NewConnectionProperties()
	props.SetClientConnectionName(rp.cfg.ClientName)

	conn, err := amqp.DialConfig(rp.cfg.URL, amqp.Config{
		Locale:     "en_US",
		Properties: props,
		Dial:       amqp.DefaultDial(rp.cfg.ConnTimeout),
	})
	if err != nil {
		return nil, nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	if err := ch.ExchangeDeclare(rp.cfg.Exchange, exchangeKind, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()

		return nil, nil, err
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()

		return nil, nil, err
	}

	return conn, ch, nil
}

func (rp *reconnectingPublisher) setChannel(conn *amqp.Connection, ch *amqp.Channel) {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	rp.conn = conn
	rp.ch = ch
	close(rp.ready)
}

func (rp *reconnectingPublisher) dropChannel() {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	if rp.ch != nil {
		_ = rp.ch.Close()
	}

	if rp.conn != nil {
		_ = rp.conn.Close()
	}

	rp.ch = nil
	rp.conn = nil
	rp.ready = make(chan struct{})
}

// run watches the live connection and redials after it drops until close is called.
func (rp *reconnectingPublisher) run() {
	backoff := time.Second
	const maxBackoff = 30 * time.Second
	// #nosec G404 -- non-crypto RNG is acceptable for backoff jitter
	rng := rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // non-crypto RNG is acceptable for backoff jitter

	for {
		rp.mu.RLock()
		conn := rp.conn
		rp.mu.RUnlock()

		if conn != nil {
			// Block on connection close notifications to trigger reconnect
			notify := conn.NotifyClose(make(chan *amqp.Error, 1))
			select {
			case <-rp.closed:
				return
			case <-notify:
				rp.dropChannel()
			}
		}

		select {
		case <-rp.closed:
			return
		default:
		}

		conn, ch, err := rp.dial()
		if err != nil {
			// exponential backoff with jitter
			jitter := time.Duration(rng.Int63n(int64(backoff / 2)))
			sleep := min(backoff+jitter/2, maxBackoff)

			t := time.NewTimer(sleep)
			select {
			case <-rp.closed:
				t.Stop()
				return
			case <-t.C:
			}

			backoff = min(backoff*2, maxBackoff)

			continue
		}

		backoff = time.Second

		rp.setChannel(conn, ch)
	}
}

func (rp *reconnectingPublisher) close() {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	select {
	case <-rp.closed:
		// already closed
		return
	default:
		close(rp.closed)
	}

	if rp.ch != nil {
		_ = rp.ch.Close()
		rp.ch = nil
	}

	if rp.conn != nil {
		_ = rp.conn.Close()
		rp.conn = nil
	}
}

// Connect dials RabbitMQ, declares the topic exchange, enables publisher confirms and
// returns an Adapter with a cleanup. The first dial is synchronous so a broker that is
// down at startup is reported as ErrConnectFailed; later drops are redialed in the background.
func Connect(ctx context.Context, cfg Config) (*Adapter, func(), error) {
	if cfg.URL == "" {
		return nil, nil, fmt.Errorf("%w: rabbitmq url required", berr.ErrConfigInvalid)
	}

	if cfg.Exchange == "" {
		cfg.Exchange = DefaultExchange
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	rp := &reconnectingPublisher{
		cfg:    cfg,
		closed: make(chan struct{}),
		ready:  make(chan struct{}),
	}

	conn, ch, err := rp.dial()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: rabbitmq dial: %w", berr.ErrConnectFailed, err)
	}

	rp.setChannel(conn, ch)

	go rp.run()

	return NewWithExchange(rp, cfg.Exchange), rp.close, nil
}
