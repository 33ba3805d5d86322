// Package metrics exports relay pipeline counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/next-trace/scg-user-event-relay/contract/event"
	"github.com/next-trace/scg-user-event-relay/relay"
)

// Metrics implements relay.Observer on a dedicated registry.
type Metrics struct {
	reg *prometheus.Registry

	// received counts callbacks by source: "USER_EVENT" or "ADMIN_EVENT".
	received *prometheus.CounterVec
	// dropped counts callbacks classified out of scope, by source.
	dropped *prometheus.CounterVec
	// attempts counts broker round-trips by result: "ok" or "error".
	attempts *prometheus.CounterVec
	// published counts terminal Publish outcomes.
	published *prometheus.CounterVec
}

var _ relay.Observer = (*Metrics)(nil)

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		received: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relay",
			Name:      "events_received_total",
			Help:      "Identity events handed to the dispatcher.",
		}, []string{"source"}),
		dropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relay",
			Name:      "events_dropped_total",
			Help:      "Identity events classified as out of scope.",
		}, []string{"source"}),
		attempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relay",
			Name:      "publish_attempts_total",
			Help:      "Broker publish round-trips.",
		}, []string{"result"}),
		published: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relay",
			Name:      "publish_total",
			Help:      "Completed publish calls by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) EventReceived(source event.SourceKind) {
	m.received.WithLabelValues(string(source)).Inc()
}

func (m *Metrics) EventDropped(source event.SourceKind) {
	m.dropped.WithLabelValues(string(source)).Inc()
}

func (m *Metrics) AttemptFinished(ok bool) {
	result := "error"
	if ok {
		result = "ok"
	}

	m.attempts.WithLabelValues(result).Inc()
}

func (m *Metrics) PublishFinished(outcome relay.Outcome) {
	m.published.WithLabelValues(string(outcome)).Inc()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
