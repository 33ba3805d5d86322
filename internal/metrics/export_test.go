package metrics

import "github.com/prometheus/client_golang/prometheus"

func (m *Metrics) Received() *prometheus.CounterVec  { return m.received }
func (m *Metrics) Dropped() *prometheus.CounterVec   { return m.dropped }
func (m *Metrics) Attempts() *prometheus.CounterVec  { return m.attempts }
func (m *Metrics) Published() *prometheus.CounterVec { return m.published }
