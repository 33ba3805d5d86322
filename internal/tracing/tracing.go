// Package tracing bridges OpenTelemetry text-map propagation to message headers.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Propagator injects W3C trace context and baggage into record headers.
// The zero value uses the global OpenTelemetry propagator.
type Propagator struct {
	tmp propagation.TextMapPropagator
}

// New returns a Propagator over tmp, or over TraceContext and Baggage when tmp is nil.
func New(tmp propagation.TextMapPropagator) *Propagator {
	if tmp == nil {
		tmp = propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})
	}

	return &Propagator{tmp: tmp}
}

// Install sets the composite TraceContext and Baggage propagator as the global one.
func Install() {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
}

func (p *Propagator) propagator() propagation.TextMapPropagator { //nolint:ireturn
	if p == nil || p.tmp == nil {
		return otel.GetTextMapPropagator()
	}

	return p.tmp
}

func (p *Propagator) Inject(ctx context.Context, headers map[string]string) {
	if headers == nil {
		return
	}

	p.propagator().Inject(ctx, propagation.MapCarrier(headers))
}
