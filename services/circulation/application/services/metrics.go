package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	circdomain "github.com/ghuser/bookcirc/services/circulation/domain"
)

const instrumentationName = "github.com/ghuser/bookcirc/services/circulation"

var tracer = otel.Tracer(instrumentationName)

// metrics holds the circulation counters. Instruments come from the global
// MeterProvider installed by telemetry.Setup; before that they are no-ops.
type metrics struct {
	checkouts    metric.Int64Counter
	returns      metric.Int64Counter
	extensions   metric.Int64Counter
	reservations metric.Int64Counter
	rejections   metric.Int64Counter
	violations   metric.Int64Counter
}

func newMetrics() *metrics {
	meter := otel.Meter(instrumentationName)
	m := &metrics{}
	// Counter creation only fails on invalid names; fall back to no-ops.
	m.checkouts, _ = meter.Int64Counter("circulation.checkouts", metric.WithDescription("Committed checkouts"))
	m.returns, _ = meter.Int64Counter("circulation.returns", metric.WithDescription("Committed returns"))
	m.extensions, _ = meter.Int64Counter("circulation.extensions", metric.WithDescription("Committed loan extensions"))
	m.reservations, _ = meter.Int64Counter("circulation.reservations", metric.WithDescription("Reservations created"))
	m.rejections, _ = meter.Int64Counter("circulation.rejections", metric.WithDescription("Requests rejected by policy, by reason"))
	m.violations, _ = meter.Int64Counter("circulation.invariant_violations", metric.WithDescription("Availability values healed from open loans"))
	return m
}

func add(ctx context.Context, c metric.Int64Counter, opts ...metric.AddOption) {
	if c != nil {
		c.Add(ctx, 1, opts...)
	}
}

// fail records err on the span and, for policy rejections, the rejection counter.
func (m *metrics) fail(ctx context.Context, span trace.Span, op string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if pe, ok := circdomain.AsPolicyError(err); ok {
		add(ctx, m.rejections, metric.WithAttributes(
			attribute.String("operation", op),
			attribute.String("reason", string(pe.Reason)),
		))
	}
}
