// internal/common/observability/metrics.go
package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability exposes OpenTelemetry meters for wizard transitions,
// exported through the shared Prometheus registry.
type Observability struct {
	meterProvider    *metric.MeterProvider
	meter            otelmetric.Meter
	actionCounter    otelmetric.Int64Counter
	finalizeDuration otelmetric.Float64Histogram
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	actionCounter, _ := meter.Int64Counter(
		"wizard.actions",
		otelmetric.WithDescription("Number of wizard actions dispatched"),
	)

	finalizeDuration, _ := meter.Float64Histogram(
		"wizard.finalize.duration",
		otelmetric.WithDescription("Finalization duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider:    provider,
		meter:            meter,
		actionCounter:    actionCounter,
		finalizeDuration: finalizeDuration,
	}
}

// RecordAction counts a dispatched wizard action by type.
func (o *Observability) RecordAction(ctx context.Context, actionType string) {
	if o.actionCounter != nil {
		o.actionCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("action", actionType),
		))
	}
}

// RecordFinalizeDuration records one finalization attempt.
func (o *Observability) RecordFinalizeDuration(ctx context.Context, duration time.Duration, status string) {
	if o.finalizeDuration != nil {
		o.finalizeDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		o.meterProvider.Shutdown(ctx)
	}
}
