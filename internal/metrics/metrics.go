// Package metrics exposes request metrics through OpenTelemetry with a
// Prometheus pull exporter.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/global"
	export "go.opentelemetry.io/otel/sdk/export/metric"
	"go.opentelemetry.io/otel/sdk/metric/aggregator/histogram"
	controller "go.opentelemetry.io/otel/sdk/metric/controller/basic"
	processor "go.opentelemetry.io/otel/sdk/metric/processor/basic"
	selector "go.opentelemetry.io/otel/sdk/metric/selector/simple"
)

// Recorder holds the HTTP instruments.
type Recorder struct {
	exporter *prometheus.Exporter
	requests metric.Int64Counter
	latency  metric.Float64ValueRecorder
}

// New installs a Prometheus-backed meter provider and registers the request
// counter and latency recorder under the given service name.
func New(service string) (*Recorder, error) {
	config := prometheus.Config{}
	c := controller.New(
		processor.New(
			selector.NewWithHistogramDistribution(
				histogram.WithExplicitBoundaries(config.DefaultHistogramBoundaries),
			),
			export.CumulativeExportKindSelector(),
			processor.WithMemory(true),
		),
	)
	exporter, err := prometheus.New(config, c)
	if err != nil {
		return nil, fmt.Errorf("prometheus exporter: %w", err)
	}
	global.SetMeterProvider(exporter.MeterProvider())

	meter := global.Meter(service)
	return &Recorder{
		exporter: exporter,
		requests: metric.Must(meter).NewInt64Counter(
			"http/server/request_count",
			metric.WithDescription("Count of completed requests, by HTTP method, route and response status"),
		),
		latency: metric.Must(meter).NewFloat64ValueRecorder(
			"http/server/duration_ms",
			metric.WithDescription("Request latency in milliseconds"),
		),
	}, nil
}

// Handler serves the Prometheus exposition format.
func (rec *Recorder) Handler() http.Handler {
	return rec.exporter
}

// Observe records one completed request.
func (rec *Recorder) Observe(ctx context.Context, method, route string, status int, elapsed time.Duration) {
	labels := []attribute.KeyValue{
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	}
	rec.requests.Add(ctx, 1, labels...)
	rec.latency.Record(ctx, float64(elapsed)/float64(time.Millisecond), labels...)
}
