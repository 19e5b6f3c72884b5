package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/marcelsud/hookwatch/event"
)

/* OTelExporter provides OpenTelemetry metrics exported in Prometheus format
 * Gauges are observed from the Collector at scrape time; counters and the
 * replay duration histogram are fed by the capture and replay services,
 * since it is registered with them as an event.Listener
 */
type OTelExporter struct {
	meterProvider *sdkmetric.MeterProvider
	registry      *promclient.Registry
	collector     Collector

	// OTel meters and instruments
	meter            metric.Meter
	retainedGauge    metric.Int64ObservableGauge
	capacityGauge    metric.Int64ObservableGauge
	throughputGauge  metric.Int64ObservableGauge
	capturedCounter  metric.Int64Counter
	replayCounter    metric.Int64Counter
	failureCounter   metric.Int64Counter
	replayDurationMs metric.Float64Histogram
}

// NewOTelExporter creates a new OpenTelemetry metrics exporter with its own Prometheus registry
func NewOTelExporter(collector Collector) (*OTelExporter, error) {
	registry := promclient.NewRegistry()

	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(meterProvider)

	meter := meterProvider.Meter(
		"hookwatch",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	oe := &OTelExporter{
		meterProvider: meterProvider,
		registry:      registry,
		collector:     collector,
		meter:         meter,
	}

	if err := oe.registerInstruments(); err != nil {
		return nil, fmt.Errorf("registering instruments: %w", err)
	}

	return oe, nil
}

// registerInstruments creates and registers all OpenTelemetry metric instruments
func (oe *OTelExporter) registerInstruments() error {
	var err error

	oe.retainedGauge, err = oe.meter.Int64ObservableGauge(
		"hookwatch.events.retained",
		metric.WithDescription("Number of captured events currently retained per source"),
		metric.WithUnit("{events}"),
		metric.WithInt64Callback(oe.observeRetained),
	)
	if err != nil {
		return fmt.Errorf("creating retained events gauge: %w", err)
	}

	oe.capacityGauge, err = oe.meter.Int64ObservableGauge(
		"hookwatch.events.capacity",
		metric.WithDescription("Maximum number of retained events"),
		metric.WithUnit("{events}"),
		metric.WithInt64Callback(oe.observeCapacity),
	)
	if err != nil {
		return fmt.Errorf("creating capacity gauge: %w", err)
	}

	oe.throughputGauge, err = oe.meter.Int64ObservableGauge(
		"hookwatch.events.throughput",
		metric.WithDescription("Number of retained events captured over time window"),
		metric.WithUnit("{events}"),
		metric.WithInt64Callback(oe.observeThroughput),
	)
	if err != nil {
		return fmt.Errorf("creating throughput gauge: %w", err)
	}

	oe.capturedCounter, err = oe.meter.Int64Counter(
		"hookwatch.events.captured",
		metric.WithDescription("Number of events captured since start"),
		metric.WithUnit("{events}"),
	)
	if err != nil {
		return fmt.Errorf("creating captured counter: %w", err)
	}

	oe.replayCounter, err = oe.meter.Int64Counter(
		"hookwatch.replays",
		metric.WithDescription("Number of replays that received a response"),
		metric.WithUnit("{replays}"),
	)
	if err != nil {
		return fmt.Errorf("creating replay counter: %w", err)
	}

	oe.failureCounter, err = oe.meter.Int64Counter(
		"hookwatch.replays.failed",
		metric.WithDescription("Number of replays that never got a response"),
		metric.WithUnit("{replays}"),
	)
	if err != nil {
		return fmt.Errorf("creating replay failure counter: %w", err)
	}

	oe.replayDurationMs, err = oe.meter.Float64Histogram(
		"hookwatch.replay.duration",
		metric.WithDescription("Round trip time of replays"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return fmt.Errorf("creating replay duration histogram: %w", err)
	}

	return nil
}

// observeRetained is a callback that reports retained events per source
func (oe *OTelExporter) observeRetained(ctx context.Context, observer metric.Int64Observer) error {
	bySource, err := oe.collector.GetBySource(ctx)
	if err != nil {
		return err
	}

	for source, count := range bySource {
		observer.Observe(count, metric.WithAttributes(
			attribute.String("source", source),
		))
	}

	return nil
}

// observeCapacity is a callback that reports the store capacity
func (oe *OTelExporter) observeCapacity(ctx context.Context, observer metric.Int64Observer) error {
	m, err := oe.collector.Collect(ctx)
	if err != nil {
		return err
	}

	observer.Observe(int64(m.Capacity))
	return nil
}

// observeThroughput is a callback that reports throughput metrics
func (oe *OTelExporter) observeThroughput(ctx context.Context, observer metric.Int64Observer) error {
	throughput, err := oe.collector.GetThroughput(ctx)
	if err != nil {
		return err
	}

	observer.Observe(throughput.LastMinute, metric.WithAttributes(
		attribute.String("time.window", "1m"),
	))
	observer.Observe(throughput.LastFiveMinutes, metric.WithAttributes(
		attribute.String("time.window", "5m"),
	))
	observer.Observe(throughput.LastFifteenMinutes, metric.WithAttributes(
		attribute.String("time.window", "15m"),
	))

	return nil
}

func (oe *OTelExporter) OnCapture(ctx context.Context, ev event.Event) {
	oe.capturedCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", ev.Source),
		attribute.String("method", ev.Method),
	))
}

func (oe *OTelExporter) OnReplay(ctx context.Context, ev event.Event, outcome event.ReplayOutcome) {
	attrs := metric.WithAttributes(
		attribute.String("source", ev.Source),
		attribute.Bool("ok", outcome.OK),
		attribute.String("status_code", strconv.Itoa(outcome.StatusCode)),
	)
	oe.replayCounter.Add(ctx, 1, attrs)
	oe.replayDurationMs.Record(ctx, float64(outcome.DurationMs), metric.WithAttributes(
		attribute.String("source", ev.Source),
	))
}

func (oe *OTelExporter) OnReplayFailure(ctx context.Context, ev event.Event, err error) {
	oe.failureCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", ev.Source),
	))
}

// Handler serves Prometheus-formatted metrics from the exporter's registry
func (oe *OTelExporter) Handler() http.Handler {
	return promhttp.HandlerFor(oe.registry, promhttp.HandlerOpts{})
}

// Shutdown gracefully shuts down the meter provider
func (oe *OTelExporter) Shutdown(ctx context.Context) error {
	if oe.meterProvider != nil {
		return oe.meterProvider.Shutdown(ctx)
	}
	return nil
}
