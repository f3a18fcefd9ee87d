package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/tidewind/aircast/internal/config"
	"github.com/tidewind/aircast/internal/support/util/logger"
)

const meterName = "github.com/tidewind/aircast"

// OtelRecorder exports pipeline metrics through an OTLP metric exporter.
type OtelRecorder struct {
	provider *sdkmetric.MeterProvider

	runCounter      metric.Int64Counter
	runDuration     metric.Float64Histogram
	cityCounter     metric.Int64Counter
	cityDuration    metric.Float64Histogram
	rowsFetched     metric.Int64Counter
	promptsCounter  metric.Int64Counter
	artifactCounter metric.Int64Counter
}

func newMetricExporter(ctx context.Context, cfg config.TelemetryConfig) (sdkmetric.Exporter, error) {
	switch cfg.Exporter {
	case "grpc":
		return otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	case "", "http":
		return otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithEndpoint(cfg.Endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported OTLP exporter type: %s", cfg.Exporter)
	}
}

// NewOtelRecorder creates a Recorder that pushes metrics to an OTLP collector.
func NewOtelRecorder(ctx context.Context, cfg config.TelemetryConfig, serviceName string) (*OtelRecorder, error) {
	exporter, err := newMetricExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", serviceName),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to build telemetry resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
	)

	meter := provider.Meter(meterName)
	r := &OtelRecorder{provider: provider}

	if r.runCounter, err = meter.Int64Counter("aircast.run.status",
		metric.WithDescription("Pipeline runs by status.")); err != nil {
		return nil, err
	}
	if r.runDuration, err = meter.Float64Histogram("aircast.run.duration",
		metric.WithDescription("Duration of pipeline runs."), metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if r.cityCounter, err = meter.Int64Counter("aircast.city.status",
		metric.WithDescription("Processed cities by status.")); err != nil {
		return nil, err
	}
	if r.cityDuration, err = meter.Float64Histogram("aircast.city.duration",
		metric.WithDescription("Duration of per-city processing."), metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if r.rowsFetched, err = meter.Int64Counter("aircast.rows.fetched",
		metric.WithDescription("Archive rows consolidated per city.")); err != nil {
		return nil, err
	}
	if r.promptsCounter, err = meter.Int64Counter("aircast.prompts.generated",
		metric.WithDescription("Prompts generated per city and kind.")); err != nil {
		return nil, err
	}
	if r.artifactCounter, err = meter.Int64Counter("aircast.artifacts.written",
		metric.WithDescription("Output artifacts written by kind.")); err != nil {
		return nil, err
	}

	logger.Infof("OTLP metric exporter initialized (endpoint: %s, transport: %s).", cfg.Endpoint, cfg.Exporter)
	return r, nil
}

func (r *OtelRecorder) RecordRunStart(ctx context.Context, jobName string) {
	r.runCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("job_name", jobName),
		attribute.String("status", "STARTED"),
	))
}

func (r *OtelRecorder) RecordRunEnd(ctx context.Context, jobName, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("job_name", jobName),
		attribute.String("status", status),
	)
	r.runCounter.Add(ctx, 1, attrs)
	r.runDuration.Record(ctx, duration.Seconds(), attrs)
}

func (r *OtelRecorder) RecordCityEnd(ctx context.Context, city, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("city", city),
		attribute.String("status", status),
	)
	r.cityCounter.Add(ctx, 1, attrs)
	r.cityDuration.Record(ctx, duration.Seconds(), attrs)
}

func (r *OtelRecorder) RecordRowsFetched(ctx context.Context, city string, count int) {
	r.rowsFetched.Add(ctx, int64(count), metric.WithAttributes(attribute.String("city", city)))
}

func (r *OtelRecorder) RecordPromptsGenerated(ctx context.Context, city, kind string, count int) {
	r.promptsCounter.Add(ctx, int64(count), metric.WithAttributes(
		attribute.String("city", city),
		attribute.String("kind", kind),
	))
}

func (r *OtelRecorder) RecordArtifactWritten(ctx context.Context, kind string) {
	r.artifactCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (r *OtelRecorder) Shutdown(ctx context.Context) error {
	return r.provider.Shutdown(ctx)
}

var _ Recorder = (*OtelRecorder)(nil)
