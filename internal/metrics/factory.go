package metrics

import (
	"context"
	"fmt"

	"github.com/tidewind/aircast/internal/config"
)

// NewRecorder builds the Recorder selected by the telemetry configuration.
func NewRecorder(ctx context.Context, cfg config.TelemetryConfig, serviceName string) (Recorder, error) {
	switch cfg.Metrics {
	case "", "noop":
		return NewNoopRecorder(), nil
	case "prometheus":
		return NewPrometheusRecorder(), nil
	case "otel":
		return NewOtelRecorder(ctx, cfg, serviceName)
	default:
		return nil, fmt.Errorf("unsupported metrics backend: %s", cfg.Metrics)
	}
}
