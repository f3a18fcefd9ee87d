package metrics_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tidewind/aircast/internal/config"
	"github.com/tidewind/aircast/internal/history"
	"github.com/tidewind/aircast/internal/metrics"
)

func newTelemetryConfig(backend string) config.TelemetryConfig {
	return config.TelemetryConfig{Metrics: backend}
}

func gatherFamilies(t *testing.T, r *metrics.PrometheusRecorder) map[string]bool {
	t.Helper()
	families, err := r.GetRegistry().Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}
	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	return names
}

func TestPrometheusRecorder_RecordsAllFamilies(t *testing.T) {
	r := metrics.NewPrometheusRecorder()
	ctx := context.Background()

	r.RecordRunStart(ctx, "aircast-ingest")
	r.RecordRunEnd(ctx, "aircast-ingest", history.StatusCompleted, 2*time.Second)
	r.RecordCityEnd(ctx, "Wellington", history.StatusCompleted, time.Second)
	r.RecordRowsFetched(ctx, "Wellington", 120)
	r.RecordPromptsGenerated(ctx, "Wellington", "zeroshot", 1)
	r.RecordArtifactWritten(ctx, "csv")

	names := gatherFamilies(t, r)
	for _, want := range []string{
		"aircast_run_duration_seconds",
		"aircast_run_status_total",
		"aircast_city_duration_seconds",
		"aircast_city_status_total",
		"aircast_rows_fetched_total",
		"aircast_prompts_generated_total",
		"aircast_artifacts_written_total",
	} {
		if !names[want] {
			t.Errorf("Expected metric family '%s' to be registered", want)
		}
	}
	// Runtime collectors share the registry.
	assert.True(t, names["go_goroutines"])

	assert.NoError(t, r.Shutdown(ctx))
}

func TestNewRecorder_SelectsBackend(t *testing.T) {
	ctx := context.Background()

	r, err := metrics.NewRecorder(ctx, newTelemetryConfig(""), "aircast-test")
	assert.NoError(t, err)
	_, ok := r.(*metrics.NoopRecorder)
	assert.True(t, ok)

	r, err = metrics.NewRecorder(ctx, newTelemetryConfig("prometheus"), "aircast-test")
	assert.NoError(t, err)
	_, ok = r.(*metrics.PrometheusRecorder)
	assert.True(t, ok)

	_, err = metrics.NewRecorder(ctx, newTelemetryConfig("statsd"), "aircast-test")
	assert.Error(t, err)
}
