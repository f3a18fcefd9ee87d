package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/tidewind/aircast/internal/support/util/logger"
)

// PrometheusRecorder is a Prometheus implementation of the Recorder interface.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	runDurationSeconds  *prometheus.HistogramVec
	runStatusCounter    *prometheus.CounterVec
	cityDurationSeconds *prometheus.HistogramVec
	cityStatusCounter   *prometheus.CounterVec
	rowsFetchedCounter  *prometheus.CounterVec
	promptsCounter      *prometheus.CounterVec
	artifactCounter     *prometheus.CounterVec
}

// NewPrometheusRecorder creates a new PrometheusRecorder with its own registry.
func NewPrometheusRecorder() *PrometheusRecorder {
	registry := prometheus.NewRegistry()

	// Register Go standard metrics and process/OS metrics.
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		runDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aircast_run_duration_seconds",
			Help:    "Duration of pipeline runs.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job_name", "status"}),
		runStatusCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aircast_run_status_total",
			Help: "Total number of pipeline runs by status.",
		}, []string{"job_name", "status"}),
		cityDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aircast_city_duration_seconds",
			Help:    "Duration of per-city processing.",
			Buckets: prometheus.DefBuckets,
		}, []string{"city", "status"}),
		cityStatusCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aircast_city_status_total",
			Help: "Total number of processed cities by status.",
		}, []string{"city", "status"}),
		rowsFetchedCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aircast_rows_fetched_total",
			Help: "Total archive rows consolidated per city.",
		}, []string{"city"}),
		promptsCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aircast_prompts_generated_total",
			Help: "Total prompts generated per city and kind.",
		}, []string{"city", "kind"}),
		artifactCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aircast_artifacts_written_total",
			Help: "Total output artifacts written by kind.",
		}, []string{"kind"}),
	}

	registry.MustRegister(r.runDurationSeconds)
	registry.MustRegister(r.runStatusCounter)
	registry.MustRegister(r.cityDurationSeconds)
	registry.MustRegister(r.cityStatusCounter)
	registry.MustRegister(r.rowsFetchedCounter)
	registry.MustRegister(r.promptsCounter)
	registry.MustRegister(r.artifactCounter)

	return r
}

// GetRegistry returns the Prometheus registry.
func (r *PrometheusRecorder) GetRegistry() *prometheus.Registry {
	return r.registry
}

func (r *PrometheusRecorder) RecordRunStart(_ context.Context, jobName string) {
	r.runStatusCounter.WithLabelValues(jobName, "STARTED").Inc()
	logger.Debugf("Metrics: Run '%s' started.", jobName)
}

func (r *PrometheusRecorder) RecordRunEnd(_ context.Context, jobName, status string, duration time.Duration) {
	r.runStatusCounter.WithLabelValues(jobName, status).Inc()
	r.runDurationSeconds.WithLabelValues(jobName, status).Observe(duration.Seconds())
	logger.Debugf("Metrics: Run '%s' ended. Duration: %.3fs", jobName, duration.Seconds())
}

func (r *PrometheusRecorder) RecordCityEnd(_ context.Context, city, status string, duration time.Duration) {
	r.cityStatusCounter.WithLabelValues(city, status).Inc()
	r.cityDurationSeconds.WithLabelValues(city, status).Observe(duration.Seconds())
}

func (r *PrometheusRecorder) RecordRowsFetched(_ context.Context, city string, count int) {
	r.rowsFetchedCounter.WithLabelValues(city).Add(float64(count))
}

func (r *PrometheusRecorder) RecordPromptsGenerated(_ context.Context, city, kind string, count int) {
	r.promptsCounter.WithLabelValues(city, kind).Add(float64(count))
}

func (r *PrometheusRecorder) RecordArtifactWritten(_ context.Context, kind string) {
	r.artifactCounter.WithLabelValues(kind).Inc()
}

func (r *PrometheusRecorder) Shutdown(context.Context) error { return nil }

var _ Recorder = (*PrometheusRecorder)(nil)
