// Package metrics records pipeline-level execution metrics.
package metrics

import (
	"context"
	"time"
)

// Recorder is the interface for recording pipeline metrics.
type Recorder interface {
	// RecordRunStart records the start of a pipeline run.
	RecordRunStart(ctx context.Context, jobName string)
	// RecordRunEnd records the end of a pipeline run with its final status.
	RecordRunEnd(ctx context.Context, jobName, status string, duration time.Duration)
	// RecordCityEnd records the outcome of processing one city.
	RecordCityEnd(ctx context.Context, city, status string, duration time.Duration)
	// RecordRowsFetched records the number of archive rows consolidated for a city.
	RecordRowsFetched(ctx context.Context, city string, count int)
	// RecordPromptsGenerated records the number of prompts produced for a city.
	// 'kind' is "zeroshot" or "finetuning".
	RecordPromptsGenerated(ctx context.Context, city, kind string, count int)
	// RecordArtifactWritten records that an output object was written.
	// 'kind' is e.g. "csv", "parquet" or "json".
	RecordArtifactWritten(ctx context.Context, kind string)
	// Shutdown flushes any pending metric data.
	Shutdown(ctx context.Context) error
}

// NoopRecorder discards all metrics.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (NoopRecorder) RecordRunStart(context.Context, string)                       {}
func (NoopRecorder) RecordRunEnd(context.Context, string, string, time.Duration)  {}
func (NoopRecorder) RecordCityEnd(context.Context, string, string, time.Duration) {}
func (NoopRecorder) RecordRowsFetched(context.Context, string, int)               {}
func (NoopRecorder) RecordPromptsGenerated(context.Context, string, string, int)  {}
func (NoopRecorder) RecordArtifactWritten(context.Context, string)                {}
func (NoopRecorder) Shutdown(context.Context) error                               { return nil }

var _ Recorder = (*NoopRecorder)(nil)
