// Package pipeline contains the per-stage drivers that orchestrate ingestion
// and prompt generation across the configured cities.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tidewind/aircast/internal/adapter/storage"
	"github.com/tidewind/aircast/internal/archive"
	"github.com/tidewind/aircast/internal/config"
	"github.com/tidewind/aircast/internal/dataset"
	"github.com/tidewind/aircast/internal/export"
	"github.com/tidewind/aircast/internal/history"
	"github.com/tidewind/aircast/internal/metrics"
	"github.com/tidewind/aircast/internal/openaq"
	"github.com/tidewind/aircast/internal/support/util/exception"
	"github.com/tidewind/aircast/internal/support/util/logger"
)

const (
	ModuleIngest  = "ingest"
	ingestJobName = "aircast-ingest"
)

// Ingest drives Stage 1: per-city metadata fetch, archive download,
// enrichment and CSV artifact write. Cities are processed sequentially in
// configuration order; one city's failure never aborts the others.
type Ingest struct {
	cfg       *config.Config
	cities    config.CityConfig
	locations *openaq.LocationClient
	provider  storage.Provider
	repo      history.Repository
	recorder  metrics.Recorder
	tracer    *metrics.Tracer
}

// NewIngest assembles the Stage 1 driver from its dependencies.
func NewIngest(
	cfg *config.Config,
	cities config.CityConfig,
	locations *openaq.LocationClient,
	provider storage.Provider,
	repo history.Repository,
	recorder metrics.Recorder,
	tracer *metrics.Tracer,
) *Ingest {
	return &Ingest{
		cfg:       cfg,
		cities:    cities,
		locations: locations,
		provider:  provider,
		repo:      repo,
		recorder:  recorder,
		tracer:    tracer,
	}
}

// Run executes the ingestion stage for every configured city. Per-city errors
// are collected and returned as one aggregate; a skippable error only skips
// the city that raised it.
func (p *Ingest) Run(ctx context.Context) error {
	ingestCfg := p.cfg.Aircast.Ingest

	start, end, err := ingestCfg.Window()
	if err != nil {
		return err
	}
	logger.Infof("Ingesting measurement window %s .. %s for %d cities.",
		start.Format("2006-01-02"), end.Format("2006-01-02"), len(p.cities))

	sourceConn, err := p.provider.GetConnection(ingestCfg.SourceStorageRef)
	if err != nil {
		return err
	}
	targetConn, err := p.provider.GetConnection(ingestCfg.TargetStorageRef)
	if err != nil {
		return err
	}
	downloader := archive.NewDownloader(sourceConn, ingestCfg.SourceBucket)

	run, err := p.repo.StartRun(ctx, ingestJobName)
	if err != nil {
		return err
	}
	p.recorder.RecordRunStart(ctx, ingestJobName)
	runStart := time.Now()

	var runErr *multierror.Error
	for _, city := range p.cities {
		cityStart := time.Now()
		cityCtx, span := p.tracer.StartSpan(ctx, "ingest.city", attribute.String("city", city.Name))

		status, rows, cityErr := p.processCity(cityCtx, downloader, targetConn, city, start, end)
		if cityErr != nil {
			if exception.IsSkippable(cityErr) {
				logger.Warnf("Skipping city '%s': %s", city.Name, exception.ExtractErrorMessage(cityErr))
				status = history.StatusSkipped
			} else {
				logger.Errorf("City '%s' failed: %v", city.Name, cityErr)
				status = history.StatusFailed
				runErr = multierror.Append(runErr, fmt.Errorf("city %s: %w", city.Name, cityErr))
			}
		}

		if err := p.repo.RecordCityRun(ctx, run.ID, city.Name, status, rows, 0, exception.ExtractErrorMessage(cityErr)); err != nil {
			logger.Errorf("Failed to record history for city '%s': %v", city.Name, err)
		}
		p.recorder.RecordCityEnd(ctx, city.Name, status, time.Since(cityStart))
		span.End()
	}

	finalStatus := history.StatusCompleted
	if runErr.ErrorOrNil() != nil {
		finalStatus = history.StatusFailed
	}
	if err := p.repo.FinishRun(ctx, run, finalStatus); err != nil {
		logger.Errorf("Failed to record end of run '%s': %v", run.ID, err)
	}
	p.recorder.RecordRunEnd(ctx, ingestJobName, finalStatus, time.Since(runStart))

	return runErr.ErrorOrNil()
}

// processCity runs the full fetch-download-enrich-write sequence for one city
// and returns the recorded status together with the number of rows written.
func (p *Ingest) processCity(
	ctx context.Context,
	downloader *archive.Downloader,
	targetConn storage.Connection,
	city config.CityBounds,
	start, end time.Time,
) (string, int, error) {
	ingestCfg := p.cfg.Aircast.Ingest

	metadata, err := p.locations.FetchLocations(ctx, city.Name, city.Bounds)
	if err != nil {
		return history.StatusFailed, 0, err
	}
	if len(metadata) == 0 {
		logger.Warnf("No locations found for city '%s'; skipping.", city.Name)
		return history.StatusSkipped, 0, nil
	}

	ids := make([]int64, 0, len(metadata))
	for id := range metadata {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	result, err := downloader.Download(ctx, ids, start, end)
	if err != nil {
		return history.StatusFailed, 0, err
	}
	if result.Data.IsEmpty() {
		logger.Warnf("No measurement data downloaded for city '%s'; skipping.", city.Name)
		return history.StatusSkipped, 0, nil
	}
	p.recorder.RecordRowsFetched(ctx, city.Name, result.Data.Len())

	cleaned := dataset.Clean(dataset.EnrichWithMetadata(result.Data, metadata))
	logger.Infof("City '%s': %d rows after cleaning.", city.Name, cleaned.Len())

	var buf bytes.Buffer
	if err := cleaned.WriteCSV(&buf); err != nil {
		return history.StatusFailed, 0, err
	}

	objectKey := fmt.Sprintf("%s/%s_data.csv", ingestCfg.OutputPrefix, city.Name)
	if err := targetConn.Upload(ctx, ingestCfg.TargetBucket, objectKey, &buf, "text/csv"); err != nil {
		return history.StatusFailed, 0, exception.NewPipelineError(ModuleIngest,
			fmt.Sprintf("failed to upload CSV artifact '%s'", objectKey), err, false, true)
	}
	p.recorder.RecordArtifactWritten(ctx, "csv")
	logger.Infof("Wrote CSV artifact for city '%s' to '%s' (%d rows).", city.Name, objectKey, cleaned.Len())

	if ingestCfg.ParquetExport {
		parquetKey := strings.TrimSuffix(objectKey, ".csv") + ".parquet"
		if err := export.WriteParquet(ctx, targetConn, ingestCfg.TargetBucket, parquetKey, cleaned); err != nil {
			return history.StatusFailed, cleaned.Len(), err
		}
		p.recorder.RecordArtifactWritten(ctx, "parquet")
	}

	return history.StatusCompleted, cleaned.Len(), nil
}
