package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tidewind/aircast/internal/adapter/storage"
	"github.com/tidewind/aircast/internal/config"
	"github.com/tidewind/aircast/internal/dataset"
	"github.com/tidewind/aircast/internal/history"
	"github.com/tidewind/aircast/internal/metrics"
	"github.com/tidewind/aircast/internal/prompt"
	"github.com/tidewind/aircast/internal/support/util/exception"
	"github.com/tidewind/aircast/internal/support/util/logger"
)

const (
	ModulePrompts  = "prompts"
	promptsJobName = "aircast-prompts"
)

// Prompts drives Stage 2: per-city CSV read-back, daily resampling and
// prompt rendering, accumulated into two global sequences in city order.
type Prompts struct {
	cfg       *config.Config
	cities    config.CityConfig
	provider  storage.Provider
	generator *prompt.Generator
	repo      history.Repository
	recorder  metrics.Recorder
	tracer    *metrics.Tracer
}

// NewPrompts assembles the Stage 2 driver from its dependencies.
func NewPrompts(
	cfg *config.Config,
	cities config.CityConfig,
	provider storage.Provider,
	repo history.Repository,
	recorder metrics.Recorder,
	tracer *metrics.Tracer,
) *Prompts {
	promptsCfg := cfg.Aircast.Prompts
	return &Prompts{
		cfg:      cfg,
		cities:   cities,
		provider: provider,
		generator: &prompt.Generator{
			Parameter:         promptsCfg.Parameter,
			HistoryLengthDays: promptsCfg.HistoryLengthDays,
			ForecastDays:      promptsCfg.ForecastDays,
			MaxPromptsPerCity: promptsCfg.MaxPromptsPerCity,
		},
		repo:     repo,
		recorder: recorder,
		tracer:   tracer,
	}
}

// Run generates the zero-shot and fine-tuning prompt sets for every city and
// writes both as indented JSON arrays. A city whose stored artifact is missing
// or unreadable is logged and skipped.
func (p *Prompts) Run(ctx context.Context) error {
	ingestCfg := p.cfg.Aircast.Ingest
	promptsCfg := p.cfg.Aircast.Prompts

	conn, err := p.provider.GetConnection(ingestCfg.TargetStorageRef)
	if err != nil {
		return err
	}

	run, err := p.repo.StartRun(ctx, promptsJobName)
	if err != nil {
		return err
	}
	p.recorder.RecordRunStart(ctx, promptsJobName)
	runStart := time.Now()

	var zeroShot []prompt.Record
	var fineTuning []prompt.Record
	var runErr *multierror.Error

	for _, city := range p.cities {
		cityStart := time.Now()
		cityCtx, span := p.tracer.StartSpan(ctx, "prompts.city", attribute.String("city", city.Name))

		status := history.StatusCompleted
		zs, ft, cityErr := p.processCity(cityCtx, conn, city.Name)
		if cityErr != nil {
			if exception.IsSkippable(cityErr) {
				logger.Warnf("Skipping city '%s': %s", city.Name, exception.ExtractErrorMessage(cityErr))
				status = history.StatusSkipped
			} else {
				logger.Errorf("City '%s' failed: %v", city.Name, cityErr)
				status = history.StatusFailed
				runErr = multierror.Append(runErr, fmt.Errorf("city %s: %w", city.Name, cityErr))
			}
		} else {
			zeroShot = append(zeroShot, zs...)
			fineTuning = append(fineTuning, ft...)
			p.recorder.RecordPromptsGenerated(ctx, city.Name, "zeroshot", len(zs))
			p.recorder.RecordPromptsGenerated(ctx, city.Name, "finetuning", len(ft))
		}

		if err := p.repo.RecordCityRun(ctx, run.ID, city.Name, status, 0, len(zs)+len(ft), exception.ExtractErrorMessage(cityErr)); err != nil {
			logger.Errorf("Failed to record history for city '%s': %v", city.Name, err)
		}
		p.recorder.RecordCityEnd(ctx, city.Name, status, time.Since(cityStart))
		span.End()
	}

	if err := saveJSON(promptsCfg.ZeroShotOutput, zeroShot); err != nil {
		runErr = multierror.Append(runErr, err)
	} else {
		p.recorder.RecordArtifactWritten(ctx, "json")
	}
	if err := saveJSON(promptsCfg.FineTuningOutput, fineTuning); err != nil {
		runErr = multierror.Append(runErr, err)
	} else {
		p.recorder.RecordArtifactWritten(ctx, "json")
	}

	finalStatus := history.StatusCompleted
	if runErr.ErrorOrNil() != nil {
		finalStatus = history.StatusFailed
	}
	if err := p.repo.FinishRun(ctx, run, finalStatus); err != nil {
		logger.Errorf("Failed to record end of run '%s': %v", run.ID, err)
	}
	p.recorder.RecordRunEnd(ctx, promptsJobName, finalStatus, time.Since(runStart))

	return runErr.ErrorOrNil()
}

// processCity loads one city's stored CSV and renders both prompt flavors.
func (p *Prompts) processCity(ctx context.Context, conn storage.Connection, city string) ([]prompt.Record, []prompt.Record, error) {
	ingestCfg := p.cfg.Aircast.Ingest
	objectKey := fmt.Sprintf("%s/%s_data.csv", ingestCfg.OutputPrefix, city)

	body, err := conn.Download(ctx, ingestCfg.TargetBucket, objectKey)
	if err != nil {
		return nil, nil, exception.NewStorageReadError(ModulePrompts,
			fmt.Sprintf("failed to load stored dataset '%s'", objectKey), err)
	}
	defer body.Close()

	table, err := dataset.ReadCSV(body)
	if err != nil {
		return nil, nil, exception.NewStorageReadError(ModulePrompts,
			fmt.Sprintf("failed to parse stored dataset '%s'", objectKey), err)
	}

	zs, err := p.generator.ZeroShot(table, city)
	if err != nil {
		return nil, nil, err
	}
	ft, err := p.generator.FineTuning(table, city)
	if err != nil {
		return nil, nil, err
	}

	logger.Infof("City '%s': %d zero-shot and %d fine-tuning prompts generated.", city, len(zs), len(ft))
	return zs, ft, nil
}

// saveJSON writes the records as an indented JSON array, creating parent
// directories as needed. A nil slice is written as an empty array.
func saveJSON(path string, records []prompt.Record) error {
	if records == nil {
		records = []prompt.Record{}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory '%s': %w", dir, err)
		}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode prompts for '%s': %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write prompts to '%s': %w", path, err)
	}

	logger.Infof("Saved %d prompt records to %s.", len(records), path)
	return nil
}
