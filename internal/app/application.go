// Package app assembles the pipeline binaries with uber-fx.
package app

import (
	"context"

	"go.uber.org/fx"

	"github.com/tidewind/aircast/internal/adapter/storage"
	"github.com/tidewind/aircast/internal/config"
	"github.com/tidewind/aircast/internal/credentials"
	"github.com/tidewind/aircast/internal/history"
	"github.com/tidewind/aircast/internal/metrics"
	"github.com/tidewind/aircast/internal/openaq"
	"github.com/tidewind/aircast/internal/pipeline"
	"github.com/tidewind/aircast/internal/support/util/logger"

	gormadapter "github.com/tidewind/aircast/internal/adapter/database/gorm"
)

// Runner is the stage-specific entry point executed by the fx lifecycle.
type Runner interface {
	Run(ctx context.Context) error
}

// newCityConfig loads the ordered city -> bounding box configuration.
func newCityConfig(cfg *config.Config) (config.CityConfig, error) {
	return config.LoadCityConfig(cfg.Aircast.Ingest.CitiesFile)
}

// newHistoryRepository opens the configured history store, applies pending
// migrations and returns a repository. Recording disabled yields a no-op.
func newHistoryRepository(cfg *config.Config) (history.Repository, error) {
	if !cfg.Aircast.History.Enabled {
		return history.NewNoopRepository(), nil
	}

	db, dbCfg, err := gormadapter.Open(cfg, cfg.Aircast.History.DBRef)
	if err != nil {
		return nil, err
	}
	if err := history.Migrate(db, dbCfg.Type); err != nil {
		return nil, err
	}
	return history.NewGormRepository(db), nil
}

// applyBrokerCredentials exchanges a delegation token for temporary storage
// credentials when an IDBroker endpoint is configured.
func applyBrokerCredentials(ctx context.Context, cfg *config.Config) error {
	broker := credentials.NewBroker(cfg.Aircast.Credentials)
	if broker == nil {
		return nil
	}
	creds, err := broker.Fetch(ctx)
	if err != nil {
		return err
	}
	return creds.Apply()
}

// commonModule provides the dependencies shared by both stages.
func commonModule(appCtx context.Context, cfg *config.Config, serviceName string) fx.Option {
	return fx.Options(
		fx.Supply(
			cfg,
			fx.Annotate(appCtx, fx.As(new(context.Context)), fx.ResultTags(`name:"appCtx"`)),
		),
		fx.Provide(
			storage.NewConfigProvider,
			newCityConfig,
			newHistoryRepository,
			func() (metrics.Recorder, error) {
				return metrics.NewRecorder(appCtx, cfg.Aircast.Telemetry, serviceName)
			},
			func() (*metrics.Tracer, error) {
				return metrics.NewTracer(appCtx, cfg.Aircast.Telemetry, serviceName)
			},
		),
	)
}

// runPipeline launches the stage runner once the fx app has started and shuts
// the application down when the run finishes.
func runPipeline(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	runner Runner,
	provider storage.Provider,
	repo history.Repository,
	recorder metrics.Recorder,
	tracer *metrics.Tracer,
	appCtx context.Context,
) {
	var runErr error
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer func() {
					if r := recover(); r != nil {
						logger.Errorf("Panic recovered in pipeline execution: %v", r)
					}
					if err := shutdowner.Shutdown(); err != nil {
						logger.Errorf("Failed to shutdown application: %v", err)
					}
				}()

				if runErr = runner.Run(appCtx); runErr != nil {
					logger.Errorf("Pipeline run failed: %v", runErr)
					return
				}
				logger.Infof("Pipeline run completed successfully.")
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := recorder.Shutdown(ctx); err != nil {
				logger.Errorf("Failed to flush metrics: %v", err)
			}
			if err := tracer.Shutdown(ctx); err != nil {
				logger.Errorf("Failed to flush traces: %v", err)
			}
			if err := repo.Close(); err != nil {
				logger.Errorf("Failed to close history repository: %v", err)
			}
			if err := provider.CloseAll(); err != nil {
				logger.Errorf("Failed to close storage connections: %v", err)
			}
			logger.Infof("Application is shutting down.")
			return nil
		},
	})
}

// run loads configuration and executes one stage inside an fx container.
func run(appCtx context.Context, envFilePath string, embeddedConfig config.EmbeddedConfig, serviceName string, stageModule fx.Option) {
	cfg, err := config.LoadConfig(envFilePath, embeddedConfig)
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logger.SetLogLevel(cfg.Aircast.System.Logging.Level)
	logger.Infof("Log level set to: %s", cfg.Aircast.System.Logging.Level)

	if err := applyBrokerCredentials(appCtx, cfg); err != nil {
		logger.Fatalf("Failed to obtain storage credentials: %v", err)
	}

	app := fx.New(
		commonModule(appCtx, cfg, serviceName),
		stageModule,
		fx.Invoke(fx.Annotate(runPipeline, fx.ParamTags(
			"", // lc fx.Lifecycle
			"", // shutdowner fx.Shutdowner
			"", // runner Runner
			"", // provider storage.Provider
			"", // repo history.Repository
			"", // recorder metrics.Recorder
			"", // tracer *metrics.Tracer
			`name:"appCtx"`,
		))),
	)

	app.Run()

	if app.Err() != nil {
		logger.Fatalf("Application run failed: %v", app.Err())
	}
}

// RunIngestApplication runs Stage 1 (archive ingestion).
func RunIngestApplication(appCtx context.Context, envFilePath string, embeddedConfig config.EmbeddedConfig) {
	run(appCtx, envFilePath, embeddedConfig, "aircast-ingest", fx.Options(
		fx.Provide(
			openaq.NewLocationClient,
			fx.Annotate(pipeline.NewIngest, fx.As(new(Runner))),
		),
	))
}

// RunPromptApplication runs Stage 2 (prompt generation).
func RunPromptApplication(appCtx context.Context, envFilePath string, embeddedConfig config.EmbeddedConfig) {
	run(appCtx, envFilePath, embeddedConfig, "aircast-prompts", fx.Options(
		fx.Provide(
			fx.Annotate(pipeline.NewPrompts, fx.As(new(Runner))),
		),
	))
}
