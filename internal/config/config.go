package config

// Package config provides structures and utilities for managing the pipeline configuration.

// EmbeddedConfig holds the content of the configuration file, typically passed from main.go.
// It is used when loading configuration from an embedded source (e.g., a compiled binary).
type EmbeddedConfig []byte

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the logging level (e.g., "INFO", "DEBUG", "TRACE").
	Level string `yaml:"level"`
}

// SystemConfig holds system-wide settings.
type SystemConfig struct {
	// Timezone is the application timezone (e.g., "UTC", "Asia/Kolkata").
	Timezone string `yaml:"timezone"`
	// Logging is the logging configuration.
	Logging LoggingConfig `yaml:"logging"`
}

// IngestConfig holds configuration for the ingestion stage.
type IngestConfig struct {
	// SourceBucket is the public archive bucket holding daily measurement files.
	SourceBucket string `yaml:"source_bucket"`
	// TargetBucket is the authenticated bucket receiving per-city CSV artifacts.
	TargetBucket string `yaml:"target_bucket"`
	// OutputPrefix is the key prefix under which per-city artifacts are written.
	OutputPrefix string `yaml:"output_prefix"`
	// APIKey is the OpenAQ API key sent as the X-API-Key header.
	APIKey string `yaml:"api_key"`
	// APIEndpoint is the base URL of the locations API.
	APIEndpoint string `yaml:"api_endpoint"`
	// CitiesFile is the path to the city -> bounding box configuration file.
	CitiesFile string `yaml:"cities_file"`
	// WindowDays is the size of the ingestion window in days, counted back from EndDate.
	// This is the single authoritative window option.
	WindowDays int `yaml:"window_days"`
	// EndDate is the inclusive end of the ingestion window, layout "02/01/2006 15:04:05 -0700".
	EndDate string `yaml:"end_date"`
	// SourceStorageRef names the storage connection used for the public archive.
	SourceStorageRef string `yaml:"source_storage_ref"`
	// TargetStorageRef names the storage connection used for the private lake.
	TargetStorageRef string `yaml:"target_storage_ref"`
	// ParquetExport enables writing a snappy parquet mirror next to each CSV artifact.
	ParquetExport bool `yaml:"parquet_export"`
}

// PromptsConfig holds configuration for the prompt-generation stage.
type PromptsConfig struct {
	// Parameter is the measurement column rendered into prompts (e.g., "value").
	Parameter string `yaml:"parameter"`
	// HistoryLengthDays is the historical window size in days.
	HistoryLengthDays int `yaml:"history_length_days"`
	// ForecastDays is the forecast window size in days.
	ForecastDays int `yaml:"forecast_days"`
	// MaxPromptsPerCity caps the number of fine-tuning records per city. 0 means unlimited.
	MaxPromptsPerCity int `yaml:"max_prompts_per_city"`
	// ZeroShotOutput is the local path of the zero-shot JSON artifact.
	ZeroShotOutput string `yaml:"zero_shot_output"`
	// FineTuningOutput is the local path of the fine-tuning JSON artifact.
	FineTuningOutput string `yaml:"fine_tuning_output"`
}

// CredentialsConfig holds settings for the temporary-credential exchange.
type CredentialsConfig struct {
	// IDBrokerEndpoint is the base URL of the credential broker. Empty disables the exchange.
	IDBrokerEndpoint string `yaml:"idbroker_endpoint"`
	// DelegationToken is the bearer token presented to the broker.
	DelegationToken string `yaml:"delegation_token"`
}

// HistoryConfig holds settings for pipeline run bookkeeping.
type HistoryConfig struct {
	// Enabled turns run-history recording on.
	Enabled bool `yaml:"enabled"`
	// DBRef names the database connection used by the history repository.
	DBRef string `yaml:"db_ref"`
}

// TelemetryConfig holds metrics and tracing settings.
type TelemetryConfig struct {
	// Metrics selects the metrics backend: "noop", "prometheus" or "otel".
	Metrics string `yaml:"metrics"`
	// Exporter selects the OTLP transport: "http" or "grpc".
	Exporter string `yaml:"exporter"`
	// Endpoint is the OTLP collector endpoint (host:port).
	Endpoint string `yaml:"endpoint"`
	// Tracing enables OTLP trace export.
	Tracing bool `yaml:"tracing"`
}

// AircastConfig holds all configuration under the "aircast" top-level key.
type AircastConfig struct {
	// System contains system-wide configurations.
	System SystemConfig `yaml:"system"`
	// Ingest contains ingestion-stage configurations.
	Ingest IngestConfig `yaml:"ingest"`
	// Prompts contains prompt-stage configurations.
	Prompts PromptsConfig `yaml:"prompts"`
	// Credentials contains credential-broker settings.
	Credentials CredentialsConfig `yaml:"credentials"`
	// History contains run-history settings.
	History HistoryConfig `yaml:"history"`
	// Telemetry contains metrics and tracing settings.
	Telemetry TelemetryConfig `yaml:"telemetry"`
	// AdapterConfigs holds configurations for storage and database adapters.
	AdapterConfigs map[string]interface{} `yaml:"adapters"`
}

// Config is the root structure for the entire application configuration.
type Config struct {
	// Aircast contains the top-level configuration for the pipeline.
	Aircast AircastConfig `yaml:"aircast"`
}

// NewConfig returns a Config populated with default values.
func NewConfig() *Config {
	return &Config{
		Aircast: AircastConfig{
			System: SystemConfig{
				Timezone: "UTC",
				Logging:  LoggingConfig{Level: "INFO"},
			},
			Ingest: IngestConfig{
				SourceBucket:     "openaq-data-archive",
				OutputPrefix:     "data/airquality",
				APIEndpoint:      "https://api.openaq.org",
				CitiesFile:       "cities_config.json",
				WindowDays:       30,
				EndDate:          "31/12/2023 23:59:59 +0530",
				SourceStorageRef: "archive",
				TargetStorageRef: "lake",
			},
			Prompts: PromptsConfig{
				Parameter:         "value",
				HistoryLengthDays: 10,
				ForecastDays:      2,
				ZeroShotOutput:    "data/air_quality_forecast_zeroshot_prompts.json",
				FineTuningOutput:  "data/air_quality_forecast_ft_prompts.json",
			},
			History: HistoryConfig{
				DBRef: "metadata",
			},
			Telemetry: TelemetryConfig{
				Metrics:  "noop",
				Exporter: "http",
			},
		},
	}
}
