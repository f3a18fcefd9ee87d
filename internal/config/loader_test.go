package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tidewind/aircast/internal/config"
)

// TestNewConfig_Defaults verifies that NewConfig initializes the pipeline
// configuration with the expected default values.
func TestNewConfig_Defaults(t *testing.T) {
	cfg := config.NewConfig()

	if cfg.Aircast.System.Timezone != "UTC" {
		t.Errorf("Expected default Timezone 'UTC', got %s", cfg.Aircast.System.Timezone)
	}
	if cfg.Aircast.System.Logging.Level != "INFO" {
		t.Errorf("Expected default Logging Level 'INFO', got %s", cfg.Aircast.System.Logging.Level)
	}
	assert.Equal(t, "openaq-data-archive", cfg.Aircast.Ingest.SourceBucket)
	assert.Equal(t, 30, cfg.Aircast.Ingest.WindowDays)
	assert.Equal(t, "archive", cfg.Aircast.Ingest.SourceStorageRef)
	assert.Equal(t, "lake", cfg.Aircast.Ingest.TargetStorageRef)
	assert.Equal(t, "value", cfg.Aircast.Prompts.Parameter)
	assert.Equal(t, "metadata", cfg.Aircast.History.DBRef)
	assert.Equal(t, "noop", cfg.Aircast.Telemetry.Metrics)
}

func TestLoadConfig_EmbeddedYAMLOverridesDefaults(t *testing.T) {
	embedded := []byte(`
aircast:
  system:
    logging:
      level: "DEBUG"
  ingest:
    target_bucket: "my-lake"
    window_days: 7
`)

	cfg, err := config.LoadConfig("", embedded)
	assert.NoError(t, err)
	assert.Equal(t, "DEBUG", cfg.Aircast.System.Logging.Level)
	assert.Equal(t, "my-lake", cfg.Aircast.Ingest.TargetBucket)
	assert.Equal(t, 7, cfg.Aircast.Ingest.WindowDays)
	// Untouched options keep their defaults.
	assert.Equal(t, "openaq-data-archive", cfg.Aircast.Ingest.SourceBucket)
}

func TestLoadConfig_EnvironmentOverridesWin(t *testing.T) {
	t.Setenv("TARGET_BUCKET_NAME", "env-lake")
	t.Setenv("NUMBER_OF_DAYS", "12")
	t.Setenv("END_DATE", "01/06/2024 00:00:00 +0000")

	embedded := []byte(`
aircast:
  ingest:
    target_bucket: "yaml-lake"
    window_days: 7
`)

	cfg, err := config.LoadConfig("", embedded)
	assert.NoError(t, err)
	assert.Equal(t, "env-lake", cfg.Aircast.Ingest.TargetBucket)
	assert.Equal(t, 12, cfg.Aircast.Ingest.WindowDays)
	assert.Equal(t, "01/06/2024 00:00:00 +0000", cfg.Aircast.Ingest.EndDate)
}

func TestLoadConfig_InvalidNumberOfDaysIgnored(t *testing.T) {
	t.Setenv("NUMBER_OF_DAYS", "soon")

	cfg, err := config.LoadConfig("", []byte("aircast: {}"))
	assert.NoError(t, err)
	assert.Equal(t, 30, cfg.Aircast.Ingest.WindowDays)
}

func TestLoadConfig_ExpandsEnvironmentPlaceholders(t *testing.T) {
	t.Setenv("MY_API_KEY", "secret-key")

	embedded := []byte(`
aircast:
  ingest:
    api_key: "${MY_API_KEY}"
`)

	cfg, err := config.LoadConfig("", embedded)
	assert.NoError(t, err)
	assert.Equal(t, "secret-key", cfg.Aircast.Ingest.APIKey)
}
