package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tidewind/aircast/internal/support/util/exception"
	"github.com/tidewind/aircast/internal/support/util/logger"
)

// Package config provides utilities for loading the application configuration
// from an embedded YAML document and environment variables.

const moduleName = "config"

// LoadConfig loads configuration in three layers: defaults from NewConfig,
// the embedded YAML document (with ${VAR} placeholders expanded from the
// environment), and finally a fixed set of well-known environment variables
// that override individual options.
//
// Parameters:
//
//	envFilePath: The path to an optional .env file loaded before expansion.
//	embeddedConfig: The embedded configuration bytes.
//
// Returns:
//
//	A pointer to the loaded Config and an error if loading fails.
func LoadConfig(envFilePath string, embeddedConfig EmbeddedConfig) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Warnf(".env file (%s) not found or could not be loaded: %v", envFilePath, err)
		}
	} else {
		if err := godotenv.Load(); err != nil {
			logger.Debugf(".env file not found or could not be loaded: %v", err)
		}
	}

	cfg := NewConfig()

	expanded, err := NewOsEnvironmentExpander().Expand(embeddedConfig)
	if err != nil {
		return nil, exception.NewConfigurationError(moduleName, "failed to expand environment variables in embedded config", err)
	}

	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, exception.NewConfigurationError(moduleName, "failed to unmarshal embedded config", err)
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides maps the recognized environment variables onto the
// configuration. These are the names the pipeline has always honored, so they
// win over both defaults and the YAML document.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAQ_DATA_SOURCE"); v != "" {
		cfg.Aircast.Ingest.SourceBucket = v
	}
	if v := os.Getenv("TARGET_BUCKET_NAME"); v != "" {
		cfg.Aircast.Ingest.TargetBucket = v
	}
	if v := os.Getenv("OUTPUT_FILE_KEY_PREFIX"); v != "" {
		cfg.Aircast.Ingest.OutputPrefix = v
	}
	if v := os.Getenv("API_KEY"); v != "" {
		cfg.Aircast.Ingest.APIKey = v
	}
	if v := os.Getenv("CITIES_CONFIG_FILE"); v != "" {
		cfg.Aircast.Ingest.CitiesFile = v
	}
	if v := os.Getenv("END_DATE"); v != "" {
		cfg.Aircast.Ingest.EndDate = v
	}
	if v := os.Getenv("NUMBER_OF_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			cfg.Aircast.Ingest.WindowDays = days
		} else {
			logger.Warnf("Ignoring invalid NUMBER_OF_DAYS value '%s'.", v)
		}
	}
}
