package configbinder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tidewind/aircast/internal/support/util/configbinder"
)

type sampleConfig struct {
	Name    string `yaml:"name"`
	Port    int    `yaml:"port"`
	Enabled bool   `yaml:"enabled"`
}

func TestBindProperties_UsesYamlTags(t *testing.T) {
	properties := map[string]interface{}{
		"name":    "archive",
		"port":    9000,
		"enabled": true,
	}

	var cfg sampleConfig
	err := configbinder.BindProperties(properties, &cfg)
	assert.NoError(t, err)
	assert.Equal(t, "archive", cfg.Name)
	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.Enabled)
}

func TestBindProperties_WeaklyTypedInput(t *testing.T) {
	// Values arriving from expanded YAML may be strings; binding converts them.
	properties := map[string]interface{}{
		"port":    "9000",
		"enabled": "true",
	}

	var cfg sampleConfig
	err := configbinder.BindProperties(properties, &cfg)
	assert.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.Enabled)
}

func TestBindProperties_UnbindableTarget(t *testing.T) {
	properties := map[string]interface{}{"port": "not-a-number"}

	var cfg sampleConfig
	if err := configbinder.BindProperties(properties, &cfg); err == nil {
		t.Error("Expected an error for a value that cannot be converted")
	}
}
