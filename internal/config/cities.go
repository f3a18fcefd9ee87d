package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tidewind/aircast/internal/support/util/exception"
)

// BoundingBox is a rectangular geographic filter expressed as
// west/south/east/north coordinates in floating-point degrees.
type BoundingBox struct {
	West  float64
	South float64
	East  float64
	North float64
}

// QueryValue renders the bounding box as the comma-joined "west,south,east,north"
// string expected by the locations API's bbox query parameter.
func (b BoundingBox) QueryValue() string {
	coords := []float64{b.West, b.South, b.East, b.North}
	parts := make([]string, len(coords))
	for i, c := range coords {
		parts[i] = strconv.FormatFloat(c, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

// CityBounds pairs a city name with its bounding box.
type CityBounds struct {
	Name   string
	Bounds BoundingBox
}

// CityConfig is the ordered list of configured cities. Order follows the
// configuration file so per-run output is deterministic.
type CityConfig []CityBounds

// Names returns the configured city names in file order.
func (c CityConfig) Names() []string {
	names := make([]string, len(c))
	for i, cb := range c {
		names[i] = cb.Name
	}
	return names
}

// LoadCityConfig reads the city -> [west, south, east, north] mapping from a
// JSON file, preserving the key order of the document. A missing file or
// malformed document yields a configuration error, which is fatal to the run.
func LoadCityConfig(path string) (CityConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, exception.NewConfigurationError(moduleName, fmt.Sprintf("failed to read city configuration file '%s'", path), err)
	}
	return ParseCityConfig(data)
}

// ParseCityConfig decodes a city configuration document. The top level must be
// a JSON object whose values are 4-element coordinate arrays.
func ParseCityConfig(data []byte) (CityConfig, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, exception.NewConfigurationError(moduleName, "failed to decode city configuration", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, exception.NewConfigurationError(moduleName, "city configuration must be a JSON object", nil)
	}

	var cities CityConfig
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, exception.NewConfigurationError(moduleName, "failed to decode city name", err)
		}
		name, ok := keyTok.(string)
		if !ok {
			return nil, exception.NewConfigurationError(moduleName, "city name must be a string", nil)
		}

		var coords []float64
		if err := dec.Decode(&coords); err != nil {
			return nil, exception.NewConfigurationError(moduleName, fmt.Sprintf("failed to decode bounding box for city '%s'", name), err)
		}
		if len(coords) != 4 {
			return nil, exception.NewConfigurationError(moduleName,
				fmt.Sprintf("bounding box for city '%s' must have exactly 4 coordinates, got %d", name, len(coords)), nil)
		}

		cities = append(cities, CityBounds{
			Name: name,
			Bounds: BoundingBox{
				West:  coords[0],
				South: coords[1],
				East:  coords[2],
				North: coords[3],
			},
		})
	}

	if _, err := dec.Token(); err != nil {
		return nil, exception.NewConfigurationError(moduleName, "failed to decode city configuration", err)
	}

	return cities, nil
}
