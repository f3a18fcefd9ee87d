package pipeline_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tidewind/aircast/internal/adapter/storage"
	"github.com/tidewind/aircast/internal/config"
	"github.com/tidewind/aircast/internal/dataset"
	"github.com/tidewind/aircast/internal/history"
	"github.com/tidewind/aircast/internal/metrics"
	"github.com/tidewind/aircast/internal/openaq"
	"github.com/tidewind/aircast/internal/pipeline"
)

const archiveBucket = "archive"

// newIngestConfig wires both storage connections to local directories and
// points the locations API at the given endpoint.
func newIngestConfig(t *testing.T, baseDir, apiEndpoint string) *config.Config {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Aircast.Ingest.SourceBucket = archiveBucket
	cfg.Aircast.Ingest.TargetBucket = lakeBucket
	cfg.Aircast.Ingest.OutputPrefix = "data/airquality"
	cfg.Aircast.Ingest.APIEndpoint = apiEndpoint
	cfg.Aircast.Ingest.EndDate = "03/01/2023 23:59:59 +0000"
	cfg.Aircast.Ingest.WindowDays = 2
	cfg.Aircast.Ingest.SourceStorageRef = "archive"
	cfg.Aircast.Ingest.TargetStorageRef = "lake"
	cfg.Aircast.AdapterConfigs = map[string]interface{}{
		"storage": map[string]interface{}{
			"archive": map[string]interface{}{"type": "local", "base_dir": baseDir},
			"lake":    map[string]interface{}{"type": "local", "base_dir": baseDir},
		},
	}
	return cfg
}

// writeDailyArchive drops one gzip daily file for the location/day.
func writeDailyArchive(t *testing.T, baseDir string, locationID int64, day time.Time, csvBody string) {
	t.Helper()
	key := fmt.Sprintf("records/csv.gz/locationid=%d/year=%s/month=%s/daily-%s.csv.gz",
		locationID, day.Format("2006"), day.Format("01"), day.Format("20060102"))
	path := filepath.Join(baseDir, archiveBucket, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create archive directory: %v", err)
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write([]byte(csvBody)); err != nil {
		t.Fatalf("Failed to compress fixture: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("Failed to close gzip writer: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
}

func TestIngestRun_WritesCityArtifact(t *testing.T) {
	baseDir := t.TempDir()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [{"id": 42, "name": "Wellington Central", "country": {"name": "New Zealand"}, "provider": {"name": "AirNow"}}]}`))
	}))
	defer server.Close()

	cfg := newIngestConfig(t, baseDir, server.URL)

	// Window is 2023-01-01 .. 2023-01-03; files for two of the three days.
	day1 := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)
	writeDailyArchive(t, baseDir, 42, day1, "location_id,value,datetime\n42,10.0,2023-01-02T01:00:00Z\n")
	writeDailyArchive(t, baseDir, 42, day2, "location_id,value,datetime\n42,12.0,2023-01-03T01:00:00Z\n42,10.0,2023-01-02T01:00:00Z\n")

	cities := config.CityConfig{{Name: "Wellington", Bounds: config.BoundingBox{West: 174.69, South: -41.35, East: 174.82, North: -41.24}}}

	locations, err := openaq.NewLocationClient(cfg)
	assert.NoError(t, err)

	p := pipeline.NewIngest(cfg, cities, locations, storage.NewConfigProvider(cfg),
		history.NewNoopRepository(), metrics.NewNoopRecorder(), nil)
	assert.NoError(t, p.Run(context.Background()))

	artifact := filepath.Join(baseDir, lakeBucket, "data", "airquality", "Wellington_data.csv")
	data, err := os.ReadFile(artifact)
	if err != nil {
		t.Fatalf("Expected city artifact at %s: %v", artifact, err)
	}

	table, err := dataset.ReadCSV(bytes.NewReader(data))
	assert.NoError(t, err)
	// The duplicated 01-02 row is dropped by cleaning.
	assert.Equal(t, 2, table.Len())
	assert.True(t, table.HasColumn("location_name"))
	assert.True(t, table.HasColumn("provider"))
	assert.True(t, table.HasColumn("timestamp"))
	assert.Equal(t, "Wellington Central", table.Cell(0, "location_name").Raw)
	assert.Equal(t, "AirNow", table.Cell(0, "provider").Raw)
}

// TestIngestRun_ZeroLocationsSkipsCity verifies no artifact is produced for a
// city whose bounding box yields no locations.
func TestIngestRun_ZeroLocationsSkipsCity(t *testing.T) {
	baseDir := t.TempDir()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	cfg := newIngestConfig(t, baseDir, server.URL)
	cities := config.CityConfig{{Name: "Nowhere"}}

	locations, err := openaq.NewLocationClient(cfg)
	assert.NoError(t, err)

	p := pipeline.NewIngest(cfg, cities, locations, storage.NewConfigProvider(cfg),
		history.NewNoopRepository(), metrics.NewNoopRecorder(), nil)
	assert.NoError(t, p.Run(context.Background()))

	_, err = os.Stat(filepath.Join(baseDir, lakeBucket, "data", "airquality", "Nowhere_data.csv"))
	assert.True(t, os.IsNotExist(err))
}

// TestIngestRun_OneCityFailureDoesNotAbortOthers verifies per-city isolation:
// an upstream failure for one city still lets the next city complete.
func TestIngestRun_OneCityFailureDoesNotAbortOthers(t *testing.T) {
	baseDir := t.TempDir()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Query().Get("bbox"), "174.69") {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"results": [{"id": 7, "name": "Central", "country": {"name": "NZ"}, "provider": {"name": "NIWA"}}]}`))
	}))
	defer server.Close()

	cfg := newIngestConfig(t, baseDir, server.URL)

	day := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	writeDailyArchive(t, baseDir, 7, day, "location_id,value,datetime\n7,5.0,2023-01-02T01:00:00Z\n")

	cities := config.CityConfig{
		{Name: "Wellington", Bounds: config.BoundingBox{West: 174.69, South: -41.35, East: 174.82, North: -41.24}},
		{Name: "Auckland", Bounds: config.BoundingBox{West: 174.44, South: -37.06, East: 175.03, North: -36.66}},
	}

	locations, err := openaq.NewLocationClient(cfg)
	assert.NoError(t, err)

	p := pipeline.NewIngest(cfg, cities, locations, storage.NewConfigProvider(cfg),
		history.NewNoopRepository(), metrics.NewNoopRecorder(), nil)

	// The run reports the failed city but the other artifact exists.
	err = p.Run(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Wellington")

	_, statErr := os.Stat(filepath.Join(baseDir, lakeBucket, "data", "airquality", "Auckland_data.csv"))
	assert.NoError(t, statErr)
}
