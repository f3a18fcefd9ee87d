package archive_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tidewind/aircast/internal/adapter/storage/config"
	"github.com/tidewind/aircast/internal/adapter/storage/local"
	"github.com/tidewind/aircast/internal/archive"
)

const testBucket = "archive-bucket"

// writeArchiveObject drops a gzip-compressed daily CSV into the local bucket
// layout used by the public archive.
func writeArchiveObject(t *testing.T, baseDir string, locationID int64, day time.Time, csvBody string) {
	t.Helper()

	key := fmt.Sprintf("records/csv.gz/locationid=%d/year=%s/month=%s/location-%d-%s.csv.gz",
		locationID, day.Format("2006"), day.Format("01"), locationID, day.Format("20060102"))
	path := filepath.Join(baseDir, testBucket, filepath.FromSlash(key))
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

func newArchiveDownloader(t *testing.T, baseDir string) *archive.Downloader {
	t.Helper()
	conn, err := local.NewLocalAdapter(config.StorageConfig{Type: "local", BaseDir: baseDir}, "archive")
	if err != nil {
		t.Fatalf("Failed to create local adapter: %v", err)
	}
	return archive.NewDownloader(conn, testBucket)
}

func TestDownload_ConsolidatesDailyFiles(t *testing.T) {
	baseDir := t.TempDir()
	day1 := time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	writeArchiveObject(t, baseDir, 42, day1, "location_id,value\n42,10.5\n42,11.0\n")
	writeArchiveObject(t, baseDir, 42, day2, "location_id,value\n42,9.1\n")
	writeArchiveObject(t, baseDir, 7, day1, "location_id,value\n7,3.3\n")

	d := newArchiveDownloader(t, baseDir)
	result, err := d.Download(context.Background(), []int64{7, 42}, day1, day2)
	assert.NoError(t, err)
	assert.Equal(t, 4, result.Data.Len())

	// Row order follows the location/day iteration order: location 7 first.
	assert.Equal(t, "7", result.Data.Cell(0, "location_id").Raw)
	assert.Equal(t, "10.5", result.Data.Cell(1, "value").Raw)
	assert.Equal(t, "11.0", result.Data.Cell(2, "value").Raw)
	assert.Equal(t, "9.1", result.Data.Cell(3, "value").Raw)

	// Location 7 had no file for day2.
	assert.Len(t, result.Failed, 1)
	assert.Equal(t, int64(7), result.Failed[0].LocationID)
	assert.Equal(t, day2, result.Failed[0].Day)
}

// TestDownload_MissingDaysTrackedPerDay verifies the tracking list records a
// location once per missing day; duplicates are expected.
func TestDownload_MissingDaysTrackedPerDay(t *testing.T) {
	baseDir := t.TempDir()
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 2)

	d := newArchiveDownloader(t, baseDir)
	result, err := d.Download(context.Background(), []int64{5}, start, end)
	assert.NoError(t, err)
	assert.True(t, result.Data.IsEmpty())
	assert.Len(t, result.Failed, 3)
	for _, f := range result.Failed {
		assert.Equal(t, int64(5), f.LocationID)
	}
}

func TestDownload_ColumnUnionAcrossDays(t *testing.T) {
	baseDir := t.TempDir()
	day1 := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	writeArchiveObject(t, baseDir, 1, day1, "location_id,value\n1,2.0\n")
	writeArchiveObject(t, baseDir, 1, day2, "location_id,value,unit\n1,3.0,µg/m³\n")

	d := newArchiveDownloader(t, baseDir)
	result, err := d.Download(context.Background(), []int64{1}, day1, day2)
	assert.NoError(t, err)
	assert.Equal(t, 2, result.Data.Len())
	assert.True(t, result.Data.HasColumn("unit"))
	assert.True(t, result.Data.Cell(0, "unit").Null)
	assert.Equal(t, "µg/m³", result.Data.Cell(1, "unit").Raw)
}

func TestDownload_NoLocations(t *testing.T) {
	d := newArchiveDownloader(t, t.TempDir())
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	result, err := d.Download(context.Background(), nil, start, start)
	assert.NoError(t, err)
	assert.True(t, result.Data.IsEmpty())
	assert.Empty(t, result.Failed)
}
