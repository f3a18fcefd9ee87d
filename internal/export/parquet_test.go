package export_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	storage "github.com/tidewind/aircast/internal/adapter/storage"
	"github.com/tidewind/aircast/internal/adapter/storage/config"
	"github.com/tidewind/aircast/internal/adapter/storage/local"
	"github.com/tidewind/aircast/internal/dataset"
	"github.com/tidewind/aircast/internal/export"
)

func newLakeConnection(t *testing.T, baseDir string) storage.Connection {
	t.Helper()
	conn, err := local.NewLocalAdapter(config.StorageConfig{Type: "local", BaseDir: baseDir}, "lake")
	if err != nil {
		t.Fatalf("Failed to create local adapter: %v", err)
	}
	return conn
}

func TestWriteParquet_UploadsObject(t *testing.T) {
	baseDir := t.TempDir()
	conn := newLakeConnection(t, baseDir)

	table := dataset.NewTable("location_id", "location_name", "provider", "parameter", "unit", "value", "datetime")
	err := table.AppendRow([]dataset.Value{
		{Raw: "42"},
		{Raw: "Wellington Central"},
		{Raw: "AirNow"},
		{Raw: "pm25"},
		{Raw: "µg/m³"},
		{Raw: "10.5"},
		{Raw: "2023-01-02T01:00:00Z"},
	})
	assert.NoError(t, err)

	err = export.WriteParquet(context.Background(), conn, "lake", "data/airquality/Wellington_data.parquet", table)
	assert.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(baseDir, "lake", "data", "airquality", "Wellington_data.parquet"))
	if err != nil {
		t.Fatalf("Expected parquet object: %v", err)
	}
	// PAR1 magic bytes frame every parquet file.
	assert.True(t, len(data) > 8)
	assert.Equal(t, "PAR1", string(data[:4]))
	assert.Equal(t, "PAR1", string(data[len(data)-4:]))
}

func TestWriteParquet_EmptyTableWritesNothing(t *testing.T) {
	baseDir := t.TempDir()
	conn := newLakeConnection(t, baseDir)

	err := export.WriteParquet(context.Background(), conn, "lake", "data/airquality/Empty_data.parquet", dataset.NewTable())
	assert.NoError(t, err)

	_, err = os.Stat(filepath.Join(baseDir, "lake", "data", "airquality", "Empty_data.parquet"))
	assert.True(t, os.IsNotExist(err))
}
