// Package export mirrors cleaned city datasets to Parquet alongside the CSV output.
package export

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/tidewind/aircast/internal/adapter/storage"
	"github.com/tidewind/aircast/internal/dataset"
	"github.com/tidewind/aircast/internal/support/util/logger"
)

// AirQualityRecord is the Parquet row shape for one cleaned measurement.
type AirQualityRecord struct {
	LocationID   int64   `parquet:"name=location_id, type=INT64"`
	LocationName string  `parquet:"name=location_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Provider     string  `parquet:"name=provider, type=BYTE_ARRAY, convertedtype=UTF8"`
	Parameter    string  `parquet:"name=parameter, type=BYTE_ARRAY, convertedtype=UTF8"`
	Value        float64 `parquet:"name=value, type=DOUBLE"`
	Unit         string  `parquet:"name=unit, type=BYTE_ARRAY, convertedtype=UTF8"`
	Datetime     string  `parquet:"name=datetime, type=BYTE_ARRAY, convertedtype=UTF8"`
}

func cellString(t *dataset.Table, row int, column string) string {
	v := t.Cell(row, column)
	if v.Null {
		return ""
	}
	return v.Raw
}

func toRecords(t *dataset.Table) []AirQualityRecord {
	records := make([]AirQualityRecord, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		rec := AirQualityRecord{
			LocationName: cellString(t, i, "location_name"),
			Provider:     cellString(t, i, "provider"),
			Parameter:    cellString(t, i, "parameter"),
			Unit:         cellString(t, i, "unit"),
			Datetime:     cellString(t, i, "datetime"),
		}
		if id, err := strconv.ParseInt(cellString(t, i, "location_id"), 10, 64); err == nil {
			rec.LocationID = id
		}
		if val, err := strconv.ParseFloat(cellString(t, i, "value"), 64); err == nil {
			rec.Value = val
		}
		records = append(records, rec)
	}
	return records
}

// WriteParquet converts the cleaned city table to a snappy-compressed Parquet
// object and uploads it to the given storage connection. Empty tables are
// skipped without error.
func WriteParquet(ctx context.Context, conn storage.Connection, bucket, objectKey string, t *dataset.Table) error {
	if t.IsEmpty() {
		logger.Warnf("No records to export to Parquet for '%s'.", objectKey)
		return nil
	}

	records := toRecords(t)

	buf := new(bytes.Buffer)
	pw, err := writer.NewParquetWriterFromWriter(buf, new(AirQualityRecord), 1)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer for '%s': %w", objectKey, err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, rec := range records {
		if err = pw.Write(rec); err != nil {
			return fmt.Errorf("failed to write record to parquet for '%s': %w", objectKey, err)
		}
	}

	// WriteStop can panic inside the parquet library; convert panics to errors.
	var writeStopErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				if err, ok := r.(error); ok {
					writeStopErr = err
				} else {
					writeStopErr = fmt.Errorf("panic value: %v", r)
				}
			}
		}()
		writeStopErr = pw.WriteStop()
	}()
	if writeStopErr != nil {
		return fmt.Errorf("failed to stop parquet writer for '%s': %w", objectKey, writeStopErr)
	}

	if err := conn.Upload(ctx, bucket, objectKey, buf, "application/x-parquet"); err != nil {
		return fmt.Errorf("failed to upload parquet file to '%s': %w", objectKey, err)
	}

	logger.Infof("Exported %d records to Parquet at '%s' (%d bytes).", len(records), objectKey, buf.Len())
	return nil
}
