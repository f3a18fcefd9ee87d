// Package archive implements the scanner/downloader for the public measurement
// archive. Daily gzip-compressed CSV files are listed and fetched per
// (location, day) pair and concatenated into one consolidated dataset.
package archive

import (
	"compress/gzip"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tidewind/aircast/internal/adapter/storage"
	"github.com/tidewind/aircast/internal/dataset"
	"github.com/tidewind/aircast/internal/support/util/exception"
	"github.com/tidewind/aircast/internal/support/util/logger"
)

const ModuleDownloader = "archive"

// FailedLookup records a (location, day) pair that yielded no archive object.
type FailedLookup struct {
	LocationID int64
	Day        time.Time
}

// Downloader fetches daily measurement files from the archive bucket.
type Downloader struct {
	conn   storage.Connection
	bucket string
}

// NewDownloader creates a Downloader reading from the given connection and bucket.
func NewDownloader(conn storage.Connection, bucket string) *Downloader {
	return &Downloader{conn: conn, bucket: bucket}
}

// Result carries the consolidated dataset together with the tracking list of
// failed (location, day) lookups. The tracking list deliberately allows the
// same location to appear once per missing day.
type Result struct {
	Data   *dataset.Table
	Failed []FailedLookup
}

// Download walks the Cartesian product of location identifiers and days in the
// inclusive range [start, end], in that iteration order. For every pair it
// lists the bucket under the location/year/month prefix, and when an object
// matching the exact day's filename exists, downloads, decompresses, and
// appends it to the consolidated dataset. Missing data is an expected outcome:
// it is recorded in the tracking list and never raised as an error. Only
// transport or authorization failures from the storage client propagate.
func (d *Downloader) Download(ctx context.Context, locationIDs []int64, start, end time.Time) (*Result, error) {
	consolidated := dataset.NewTable()
	var failed []FailedLookup

	for _, locationID := range locationIDs {
		for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
			key, err := d.findDailyObject(ctx, locationID, day)
			if err != nil {
				return nil, err
			}
			if key == "" {
				failed = append(failed, FailedLookup{LocationID: locationID, Day: day})
				continue
			}

			daily, err := d.fetchDailyFile(ctx, key)
			if err != nil {
				return nil, err
			}
			consolidated = consolidated.Concat(daily)
		}
	}

	if !consolidated.IsEmpty() {
		logger.Infof("Data successfully consolidated. Total records: %d", consolidated.Len())
	} else {
		logger.Infof("No data was fetched for any location IDs.")
	}
	if len(failed) > 0 {
		logger.Infof("Location/day pairs with no data: %d", len(failed))
	}

	return &Result{Data: consolidated, Failed: failed}, nil
}

// findDailyObject lists the location's year/month prefix and returns the key of
// the object matching the exact day, or "" when no such object exists.
func (d *Downloader) findDailyObject(ctx context.Context, locationID int64, day time.Time) (string, error) {
	prefix := fmt.Sprintf("records/csv.gz/locationid=%d/year=%s/month=%s/",
		locationID, day.Format("2006"), day.Format("01"))
	suffix := fmt.Sprintf("%s.csv.gz", day.Format("20060102"))

	var match string
	err := d.conn.ListObjects(ctx, d.bucket, prefix, func(objectName string) error {
		if match == "" && strings.HasSuffix(objectName, suffix) {
			match = objectName
		}
		return nil
	})
	if err != nil {
		return "", exception.NewPipelineError(ModuleDownloader,
			fmt.Sprintf("failed to list archive objects for location %d on %s", locationID, day.Format("2006-01-02")),
			err, false, true)
	}
	return match, nil
}

// fetchDailyFile downloads and decompresses one daily file into a table.
// Within a day, file row order is preserved.
func (d *Downloader) fetchDailyFile(ctx context.Context, key string) (*dataset.Table, error) {
	body, err := d.conn.Download(ctx, d.bucket, key)
	if err != nil {
		return nil, exception.NewPipelineError(ModuleDownloader,
			fmt.Sprintf("failed to download archive object '%s'", key), err, false, true)
	}
	defer body.Close()

	gz, err := gzip.NewReader(body)
	if err != nil {
		return nil, exception.NewPipelineError(ModuleDownloader,
			fmt.Sprintf("failed to decompress archive object '%s'", key), err, false, false)
	}
	defer gz.Close()

	table, err := dataset.ReadCSV(gz)
	if err != nil {
		return nil, exception.NewPipelineError(ModuleDownloader,
			fmt.Sprintf("failed to parse archive object '%s'", key), err, false, false)
	}
	logger.Tracef("Processed archive object '%s' (%d rows).", key, table.Len())
	return table, nil
}
