package prompt

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tidewind/aircast/internal/dataset"
	"github.com/tidewind/aircast/internal/support/util/exception"
)

// DailyPoint is one resampled day: a calendar date and the mean of the
// measurement values observed on it.
type DailyPoint struct {
	Date  time.Time
	Value float64
}

// datetimeFormats are the layouts accepted for the stored datetime column.
var datetimeFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ResampleDaily filters the dataset to the requested location name, sorts by
// datetime, and aggregates the parameter column to one mean value per calendar
// day. Days with no parsable value are dropped, never rendered as placeholders.
// The dataset must contain datetime, location_name, and the parameter column.
func ResampleDaily(t *dataset.Table, locationName, parameter string) ([]DailyPoint, error) {
	for _, required := range []string{"datetime", "location_name", parameter} {
		if !t.HasColumn(required) {
			return nil, exception.NewPipelineError(ModulePromptGenerator,
				fmt.Sprintf("dataset is missing required column '%s'", required), nil, true, false)
		}
	}

	type bucket struct {
		sum   float64
		count int
	}
	buckets := make(map[time.Time]*bucket)

	for i := 0; i < t.Len(); i++ {
		if cell := t.Cell(i, "location_name"); cell.Null || cell.Raw != locationName {
			continue
		}

		ts, ok := parseDatetime(t.Cell(i, "datetime"))
		if !ok {
			continue
		}
		value, ok := parseValue(t.Cell(i, parameter))
		if !ok {
			continue
		}

		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		b, exists := buckets[day]
		if !exists {
			b = &bucket{}
			buckets[day] = b
		}
		b.sum += value
		b.count++
	}

	points := make([]DailyPoint, 0, len(buckets))
	for day, b := range buckets {
		points = append(points, DailyPoint{Date: day, Value: b.sum / float64(b.count)})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

func parseDatetime(v dataset.Value) (time.Time, bool) {
	if v.Null {
		return time.Time{}, false
	}
	s := strings.TrimSpace(v.Raw)
	for _, layout := range datetimeFormats {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func parseValue(v dataset.Value) (float64, bool) {
	if v.Null {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.Raw), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
