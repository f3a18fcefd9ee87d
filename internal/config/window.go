package config

import (
	"fmt"
	"time"

	"github.com/tidewind/aircast/internal/support/util/exception"
)

// endDateLayout is the layout of the EndDate option, e.g. "31/12/2023 23:59:59 +0530".
const endDateLayout = "02/01/2006 15:04:05 -0700"

// Window resolves the inclusive ingestion date range [start, end] from the
// EndDate and WindowDays options.
func (c IngestConfig) Window() (start, end time.Time, err error) {
	end, err = time.Parse(endDateLayout, c.EndDate)
	if err != nil {
		return time.Time{}, time.Time{},
			exception.NewConfigurationError(moduleName, fmt.Sprintf("invalid end_date '%s'", c.EndDate), err)
	}
	if c.WindowDays <= 0 {
		return time.Time{}, time.Time{},
			exception.NewConfigurationError(moduleName, fmt.Sprintf("window_days must be positive, got %d", c.WindowDays), nil)
	}
	start = end.AddDate(0, 0, -c.WindowDays)
	return start, end, nil
}
