// Package prompt renders per-city forecasting prompts from the stored
// measurement datasets. Two flavors share one record shape: a zero-shot
// single-window prompt and fine-tuning sliding-window instruction/response
// pairs.
package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidewind/aircast/internal/dataset"
	"github.com/tidewind/aircast/internal/support/util/logger"
)

const ModulePromptGenerator = "prompt"

const (
	historicalTableHeader = "| Date       | Value (µg/m³) |\n|------------|---------------|\n"
	predictedTableHeader  = "| Date       | Predicted Value (µg/m³) |\n|------------|-------------------------|"
)

// Record pairs a rendered instruction string with its expected completion.
// The JSON field names are fixed by the downstream consumers.
type Record struct {
	Prompt     string `json:"Prompt"`
	Completion string `json:"Completion"`
}

// Generator renders forecasting prompts. Each call is independent given the
// city's stored dataset; the generator holds only parameters.
type Generator struct {
	// Parameter is the measurement column rendered into prompts (e.g., "value").
	Parameter string
	// HistoryLengthDays is the historical window size in days.
	HistoryLengthDays int
	// ForecastDays is the forecast window size in days.
	ForecastDays int
	// MaxPromptsPerCity caps fine-tuning records per city. 0 means unlimited.
	MaxPromptsPerCity int
}

// ZeroShot renders the single-window prompt anchored at the latest available
// day. A city with fewer resampled days than the history length still yields
// one record whose historical table body is simply shorter (or empty); only a
// city with no resampled days at all yields zero records.
func (g *Generator) ZeroShot(t *dataset.Table, locationName string) ([]Record, error) {
	daily, err := ResampleDaily(t, locationName, g.Parameter)
	if err != nil {
		return nil, err
	}
	if len(daily) == 0 {
		logger.Infof("No resampled days for location '%s'. Skipping zero-shot prompt.", locationName)
		return nil, nil
	}

	endHistorical := daily[len(daily)-1].Date
	startHistorical := endHistorical.AddDate(0, 0, -(g.HistoryLengthDays - 1))
	forecastStart := endHistorical.AddDate(0, 0, 1)
	forecastEnd := forecastStart.AddDate(0, 0, g.ForecastDays-1)

	var window []DailyPoint
	for _, p := range daily {
		if !p.Date.Before(startHistorical) && !p.Date.After(endHistorical) {
			window = append(window, p)
		}
	}

	instruction := fmt.Sprintf(
		"You are an advanced forecasting system tasked with predicting daily air quality for %s.\n"+
			"The data includes daily mean values for '%s' (in µg/m³).\n\n"+
			"### Historical Data (from %s to %s):\n"+
			"%s\n\n"+
			"### Instructions:\n"+
			"1. Forecast daily mean '%s' for each day from %s to %s.\n"+
			"2. Provide output as a table:\n"+
			"%s",
		locationName, g.Parameter,
		formatDate(startHistorical), formatDate(endHistorical),
		renderHistoricalTable(window),
		g.Parameter, formatDate(forecastStart), formatDate(forecastEnd),
		predictedTableHeader,
	)

	return []Record{{Prompt: instruction, Completion: predictedTableHeader}}, nil
}

// FineTuning renders one instruction/response pair per valid sliding-window
// position, in chronological order of window start. Fewer than
// HistoryLengthDays+ForecastDays resampled days yields zero records, not an
// error.
func (g *Generator) FineTuning(t *dataset.Table, locationName string) ([]Record, error) {
	daily, err := ResampleDaily(t, locationName, g.Parameter)
	if err != nil {
		return nil, err
	}
	if len(daily) < g.HistoryLengthDays+g.ForecastDays {
		logger.Infof("Insufficient resampled days (%d) for fine-tuning prompts for location '%s'.", len(daily), locationName)
		return nil, nil
	}

	var records []Record
	for i := g.HistoryLengthDays; i <= len(daily)-g.ForecastDays; i++ {
		if g.MaxPromptsPerCity > 0 && len(records) >= g.MaxPromptsPerCity {
			break
		}

		historical := daily[i-g.HistoryLengthDays : i]
		future := daily[i : i+g.ForecastDays]

		instruction := fmt.Sprintf(
			"You are an advanced forecasting system tasked with predicting daily air quality for %s.\n"+
				"The data includes daily mean values for '%s' (in µg/m³).\n\n"+
				"### Historical Data:\n%s\n\n"+
				"### Instructions:\n"+
				"1. Forecast daily mean '%s' for each day.\n"+
				"2. Provide output as a table:\n%s",
			locationName, g.Parameter,
			renderHistoricalTable(historical),
			g.Parameter,
			predictedTableHeader,
		)

		records = append(records, Record{
			Prompt:     instruction,
			Completion: renderPredictedTable(future),
		})
	}
	return records, nil
}

// renderHistoricalTable renders daily points as a Markdown table under the
// historical header, with two-decimal value formatting.
func renderHistoricalTable(points []DailyPoint) string {
	return historicalTableHeader + renderRows(points)
}

// renderPredictedTable renders daily points as a Markdown table under the
// predicted-value header.
func renderPredictedTable(points []DailyPoint) string {
	return predictedTableHeader + "\n" + renderRows(points)
}

func renderRows(points []DailyPoint) string {
	rows := make([]string, len(points))
	for i, p := range points {
		rows[i] = fmt.Sprintf("| %s | %.2f |", formatDate(p.Date), p.Value)
	}
	return strings.Join(rows, "\n")
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
