package oecd

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	models "github.com/macrostat/econdata/internal/model"
)

// Observation status codes used by the SDMX API.
// A and E are kept by default; provisional and forecast values are not.
const (
	StatusNormal      = "A"
	StatusEstimated   = "E"
	StatusProvisional = "P"
	StatusForecast    = "F"
	StatusMissing     = "M"
)

var statusNames = map[string]string{
	StatusNormal:      "Normal",
	StatusEstimated:   "Estimated",
	StatusProvisional: "Provisional",
	StatusForecast:    "Forecast",
	StatusMissing:     "Missing",
}

// ParseOptions controls status filtering during CSV parsing.
type ParseOptions struct {
	// FilterStatus drops rows whose OBS_STATUS is not allowed.
	FilterStatus bool

	// IncludeProvisional additionally allows status P.
	IncludeProvisional bool
}

func (o ParseOptions) allowed(status string) bool {
	if !o.FilterStatus {
		return true
	}
	switch status {
	case StatusNormal, StatusEstimated:
		return true
	case StatusProvisional:
		return o.IncludeProvisional
	default:
		return false
	}
}

// ParseCSV parses an API CSV response into observations for the config's
// metric. Rows with blank fields are skipped, unparsable values are logged
// and skipped, and country labels are standardized.
func ParseCSV(csvText string, cfg DatasetConfig, opts ParseOptions, logger *zap.SugaredLogger) ([]models.Observation, error) {
	reader := csv.NewReader(strings.NewReader(csvText))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("CSV has no header row: %w", err)
	}

	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		colIndex[name] = i
	}

	var missing []string
	for _, col := range []string{cfg.CountryColumn, cfg.TimeColumn, cfg.ValueColumn} {
		if _, exists := colIndex[col]; !exists {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns %v, available: %v", missing, header)
	}
	statusIdx, hasStatus := colIndex["OBS_STATUS"]

	field := func(record []string, idx int) string {
		if idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var obs []models.Observation
	var rowsParsed, rowsSkipped, rowsFiltered int
	statusCounts := make(map[string]int)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// A malformed row means the response body is broken, not over.
			// Returning the partial batch would look like a short period.
			return nil, fmt.Errorf("malformed CSV row: %w", err)
		}
		rowsParsed++

		country := field(record, colIndex[cfg.CountryColumn])
		timePeriod := field(record, colIndex[cfg.TimeColumn])
		valueStr := field(record, colIndex[cfg.ValueColumn])
		var status string
		if hasStatus {
			status = field(record, statusIdx)
		}
		statusCounts[status]++

		if country == "" || timePeriod == "" || valueStr == "" {
			rowsSkipped++
			continue
		}
		if !opts.allowed(status) {
			rowsFiltered++
			continue
		}

		value, err := strconv.ParseFloat(valueStr, 64)
		if err != nil {
			logger.Warnf("Invalid value %q for %s %s, skipping", valueStr, country, timePeriod)
			rowsSkipped++
			continue
		}

		obs = append(obs, models.Observation{
			Country: StandardizeCountry(country),
			Period:  timePeriod,
			Metric:  cfg.Metric,
			Value:   value,
			Unit:    cfg.Unit,
			Source:  cfg.Source,
		})
	}

	logger.Infof("Parsed %d data points (processed %d rows, skipped %d, filtered by status %d)",
		len(obs), rowsParsed, rowsSkipped, rowsFiltered)

	if opts.FilterStatus && len(statusCounts) > 0 {
		logger.Info("Observation status breakdown:")
		codes := make([]string, 0, len(statusCounts))
		for code := range statusCounts {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		for _, code := range codes {
			name := statusNames[code]
			if name == "" {
				name = "Unknown"
			}
			verdict := "FILTERED"
			if opts.allowed(code) {
				verdict = "KEPT"
			}
			logger.Infof("  %s (%s): %d [%s]", code, name, statusCounts[code], verdict)
		}
	}

	return obs, nil
}

// FilterIncompletePeriods drops observations from periods reported by fewer
// than minCountries countries. Such periods are usually preliminary releases.
func FilterIncompletePeriods(obs []models.Observation, minCountries int, logger *zap.SugaredLogger) []models.Observation {
	periodCounts := make(map[string]int)
	for _, o := range obs {
		periodCounts[o.Period]++
	}

	var kept []models.Observation
	for _, o := range obs {
		if periodCounts[o.Period] >= minCountries {
			kept = append(kept, o)
		}
	}

	if len(kept) != len(obs) {
		logger.Infof("Period completeness filter: %d -> %d points", len(obs), len(kept))
		for periodLabel, count := range periodCounts {
			if count < minCountries {
				logger.Infof("  %s: %d countries [REMOVED]", periodLabel, count)
			}
		}
	}
	return kept
}

// Validate checks that every observation carries the fields the store needs.
func Validate(obs []models.Observation) error {
	if len(obs) == 0 {
		return fmt.Errorf("no data points found")
	}
	for i, o := range obs {
		if o.Country == "" || o.Period == "" || o.Metric == "" {
			return fmt.Errorf("data point %d missing required fields: %+v", i, o)
		}
	}
	return nil
}

// Summary describes a parsed batch for logging.
type Summary struct {
	TotalPoints     int
	UniqueCountries int
	UniquePeriods   int
	PeriodRange     [2]string
	ValueRange      [2]float64
}

// Summarize computes summary statistics over a batch of observations.
func Summarize(obs []models.Observation) Summary {
	if len(obs) == 0 {
		return Summary{}
	}

	countries := make(map[string]bool)
	periods := make(map[string]bool)
	s := Summary{
		TotalPoints: len(obs),
		PeriodRange: [2]string{obs[0].Period, obs[0].Period},
		ValueRange:  [2]float64{obs[0].Value, obs[0].Value},
	}
	for _, o := range obs {
		countries[o.Country] = true
		periods[o.Period] = true
		if o.Period < s.PeriodRange[0] {
			s.PeriodRange[0] = o.Period
		}
		if o.Period > s.PeriodRange[1] {
			s.PeriodRange[1] = o.Period
		}
		if o.Value < s.ValueRange[0] {
			s.ValueRange[0] = o.Value
		}
		if o.Value > s.ValueRange[1] {
			s.ValueRange[1] = o.Value
		}
	}
	s.UniqueCountries = len(countries)
	s.UniquePeriods = len(periods)
	return s
}
