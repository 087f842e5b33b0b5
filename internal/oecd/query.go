package oecd

import (
	"fmt"
	"strings"

	"github.com/macrostat/econdata/internal/period"
)

const baseURL = "https://sdmx.oecd.org/public/rest/data/"

// csvFormat asks the API for CSV with label columns, one row per observation.
const csvFormat = "csvfilewithlabels"

// Batch is one API request covering a subset of a dataset's countries.
type Batch struct {
	Num       int
	URL       string
	Countries []string
}

// BuildURL assembles a complete SDMX data URL.
func BuildURL(datasetPath, dataSelection string, start, end period.Period) string {
	var b strings.Builder
	b.WriteString(baseURL)
	b.WriteString(datasetPath)
	b.WriteString("/")
	b.WriteString(dataSelection)
	b.WriteString(fmt.Sprintf("?startPeriod=%s&endPeriod=%s", start, end))
	b.WriteString("&format=" + csvFormat)
	b.WriteString("&dimensionAtObservation=AllDimensions")
	return b.String()
}

// BuildConfigURL builds a URL for a dataset config and a country subset.
// A nil countries slice uses the config's full list.
func BuildConfigURL(cfg DatasetConfig, countries []string, start, end period.Period) string {
	if countries == nil {
		countries = cfg.Countries
	}
	selection := fmt.Sprintf(cfg.SelectionTemplate, strings.Join(countries, "+"))
	return BuildURL(cfg.DatasetPath, selection, start, end)
}

// BuildBatches splits the config's country list into batches of at most
// batchSize and builds one URL per batch. Long country lists would otherwise
// exceed URL length limits.
func BuildBatches(cfg DatasetConfig, start, end period.Period, batchSize int) []Batch {
	var batches []Batch
	for i := 0; i < len(cfg.Countries); i += batchSize {
		countries := cfg.Countries[i:min(i+batchSize, len(cfg.Countries))]
		batches = append(batches, Batch{
			Num:       len(batches) + 1,
			URL:       BuildConfigURL(cfg, countries, start, end),
			Countries: countries,
		})
	}
	return batches
}
