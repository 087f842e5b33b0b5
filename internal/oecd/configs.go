// Package oecd fetches economic indicators from the OECD SDMX API: it builds
// dataset query URLs, retrieves CSV payloads with retry and rate limiting,
// parses rows into observations, and filters by observation status.
package oecd

import (
	"fmt"
	"sort"

	"github.com/macrostat/econdata/internal/config"
	econerrors "github.com/macrostat/econdata/internal/errors"
)

// DatasetConfig describes one dataset to fetch from the SDMX API.
type DatasetConfig struct {
	// DatasetPath identifies agency, dataflow and version,
	// e.g. "OECD.SDD.NAD,DSD_NAMAIN1@DF_QNA,1.1".
	DatasetPath string

	// SelectionTemplate is the dimension filter with a %s placeholder for
	// the '+'-joined country codes.
	SelectionTemplate string

	// Countries to request, as SDMX area codes.
	Countries []string

	Metric      string
	Unit        string
	Source      string
	Description string

	// CSV column names carrying the fields we need.
	CountryColumn string
	TimeColumn    string
	ValueColumn   string
}

// AllCountries is every OECD member plus the aggregates and key non-OECD
// economies the datasets publish.
var AllCountries = []string{
	// OECD members
	"AUS", "AUT", "BEL", "CAN", "CHL", "COL", "CRI", "CZE", "DNK", "EST",
	"FIN", "FRA", "DEU", "GRC", "HUN", "ISL", "IRL", "ISR", "ITA", "JPN",
	"KOR", "LVA", "LTU", "LUX", "MEX", "NLD", "NZL", "NOR", "POL", "PRT",
	"SVK", "SVN", "ESP", "SWE", "CHE", "TUR", "GBR", "USA",
	// Aggregates
	"G7", "EA20", "EU15", "EU27_2020", "OECD", "OECD26", "OECDE",
	// Non-OECD economies
	"ARG", "BRA", "BGR", "HRV", "IND", "IDN", "ROU", "SAU", "ZAF", "USMCA",
}

// CountryNames maps SDMX area codes to display names.
var CountryNames = map[string]string{
	"AUS":       "Australia",
	"AUT":       "Austria",
	"BEL":       "Belgium",
	"CAN":       "Canada",
	"CHL":       "Chile",
	"COL":       "Colombia",
	"CRI":       "Costa Rica",
	"CZE":       "Czechia",
	"DNK":       "Denmark",
	"EST":       "Estonia",
	"FIN":       "Finland",
	"FRA":       "France",
	"DEU":       "Germany",
	"GRC":       "Greece",
	"HUN":       "Hungary",
	"ISL":       "Iceland",
	"IRL":       "Ireland",
	"ISR":       "Israel",
	"ITA":       "Italy",
	"JPN":       "Japan",
	"KOR":       "Korea",
	"LVA":       "Latvia",
	"LTU":       "Lithuania",
	"LUX":       "Luxembourg",
	"MEX":       "Mexico",
	"NLD":       "Netherlands",
	"NZL":       "New Zealand",
	"NOR":       "Norway",
	"POL":       "Poland",
	"PRT":       "Portugal",
	"SVK":       "Slovakia",
	"SVN":       "Slovenia",
	"ESP":       "Spain",
	"SWE":       "Sweden",
	"CHE":       "Switzerland",
	"TUR":       "Turkey",
	"GBR":       "United Kingdom",
	"USA":       "United States",
	"EA20":      "Euro area (20 countries)",
	"EU27_2020": "European Union (27 countries from 01/02/2020)",
}

var datasetConfigs = map[string]DatasetConfig{
	config.MetricGDPPerCapita: {
		DatasetPath:       "OECD.SDD.NAD,DSD_NAMAIN1@DF_QNA_EXPENDITURE_CAPITA,1.1",
		SelectionTemplate: "Q..%s........LR..",
		Countries:         AllCountries,
		Metric:            config.MetricGDPPerCapita,
		Unit:              "USD_PPP",
		Source:            "OECD",
		Description:       "Quarterly GDP per capita, chain-linked volumes (rebased), PPP",
		CountryColumn:     "Reference area",
		TimeColumn:        "TIME_PERIOD",
		ValueColumn:       "OBS_VALUE",
	},
	config.MetricRealGDP: {
		DatasetPath:       "OECD.SDD.NAD,DSD_NAMAIN1@DF_QNA,1.1",
		SelectionTemplate: "Q.Y.%s.S1..B1GQ._Z...USD_PPP...T0102",
		Countries:         AllCountries,
		Metric:            config.MetricRealGDP,
		Unit:              "USD_PPP",
		Source:            "OECD",
		Description:       "Quarterly National Accounts - Real GDP, seasonally adjusted, PPP",
		CountryColumn:     "Reference area",
		TimeColumn:        "TIME_PERIOD",
		ValueColumn:       "OBS_VALUE",
	},
}

// GetConfig returns a dataset configuration by name.
func GetConfig(name string) (DatasetConfig, error) {
	cfg, exists := datasetConfigs[name]
	if !exists {
		return DatasetConfig{}, fmt.Errorf("%w: %q, available: %v", econerrors.ErrUnknownDataset, name, ListConfigs())
	}
	return cfg, nil
}

// ListConfigs returns the names of all dataset configurations.
func ListConfigs() []string {
	names := make([]string, 0, len(datasetConfigs))
	for name := range datasetConfigs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StandardizeCountry maps an area code or already-full name to the display
// name used in the store. Unknown values pass through unchanged.
func StandardizeCountry(raw string) string {
	if name, exists := CountryNames[raw]; exists {
		return name
	}
	for _, name := range CountryNames {
		if raw == name {
			return name
		}
	}
	return raw
}
