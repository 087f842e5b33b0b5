// Package models defines the data structures used throughout the economic data system.
package models

// Observation is a single stored datapoint of an economic time series.
type Observation struct {
	// Country is the display name of the reference area
	Country string

	// Period is the time period label, e.g. "2024-Q1" or "2024"
	Period string

	// Metric is the metric name, e.g. "gdp_per_capita"
	Metric string

	// Value is the observed value in the metric's unit
	Value float64

	// Unit is the unit of measurement, e.g. "USD_PPP"
	Unit string

	// Source is the data source, e.g. "OECD" or "Calculated from gdp_per_capita"
	Source string
}

// Point is a (period, value) pair inside a single country's series.
type Point struct {
	Period string  `json:"time_period"`
	Value  float64 `json:"value"`
}

// Series is one country's time-ordered slice of a metric.
type Series struct {
	Country string
	Points  []Point
}

// PairedPoint is one joined datapoint of two metrics for the same
// (country, period), used by the correlate endpoint and the derived
// metric calculators that read two inputs.
type PairedPoint struct {
	Country string
	Period  string
	Value1  float64
	Value2  float64
}

// MetricInfo describes one metric available in the store.
type MetricInfo struct {
	Name       string `json:"name"`
	Unit       string `json:"unit"`
	Source     string `json:"source"`
	DataPoints int    `json:"data_points"`
	TimeRange  Range  `json:"time_range"`
}

// Range is an inclusive period range.
type Range struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// CountryInfo describes one country available in the store.
type CountryInfo struct {
	Name       string `json:"name"`
	DataPoints int    `json:"data_points"`
}

// Stats summarizes the whole store.
type Stats struct {
	TotalRecords    int   `json:"total_records"`
	UniqueMetrics   int   `json:"unique_metrics"`
	UniqueCountries int   `json:"unique_countries"`
	UniquePeriods   int   `json:"unique_periods"`
	TimeRange       Range `json:"time_range"`
}
