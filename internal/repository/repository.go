package repository

import (
	"context"

	models "github.com/macrostat/econdata/internal/model"
)

// SeriesFilter narrows a time series query.
type SeriesFilter struct {
	Metric    string
	Countries []string
	Start     string
	End       string
}

// Repository is the storage contract for economic observations.
//
// The store is a single flat table keyed by (country, period, metric) with a
// last-write-wins upsert. Series readers return points ordered chronologically
// per country, which the remediation and derivation code depends on.
type Repository interface {
	// UpsertObservations writes a batch of observations, returning how many
	// rows were newly inserted and how many were overwritten.
	UpsertObservations(ctx context.Context, obs []models.Observation) (inserted, updated int, err error)

	// SeriesByMetric returns every country's series for one metric.
	SeriesByMetric(ctx context.Context, metric string) ([]models.Series, error)

	// QuerySeries returns series matching the filter plus the metric's unit.
	QuerySeries(ctx context.Context, f SeriesFilter) ([]models.Series, string, error)

	// JoinMetrics pairs two metrics on identical (country, period).
	JoinMetrics(ctx context.Context, metric1, metric2 string, countries []string) ([]models.PairedPoint, string, string, error)

	// JoinAnnual pairs a quarterly metric with an annual one by year.
	JoinAnnual(ctx context.Context, quarterly, annual string) ([]models.PairedPoint, error)

	// ObservationsForPeriod returns every observation stored under a period
	// label, across metrics. Used by the period relabeling fix.
	ObservationsForPeriod(ctx context.Context, period string) ([]models.Observation, error)

	// HasObservation reports whether a (country, period, metric) row exists.
	HasObservation(ctx context.Context, metric, country, period string) (bool, error)

	DeleteObservation(ctx context.Context, metric, country, period string) error
	RelabelObservation(ctx context.Context, metric, country, from, to string) error
	DeleteCountryMetric(ctx context.Context, metric, country string) (int64, error)
	DeleteMetric(ctx context.Context, metric string) (int64, error)

	ListMetrics(ctx context.Context) ([]models.MetricInfo, error)
	ListCountries(ctx context.Context, metric string) ([]models.CountryInfo, error)
	Stats(ctx context.Context) (models.Stats, error)

	Ping(ctx context.Context) error
	Close() error
}
