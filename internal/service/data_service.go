// Package service provides the business logic layer for the economic data system.
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/macrostat/econdata/internal/audit"
	"github.com/macrostat/econdata/internal/config"
	"github.com/macrostat/econdata/internal/derive"
	models "github.com/macrostat/econdata/internal/model"
	"github.com/macrostat/econdata/internal/remediate"
	"github.com/macrostat/econdata/internal/repository"
)

// DataService coordinates the observation store with the remediation
// heuristics and the derived-metric calculators.
type DataService struct {
	// repository is the underlying data storage implementation
	repository repository.Repository

	// auditor records applied remediation decisions, may be nil
	auditor audit.Logger

	logger *zap.SugaredLogger
}

// NewDataService creates a new DataService with the specified repository.
// The auditor may be nil when no remediation trail is wanted.
func NewDataService(repo repository.Repository, auditor audit.Logger, logger *zap.SugaredLogger) *DataService {
	return &DataService{repository: repo, auditor: auditor, logger: logger}
}

// ListMetrics retrieves all metrics, delegating to the repository implementation.
func (ds *DataService) ListMetrics(ctx context.Context) ([]models.MetricInfo, error) {
	return ds.repository.ListMetrics(ctx)
}

// ListCountries retrieves countries, optionally narrowed to one metric.
func (ds *DataService) ListCountries(ctx context.Context, metric string) ([]models.CountryInfo, error) {
	return ds.repository.ListCountries(ctx, metric)
}

// QuerySeries retrieves filtered time series, delegating to the repository implementation.
func (ds *DataService) QuerySeries(ctx context.Context, f repository.SeriesFilter) ([]models.Series, string, error) {
	return ds.repository.QuerySeries(ctx, f)
}

// Correlate pairs two metrics on identical (country, period).
func (ds *DataService) Correlate(ctx context.Context, metric1, metric2 string, countries []string) ([]models.PairedPoint, string, string, error) {
	return ds.repository.JoinMetrics(ctx, metric1, metric2, countries)
}

// Stats retrieves whole-store statistics, delegating to the repository implementation.
func (ds *DataService) Stats(ctx context.Context) (models.Stats, error) {
	return ds.repository.Stats(ctx)
}

// Ping checks the repository connection, delegating to the repository implementation.
func (ds *DataService) Ping(ctx context.Context) error {
	return ds.repository.Ping(ctx)
}

// PlanRemediation runs the selected heuristics over every country's series
// of a metric and returns the decision list without applying it.
func (ds *DataService) PlanRemediation(ctx context.Context, metric string, h remediate.Heuristics, cfg remediate.Config) ([]remediate.Decision, error) {
	series, err := ds.repository.SeriesByMetric(ctx, metric)
	if err != nil {
		return nil, fmt.Errorf("error loading series for %s: %w", metric, err)
	}
	return remediate.PlanSeries(metric, series, h, cfg), nil
}

// ApplyDecisions executes remediation decisions against the store and
// records each applied decision in the audit trail.
func (ds *DataService) ApplyDecisions(ctx context.Context, decisions []remediate.Decision) (int, error) {
	applied := 0
	for _, d := range decisions {
		var err error
		switch d.Action {
		case remediate.ActionDelete:
			err = ds.repository.DeleteObservation(ctx, d.Metric, d.Country, d.Period)
		case remediate.ActionRelabel:
			err = ds.repository.RelabelObservation(ctx, d.Metric, d.Country, d.Period, d.NewPeriod)
		default:
			continue
		}
		if err != nil {
			return applied, fmt.Errorf("error applying decision for %s %s %s: %w", d.Metric, d.Country, d.Period, err)
		}
		applied++
		if ds.auditor != nil {
			ds.auditor.Log(d)
		}
	}
	return applied, nil
}

// FixMislabeledPeriod plans corrections for observations filed under a wrong
// period label. Observations move to the correct period unless it already
// holds a value, in which case the duplicate is deleted.
func (ds *DataService) FixMislabeledPeriod(ctx context.Context, wrong, correct string) ([]remediate.Decision, error) {
	mislabeled, err := ds.repository.ObservationsForPeriod(ctx, wrong)
	if err != nil {
		return nil, fmt.Errorf("error loading observations for %s: %w", wrong, err)
	}

	hasCorrect := func(metric, country string) bool {
		exists, err := ds.repository.HasObservation(ctx, metric, country, correct)
		if err != nil {
			ds.logger.Errorf("error checking %s %s %s: %v", metric, country, correct, err)
			return false
		}
		return exists
	}

	return remediate.PlanRelabel(mislabeled, correct, hasCorrect), nil
}

// RemoveCountrySeries drops whole country series of a metric, used for
// countries with systematic quality issues.
func (ds *DataService) RemoveCountrySeries(ctx context.Context, metric string, countries []string) (int64, error) {
	var total int64
	for _, country := range countries {
		deleted, err := ds.repository.DeleteCountryMetric(ctx, metric, country)
		if err != nil {
			return total, fmt.Errorf("error removing %s series for %s: %w", metric, country, err)
		}
		ds.logger.Infof("  %s: %d records deleted", country, deleted)
		total += deleted
	}
	return total, nil
}

// CalculateCumulativeIndex rebases a source metric to 100 at each country's
// first point and stores the chained index under target. Existing target
// rows are replaced.
func (ds *DataService) CalculateCumulativeIndex(ctx context.Context, source, target string) (int, error) {
	series, err := ds.repository.SeriesByMetric(ctx, source)
	if err != nil {
		return 0, fmt.Errorf("error loading series for %s: %w", source, err)
	}
	if len(series) == 0 {
		return 0, fmt.Errorf("source metric %s has no data", source)
	}

	if deleted, err := ds.repository.DeleteMetric(ctx, target); err != nil {
		return 0, err
	} else if deleted > 0 {
		ds.logger.Infof("Replaced %d existing %s records", deleted, target)
	}

	var obs []models.Observation
	for _, s := range series {
		indexed := derive.CumulativeIndex(s)
		for _, p := range indexed.Points {
			obs = append(obs, models.Observation{
				Country: indexed.Country,
				Period:  p.Period,
				Metric:  target,
				Value:   p.Value,
				Unit:    "index (base=100)",
				Source:  "Calculated from " + source,
			})
		}
	}

	inserted, updated, err := ds.repository.UpsertObservations(ctx, obs)
	if err != nil {
		return 0, fmt.Errorf("error storing %s: %w", target, err)
	}
	return inserted + updated, nil
}

// CalculateGrowth stores the nominal and percentage quarter-over-quarter
// changes of a source metric under two target metrics.
func (ds *DataService) CalculateGrowth(ctx context.Context, source, nominalTarget, pctTarget, unit string) (int, error) {
	series, err := ds.repository.SeriesByMetric(ctx, source)
	if err != nil {
		return 0, fmt.Errorf("error loading series for %s: %w", source, err)
	}

	var obs []models.Observation
	for _, s := range series {
		nominal, pct := derive.Growth(s)
		for _, p := range nominal.Points {
			obs = append(obs, models.Observation{
				Country: s.Country, Period: p.Period, Metric: nominalTarget,
				Value: p.Value, Unit: unit, Source: "Calculated",
			})
		}
		for _, p := range pct.Points {
			obs = append(obs, models.Observation{
				Country: s.Country, Period: p.Period, Metric: pctTarget,
				Value: p.Value, Unit: "percent", Source: "Calculated",
			})
		}
	}
	if len(obs) == 0 {
		return 0, fmt.Errorf("source metric %s has no data", source)
	}

	inserted, updated, err := ds.repository.UpsertObservations(ctx, obs)
	if err != nil {
		return 0, fmt.Errorf("error storing growth metrics: %w", err)
	}
	return inserted + updated, nil
}

// CalculateLevel stores per-capita times population under target. The
// quarterly per-capita series joins the annual population series by year.
// Existing target rows are replaced.
func (ds *DataService) CalculateLevel(ctx context.Context, perCapita, population, target string) (int, error) {
	pairs, err := ds.repository.JoinAnnual(ctx, perCapita, population)
	if err != nil {
		return 0, fmt.Errorf("error joining %s with %s: %w", perCapita, population, err)
	}
	if len(pairs) == 0 {
		return 0, fmt.Errorf("no matching records between %s and %s", perCapita, population)
	}

	if deleted, err := ds.repository.DeleteMetric(ctx, target); err != nil {
		return 0, err
	} else if deleted > 0 {
		ds.logger.Infof("Replaced %d existing %s records", deleted, target)
	}

	obs := derive.Level(pairs)
	for i := range obs {
		obs[i].Metric = target
		obs[i].Unit = "USD"
		obs[i].Source = "Calculated from OECD data"
	}

	inserted, updated, err := ds.repository.UpsertObservations(ctx, obs)
	if err != nil {
		return 0, fmt.Errorf("error storing %s: %w", target, err)
	}
	return inserted + updated, nil
}

// CalculateSavingsLevel stores nominal savings per capita, derived from the
// saving rate and disposable income per capita joined on (country, period).
func (ds *DataService) CalculateSavingsLevel(ctx context.Context, target string) (int, error) {
	pairs, _, incomeUnit, err := ds.repository.JoinMetrics(ctx, config.MetricSavingsRate, config.MetricDisposableIncome, nil)
	if err != nil {
		return 0, fmt.Errorf("error joining savings inputs: %w", err)
	}
	if len(pairs) == 0 {
		return 0, fmt.Errorf("no matching records between %s and %s",
			config.MetricSavingsRate, config.MetricDisposableIncome)
	}

	obs := derive.SavingsLevel(pairs)
	for i := range obs {
		obs[i].Metric = target
		obs[i].Unit = incomeUnit
		obs[i].Source = "Calculated"
	}

	inserted, updated, err := ds.repository.UpsertObservations(ctx, obs)
	if err != nil {
		return 0, fmt.Errorf("error storing %s: %w", target, err)
	}
	return inserted + updated, nil
}
