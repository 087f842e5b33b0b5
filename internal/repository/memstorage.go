package repository

import (
	"context"
	"sort"
	"strings"

	models "github.com/macrostat/econdata/internal/model"
	"github.com/macrostat/econdata/internal/period"
)

type obsKey struct {
	country string
	period  string
	metric  string
}

// MemStorage is an in-memory Repository used for tests and for running the
// server without a database DSN.
type MemStorage struct {
	observations map[obsKey]models.Observation
}

func NewMemStorage() *MemStorage {
	return &MemStorage{
		observations: make(map[obsKey]models.Observation),
	}
}

func (ms *MemStorage) UpsertObservations(ctx context.Context, obs []models.Observation) (int, int, error) {
	var inserted, updated int
	for _, o := range obs {
		key := obsKey{country: o.Country, period: o.Period, metric: o.Metric}
		if _, exists := ms.observations[key]; exists {
			updated++
		} else {
			inserted++
		}
		ms.observations[key] = o
	}
	return inserted, updated, nil
}

func (ms *MemStorage) metricObservations(metric string, countries []string) []models.Observation {
	allowed := make(map[string]bool, len(countries))
	for _, c := range countries {
		allowed[c] = true
	}
	var result []models.Observation
	for key, o := range ms.observations {
		if key.metric != metric {
			continue
		}
		if len(countries) > 0 && !allowed[key.country] {
			continue
		}
		result = append(result, o)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Country != result[j].Country {
			return result[i].Country < result[j].Country
		}
		return period.Less(result[i].Period, result[j].Period)
	})
	return result
}

func groupSeries(obs []models.Observation) []models.Series {
	var series []models.Series
	for _, o := range obs {
		if len(series) == 0 || series[len(series)-1].Country != o.Country {
			series = append(series, models.Series{Country: o.Country})
		}
		last := &series[len(series)-1]
		last.Points = append(last.Points, models.Point{Period: o.Period, Value: o.Value})
	}
	return series
}

func (ms *MemStorage) SeriesByMetric(ctx context.Context, metric string) ([]models.Series, error) {
	return groupSeries(ms.metricObservations(metric, nil)), nil
}

func (ms *MemStorage) QuerySeries(ctx context.Context, f SeriesFilter) ([]models.Series, string, error) {
	obs := ms.metricObservations(f.Metric, f.Countries)
	var filtered []models.Observation
	var unit string
	for _, o := range obs {
		if f.Start != "" && period.Less(o.Period, f.Start) {
			continue
		}
		if f.End != "" && period.Less(f.End, o.Period) {
			continue
		}
		if unit == "" {
			unit = o.Unit
		}
		filtered = append(filtered, o)
	}
	return groupSeries(filtered), unit, nil
}

func (ms *MemStorage) JoinMetrics(ctx context.Context, metric1, metric2 string, countries []string) ([]models.PairedPoint, string, string, error) {
	left := ms.metricObservations(metric1, countries)
	var pairs []models.PairedPoint
	var unit1, unit2 string
	for _, o := range left {
		key := obsKey{country: o.Country, period: o.Period, metric: metric2}
		other, exists := ms.observations[key]
		if !exists {
			continue
		}
		if unit1 == "" {
			unit1 = o.Unit
			unit2 = other.Unit
		}
		pairs = append(pairs, models.PairedPoint{
			Country: o.Country,
			Period:  o.Period,
			Value1:  o.Value,
			Value2:  other.Value,
		})
	}
	return pairs, unit1, unit2, nil
}

func (ms *MemStorage) JoinAnnual(ctx context.Context, quarterly, annual string) ([]models.PairedPoint, error) {
	left := ms.metricObservations(quarterly, nil)
	var pairs []models.PairedPoint
	for _, o := range left {
		year, _, _ := strings.Cut(o.Period, "-Q")
		key := obsKey{country: o.Country, period: year, metric: annual}
		other, exists := ms.observations[key]
		if !exists {
			continue
		}
		pairs = append(pairs, models.PairedPoint{
			Country: o.Country,
			Period:  o.Period,
			Value1:  o.Value,
			Value2:  other.Value,
		})
	}
	return pairs, nil
}

func (ms *MemStorage) ObservationsForPeriod(ctx context.Context, periodLabel string) ([]models.Observation, error) {
	var result []models.Observation
	for key, o := range ms.observations {
		if key.period == periodLabel {
			result = append(result, o)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Country != result[j].Country {
			return result[i].Country < result[j].Country
		}
		return result[i].Metric < result[j].Metric
	})
	return result, nil
}

func (ms *MemStorage) HasObservation(ctx context.Context, metric, country, periodLabel string) (bool, error) {
	_, exists := ms.observations[obsKey{country: country, period: periodLabel, metric: metric}]
	return exists, nil
}

func (ms *MemStorage) DeleteObservation(ctx context.Context, metric, country, periodLabel string) error {
	delete(ms.observations, obsKey{country: country, period: periodLabel, metric: metric})
	return nil
}

func (ms *MemStorage) RelabelObservation(ctx context.Context, metric, country, from, to string) error {
	key := obsKey{country: country, period: from, metric: metric}
	o, exists := ms.observations[key]
	if !exists {
		return nil
	}
	delete(ms.observations, key)
	o.Period = to
	ms.observations[obsKey{country: country, period: to, metric: metric}] = o
	return nil
}

func (ms *MemStorage) DeleteCountryMetric(ctx context.Context, metric, country string) (int64, error) {
	var deleted int64
	for key := range ms.observations {
		if key.metric == metric && key.country == country {
			delete(ms.observations, key)
			deleted++
		}
	}
	return deleted, nil
}

func (ms *MemStorage) DeleteMetric(ctx context.Context, metric string) (int64, error) {
	var deleted int64
	for key := range ms.observations {
		if key.metric == metric {
			delete(ms.observations, key)
			deleted++
		}
	}
	return deleted, nil
}

func (ms *MemStorage) ListMetrics(ctx context.Context) ([]models.MetricInfo, error) {
	type aggKey struct {
		metric string
		unit   string
		source string
	}
	agg := make(map[aggKey]*models.MetricInfo)
	for _, o := range ms.observations {
		key := aggKey{metric: o.Metric, unit: o.Unit, source: o.Source}
		info, exists := agg[key]
		if !exists {
			info = &models.MetricInfo{Name: o.Metric, Unit: o.Unit, Source: o.Source,
				TimeRange: models.Range{Start: o.Period, End: o.Period}}
			agg[key] = info
		}
		info.DataPoints++
		if period.Less(o.Period, info.TimeRange.Start) {
			info.TimeRange.Start = o.Period
		}
		if period.Less(info.TimeRange.End, o.Period) {
			info.TimeRange.End = o.Period
		}
	}

	metrics := make([]models.MetricInfo, 0, len(agg))
	for _, info := range agg {
		metrics = append(metrics, *info)
	}
	sort.Slice(metrics, func(i, j int) bool { return metrics[i].Name < metrics[j].Name })
	return metrics, nil
}

func (ms *MemStorage) ListCountries(ctx context.Context, metric string) ([]models.CountryInfo, error) {
	counts := make(map[string]int)
	for key := range ms.observations {
		if metric != "" && key.metric != metric {
			continue
		}
		counts[key.country]++
	}
	countries := make([]models.CountryInfo, 0, len(counts))
	for name, count := range counts {
		countries = append(countries, models.CountryInfo{Name: name, DataPoints: count})
	}
	sort.Slice(countries, func(i, j int) bool { return countries[i].Name < countries[j].Name })
	return countries, nil
}

func (ms *MemStorage) Stats(ctx context.Context) (models.Stats, error) {
	metrics := make(map[string]bool)
	countries := make(map[string]bool)
	periods := make(map[string]bool)
	var stats models.Stats
	for key := range ms.observations {
		stats.TotalRecords++
		metrics[key.metric] = true
		countries[key.country] = true
		if !periods[key.period] {
			periods[key.period] = true
			if stats.TimeRange.Start == "" || period.Less(key.period, stats.TimeRange.Start) {
				stats.TimeRange.Start = key.period
			}
			if stats.TimeRange.End == "" || period.Less(stats.TimeRange.End, key.period) {
				stats.TimeRange.End = key.period
			}
		}
	}
	stats.UniqueMetrics = len(metrics)
	stats.UniqueCountries = len(countries)
	stats.UniquePeriods = len(periods)
	return stats, nil
}

func (ms *MemStorage) Ping(ctx context.Context) error {
	return nil
}

func (ms *MemStorage) Close() error {
	return nil
}
