package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "github.com/macrostat/econdata/internal/model"
)

func seedStorage(t *testing.T) *MemStorage {
	t.Helper()
	ms := NewMemStorage()
	obs := []models.Observation{
		{Country: "Iceland", Period: "2024-Q1", Metric: "real_gdp", Value: 100, Unit: "USD_PPP", Source: "OECD"},
		{Country: "Iceland", Period: "2024-Q2", Metric: "real_gdp", Value: 105, Unit: "USD_PPP", Source: "OECD"},
		{Country: "Norway", Period: "2024-Q1", Metric: "real_gdp", Value: 400, Unit: "USD_PPP", Source: "OECD"},
		{Country: "Iceland", Period: "2024-Q1", Metric: "savings_rate", Value: 8, Unit: "percent", Source: "OECD"},
		{Country: "Iceland", Period: "2024", Metric: "population", Value: 380000, Unit: "persons", Source: "OECD"},
	}
	inserted, updated, err := ms.UpsertObservations(context.Background(), obs)
	require.NoError(t, err)
	require.Equal(t, 5, inserted)
	require.Equal(t, 0, updated)
	return ms
}

func TestMemStorage_Upsert(t *testing.T) {
	ms := seedStorage(t)
	ctx := context.Background()

	inserted, updated, err := ms.UpsertObservations(ctx, []models.Observation{
		{Country: "Iceland", Period: "2024-Q1", Metric: "real_gdp", Value: 101},
		{Country: "Sweden", Period: "2024-Q1", Metric: "real_gdp", Value: 300},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.Equal(t, 1, updated)

	series, err := ms.SeriesByMetric(ctx, "real_gdp")
	require.NoError(t, err)
	require.Len(t, series, 3)
	assert.Equal(t, 101.0, series[0].Points[0].Value)
}

func TestMemStorage_SeriesByMetric(t *testing.T) {
	ms := seedStorage(t)

	series, err := ms.SeriesByMetric(context.Background(), "real_gdp")
	require.NoError(t, err)
	require.Len(t, series, 2)

	// Countries alphabetical, points chronological
	assert.Equal(t, "Iceland", series[0].Country)
	require.Len(t, series[0].Points, 2)
	assert.Equal(t, "2024-Q1", series[0].Points[0].Period)
	assert.Equal(t, "2024-Q2", series[0].Points[1].Period)
	assert.Equal(t, "Norway", series[1].Country)
}

func TestMemStorage_QuerySeries(t *testing.T) {
	ms := seedStorage(t)
	ctx := context.Background()

	series, unit, err := ms.QuerySeries(ctx, SeriesFilter{Metric: "real_gdp"})
	require.NoError(t, err)
	assert.Len(t, series, 2)
	assert.Equal(t, "USD_PPP", unit)

	series, _, err = ms.QuerySeries(ctx, SeriesFilter{Metric: "real_gdp", Countries: []string{"Norway"}})
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, "Norway", series[0].Country)

	series, _, err = ms.QuerySeries(ctx, SeriesFilter{Metric: "real_gdp", Start: "2024-Q2", End: "2024-Q4"})
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, "2024-Q2", series[0].Points[0].Period)
}

func TestMemStorage_JoinMetrics(t *testing.T) {
	ms := seedStorage(t)

	pairs, unit1, unit2, err := ms.JoinMetrics(context.Background(), "real_gdp", "savings_rate", nil)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "Iceland", pairs[0].Country)
	assert.Equal(t, "2024-Q1", pairs[0].Period)
	assert.Equal(t, 100.0, pairs[0].Value1)
	assert.Equal(t, 8.0, pairs[0].Value2)
	assert.Equal(t, "USD_PPP", unit1)
	assert.Equal(t, "percent", unit2)
}

func TestMemStorage_JoinAnnual(t *testing.T) {
	ms := seedStorage(t)

	pairs, err := ms.JoinAnnual(context.Background(), "real_gdp", "population")
	require.NoError(t, err)

	// Both Iceland quarters join the single annual population value
	require.Len(t, pairs, 2)
	assert.Equal(t, "2024-Q1", pairs[0].Period)
	assert.Equal(t, 380000.0, pairs[0].Value2)
	assert.Equal(t, "2024-Q2", pairs[1].Period)
}

func TestMemStorage_DeleteAndRelabel(t *testing.T) {
	ms := seedStorage(t)
	ctx := context.Background()

	require.NoError(t, ms.DeleteObservation(ctx, "real_gdp", "Iceland", "2024-Q2"))
	exists, err := ms.HasObservation(ctx, "real_gdp", "Iceland", "2024-Q2")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, ms.RelabelObservation(ctx, "real_gdp", "Norway", "2024-Q1", "2024-Q3"))
	exists, _ = ms.HasObservation(ctx, "real_gdp", "Norway", "2024-Q1")
	assert.False(t, exists)
	exists, _ = ms.HasObservation(ctx, "real_gdp", "Norway", "2024-Q3")
	assert.True(t, exists)
}

func TestMemStorage_DeleteCountryMetric(t *testing.T) {
	ms := seedStorage(t)
	ctx := context.Background()

	deleted, err := ms.DeleteCountryMetric(ctx, "real_gdp", "Iceland")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	// Other metrics for the country survive
	exists, _ := ms.HasObservation(ctx, "savings_rate", "Iceland", "2024-Q1")
	assert.True(t, exists)
}

func TestMemStorage_DeleteMetric(t *testing.T) {
	ms := seedStorage(t)

	deleted, err := ms.DeleteMetric(context.Background(), "real_gdp")
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	series, _ := ms.SeriesByMetric(context.Background(), "real_gdp")
	assert.Empty(t, series)
}

func TestMemStorage_ObservationsForPeriod(t *testing.T) {
	ms := seedStorage(t)

	obs, err := ms.ObservationsForPeriod(context.Background(), "2024-Q1")
	require.NoError(t, err)
	require.Len(t, obs, 3)
	assert.Equal(t, "Iceland", obs[0].Country)
	assert.Equal(t, "real_gdp", obs[0].Metric)
	assert.Equal(t, "savings_rate", obs[1].Metric)
	assert.Equal(t, "Norway", obs[2].Country)
}

func TestMemStorage_ListMetrics(t *testing.T) {
	ms := seedStorage(t)

	metrics, err := ms.ListMetrics(context.Background())
	require.NoError(t, err)
	require.Len(t, metrics, 3)

	assert.Equal(t, "population", metrics[0].Name)
	assert.Equal(t, "real_gdp", metrics[1].Name)
	assert.Equal(t, 3, metrics[1].DataPoints)
	assert.Equal(t, models.Range{Start: "2024-Q1", End: "2024-Q2"}, metrics[1].TimeRange)
	assert.Equal(t, "savings_rate", metrics[2].Name)
}

func TestMemStorage_ListCountries(t *testing.T) {
	ms := seedStorage(t)

	countries, err := ms.ListCountries(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, countries, 2)
	assert.Equal(t, "Iceland", countries[0].Name)
	assert.Equal(t, 4, countries[0].DataPoints)

	countries, err = ms.ListCountries(context.Background(), "savings_rate")
	require.NoError(t, err)
	require.Len(t, countries, 1)
	assert.Equal(t, 1, countries[0].DataPoints)
}

func TestMemStorage_Stats(t *testing.T) {
	ms := seedStorage(t)

	stats, err := ms.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalRecords)
	assert.Equal(t, 3, stats.UniqueMetrics)
	assert.Equal(t, 2, stats.UniqueCountries)
	assert.Equal(t, 3, stats.UniquePeriods)
	assert.Equal(t, "2024", stats.TimeRange.Start)
	assert.Equal(t, "2024-Q2", stats.TimeRange.End)
}
