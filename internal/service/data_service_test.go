package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/macrostat/econdata/internal/audit"
	"github.com/macrostat/econdata/internal/config"
	models "github.com/macrostat/econdata/internal/model"
	"github.com/macrostat/econdata/internal/remediate"
	"github.com/macrostat/econdata/internal/repository"
)

var testLogger = zap.NewNop().Sugar()

func newTestService(t *testing.T, obs []models.Observation) (*DataService, *repository.MemStorage) {
	t.Helper()
	storage := repository.NewMemStorage()
	if len(obs) > 0 {
		_, _, err := storage.UpsertObservations(context.Background(), obs)
		require.NoError(t, err)
	}
	return NewDataService(storage, nil, testLogger), storage
}

func quarterlyObs(country, metric string, values ...float64) []models.Observation {
	quarters := []string{"2024-Q1", "2024-Q2", "2024-Q3", "2024-Q4", "2025-Q1"}
	obs := make([]models.Observation, 0, len(values))
	for i, v := range values {
		obs = append(obs, models.Observation{
			Country: country, Period: quarters[i], Metric: metric, Value: v,
			Unit: "USD_PPP", Source: "OECD",
		})
	}
	return obs
}

func TestPlanAndApplyRemediation(t *testing.T) {
	ds, storage := newTestService(t, quarterlyObs("Iceland", "real_gdp", 100, 102, 180, 104, 106))
	ctx := context.Background()

	decisions, err := ds.PlanRemediation(ctx, "real_gdp", remediate.AllHeuristics(), remediate.Config{})
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, "2024-Q3", decisions[0].Period)

	applied, err := ds.ApplyDecisions(ctx, decisions)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	exists, err := storage.HasObservation(ctx, "real_gdp", "Iceland", "2024-Q3")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestApplyDecisions_Audited(t *testing.T) {
	eventChan := make(chan audit.Event, 10)
	storage := repository.NewMemStorage()
	_, _, err := storage.UpsertObservations(context.Background(), quarterlyObs("Iceland", "real_gdp", 100))
	require.NoError(t, err)

	ds := NewDataService(storage, audit.NewLogger(eventChan), testLogger)

	applied, err := ds.ApplyDecisions(context.Background(), []remediate.Decision{
		{Metric: "real_gdp", Country: "Iceland", Period: "2024-Q1", Action: remediate.ActionDelete, Reason: "test"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	event := <-eventChan
	assert.Equal(t, "Iceland", event.Country)
	assert.Equal(t, "delete", event.Action)
}

func TestFixMislabeledPeriod(t *testing.T) {
	obs := []models.Observation{
		// Iceland already has the correct period, Norway does not
		{Country: "Iceland", Period: "2005-Q4", Metric: "real_gdp", Value: 1},
		{Country: "Iceland", Period: "2025-Q3", Metric: "real_gdp", Value: 2},
		{Country: "Norway", Period: "2005-Q4", Metric: "real_gdp", Value: 3},
	}
	ds, storage := newTestService(t, obs)
	ctx := context.Background()

	decisions, err := ds.FixMislabeledPeriod(ctx, "2005-Q4", "2025-Q3")
	require.NoError(t, err)
	require.Len(t, decisions, 2)
	assert.Equal(t, remediate.ActionDelete, decisions[0].Action)
	assert.Equal(t, remediate.ActionRelabel, decisions[1].Action)

	applied, err := ds.ApplyDecisions(ctx, decisions)
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	exists, _ := storage.HasObservation(ctx, "real_gdp", "Norway", "2025-Q3")
	assert.True(t, exists)
	exists, _ = storage.HasObservation(ctx, "real_gdp", "Norway", "2005-Q4")
	assert.False(t, exists)
	exists, _ = storage.HasObservation(ctx, "real_gdp", "Iceland", "2005-Q4")
	assert.False(t, exists)
}

func TestRemoveCountrySeries(t *testing.T) {
	obs := append(quarterlyObs("Iceland", "real_gdp", 100, 102),
		quarterlyObs("Norway", "real_gdp", 400, 410)...)
	ds, storage := newTestService(t, obs)

	deleted, err := ds.RemoveCountrySeries(context.Background(), "real_gdp", []string{"Norway"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	series, _ := storage.SeriesByMetric(context.Background(), "real_gdp")
	require.Len(t, series, 1)
	assert.Equal(t, "Iceland", series[0].Country)
}

func TestCalculateCumulativeIndex(t *testing.T) {
	ds, storage := newTestService(t, quarterlyObs("Iceland", "real_gdp", 200, 220, 198))
	ctx := context.Background()

	// Stale target data must be replaced, not merged
	_, _, err := storage.UpsertObservations(ctx, []models.Observation{
		{Country: "Iceland", Period: "1999-Q1", Metric: "gdp_index", Value: 1},
	})
	require.NoError(t, err)

	stored, err := ds.CalculateCumulativeIndex(ctx, "real_gdp", "gdp_index")
	require.NoError(t, err)
	assert.Equal(t, 3, stored)

	series, err := storage.SeriesByMetric(ctx, "gdp_index")
	require.NoError(t, err)
	require.Len(t, series, 1)
	require.Len(t, series[0].Points, 3)
	assert.Equal(t, 100.0, series[0].Points[0].Value)
	assert.InDelta(t, 110.0, series[0].Points[1].Value, 1e-9)

	exists, _ := storage.HasObservation(ctx, "gdp_index", "Iceland", "1999-Q1")
	assert.False(t, exists)
}

func TestCalculateCumulativeIndex_NoData(t *testing.T) {
	ds, _ := newTestService(t, nil)
	_, err := ds.CalculateCumulativeIndex(context.Background(), "real_gdp", "gdp_index")
	assert.Error(t, err)
}

func TestCalculateGrowth(t *testing.T) {
	ds, storage := newTestService(t, quarterlyObs("Iceland", "real_gdp", 100, 110, 99))
	ctx := context.Background()

	stored, err := ds.CalculateGrowth(ctx, "real_gdp", "gdp_growth", "gdp_growth_pct", "USD_PPP")
	require.NoError(t, err)
	assert.Equal(t, 4, stored)

	series, err := storage.SeriesByMetric(ctx, "gdp_growth_pct")
	require.NoError(t, err)
	require.Len(t, series, 1)
	require.Len(t, series[0].Points, 2)
	assert.InDelta(t, 10.0, series[0].Points[0].Value, 1e-9)
	assert.InDelta(t, -10.0, series[0].Points[1].Value, 1e-9)
}

func TestCalculateLevel(t *testing.T) {
	obs := append(quarterlyObs("Iceland", config.MetricGDPPerCapita, 50000, 51000),
		models.Observation{Country: "Iceland", Period: "2024", Metric: config.MetricPopulation, Value: 380000})
	ds, storage := newTestService(t, obs)
	ctx := context.Background()

	stored, err := ds.CalculateLevel(ctx, config.MetricGDPPerCapita, config.MetricPopulation, "gdp_level")
	require.NoError(t, err)
	assert.Equal(t, 2, stored)

	series, err := storage.SeriesByMetric(ctx, "gdp_level")
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, 50000.0*380000, series[0].Points[0].Value)
}

func TestCalculateLevel_NoOverlap(t *testing.T) {
	ds, _ := newTestService(t, quarterlyObs("Iceland", config.MetricGDPPerCapita, 50000))
	_, err := ds.CalculateLevel(context.Background(), config.MetricGDPPerCapita, config.MetricPopulation, "gdp_level")
	assert.Error(t, err)
}

func TestCalculateSavingsLevel(t *testing.T) {
	obs := []models.Observation{
		{Country: "Norway", Period: "2024-Q1", Metric: config.MetricSavingsRate, Value: 8, Unit: "percent"},
		{Country: "Norway", Period: "2024-Q1", Metric: config.MetricDisposableIncome, Value: 40000, Unit: "USD"},
	}
	ds, storage := newTestService(t, obs)
	ctx := context.Background()

	stored, err := ds.CalculateSavingsLevel(ctx, "savings_per_capita")
	require.NoError(t, err)
	assert.Equal(t, 1, stored)

	series, err := storage.SeriesByMetric(ctx, "savings_per_capita")
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.InDelta(t, 3200.0, series[0].Points[0].Value, 1e-9)
}
