package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	models "github.com/macrostat/econdata/internal/model"
	"github.com/macrostat/econdata/internal/repository"
	"github.com/macrostat/econdata/internal/service"
)

var testLogger = zap.NewNop().Sugar()

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	storage := repository.NewMemStorage()
	obs := []models.Observation{
		{Country: "Iceland", Period: "2024-Q1", Metric: "real_gdp", Value: 100, Unit: "USD_PPP", Source: "OECD"},
		{Country: "Iceland", Period: "2024-Q2", Metric: "real_gdp", Value: 105, Unit: "USD_PPP", Source: "OECD"},
		{Country: "Norway", Period: "2024-Q1", Metric: "real_gdp", Value: 400, Unit: "USD_PPP", Source: "OECD"},
		{Country: "Iceland", Period: "2024-Q1", Metric: "savings_rate", Value: 8, Unit: "percent", Source: "OECD"},
	}
	_, _, err := storage.UpsertObservations(context.Background(), obs)
	require.NoError(t, err)

	dataService := service.NewDataService(storage, nil, testLogger)
	server := httptest.NewServer(Router(testLogger, dataService))
	t.Cleanup(server.Close)
	return server
}

func getJSON(t *testing.T, url string, target any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if target != nil {
		require.NoError(t, json.Unmarshal(body, target), "body: %s", body)
	}
	return resp.StatusCode
}

func TestMetricsEndpoint(t *testing.T) {
	server := newTestServer(t)

	var metrics []models.MetricInfo
	status := getJSON(t, server.URL+"/api/metrics", &metrics)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, metrics, 2)
	assert.Equal(t, "real_gdp", metrics[0].Name)
	assert.Equal(t, 3, metrics[0].DataPoints)
	assert.Equal(t, "savings_rate", metrics[1].Name)
}

func TestCountriesEndpoint(t *testing.T) {
	server := newTestServer(t)

	var countries []models.CountryInfo
	status := getJSON(t, server.URL+"/api/countries", &countries)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, countries, 2)

	status = getJSON(t, server.URL+"/api/countries?metric=savings_rate", &countries)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, countries, 1)
	assert.Equal(t, "Iceland", countries[0].Name)
}

func TestDataEndpoint(t *testing.T) {
	server := newTestServer(t)

	var response struct {
		Metric string `json:"metric"`
		Unit   string `json:"unit"`
		Data   []struct {
			Country    string `json:"country"`
			TimeSeries []struct {
				Period string  `json:"time_period"`
				Value  float64 `json:"value"`
			} `json:"time_series"`
		} `json:"data"`
	}

	status := getJSON(t, server.URL+"/api/data?metric=real_gdp", &response)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "real_gdp", response.Metric)
	assert.Equal(t, "USD_PPP", response.Unit)
	require.Len(t, response.Data, 2)
	assert.Equal(t, "Iceland", response.Data[0].Country)
	require.Len(t, response.Data[0].TimeSeries, 2)
	assert.Equal(t, "2024-Q1", response.Data[0].TimeSeries[0].Period)
	assert.Equal(t, 100.0, response.Data[0].TimeSeries[0].Value)
}

func TestDataEndpoint_Filters(t *testing.T) {
	server := newTestServer(t)

	var response struct {
		Data []struct {
			Country string `json:"country"`
		} `json:"data"`
	}
	status := getJSON(t, server.URL+"/api/data?metric=real_gdp&countries=Norway", &response)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, response.Data, 1)
	assert.Equal(t, "Norway", response.Data[0].Country)
}

func TestDataEndpoint_Errors(t *testing.T) {
	server := newTestServer(t)

	var errResp map[string]string
	status := getJSON(t, server.URL+"/api/data", &errResp)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, errResp["error"], "metric")

	status = getJSON(t, server.URL+"/api/data?metric=nonexistent", &errResp)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, errResp["error"], "metric not found")
}

func TestCorrelateEndpoint(t *testing.T) {
	server := newTestServer(t)

	var response struct {
		Metric1 struct {
			Name string `json:"name"`
			Unit string `json:"unit"`
		} `json:"metric1"`
		Data []struct {
			Country    string `json:"country"`
			DataPoints []struct {
				Period string  `json:"time_period"`
				Value1 float64 `json:"value1"`
				Value2 float64 `json:"value2"`
			} `json:"data_points"`
		} `json:"data"`
	}

	status := getJSON(t, server.URL+"/api/correlate?metric1=real_gdp&metric2=savings_rate", &response)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "real_gdp", response.Metric1.Name)
	assert.Equal(t, "USD_PPP", response.Metric1.Unit)
	require.Len(t, response.Data, 1)
	require.Len(t, response.Data[0].DataPoints, 1)
	assert.Equal(t, 100.0, response.Data[0].DataPoints[0].Value1)
	assert.Equal(t, 8.0, response.Data[0].DataPoints[0].Value2)
}

func TestCorrelateEndpoint_MissingParams(t *testing.T) {
	server := newTestServer(t)

	var errResp map[string]string
	status := getJSON(t, server.URL+"/api/correlate?metric1=real_gdp", &errResp)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestStatsEndpoint(t *testing.T) {
	server := newTestServer(t)

	var stats models.Stats
	status := getJSON(t, server.URL+"/api/stats", &stats)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 4, stats.TotalRecords)
	assert.Equal(t, 2, stats.UniqueMetrics)
	assert.Equal(t, 2, stats.UniqueCountries)
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t)

	var health map[string]any
	status := getJSON(t, server.URL+"/api/health", &health)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", health["status"])
}

func TestPingEndpoint(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUnknownRoute(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/unknown")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
