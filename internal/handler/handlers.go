package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	econerrors "github.com/macrostat/econdata/internal/errors"
	middlewareinternal "github.com/macrostat/econdata/internal/middleware"
	models "github.com/macrostat/econdata/internal/model"
	"github.com/macrostat/econdata/internal/repository"
	"github.com/macrostat/econdata/internal/service"
)

func Router(logger *zap.SugaredLogger, dataService *service.DataService) chi.Router {
	router := chi.NewRouter()
	router.Use(middlewareinternal.LoggingMiddleware(logger))
	router.Use(middlewareinternal.GzipMiddleware)
	router.Use(middleware.StripSlashes)
	router.Use(middleware.Timeout(15 * time.Second))
	router.Get("/api/metrics", func(w http.ResponseWriter, r *http.Request) {
		MetricsHandler(w, r, dataService, logger)
	})
	router.Get("/api/countries", func(w http.ResponseWriter, r *http.Request) {
		CountriesHandler(w, r, dataService, logger)
	})
	router.Get("/api/data", func(w http.ResponseWriter, r *http.Request) {
		DataHandler(w, r, dataService, logger)
	})
	router.Get("/api/correlate", func(w http.ResponseWriter, r *http.Request) {
		CorrelateHandler(w, r, dataService, logger)
	})
	router.Get("/api/stats", func(w http.ResponseWriter, r *http.Request) {
		StatsHandler(w, r, dataService, logger)
	})
	router.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		HealthHandler(w, r, logger)
	})
	router.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		PingDatabaseHandler(w, r, dataService, logger)
	})
	return router
}

func MetricsHandler(w http.ResponseWriter, r *http.Request, dataService *service.DataService, logger *zap.SugaredLogger) {
	metrics, err := dataService.ListMetrics(r.Context())
	if err != nil {
		logger.Errorf("error listing metrics: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if metrics == nil {
		metrics = []models.MetricInfo{}
	}
	writeJSON(w, http.StatusOK, metrics)
}

func CountriesHandler(w http.ResponseWriter, r *http.Request, dataService *service.DataService, logger *zap.SugaredLogger) {
	metric := r.URL.Query().Get("metric")
	countries, err := dataService.ListCountries(r.Context(), metric)
	if err != nil {
		logger.Errorf("error listing countries: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if countries == nil {
		countries = []models.CountryInfo{}
	}
	writeJSON(w, http.StatusOK, countries)
}

// seriesResponse is the /api/data payload: one entry per country.
type seriesResponse struct {
	Metric string          `json:"metric"`
	Unit   string          `json:"unit"`
	Data   []countrySeries `json:"data"`
}

type countrySeries struct {
	Country    string         `json:"country"`
	TimeSeries []models.Point `json:"time_series"`
}

func DataHandler(w http.ResponseWriter, r *http.Request, dataService *service.DataService, logger *zap.SugaredLogger) {
	query := r.URL.Query()
	metric := query.Get("metric")
	if metric == "" {
		writeError(w, http.StatusBadRequest, econerrors.ErrMissingParameter.Error()+": metric")
		return
	}

	filter := repository.SeriesFilter{
		Metric:    metric,
		Countries: splitCountries(query.Get("countries")),
		Start:     query.Get("start_date"),
		End:       query.Get("end_date"),
	}

	series, unit, err := dataService.QuerySeries(r.Context(), filter)
	if err != nil {
		logger.Errorf("error querying series: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(series) == 0 {
		writeError(w, http.StatusNotFound, econerrors.ErrMetricNotFound.Error()+": "+metric)
		return
	}

	response := seriesResponse{Metric: metric, Unit: unit, Data: []countrySeries{}}
	for _, s := range series {
		response.Data = append(response.Data, countrySeries{Country: s.Country, TimeSeries: s.Points})
	}
	writeJSON(w, http.StatusOK, response)
}

// correlateResponse pairs two metrics per country for scatter plots.
type correlateResponse struct {
	Metric1 metricRef       `json:"metric1"`
	Metric2 metricRef       `json:"metric2"`
	Data    []countryPaired `json:"data"`
}

type metricRef struct {
	Name string `json:"name"`
	Unit string `json:"unit"`
}

type countryPaired struct {
	Country    string        `json:"country"`
	DataPoints []pairedPoint `json:"data_points"`
}

type pairedPoint struct {
	Period string  `json:"time_period"`
	Value1 float64 `json:"value1"`
	Value2 float64 `json:"value2"`
}

func CorrelateHandler(w http.ResponseWriter, r *http.Request, dataService *service.DataService, logger *zap.SugaredLogger) {
	query := r.URL.Query()
	metric1 := query.Get("metric1")
	metric2 := query.Get("metric2")
	if metric1 == "" || metric2 == "" {
		writeError(w, http.StatusBadRequest, econerrors.ErrMissingParameter.Error()+": metric1 and metric2")
		return
	}

	pairs, unit1, unit2, err := dataService.Correlate(r.Context(), metric1, metric2, splitCountries(query.Get("countries")))
	if err != nil {
		logger.Errorf("error correlating metrics: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response := correlateResponse{
		Metric1: metricRef{Name: metric1, Unit: unit1},
		Metric2: metricRef{Name: metric2, Unit: unit2},
		Data:    []countryPaired{},
	}
	for _, p := range pairs {
		if len(response.Data) == 0 || response.Data[len(response.Data)-1].Country != p.Country {
			response.Data = append(response.Data, countryPaired{Country: p.Country})
		}
		last := &response.Data[len(response.Data)-1]
		last.DataPoints = append(last.DataPoints, pairedPoint{
			Period: p.Period,
			Value1: p.Value1,
			Value2: p.Value2,
		})
	}
	writeJSON(w, http.StatusOK, response)
}

func StatsHandler(w http.ResponseWriter, r *http.Request, dataService *service.DataService, logger *zap.SugaredLogger) {
	stats, err := dataService.Stats(r.Context())
	if err != nil {
		logger.Errorf("error retrieving stats: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func PingDatabaseHandler(w http.ResponseWriter, r *http.Request, dataService *service.DataService, logger *zap.SugaredLogger) {
	err := dataService.Ping(r.Context())
	if err != nil {
		logger.Errorf("%v", err)
		writeError(w, http.StatusInternalServerError, "Failed to connect to database: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusOK)
}

func splitCountries(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	countries := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			countries = append(countries, p)
		}
	}
	return countries
}
