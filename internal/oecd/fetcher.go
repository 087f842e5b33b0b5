package oecd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	econerrors "github.com/macrostat/econdata/internal/errors"
	models "github.com/macrostat/econdata/internal/model"
	"github.com/macrostat/econdata/internal/period"
	"github.com/macrostat/econdata/internal/repository"
)

// DefaultBatchSize is how many countries go into one API request.
const DefaultBatchSize = 30

// Fetcher orchestrates fetching a dataset and upserting it into the store.
type Fetcher struct {
	client  *Client
	storage repository.Repository
	logger  *zap.SugaredLogger
}

func NewFetcher(client *Client, storage repository.Repository, logger *zap.SugaredLogger) *Fetcher {
	return &Fetcher{client: client, storage: storage, logger: logger}
}

// FetchOptions controls one fetch run.
type FetchOptions struct {
	ParseOptions

	// DryRun fetches and parses but skips the database upsert.
	DryRun bool

	// MinCountriesPerPeriod drops periods with fewer reporting countries.
	// Zero disables the completeness filter.
	MinCountriesPerPeriod int

	// BatchSize overrides DefaultBatchSize when positive.
	BatchSize int
}

// Result summarizes one fetch run.
type Result struct {
	PointsFetched  int
	PointsInserted int
	PointsUpdated  int
}

// FetchAndUpsert fetches one dataset config for a period range, parses and
// filters the responses, and upserts the observations. Failed country
// batches are logged and skipped so one bad batch does not lose the rest.
func (f *Fetcher) FetchAndUpsert(ctx context.Context, configName string, start, end period.Period, opts FetchOptions) (Result, error) {
	cfg, err := GetConfig(configName)
	if err != nil {
		return Result{}, err
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	f.logger.Infof("Fetching %s from %s to %s", configName, start, end)

	batches := BuildBatches(cfg, start, end, batchSize)
	f.logger.Infof("Created %d batches of countries", len(batches))

	var all []models.Observation
	for _, batch := range batches {
		f.logger.Infof("Processing batch %d/%d (%d countries)", batch.Num, len(batches), len(batch.Countries))

		csvText, err := f.client.FetchCSV(ctx, batch.URL)
		if err != nil {
			f.logger.Errorf("Error processing batch %d: %v", batch.Num, err)
			continue
		}

		obs, err := ParseCSV(csvText, cfg, opts.ParseOptions, f.logger)
		if err != nil {
			f.logger.Errorf("Error parsing batch %d: %v", batch.Num, err)
			continue
		}
		all = append(all, obs...)
	}

	if len(all) == 0 {
		return Result{}, econerrors.ErrNoDataPoints
	}

	if opts.MinCountriesPerPeriod > 0 {
		all = FilterIncompletePeriods(all, opts.MinCountriesPerPeriod, f.logger)
	}

	if err := Validate(all); err != nil {
		return Result{}, fmt.Errorf("validation failed: %w", err)
	}

	summary := Summarize(all)
	f.logger.Infof("Data summary: %d points, %d countries, periods %s..%s, values %.1f..%.1f",
		summary.TotalPoints, summary.UniqueCountries,
		summary.PeriodRange[0], summary.PeriodRange[1],
		summary.ValueRange[0], summary.ValueRange[1])

	if opts.DryRun {
		f.logger.Info("DRY RUN - skipping database upsert")
		return Result{PointsFetched: len(all)}, nil
	}

	inserted, updated, err := f.storage.UpsertObservations(ctx, all)
	if err != nil {
		return Result{}, fmt.Errorf("upsert failed: %w", err)
	}

	f.logger.Infof("Upsert complete: inserted %d, updated %d", inserted, updated)
	return Result{PointsFetched: len(all), PointsInserted: inserted, PointsUpdated: updated}, nil
}

// Backfill fetches a long period range in year-sized chunks, keeping single
// requests to the API small.
func (f *Fetcher) Backfill(ctx context.Context, configName string, start, end period.Period, batchYears int, opts FetchOptions) (Result, error) {
	var total Result
	for _, chunk := range period.SplitYears(start, end, batchYears) {
		res, err := f.FetchAndUpsert(ctx, configName, chunk[0], chunk[1], opts)
		if err != nil {
			return total, fmt.Errorf("backfill chunk %s..%s: %w", chunk[0], chunk[1], err)
		}
		total.PointsFetched += res.PointsFetched
		total.PointsInserted += res.PointsInserted
		total.PointsUpdated += res.PointsUpdated
	}
	return total, nil
}
