// Command fetcher retrieves economic indicators from the OECD SDMX API and
// upserts them into the observation store.
//
// Fetch the latest two quarters of one dataset:
//
//	fetcher -config gdp_per_capita -latest 2
//
// Backfill a long range in five-year chunks:
//
//	fetcher -config real_gdp -start 1995-Q1 -end 2025-Q3 -batch-years 5
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/macrostat/econdata/internal/migration"
	"github.com/macrostat/econdata/internal/oecd"
	"github.com/macrostat/econdata/internal/period"
	"github.com/macrostat/econdata/internal/repository"
)

type fetcherConfig struct {
	DatabaseDSN        string
	ConfigName         string
	All                bool
	Latest             int
	Start              string
	End                string
	BatchYears         int
	DryRun             bool
	IncludeProvisional bool
	NoFilterStatus     bool
	MinCountries       int
	List               bool
}

func newFetcherConfig() *fetcherConfig {
	cfg := &fetcherConfig{}

	flag.StringVar(&cfg.DatabaseDSN, "d", "", "database dsn")
	flag.StringVar(&cfg.ConfigName, "config", "", "dataset config name, e.g. gdp_per_capita")
	flag.BoolVar(&cfg.All, "all", false, "fetch all configured datasets")
	flag.IntVar(&cfg.Latest, "latest", 0, "fetch latest N quarters")
	flag.StringVar(&cfg.Start, "start", "", "start period, e.g. 2024-Q1")
	flag.StringVar(&cfg.End, "end", "", "end period, e.g. 2025-Q3")
	flag.IntVar(&cfg.BatchYears, "batch-years", 0, "backfill in chunks of N years")
	flag.BoolVar(&cfg.DryRun, "dry-run", false, "fetch and parse but do not write to database")
	flag.BoolVar(&cfg.IncludeProvisional, "include-provisional", false, "include provisional data (status P)")
	flag.BoolVar(&cfg.NoFilterStatus, "no-filter-status", false, "accept all data regardless of observation status")
	flag.IntVar(&cfg.MinCountries, "min-countries", 30, "drop periods reported by fewer than N countries (0 disables)")
	flag.BoolVar(&cfg.List, "list", false, "list available dataset configs and exit")
	flag.Parse()

	if envValue := os.Getenv("DATABASE_DSN"); envValue != "" {
		cfg.DatabaseDSN = envValue
	}

	return cfg
}

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("can't initialize logger: %v", err)
	}
	defer logger.Sync()
	logSugar := logger.Sugar()

	cfg := newFetcherConfig()

	if cfg.List {
		logSugar.Info("Available dataset configs:")
		for _, name := range oecd.ListConfigs() {
			logSugar.Infof("  - %s", name)
		}
		return
	}

	var names []string
	switch {
	case cfg.All:
		names = oecd.ListConfigs()
	case cfg.ConfigName != "":
		names = []string{cfg.ConfigName}
	default:
		logSugar.Fatal("must specify either -config or -all")
	}

	var start, end period.Period
	switch {
	case cfg.Latest > 0:
		start, end = period.LatestWindow(time.Now(), cfg.Latest)
		logSugar.Infof("Fetching latest %d quarters: %s to %s", cfg.Latest, start, end)
	case cfg.Start != "" && cfg.End != "":
		if start, err = period.Parse(cfg.Start); err != nil {
			logSugar.Fatalf("invalid start period: %v", err)
		}
		if end, err = period.Parse(cfg.End); err != nil {
			logSugar.Fatalf("invalid end period: %v", err)
		}
		logSugar.Infof("Fetching period: %s to %s", start, end)
	default:
		logSugar.Fatal("must specify either -latest N or both -start and -end")
	}

	if cfg.DatabaseDSN == "" && !cfg.DryRun {
		logSugar.Fatal("database dsn is required unless -dry-run is set")
	}

	ctx := context.Background()

	var storage repository.Repository
	if cfg.DatabaseDSN != "" {
		if err := migration.RunMigrations(ctx, cfg.DatabaseDSN, logSugar); err != nil {
			logSugar.Fatalf("migrations failed: %v", err)
		}
		storage, err = repository.NewDBStorage(cfg.DatabaseDSN)
		if err != nil {
			logSugar.Fatalf("can't connect to database: %v", err)
		}
	} else {
		storage = repository.NewMemStorage()
	}
	defer storage.Close()

	fetcher := oecd.NewFetcher(oecd.NewClient(logSugar), storage, logSugar)
	opts := oecd.FetchOptions{
		ParseOptions: oecd.ParseOptions{
			FilterStatus:       !cfg.NoFilterStatus,
			IncludeProvisional: cfg.IncludeProvisional,
		},
		DryRun:                cfg.DryRun,
		MinCountriesPerPeriod: cfg.MinCountries,
	}

	failed := false
	for _, name := range names {
		var result oecd.Result
		if cfg.BatchYears > 0 {
			result, err = fetcher.Backfill(ctx, name, start, end, cfg.BatchYears, opts)
		} else {
			result, err = fetcher.FetchAndUpsert(ctx, name, start, end, opts)
		}
		if err != nil {
			logSugar.Errorf("%s: %v", name, err)
			failed = true
			continue
		}
		logSugar.Infof("%s: fetched %d, inserted %d, updated %d",
			name, result.PointsFetched, result.PointsInserted, result.PointsUpdated)
	}

	if failed {
		os.Exit(1)
	}
}
