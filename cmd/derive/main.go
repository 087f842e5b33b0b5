// Command derive computes metrics from stored observations: cumulative
// indexes, quarter-over-quarter growth, GDP levels from per-capita data, and
// nominal savings per capita.
//
//	derive -d $DSN -op index -source gdp_per_capita -target gdp_index
//	derive -d $DSN -op level -target gdp_level
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/macrostat/econdata/internal/config"
	"github.com/macrostat/econdata/internal/migration"
	"github.com/macrostat/econdata/internal/repository"
	"github.com/macrostat/econdata/internal/service"
)

type deriveConfig struct {
	DatabaseDSN string
	Op          string
	Source      string
	Target      string
	PctTarget   string
	Unit        string
}

func newDeriveConfig() *deriveConfig {
	cfg := &deriveConfig{}

	flag.StringVar(&cfg.DatabaseDSN, "d", "", "database dsn")
	flag.StringVar(&cfg.Op, "op", "", "calculation: index, growth, level or savings")
	flag.StringVar(&cfg.Source, "source", "", "source metric")
	flag.StringVar(&cfg.Target, "target", "", "target metric for the result")
	flag.StringVar(&cfg.PctTarget, "pct-target", "", "target metric for percentage growth (op=growth)")
	flag.StringVar(&cfg.Unit, "unit", "", "unit of the nominal growth metric (op=growth)")
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

	cfg := newDeriveConfig()

	if cfg.DatabaseDSN == "" {
		logSugar.Fatal("database dsn is required")
	}
	if cfg.Target == "" {
		logSugar.Fatal("-target is required")
	}

	ctx := context.Background()

	if err := migration.RunMigrations(ctx, cfg.DatabaseDSN, logSugar); err != nil {
		logSugar.Fatalf("migrations failed: %v", err)
	}
	storage, err := repository.NewDBStorage(cfg.DatabaseDSN)
	if err != nil {
		logSugar.Fatalf("can't connect to database: %v", err)
	}
	defer storage.Close()

	dataService := service.NewDataService(storage, nil, logSugar)

	var stored int
	switch cfg.Op {
	case "index":
		if cfg.Source == "" {
			logSugar.Fatal("-source is required for op=index")
		}
		stored, err = dataService.CalculateCumulativeIndex(ctx, cfg.Source, cfg.Target)
	case "growth":
		if cfg.Source == "" || cfg.PctTarget == "" {
			logSugar.Fatal("-source and -pct-target are required for op=growth")
		}
		stored, err = dataService.CalculateGrowth(ctx, cfg.Source, cfg.Target, cfg.PctTarget, cfg.Unit)
	case "level":
		source := cfg.Source
		if source == "" {
			source = config.MetricGDPPerCapita
		}
		stored, err = dataService.CalculateLevel(ctx, source, config.MetricPopulation, cfg.Target)
	case "savings":
		stored, err = dataService.CalculateSavingsLevel(ctx, cfg.Target)
	default:
		logSugar.Fatalf("unknown op %q, want index, growth, level or savings", cfg.Op)
	}

	if err != nil {
		logSugar.Fatalf("%s calculation failed: %v", cfg.Op, err)
	}
	logSugar.Infof("Stored %d %s records", stored, cfg.Target)
}
