// Command remediate runs data-quality heuristics over stored observation
// series and applies the resulting delete and relabel decisions.
//
// Preview what would be cleaned:
//
//	remediate -d $DSN -metric real_gdp -dry-run
//
// Apply with an audit trail:
//
//	remediate -d $DSN -metric real_gdp -audit-file remediation.log
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/macrostat/econdata/internal/audit"
	"github.com/macrostat/econdata/internal/migration"
	"github.com/macrostat/econdata/internal/remediate"
	"github.com/macrostat/econdata/internal/repository"
	"github.com/macrostat/econdata/internal/service"
)

type remediateConfig struct {
	DatabaseDSN string
	Metric      string
	DryRun      bool

	Sweep       bool
	Outliers    bool
	LevelShifts bool

	ThresholdPct float64
	IsolationPct float64

	FixPeriod       string
	CorrectPeriod   string
	RemoveCountries string

	AuditFile string
	AuditURL  string
}

func newRemediateConfig() *remediateConfig {
	cfg := &remediateConfig{}

	flag.StringVar(&cfg.DatabaseDSN, "d", "", "database dsn")
	flag.StringVar(&cfg.Metric, "metric", "", "metric to remediate")
	flag.BoolVar(&cfg.DryRun, "dry-run", false, "plan decisions but do not apply them")
	flag.BoolVar(&cfg.Sweep, "sweep", true, "scan for extreme quarter-over-quarter changes")
	flag.BoolVar(&cfg.Outliers, "outliers", true, "detect spike-revert and drop-recover outliers")
	flag.BoolVar(&cfg.LevelShifts, "level-shifts", true, "detect series segments on the wrong level")
	flag.Float64Var(&cfg.ThresholdPct, "threshold", 0, "extreme change threshold in percent (0 = default)")
	flag.Float64Var(&cfg.IsolationPct, "isolation", 0, "neighbor deviation threshold in percent (0 = default)")
	flag.StringVar(&cfg.FixPeriod, "fix-period", "", "mislabeled period to correct, e.g. 2024-Q4")
	flag.StringVar(&cfg.CorrectPeriod, "correct-period", "", "period the mislabeled data belongs to")
	flag.StringVar(&cfg.RemoveCountries, "remove-countries", "", "comma-separated countries whose series should be dropped")
	flag.StringVar(&cfg.AuditFile, "audit-file", "", "append applied decisions to this file as JSON lines")
	flag.StringVar(&cfg.AuditURL, "audit-url", "", "POST applied decisions to this URL")
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

	cfg := newRemediateConfig()

	if cfg.Metric == "" && cfg.FixPeriod == "" {
		logSugar.Fatal("must specify -metric, or -fix-period with -correct-period")
	}
	if cfg.FixPeriod != "" && cfg.CorrectPeriod == "" {
		logSugar.Fatal("-fix-period requires -correct-period")
	}
	if cfg.DatabaseDSN == "" {
		logSugar.Fatal("database dsn is required")
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

	// drainAudit closes the event channel and waits until every subscriber
	// has written its last event. Without it the process could exit with
	// decisions still in flight.
	var auditor audit.Logger
	drainAudit := func() {}
	if !cfg.DryRun && (cfg.AuditFile != "" || cfg.AuditURL != "") {
		eventChan := make(chan audit.Event, 100)
		var subs []chan<- audit.Event
		var subsDone sync.WaitGroup
		if cfg.AuditFile != "" {
			fileChan := make(chan audit.Event, 100)
			subs = append(subs, fileChan)
			subsDone.Add(1)
			go func() {
				defer subsDone.Done()
				audit.FileSubscriber(fileChan, cfg.AuditFile)
			}()
		}
		if cfg.AuditURL != "" {
			urlChan := make(chan audit.Event, 100)
			subs = append(subs, urlChan)
			subsDone.Add(1)
			go func() {
				defer subsDone.Done()
				audit.URLSubscriber(urlChan, cfg.AuditURL)
			}()
		}
		go audit.Broadcaster(eventChan, subs...)
		auditor = audit.NewLogger(eventChan)
		drainAudit = func() {
			close(eventChan)
			subsDone.Wait()
		}
	}

	dataService := service.NewDataService(storage, auditor, logSugar)

	var decisions []remediate.Decision

	switch {
	case cfg.FixPeriod != "":
		decisions, err = dataService.FixMislabeledPeriod(ctx, cfg.FixPeriod, cfg.CorrectPeriod)
		if err != nil {
			logSugar.Fatalf("planning period fix failed: %v", err)
		}
	default:
		h := remediate.Heuristics{
			Sweep:       cfg.Sweep,
			Outliers:    cfg.Outliers,
			LevelShifts: cfg.LevelShifts,
		}
		rcfg := remediate.Config{
			ThresholdPct: cfg.ThresholdPct,
			IsolationPct: cfg.IsolationPct,
		}
		decisions, err = dataService.PlanRemediation(ctx, cfg.Metric, h, rcfg)
		if err != nil {
			logSugar.Fatalf("planning remediation failed: %v", err)
		}
	}

	if len(decisions) == 0 {
		logSugar.Info("No issues found")
	}
	for _, d := range decisions {
		switch d.Action {
		case remediate.ActionRelabel:
			logSugar.Infof("  %s %s %s -> %s: %s", d.Metric, d.Country, d.Period, d.NewPeriod, d.Reason)
		default:
			logSugar.Infof("  %s %s %s (%.2f): %s", d.Metric, d.Country, d.Period, d.Value, d.Reason)
		}
	}

	if cfg.RemoveCountries != "" && cfg.Metric != "" {
		countries := strings.Split(cfg.RemoveCountries, ",")
		if cfg.DryRun {
			logSugar.Infof("Would remove %s series for: %s", cfg.Metric, cfg.RemoveCountries)
		} else {
			deleted, err := dataService.RemoveCountrySeries(ctx, cfg.Metric, countries)
			if err != nil {
				logSugar.Fatalf("removing country series failed: %v", err)
			}
			logSugar.Infof("Removed %d records across %d countries", deleted, len(countries))
		}
	}

	if cfg.DryRun {
		logSugar.Infof("Dry run: %d decisions planned, none applied", len(decisions))
		return
	}

	applied, err := dataService.ApplyDecisions(ctx, decisions)
	drainAudit()
	if err != nil {
		logSugar.Fatalf("applying decisions failed after %d: %v", applied, err)
	}
	logSugar.Infof("Applied %d decisions", applied)
}
