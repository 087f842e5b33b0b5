// Package remediate detects and corrects data-quality defects in economic
// time series: isolated outlier spikes, extreme quarter-over-quarter swings,
// persistent level shifts from unit mismatches, and mislabeled periods.
//
// The heuristics are pure functions over a single country's time-ordered
// series. They return decisions (delete or relabel) that the service layer
// applies to the observation store; nothing here touches storage.
package remediate

import (
	models "github.com/macrostat/econdata/internal/model"
)

// Action is what should happen to a flagged observation.
type Action string

const (
	ActionDelete  Action = "delete"
	ActionRelabel Action = "relabel"
)

// Decision is one remediation verdict for a stored observation.
// Observations without a decision are kept.
type Decision struct {
	Metric    string
	Country   string
	Period    string
	Value     float64
	Action    Action
	NewPeriod string // set for ActionRelabel
	Reason    string
}

// Config holds the detection thresholds. Zero values are replaced with the
// defaults via withDefaults, so Config{} gives standard behavior.
type Config struct {
	// ThresholdPct flags a quarter-over-quarter change as extreme.
	ThresholdPct float64

	// IsolationPct is the deviation from the neighbor average above which a
	// point between two extreme changes counts as an isolated outlier.
	IsolationPct float64

	// PriorConsistencyPct is the deviation below which the preceding point
	// counts as consistent with the surrounding data.
	PriorConsistencyPct float64

	// LevelDiffPct is the segment-average difference above which a segment
	// sits at a wrong level relative to the dominant segment.
	LevelDiffPct float64

	// MinLevelShiftPoints is the minimum series length for segment analysis.
	MinLevelShiftPoints int
}

const (
	defaultThresholdPct        = 20.0
	defaultIsolationPct        = 30.0
	defaultPriorConsistencyPct = 15.0
	defaultLevelDiffPct        = 40.0
	defaultMinLevelShiftPoints = 10
)

func (c Config) withDefaults() Config {
	if c.ThresholdPct == 0 {
		c.ThresholdPct = defaultThresholdPct
	}
	if c.IsolationPct == 0 {
		c.IsolationPct = defaultIsolationPct
	}
	if c.PriorConsistencyPct == 0 {
		c.PriorConsistencyPct = defaultPriorConsistencyPct
	}
	if c.LevelDiffPct == 0 {
		c.LevelDiffPct = defaultLevelDiffPct
	}
	if c.MinLevelShiftPoints == 0 {
		c.MinLevelShiftPoints = defaultMinLevelShiftPoints
	}
	return c
}

// Heuristics selects which scans PlanSeries runs.
type Heuristics struct {
	Sweep       bool
	Outliers    bool
	LevelShifts bool
}

// AllHeuristics enables every scan.
func AllHeuristics() Heuristics {
	return Heuristics{Sweep: true, Outliers: true, LevelShifts: true}
}

// PlanSeries runs the enabled heuristics over every country's series of one
// metric and returns the merged decision list. A point flagged by more than
// one heuristic yields a single decision, keeping the first reason found.
func PlanSeries(metric string, series []models.Series, h Heuristics, cfg Config) []Decision {
	cfg = cfg.withDefaults()

	var decisions []Decision
	seen := make(map[string]map[string]bool) // country -> period -> flagged

	add := func(ds []Decision) {
		for _, d := range ds {
			d.Metric = metric
			if seen[d.Country] == nil {
				seen[d.Country] = make(map[string]bool)
			}
			if seen[d.Country][d.Period] {
				continue
			}
			seen[d.Country][d.Period] = true
			decisions = append(decisions, d)
		}
	}

	for _, s := range series {
		if h.Sweep {
			add(SweepExtremeChanges(s, cfg))
		}
		if h.Outliers {
			add(SelectiveOutliers(s, cfg))
		}
		if h.LevelShifts {
			add(LevelShifts(s, cfg))
		}
	}
	return decisions
}

func pctChange(from, to float64) float64 {
	return (to - from) / from * 100
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
