package remediate

import (
	"fmt"

	models "github.com/macrostat/econdata/internal/model"
)

// SelectiveOutliers flags individual interior points that are clearly
// erroneous while preserving the rest of the series. Three patterns:
// spike-and-revert (V up), drop-and-recover (V down), and isolated points
// far from the average of both neighbors.
func SelectiveOutliers(s models.Series, cfg Config) []Decision {
	cfg = cfg.withDefaults()
	points := s.Points
	if len(points) < 3 {
		return nil
	}

	var decisions []Decision
	for i := 1; i < len(points)-1; i++ {
		prev := points[i-1].Value
		curr := points[i].Value
		next := points[i+1].Value

		if prev <= 0 || curr <= 0 || next <= 0 {
			continue
		}

		changeIn := pctChange(prev, curr)
		changeOut := pctChange(curr, next)

		if changeIn > cfg.ThresholdPct && changeOut < -cfg.ThresholdPct {
			decisions = append(decisions, Decision{
				Country: s.Country,
				Period:  points[i].Period,
				Value:   curr,
				Action:  ActionDelete,
				Reason:  fmt.Sprintf("Spike-revert: +%.1f%% then %.1f%%", changeIn, changeOut),
			})
			continue
		}

		if changeIn < -cfg.ThresholdPct && changeOut > cfg.ThresholdPct {
			decisions = append(decisions, Decision{
				Country: s.Country,
				Period:  points[i].Period,
				Value:   curr,
				Action:  ActionDelete,
				Reason:  fmt.Sprintf("Drop-recover: %.1f%% then +%.1f%%", changeIn, changeOut),
			})
			continue
		}

		if abs(changeIn) > cfg.ThresholdPct && abs(changeOut) > cfg.ThresholdPct {
			neighborAvg := (prev + next) / 2
			deviation := abs(pctChange(neighborAvg, curr))
			if deviation > cfg.IsolationPct {
				decisions = append(decisions, Decision{
					Country: s.Country,
					Period:  points[i].Period,
					Value:   curr,
					Action:  ActionDelete,
					Reason:  fmt.Sprintf("Isolated outlier: %.1f%% from neighbors", deviation),
				})
			}
		}
	}
	return decisions
}
