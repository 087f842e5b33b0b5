package remediate

import (
	"fmt"

	models "github.com/macrostat/econdata/internal/model"
)

// SweepExtremeChanges walks the series left to right deleting points that
// cause extreme quarter-over-quarter swings.
//
// A point whose change from its predecessor exceeds the threshold is deleted
// when either the following change is also extreme and reverses direction
// (spike/revert), or the point deviates far from the average of its outer
// neighbors while its predecessor stays consistent with them. A deleted
// point's successor is never judged against it, so the scan skips ahead.
func SweepExtremeChanges(s models.Series, cfg Config) []Decision {
	cfg = cfg.withDefaults()
	points := s.Points
	if len(points) < 3 {
		return nil
	}

	var decisions []Decision
	i := 1
	for i < len(points) {
		prev := points[i-1]
		curr := points[i]

		if prev.Value > 0 {
			change := pctChange(prev.Value, curr.Value)

			if abs(change) > cfg.ThresholdPct && i+1 < len(points) {
				next := points[i+1]
				changeNext := pctChange(curr.Value, next.Value)

				// Opposite extreme swings around one point mark it as the outlier.
				if abs(changeNext) > cfg.ThresholdPct && change*changeNext < 0 {
					decisions = append(decisions, Decision{
						Country: s.Country,
						Period:  curr.Period,
						Value:   curr.Value,
						Action:  ActionDelete,
						Reason:  fmt.Sprintf("Outlier: %+.1f%% from prev, %+.1f%% to next", change, changeNext),
					})
					i += 2
					continue
				}

				if i >= 2 {
					before := points[i-2]
					avgNeighbors := (before.Value + next.Value) / 2

					devCurr := abs(pctChange(avgNeighbors, curr.Value))
					devPrev := abs(pctChange(avgNeighbors, prev.Value))

					if devCurr > cfg.IsolationPct && devPrev < cfg.PriorConsistencyPct {
						decisions = append(decisions, Decision{
							Country: s.Country,
							Period:  curr.Period,
							Value:   curr.Value,
							Action:  ActionDelete,
							Reason:  fmt.Sprintf("Deviates %.1f%% from neighbors vs %.1f%%", devCurr, devPrev),
						})
						i += 2
						continue
					}
				}
			}
		}

		i++
	}
	return decisions
}
