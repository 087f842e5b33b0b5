package remediate

import (
	"fmt"

	models "github.com/macrostat/econdata/internal/model"
)

// PlanRelabel corrects observations stored under a mislabeled period, such as
// a 2005-Q4 vintage filed as 2025-Q3. Each observation under the wrong label
// is relabeled to the correct period unless that period already holds a value
// for the same (country, metric), in which case the mislabeled duplicate is
// deleted.
//
// hasCorrect reports whether the correct period already exists for a
// (metric, country) pair; it is satisfied by Repository.HasObservation.
func PlanRelabel(mislabeled []models.Observation, correctPeriod string, hasCorrect func(metric, country string) bool) []Decision {
	var decisions []Decision
	for _, o := range mislabeled {
		d := Decision{
			Metric:  o.Metric,
			Country: o.Country,
			Period:  o.Period,
			Value:   o.Value,
		}
		if hasCorrect(o.Metric, o.Country) {
			d.Action = ActionDelete
			d.Reason = fmt.Sprintf("Duplicate of existing %s", correctPeriod)
		} else {
			d.Action = ActionRelabel
			d.NewPeriod = correctPeriod
			d.Reason = fmt.Sprintf("Mislabeled period, should be %s", correctPeriod)
		}
		decisions = append(decisions, d)
	}
	return decisions
}
