// Package derive computes metrics from stored series: a cumulative index,
// growth deltas, and level metrics combining two inputs. All functions are
// pure; the service layer reads the sources and upserts the results.
package derive

import (
	models "github.com/macrostat/econdata/internal/model"
)

// CumulativeIndex rebases a series to 100 at its first point and chains the
// period-over-period returns forward:
//
//	index_0 = 100
//	index_i = index_{i-1} * (v_i / v_{i-1})
func CumulativeIndex(s models.Series) models.Series {
	out := models.Series{Country: s.Country}
	index := 100.0
	for i, p := range s.Points {
		if i > 0 {
			index = index * (p.Value / s.Points[i-1].Value)
		}
		out.Points = append(out.Points, models.Point{Period: p.Period, Value: index})
	}
	return out
}

// Growth returns the nominal and percentage quarter-over-quarter changes of a
// series. The first point of the series has no predecessor and is skipped.
// Percentage change is 0 when the previous value is 0.
func Growth(s models.Series) (nominal, pct models.Series) {
	nominal = models.Series{Country: s.Country}
	pct = models.Series{Country: s.Country}
	for i := 1; i < len(s.Points); i++ {
		prev := s.Points[i-1].Value
		curr := s.Points[i]

		change := curr.Value - prev
		var pctChange float64
		if prev != 0 {
			pctChange = change / prev * 100
		}

		nominal.Points = append(nominal.Points, models.Point{Period: curr.Period, Value: change})
		pct.Points = append(pct.Points, models.Point{Period: curr.Period, Value: pctChange})
	}
	return nominal, pct
}

// Level multiplies paired values, e.g. GDP per capita times population.
func Level(pairs []models.PairedPoint) []models.Observation {
	obs := make([]models.Observation, 0, len(pairs))
	for _, p := range pairs {
		obs = append(obs, models.Observation{
			Country: p.Country,
			Period:  p.Period,
			Value:   p.Value1 * p.Value2,
		})
	}
	return obs
}

// SavingsLevel converts a saving rate (percent of disposable income) and
// disposable income per capita into the nominal amount saved per person.
func SavingsLevel(pairs []models.PairedPoint) []models.Observation {
	obs := make([]models.Observation, 0, len(pairs))
	for _, p := range pairs {
		obs = append(obs, models.Observation{
			Country: p.Country,
			Period:  p.Period,
			Value:   p.Value1 / 100 * p.Value2,
		})
	}
	return obs
}
