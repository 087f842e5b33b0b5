package remediate

import (
	"fmt"
	"sort"

	models "github.com/macrostat/econdata/internal/model"
)

type segment struct {
	start    int // inclusive index into the series
	end      int // exclusive
	avgValue float64
}

// LevelShifts removes series segments that sit at a persistently wrong level,
// typically the result of unit mismatches between vintages.
//
// The series is split at every extreme quarter-over-quarter change. With two
// or more breaks, the longest segment defines the reference level; every
// other segment whose average value differs from it by more than LevelDiffPct
// is deleted wholesale.
func LevelShifts(s models.Series, cfg Config) []Decision {
	cfg = cfg.withDefaults()
	points := s.Points
	if len(points) < cfg.MinLevelShiftPoints {
		return nil
	}

	var breaks []int
	for i := 1; i < len(points); i++ {
		prev := points[i-1].Value
		if prev > 0 && abs(pctChange(prev, points[i].Value)) > cfg.ThresholdPct {
			breaks = append(breaks, i)
		}
	}
	if len(breaks) < 2 {
		return nil
	}

	var segments []segment
	start := 0
	for _, brk := range breaks {
		if brk > start {
			segments = append(segments, newSegment(points, start, brk))
		}
		start = brk
	}
	if start < len(points) {
		segments = append(segments, newSegment(points, start, len(points)))
	}

	if len(segments) < 2 {
		return nil
	}

	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].end-segments[i].start > segments[j].end-segments[j].start
	})

	main := segments[0]
	var decisions []Decision
	for _, seg := range segments[1:] {
		levelDiff := abs(pctChange(main.avgValue, seg.avgValue))
		if levelDiff <= cfg.LevelDiffPct {
			continue
		}
		for _, p := range points[seg.start:seg.end] {
			decisions = append(decisions, Decision{
				Country: s.Country,
				Period:  p.Period,
				Value:   p.Value,
				Action:  ActionDelete,
				Reason:  fmt.Sprintf("Wrong level: %.1f%% from main series", levelDiff),
			})
		}
	}
	return decisions
}

func newSegment(points []models.Point, start, end int) segment {
	var sum float64
	for _, p := range points[start:end] {
		sum += p.Value
	}
	return segment{
		start:    start,
		end:      end,
		avgValue: sum / float64(end-start),
	}
}
