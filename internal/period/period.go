// Package period handles the time period labels used by the observation store.
//
// Quarterly periods are formatted as "1995-Q2", annual periods as a bare year
// "1995". Annual periods are used by slow-moving metrics such as population
// and are joined to quarters by year.
package period

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	econerrors "github.com/macrostat/econdata/internal/errors"
)

// Period is a parsed time period. Quarter is 0 for annual periods.
type Period struct {
	Year    int
	Quarter int
}

// Parse parses a period string. Both "2024-Q1" and "2024" forms are accepted.
func Parse(s string) (Period, error) {
	year, quarter, found := strings.Cut(s, "-Q")
	y, err := strconv.Atoi(year)
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", econerrors.ErrInvalidPeriod, s)
	}
	if !found {
		return Period{Year: y}, nil
	}
	q, err := strconv.Atoi(quarter)
	if err != nil || q < 1 || q > 4 {
		return Period{}, fmt.Errorf("%w: bad quarter in %q", econerrors.ErrInvalidPeriod, s)
	}
	return Period{Year: y, Quarter: q}, nil
}

// String formats the period back to its label form.
func (p Period) String() string {
	if p.Quarter == 0 {
		return strconv.Itoa(p.Year)
	}
	return fmt.Sprintf("%d-Q%d", p.Year, p.Quarter)
}

// Annual reports whether the period is a bare-year label.
func (p Period) Annual() bool {
	return p.Quarter == 0
}

// Compare returns -1, 0 or 1 ordering p against other chronologically.
func (p Period) Compare(other Period) int {
	if p.Year != other.Year {
		if p.Year < other.Year {
			return -1
		}
		return 1
	}
	if p.Quarter != other.Quarter {
		if p.Quarter < other.Quarter {
			return -1
		}
		return 1
	}
	return 0
}

// Next returns the following quarter. Annual periods advance by a year.
func (p Period) Next() Period {
	if p.Quarter == 0 {
		return Period{Year: p.Year + 1}
	}
	if p.Quarter == 4 {
		return Period{Year: p.Year + 1, Quarter: 1}
	}
	return Period{Year: p.Year, Quarter: p.Quarter + 1}
}

// SortKey returns a key suitable for ordering period labels chronologically.
// Unparsable labels sort first, matching how the cleaning scans treat them.
func SortKey(s string) (int, int) {
	p, err := Parse(s)
	if err != nil {
		return 0, 0
	}
	return p.Year, p.Quarter
}

// Less orders two period labels chronologically.
func Less(a, b string) bool {
	ay, aq := SortKey(a)
	by, bq := SortKey(b)
	if ay != by {
		return ay < by
	}
	return aq < bq
}

// SortLabels sorts period labels chronologically in place.
func SortLabels(labels []string) {
	sort.Slice(labels, func(i, j int) bool {
		return Less(labels[i], labels[j])
	})
}

// QuarterOf returns the quarter containing t.
func QuarterOf(t time.Time) Period {
	return Period{
		Year:    t.Year(),
		Quarter: (int(t.Month())-1)/3 + 1,
	}
}

// LatestWindow returns the start and end periods covering the latest n
// quarters ending at the quarter containing now.
func LatestWindow(now time.Time, n int) (Period, Period) {
	end := QuarterOf(now)
	start := end
	for i := 1; i < n; i++ {
		start = start.previousQuarter()
	}
	return start, end
}

func (p Period) previousQuarter() Period {
	if p.Quarter <= 1 {
		return Period{Year: p.Year - 1, Quarter: 4}
	}
	return Period{Year: p.Year, Quarter: p.Quarter - 1}
}

// Range enumerates all quarters from start to end inclusive.
func Range(start, end Period) []Period {
	var periods []Period
	for p := start; p.Compare(end) <= 0; p = p.Next() {
		periods = append(periods, p)
	}
	return periods
}

// SplitYears splits a quarter range into chunks of at most years length,
// used to keep backfill requests to the statistics API small.
func SplitYears(start, end Period, years int) [][2]Period {
	var batches [][2]Period
	cur := start
	for cur.Compare(end) <= 0 {
		batchEnd := Period{Year: cur.Year + years, Quarter: cur.Quarter}
		if batchEnd.Compare(end) > 0 {
			batchEnd = end
		}
		batches = append(batches, [2]Period{cur, batchEnd})
		cur = batchEnd.Next()
	}
	return batches
}
