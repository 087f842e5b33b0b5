package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Period
		wantErr bool
	}{
		{name: "quarterly", input: "2024-Q1", want: Period{Year: 2024, Quarter: 1}},
		{name: "fourth quarter", input: "1995-Q4", want: Period{Year: 1995, Quarter: 4}},
		{name: "annual", input: "2024", want: Period{Year: 2024}},
		{name: "quarter out of range", input: "2024-Q5", wantErr: true},
		{name: "quarter zero", input: "2024-Q0", wantErr: true},
		{name: "garbage year", input: "abcd-Q1", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestString_RoundTrip(t *testing.T) {
	for _, label := range []string{"2024-Q1", "1995-Q4", "2024"} {
		p, err := Parse(label)
		require.NoError(t, err)
		assert.Equal(t, label, p.String())
	}
}

func TestAnnual(t *testing.T) {
	assert.True(t, Period{Year: 2024}.Annual())
	assert.False(t, Period{Year: 2024, Quarter: 1}.Annual())
}

func TestNext(t *testing.T) {
	tests := []struct {
		name string
		p    Period
		want Period
	}{
		{name: "mid year", p: Period{Year: 2024, Quarter: 2}, want: Period{Year: 2024, Quarter: 3}},
		{name: "year rollover", p: Period{Year: 2024, Quarter: 4}, want: Period{Year: 2025, Quarter: 1}},
		{name: "annual", p: Period{Year: 2024}, want: Period{Year: 2025}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.Next())
		})
	}
}

func TestSortLabels_MixedAnnualAndQuarterly(t *testing.T) {
	// Lexicographic order would put the bare "2024" before "2024-Q1" only by
	// accident of the hyphen; chronological order must hold for all mixes.
	labels := []string{"2024-Q2", "2023-Q4", "2024", "2024-Q1", "2023"}
	SortLabels(labels)
	assert.Equal(t, []string{"2023", "2023-Q4", "2024", "2024-Q1", "2024-Q2"}, labels)
}

func TestLess(t *testing.T) {
	assert.True(t, Less("2023-Q4", "2024-Q1"))
	assert.True(t, Less("2024", "2024-Q1"))
	assert.False(t, Less("2024-Q1", "2024-Q1"))
	assert.False(t, Less("2024-Q2", "2024-Q1"))
}

func TestQuarterOf(t *testing.T) {
	tests := []struct {
		month time.Month
		want  int
	}{
		{time.January, 1},
		{time.March, 1},
		{time.April, 2},
		{time.September, 3},
		{time.December, 4},
	}

	for _, tt := range tests {
		got := QuarterOf(time.Date(2024, tt.month, 15, 0, 0, 0, 0, time.UTC))
		assert.Equal(t, Period{Year: 2024, Quarter: tt.want}, got)
	}
}

func TestLatestWindow(t *testing.T) {
	now := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC) // 2025-Q1

	start, end := LatestWindow(now, 2)
	assert.Equal(t, Period{Year: 2024, Quarter: 4}, start)
	assert.Equal(t, Period{Year: 2025, Quarter: 1}, end)

	// Window crossing several year boundaries
	start, _ = LatestWindow(now, 6)
	assert.Equal(t, Period{Year: 2023, Quarter: 4}, start)
}

func TestRange(t *testing.T) {
	got := Range(Period{Year: 2024, Quarter: 3}, Period{Year: 2025, Quarter: 2})
	want := []Period{
		{Year: 2024, Quarter: 3},
		{Year: 2024, Quarter: 4},
		{Year: 2025, Quarter: 1},
		{Year: 2025, Quarter: 2},
	}
	assert.Equal(t, want, got)
}

func TestSplitYears(t *testing.T) {
	start := Period{Year: 2000, Quarter: 1}
	end := Period{Year: 2010, Quarter: 4}

	batches := SplitYears(start, end, 5)
	require.NotEmpty(t, batches)

	// Chunks cover the range without gaps or overlap
	assert.Equal(t, start, batches[0][0])
	assert.Equal(t, end, batches[len(batches)-1][1])
	for i := 1; i < len(batches); i++ {
		assert.Equal(t, batches[i-1][1].Next(), batches[i][0])
	}
	for _, b := range batches {
		assert.LessOrEqual(t, b[0].Compare(b[1]), 0)
	}
}
