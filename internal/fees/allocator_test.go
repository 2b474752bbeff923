package fees

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestAllocateMonthlyEvenSplit(t *testing.T) {
	got := Allocations(MonthlyCoverage(1, 2024, 3, 2024), ptr(3000))
	require.Equal(t, []Allocation{
		{Period: "January 2024", Amount: 1000},
		{Period: "February 2024", Amount: 1000},
		{Period: "March 2024", Amount: 1000},
	}, got)
}

func TestAllocateCrossesYearBoundary(t *testing.T) {
	got := Allocations(MonthlyCoverage(11, 2024, 1, 2025), ptr(1500))
	require.Len(t, got, 3)
	assert.Equal(t, "November 2024", got[0].Period)
	assert.Equal(t, "December 2024", got[1].Period)
	assert.Equal(t, "January 2025", got[2].Period)
}

func TestAllocateQuarterly(t *testing.T) {
	got := Allocations(QuarterlyCoverage(3, 2023, 2, 2024), ptr(10000))
	require.Len(t, got, 4)
	labels := make([]string, 0, len(got))
	for _, a := range got {
		labels = append(labels, a.Period)
		assert.InDelta(t, 2500, a.Amount, 1e-9)
	}
	assert.Equal(t, []string{"Q3 2023", "Q4 2023", "Q1 2024", "Q2 2024"}, labels)
}

func TestAllocateSumsToFee(t *testing.T) {
	spans := []Coverage{
		MonthlyCoverage(1, 2024, 1, 2024),
		MonthlyCoverage(2, 2023, 7, 2024),
		MonthlyCoverage(12, 2020, 1, 2021),
		QuarterlyCoverage(1, 2022, 4, 2024),
		QuarterlyCoverage(4, 2024, 4, 2024),
	}
	for _, c := range spans {
		got := Allocations(c, ptr(1000))
		require.Len(t, got, c.PeriodCount())
		var sum float64
		for _, a := range got {
			sum += a.Amount
		}
		assert.InDelta(t, 1000, sum, 1e-6)
	}
}

func TestAllocateNilFeeYieldsZeroAmounts(t *testing.T) {
	got := Allocations(MonthlyCoverage(1, 2024, 2, 2024), nil)
	require.Len(t, got, 2)
	for _, a := range got {
		assert.Zero(t, a.Amount)
	}
}

func TestAllocateInvertedSpanIsEmpty(t *testing.T) {
	c := MonthlyCoverage(5, 2024, 3, 2024)
	assert.LessOrEqual(t, c.PeriodCount(), 0)
	assert.Empty(t, Allocations(c, ptr(900)))
}

func TestAllocateStopsWhenConsumerStops(t *testing.T) {
	var seen int
	for range Allocate(MonthlyCoverage(1, 2024, 12, 2024), ptr(1200)) {
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}

func TestCoverageSplitDetection(t *testing.T) {
	assert.False(t, MonthlyCoverage(3, 2024, 3, 2024).IsSplit())
	assert.True(t, MonthlyCoverage(3, 2024, 4, 2024).IsSplit())
	assert.True(t, QuarterlyCoverage(1, 2024, 1, 2025).IsSplit())
	assert.Equal(t, 1, MonthlyCoverage(3, 2024, 3, 2024).PeriodCount())
}

func TestCoverageValidate(t *testing.T) {
	require.NoError(t, MonthlyCoverage(1, 2024, 12, 2024).Validate())
	require.ErrorIs(t, MonthlyCoverage(0, 2024, 1, 2024).Validate(), ErrInvalidCoverage)
	require.ErrorIs(t, QuarterlyCoverage(1, 2024, 5, 2024).Validate(), ErrInvalidCoverage)
	require.ErrorIs(t, QuarterlyCoverage(3, 2024, 1, 2024).Validate(), ErrInvalidCoverage)
}

func TestStartQuarter(t *testing.T) {
	assert.Equal(t, 1, MonthlyCoverage(3, 2024, 3, 2024).StartQuarter())
	assert.Equal(t, 2, MonthlyCoverage(4, 2024, 4, 2024).StartQuarter())
	assert.Equal(t, 4, MonthlyCoverage(12, 2024, 12, 2024).StartQuarter())
	assert.Equal(t, 3, QuarterlyCoverage(3, 2024, 3, 2024).StartQuarter())
}

func TestAppliedPeriodsRoundTrip(t *testing.T) {
	monthly := MonthlyCoverage(11, 2024, 1, 2025)
	applied := monthly.Applied()
	assert.Nil(t, applied.StartQuarter)
	assert.Nil(t, applied.EndQuarterYear)
	got, ok := applied.Coverage()
	require.True(t, ok)
	assert.Equal(t, monthly, got)

	quarterly := QuarterlyCoverage(4, 2023, 1, 2024)
	got, ok = quarterly.Applied().Coverage()
	require.True(t, ok)
	assert.Equal(t, quarterly, got)
}

func TestAppliedPeriodsForSchedule(t *testing.T) {
	applied := MonthlyCoverage(1, 2024, 3, 2024).Applied()

	_, err := applied.ForSchedule(ScheduleQuarterly)
	require.ErrorIs(t, err, ErrInvalidCoverage)

	c, err := applied.ForSchedule(ScheduleMonthly)
	require.NoError(t, err)
	assert.Equal(t, 3, c.PeriodCount())

	bad := 13
	applied.EndMonth = &bad
	_, err = applied.ForSchedule(ScheduleMonthly)
	require.ErrorIs(t, err, ErrInvalidCoverage)

	_, ok := AppliedPeriods{}.Coverage()
	assert.False(t, ok)
}
