// Package fees holds the fee engine: coverage spans, period allocation, variance
// scoring, expected fee calculation and payment compliance.
package fees

import (
	"errors"
	"fmt"
	"strings"
)

// Schedule enumerates contract billing cadences.
type Schedule string

const (
	// ScheduleMonthly bills every calendar month.
	ScheduleMonthly Schedule = "monthly"
	// ScheduleQuarterly bills every calendar quarter.
	ScheduleQuarterly Schedule = "quarterly"
)

// ParseSchedule normalises a stored schedule value. Anything that is not
// monthly is treated as quarterly.
func ParseSchedule(raw string) Schedule {
	if strings.EqualFold(strings.TrimSpace(raw), string(ScheduleMonthly)) {
		return ScheduleMonthly
	}
	return ScheduleQuarterly
}

// PeriodsPerYear returns 12 for monthly and 4 for quarterly schedules.
func (s Schedule) PeriodsPerYear() int {
	if s == ScheduleMonthly {
		return 12
	}
	return 4
}

// FeeType enumerates contract fee structures.
type FeeType string

const (
	FeeTypeFlat       FeeType = "flat"
	FeeTypePercentage FeeType = "percentage"
	// FeeTypeUnknown is reported when no contract could be resolved.
	FeeTypeUnknown FeeType = "unknown"
)

// IsPercentage reports whether the fee is asset based. Legacy rows use "percent".
func (t FeeType) IsPercentage() bool {
	return t == FeeTypePercentage || t == "percent"
}

// ErrInvalidCoverage is returned when a coverage span is malformed.
var ErrInvalidCoverage = errors.New("fees: invalid coverage")

// Coverage is the span of calendar periods a payment pays for. Schedule tags
// whether StartPeriod/EndPeriod are months (1-12) or quarters (1-4).
type Coverage struct {
	Schedule    Schedule
	StartPeriod int
	StartYear   int
	EndPeriod   int
	EndYear     int
}

// MonthlyCoverage builds a month framed span.
func MonthlyCoverage(startMonth, startYear, endMonth, endYear int) Coverage {
	return Coverage{Schedule: ScheduleMonthly, StartPeriod: startMonth, StartYear: startYear, EndPeriod: endMonth, EndYear: endYear}
}

// QuarterlyCoverage builds a quarter framed span.
func QuarterlyCoverage(startQuarter, startYear, endQuarter, endYear int) Coverage {
	return Coverage{Schedule: ScheduleQuarterly, StartPeriod: startQuarter, StartYear: startYear, EndPeriod: endQuarter, EndYear: endYear}
}

// Validate checks period bounds and ordering.
func (c Coverage) Validate() error {
	n := c.Schedule.PeriodsPerYear()
	if c.StartPeriod < 1 || c.StartPeriod > n || c.EndPeriod < 1 || c.EndPeriod > n {
		return fmt.Errorf("%w: %s periods must be between 1 and %d", ErrInvalidCoverage, c.Schedule, n)
	}
	if c.StartYear <= 0 || c.EndYear <= 0 {
		return fmt.Errorf("%w: years required", ErrInvalidCoverage)
	}
	if c.PeriodCount() <= 0 {
		return fmt.Errorf("%w: end precedes start", ErrInvalidCoverage)
	}
	return nil
}

// PeriodCount is the inclusive number of periods spanned.
func (c Coverage) PeriodCount() int {
	return (c.EndYear-c.StartYear)*c.Schedule.PeriodsPerYear() + (c.EndPeriod - c.StartPeriod) + 1
}

// IsSplit reports whether the payment covers more than one period.
func (c Coverage) IsSplit() bool {
	return c.StartPeriod != c.EndPeriod || c.StartYear != c.EndYear
}

// StartQuarter is the quarter the span starts in regardless of framing.
func (c Coverage) StartQuarter() int {
	if c.Schedule == ScheduleMonthly {
		return QuarterOfMonth(c.StartPeriod)
	}
	return c.StartPeriod
}

// QuarterOfMonth maps a month (1-12) onto its quarter (1-4).
func QuarterOfMonth(month int) int {
	return ((month - 1) / 3) + 1
}

var monthNames = [...]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// PeriodLabel renders "March 2024" or "Q1 2024".
func PeriodLabel(schedule Schedule, period, year int) string {
	if schedule == ScheduleMonthly {
		if period < 1 || period > 12 {
			return fmt.Sprintf("Month %d %d", period, year)
		}
		return fmt.Sprintf("%s %d", monthNames[period-1], year)
	}
	return fmt.Sprintf("Q%d %d", period, year)
}

// AppliedPeriods is the flat storage and wire form of a coverage: two
// nullable column sets of which exactly one is populated.
type AppliedPeriods struct {
	StartMonth       *int `json:"applied_start_month"`
	StartMonthYear   *int `json:"applied_start_month_year"`
	EndMonth         *int `json:"applied_end_month"`
	EndMonthYear     *int `json:"applied_end_month_year"`
	StartQuarter     *int `json:"applied_start_quarter"`
	StartQuarterYear *int `json:"applied_start_quarter_year"`
	EndQuarter       *int `json:"applied_end_quarter"`
	EndQuarterYear   *int `json:"applied_end_quarter_year"`
}

// Coverage reads back a stored span. The quarter set wins when its start is
// populated, otherwise the month set is used. It reports false when neither
// set is complete.
func (a AppliedPeriods) Coverage() (Coverage, bool) {
	if a.StartQuarter != nil {
		if c, err := a.ForSchedule(ScheduleQuarterly); err == nil {
			return c, true
		}
	}
	c, err := a.ForSchedule(ScheduleMonthly)
	return c, err == nil
}

// ForSchedule extracts the set matching schedule, ignoring the other one.
func (a AppliedPeriods) ForSchedule(s Schedule) (Coverage, error) {
	start, startYear, end, endYear := a.StartQuarter, a.StartQuarterYear, a.EndQuarter, a.EndQuarterYear
	if s == ScheduleMonthly {
		start, startYear, end, endYear = a.StartMonth, a.StartMonthYear, a.EndMonth, a.EndMonthYear
	}
	if start == nil || startYear == nil || end == nil || endYear == nil {
		return Coverage{}, fmt.Errorf("%w: %s periods required", ErrInvalidCoverage, s)
	}
	c := Coverage{Schedule: s, StartPeriod: *start, StartYear: *startYear, EndPeriod: *end, EndYear: *endYear}
	if s != ScheduleMonthly {
		c.Schedule = ScheduleQuarterly
	}
	return c, c.Validate()
}

// Applied flattens c into its column set, leaving the other set nil.
func (c Coverage) Applied() AppliedPeriods {
	start, startYear, end, endYear := c.StartPeriod, c.StartYear, c.EndPeriod, c.EndYear
	if c.Schedule == ScheduleMonthly {
		return AppliedPeriods{StartMonth: &start, StartMonthYear: &startYear, EndMonth: &end, EndMonthYear: &endYear}
	}
	return AppliedPeriods{StartQuarter: &start, StartQuarterYear: &startYear, EndQuarter: &end, EndQuarterYear: &endYear}
}
