package fees

import (
	"strconv"
	"time"
)

// PeriodOption is a selectable coverage period.
type PeriodOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// AvailablePeriods enumerates every month or quarter from the contract start
// through the period containing now, inclusive. A nil start means January 1
// of the current year.
func AvailablePeriods(schedule Schedule, start *time.Time, now time.Time) []PeriodOption {
	from := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	if start != nil && !start.IsZero() {
		from = *start
	}
	startPeriod, endPeriod := int(from.Month()), int(now.Month())
	if schedule != ScheduleMonthly {
		startPeriod, endPeriod = QuarterOfMonth(startPeriod), QuarterOfMonth(endPeriod)
	}
	last := schedule.PeriodsPerYear()

	var out []PeriodOption
	for year := from.Year(); year <= now.Year(); year++ {
		first, final := 1, last
		if year == from.Year() {
			first = startPeriod
		}
		if year == now.Year() {
			final = endPeriod
		}
		for p := first; p <= final; p++ {
			out = append(out, PeriodOption{
				Label: PeriodLabel(schedule, p, year),
				Value: strconv.Itoa(p) + "-" + strconv.Itoa(year),
			})
		}
	}
	return out
}
