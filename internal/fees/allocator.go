package fees

import (
	"iter"
	"slices"
)

// Allocation is one period's share of a payment.
type Allocation struct {
	Period string  `json:"period"`
	Amount float64 `json:"amount"`
}

// Allocate yields the fee evenly divided across every period of the span, in
// calendar order. A nil fee is distributed as zero. Spans with a non-positive
// period count yield nothing.
func Allocate(c Coverage, fee *float64) iter.Seq[Allocation] {
	return func(yield func(Allocation) bool) {
		count := c.PeriodCount()
		if count <= 0 {
			return
		}
		var total float64
		if fee != nil {
			total = *fee
		}
		per := total / float64(count)
		n := c.Schedule.PeriodsPerYear()
		for i := 0; i < count; i++ {
			offset := c.StartPeriod + i - 1
			period := offset%n + 1
			year := c.StartYear + offset/n
			if !yield(Allocation{Period: PeriodLabel(c.Schedule, period, year), Amount: per}) {
				return
			}
		}
	}
}

// Allocations collects Allocate into a slice.
func Allocations(c Coverage, fee *float64) []Allocation {
	return slices.Collect(Allocate(c, fee))
}
