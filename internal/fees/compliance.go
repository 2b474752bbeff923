package fees

import "time"

// ComplianceStatus is the traffic-light classification of how current a
// client's payments are.
type ComplianceStatus string

const (
	ComplianceCurrent ComplianceStatus = "green"
	ComplianceWarning ComplianceStatus = "yellow"
	ComplianceOverdue ComplianceStatus = "red"
)

// Compliance pairs a status with its reason.
type Compliance struct {
	Status ComplianceStatus `json:"status"`
	Reason string           `json:"reason"`
}

type complianceWindow struct {
	current int
	warning int
}

var (
	monthlyWindow   = complianceWindow{current: 45, warning: 75}
	quarterlyWindow = complianceWindow{current: 135, warning: 195}
)

// EvaluateCompliance scores the receipt date of the last payment against the
// schedule as of now. Only the receipt date is considered, so a backdated
// payment covering a recent period still counts from when it was received.
func EvaluateCompliance(lastPayment *time.Time, schedule Schedule, now time.Time) Compliance {
	if lastPayment == nil || lastPayment.IsZero() {
		return Compliance{Status: ComplianceOverdue, Reason: "No payment records found"}
	}
	window := quarterlyWindow
	if schedule == ScheduleMonthly {
		window = monthlyWindow
	}
	days := DaysSince(*lastPayment, now)
	switch {
	case days <= window.current:
		return Compliance{Status: ComplianceCurrent, Reason: "Recent payment within acceptable timeframe"}
	case days <= window.warning:
		return Compliance{Status: ComplianceWarning, Reason: "Payment approaching due date"}
	default:
		return Compliance{Status: ComplianceOverdue, Reason: "Payment overdue"}
	}
}

// DaysSince counts whole elapsed days from a calendar date to now.
func DaysSince(date, now time.Time) int {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, now.Location())
	return int(now.Sub(start).Hours() / 24)
}

// NextPaymentDate is the date the next payment is due after last: one month
// later for monthly schedules and three months otherwise, clamped to the end
// of the target month.
func NextPaymentDate(last time.Time, schedule Schedule) time.Time {
	months := 3
	if schedule == ScheduleMonthly {
		months = 1
	}
	firstOfTarget := time.Date(last.Year(), last.Month()+time.Month(months), 1, 0, 0, 0, 0, last.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	day := last.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, 0, 0, 0, 0, last.Location())
}
