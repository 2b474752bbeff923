package fees

import (
	"fmt"
	"math"
)

// VarianceStatus classifies actual against expected fee.
type VarianceStatus string

const (
	VarianceUnknown    VarianceStatus = "unknown"
	VarianceExact      VarianceStatus = "exact"
	VarianceAcceptable VarianceStatus = "acceptable"
	VarianceWarning    VarianceStatus = "warning"
	VarianceAlert      VarianceStatus = "alert"
)

const (
	acceptablePct = 5.0
	warningPct    = 15.0
)

// Variance is the scored difference between actual and expected fee.
type Variance struct {
	Difference        *float64       `json:"difference"`
	PercentDifference *float64       `json:"percent_difference"`
	Status            VarianceStatus `json:"status"`
	Message           string         `json:"message"`
}

// EffectiveExpectedFee returns the stored expected fee, or derives it from
// assets × rate for percentage contracts when none was stored.
func EffectiveExpectedFee(expected, totalAssets *float64, feeType FeeType, percentRate *float64) *float64 {
	if expected != nil {
		return expected
	}
	if totalAssets == nil || percentRate == nil || !feeType.IsPercentage() {
		return nil
	}
	v := *totalAssets * *percentRate
	return &v
}

// ClassifyVariance scores actual against expected.
func ClassifyVariance(expected, actual *float64) Variance {
	if expected == nil || actual == nil {
		return Variance{Status: VarianceUnknown, Message: "Cannot calculate"}
	}
	diff := *actual - *expected
	var pct float64
	if *expected != 0 {
		pct = diff / *expected * 100
	}
	out := Variance{Difference: &diff, PercentDifference: &pct}
	abs := math.Abs(pct)
	switch {
	case diff == 0:
		out.Status = VarianceExact
		out.Message = "Exact Match"
	case abs <= acceptablePct:
		out.Status = VarianceAcceptable
		out.Message = fmt.Sprintf("$%.2f (%.2f%%) ✓", diff, pct)
	case abs <= warningPct:
		out.Status = VarianceWarning
		out.Message = fmt.Sprintf("$%.2f (%.2f%%)", diff, pct)
	default:
		out.Status = VarianceAlert
		out.Message = fmt.Sprintf("$%.2f (%.2f%%)", diff, pct)
	}
	return out
}
