package fees

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Terms are the fee-relevant parts of a contract.
type Terms struct {
	FeeType     FeeType
	FlatRate    *float64
	PercentRate *float64
	Schedule    Schedule
}

// Calculation is the outcome of an expected fee computation. A nil
// ExpectedFee means the fee could not be determined from the data at hand.
type Calculation struct {
	ExpectedFee       *float64 `json:"expected_fee"`
	FeeType           FeeType  `json:"fee_type"`
	CalculationMethod string   `json:"calculation_method"`
}

const methodUnavailable = "Unable to calculate (missing data)"

// ContractNotFound is the calculation reported for an unresolvable contract.
func ContractNotFound() Calculation {
	return Calculation{FeeType: FeeTypeUnknown, CalculationMethod: "Contract not found"}
}

// ExpectedFee computes the fee the terms predict for one billing period.
// totalAssets is only consulted for percentage contracts; nil or zero assets
// and a nil or zero rate make the fee unavailable.
func ExpectedFee(t Terms, totalAssets *float64) Calculation {
	switch {
	case t.FeeType == FeeTypeFlat:
		return Calculation{ExpectedFee: t.FlatRate, FeeType: FeeTypeFlat, CalculationMethod: "Flat fee"}
	case t.FeeType.IsPercentage():
		if totalAssets == nil || *totalAssets == 0 || t.PercentRate == nil || *t.PercentRate == 0 {
			return Calculation{FeeType: t.FeeType, CalculationMethod: methodUnavailable}
		}
		fee := *totalAssets * *t.PercentRate
		return Calculation{
			ExpectedFee:       &fee,
			FeeType:           FeeTypePercentage,
			CalculationMethod: fmt.Sprintf("%s of %s", FormatPercent(*t.PercentRate), FormatCurrency(*totalAssets)),
		}
	default:
		return Calculation{FeeType: t.FeeType, CalculationMethod: methodUnavailable}
	}
}

// References are the monthly, quarterly and annual equivalents of a
// contract's rate, pre-formatted for display.
type References struct {
	Monthly   string `json:"monthly"`
	Quarterly string `json:"quarterly"`
	Annual    string `json:"annual"`
}

// FeeReferences scales the contract rate to each cadence. It returns nil when
// the contract carries no usable rate.
func FeeReferences(t Terms) *References {
	var rate float64
	format := FormatCurrency
	switch {
	case t.FeeType == FeeTypeFlat && t.FlatRate != nil:
		rate = *t.FlatRate
	case t.FeeType != FeeTypeFlat && t.PercentRate != nil && *t.PercentRate != 0:
		rate = *t.PercentRate
		format = FormatPercent
	default:
		return nil
	}
	var monthly, quarterly, annual float64
	if t.Schedule == ScheduleMonthly {
		monthly, quarterly, annual = rate, rate*3, rate*12
	} else {
		monthly, quarterly, annual = rate/3, rate, rate*4
	}
	return &References{Monthly: format(monthly), Quarterly: format(quarterly), Annual: format(annual)}
}

var enUS = message.NewPrinter(language.AmericanEnglish)

// FormatCurrency renders v as US dollars with thousands separators, e.g. "$96,000.00".
func FormatCurrency(v float64) string {
	if v < 0 {
		return "-$" + enUS.Sprintf("%.2f", -v)
	}
	return "$" + enUS.Sprintf("%.2f", v)
}

// FormatPercent renders a fractional rate as a percentage with four decimals,
// e.g. 0.000417 -> "0.0417%".
func FormatPercent(rate float64) string {
	return fmt.Sprintf("%.4f%%", rate*100)
}
