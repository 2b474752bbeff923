package fees

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpectedFeeFlat(t *testing.T) {
	calc := ExpectedFee(Terms{FeeType: FeeTypeFlat, FlatRate: ptr(3750), Schedule: ScheduleQuarterly}, nil)
	require.NotNil(t, calc.ExpectedFee)
	assert.Equal(t, 3750.0, *calc.ExpectedFee)
	assert.Equal(t, FeeTypeFlat, calc.FeeType)
	assert.Equal(t, "Flat fee", calc.CalculationMethod)
}

func TestExpectedFeePercentage(t *testing.T) {
	terms := Terms{FeeType: FeeTypePercentage, PercentRate: ptr(0.000417), Schedule: ScheduleMonthly}
	calc := ExpectedFee(terms, ptr(96000))
	require.NotNil(t, calc.ExpectedFee)
	assert.InDelta(t, 40.03, *calc.ExpectedFee, 0.01)
	assert.Equal(t, FeeTypePercentage, calc.FeeType)
	assert.Contains(t, calc.CalculationMethod, "0.0417%")
	assert.Contains(t, calc.CalculationMethod, "$96,000.00")
}

func TestExpectedFeePercentageMissingData(t *testing.T) {
	terms := Terms{FeeType: FeeTypePercentage, PercentRate: ptr(0.000417)}
	for _, assets := range []*float64{nil, ptr(0)} {
		calc := ExpectedFee(terms, assets)
		assert.Nil(t, calc.ExpectedFee)
		assert.Equal(t, "Unable to calculate (missing data)", calc.CalculationMethod)
	}

	noRate := ExpectedFee(Terms{FeeType: FeeTypePercentage}, ptr(96000))
	assert.Nil(t, noRate.ExpectedFee)
	zeroRate := ExpectedFee(Terms{FeeType: FeeTypePercentage, PercentRate: ptr(0)}, ptr(96000))
	assert.Nil(t, zeroRate.ExpectedFee)
}

func TestContractNotFound(t *testing.T) {
	calc := ContractNotFound()
	assert.Nil(t, calc.ExpectedFee)
	assert.Equal(t, FeeTypeUnknown, calc.FeeType)
	assert.Equal(t, "Contract not found", calc.CalculationMethod)
}

func TestFeeReferencesFlatQuarterly(t *testing.T) {
	refs := FeeReferences(Terms{FeeType: FeeTypeFlat, FlatRate: ptr(3000), Schedule: ScheduleQuarterly})
	require.NotNil(t, refs)
	assert.Equal(t, References{Monthly: "$1,000.00", Quarterly: "$3,000.00", Annual: "$12,000.00"}, *refs)
}

func TestFeeReferencesPercentageMonthly(t *testing.T) {
	refs := FeeReferences(Terms{FeeType: FeeTypePercentage, PercentRate: ptr(0.0005), Schedule: ScheduleMonthly})
	require.NotNil(t, refs)
	assert.Equal(t, "0.0500%", refs.Monthly)
	assert.Equal(t, "0.1500%", refs.Quarterly)
	assert.Equal(t, "0.6000%", refs.Annual)
}

func TestFeeReferencesWithoutRate(t *testing.T) {
	assert.Nil(t, FeeReferences(Terms{FeeType: FeeTypeFlat}))
	assert.Nil(t, FeeReferences(Terms{FeeType: FeeTypePercentage, PercentRate: ptr(0)}))
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "$96,000.00", FormatCurrency(96000))
	assert.Equal(t, "$0.50", FormatCurrency(0.5))
	assert.Equal(t, "-$1,234.57", FormatCurrency(-1234.567))
}

func TestParseSchedule(t *testing.T) {
	assert.Equal(t, ScheduleMonthly, ParseSchedule("Monthly "))
	assert.Equal(t, ScheduleQuarterly, ParseSchedule("quarterly"))
	assert.Equal(t, ScheduleQuarterly, ParseSchedule(""))
}

func TestPeriodLabel(t *testing.T) {
	assert.Equal(t, "March 2024", PeriodLabel(ScheduleMonthly, 3, 2024))
	assert.Equal(t, "Q1 2024", PeriodLabel(ScheduleQuarterly, 1, 2024))
}
