package fees

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyVarianceBands(t *testing.T) {
	cases := []struct {
		name    string
		actual  float64
		status  VarianceStatus
		diff    float64
		pct     float64
		message string
	}{
		{"exact", 3750, VarianceExact, 0, 0, "Exact Match"},
		{"acceptable", 3900, VarianceAcceptable, 150, 4, "$150.00 (4.00%) ✓"},
		{"warning", 4125, VarianceWarning, 375, 10, "$375.00 (10.00%)"},
		{"alert", 4500, VarianceAlert, 750, 20, "$750.00 (20.00%)"},
		{"negative warning", 3375, VarianceWarning, -375, -10, "$-375.00 (-10.00%)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := ClassifyVariance(ptr(3750), ptr(tc.actual))
			assert.Equal(t, tc.status, v.Status)
			require.NotNil(t, v.Difference)
			require.NotNil(t, v.PercentDifference)
			assert.InDelta(t, tc.diff, *v.Difference, 1e-9)
			assert.InDelta(t, tc.pct, *v.PercentDifference, 1e-9)
			assert.Equal(t, tc.message, v.Message)
		})
	}
}

func TestClassifyVarianceBoundaries(t *testing.T) {
	assert.Equal(t, VarianceAcceptable, ClassifyVariance(ptr(100), ptr(104.99)).Status)
	assert.Equal(t, VarianceWarning, ClassifyVariance(ptr(100), ptr(105.01)).Status)
	assert.Equal(t, VarianceWarning, ClassifyVariance(ptr(100), ptr(114.99)).Status)
	assert.Equal(t, VarianceAlert, ClassifyVariance(ptr(100), ptr(115.01)).Status)
	assert.Equal(t, VarianceAcceptable, ClassifyVariance(ptr(100), ptr(99.99)).Status)
}

func TestClassifyVarianceSmallAmountHighPercentage(t *testing.T) {
	v := ClassifyVariance(ptr(10), ptr(15))
	assert.Equal(t, VarianceAlert, v.Status)
	assert.InDelta(t, 50, *v.PercentDifference, 1e-9)
}

func TestClassifyVarianceMissingInputs(t *testing.T) {
	for _, v := range []Variance{
		ClassifyVariance(nil, ptr(3750)),
		ClassifyVariance(ptr(3750), nil),
	} {
		assert.Equal(t, VarianceUnknown, v.Status)
		assert.Equal(t, "Cannot calculate", v.Message)
		assert.Nil(t, v.Difference)
		assert.Nil(t, v.PercentDifference)
	}
}

func TestClassifyVarianceZeroExpected(t *testing.T) {
	v := ClassifyVariance(ptr(0), ptr(50))
	require.NotNil(t, v.PercentDifference)
	assert.Zero(t, *v.PercentDifference)
	assert.Equal(t, VarianceAcceptable, v.Status)
}

func TestEffectiveExpectedFee(t *testing.T) {
	stored := EffectiveExpectedFee(ptr(40), ptr(96000), FeeTypePercentage, ptr(0.000417))
	require.NotNil(t, stored)
	assert.Equal(t, 40.0, *stored)

	derived := EffectiveExpectedFee(nil, ptr(96000), FeeTypePercentage, ptr(0.000417))
	require.NotNil(t, derived)
	assert.InDelta(t, 40.032, *derived, 1e-9)

	assert.Nil(t, EffectiveExpectedFee(nil, ptr(96000), FeeTypeFlat, ptr(0.000417)))
	assert.Nil(t, EffectiveExpectedFee(nil, nil, FeeTypePercentage, ptr(0.000417)))
	assert.NotNil(t, EffectiveExpectedFee(nil, ptr(1000), FeeType("percent"), ptr(0.01)))
}
