package contracts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feetrack/feetrack/internal/fees"
	"github.com/feetrack/feetrack/internal/metrics"
	"github.com/feetrack/feetrack/internal/platform/httpx"
)

type fakeStore struct {
	byID map[int64]Contract
	err  error
}

func (f *fakeStore) Get(_ context.Context, id int64) (Contract, error) {
	if f.err != nil {
		return Contract{}, f.err
	}
	c, ok := f.byID[id]
	if !ok {
		return Contract{}, ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) GetByClient(_ context.Context, clientID int64) (Contract, error) {
	for _, c := range f.byID {
		if c.ClientID == clientID {
			return c, nil
		}
	}
	return Contract{}, ErrNotFound
}

type fakeMetrics map[int64]metrics.ClientMetrics

func (f fakeMetrics) Get(_ context.Context, clientID int64) (metrics.ClientMetrics, error) {
	m, ok := f[clientID]
	if !ok {
		return metrics.ClientMetrics{}, metrics.ErrNotFound
	}
	return m, nil
}

func ptr(v float64) *float64 { return &v }

func fixture() *fakeStore {
	return &fakeStore{byID: map[int64]Contract{
		1: {ID: 1, ClientID: 10, FeeType: fees.FeeTypeFlat, FlatRate: ptr(3750), PaymentSchedule: fees.ScheduleQuarterly},
		2: {ID: 2, ClientID: 20, FeeType: fees.FeeTypePercentage, PercentRate: ptr(0.000417), PaymentSchedule: fees.ScheduleMonthly},
		3: {ID: 3, ClientID: 30, FeeType: "percent", PercentRate: ptr(0.001), PaymentSchedule: fees.ScheduleQuarterly},
		4: {ID: 4, ClientID: 40, FeeType: "hourly", PaymentSchedule: fees.ScheduleQuarterly},
	}}
}

func TestExpectedFeeFlat(t *testing.T) {
	svc := NewService(fixture(), fakeMetrics{}, nil)
	calc, err := svc.ExpectedFee(context.Background(), 1, nil)
	require.NoError(t, err)
	require.NotNil(t, calc.ExpectedFee)
	assert.Equal(t, 3750.0, *calc.ExpectedFee)
	assert.Equal(t, "Flat fee", calc.CalculationMethod)
}

func TestExpectedFeePercentageUsesSuppliedAssets(t *testing.T) {
	svc := NewService(fixture(), fakeMetrics{20: {LastRecordedAssets: ptr(1)}}, nil)
	calc, err := svc.ExpectedFee(context.Background(), 2, ptr(96000))
	require.NoError(t, err)
	require.NotNil(t, calc.ExpectedFee)
	assert.InDelta(t, 40.03, *calc.ExpectedFee, 0.01)
	assert.Equal(t, "0.0417% of $96,000.00", calc.CalculationMethod)
}

func TestExpectedFeePercentageFallsBackToMetrics(t *testing.T) {
	svc := NewService(fixture(), fakeMetrics{30: {LastRecordedAssets: ptr(500000)}}, nil)
	for _, assets := range []*float64{nil, ptr(0)} {
		calc, err := svc.ExpectedFee(context.Background(), 3, assets)
		require.NoError(t, err)
		require.NotNil(t, calc.ExpectedFee)
		assert.InDelta(t, 500, *calc.ExpectedFee, 1e-9)
		assert.Equal(t, fees.FeeTypePercentage, calc.FeeType)
	}
}

func TestExpectedFeePercentageWithoutAssets(t *testing.T) {
	svc := NewService(fixture(), fakeMetrics{}, nil)
	calc, err := svc.ExpectedFee(context.Background(), 2, nil)
	require.NoError(t, err)
	assert.Nil(t, calc.ExpectedFee)
	assert.Equal(t, "Unable to calculate (missing data)", calc.CalculationMethod)
}

func TestExpectedFeeUnknownFeeType(t *testing.T) {
	svc := NewService(fixture(), fakeMetrics{}, nil)
	calc, err := svc.ExpectedFee(context.Background(), 4, ptr(1000))
	require.NoError(t, err)
	assert.Nil(t, calc.ExpectedFee)
	assert.Equal(t, fees.FeeType("hourly"), calc.FeeType)
}

func TestExpectedFeeMissingContract(t *testing.T) {
	svc := NewService(fixture(), fakeMetrics{}, nil)
	calc, err := svc.ExpectedFee(context.Background(), 99, nil)
	require.NoError(t, err)
	assert.Equal(t, fees.ContractNotFound(), calc)
}

func TestExpectedFeeStoreFailure(t *testing.T) {
	svc := NewService(&fakeStore{err: errors.New("connection reset")}, fakeMetrics{}, nil)
	_, err := svc.ExpectedFee(context.Background(), 1, nil)
	require.Error(t, err)
	assert.False(t, httpx.IsClientError(err))
}

func TestGetMissingContractIsNotFound(t *testing.T) {
	svc := NewService(fixture(), fakeMetrics{}, nil)
	_, err := svc.Get(context.Background(), 99)
	assert.ErrorIs(t, err, httpx.ErrNotFound)
	_, err = svc.GetForClient(context.Background(), 99)
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestFeeReferences(t *testing.T) {
	svc := NewService(fixture(), fakeMetrics{}, nil)
	refs, err := svc.FeeReferences(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, refs)
	assert.Equal(t, "$1,250.00", refs.Monthly)
	assert.Equal(t, "$15,000.00", refs.Annual)

	refs, err = svc.FeeReferences(context.Background(), 4)
	require.NoError(t, err)
	assert.Nil(t, refs)
}
