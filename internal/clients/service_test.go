package clients

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feetrack/feetrack/internal/contracts"
	"github.com/feetrack/feetrack/internal/fees"
	"github.com/feetrack/feetrack/internal/metrics"
	"github.com/feetrack/feetrack/internal/platform/cache"
	"github.com/feetrack/feetrack/internal/platform/httpx"
)

type fakeStore struct {
	listings  map[int64]Listing
	getCalls  int
	quarterly []QuarterlySummary
	yearly    []YearlySummary
}

func (f *fakeStore) List(_ context.Context, provider string) ([]Listing, error) {
	var out []Listing
	for _, id := range []int64{1, 2, 3} {
		l, ok := f.listings[id]
		if !ok {
			continue
		}
		if provider != "" && (l.ProviderName == nil || *l.ProviderName != provider) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeStore) Get(_ context.Context, id int64) (Listing, error) {
	f.getCalls++
	l, ok := f.listings[id]
	if !ok {
		return Listing{}, ErrNotFound
	}
	return l, nil
}

func (f *fakeStore) QuarterlySummaries(_ context.Context, _ int64, limit int) ([]QuarterlySummary, error) {
	if len(f.quarterly) > limit {
		return f.quarterly[:limit], nil
	}
	return f.quarterly, nil
}

func (f *fakeStore) YearlySummaries(_ context.Context, _ int64, limit int) ([]YearlySummary, error) {
	if len(f.yearly) > limit {
		return f.yearly[:limit], nil
	}
	return f.yearly, nil
}

type fakeMetrics map[int64]metrics.ClientMetrics

func (f fakeMetrics) Get(_ context.Context, id int64) (metrics.ClientMetrics, error) {
	m, ok := f[id]
	if !ok {
		return metrics.ClientMetrics{}, metrics.ErrNotFound
	}
	return m, nil
}

type fakeContracts map[int64]contracts.Contract

func (f fakeContracts) GetForClient(_ context.Context, id int64) (contracts.Contract, error) {
	c, ok := f[id]
	if !ok {
		return contracts.Contract{}, contracts.ErrNotFound
	}
	return c, nil
}

var testNow = time.Date(2024, time.June, 30, 12, 0, 0, 0, time.UTC)

func strptr(s string) *string { return &s }

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func fixtureStore() *fakeStore {
	amount := 1250.0
	return &fakeStore{
		listings: map[int64]Listing{
			1: {Client: Client{ID: 1, DisplayName: "Acme", FullName: "Acme Holdings LLC"}, ProviderName: strptr("John Hancock"), PaymentSchedule: fees.ScheduleMonthly, LastPaymentDate: day(2024, time.May, 31), LastPaymentAmount: &amount},
			2: {Client: Client{ID: 2, DisplayName: "Bolt", FullName: "Bolt Industries"}, ProviderName: strptr("Empower"), PaymentSchedule: fees.ScheduleQuarterly, LastPaymentDate: day(2023, time.November, 1)},
			3: {Client: Client{ID: 3, DisplayName: "Crest", FullName: "Crest Partners"}},
		},
		quarterly: make([]QuarterlySummary, 10),
		yearly:    make([]YearlySummary, 6),
	}
}

func newTestService(t *testing.T, store Store) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := NewService(store, fakeMetrics{1: {ClientID: 1}}, fakeContracts{1: {ID: 11, ClientID: 1}}, cache.NewVersioned(client, "clients", time.Minute), nil)
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestListDerivesCompliance(t *testing.T) {
	svc := newTestService(t, fixtureStore())
	records, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, fees.ComplianceCurrent, records[0].ComplianceStatus)
	assert.Equal(t, "2024-05-31", records[0].LastPaymentDate.String())
	assert.Equal(t, fees.ComplianceOverdue, records[1].ComplianceStatus)
	assert.Equal(t, "Payment overdue", records[1].ComplianceReason)
	assert.Equal(t, "No payment records found", records[2].ComplianceReason)
	assert.Nil(t, records[0].NextPaymentDate)
}

func TestListFiltersByProvider(t *testing.T) {
	svc := newTestService(t, fixtureStore())
	records, err := svc.List(context.Background(), "Empower")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(2), records[0].ID)
}

func TestGetAddsNextPaymentDate(t *testing.T) {
	svc := newTestService(t, fixtureStore())
	rec, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, rec.NextPaymentDate)
	assert.Equal(t, "2024-06-30", rec.NextPaymentDate.String())

	rec, err = svc.Get(context.Background(), 3)
	require.NoError(t, err)
	assert.Nil(t, rec.NextPaymentDate)
}

func TestGetMissingClient(t *testing.T) {
	svc := newTestService(t, fixtureStore())
	_, err := svc.Get(context.Background(), 42)
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestSummaryIsCachedUntilInvalidated(t *testing.T) {
	store := fixtureStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	first, err := svc.Summary(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Acme", first.Client.DisplayName)
	require.NotNil(t, first.Metrics)
	require.NotNil(t, first.Contract)
	assert.Equal(t, int64(11), first.Contract.ID)
	assert.Len(t, first.QuarterlySummaries, 8)
	assert.Len(t, first.YearlySummaries, 5)

	_, err = svc.Summary(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, store.getCalls)

	require.NoError(t, svc.InvalidateSummary(ctx, 1))
	_, err = svc.Summary(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, store.getCalls)
}

func TestSummaryWithoutMetricsOrContract(t *testing.T) {
	svc := newTestService(t, fixtureStore())
	summary, err := svc.Summary(context.Background(), 2)
	require.NoError(t, err)
	assert.Nil(t, summary.Metrics)
	assert.Nil(t, summary.Contract)
}

func TestSummaryMissingClient(t *testing.T) {
	svc := newTestService(t, fixtureStore())
	_, err := svc.Summary(context.Background(), 99)
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestSummaryWithoutCache(t *testing.T) {
	store := fixtureStore()
	svc := NewService(store, fakeMetrics{}, fakeContracts{}, nil, nil)
	_, err := svc.Summary(context.Background(), 1)
	require.NoError(t, err)
	_, err = svc.Summary(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, store.getCalls)
	require.NoError(t, svc.InvalidateSummary(context.Background(), 1))
}
