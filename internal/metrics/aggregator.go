package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/feetrack/feetrack/internal/shared"
)

// Aggregator recomputes client metrics from live payments.
type Aggregator struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewAggregator wires an aggregator.
func NewAggregator(store Store, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{store: store, logger: logger, now: time.Now}
}

// Get returns the stored snapshot for a client.
func (a *Aggregator) Get(ctx context.Context, clientID int64) (ClientMetrics, error) {
	return a.store.Get(ctx, clientID)
}

// Recompute rebuilds and stores the snapshot for one client. The boolean is
// false when the client has no live payments, in which case nothing is written
// and any previous snapshot is left in place.
func (a *Aggregator) Recompute(ctx context.Context, clientID int64) (ClientMetrics, bool, error) {
	payments, err := a.store.LivePayments(ctx, clientID)
	if err != nil {
		return ClientMetrics{}, false, fmt.Errorf("metrics: load payments: %w", err)
	}
	if len(payments) == 0 {
		a.logger.Debug("metrics recompute skipped", slog.Int64("client_id", clientID))
		return ClientMetrics{}, false, nil
	}
	totals, err := a.store.RecentQuarterTotals(ctx, clientID, TrailingQuarters)
	if err != nil {
		return ClientMetrics{}, false, fmt.Errorf("metrics: load quarterly summaries: %w", err)
	}
	snapshot, _ := Compute(clientID, payments, totals, a.now())
	if err := a.store.Upsert(ctx, snapshot); err != nil {
		return ClientMetrics{}, false, fmt.Errorf("metrics: upsert: %w", err)
	}
	return snapshot, true, nil
}

// RecomputeAll refreshes every live client and reports how many snapshots
// were written. It stops at the first failure.
func (a *Aggregator) RecomputeAll(ctx context.Context) (int, error) {
	ids, err := a.store.LiveClientIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("metrics: list clients: %w", err)
	}
	written := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		_, ok, err := a.Recompute(ctx, id)
		if err != nil {
			return written, err
		}
		if ok {
			written++
		}
	}
	return written, nil
}

// Compute derives a snapshot from the client's live payments and recent
// quarterly totals. It reports false when payments is empty.
func Compute(clientID int64, payments []PaymentFact, quarterTotals []float64, now time.Time) (ClientMetrics, bool) {
	if len(payments) == 0 {
		return ClientMetrics{}, false
	}
	latest := slices.MaxFunc(payments, func(x, y PaymentFact) int {
		if c := x.ReceivedDate.Compare(y.ReceivedDate); c != 0 {
			return c
		}
		switch {
		case x.ID < y.ID:
			return -1
		case x.ID > y.ID:
			return 1
		}
		return 0
	})

	received := shared.NewDate(latest.ReceivedDate)
	amount := latest.ActualFee
	quarter := latest.Coverage.StartQuarter()
	year := latest.Coverage.StartYear

	out := ClientMetrics{
		ClientID:           clientID,
		LastPaymentDate:    &received,
		LastPaymentAmount:  &amount,
		LastPaymentQuarter: &quarter,
		LastPaymentYear:    &year,
		LastRecordedAssets: latest.TotalAssets,
		LastUpdated:        now,
	}

	ytd, contributing := decimal.Zero, 0
	for _, p := range payments {
		if p.Coverage.StartYear != now.Year() {
			continue
		}
		ytd = ytd.Add(decimal.NewFromFloat(p.ActualFee))
		contributing++
	}
	if contributing > 0 {
		v := ytd.InexactFloat64()
		out.TotalYTDPayments = &v
	}

	if n := min(len(quarterTotals), TrailingQuarters); n > 0 {
		sum := decimal.Zero
		for _, t := range quarterTotals[:n] {
			sum = sum.Add(decimal.NewFromFloat(t))
		}
		avg := sum.Div(decimal.NewFromInt(int64(n))).InexactFloat64()
		out.AvgQuarterlyPayment = &avg
	}
	return out, true
}
