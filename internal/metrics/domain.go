// Package metrics maintains the per-client payment snapshot used for
// compliance colouring and percentage fee fallbacks.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/feetrack/feetrack/internal/fees"
	"github.com/feetrack/feetrack/internal/shared"
)

// ErrNotFound is returned when a client has no metrics row yet.
var ErrNotFound = errors.New("metrics: not found")

// TrailingQuarters bounds the quarterly summaries averaged into AvgQuarterlyPayment.
const TrailingQuarters = 8

// ClientMetrics is the denormalised snapshot for one client.
type ClientMetrics struct {
	ClientID            int64        `json:"client_id"`
	LastPaymentDate     *shared.Date `json:"last_payment_date"`
	LastPaymentAmount   *float64     `json:"last_payment_amount"`
	LastPaymentQuarter  *int         `json:"last_payment_quarter"`
	LastPaymentYear     *int         `json:"last_payment_year"`
	TotalYTDPayments    *float64     `json:"total_ytd_payments"`
	AvgQuarterlyPayment *float64     `json:"avg_quarterly_payment"`
	LastRecordedAssets  *float64     `json:"last_recorded_assets"`
	LastUpdated         time.Time    `json:"last_updated"`
}

// PaymentFact is the slice of a live payment the aggregator needs.
type PaymentFact struct {
	ID           int64
	ReceivedDate time.Time
	ActualFee    float64
	TotalAssets  *float64
	Coverage     fees.Coverage
}

// Store is the persistence contract of the aggregator.
type Store interface {
	// LivePayments returns the client's live payments, newest first.
	LivePayments(ctx context.Context, clientID int64) ([]PaymentFact, error)
	// RecentQuarterTotals returns total_payments of the newest quarterly summaries.
	RecentQuarterTotals(ctx context.Context, clientID int64, limit int) ([]float64, error)
	Upsert(ctx context.Context, m ClientMetrics) error
	Get(ctx context.Context, clientID int64) (ClientMetrics, error)
	// LiveClientIDs lists every client that is not soft deleted.
	LiveClientIDs(ctx context.Context) ([]int64, error)
}
