// Package payments records fee payments against contracts and keeps the
// client metrics and caches in step with every mutation.
package payments

import (
	"fmt"
	"time"

	"github.com/feetrack/feetrack/internal/fees"
	"github.com/feetrack/feetrack/internal/platform/httpx"
	"github.com/feetrack/feetrack/internal/shared"
)

// ErrNotFound is returned for unknown or soft deleted payments.
var ErrNotFound = fmt.Errorf("payment %w", httpx.ErrNotFound)

// Payment is a stored payment joined with its client name and contract terms.
// The contract columns are nil when the contract row is gone.
type Payment struct {
	ID           int64        `json:"payment_id"`
	ContractID   int64        `json:"contract_id"`
	ClientID     int64        `json:"client_id"`
	ReceivedDate shared.Date  `json:"received_date"`
	TotalAssets  *float64     `json:"total_assets"`
	ExpectedFee  *float64     `json:"expected_fee"`
	ActualFee    float64      `json:"actual_fee"`
	Method       *string      `json:"method"`
	Notes        *string      `json:"notes"`
	fees.AppliedPeriods

	ClientName      string         `json:"client_name"`
	ProviderName    *string        `json:"provider_name"`
	FeeType         *fees.FeeType  `json:"fee_type"`
	PercentRate     *float64       `json:"percent_rate"`
	FlatRate        *float64       `json:"flat_rate"`
	PaymentSchedule *fees.Schedule `json:"payment_schedule"`
}

// Detail is the read model of a payment: the stored row plus split
// detection, per period allocation and the variance against expected fee.
type Detail struct {
	Payment
	IsSplitPayment bool              `json:"is_split_payment"`
	Periods        []fees.Allocation `json:"periods,omitempty"`
	Variance       fees.Variance     `json:"variance"`
}

// Enrich derives the read model. Only split payments are allocated.
func Enrich(p Payment) Detail {
	d := Detail{Payment: p}
	if c, ok := p.AppliedPeriods.Coverage(); ok && c.IsSplit() {
		d.IsSplitPayment = true
		fee := p.ActualFee
		d.Periods = fees.Allocations(c, &fee)
	}

	var feeType fees.FeeType
	if p.FeeType != nil {
		feeType = *p.FeeType
	}
	actual := p.ActualFee
	expected := fees.EffectiveExpectedFee(p.ExpectedFee, p.TotalAssets, feeType, p.PercentRate)
	d.Variance = fees.ClassifyVariance(expected, &actual)
	return d
}

// Input is the create and update payload. Exactly one applied period set is
// read, chosen by the contract's payment schedule.
type Input struct {
	ContractID   int64        `json:"contract_id" validate:"required,gt=0"`
	ClientID     int64        `json:"client_id" validate:"omitempty,gt=0"`
	ReceivedDate *shared.Date `json:"received_date" validate:"required"`
	TotalAssets  *float64     `json:"total_assets" validate:"omitempty,gte=0"`
	ExpectedFee  *float64     `json:"expected_fee" validate:"omitempty,gte=0"`
	ActualFee    *float64     `json:"actual_fee" validate:"required,gte=0"`
	Method       *string      `json:"method" validate:"omitempty,max=50"`
	Notes        *string      `json:"notes" validate:"omitempty,max=2000"`
	fees.AppliedPeriods
}

// Record is the write model handed to the store.
type Record struct {
	ContractID   int64
	ClientID     int64
	ReceivedDate time.Time
	TotalAssets  *float64
	ExpectedFee  *float64
	ActualFee    float64
	Method       *string
	Notes        *string
	Coverage     fees.Coverage
}

// ListFilter narrows a client's payment history.
type ListFilter struct {
	Page shared.Page
	// Year matches the start or end year of either period framing.
	Year *int
}
