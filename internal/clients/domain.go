// Package clients serves plan sponsor records with their derived compliance
// status and the cached per-client summary.
package clients

import (
	"fmt"
	"time"

	"github.com/feetrack/feetrack/internal/contracts"
	"github.com/feetrack/feetrack/internal/fees"
	"github.com/feetrack/feetrack/internal/metrics"
	"github.com/feetrack/feetrack/internal/platform/httpx"
	"github.com/feetrack/feetrack/internal/shared"
)

// ErrNotFound is returned for unknown or soft deleted clients.
var ErrNotFound = fmt.Errorf("client %w", httpx.ErrNotFound)

const (
	summaryQuarters = 8
	summaryYears    = 5
)

// Client holds the stored client attributes.
type Client struct {
	ID            int64        `json:"client_id"`
	DisplayName   string       `json:"display_name"`
	FullName      string       `json:"full_name"`
	IMASignedDate *shared.Date `json:"ima_signed_date"`
	FolderPath    *string      `json:"onedrive_folder_path"`
}

// Listing is a client joined with its live contract and metrics snapshot.
type Listing struct {
	Client
	ProviderName      *string
	PaymentSchedule   fees.Schedule
	LastPaymentDate   *time.Time
	LastPaymentAmount *float64
}

// Record is the API view of a client with derived compliance.
type Record struct {
	Client
	ProviderName      *string               `json:"provider_name"`
	PaymentSchedule   fees.Schedule         `json:"payment_schedule,omitempty"`
	LastPaymentDate   *shared.Date          `json:"last_payment_date"`
	LastPaymentAmount *float64              `json:"last_payment_amount"`
	ComplianceStatus  fees.ComplianceStatus `json:"compliance_status"`
	ComplianceReason  string                `json:"compliance_reason"`
	NextPaymentDate   *shared.Date          `json:"next_payment_date,omitempty"`
}

// QuarterlySummary is a pre-aggregated quarter of payments.
type QuarterlySummary struct {
	Year          int      `json:"year"`
	Quarter       int      `json:"quarter"`
	TotalPayments *float64 `json:"total_payments"`
	TotalAssets   *float64 `json:"total_assets"`
	PaymentCount  int      `json:"payment_count"`
	AvgPayment    *float64 `json:"avg_payment"`
	ExpectedTotal *float64 `json:"expected_total"`
}

// YearlySummary is a pre-aggregated year of payments.
type YearlySummary struct {
	Year          int      `json:"year"`
	TotalPayments *float64 `json:"total_payments"`
	TotalAssets   *float64 `json:"total_assets"`
	PaymentCount  int      `json:"payment_count"`
	AvgPayment    *float64 `json:"avg_payment"`
	YoYGrowth     *float64 `json:"yoy_growth"`
}

// Summary bundles everything the client dashboard shows.
type Summary struct {
	Client             Client                 `json:"client"`
	Metrics            *metrics.ClientMetrics `json:"metrics"`
	Contract           *contracts.Contract    `json:"contract"`
	QuarterlySummaries []QuarterlySummary     `json:"quarterly_summaries"`
	YearlySummaries    []YearlySummary        `json:"yearly_summaries"`
}
