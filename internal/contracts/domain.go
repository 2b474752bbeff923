// Package contracts serves client service contracts and the expected fee
// calculations derived from them.
package contracts

import (
	"fmt"

	"github.com/feetrack/feetrack/internal/fees"
	"github.com/feetrack/feetrack/internal/platform/httpx"
	"github.com/feetrack/feetrack/internal/shared"
)

// ErrNotFound is returned when no live contract matches.
var ErrNotFound = fmt.Errorf("contract %w", httpx.ErrNotFound)

// Contract is the live version of a client's contract.
type Contract struct {
	ID                int64         `json:"contract_id"`
	ClientID          int64         `json:"client_id"`
	ContractNumber    *string       `json:"contract_number"`
	ProviderName      *string       `json:"provider_name"`
	ContractStartDate *shared.Date  `json:"contract_start_date"`
	FeeType           fees.FeeType  `json:"fee_type"`
	PercentRate       *float64      `json:"percent_rate"`
	FlatRate          *float64      `json:"flat_rate"`
	PaymentSchedule   fees.Schedule `json:"payment_schedule"`
	NumPeople         *int          `json:"num_people"`
	Notes             *string       `json:"notes"`
}

// Terms extracts the fee relevant fields.
func (c Contract) Terms() fees.Terms {
	return fees.Terms{
		FeeType:     c.FeeType,
		FlatRate:    c.FlatRate,
		PercentRate: c.PercentRate,
		Schedule:    c.PaymentSchedule,
	}
}
