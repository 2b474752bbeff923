package contracts

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feetrack/feetrack/internal/fees"
	"github.com/feetrack/feetrack/internal/shared"
)

// Repository reads contracts from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectContract = `
	SELECT contract_id, client_id, contract_number, provider_name, contract_start_date,
	       fee_type, percent_rate, flat_rate, payment_schedule, num_people, notes
	FROM contracts`

// Get loads a live contract by id.
func (r *Repository) Get(ctx context.Context, id int64) (Contract, error) {
	return scanContract(r.pool.QueryRow(ctx, selectContract+`
	WHERE contract_id = $1 AND valid_to IS NULL`, id))
}

// GetByClient loads the live contract of a client.
func (r *Repository) GetByClient(ctx context.Context, clientID int64) (Contract, error) {
	return scanContract(r.pool.QueryRow(ctx, selectContract+`
	WHERE client_id = $1 AND valid_to IS NULL
	ORDER BY contract_id DESC
	LIMIT 1`, clientID))
}

func scanContract(row pgx.Row) (Contract, error) {
	var (
		c        Contract
		start    *time.Time
		feeType  string
		schedule *string
	)
	err := row.Scan(
		&c.ID, &c.ClientID, &c.ContractNumber, &c.ProviderName, &start,
		&feeType, &c.PercentRate, &c.FlatRate, &schedule, &c.NumPeople, &c.Notes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Contract{}, ErrNotFound
		}
		return Contract{}, err
	}
	c.ContractStartDate = shared.DatePtr(start)
	c.FeeType = fees.FeeType(feeType)
	if schedule != nil {
		c.PaymentSchedule = fees.ParseSchedule(*schedule)
	} else {
		c.PaymentSchedule = fees.ScheduleQuarterly
	}
	return c, nil
}
