package payments

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feetrack/feetrack/internal/fees"
	"github.com/feetrack/feetrack/internal/platform/db"
	"github.com/feetrack/feetrack/internal/shared"
)

// Repository is the PostgreSQL backed Store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ Store = (*Repository)(nil)

const selectPayment = `
	SELECT p.payment_id, p.contract_id, p.client_id, p.received_date,
	       p.total_assets, p.expected_fee, p.actual_fee, p.method, p.notes,
	       p.applied_start_month, p.applied_start_month_year, p.applied_end_month, p.applied_end_month_year,
	       p.applied_start_quarter, p.applied_start_quarter_year, p.applied_end_quarter, p.applied_end_quarter_year,
	       c.display_name, co.provider_name, co.fee_type, co.percent_rate, co.flat_rate, co.payment_schedule
	FROM payments p
	JOIN clients c ON c.client_id = p.client_id
	LEFT JOIN contracts co ON co.contract_id = p.contract_id`

// Get implements Store.
func (r *Repository) Get(ctx context.Context, id int64) (Payment, error) {
	p, err := scanPayment(r.pool.QueryRow(ctx, selectPayment+`
	WHERE p.payment_id = $1 AND p.valid_to IS NULL`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Payment{}, ErrNotFound
	}
	return p, err
}

// ListForClient implements Store.
func (r *Repository) ListForClient(ctx context.Context, clientID int64, filter ListFilter) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, selectPayment+`
	WHERE p.client_id = $1 AND p.valid_to IS NULL
	  AND ($2::int IS NULL OR $2 IN (
	      p.applied_start_month_year, p.applied_end_month_year,
	      p.applied_start_quarter_year, p.applied_end_quarter_year))
	ORDER BY p.received_date DESC, p.payment_id DESC
	LIMIT $3 OFFSET $4`,
		clientID, filter.Year, filter.Page.Limit, filter.Page.Offset())
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Payment, error) {
		return scanPayment(row)
	})
}

// Insert implements Store.
func (r *Repository) Insert(ctx context.Context, rec Record) (int64, error) {
	a := rec.Coverage.Applied()
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO payments (
			contract_id, client_id, received_date, total_assets, expected_fee, actual_fee, method, notes,
			applied_start_month, applied_start_month_year, applied_end_month, applied_end_month_year,
			applied_start_quarter, applied_start_quarter_year, applied_end_quarter, applied_end_quarter_year
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING payment_id`,
		rec.ContractID, rec.ClientID, rec.ReceivedDate, rec.TotalAssets, rec.ExpectedFee, rec.ActualFee, rec.Method, rec.Notes,
		a.StartMonth, a.StartMonthYear, a.EndMonth, a.EndMonthYear,
		a.StartQuarter, a.StartQuarterYear, a.EndQuarter, a.EndQuarterYear,
	).Scan(&id)
	return id, err
}

// Update implements Store. The live row is locked before it is rewritten and
// the framing not used by rec.Coverage is cleared.
func (r *Repository) Update(ctx context.Context, id int64, rec Record) error {
	a := rec.Coverage.Applied()
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var locked int64
		err := tx.QueryRow(ctx, `
			SELECT payment_id FROM payments
			WHERE payment_id = $1 AND valid_to IS NULL
			FOR UPDATE`, id).Scan(&locked)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE payments SET
				contract_id = $2, client_id = $3, received_date = $4, total_assets = $5,
				expected_fee = $6, actual_fee = $7, method = $8, notes = $9,
				applied_start_month = $10, applied_start_month_year = $11,
				applied_end_month = $12, applied_end_month_year = $13,
				applied_start_quarter = $14, applied_start_quarter_year = $15,
				applied_end_quarter = $16, applied_end_quarter_year = $17
			WHERE payment_id = $1`,
			id, rec.ContractID, rec.ClientID, rec.ReceivedDate, rec.TotalAssets,
			rec.ExpectedFee, rec.ActualFee, rec.Method, rec.Notes,
			a.StartMonth, a.StartMonthYear, a.EndMonth, a.EndMonthYear,
			a.StartQuarter, a.StartQuarterYear, a.EndQuarter, a.EndQuarterYear,
		)
		return err
	})
}

// SoftDelete implements Store.
func (r *Repository) SoftDelete(ctx context.Context, id int64) (int64, error) {
	var clientID int64
	err := r.pool.QueryRow(ctx, `
		UPDATE payments SET valid_to = NOW()
		WHERE payment_id = $1 AND valid_to IS NULL
		RETURNING client_id`, id).Scan(&clientID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return clientID, err
}

func scanPayment(row pgx.Row) (Payment, error) {
	var (
		p        Payment
		received time.Time
		feeType  *string
		schedule *string
	)
	err := row.Scan(
		&p.ID, &p.ContractID, &p.ClientID, &received,
		&p.TotalAssets, &p.ExpectedFee, &p.ActualFee, &p.Method, &p.Notes,
		&p.StartMonth, &p.StartMonthYear, &p.EndMonth, &p.EndMonthYear,
		&p.StartQuarter, &p.StartQuarterYear, &p.EndQuarter, &p.EndQuarterYear,
		&p.ClientName, &p.ProviderName, &feeType, &p.PercentRate, &p.FlatRate, &schedule,
	)
	if err != nil {
		return Payment{}, err
	}
	p.ReceivedDate = shared.NewDate(received)
	if feeType != nil {
		t := fees.FeeType(*feeType)
		p.FeeType = &t
	}
	if schedule != nil {
		s := fees.ParseSchedule(*schedule)
		p.PaymentSchedule = &s
	}
	return p, nil
}
