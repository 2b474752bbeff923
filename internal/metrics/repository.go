package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feetrack/feetrack/internal/fees"
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

// LivePayments implements Store.
func (r *Repository) LivePayments(ctx context.Context, clientID int64) ([]PaymentFact, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT payment_id, received_date, actual_fee, total_assets,
		       applied_start_month, applied_start_month_year, applied_end_month, applied_end_month_year,
		       applied_start_quarter, applied_start_quarter_year, applied_end_quarter, applied_end_quarter_year
		FROM payments
		WHERE client_id = $1 AND valid_to IS NULL
		ORDER BY received_date DESC, payment_id DESC`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PaymentFact
	for rows.Next() {
		var (
			fact    PaymentFact
			applied fees.AppliedPeriods
		)
		if err := rows.Scan(
			&fact.ID, &fact.ReceivedDate, &fact.ActualFee, &fact.TotalAssets,
			&applied.StartMonth, &applied.StartMonthYear, &applied.EndMonth, &applied.EndMonthYear,
			&applied.StartQuarter, &applied.StartQuarterYear, &applied.EndQuarter, &applied.EndQuarterYear,
		); err != nil {
			return nil, err
		}
		fact.Coverage, _ = applied.Coverage()
		out = append(out, fact)
	}
	return out, rows.Err()
}

// RecentQuarterTotals implements Store.
func (r *Repository) RecentQuarterTotals(ctx context.Context, clientID int64, limit int) ([]float64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT COALESCE(total_payments, 0)
		FROM quarterly_summaries
		WHERE client_id = $1
		ORDER BY year DESC, quarter DESC
		LIMIT $2`, clientID, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[float64])
}

// Upsert implements Store.
func (r *Repository) Upsert(ctx context.Context, m ClientMetrics) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO client_metrics (
			client_id, last_payment_date, last_payment_amount, last_payment_quarter, last_payment_year,
			total_ytd_payments, avg_quarterly_payment, last_recorded_assets, last_updated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (client_id) DO UPDATE SET
			last_payment_date = EXCLUDED.last_payment_date,
			last_payment_amount = EXCLUDED.last_payment_amount,
			last_payment_quarter = EXCLUDED.last_payment_quarter,
			last_payment_year = EXCLUDED.last_payment_year,
			total_ytd_payments = EXCLUDED.total_ytd_payments,
			avg_quarterly_payment = EXCLUDED.avg_quarterly_payment,
			last_recorded_assets = EXCLUDED.last_recorded_assets,
			last_updated = EXCLUDED.last_updated`,
		m.ClientID, m.LastPaymentDate.TimePtr(), m.LastPaymentAmount, m.LastPaymentQuarter, m.LastPaymentYear,
		m.TotalYTDPayments, m.AvgQuarterlyPayment, m.LastRecordedAssets, m.LastUpdated,
	)
	return err
}

// Get implements Store.
func (r *Repository) Get(ctx context.Context, clientID int64) (ClientMetrics, error) {
	var (
		m    ClientMetrics
		last *time.Time
	)
	err := r.pool.QueryRow(ctx, `
		SELECT client_id, last_payment_date, last_payment_amount, last_payment_quarter, last_payment_year,
		       total_ytd_payments, avg_quarterly_payment, last_recorded_assets, last_updated
		FROM client_metrics
		WHERE client_id = $1`, clientID).Scan(
		&m.ClientID, &last, &m.LastPaymentAmount, &m.LastPaymentQuarter, &m.LastPaymentYear,
		&m.TotalYTDPayments, &m.AvgQuarterlyPayment, &m.LastRecordedAssets, &m.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ClientMetrics{}, ErrNotFound
		}
		return ClientMetrics{}, err
	}
	m.LastPaymentDate = shared.DatePtr(last)
	return m, nil
}

// LiveClientIDs implements Store.
func (r *Repository) LiveClientIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT client_id FROM clients WHERE valid_to IS NULL ORDER BY client_id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}
