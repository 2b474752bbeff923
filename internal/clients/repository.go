package clients

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feetrack/feetrack/internal/fees"
	"github.com/feetrack/feetrack/internal/shared"
)

// Repository reads clients and their summaries from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectListing = `
	SELECT c.client_id, c.display_name, c.full_name, c.ima_signed_date, c.onedrive_folder_path,
	       co.provider_name, co.payment_schedule, cm.last_payment_date, cm.last_payment_amount
	FROM clients c
	LEFT JOIN LATERAL (
		SELECT provider_name, payment_schedule
		FROM contracts
		WHERE client_id = c.client_id AND valid_to IS NULL
		ORDER BY contract_id DESC
		LIMIT 1
	) co ON TRUE
	LEFT JOIN client_metrics cm ON cm.client_id = c.client_id
	WHERE c.valid_to IS NULL`

// List returns live clients ordered by display name, optionally restricted
// to one provider.
func (r *Repository) List(ctx context.Context, provider string) ([]Listing, error) {
	query := selectListing
	args := []any{}
	if provider != "" {
		query += ` AND co.provider_name = $1`
		args = append(args, provider)
	}
	query += ` ORDER BY c.display_name, c.client_id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Get returns one live client.
func (r *Repository) Get(ctx context.Context, id int64) (Listing, error) {
	l, err := scanListing(r.pool.QueryRow(ctx, selectListing+` AND c.client_id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Listing{}, ErrNotFound
	}
	return l, err
}

func scanListing(row pgx.Row) (Listing, error) {
	var (
		l        Listing
		signed   *time.Time
		schedule *string
	)
	err := row.Scan(
		&l.ID, &l.DisplayName, &l.FullName, &signed, &l.FolderPath,
		&l.ProviderName, &schedule, &l.LastPaymentDate, &l.LastPaymentAmount,
	)
	if err != nil {
		return Listing{}, err
	}
	l.IMASignedDate = shared.DatePtr(signed)
	if schedule != nil {
		l.PaymentSchedule = fees.ParseSchedule(*schedule)
	}
	return l, nil
}

// QuarterlySummaries returns the newest quarterly rows for a client.
func (r *Repository) QuarterlySummaries(ctx context.Context, clientID int64, limit int) ([]QuarterlySummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT year, quarter, total_payments, total_assets, COALESCE(payment_count, 0), avg_payment, expected_total
		FROM quarterly_summaries
		WHERE client_id = $1
		ORDER BY year DESC, quarter DESC
		LIMIT $2`, clientID, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (QuarterlySummary, error) {
		var q QuarterlySummary
		err := row.Scan(&q.Year, &q.Quarter, &q.TotalPayments, &q.TotalAssets, &q.PaymentCount, &q.AvgPayment, &q.ExpectedTotal)
		return q, err
	})
}

// YearlySummaries returns the newest yearly rows for a client.
func (r *Repository) YearlySummaries(ctx context.Context, clientID int64, limit int) ([]YearlySummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT year, total_payments, total_assets, COALESCE(payment_count, 0), avg_payment, yoy_growth
		FROM yearly_summaries
		WHERE client_id = $1
		ORDER BY year DESC
		LIMIT $2`, clientID, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (YearlySummary, error) {
		var y YearlySummary
		err := row.Scan(&y.Year, &y.TotalPayments, &y.TotalAssets, &y.PaymentCount, &y.AvgPayment, &y.YoYGrowth)
		return y, err
	})
}
