package clients

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/feetrack/feetrack/internal/contracts"
	"github.com/feetrack/feetrack/internal/fees"
	"github.com/feetrack/feetrack/internal/metrics"
	"github.com/feetrack/feetrack/internal/platform/cache"
	"github.com/feetrack/feetrack/internal/platform/httpx"
	"github.com/feetrack/feetrack/internal/shared"
)

// Store reads clients.
type Store interface {
	List(ctx context.Context, provider string) ([]Listing, error)
	Get(ctx context.Context, id int64) (Listing, error)
	QuarterlySummaries(ctx context.Context, clientID int64, limit int) ([]QuarterlySummary, error)
	YearlySummaries(ctx context.Context, clientID int64, limit int) ([]YearlySummary, error)
}

// MetricsReader exposes the stored client snapshot.
type MetricsReader interface {
	Get(ctx context.Context, clientID int64) (metrics.ClientMetrics, error)
}

// ContractReader resolves a client's live contract.
type ContractReader interface {
	GetForClient(ctx context.Context, clientID int64) (contracts.Contract, error)
}

// Service answers client queries.
type Service struct {
	store     Store
	metrics   MetricsReader
	contracts ContractReader
	cache     *cache.Versioned
	logger    *slog.Logger
	now       func() time.Time
}

// NewService builds the service. A nil cache serves summaries uncached.
func NewService(store Store, metricsReader MetricsReader, contractReader ContractReader, summaryCache *cache.Versioned, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		metrics:   metricsReader,
		contracts: contractReader,
		cache:     summaryCache,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns live clients with their compliance status.
func (s *Service) List(ctx context.Context, provider string) ([]Record, error) {
	listings, err := s.store.List(ctx, provider)
	if err != nil {
		return nil, fmt.Errorf("clients: list: %w", err)
	}
	now := s.now()
	out := make([]Record, 0, len(listings))
	for _, l := range listings {
		out = append(out, toRecord(l, now))
	}
	return out, nil
}

// Get returns a client with compliance status and next expected payment date.
func (s *Service) Get(ctx context.Context, id int64) (Record, error) {
	l, err := s.store.Get(ctx, id)
	if err != nil {
		return Record{}, wrap("get", err)
	}
	rec := toRecord(l, s.now())
	if l.LastPaymentDate != nil {
		next := shared.NewDate(fees.NextPaymentDate(*l.LastPaymentDate, l.PaymentSchedule))
		rec.NextPaymentDate = &next
	}
	return rec, nil
}

// Summary returns the client dashboard bundle, served from cache when warm.
func (s *Service) Summary(ctx context.Context, id int64) (Summary, error) {
	key, err := s.cache.BuildKey(ctx, scope(id), "summary")
	if err != nil {
		s.logger.Warn("client summary cache key", slog.Int64("client_id", id), slog.Any("error", err))
		return s.buildSummary(ctx, id)
	}
	var out Summary
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		return s.buildSummary(ctx, id)
	})
	if err == nil {
		return out, nil
	}
	if httpx.IsClientError(err) || errors.Is(err, context.Canceled) {
		return Summary{}, err
	}
	s.logger.Warn("client summary cache", slog.Int64("client_id", id), slog.Any("error", err))
	return s.buildSummary(ctx, id)
}

// InvalidateSummary drops any cached summary of the client.
func (s *Service) InvalidateSummary(ctx context.Context, clientID int64) error {
	return s.cache.Bump(ctx, scope(clientID))
}

func (s *Service) buildSummary(ctx context.Context, id int64) (Summary, error) {
	l, err := s.store.Get(ctx, id)
	if err != nil {
		return Summary{}, wrap("summary", err)
	}
	out := Summary{Client: l.Client}

	m, err := s.metrics.Get(ctx, id)
	switch {
	case err == nil:
		out.Metrics = &m
	case !errors.Is(err, metrics.ErrNotFound):
		return Summary{}, fmt.Errorf("clients: summary metrics: %w", err)
	}

	c, err := s.contracts.GetForClient(ctx, id)
	switch {
	case err == nil:
		out.Contract = &c
	case !errors.Is(err, contracts.ErrNotFound):
		return Summary{}, fmt.Errorf("clients: summary contract: %w", err)
	}

	if out.QuarterlySummaries, err = s.store.QuarterlySummaries(ctx, id, summaryQuarters); err != nil {
		return Summary{}, fmt.Errorf("clients: quarterly summaries: %w", err)
	}
	if out.YearlySummaries, err = s.store.YearlySummaries(ctx, id, summaryYears); err != nil {
		return Summary{}, fmt.Errorf("clients: yearly summaries: %w", err)
	}
	return out, nil
}

func toRecord(l Listing, now time.Time) Record {
	compliance := fees.EvaluateCompliance(l.LastPaymentDate, l.PaymentSchedule, now)
	return Record{
		Client:            l.Client,
		ProviderName:      l.ProviderName,
		PaymentSchedule:   l.PaymentSchedule,
		LastPaymentDate:   shared.DatePtr(l.LastPaymentDate),
		LastPaymentAmount: l.LastPaymentAmount,
		ComplianceStatus:  compliance.Status,
		ComplianceReason:  compliance.Reason,
	}
}

func scope(clientID int64) string {
	return strconv.FormatInt(clientID, 10)
}

func wrap(op string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("clients: %s: %w", op, err)
}
