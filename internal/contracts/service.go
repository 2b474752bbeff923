package contracts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/feetrack/feetrack/internal/fees"
	"github.com/feetrack/feetrack/internal/metrics"
)

// Store reads live contracts.
type Store interface {
	Get(ctx context.Context, id int64) (Contract, error)
	GetByClient(ctx context.Context, clientID int64) (Contract, error)
}

// MetricsReader exposes the stored client snapshot.
type MetricsReader interface {
	Get(ctx context.Context, clientID int64) (metrics.ClientMetrics, error)
}

// Service answers contract queries.
type Service struct {
	store   Store
	metrics MetricsReader
	logger  *slog.Logger
}

// NewService builds the service.
func NewService(store Store, metricsReader MetricsReader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, metrics: metricsReader, logger: logger}
}

// Get returns a live contract by id.
func (s *Service) Get(ctx context.Context, id int64) (Contract, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return Contract{}, wrap("get", err)
	}
	return c, nil
}

// GetForClient returns a client's live contract.
func (s *Service) GetForClient(ctx context.Context, clientID int64) (Contract, error) {
	c, err := s.store.GetByClient(ctx, clientID)
	if err != nil {
		return Contract{}, wrap("get for client", err)
	}
	return c, nil
}

// ExpectedFee computes the expected fee for a contract. For percentage
// contracts a nil or zero totalAssets falls back to the client's last
// recorded assets. An unknown contract yields a calculation, not an error.
func (s *Service) ExpectedFee(ctx context.Context, contractID int64, totalAssets *float64) (fees.Calculation, error) {
	c, err := s.store.Get(ctx, contractID)
	if errors.Is(err, ErrNotFound) {
		return fees.ContractNotFound(), nil
	}
	if err != nil {
		return fees.Calculation{}, wrap("expected fee", err)
	}
	if c.FeeType.IsPercentage() && (totalAssets == nil || *totalAssets == 0) {
		totalAssets = s.lastRecordedAssets(ctx, c.ClientID)
	}
	return fees.ExpectedFee(c.Terms(), totalAssets), nil
}

// FeeReferences returns the monthly, quarterly and annual rate equivalents.
// The result is nil when the contract has no usable rate.
func (s *Service) FeeReferences(ctx context.Context, contractID int64) (*fees.References, error) {
	c, err := s.store.Get(ctx, contractID)
	if err != nil {
		return nil, wrap("fee references", err)
	}
	return fees.FeeReferences(c.Terms()), nil
}

func (s *Service) lastRecordedAssets(ctx context.Context, clientID int64) *float64 {
	if s.metrics == nil {
		return nil
	}
	m, err := s.metrics.Get(ctx, clientID)
	if err != nil {
		if !errors.Is(err, metrics.ErrNotFound) {
			s.logger.Warn("load client metrics", slog.Int64("client_id", clientID), slog.Any("error", err))
		}
		return nil
	}
	return m.LastRecordedAssets
}

func wrap(op string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("contracts: %s: %w", op, err)
}
