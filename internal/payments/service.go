package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"

	"github.com/feetrack/feetrack/internal/contracts"
	"github.com/feetrack/feetrack/internal/fees"
	"github.com/feetrack/feetrack/internal/metrics"
	"github.com/feetrack/feetrack/internal/platform/httpx"
	"github.com/feetrack/feetrack/internal/shared"
)

const idempotencyModule = "payments"

// Store persists payments.
type Store interface {
	Get(ctx context.Context, id int64) (Payment, error)
	ListForClient(ctx context.Context, clientID int64, filter ListFilter) ([]Payment, error)
	Insert(ctx context.Context, rec Record) (int64, error)
	Update(ctx context.Context, id int64, rec Record) error
	// SoftDelete retires a live payment and returns its client.
	SoftDelete(ctx context.Context, id int64) (int64, error)
}

// ContractReader resolves live contracts.
type ContractReader interface {
	Get(ctx context.Context, id int64) (contracts.Contract, error)
}

// MetricsRecomputer rebuilds a client's metrics snapshot.
type MetricsRecomputer interface {
	Recompute(ctx context.Context, clientID int64) (metrics.ClientMetrics, bool, error)
}

// RefreshQueue defers a metrics rebuild to the worker.
type RefreshQueue interface {
	EnqueueMetricsRefresh(ctx context.Context, clientID int64) (*asynq.TaskInfo, error)
}

// SummaryInvalidator drops cached client summaries.
type SummaryInvalidator interface {
	InvalidateSummary(ctx context.Context, clientID int64) error
}

// AuditPort records payment mutations.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// KeyStore claims idempotency keys.
type KeyStore interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Deps groups the optional collaborators of Service.
type Deps struct {
	Queue       RefreshQueue
	Summaries   SummaryInvalidator
	Audit       AuditPort
	Idempotency KeyStore
}

// Service orchestrates the payment lifecycle.
type Service struct {
	store     Store
	contracts ContractReader
	metrics   MetricsRecomputer
	deps      Deps
	validate  *validator.Validate
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires the orchestrator.
func NewService(store Store, contractReader ContractReader, recomputer MetricsRecomputer, deps Deps, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Service{
		store:     store,
		contracts: contractReader,
		metrics:   recomputer,
		deps:      deps,
		validate:  v,
		logger:    logger,
		now:       time.Now,
	}
}

// Get returns a live payment with its derived details.
func (s *Service) Get(ctx context.Context, id int64) (Detail, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return Detail{}, wrap("get", err)
	}
	return Enrich(p), nil
}

// ListForClient returns a page of a client's live payments, newest first.
func (s *Service) ListForClient(ctx context.Context, clientID int64, filter ListFilter) ([]Detail, error) {
	list, err := s.store.ListForClient(ctx, clientID, filter)
	if err != nil {
		return nil, wrap("list", err)
	}
	out := make([]Detail, 0, len(list))
	for _, p := range list {
		out = append(out, Enrich(p))
	}
	return out, nil
}

// Create records a payment. A non-empty idempotencyKey may be claimed only
// once; replays fail with a duplicate error.
func (s *Service) Create(ctx context.Context, in Input, idempotencyKey string) (Detail, error) {
	rec, err := s.prepare(ctx, in)
	if err != nil {
		return Detail{}, err
	}

	claimed := false
	if idempotencyKey != "" && s.deps.Idempotency != nil {
		if err := s.deps.Idempotency.CheckAndInsert(ctx, idempotencyKey, idempotencyModule); err != nil {
			return Detail{}, wrap("claim idempotency key", err)
		}
		claimed = true
	}

	id, err := s.store.Insert(ctx, rec)
	if err != nil {
		if claimed {
			if delErr := s.deps.Idempotency.Delete(ctx, idempotencyKey); delErr != nil {
				s.logger.Warn("release idempotency key", slog.String("key", idempotencyKey), slog.Any("error", delErr))
			}
		}
		return Detail{}, wrap("insert", err)
	}

	s.afterMutation(ctx, rec.ClientID)
	s.audit(ctx, "payments:create", id, rec)
	return s.Get(ctx, id)
}

// Update replaces a live payment. The framing not matching the contract's
// schedule is cleared.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Detail, error) {
	before, err := s.store.Get(ctx, id)
	if err != nil {
		return Detail{}, wrap("update", err)
	}
	rec, err := s.prepare(ctx, in)
	if err != nil {
		return Detail{}, err
	}
	if err := s.store.Update(ctx, id, rec); err != nil {
		return Detail{}, wrap("update", err)
	}

	s.afterMutation(ctx, rec.ClientID)
	if before.ClientID != rec.ClientID {
		s.afterMutation(ctx, before.ClientID)
	}
	s.audit(ctx, "payments:update", id, rec)
	return s.Get(ctx, id)
}

// Delete soft deletes a live payment.
func (s *Service) Delete(ctx context.Context, id int64) error {
	clientID, err := s.store.SoftDelete(ctx, id)
	if err != nil {
		return wrap("delete", err)
	}
	s.afterMutation(ctx, clientID)
	s.audit(ctx, "payments:delete", id, Record{ClientID: clientID})
	return nil
}

// AvailablePeriods lists the coverage periods a new payment can pick for a
// contract. It is empty unless the contract is live and belongs to clientID.
func (s *Service) AvailablePeriods(ctx context.Context, contractID, clientID int64) ([]fees.PeriodOption, error) {
	c, err := s.contracts.Get(ctx, contractID)
	if errors.Is(err, contracts.ErrNotFound) {
		return []fees.PeriodOption{}, nil
	}
	if err != nil {
		return nil, wrap("available periods", err)
	}
	if c.ClientID != clientID {
		return []fees.PeriodOption{}, nil
	}
	out := fees.AvailablePeriods(c.PaymentSchedule, c.ContractStartDate.TimePtr(), s.now())
	if out == nil {
		out = []fees.PeriodOption{}
	}
	return out, nil
}

// prepare validates in against its contract and builds the write model.
func (s *Service) prepare(ctx context.Context, in Input) (Record, error) {
	if err := s.validate.Struct(in); err != nil {
		return Record{}, fieldErrors(err)
	}
	if in.ReceivedDate.IsZero() {
		return Record{}, httpx.FieldErrors{"received_date": "required"}
	}

	c, err := s.contracts.Get(ctx, in.ContractID)
	if err != nil {
		return Record{}, wrap("resolve contract", err)
	}
	clientID := in.ClientID
	if clientID == 0 {
		clientID = c.ClientID
	}
	if clientID != c.ClientID {
		return Record{}, httpx.FieldErrors{"client_id": "does not match the contract's client"}
	}

	coverage, err := in.AppliedPeriods.ForSchedule(c.PaymentSchedule)
	if err != nil {
		return Record{}, httpx.FieldErrors{"applied_periods": strings.TrimPrefix(err.Error(), fees.ErrInvalidCoverage.Error()+": ")}
	}

	return Record{
		ContractID:   c.ID,
		ClientID:     clientID,
		ReceivedDate: in.ReceivedDate.Time,
		TotalAssets:  in.TotalAssets,
		ExpectedFee:  in.ExpectedFee,
		ActualFee:    *in.ActualFee,
		Method:       in.Method,
		Notes:        in.Notes,
		Coverage:     coverage,
	}, nil
}

// afterMutation refreshes everything derived from a client's payments. A
// failed inline recompute is handed to the worker queue.
func (s *Service) afterMutation(ctx context.Context, clientID int64) {
	if s.metrics != nil {
		if _, _, err := s.metrics.Recompute(ctx, clientID); err != nil {
			s.logger.Warn("recompute client metrics", slog.Int64("client_id", clientID), slog.Any("error", err))
			s.enqueueRefresh(ctx, clientID)
		}
	}
	if s.deps.Summaries != nil {
		if err := s.deps.Summaries.InvalidateSummary(ctx, clientID); err != nil {
			s.logger.Warn("invalidate client summary", slog.Int64("client_id", clientID), slog.Any("error", err))
		}
	}
}

func (s *Service) enqueueRefresh(ctx context.Context, clientID int64) {
	if s.deps.Queue == nil {
		return
	}
	if _, err := s.deps.Queue.EnqueueMetricsRefresh(ctx, clientID); err != nil {
		s.logger.Error("enqueue metrics refresh", slog.Int64("client_id", clientID), slog.Any("error", err))
	}
}

func (s *Service) audit(ctx context.Context, action string, id int64, rec Record) {
	if s.deps.Audit == nil {
		return
	}
	meta := map[string]any{"client_id": rec.ClientID}
	if rec.ContractID != 0 {
		meta["contract_id"] = rec.ContractID
		meta["actual_fee"] = rec.ActualFee
		meta["coverage"] = fees.PeriodLabel(rec.Coverage.Schedule, rec.Coverage.StartPeriod, rec.Coverage.StartYear)
	}
	err := s.deps.Audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "payment",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
		At:       s.now(),
	})
	if err != nil {
		s.logger.Warn("record audit log", slog.String("action", action), slog.Int64("payment_id", id), slog.Any("error", err))
	}
}

func fieldErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	out := make(httpx.FieldErrors, len(verrs))
	for _, fe := range verrs {
		msg := fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		out[fe.Field()] = msg
	}
	return out
}

func wrap(op string, err error) error {
	if httpx.IsClientError(err) {
		return err
	}
	return fmt.Errorf("payments: %s: %w", op, err)
}
