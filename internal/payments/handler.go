package payments

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/feetrack/feetrack/internal/fees"
	"github.com/feetrack/feetrack/internal/platform/httpx"
	"github.com/feetrack/feetrack/internal/shared"
)

// IdempotencyHeader carries the optional create request key.
const IdempotencyHeader = "Idempotency-Key"

// Handler exposes payment endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers payment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/payments", h.createPayment)
	r.Get("/payments/{id}", h.getPayment)
	r.Put("/payments/{id}", h.updatePayment)
	r.Delete("/payments/{id}", h.deletePayment)
	r.Get("/clients/{id}/payments", h.listClientPayments)
	r.Get("/contracts/{id}/periods", h.availablePeriods)
}

func (h *Handler) createPayment(w http.ResponseWriter, r *http.Request) {
	key, err := idempotencyKey(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	detail, err := h.service.Create(r.Context(), in, key)
	if err != nil {
		h.fail(w, "create payment", err, slog.Int64("contract_id", in.ContractID))
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) getPayment(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get payment", err, slog.Int64("payment_id", id))
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) updatePayment(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	detail, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, "update payment", err, slog.Int64("payment_id", id))
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) deletePayment(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, "delete payment", err, slog.Int64("payment_id", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listClientPayments(w http.ResponseWriter, r *http.Request) {
	clientID, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	q := r.URL.Query()
	page, err := shared.ParsePage(q.Get("page"), q.Get("limit"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	year, err := yearParam(q.Get("year"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	list, err := h.service.ListForClient(r.Context(), clientID, ListFilter{Page: page, Year: year})
	if err != nil {
		h.fail(w, "list payments", err, slog.Int64("client_id", clientID))
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) availablePeriods(w http.ResponseWriter, r *http.Request) {
	contractID, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	clientID, err := strconv.ParseInt(r.URL.Query().Get("client_id"), 10, 64)
	if err != nil || clientID <= 0 {
		httpx.RespondError(w, fmt.Errorf("%w: client_id query parameter required", httpx.ErrValidation))
		return
	}
	periods, err := h.service.AvailablePeriods(r.Context(), contractID, clientID)
	if err != nil {
		h.fail(w, "available periods", err, slog.Int64("contract_id", contractID), slog.Int64("client_id", clientID))
		return
	}
	httpx.JSON(w, http.StatusOK, struct {
		Periods []fees.PeriodOption `json:"periods"`
	}{Periods: periods})
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error, attrs ...any) {
	if h.logger != nil && !httpx.IsClientError(err) {
		h.logger.Error(msg, append(attrs, slog.Any("error", err))...)
	}
	httpx.RespondError(w, err)
}

// idempotencyKey returns the normalised request key, or "" when absent.
func idempotencyKey(r *http.Request) (string, error) {
	raw := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	if raw == "" {
		return "", nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s must be a UUID", httpx.ErrValidation, IdempotencyHeader)
	}
	return id.String(), nil
}

// yearParam parses the optional year filter. "null" is treated as absent.
func yearParam(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "null") {
		return nil, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year <= 0 {
		return nil, fmt.Errorf("%w: invalid year", httpx.ErrValidation)
	}
	return &year, nil
}
