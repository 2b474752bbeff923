package contracts

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/feetrack/feetrack/internal/platform/httpx"
)

// Handler exposes contract endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers contract routes on the root router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/contracts/{id}", h.getContract)
	r.Get("/contracts/client/{clientID}", h.getClientContract)
	r.Get("/contracts/{id}/expected-fee", h.expectedFee)
	r.Get("/contracts/{id}/fee-references", h.feeReferences)
	r.Get("/clients/{clientID}/contract", h.getClientContract)
}

func (h *Handler) getContract(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get contract", err, slog.Int64("contract_id", id))
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) getClientContract(w http.ResponseWriter, r *http.Request) {
	clientID, err := httpx.IDParam(r, "clientID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.GetForClient(r.Context(), clientID)
	if err != nil {
		h.fail(w, "get client contract", err, slog.Int64("client_id", clientID))
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) expectedFee(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var assets *float64
	if raw := strings.TrimSpace(r.URL.Query().Get("total_assets")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			httpx.RespondError(w, fmt.Errorf("%w: total_assets must be a non-negative number", httpx.ErrValidation))
			return
		}
		assets = &v
	}
	calc, err := h.service.ExpectedFee(r.Context(), id, assets)
	if err != nil {
		h.fail(w, "expected fee", err, slog.Int64("contract_id", id))
		return
	}
	httpx.JSON(w, http.StatusOK, calc)
}

func (h *Handler) feeReferences(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	refs, err := h.service.FeeReferences(r.Context(), id)
	if err != nil {
		h.fail(w, "fee references", err, slog.Int64("contract_id", id))
		return
	}
	httpx.JSON(w, http.StatusOK, refs)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error, attrs ...any) {
	if h.logger != nil && !httpx.IsClientError(err) {
		h.logger.Error(msg, append(attrs, slog.Any("error", err))...)
	}
	httpx.RespondError(w, err)
}
