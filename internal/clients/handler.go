package clients

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/feetrack/feetrack/internal/platform/httpx"
)

// Handler exposes client endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers client routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/clients", h.listClients)
	r.Get("/clients/{id}", h.getClient)
	r.Get("/clients/{id}/summary", h.getSummary)
}

func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	provider := strings.TrimSpace(r.URL.Query().Get("provider"))
	records, err := h.service.List(r.Context(), provider)
	if err != nil {
		h.fail(w, "list clients", err)
		return
	}
	httpx.JSON(w, http.StatusOK, records)
}

func (h *Handler) getClient(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rec, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get client", err, slog.Int64("client_id", id))
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) getSummary(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	summary, err := h.service.Summary(r.Context(), id)
	if err != nil {
		h.fail(w, "client summary", err, slog.Int64("client_id", id))
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error, attrs ...any) {
	if h.logger != nil && !httpx.IsClientError(err) {
		h.logger.Error(msg, append(attrs, slog.Any("error", err))...)
	}
	httpx.RespondError(w, err)
}
