package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/feetrack/feetrack/internal/clients"
	"github.com/feetrack/feetrack/internal/contracts"
	"github.com/feetrack/feetrack/internal/observability"
	"github.com/feetrack/feetrack/internal/payments"
	"github.com/feetrack/feetrack/internal/platform/httpx"
	"github.com/feetrack/feetrack/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	ClientsHandler   *clients.Handler
	ContractsHandler *contracts.Handler
	PaymentsHandler  *payments.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
	// RequestLogging toggles chi's per request access log.
	RequestLogging bool
}

type status struct {
	Status  string `json:"status"`
	Service string `json:"service,omitempty"`
	Env     string `json:"env,omitempty"`
}

// NewRouter constructs the chi.Router with the API defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}
	if params.RequestLogging {
		r.Use(chimw.Logger)
	}

	env := ""
	if params.Config != nil {
		env = params.Config.AppEnv
	}
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, status{Status: "ok", Service: "feetrack", Env: env})
	})
	healthy := func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, status{Status: "ok"})
	}
	r.Get("/health", healthy)
	r.Get("/healthz", healthy)

	if params.ClientsHandler != nil {
		params.ClientsHandler.MountRoutes(r)
	}
	if params.ContractsHandler != nil {
		params.ContractsHandler.MountRoutes(r)
	}
	if params.PaymentsHandler != nil {
		params.PaymentsHandler.MountRoutes(r)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, "Method Not Allowed", r.Method+" not supported on "+r.URL.Path)
	})
	return r
}
