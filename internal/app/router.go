package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/liftplan/liftplan/internal/auth"
	"github.com/liftplan/liftplan/internal/cargo"
	"github.com/liftplan/liftplan/internal/contracts"
	"github.com/liftplan/liftplan/internal/observability"
	"github.com/liftplan/liftplan/internal/planning"
	"github.com/liftplan/liftplan/internal/reconcile"
	"github.com/liftplan/liftplan/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	AuthService      *auth.Service
	ContractsHandler *contracts.Handler
	PlanningHandler  *planning.Handler
	CargoHandler     *cargo.Handler
	ReconcileHandler *reconcile.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with liftplan defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware(params.AuthService))

		params.ContractsHandler.MountRoutes(r)
		params.PlanningHandler.MountRoutes(r)
		params.CargoHandler.MountRoutes(r)
		params.ReconcileHandler.MountRoutes(r)
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
