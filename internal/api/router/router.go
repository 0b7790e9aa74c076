package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/clinicore/dispatch/internal/dispatch"
	httpmiddleware "github.com/clinicore/dispatch/internal/http/middleware"
	"github.com/clinicore/dispatch/internal/resources"
	"github.com/clinicore/dispatch/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	ResourcesHandler   *resources.Handler
	DispatchHandler    *dispatch.Handler
	MetricsHandler     http.Handler
	AdminAuthSecret    string
	CORSAllowedOrigins []string

	// Requests/sec allowed per client on the public triage endpoints.
	// Zero disables rate limiting.
	PublicRateLimit float64
	PublicRateBurst int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints: health, metrics, symptom assessment, and request
	// tracking by the end-user-safe tracking id.
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.DispatchHandler != nil {
			public.Group(func(triage chi.Router) {
				if cfg.PublicRateLimit > 0 {
					triage.Use(httpmiddleware.RateLimit(cfg.PublicRateLimit, cfg.PublicRateBurst))
				}
				triage.Post("/assess", cfg.DispatchHandler.Assess)
				triage.Get("/requests/track/{trackingId}", cfg.DispatchHandler.TrackRequest)
			})
			public.Get("/ai/status", cfg.DispatchHandler.AIStatus)
		}
	})

	// Administrative endpoints: fleet and hospital management, request
	// intake and lifecycle. JWT-guarded when a secret is configured.
	r.Group(func(admin chi.Router) {
		if cfg.AdminAuthSecret != "" {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
		}

		if cfg.ResourcesHandler != nil {
			admin.Route("/hospitals", func(r chi.Router) {
				r.Get("/", cfg.ResourcesHandler.ListHospitals)
				r.Post("/", cfg.ResourcesHandler.CreateHospital)
				r.Put("/{id}/beds", cfg.ResourcesHandler.UpdateBeds)
				r.Patch("/{id}/beds", cfg.ResourcesHandler.AdjustBeds)
				r.Delete("/{id}", cfg.ResourcesHandler.DeactivateHospital)
			})
			admin.Route("/ambulances", func(r chi.Router) {
				r.Get("/", cfg.ResourcesHandler.ListAmbulances)
				r.Get("/available", cfg.ResourcesHandler.ListAvailableAmbulances)
				r.Post("/", cfg.ResourcesHandler.CreateAmbulance)
				r.Put("/{id}/status", cfg.ResourcesHandler.UpdateAmbulanceStatus)
				r.Delete("/{id}", cfg.ResourcesHandler.DeactivateAmbulance)
			})
		}

		if cfg.DispatchHandler != nil {
			admin.Route("/requests", func(r chi.Router) {
				r.Get("/", cfg.DispatchHandler.ListRequests)
				r.Post("/", cfg.DispatchHandler.CreateRequest)
				r.Put("/{id}/status", cfg.DispatchHandler.UpdateStatus)
			})
			admin.Get("/stats", cfg.DispatchHandler.Stats)
		}
	})

	return r
}
