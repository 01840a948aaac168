package api

import (
	"net/http"
	"time"

	"wifi-voucher/internal/domain/ports/repository"
	"wifi-voucher/internal/infra/logging"
	"wifi-voucher/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Deps are the collaborators the HTTP layer dispatches to.
type Deps struct {
	Purchases   usecase.PurchaseUseCase
	Credentials usecase.CredentialUseCase
	Plans       usecase.PlanUseCase
	Locations   usecase.LocationUseCase
	Auth        *AuthManager

	// Limiter throttles purchases per user; nil or a zero rate disables it.
	Limiter            repository.RateLimiter
	PurchasesPerMinute int

	RequestTimeout time.Duration
	CORSOrigin     string
	// Metrics defaults to the Prometheus default registry.
	Metrics http.Handler
	// Health reports readiness; nil always answers OK.
	Health func(r *http.Request) error
	Clock  func() time.Time
}

type Server struct {
	d   Deps
	log *zerolog.Logger
}

func NewServer(d Deps, logger *zerolog.Logger) *Server {
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 15 * time.Second
	}
	if d.Metrics == nil {
		d.Metrics = promhttp.Handler()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	l := logger.With().Str("component", "HTTP").Logger()
	return &Server{d: d, log: &l}
}

func (s *Server) now() time.Time { return s.d.Clock().UTC() }

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(s.log), Recover(s.log), CORS(s.d.CORSOrigin))

	r.Get("/health", s.health)
	r.Method(http.MethodGet, "/metrics", s.d.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Timeout(s.d.RequestTimeout))

		r.Get("/plans", s.listPlans)
		r.Get("/locations", s.listLocations)
		r.Post("/purchases", s.createPurchase)
		r.Get("/users/{userID}/purchases", s.listUserPurchases)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", s.adminLogin)
			r.Post("/logout", s.adminLogout)

			r.Group(func(r chi.Router) {
				r.Use(s.d.Auth.RequireAdmin(s.log))

				r.Post("/credentials", s.importCredentials)
				r.Get("/credentials", s.listCredentials)
				r.Post("/credentials/{id}/release", s.releaseCredential)
				r.Delete("/credentials/{id}", s.removeCredential)
				r.Get("/purchases", s.listAllPurchases)
				r.Get("/purchases/{id}", s.getPurchase)
				r.Get("/stats", s.poolStats)
				r.Post("/plans", s.createPlan)
				r.Get("/locations", s.listAllLocations)
				r.Put("/locations/{id}/active", s.setLocationActive)
			})
		})
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.d.Health != nil {
		if err := s.d.Health(r); err != nil {
			logging.With(r.Context(), s.log).Warn().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeError logs server-side failures and renders the mapped error body.
func writeError(w http.ResponseWriter, r *http.Request, logger *zerolog.Logger, err error) {
	status, body := classify(err)
	body.TraceID = logging.TraceID(r.Context())
	if status >= 500 {
		logging.With(r.Context(), logger).Error().Err(err).Str("code", body.Code).Msg("request failed")
	}
	writeJSON(w, status, body)
}
