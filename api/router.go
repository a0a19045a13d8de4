package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"

	"github.com/cobrun/quote-engine/auth"
	"github.com/cobrun/quote-engine/health"
	httputil "github.com/cobrun/quote-engine/http"
	"github.com/cobrun/quote-engine/logging"
	"github.com/cobrun/quote-engine/telemetry"
)

// RouterConfig carries the router's collaborators. Nil collaborators
// switch their middleware off.
type RouterConfig struct {
	Logger         *logging.Logger
	Tracer         trace.Tracer
	HTTPMetrics    *telemetry.HTTPMetrics
	RateLimiter    *httputil.RateLimiter
	JWT            *auth.JWTManager
	ServiceToken   string
	RequestTimeout time.Duration
	AllowedOrigins []string
	Health         *health.Checker
}

// NewRouter mounts the quote API and health probes.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewLogger("info")
	}

	r := chi.NewRouter()
	r.Use(httputil.RequestID)
	r.Use(httputil.RealIP)
	r.Use(httputil.Logger(cfg.Logger))
	r.Use(httputil.Recoverer(cfg.Logger))
	r.Use(httputil.SecurityHeaders)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(httputil.CORS(cfg.AllowedOrigins))
	}
	if cfg.Tracer != nil {
		r.Use(telemetry.TracingMiddleware(cfg.Tracer))
	}
	if cfg.HTTPMetrics != nil {
		r.Use(telemetry.MetricsMiddleware(cfg.HTTPMetrics))
	}

	if cfg.Health != nil {
		r.Get("/health/live", cfg.Health.LivenessHandler())
		r.Get("/health/ready", cfg.Health.ReadinessHandler())
	}

	r.Route("/v1", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Middleware)
		}
		if cfg.RequestTimeout > 0 {
			r.Use(httputil.Timeout(cfg.RequestTimeout))
		}
		r.Use(auth.Middleware(cfg.JWT, cfg.ServiceToken))

		r.Post("/quotes", h.CreateQuote)
		r.Post("/quotes/verify", h.VerifyQuote)
		r.Get("/vehicles", h.ListVehicles)
		r.With(auth.RequireRole(cfg.JWT != nil, auth.RoleAdmin)).Get("/ratecard", h.GetRateCard)
	})

	return r
}
