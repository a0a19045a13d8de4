// Package bootstrap wires configuration, telemetry, the rate card and the
// HTTP stack into a runnable quote service.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cobrun/quote-engine/api"
	"github.com/cobrun/quote-engine/auth"
	"github.com/cobrun/quote-engine/config"
	"github.com/cobrun/quote-engine/geo"
	"github.com/cobrun/quote-engine/health"
	httputil "github.com/cobrun/quote-engine/http"
	"github.com/cobrun/quote-engine/logging"
	"github.com/cobrun/quote-engine/parcel"
	"github.com/cobrun/quote-engine/quote"
	"github.com/cobrun/quote-engine/ratecard"
	"github.com/cobrun/quote-engine/telemetry"
)

// Service holds all initialized components of the quote service.
type Service struct {
	Config  *config.Config
	Logger  *logging.Logger
	Audit   *logging.AuditLogger
	Store   *ratecard.Store
	Builder *quote.Builder
	Health  *health.Checker
	Server  *httputil.Server
	loader  *ratecard.Loader
	limiter *httputil.RateLimiter
	metrics *telemetry.MetricsProvider
	tracing *telemetry.TracingProvider
}

// Initialize builds the service from environment configuration.
func Initialize(ctx context.Context, serviceName string) (*Service, error) {
	cfg, err := config.Load(serviceName)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return New(ctx, cfg)
}

// New builds the service from cfg.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	logger := logging.NewLogger(cfg.LogLevel).WithService(cfg.ServiceName).With("environment", cfg.Environment)
	audit := logging.NewAuditLogger(logging.AuditLoggerConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Logger:      logger.Logger,
	})

	logger.Info("starting service", "version", cfg.Version, "port", cfg.Port)

	svc := &Service{Config: cfg, Logger: logger, Audit: audit}

	var err error
	svc.metrics, err = telemetry.NewMetricsProvider(ctx, telemetry.MetricsConfig{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		Endpoint:       cfg.OTLPEndpoint,
		Insecure:       cfg.IsDevelopment(),
	})
	if err != nil {
		return nil, err
	}

	svc.tracing, err = telemetry.NewTracingProvider(ctx, telemetry.TracingConfig{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		Endpoint:       cfg.OTLPEndpoint,
		SampleRate:     cfg.TraceSampleRate,
		Insecure:       cfg.IsDevelopment(),
	})
	if err != nil {
		return nil, errors.Join(err, svc.metrics.Shutdown(ctx))
	}

	if err := svc.initRateCard(); err != nil {
		return nil, errors.Join(err, svc.shutdownTelemetry(ctx))
	}

	quoteMetrics, err := telemetry.NewQuoteMetrics(svc.metrics.Meter())
	if err != nil {
		return nil, errors.Join(err, svc.shutdownTelemetry(ctx))
	}
	httpMetrics, err := telemetry.NewHTTPMetrics(svc.metrics.Meter())
	if err != nil {
		return nil, errors.Join(err, svc.shutdownTelemetry(ctx))
	}

	svc.Builder = quote.NewBuilder(svc.Store,
		quote.WithLogger(logger),
		quote.WithMetrics(quoteMetrics),
		quote.WithTracer(svc.tracing.Tracer()),
	)

	svc.Health = health.NewChecker(cfg.Version)
	svc.Health.AddCheck("ratecard", health.RateCardCheck(svc.Store), true)
	svc.Health.AddCheck("quote_canary", svc.canaryCheck(), false)

	var jwt *auth.JWTManager
	if cfg.AuthEnabled() {
		jwtCfg := auth.DefaultJWTConfig()
		jwtCfg.Secret = cfg.JWTSecret
		jwtCfg.Issuer = cfg.JWTIssuer
		jwtCfg.Audience = cfg.JWTAudience
		jwt = auth.NewJWTManager(jwtCfg)
	} else {
		logger.Warn("authentication disabled; no JWT secret configured")
	}

	limiterCfg := httputil.DefaultRateLimiterConfig()
	limiterCfg.RequestsPerSecond = cfg.RateLimitRPS
	limiterCfg.BurstSize = cfg.RateLimitBurst
	limiterCfg.OnLimitExceeded = func(_ *http.Request, key string) {
		logger.Warn("rate limit exceeded", "key", key)
	}
	svc.limiter = httputil.NewRateLimiter(limiterCfg)

	router := api.NewRouter(api.NewHandler(svc.Builder, svc.Store, audit), api.RouterConfig{
		Logger:         logger,
		Tracer:         svc.tracing.Tracer(),
		HTTPMetrics:    httpMetrics,
		RateLimiter:    svc.limiter,
		JWT:            jwt,
		ServiceToken:   cfg.ServiceToken,
		RequestTimeout: cfg.RequestTimeout,
		AllowedOrigins: cfg.AllowedOrigins,
		Health:         svc.Health,
	})

	svc.Server = httputil.NewServer(httputil.ServerConfig{
		Port:            cfg.Port,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		IdleTimeout:     cfg.IdleTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, router, logger)

	return svc, nil
}

func (s *Service) initRateCard() error {
	if s.Config.RateCardPath == "" {
		s.Logger.Info("no rate card configured, using builtin", "version", ratecard.BuiltinVersion)
		s.Store = ratecard.NewStore(nil)
		return nil
	}

	s.loader = ratecard.NewLoader(s.Config.RateCardPath, s.Logger, s.Audit)
	card, err := s.loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load rate card: %w", err)
	}
	s.Logger.Info("rate card loaded", "path", s.Config.RateCardPath, "version", card.Version)
	s.Store = ratecard.NewStore(card)
	return nil
}

// canaryCheck prices a short document delivery against the live card. It
// uses its own builder so probes stay out of the quote metrics.
func (s *Service) canaryCheck() health.CheckFunc {
	canary := quote.NewBuilder(s.Store, quote.WithLogger(s.Logger))
	pickup := geo.Point{Lat: 6.5095, Lng: 3.3711}
	dropoff := geo.Point{Lat: 6.5545, Lng: 3.3711}
	order := quote.OrderContext{
		Package: parcel.Spec{WeightKg: 1, Category: parcel.CategoryDocument},
		Route: quote.Route{
			Pickup:  quote.Endpoint{Point: &pickup},
			Dropoff: quote.Endpoint{Point: &dropoff},
		},
	}
	return func(ctx context.Context) error {
		_, err := canary.Build(ctx, order)
		return err
	}
}

// Run serves until ctx is cancelled, hot-reloading the rate card when
// configured to.
func (s *Service) Run(ctx context.Context) error {
	if s.loader != nil && s.Config.RateCardWatch {
		if err := s.loader.Watch(ctx, s.Store); err != nil {
			s.Logger.Error("rate card hot reload disabled", "error", err)
		}
	}
	return s.Server.Run(ctx)
}

// Close flushes telemetry and stops background work.
func (s *Service) Close(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.Close()
	}
	return s.shutdownTelemetry(ctx)
}

func (s *Service) shutdownTelemetry(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var errs []error
	if s.tracing != nil {
		errs = append(errs, s.tracing.Shutdown(ctx))
	}
	if s.metrics != nil {
		errs = append(errs, s.metrics.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
