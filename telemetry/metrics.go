// Package telemetry wires OpenTelemetry metrics and tracing for the quote
// service.
package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string // OTLP endpoint; empty keeps metrics in-process
	Insecure       bool
	ExportInterval time.Duration
	// Readers are attached in addition to the OTLP exporter. Tests use a
	// manual reader here.
	Readers []sdkmetric.Reader
}

// MetricsProvider provides metrics functionality.
type MetricsProvider struct {
	provider *sdkmetric.MeterProvider
	meter    metric.Meter
	config   MetricsConfig
}

// NewMetricsProvider creates a meter provider and installs it globally.
func NewMetricsProvider(ctx context.Context, config MetricsConfig) (*MetricsProvider, error) {
	res, err := newResource(ctx, config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, err
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	for _, r := range config.Readers {
		opts = append(opts, sdkmetric.WithReader(r))
	}

	if config.Endpoint != "" {
		exporterOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(config.Endpoint)}
		if config.Insecure {
			exporterOpts = append(exporterOpts, otlpmetrichttp.WithInsecure())
		}
		exporter, err := otlpmetrichttp.New(ctx, exporterOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create metric exporter: %w", err)
		}

		interval := config.ExportInterval
		if interval <= 0 {
			interval = 30 * time.Second
		}
		opts = append(opts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)),
		))
	}

	provider := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(provider)

	return &MetricsProvider{
		provider: provider,
		meter:    provider.Meter(config.ServiceName),
		config:   config,
	}, nil
}

// Meter returns the meter for creating instruments.
func (m *MetricsProvider) Meter() metric.Meter {
	return m.meter
}

// Shutdown flushes and stops the provider.
func (m *MetricsProvider) Shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}

func newResource(ctx context.Context, service, version, environment string) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(service),
			semconv.ServiceVersion(version),
			attribute.String("environment", environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// HTTPMetrics provides HTTP-related metrics.
type HTTPMetrics struct {
	requestsTotal   metric.Int64Counter
	requestDuration metric.Float64Histogram
	responseSize    metric.Int64Histogram
	activeRequests  metric.Int64UpDownCounter
}

// NewHTTPMetrics creates HTTP metrics.
func NewHTTPMetrics(meter metric.Meter) (*HTTPMetrics, error) {
	requestsTotal, err := meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5),
	)
	if err != nil {
		return nil, err
	}

	responseSize, err := meter.Int64Histogram(
		"http_response_size_bytes",
		metric.WithDescription("HTTP response size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		return nil, err
	}

	return &HTTPMetrics{
		requestsTotal:   requestsTotal,
		requestDuration: requestDuration,
		responseSize:    responseSize,
		activeRequests:  activeRequests,
	}, nil
}

// RecordRequest records HTTP request metrics. route should be the router
// pattern, not the raw path.
func (m *HTTPMetrics) RecordRequest(ctx context.Context, method, route string, status int, duration time.Duration, respSize int64) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status_code", status),
		attribute.String("status_class", statusClass(status)),
	)

	m.requestsTotal.Add(ctx, 1, attrs)
	m.requestDuration.Record(ctx, duration.Seconds(), attrs)
	m.responseSize.Record(ctx, respSize, attrs)
}

func statusClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}

// QuoteMetrics records quote outcomes.
type QuoteMetrics struct {
	issued        metric.Int64Counter
	failures      metric.Int64Counter
	verifications metric.Int64Counter
	total         metric.Float64Histogram
	distance      metric.Float64Histogram
	buildDuration metric.Float64Histogram
}

// NewQuoteMetrics creates quote metrics.
func NewQuoteMetrics(meter metric.Meter) (*QuoteMetrics, error) {
	issued, err := meter.Int64Counter(
		"quotes_issued_total",
		metric.WithDescription("Quotes successfully built"),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter(
		"quote_failures_total",
		metric.WithDescription("Quote builds that failed, by error code"),
	)
	if err != nil {
		return nil, err
	}

	verifications, err := meter.Int64Counter(
		"quote_verifications_total",
		metric.WithDescription("Checkout fingerprint checks, by outcome"),
	)
	if err != nil {
		return nil, err
	}

	total, err := meter.Float64Histogram(
		"quote_total_amount",
		metric.WithDescription("Quoted total in the rate card currency"),
		metric.WithExplicitBucketBoundaries(500, 1000, 1500, 2500, 5000, 10000, 25000, 50000, 100000),
	)
	if err != nil {
		return nil, err
	}

	distance, err := meter.Float64Histogram(
		"quote_distance_km",
		metric.WithDescription("Route distance of quoted orders"),
		metric.WithUnit("km"),
		metric.WithExplicitBucketBoundaries(1, 2, 5, 10, 15, 20, 30, 50, 100, 250),
	)
	if err != nil {
		return nil, err
	}

	buildDuration, err := meter.Float64Histogram(
		"quote_build_duration_seconds",
		metric.WithDescription("Time to build a quote"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05),
	)
	if err != nil {
		return nil, err
	}

	return &QuoteMetrics{
		issued:        issued,
		failures:      failures,
		verifications: verifications,
		total:         total,
		distance:      distance,
		buildDuration: buildDuration,
	}, nil
}

// RecordIssued records a successfully built quote.
func (m *QuoteMetrics) RecordIssued(ctx context.Context, vehicleType, currency string, total, distanceKm float64, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("vehicle_type", vehicleType),
		attribute.String("currency", currency),
	)
	m.issued.Add(ctx, 1, attrs)
	m.total.Record(ctx, total, attrs)
	m.distance.Record(ctx, distanceKm, attrs)
	m.buildDuration.Record(ctx, duration.Seconds())
}

// RecordFailure records a failed build.
func (m *QuoteMetrics) RecordFailure(ctx context.Context, code string, duration time.Duration) {
	m.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
	m.buildDuration.Record(ctx, duration.Seconds())
}

// RecordVerification records a fingerprint check; outcome is "valid",
// "stale" or "error".
func (m *QuoteMetrics) RecordVerification(ctx context.Context, outcome string) {
	m.verifications.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// MetricsMiddleware creates an HTTP middleware that records metrics.
func MetricsMiddleware(metrics *HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			metrics.activeRequests.Add(ctx, 1)
			defer metrics.activeRequests.Add(ctx, -1)

			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			metrics.RecordRequest(ctx, r.Method, routePattern(r), wrapped.status, time.Since(start), int64(wrapped.size))
		})
	}
}

// routePattern returns the matched chi pattern, falling back to the path
// for requests that never reached the router.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}
