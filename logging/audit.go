package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// AuditEventType is the kind of audited action.
type AuditEventType string

const (
	AuditEventQuoteIssued   AuditEventType = "quote.issued"
	AuditEventQuoteRejected AuditEventType = "quote.rejected"
	AuditEventQuoteVerified AuditEventType = "quote.verified"
	AuditEventQuoteStale    AuditEventType = "quote.stale"

	AuditEventRateCardReloaded AuditEventType = "ratecard.reloaded"
	AuditEventRateCardRejected AuditEventType = "ratecard.rejected"
)

// AuditOutcome is the result of an audited action.
type AuditOutcome string

const (
	AuditOutcomeSuccess AuditOutcome = "success"
	AuditOutcomeFailure AuditOutcome = "failure"
	AuditOutcomeDenied  AuditOutcome = "denied"
)

// AuditEvent is one audit log entry.
type AuditEvent struct {
	ID          string         `json:"id"`
	Timestamp   time.Time      `json:"timestamp"`
	Type        AuditEventType `json:"type"`
	Actor       *AuditActor    `json:"actor,omitempty"`
	Resource    *AuditResource `json:"resource,omitempty"`
	Outcome     AuditOutcome   `json:"outcome"`
	Details     map[string]any `json:"details,omitempty"`
	Request     *AuditRequest  `json:"request,omitempty"`
	Service     string         `json:"service"`
	Environment string         `json:"environment"`
}

// AuditActor is who caused the event: a user, the order service, or the
// system itself for rate card reloads.
type AuditActor struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	IP   string `json:"ip,omitempty"`
}

// AuditResource is what the event is about.
type AuditResource struct {
	Type        string            `json:"type"`
	ID          string            `json:"id"`
	Identifiers map[string]string `json:"identifiers,omitempty"`
}

// AuditRequest is the HTTP request behind the event.
type AuditRequest struct {
	Method    string `json:"method"`
	Path      string `json:"path"`
	RequestID string `json:"request_id,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
}

// AuditLoggerConfig configures an AuditLogger.
type AuditLoggerConfig struct {
	ServiceName string
	Environment string
	Logger      *slog.Logger
}

// AuditLogger writes audit events as structured log records.
type AuditLogger struct {
	logger      *slog.Logger
	service     string
	environment string
	now         func() time.Time
}

// NewAuditLogger creates an AuditLogger. A nil Logger uses slog.Default.
func NewAuditLogger(config AuditLoggerConfig) *AuditLogger {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &AuditLogger{
		logger:      logger.With("audit", true),
		service:     config.ServiceName,
		environment: config.Environment,
		now:         time.Now,
	}
}

// Log stamps and writes event.
func (l *AuditLogger) Log(ctx context.Context, event AuditEvent) {
	event.Service = l.service
	event.Environment = l.environment
	event.Timestamp = l.now().UTC()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Request != nil && event.Request.TraceID == "" {
		event.Request.TraceID = TraceIDFromContext(ctx)
	}

	eventJSON, _ := json.Marshal(event)

	l.logger.LogAttrs(ctx, slog.LevelInfo, "audit_event",
		slog.String("event_type", string(event.Type)),
		slog.String("outcome", string(event.Outcome)),
		slog.String("event", string(eventJSON)),
	)
}

// LogQuote records an event about a quote identified by fingerprint.
func (l *AuditLogger) LogQuote(ctx context.Context, r *http.Request, eventType AuditEventType, actor *AuditActor, quoteID, fingerprint string, outcome AuditOutcome, details map[string]any) {
	event := AuditEvent{
		Type:  eventType,
		Actor: actor,
		Resource: &AuditResource{
			Type:        "quote",
			ID:          quoteID,
			Identifiers: map[string]string{"fingerprint": fingerprint},
		},
		Outcome: outcome,
		Details: details,
	}
	if r != nil {
		if event.Actor == nil {
			event.Actor = &AuditActor{Type: "anonymous"}
		}
		if event.Actor.IP == "" {
			event.Actor.IP = r.RemoteAddr
		}
		event.Request = &AuditRequest{
			Method:    r.Method,
			Path:      r.URL.Path,
			RequestID: r.Header.Get("X-Request-ID"),
		}
	}
	l.Log(ctx, event)
}

// LogRateCard records a rate card reload attempt.
func (l *AuditLogger) LogRateCard(ctx context.Context, eventType AuditEventType, version string, outcome AuditOutcome, details map[string]any) {
	l.Log(ctx, AuditEvent{
		Type:     eventType,
		Actor:    &AuditActor{Type: "system"},
		Resource: &AuditResource{Type: "ratecard", ID: version},
		Outcome:  outcome,
		Details:  details,
	})
}

// TraceIDFromContext returns the active OpenTelemetry trace ID, or "".
func TraceIDFromContext(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
