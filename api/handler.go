// Package api exposes the quote engine over HTTP.
package api

import (
	"net/http"

	"github.com/cobrun/quote-engine/auth"
	apperrors "github.com/cobrun/quote-engine/errors"
	"github.com/cobrun/quote-engine/fare"
	httputil "github.com/cobrun/quote-engine/http"
	"github.com/cobrun/quote-engine/logging"
	"github.com/cobrun/quote-engine/parcel"
	"github.com/cobrun/quote-engine/quote"
	"github.com/cobrun/quote-engine/ratecard"
	"github.com/cobrun/quote-engine/validation"
	"github.com/cobrun/quote-engine/vehicle"
)

// Handler serves the quote endpoints.
type Handler struct {
	builder *quote.Builder
	store   *ratecard.Store
	audit   *logging.AuditLogger
}

// NewHandler creates a handler. audit may be nil.
func NewHandler(builder *quote.Builder, store *ratecard.Store, audit *logging.AuditLogger) *Handler {
	return &Handler{builder: builder, store: store, audit: audit}
}

// VerifyRequest is the checkout's fingerprint check.
type VerifyRequest struct {
	Order       quote.OrderContext `json:"order" validate:"required"`
	Fingerprint string             `json:"fingerprint" validate:"required,hexadecimal,len=16"`
}

// VerifyResponse reports whether the quote still holds.
type VerifyResponse struct {
	Valid       bool   `json:"valid"`
	Fingerprint string `json:"fingerprint"`
}

// VehiclesResponse lists the active fleet.
type VehiclesResponse struct {
	RateCardVersion string                           `json:"rate_card_version"`
	Vehicles        []vehicle.Profile                `json:"vehicles"`
	CategoryHints   map[parcel.Category]vehicle.Hint `json:"category_hints"`
}

// RateCardResponse describes the active rate card.
type RateCardResponse struct {
	Version  string     `json:"version"`
	Currency string     `json:"currency"`
	Rates    fare.Rates `json:"rates"`
}

// CreateQuote handles POST /v1/quotes.
func (h *Handler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var order quote.OrderContext
	if !validation.DecodeAndValidate(w, r, &order) {
		return
	}

	q, err := h.builder.Build(ctx, order)
	if err != nil {
		logger.Info("quote rejected", "code", apperrors.Code(err), "error", err.Error())
		h.auditQuote(r, logging.AuditEventQuoteRejected, "", "", logging.AuditOutcomeFailure,
			map[string]any{"code": apperrors.Code(err)})
		apperrors.WriteError(w, err, logging.TraceIDFromContext(ctx))
		return
	}

	logger.WithQuote(q.ID, q.Fingerprint).Info("quote issued",
		"vehicle", q.SelectedVehicle,
		"total", q.Breakdown.TotalAmount,
		"distance_km", q.DistanceKm,
		"rate_card_version", q.RateCardVersion,
	)
	h.auditQuote(r, logging.AuditEventQuoteIssued, q.ID, q.Fingerprint, logging.AuditOutcomeSuccess,
		map[string]any{
			"vehicle":           string(q.SelectedVehicle),
			"total":             q.Breakdown.TotalAmount,
			"currency":          q.Breakdown.Currency,
			"rate_card_version": q.RateCardVersion,
		})

	httputil.Created(w, q.View())
}

// VerifyQuote handles POST /v1/quotes/verify.
func (h *Handler) VerifyQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req VerifyRequest
	if !validation.DecodeAndValidate(w, r, &req) {
		return
	}

	current, err := h.builder.Verify(ctx, req.Order, req.Fingerprint)
	switch {
	case err == nil:
		h.auditQuote(r, logging.AuditEventQuoteVerified, "", current, logging.AuditOutcomeSuccess, nil)
		httputil.OK(w, VerifyResponse{Valid: true, Fingerprint: current})
	case apperrors.IsStaleQuote(err):
		h.auditQuote(r, logging.AuditEventQuoteStale, "", req.Fingerprint, logging.AuditOutcomeDenied,
			map[string]any{"current": current})
		apperrors.WriteError(w, err, logging.TraceIDFromContext(ctx))
	default:
		apperrors.WriteError(w, err, logging.TraceIDFromContext(ctx))
	}
}

// ListVehicles handles GET /v1/vehicles.
func (h *Handler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	card := h.store.Current()
	httputil.OK(w, VehiclesResponse{
		RateCardVersion: card.Version,
		Vehicles:        card.Catalog.Profiles(),
		CategoryHints:   card.Catalog.Hints(),
	})
}

// GetRateCard handles GET /v1/ratecard.
func (h *Handler) GetRateCard(w http.ResponseWriter, r *http.Request) {
	card := h.store.Current()
	httputil.OK(w, RateCardResponse{
		Version:  card.Version,
		Currency: card.Currency(),
		Rates:    card.Rates,
	})
}

func (h *Handler) auditQuote(r *http.Request, event logging.AuditEventType, quoteID, fingerprint string, outcome logging.AuditOutcome, details map[string]any) {
	if h.audit == nil {
		return
	}
	h.audit.LogQuote(r.Context(), r, event, auth.Actor(r.Context()), quoteID, fingerprint, outcome, details)
}
