package quote

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/cobrun/quote-engine/errors"
	"github.com/cobrun/quote-engine/eligibility"
	"github.com/cobrun/quote-engine/fare"
	"github.com/cobrun/quote-engine/geo"
	"github.com/cobrun/quote-engine/location"
	"github.com/cobrun/quote-engine/logging"
	"github.com/cobrun/quote-engine/parcel"
	"github.com/cobrun/quote-engine/ratecard"
	"github.com/cobrun/quote-engine/telemetry"
	"github.com/cobrun/quote-engine/validation"
	"github.com/cobrun/quote-engine/vehicle"
)

// Quote is the result of one pricing computation. Build returns a fresh
// value that nothing else references; treat it as read-only.
type Quote struct {
	ID               string               `json:"id"`
	Breakdown        fare.Breakdown       `json:"breakdown"`
	SelectedVehicle  vehicle.Type         `json:"selected_vehicle"`
	EligibleVehicles []eligibility.Option `json:"eligible_vehicles"`
	Fingerprint      string               `json:"fingerprint"`
	ComputedAt       time.Time            `json:"computed_at"`
	DistanceKm       float64              `json:"distance_km"`
	PickupType       location.Type        `json:"pickup_type"`
	DropoffType      location.Type        `json:"dropoff_type"`
	PickupCell       string               `json:"pickup_cell"`
	DropoffCell      string               `json:"dropoff_cell"`
	RateCardVersion  string               `json:"rate_card_version"`
}

// Builder computes quotes against the current rate card. It holds no
// per-request state and is safe for concurrent use.
type Builder struct {
	store   *ratecard.Store
	logger  *logging.Logger
	metrics *telemetry.QuoteMetrics
	tracer  trace.Tracer
	cells   *geo.H3Index
	now     func() time.Time
	newID   func() string
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for per-quote debug logs.
func WithLogger(l *logging.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// WithMetrics records quote metrics.
func WithMetrics(m *telemetry.QuoteMetrics) Option {
	return func(b *Builder) { b.metrics = m }
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(b *Builder) { b.tracer = t }
}

// WithClock sets the source of ComputedAt.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// WithIDGenerator sets the source of quote IDs.
func WithIDGenerator(newID func() string) Option {
	return func(b *Builder) { b.newID = newID }
}

// NewBuilder creates a Builder reading rate cards from store.
func NewBuilder(store *ratecard.Store, opts ...Option) *Builder {
	b := &Builder{
		store:  store,
		logger: logging.NewLogger("info"),
		tracer: otel.Tracer("github.com/cobrun/quote-engine/quote"),
		cells:  geo.NewH3Index(geo.H3ResolutionNeighborhood),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// prepared is an order after validation, normalization and measurement.
type prepared struct {
	order OrderContext
	pkg   parcel.Spec
	leg   Leg
}

// Build prices order. It returns either a complete quote or the error of
// the first step that failed, never both.
func (b *Builder) Build(ctx context.Context, order OrderContext) (*Quote, error) {
	start := time.Now()
	ctx, span := b.tracer.Start(ctx, "quote.Build")
	defer span.End()

	// One snapshot for the whole build, so a concurrent reload cannot mix
	// two rate cards into one quote.
	card := b.store.Current()
	span.SetAttributes(attribute.String("quote.rate_card_version", card.Version))

	q, err := b.build(ctx, card, order)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, apperrors.Code(err))
		if b.metrics != nil {
			b.metrics.RecordFailure(ctx, failureCode(err), time.Since(start))
		}
		b.logger.Debug("quote rejected", "code", apperrors.Code(err), "error", err)
		return nil, err
	}

	span.SetAttributes(telemetry.QuoteAttributes(q.ID, q.Fingerprint, string(q.SelectedVehicle), q.RateCardVersion)...)
	if b.metrics != nil {
		b.metrics.RecordIssued(ctx, string(q.SelectedVehicle), q.Breakdown.Currency,
			q.Breakdown.TotalAmount, q.DistanceKm, time.Since(start))
	}
	b.logger.WithQuote(q.ID, q.Fingerprint).Debug("quote built",
		"vehicle", q.SelectedVehicle,
		"distance_km", q.DistanceKm,
		"total", q.Breakdown.TotalAmount,
		"rate_card_version", q.RateCardVersion,
	)
	return q, nil
}

func (b *Builder) build(ctx context.Context, card *ratecard.Card, order OrderContext) (*Quote, error) {
	p, err := b.prepare(ctx, order)
	if err != nil {
		return nil, err
	}

	var match eligibility.Result
	err = b.step(ctx, "quote.match", func(context.Context) error {
		match, err = eligibility.Match(card.Catalog, p.pkg, p.leg.DistanceKm, p.order.RequestedVehicleTypes)
		return err
	})
	if err != nil {
		return nil, err
	}
	selected := match.Selected()

	var breakdown fare.Breakdown
	err = b.step(ctx, "quote.price", func(context.Context) error {
		breakdown, err = card.Calculator().Price(fare.Input{
			Package:     p.pkg,
			DistanceKm:  p.leg.DistanceKm,
			Vehicles:    candidates(match, selected, p.order.RequestedVehicleTypes),
			Priority:    p.order.priority(),
			OrderType:   p.order.orderType(),
			Insurance:   p.order.Insurance,
			PickupType:  p.leg.PickupType,
			DropoffType: p.leg.DropoffType,
			Discount:    p.order.Discount,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	var fingerprint string
	err = b.step(ctx, "quote.fingerprint", func(context.Context) error {
		fingerprint, err = Fingerprint(p.order, p.leg, card.Version)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &Quote{
		ID:               b.newID(),
		Breakdown:        breakdown,
		SelectedVehicle:  selected,
		EligibleVehicles: match.Options,
		Fingerprint:      fingerprint,
		ComputedAt:       b.now().UTC(),
		DistanceKm:       p.leg.DistanceKm,
		PickupType:       p.leg.PickupType,
		DropoffType:      p.leg.DropoffType,
		PickupCell:       b.cells.CellString(*p.order.Route.Pickup.Point),
		DropoffCell:      b.cells.CellString(*p.order.Route.Dropoff.Point),
		RateCardVersion:  card.Version,
	}, nil
}

// Verify recomputes the fingerprint of order against the current rate card
// and returns it. A mismatch with fingerprint is StaleQuote: the order or
// the rates changed since the quote was shown.
func (b *Builder) Verify(ctx context.Context, order OrderContext, fingerprint string) (string, error) {
	ctx, span := b.tracer.Start(ctx, "quote.Verify")
	defer span.End()

	card := b.store.Current()
	current, err := b.fingerprint(ctx, card, order)
	if err == nil && current != fingerprint {
		err = apperrors.StaleQuote(current, fingerprint)
	}

	outcome := "valid"
	switch {
	case apperrors.IsStaleQuote(err):
		outcome = "stale"
	case err != nil:
		outcome = "error"
	}
	if b.metrics != nil {
		b.metrics.RecordVerification(ctx, outcome)
	}
	span.SetAttributes(
		attribute.String("quote.verify_outcome", outcome),
		attribute.String("quote.rate_card_version", card.Version),
	)

	if err != nil {
		span.SetStatus(codes.Error, apperrors.Code(err))
		return current, err
	}
	return current, nil
}

func (b *Builder) fingerprint(ctx context.Context, card *ratecard.Card, order OrderContext) (string, error) {
	p, err := b.prepare(ctx, order)
	if err != nil {
		return "", err
	}
	return Fingerprint(p.order, p.leg, card.Version)
}

// prepare runs the steps shared by Build and Verify.
func (b *Builder) prepare(ctx context.Context, order OrderContext) (prepared, error) {
	p := prepared{order: order}

	err := b.step(ctx, "quote.validate", func(context.Context) error {
		_, err := validation.ValidateStruct(order)
		return err
	})
	if err != nil {
		return prepared{}, err
	}

	err = b.step(ctx, "quote.normalize", func(context.Context) error {
		p.pkg, err = order.Package.Normalize()
		return err
	})
	if err != nil {
		return prepared{}, err
	}

	err = b.step(ctx, "quote.measure", func(context.Context) error {
		p.leg, err = order.Route.Measure()
		return err
	})
	if err != nil {
		return prepared{}, err
	}

	return p, nil
}

// step runs fn inside a child span.
func (b *Builder) step(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := b.tracer.Start(ctx, name)
	defer span.End()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, apperrors.Code(err))
		return err
	}
	return nil
}

// candidates returns the vehicles whose multipliers bound the price: the
// selected vehicle, or every eligible requested type when the caller asked
// for more than one.
func candidates(match eligibility.Result, selected vehicle.Type, requested []vehicle.Type) []vehicle.Type {
	if len(requested) > 1 {
		return match.Eligible()
	}
	return []vehicle.Type{selected}
}

func failureCode(err error) string {
	if code := apperrors.Code(err); code != "" {
		return code
	}
	return apperrors.CodeInternal
}
