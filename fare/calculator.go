package fare

import (
	"fmt"
	"math"

	apperrors "github.com/cobrun/quote-engine/errors"
	"github.com/cobrun/quote-engine/location"
	"github.com/cobrun/quote-engine/parcel"
	"github.com/cobrun/quote-engine/vehicle"
)

// Insurance is the sender's cover selection.
type Insurance struct {
	IsInsured     bool    `json:"is_insured"`
	DeclaredValue float64 `json:"declared_value"`
}

// Input is everything the price depends on. Package must be normalized and
// DistanceKm already measured.
type Input struct {
	Package    parcel.Spec
	DistanceKm float64
	// Vehicles are the candidates the order may be dispatched to. The
	// highest vehicle multiplier among them is charged.
	Vehicles    []vehicle.Type
	Priority    Priority
	OrderType   OrderType
	Insurance   Insurance
	PickupType  location.Type
	DropoffType location.Type
	Discount    *Discount
}

// Calculator prices shipments against one immutable set of Rates.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator after validating rates.
func NewCalculator(rates Rates) (*Calculator, error) {
	if err := rates.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rates: %w", err)
	}
	return &Calculator{rates: rates.Clone()}, nil
}

// Rates returns a copy of the rates this calculator prices with.
func (c *Calculator) Rates() Rates {
	return c.rates.Clone()
}

// DeclaredInsuranceValue returns the value to insure: the insurance
// selection's declared value, or the package's when that is zero.
func DeclaredInsuranceValue(in Insurance, pkg parcel.Spec) float64 {
	if in.DeclaredValue > 0 {
		return in.DeclaredValue
	}
	return pkg.DeclaredValue
}

// Price computes the breakdown for in. It is a pure function of in and the
// calculator's rates.
func (c *Calculator) Price(in Input) (Breakdown, error) {
	r := c.rates

	if len(in.Vehicles) == 0 {
		return Breakdown{}, apperrors.Internal("no candidate vehicle to price")
	}
	if !finite(in.DistanceKm) || in.DistanceKm < 0 {
		return Breakdown{}, apperrors.InvalidCoordinates("route", "distance is not a non-negative number")
	}

	vehicleMult, err := c.vehicleMultiplier(in.Vehicles)
	if err != nil {
		return Breakdown{}, err
	}

	insured, err := c.insuredValue(in)
	if err != nil {
		return Breakdown{}, err
	}

	var discount Discount
	if in.Discount != nil {
		if !finite(in.Discount.Amount) || in.Discount.Amount < 0 {
			return Breakdown{}, apperrors.ValidationWithDetails("discount is invalid",
				map[string]string{"discount.amount": "must be a non-negative number"})
		}
		discount = *in.Discount
	}

	b := Breakdown{
		Currency:          r.Currency,
		BaseFare:          r.BaseFare,
		DistanceFare:      in.DistanceKm * r.RatePerKm,
		Surcharges:        []Surcharge{},
		VehicleMultiplier: vehicleMult,
		PackageMultiplier: 1,
		Discount:          discount,
	}

	// Multipliers compose on the running amount; each factor's increment is
	// recorded so the components add back up to the subtotal.
	running := b.BaseFare + b.DistanceFare
	apply := func(factor float64) float64 {
		inc := running * (factor - 1)
		running += inc
		return inc
	}
	surcharge := func(label string, factor float64) {
		if factor == 1 {
			return
		}
		b.Surcharges = append(b.Surcharges, Surcharge{Label: label, Amount: apply(factor)})
	}

	surcharge(LabelVehicleClass, vehicleMult)

	pr := r.Package
	pkg := in.Package
	if pkg.WeightKg > pr.HeavyWeightKg {
		b.PackageMultiplier *= pr.HeavyMultiplier
		b.WeightFare = apply(pr.HeavyMultiplier)
	}
	for _, f := range []struct {
		on     bool
		label  string
		factor float64
	}{
		{pkg.LongestSideCm() > pr.OversizeCm, LabelOversize, pr.OversizeMultiplier},
		{pkg.IsFragile, LabelFragile, pr.FragileMultiplier},
		{pkg.RequiresSpecialHandling, LabelSpecialHandling, pr.SpecialHandlingMultiplier},
		{pkg.TemperatureControlled, LabelTemperatureControl, pr.TemperatureControlledMultiplier},
		{pkg.DeclaredValue > pr.HighValueThreshold, LabelHighValue, pr.HighValueMultiplier},
	} {
		if f.on {
			b.PackageMultiplier *= f.factor
			surcharge(f.label, f.factor)
		}
	}

	b.UrgencyMultiplier = c.urgencyMultiplier(in.OrderType, in.Priority)
	b.PriorityFare = apply(b.UrgencyMultiplier)

	for _, ep := range []struct {
		side string
		typ  location.Type
	}{
		{"pickup", in.PickupType},
		{"dropoff", in.DropoffType},
	} {
		if amt := r.LocationSurcharges[ep.typ]; amt > 0 {
			b.Surcharges = append(b.Surcharges, Surcharge{Label: ep.side + "_" + string(ep.typ), Amount: amt})
			running += amt
		}
	}

	b.Subtotal = running
	b.InsuranceFee = insured * r.Insurance.Rate
	b.VAT = (b.Subtotal + b.InsuranceFee) * r.VATRate

	raw := b.Subtotal + b.InsuranceFee + b.VAT - b.Discount.Amount
	b.TotalAmount = Round(math.Max(0, raw), r.RoundingUnit)
	b.Rounding = b.TotalAmount - raw

	return b, nil
}

func (c *Calculator) vehicleMultiplier(types []vehicle.Type) (float64, error) {
	mult := 0.0
	for _, t := range types {
		m, ok := c.rates.VehicleMultipliers[t]
		if !ok {
			return 0, apperrors.Internal(fmt.Sprintf("no vehicle multiplier configured for %s", t))
		}
		mult = math.Max(mult, m)
	}
	return mult, nil
}

// urgencyMultiplier takes the larger of the order type and priority
// multipliers so an instant order with instant priority is charged once.
func (c *Calculator) urgencyMultiplier(ot OrderType, p Priority) float64 {
	return math.Max(
		multiplierOrOne(c.rates.Urgency.OrderTypes, ot),
		multiplierOrOne(c.rates.Urgency.Priorities, p),
	)
}

func (c *Calculator) insuredValue(in Input) (float64, error) {
	if !in.Insurance.IsInsured {
		return 0, nil
	}
	if in.Insurance.DeclaredValue < 0 {
		return 0, apperrors.InvalidInsuranceValue(in.Insurance.DeclaredValue, c.rates.Insurance.MinDeclaredValue)
	}
	dv := DeclaredInsuranceValue(in.Insurance, in.Package)
	if !finite(dv) || dv < c.rates.Insurance.MinDeclaredValue {
		return 0, apperrors.InvalidInsuranceValue(dv, c.rates.Insurance.MinDeclaredValue)
	}
	return dv, nil
}

func multiplierOrOne[K comparable](m map[K]float64, k K) float64 {
	if v, ok := m[k]; ok {
		return v
	}
	return 1
}
