// Package fare turns a matched shipment into an itemized price.
package fare

import (
	"fmt"
	"maps"
	"math"

	"github.com/cobrun/quote-engine/location"
	"github.com/cobrun/quote-engine/vehicle"
)

// Priority is the service level requested by the sender.
type Priority string

const (
	PriorityNormal  Priority = "normal"
	PriorityUrgent  Priority = "urgent"
	PriorityInstant Priority = "instant"
)

// OrderType is how the order is scheduled.
type OrderType string

const (
	OrderTypeNormal    OrderType = "normal" // same as unspecified
	OrderTypeInstant   OrderType = "instant"
	OrderTypeScheduled OrderType = "scheduled"
	OrderTypeRecurring OrderType = "recurring"
)

// PackageRates holds the thresholds and multipliers driven by package traits.
type PackageRates struct {
	HeavyWeightKg                   float64 `json:"heavy_weight_kg" mapstructure:"heavy_weight_kg"`
	HeavyMultiplier                 float64 `json:"heavy_multiplier" mapstructure:"heavy_multiplier"`
	OversizeCm                      float64 `json:"oversize_cm" mapstructure:"oversize_cm"`
	OversizeMultiplier              float64 `json:"oversize_multiplier" mapstructure:"oversize_multiplier"`
	FragileMultiplier               float64 `json:"fragile_multiplier" mapstructure:"fragile_multiplier"`
	SpecialHandlingMultiplier       float64 `json:"special_handling_multiplier" mapstructure:"special_handling_multiplier"`
	TemperatureControlledMultiplier float64 `json:"temperature_controlled_multiplier" mapstructure:"temperature_controlled_multiplier"`
	HighValueThreshold              float64 `json:"high_value_threshold" mapstructure:"high_value_threshold"`
	HighValueMultiplier             float64 `json:"high_value_multiplier" mapstructure:"high_value_multiplier"`
}

// UrgencyRates maps order types and priorities to multipliers. Missing
// entries count as 1.0.
type UrgencyRates struct {
	OrderTypes map[OrderType]float64 `json:"order_types" mapstructure:"order_types"`
	Priorities map[Priority]float64  `json:"priorities" mapstructure:"priorities"`
}

// InsuranceRates configures the optional goods-in-transit cover.
type InsuranceRates struct {
	Rate             float64 `json:"rate" mapstructure:"rate"`
	MinDeclaredValue float64 `json:"min_declared_value" mapstructure:"min_declared_value"`
}

// Rates is every pricing constant. It is loaded from the rate card and
// treated as read-only once a Calculator holds it.
type Rates struct {
	Currency           string                    `json:"currency" mapstructure:"currency"`
	BaseFare           float64                   `json:"base_fare" mapstructure:"base_fare"`
	RatePerKm          float64                   `json:"rate_per_km" mapstructure:"rate_per_km"`
	VATRate            float64                   `json:"vat_rate" mapstructure:"vat_rate"`
	RoundingUnit       float64                   `json:"rounding_unit" mapstructure:"rounding_unit"`
	VehicleMultipliers map[vehicle.Type]float64  `json:"vehicle_multipliers" mapstructure:"vehicle_multipliers"`
	Package            PackageRates              `json:"package" mapstructure:"package"`
	Urgency            UrgencyRates              `json:"urgency" mapstructure:"urgency"`
	Insurance          InsuranceRates            `json:"insurance" mapstructure:"insurance"`
	LocationSurcharges map[location.Type]float64 `json:"location_surcharges,omitempty" mapstructure:"location_surcharges"`
}

// DefaultRates returns the Lagos launch rate card in naira.
func DefaultRates() Rates {
	return Rates{
		Currency:     "NGN",
		BaseFare:     500,
		RatePerKm:    50,
		VATRate:      0.075,
		RoundingUnit: 1,
		VehicleMultipliers: map[vehicle.Type]float64{
			vehicle.TypeBicycle:    0.8,
			vehicle.TypeMotorcycle: 1.0,
			vehicle.TypeTricycle:   1.1,
			vehicle.TypeCar:        1.3,
			vehicle.TypeVan:        1.6,
			vehicle.TypeTruck:      2.0,
		},
		Package: PackageRates{
			HeavyWeightKg:                   20,
			HeavyMultiplier:                 1.3,
			OversizeCm:                      100,
			OversizeMultiplier:              1.2,
			FragileMultiplier:               1.15,
			SpecialHandlingMultiplier:       1.25,
			TemperatureControlledMultiplier: 1.4,
			HighValueThreshold:              100000,
			HighValueMultiplier:             1.1,
		},
		Urgency: UrgencyRates{
			OrderTypes: map[OrderType]float64{OrderTypeInstant: 1.2},
			Priorities: map[Priority]float64{PriorityInstant: 1.2},
		},
		Insurance: InsuranceRates{
			Rate:             0.02,
			MinDeclaredValue: 1000,
		},
	}
}

// Clone returns a copy of r that shares no maps with it.
func (r Rates) Clone() Rates {
	r.VehicleMultipliers = maps.Clone(r.VehicleMultipliers)
	r.LocationSurcharges = maps.Clone(r.LocationSurcharges)
	r.Urgency.OrderTypes = maps.Clone(r.Urgency.OrderTypes)
	r.Urgency.Priorities = maps.Clone(r.Urgency.Priorities)
	return r
}

// Validate rejects rate cards that could produce negative or undefined prices.
func (r Rates) Validate() error {
	if len(r.Currency) != 3 {
		return fmt.Errorf("currency must be an ISO 4217 code, got %q", r.Currency)
	}

	nonNegative := map[string]float64{
		"base_fare":                    r.BaseFare,
		"rate_per_km":                  r.RatePerKm,
		"package.heavy_weight_kg":      r.Package.HeavyWeightKg,
		"package.oversize_cm":          r.Package.OversizeCm,
		"package.high_value_threshold": r.Package.HighValueThreshold,
		"insurance.min_declared_value": r.Insurance.MinDeclaredValue,
	}
	for name, v := range nonNegative {
		if !finite(v) || v < 0 {
			return fmt.Errorf("%s must be a non-negative number", name)
		}
	}

	fractions := map[string]float64{
		"vat_rate":       r.VATRate,
		"insurance.rate": r.Insurance.Rate,
	}
	for name, v := range fractions {
		if !finite(v) || v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0 and 1", name)
		}
	}

	if !finite(r.RoundingUnit) || r.RoundingUnit <= 0 {
		return fmt.Errorf("rounding_unit must be positive")
	}

	multipliers := map[string]float64{
		"package.heavy_multiplier":                  r.Package.HeavyMultiplier,
		"package.oversize_multiplier":               r.Package.OversizeMultiplier,
		"package.fragile_multiplier":                r.Package.FragileMultiplier,
		"package.special_handling_multiplier":       r.Package.SpecialHandlingMultiplier,
		"package.temperature_controlled_multiplier": r.Package.TemperatureControlledMultiplier,
		"package.high_value_multiplier":             r.Package.HighValueMultiplier,
	}
	for t, v := range r.VehicleMultipliers {
		multipliers["vehicle_multipliers."+string(t)] = v
	}
	for t, v := range r.Urgency.OrderTypes {
		multipliers["urgency.order_types."+string(t)] = v
	}
	for p, v := range r.Urgency.Priorities {
		multipliers["urgency.priorities."+string(p)] = v
	}
	for name, v := range multipliers {
		if !finite(v) || v <= 0 {
			return fmt.Errorf("%s must be a positive multiplier", name)
		}
	}

	for t, v := range r.LocationSurcharges {
		if !t.IsValid() {
			return fmt.Errorf("location_surcharges: unknown location type %q", t)
		}
		if !finite(v) || v < 0 {
			return fmt.Errorf("location_surcharges.%s must be non-negative", t)
		}
	}

	return nil
}

// Covers reports the first vehicle type in types that has no multiplier.
func (r Rates) Covers(types []vehicle.Type) error {
	for _, t := range types {
		if _, ok := r.VehicleMultipliers[t]; !ok {
			return fmt.Errorf("vehicle_multipliers has no entry for %s", t)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
