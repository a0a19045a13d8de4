package fare

import "math"

// Surcharge is a labelled adjustment inside the subtotal. Vehicle
// adjustments can be negative for classes cheaper than the reference.
type Surcharge struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// Surcharge labels.
const (
	LabelVehicleClass       = "vehicle_class"
	LabelOversize           = "oversize"
	LabelFragile            = "fragile"
	LabelSpecialHandling    = "special_handling"
	LabelTemperatureControl = "temperature_control"
	LabelHighValue          = "high_value"
)

// Discount is a reduction decided by an external promotion rule and passed
// through unchanged.
type Discount struct {
	Amount float64 `json:"amount"`
	Code   string  `json:"code,omitempty"`
	Reason string  `json:"reason,omitempty"`
}

// Breakdown is an itemized price. Components are unrounded; TotalAmount is
// rounded once, and Rounding records that adjustment together with any
// floor at zero, so that
//
//	TotalAmount = BaseFare + DistanceFare + WeightFare + PriorityFare +
//	              ΣSurcharges + InsuranceFee + VAT − Discount + Rounding
type Breakdown struct {
	Currency     string      `json:"currency"`
	BaseFare     float64     `json:"base_fare"`
	DistanceFare float64     `json:"distance_fare"`
	WeightFare   float64     `json:"weight_fare"`
	PriorityFare float64     `json:"priority_fare"`
	Surcharges   []Surcharge `json:"surcharges"`
	Subtotal     float64     `json:"subtotal"`
	InsuranceFee float64     `json:"insurance_fee"`
	VAT          float64     `json:"vat"`
	Discount     Discount    `json:"discount"`
	Rounding     float64     `json:"rounding"`
	TotalAmount  float64     `json:"total_amount"`

	VehicleMultiplier float64 `json:"vehicle_multiplier"`
	PackageMultiplier float64 `json:"package_multiplier"`
	UrgencyMultiplier float64 `json:"urgency_multiplier"`
}

// SurchargeTotal sums the surcharges.
func (b Breakdown) SurchargeTotal() float64 {
	var sum float64
	for _, s := range b.Surcharges {
		sum += s.Amount
	}
	return sum
}

// ComponentSum adds every component including Rounding. It equals
// TotalAmount up to floating-point error.
func (b Breakdown) ComponentSum() float64 {
	return b.BaseFare + b.DistanceFare + b.WeightFare + b.PriorityFare +
		b.SurchargeTotal() + b.InsuranceFee + b.VAT - b.Discount.Amount + b.Rounding
}

// Round rounds v to the nearest multiple of unit.
func Round(v, unit float64) float64 {
	return math.Round(v/unit) * unit
}
