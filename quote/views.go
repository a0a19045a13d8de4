package quote

import (
	"math"
	"slices"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/cobrun/quote-engine/eligibility"
	"github.com/cobrun/quote-engine/fare"
	"github.com/cobrun/quote-engine/location"
	"github.com/cobrun/quote-engine/vehicle"
)

var currencySymbols = map[string]string{
	"NGN": "₦",
	"GHS": "GH₵",
	"KES": "KSh ",
	"USD": "$",
}

var printer = message.NewPrinter(language.English)

// Money is a rounded amount with its display string.
type Money struct {
	Amount    float64 `json:"amount"`
	Formatted string  `json:"formatted"`
}

// Display is the customer-facing summary of a quote.
type Display struct {
	Currency        string `json:"currency"`
	DeliveryService Money  `json:"delivery_service"`
	Insurance       Money  `json:"insurance"`
	VAT             Money  `json:"vat"`
	Discount        Money  `json:"discount"`
	Total           Money  `json:"total"`
}

// Backend is the itemized breakdown kept for audit and settlement.
type Backend struct {
	Currency          string           `json:"currency"`
	BaseFare          float64          `json:"base_fare"`
	DistanceFare      float64          `json:"distance_fare"`
	WeightFare        float64          `json:"weight_fare"`
	PriorityFare      float64          `json:"priority_fare"`
	Surcharges        []fare.Surcharge `json:"surcharges"`
	Subtotal          float64          `json:"subtotal"`
	InsuranceFee      float64          `json:"insurance_fee"`
	VAT               float64          `json:"vat"`
	Discount          fare.Discount    `json:"discount"`
	Rounding          float64          `json:"rounding"`
	TotalAmount       float64          `json:"total_amount"`
	VehicleMultiplier float64          `json:"vehicle_multiplier"`
	PackageMultiplier float64          `json:"package_multiplier"`
	UrgencyMultiplier float64          `json:"urgency_multiplier"`
	DistanceKm        float64          `json:"distance_km"`
	PickupType        location.Type    `json:"pickup_type"`
	DropoffType       location.Type    `json:"dropoff_type"`
	PickupCell        string           `json:"pickup_cell"`
	DropoffCell       string           `json:"dropoff_cell"`
	RateCardVersion   string           `json:"rate_card_version"`
}

// View is the JSON shape returned to API callers.
type View struct {
	ID               string               `json:"id"`
	Fingerprint      string               `json:"fingerprint"`
	SelectedVehicle  vehicle.Type         `json:"selected_vehicle"`
	EligibleVehicles []eligibility.Option `json:"eligible_vehicles"`
	ComputedAt       time.Time            `json:"computed_at"`
	Display          Display              `json:"display"`
	Backend          Backend              `json:"backend"`
}

// Display returns the customer-facing summary. Each line is rounded to
// the whole currency unit; Total is the breakdown total, which was itself
// rounded once from the unrounded components.
func (q *Quote) Display() Display {
	b := q.Breakdown
	return Display{
		Currency:        b.Currency,
		DeliveryService: money(b.Currency, math.Round(b.Subtotal)),
		Insurance:       money(b.Currency, math.Round(b.InsuranceFee)),
		VAT:             money(b.Currency, math.Round(b.VAT)),
		Discount:        money(b.Currency, math.Round(b.Discount.Amount)),
		Total:           money(b.Currency, b.TotalAmount),
	}
}

// Backend returns the full breakdown with the quote's routing context.
func (q *Quote) Backend() Backend {
	b := q.Breakdown
	return Backend{
		Currency:          b.Currency,
		BaseFare:          b.BaseFare,
		DistanceFare:      b.DistanceFare,
		WeightFare:        b.WeightFare,
		PriorityFare:      b.PriorityFare,
		Surcharges:        slices.Clone(b.Surcharges),
		Subtotal:          b.Subtotal,
		InsuranceFee:      b.InsuranceFee,
		VAT:               b.VAT,
		Discount:          b.Discount,
		Rounding:          b.Rounding,
		TotalAmount:       b.TotalAmount,
		VehicleMultiplier: b.VehicleMultiplier,
		PackageMultiplier: b.PackageMultiplier,
		UrgencyMultiplier: b.UrgencyMultiplier,
		DistanceKm:        q.DistanceKm,
		PickupType:        q.PickupType,
		DropoffType:       q.DropoffType,
		PickupCell:        q.PickupCell,
		DropoffCell:       q.DropoffCell,
		RateCardVersion:   q.RateCardVersion,
	}
}

// View assembles both breakdowns for the API.
func (q *Quote) View() View {
	options := make([]eligibility.Option, len(q.EligibleVehicles))
	for i, o := range q.EligibleVehicles {
		o.ReasonsRejected = slices.Clone(o.ReasonsRejected)
		options[i] = o
	}
	return View{
		ID:               q.ID,
		Fingerprint:      q.Fingerprint,
		SelectedVehicle:  q.SelectedVehicle,
		EligibleVehicles: options,
		ComputedAt:       q.ComputedAt,
		Display:          q.Display(),
		Backend:          q.Backend(),
	}
}

func money(currency string, amount float64) Money {
	return Money{Amount: amount, Formatted: FormatAmount(currency, amount)}
}

// FormatAmount renders amount with the currency symbol and thousands
// grouping, e.g. "₦1,075". Unknown currencies are prefixed with their code.
func FormatAmount(currency string, amount float64) string {
	symbol, ok := currencySymbols[currency]
	if !ok {
		symbol = currency + " "
	}
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	if amount == math.Trunc(amount) {
		return sign + symbol + printer.Sprintf("%.0f", amount)
	}
	return sign + symbol + printer.Sprintf("%.2f", amount)
}
