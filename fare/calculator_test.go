package fare

import (
	"math"
	"testing"

	apperrors "github.com/cobrun/quote-engine/errors"
	"github.com/cobrun/quote-engine/location"
	"github.com/cobrun/quote-engine/parcel"
	"github.com/cobrun/quote-engine/vehicle"
)

const epsilon = 1e-6

func newCalculator(t *testing.T) *Calculator {
	t.Helper()
	c, err := NewCalculator(DefaultRates())
	if err != nil {
		t.Fatalf("NewCalculator() error = %v", err)
	}
	return c
}

func documentInput() Input {
	return Input{
		Package:    parcel.Spec{WeightKg: 1, Category: parcel.CategoryDocument},
		DistanceKm: 10,
		Vehicles:   []vehicle.Type{vehicle.TypeMotorcycle},
		Priority:   PriorityNormal,
	}
}

func assertClose(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestPrice_Examples(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(*Input)
		wantSubtotal float64
		wantIns      float64
		wantVAT      float64
		wantTotal    float64
	}{
		{
			name:         "document, 10 km, normal",
			mutate:       func(*Input) {},
			wantSubtotal: 1000,
			wantVAT:      75,
			wantTotal:    1075,
		},
		{
			name:         "document, 10 km, instant order",
			mutate:       func(in *Input) { in.OrderType = OrderTypeInstant },
			wantSubtotal: 1200,
			wantVAT:      90,
			wantTotal:    1290,
		},
		{
			name: "document, 10 km, insured at 10000",
			mutate: func(in *Input) {
				in.Insurance = Insurance{IsInsured: true, DeclaredValue: 10000}
			},
			wantSubtotal: 1000,
			wantIns:      200,
			wantVAT:      90,
			wantTotal:    1290,
		},
	}

	c := newCalculator(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := documentInput()
			tt.mutate(&in)

			b, err := c.Price(in)
			if err != nil {
				t.Fatalf("Price() error = %v", err)
			}
			assertClose(t, "BaseFare", b.BaseFare, 500)
			assertClose(t, "DistanceFare", b.DistanceFare, 500)
			assertClose(t, "Subtotal", b.Subtotal, tt.wantSubtotal)
			assertClose(t, "InsuranceFee", b.InsuranceFee, tt.wantIns)
			assertClose(t, "VAT", b.VAT, tt.wantVAT)
			if b.TotalAmount != tt.wantTotal {
				t.Errorf("TotalAmount = %v, want %v", b.TotalAmount, tt.wantTotal)
			}
			if b.Currency != "NGN" {
				t.Errorf("Currency = %s, want NGN", b.Currency)
			}
		})
	}
}

func TestPrice_InstantPriorityChargedOnce(t *testing.T) {
	in := documentInput()
	in.OrderType = OrderTypeInstant
	in.Priority = PriorityInstant

	b, err := newCalculator(t).Price(in)
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}
	assertClose(t, "UrgencyMultiplier", b.UrgencyMultiplier, 1.2)
	assertClose(t, "PriorityFare", b.PriorityFare, 200)
}

func TestPrice_PackageMultipliers(t *testing.T) {
	in := documentInput()
	in.Vehicles = []vehicle.Type{vehicle.TypeCar}
	in.Package = parcel.Spec{
		WeightKg:                25,
		Category:                parcel.CategoryElectronics,
		Dimensions:              &parcel.Dimensions{Length: 120, Width: 40, Height: 40, Unit: parcel.UnitCentimeter},
		IsFragile:               true,
		RequiresSpecialHandling: true,
		TemperatureControlled:   true,
		DeclaredValue:           250000,
	}

	b, err := newCalculator(t).Price(in)
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}

	wantPkg := 1.3 * 1.2 * 1.15 * 1.25 * 1.4 * 1.1
	assertClose(t, "PackageMultiplier", b.PackageMultiplier, wantPkg)
	assertClose(t, "Subtotal", b.Subtotal, 1000*1.3*wantPkg)
	// weight is applied right after the vehicle class
	assertClose(t, "WeightFare", b.WeightFare, 1000*1.3*0.3)

	labels := map[string]bool{}
	for _, s := range b.Surcharges {
		labels[s.Label] = true
	}
	for _, want := range []string{LabelVehicleClass, LabelOversize, LabelFragile, LabelSpecialHandling, LabelTemperatureControl, LabelHighValue} {
		if !labels[want] {
			t.Errorf("surcharges missing %s: %+v", want, b.Surcharges)
		}
	}
}

func TestPrice_ComponentsAddUp(t *testing.T) {
	inputs := []Input{
		documentInput(),
		{
			Package:     parcel.Spec{WeightKg: 45, Category: parcel.CategoryParcel, IsFragile: true, DeclaredValue: 150000},
			DistanceKm:  37.3,
			Vehicles:    []vehicle.Type{vehicle.TypeBicycle, vehicle.TypeVan},
			Priority:    PriorityUrgent,
			OrderType:   OrderTypeInstant,
			Insurance:   Insurance{IsInsured: true},
			PickupType:  location.TypeHospital,
			DropoffType: location.TypeMall,
			Discount:    &Discount{Amount: 333.33, Code: "LAGOS10"},
		},
		{
			Package:    parcel.Spec{WeightKg: 1, Category: parcel.CategoryDocument},
			DistanceKm: 1.234,
			Vehicles:   []vehicle.Type{vehicle.TypeBicycle},
		},
	}

	rates := DefaultRates()
	rates.LocationSurcharges = map[location.Type]float64{location.TypeHospital: 150}
	c, err := NewCalculator(rates)
	if err != nil {
		t.Fatalf("NewCalculator() error = %v", err)
	}

	for i, in := range inputs {
		b, err := c.Price(in)
		if err != nil {
			t.Fatalf("input %d: Price() error = %v", i, err)
		}
		if math.Abs(b.ComponentSum()-b.TotalAmount) > epsilon {
			t.Errorf("input %d: components sum to %v, total is %v", i, b.ComponentSum(), b.TotalAmount)
		}
		parts := b.BaseFare + b.DistanceFare + b.WeightFare + b.PriorityFare + b.SurchargeTotal()
		if math.Abs(parts-b.Subtotal) > epsilon {
			t.Errorf("input %d: subtotal %v, parts %v", i, b.Subtotal, parts)
		}
		if b.TotalAmount != Round(b.TotalAmount, 1) {
			t.Errorf("input %d: total %v not rounded to whole naira", i, b.TotalAmount)
		}
	}
}

func TestPrice_UsesMaxVehicleMultiplier(t *testing.T) {
	in := documentInput()
	in.Vehicles = []vehicle.Type{vehicle.TypeBicycle, vehicle.TypeVan, vehicle.TypeMotorcycle}

	b, err := newCalculator(t).Price(in)
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}
	assertClose(t, "VehicleMultiplier", b.VehicleMultiplier, 1.6)
	assertClose(t, "Subtotal", b.Subtotal, 1600)
}

func TestPrice_CheaperVehicleHasNegativeAdjustment(t *testing.T) {
	in := documentInput()
	in.Vehicles = []vehicle.Type{vehicle.TypeBicycle}

	b, err := newCalculator(t).Price(in)
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}
	if len(b.Surcharges) != 1 || b.Surcharges[0].Label != LabelVehicleClass {
		t.Fatalf("Surcharges = %+v, want a single vehicle_class entry", b.Surcharges)
	}
	assertClose(t, "vehicle_class", b.Surcharges[0].Amount, -200)
}

func TestPrice_Insurance(t *testing.T) {
	c := newCalculator(t)

	t.Run("below minimum", func(t *testing.T) {
		in := documentInput()
		in.Insurance = Insurance{IsInsured: true, DeclaredValue: 999}
		if _, err := c.Price(in); !apperrors.IsInvalidInsuranceValue(err) {
			t.Errorf("Price() error = %v, want %s", err, apperrors.CodeInvalidInsuranceValue)
		}
	})

	t.Run("zero value with nothing declared on package", func(t *testing.T) {
		in := documentInput()
		in.Insurance = Insurance{IsInsured: true}
		if _, err := c.Price(in); !apperrors.IsInvalidInsuranceValue(err) {
			t.Errorf("Price() error = %v, want %s", err, apperrors.CodeInvalidInsuranceValue)
		}
	})

	t.Run("falls back to package declared value", func(t *testing.T) {
		in := documentInput()
		in.Package.DeclaredValue = 5000
		in.Insurance = Insurance{IsInsured: true}
		b, err := c.Price(in)
		if err != nil {
			t.Fatalf("Price() error = %v", err)
		}
		assertClose(t, "InsuranceFee", b.InsuranceFee, 100)
	})

	t.Run("not insured ignores value", func(t *testing.T) {
		in := documentInput()
		in.Insurance = Insurance{IsInsured: false, DeclaredValue: 10}
		b, err := c.Price(in)
		if err != nil {
			t.Fatalf("Price() error = %v", err)
		}
		if b.InsuranceFee != 0 {
			t.Errorf("InsuranceFee = %v, want 0", b.InsuranceFee)
		}
	})
}

func TestPrice_DiscountFloorsAtZero(t *testing.T) {
	in := documentInput()
	in.Discount = &Discount{Amount: 5000, Code: "FREEDELIVERY", Reason: "launch promo"}

	b, err := newCalculator(t).Price(in)
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}
	if b.TotalAmount != 0 {
		t.Errorf("TotalAmount = %v, want 0", b.TotalAmount)
	}
	if b.Discount.Code != "FREEDELIVERY" || b.Discount.Reason != "launch promo" {
		t.Errorf("Discount = %+v, want passed through", b.Discount)
	}
	assertClose(t, "ComponentSum", b.ComponentSum(), 0)
}

func TestPrice_NegativeDiscountRejected(t *testing.T) {
	in := documentInput()
	in.Discount = &Discount{Amount: -1}
	if _, err := newCalculator(t).Price(in); !apperrors.IsValidation(err) {
		t.Errorf("Price() error = %v, want validation error", err)
	}
}

func TestPrice_MonotonicInDistance(t *testing.T) {
	c := newCalculator(t)
	in := documentInput()

	prev := -1.0
	for d := 0.0; d <= 150; d += 0.7 {
		in.DistanceKm = d
		b, err := c.Price(in)
		if err != nil {
			t.Fatalf("Price(%v km) error = %v", d, err)
		}
		if b.TotalAmount < prev {
			t.Fatalf("total decreased from %v to %v at %v km", prev, b.TotalAmount, d)
		}
		if b.TotalAmount < 0 {
			t.Fatalf("negative total %v", b.TotalAmount)
		}
		prev = b.TotalAmount
	}
}

func TestPrice_MonotonicInWeight(t *testing.T) {
	c := newCalculator(t)
	in := documentInput()
	in.Vehicles = []vehicle.Type{vehicle.TypeVan}

	prev := -1.0
	for w := 0.5; w <= 100; w += 0.5 {
		in.Package.WeightKg = w
		b, err := c.Price(in)
		if err != nil {
			t.Fatalf("Price(%v kg) error = %v", w, err)
		}
		if b.TotalAmount < prev {
			t.Fatalf("total decreased from %v to %v at %v kg", prev, b.TotalAmount, w)
		}
		prev = b.TotalAmount
	}
}

func TestPrice_Errors(t *testing.T) {
	c := newCalculator(t)

	in := documentInput()
	in.Vehicles = nil
	if _, err := c.Price(in); apperrors.Code(err) != apperrors.CodeInternal {
		t.Errorf("no vehicles: error = %v, want internal", err)
	}

	in = documentInput()
	in.DistanceKm = math.NaN()
	if _, err := c.Price(in); !apperrors.IsInvalidCoordinates(err) {
		t.Errorf("NaN distance: error = %v, want %s", err, apperrors.CodeInvalidCoordinates)
	}

	in = documentInput()
	in.Vehicles = []vehicle.Type{"hovercraft"}
	if _, err := c.Price(in); err == nil {
		t.Error("unknown vehicle: error = nil")
	}
}

func TestRates_Validate(t *testing.T) {
	if err := DefaultRates().Validate(); err != nil {
		t.Fatalf("DefaultRates().Validate() error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Rates)
	}{
		{"bad currency", func(r *Rates) { r.Currency = "NAIRA" }},
		{"negative base fare", func(r *Rates) { r.BaseFare = -1 }},
		{"vat above one", func(r *Rates) { r.VATRate = 7.5 }},
		{"zero rounding unit", func(r *Rates) { r.RoundingUnit = 0 }},
		{"zero vehicle multiplier", func(r *Rates) { r.VehicleMultipliers[vehicle.TypeCar] = 0 }},
		{"negative urgency", func(r *Rates) { r.Urgency.Priorities[PriorityUrgent] = -1.1 }},
		{"NaN fragile multiplier", func(r *Rates) { r.Package.FragileMultiplier = math.NaN() }},
		{"unknown location surcharge", func(r *Rates) {
			r.LocationSurcharges = map[location.Type]float64{"airport": 100}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := DefaultRates()
			tt.mutate(&r)
			if err := r.Validate(); err == nil {
				t.Error("Validate() error = nil, want error")
			}
			if _, err := NewCalculator(r); err == nil {
				t.Error("NewCalculator() accepted invalid rates")
			}
		})
	}
}

func TestRates_Covers(t *testing.T) {
	r := DefaultRates()
	if err := r.Covers(vehicle.AllTypes()); err != nil {
		t.Errorf("Covers(all) error = %v", err)
	}
	delete(r.VehicleMultipliers, vehicle.TypeTruck)
	if err := r.Covers(vehicle.AllTypes()); err == nil {
		t.Error("Covers() should report the missing truck multiplier")
	}
}

func TestCalculator_RatesAreCopied(t *testing.T) {
	rates := DefaultRates()
	calc, err := NewCalculator(rates)
	if err != nil {
		t.Fatalf("NewCalculator() error = %v", err)
	}

	rates.VehicleMultipliers[vehicle.TypeMotorcycle] = 5
	rates.Urgency.OrderTypes[OrderTypeInstant] = 5
	got := calc.Rates()
	got.VehicleMultipliers[vehicle.TypeMotorcycle] = 7
	got.Urgency.Priorities[PriorityInstant] = 7

	current := calc.Rates()
	if v := current.VehicleMultipliers[vehicle.TypeMotorcycle]; v != 1.0 {
		t.Errorf("motorcycle multiplier = %v, want 1", v)
	}
	if v := current.Urgency.OrderTypes[OrderTypeInstant]; v != 1.2 {
		t.Errorf("instant order type multiplier = %v, want 1.2", v)
	}
	if v := current.Urgency.Priorities[PriorityInstant]; v != 1.2 {
		t.Errorf("instant priority multiplier = %v, want 1.2", v)
	}
}
