// Package fixtures provides quote inputs for unit and handler tests.
package fixtures

import (
	"math"

	"github.com/cobrun/quote-engine/fare"
	"github.com/cobrun/quote-engine/geo"
	"github.com/cobrun/quote-engine/parcel"
	"github.com/cobrun/quote-engine/quote"
	"github.com/cobrun/quote-engine/vehicle"
)

// LocationFixture is a named place with a free-text address.
type LocationFixture struct {
	Point   geo.Point
	Address string
}

// Endpoint converts the fixture to a route endpoint.
func (l LocationFixture) Endpoint() quote.Endpoint {
	p := l.Point
	return quote.Endpoint{Point: &p, Address: l.Address}
}

// Common Lagos locations for testing.
var LagosLocations = struct {
	Yaba           LocationFixture
	IkejaCityMall  LocationFixture
	LUTH           LocationFixture
	VictoriaIsland LocationFixture
	Lekki          LocationFixture
	UNILAG         LocationFixture
}{
	Yaba: LocationFixture{
		Point:   geo.Point{Lat: 6.5095, Lng: 3.3711},
		Address: "12 Herbert Macaulay Way, Yaba, Lagos",
	},
	IkejaCityMall: LocationFixture{
		Point:   geo.Point{Lat: 6.6143, Lng: 3.3580},
		Address: "Ikeja City Mall, Obafemi Awolowo Way, Ikeja",
	},
	LUTH: LocationFixture{
		Point:   geo.Point{Lat: 6.5180, Lng: 3.3550},
		Address: "Lagos University Teaching Hospital, Idi-Araba",
	},
	VictoriaIsland: LocationFixture{
		Point:   geo.Point{Lat: 6.4281, Lng: 3.4219},
		Address: "Civic Tower, Ozumba Mbadiwe Avenue, Victoria Island",
	},
	Lekki: LocationFixture{
		Point:   geo.Point{Lat: 6.4474, Lng: 3.4723},
		Address: "5 Admiralty Way, Lekki Phase 1",
	},
	UNILAG: LocationFixture{
		Point:   geo.Point{Lat: 6.5158, Lng: 3.3896},
		Address: "University of Lagos, Akoka",
	},
}

// North returns the point km kilometers due north of from. Points on one
// meridian make the haversine distance exact up to rounding.
func North(from geo.Point, km float64) geo.Point {
	return geo.Point{Lat: from.Lat + km/geo.EarthRadiusKm*180/math.Pi, Lng: from.Lng}
}

// DocumentOrder is a 1 kg uninsured document sent km kilometers north of
// Yaba between two residential addresses.
func DocumentOrder(km float64) quote.OrderContext {
	pickup := LagosLocations.Yaba.Point
	dropoff := North(pickup, km)
	return quote.OrderContext{
		Package: parcel.Spec{
			WeightKg: 1,
			Category: parcel.CategoryDocument,
		},
		Route: quote.Route{
			Pickup: quote.Endpoint{
				Point:        &pickup,
				Address:      "12 Herbert Macaulay Way, Yaba",
				ContactName:  "Adaeze Okafor",
				ContactPhone: "+2348031234567",
			},
			Dropoff: quote.Endpoint{
				Point:        &dropoff,
				Address:      "7 Allen Avenue, Ikeja",
				ContactName:  "Tunde Bakare",
				ContactPhone: "+2348059876543",
			},
		},
		Priority:  fare.PriorityNormal,
		OrderType: fare.OrderTypeScheduled,
	}
}

// FragileElectronicsOrder is a 50 kg fragile, insured appliance sent
// 100 km. It fits a motorcycle by weight and volume.
func FragileElectronicsOrder() quote.OrderContext {
	order := DocumentOrder(100)
	order.Package = parcel.Spec{
		WeightKg:      50,
		Category:      parcel.CategoryElectronics,
		IsFragile:     true,
		DeclaredValue: 450000,
		Dimensions:    &parcel.Dimensions{Length: 60, Width: 40, Height: 40, Unit: parcel.UnitCentimeter},
	}
	order.Insurance = fare.Insurance{IsInsured: true}
	return order
}

// FoodOrder is a hot meal from Ikeja City Mall to a Lekki home.
func FoodOrder() quote.OrderContext {
	return quote.OrderContext{
		Package: parcel.Spec{WeightKg: 2, Category: parcel.CategoryFood, TemperatureControlled: true},
		Route: quote.Route{
			Pickup:  LagosLocations.IkejaCityMall.Endpoint(),
			Dropoff: LagosLocations.Lekki.Endpoint(),
		},
		Priority:              fare.PriorityInstant,
		OrderType:             fare.OrderTypeInstant,
		RequestedVehicleTypes: []vehicle.Type{vehicle.TypeMotorcycle, vehicle.TypeCar},
	}
}
