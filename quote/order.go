// Package quote turns an order context into an immutable, fingerprinted
// price quote.
package quote

import (
	"github.com/cobrun/quote-engine/fare"
	"github.com/cobrun/quote-engine/geo"
	"github.com/cobrun/quote-engine/location"
	"github.com/cobrun/quote-engine/parcel"
	"github.com/cobrun/quote-engine/vehicle"
)

// Endpoint is one end of the route. Contact fields travel with the order
// but never affect the price or the fingerprint.
type Endpoint struct {
	Point        *geo.Point    `json:"point"`
	Address      string        `json:"address,omitempty" validate:"max=500"`
	LocationType location.Type `json:"location_type,omitempty" validate:"omitempty,oneof=residential hospital mall office school"`
	ContactName  string        `json:"contact_name,omitempty" validate:"max=200"`
	ContactPhone string        `json:"contact_phone,omitempty" validate:"max=32"`
}

// Route is the pickup and dropoff pair.
type Route struct {
	Pickup  Endpoint `json:"pickup"`
	Dropoff Endpoint `json:"dropoff"`
}

// Leg is a measured route. It is computed once per quote and shared by
// matching, pricing and fingerprinting so every step sees the same distance.
type Leg struct {
	DistanceKm  float64
	PickupType  location.Type
	DropoffType location.Type
}

// Measure validates both endpoints and computes the leg.
func (r Route) Measure() (Leg, error) {
	d, err := geo.DistanceKm(r.Pickup.Point, r.Dropoff.Point)
	if err != nil {
		return Leg{}, err
	}
	return Leg{
		DistanceKm:  d,
		PickupType:  location.Resolve(r.Pickup.LocationType, r.Pickup.Address),
		DropoffType: location.Resolve(r.Dropoff.LocationType, r.Dropoff.Address),
	}, nil
}

// OrderContext is everything a caller supplies to get a quote.
type OrderContext struct {
	Package               parcel.Spec    `json:"package"`
	Route                 Route          `json:"route"`
	Priority              fare.Priority  `json:"priority,omitempty" validate:"omitempty,oneof=normal urgent instant"`
	OrderType             fare.OrderType `json:"order_type,omitempty" validate:"omitempty,oneof=normal instant scheduled recurring"`
	Insurance             fare.Insurance `json:"insurance"`
	RequestedVehicleTypes []vehicle.Type `json:"requested_vehicle_types,omitempty" validate:"omitempty,max=6,dive,vehicle_type"`
	// Discount is decided by the promotions service and passed through.
	Discount *fare.Discount `json:"discount,omitempty"`
}

// priority returns the order's priority, defaulting to normal.
func (o OrderContext) priority() fare.Priority {
	if o.Priority == "" {
		return fare.PriorityNormal
	}
	return o.Priority
}

// orderType returns the order type with "normal" folded into unspecified.
func (o OrderContext) orderType() fare.OrderType {
	if o.OrderType == fare.OrderTypeNormal {
		return ""
	}
	return o.OrderType
}
