// Package geo provides the great-circle math and zone tagging used to
// measure a delivery route.
package geo

import (
	"fmt"
	"math"

	apperrors "github.com/cobrun/quote-engine/errors"
)

// EarthRadiusKm is the mean Earth radius used for every distance.
const EarthRadiusKm = 6371.0

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NewPoint creates a Point.
func NewPoint(lat, lng float64) Point {
	return Point{Lat: lat, Lng: lng}
}

// IsValid checks that both coordinates are finite and within range.
func (p Point) IsValid() bool {
	return p.validate() == ""
}

func (p Point) validate() string {
	switch {
	case math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0):
		return "latitude is not a finite number"
	case math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0):
		return "longitude is not a finite number"
	case p.Lat < -90 || p.Lat > 90:
		return fmt.Sprintf("latitude %.6f out of range [-90, 90]", p.Lat)
	case p.Lng < -180 || p.Lng > 180:
		return fmt.Sprintf("longitude %.6f out of range [-180, 180]", p.Lng)
	}
	return ""
}

// Validate returns an InvalidCoordinates error naming endpoint when p is
// missing or out of range.
func Validate(endpoint string, p *Point) error {
	if p == nil {
		return apperrors.InvalidCoordinates(endpoint, "coordinates are required")
	}
	if reason := p.validate(); reason != "" {
		return apperrors.InvalidCoordinates(endpoint, reason)
	}
	return nil
}

// DistanceKm returns the haversine distance between pickup and dropoff.
// A missing point is an error, never an implicit 0,0.
func DistanceKm(pickup, dropoff *Point) (float64, error) {
	if err := Validate("pickup", pickup); err != nil {
		return 0, err
	}
	if err := Validate("dropoff", dropoff); err != nil {
		return 0, err
	}
	return HaversineDistance(*pickup, *dropoff), nil
}

// HaversineDistance calculates the great-circle distance in kilometers.
// Inputs are assumed valid.
func HaversineDistance(p1, p2 Point) float64 {
	lat1 := degreesToRadians(p1.Lat)
	lat2 := degreesToRadians(p2.Lat)
	deltaLat := degreesToRadians(p2.Lat - p1.Lat)
	deltaLng := degreesToRadians(p2.Lng - p1.Lng)

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
