// Package vehicle defines the vehicle classes a delivery can be assigned to
// and the immutable catalog of their capabilities.
package vehicle

// Type is a delivery vehicle class.
type Type string

const (
	TypeBicycle    Type = "bicycle"
	TypeMotorcycle Type = "motorcycle"
	TypeTricycle   Type = "tricycle" // keke
	TypeCar        Type = "car"
	TypeVan        Type = "van"
	TypeTruck      Type = "truck"
)

// AllTypes returns every vehicle type, cheapest first.
func AllTypes() []Type {
	return []Type{
		TypeBicycle,
		TypeMotorcycle,
		TypeTricycle,
		TypeCar,
		TypeVan,
		TypeTruck,
	}
}

// IsValid checks if the vehicle type is known.
func (t Type) IsValid() bool {
	switch t {
	case TypeBicycle, TypeMotorcycle, TypeTricycle, TypeCar, TypeVan, TypeTruck:
		return true
	}
	return false
}

func (t Type) String() string {
	return string(t)
}

// DisplayName returns a human-readable name for the vehicle type.
func (t Type) DisplayName() string {
	switch t {
	case TypeBicycle:
		return "Bicycle"
	case TypeMotorcycle:
		return "Motorcycle"
	case TypeTricycle:
		return "Tricycle"
	case TypeCar:
		return "Car"
	case TypeVan:
		return "Van"
	case TypeTruck:
		return "Truck"
	default:
		return "Unknown"
	}
}
