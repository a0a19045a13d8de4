package vehicle

import "github.com/cobrun/quote-engine/parcel"

// DefaultProfiles returns the built-in fleet for Lagos operations.
func DefaultProfiles() []Profile {
	return []Profile{
		{Type: TypeBicycle, MaxWeightKg: 5, MaxVolumeL: 30, MaxDistanceKm: 15, Fragile: FragileUnsupported, FoodOK: true, SpeedTier: 1, CostTier: 1, Stability: 1},
		{Type: TypeMotorcycle, MaxWeightKg: 50, MaxVolumeL: 120, MaxDistanceKm: 150, Fragile: FragileLimited, FoodOK: true, SpeedTier: 3, CostTier: 2, Stability: 2},
		{Type: TypeTricycle, MaxWeightKg: 300, MaxVolumeL: 1000, MaxDistanceKm: 80, Fragile: FragileLimited, FoodOK: true, SpeedTier: 2, CostTier: 3, Stability: 3},
		{Type: TypeCar, MaxWeightKg: 200, MaxVolumeL: 600, MaxDistanceKm: 400, Fragile: FragileSupported, FoodOK: true, SpeedTier: 3, CostTier: 4, Stability: 4},
		{Type: TypeVan, MaxWeightKg: 1000, MaxVolumeL: 4000, MaxDistanceKm: 600, Fragile: FragileSupported, FoodOK: true, SpeedTier: 2, CostTier: 5, Stability: 5},
		{Type: TypeTruck, MaxWeightKg: 10000, MaxVolumeL: 30000, MaxDistanceKm: 1200, Fragile: FragileSupported, FoodOK: false, SpeedTier: 1, CostTier: 6, Stability: 6},
	}
}

// DefaultHints returns the built-in category ranking hints.
func DefaultHints() map[parcel.Category]Hint {
	return map[parcel.Category]Hint{
		parcel.CategoryDocument:    {Prefer: []Type{TypeMotorcycle}, Avoid: []Type{TypeVan, TypeTruck}},
		parcel.CategoryFood:        {Prefer: []Type{TypeMotorcycle, TypeBicycle}, Avoid: []Type{TypeTruck}},
		parcel.CategoryGroceries:   {Prefer: []Type{TypeMotorcycle, TypeCar}, Avoid: []Type{TypeTruck}},
		parcel.CategoryElectronics: {Prefer: []Type{TypeCar, TypeVan}, Avoid: []Type{TypeBicycle}},
		parcel.CategoryFurniture:   {Prefer: []Type{TypeVan, TypeTruck}, Avoid: []Type{TypeBicycle, TypeMotorcycle}},
		parcel.CategoryMedical:     {Prefer: []Type{TypeMotorcycle, TypeCar}},
		parcel.CategoryClothing:    {Prefer: []Type{TypeMotorcycle}},
	}
}

// DefaultCatalog builds the catalog from DefaultProfiles and DefaultHints.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultProfiles(), DefaultHints())
	if err != nil {
		panic("vehicle: invalid default catalog: " + err.Error())
	}
	return c
}
