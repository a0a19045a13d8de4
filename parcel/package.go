// Package parcel describes the physical package being delivered and the
// normalization applied before it is matched or priced.
package parcel

import (
	"fmt"
	"math"

	apperrors "github.com/cobrun/quote-engine/errors"
)

// DefaultWeightKg is used when no positive weight is supplied.
const DefaultWeightKg = 1.0

// Category classifies the contents of a package.
type Category string

const (
	CategoryDocument    Category = "document"
	CategoryParcel      Category = "parcel"
	CategoryFood        Category = "food"
	CategoryGroceries   Category = "groceries"
	CategoryElectronics Category = "electronics"
	CategoryClothing    Category = "clothing"
	CategoryFurniture   Category = "furniture"
	CategoryMedical     Category = "medical"
)

// AllCategories returns every known category.
func AllCategories() []Category {
	return []Category{
		CategoryDocument,
		CategoryParcel,
		CategoryFood,
		CategoryGroceries,
		CategoryElectronics,
		CategoryClothing,
		CategoryFurniture,
		CategoryMedical,
	}
}

// IsValid checks if the category is known.
func (c Category) IsValid() bool {
	switch c {
	case CategoryDocument, CategoryParcel, CategoryFood, CategoryGroceries,
		CategoryElectronics, CategoryClothing, CategoryFurniture, CategoryMedical:
		return true
	}
	return false
}

// OrDefault maps unknown categories to parcel.
func (c Category) OrDefault() Category {
	if c.IsValid() {
		return c
	}
	return CategoryParcel
}

// Spec is a package as described by the sender.
type Spec struct {
	WeightKg                float64     `json:"weight_kg"`
	Dimensions              *Dimensions `json:"dimensions,omitempty"`
	Category                Category    `json:"category"`
	IsFragile               bool        `json:"is_fragile"`
	RequiresSpecialHandling bool        `json:"requires_special_handling"`
	TemperatureControlled   bool        `json:"temperature_controlled"`
	DeclaredValue           float64     `json:"declared_value"`
}

// Normalize returns a copy of s with defaults applied: a missing or
// non-positive weight becomes DefaultWeightKg and an unknown category
// becomes parcel. Values that cannot be priced are InvalidPackageSpec.
func (s Spec) Normalize() (Spec, error) {
	out := s

	if math.IsNaN(out.WeightKg) || math.IsInf(out.WeightKg, 0) {
		return Spec{}, apperrors.InvalidPackageSpec("weight_kg", "weight is not a finite number")
	}
	if out.WeightKg <= 0 {
		out.WeightKg = DefaultWeightKg
	}

	out.Category = out.Category.OrDefault()

	if math.IsNaN(out.DeclaredValue) || math.IsInf(out.DeclaredValue, 0) || out.DeclaredValue < 0 {
		return Spec{}, apperrors.InvalidPackageSpec("declared_value", "declared value must be a non-negative number")
	}

	if out.Dimensions != nil {
		dims, err := out.Dimensions.normalize()
		if err != nil {
			return Spec{}, err
		}
		out.Dimensions = dims
	}

	return out, nil
}

// VolumeLiters returns the package volume, or 0 when no dimensions are known.
func (s Spec) VolumeLiters() float64 {
	return VolumeLiters(s.Dimensions)
}

// LongestSideCm returns max(length, width) in centimeters. Height is not
// considered, matching the oversize rule.
func (s Spec) LongestSideCm() float64 {
	if s.Dimensions == nil {
		return 0
	}
	l, w, _ := s.Dimensions.Centimeters()
	return math.Max(l, w)
}

func (s Spec) String() string {
	return fmt.Sprintf("%s %.2fkg fragile=%t", s.Category, s.WeightKg, s.IsFragile)
}
