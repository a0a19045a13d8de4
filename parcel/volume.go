package parcel

import (
	"math"

	apperrors "github.com/cobrun/quote-engine/errors"
)

// Unit is a length unit for package dimensions.
type Unit string

const (
	UnitCentimeter Unit = "cm"
	UnitInch       Unit = "inch"
)

// CentimetersPerInch converts inches to centimeters.
const CentimetersPerInch = 2.54

// Dimensions are the outer sides of a package.
type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Unit   Unit    `json:"unit"`
}

// Centimeters returns the sides converted to centimeters. An empty unit is
// read as centimeters.
func (d Dimensions) Centimeters() (length, width, height float64) {
	factor := 1.0
	if d.Unit == UnitInch {
		factor = CentimetersPerInch
	}
	return d.Length * factor, d.Width * factor, d.Height * factor
}

// VolumeLiters converts dimensions to liters: l×w×h in cm³ divided by 1000.
// Missing dimensions yield 0.
func VolumeLiters(d *Dimensions) float64 {
	if d == nil {
		return 0
	}
	l, w, h := d.Centimeters()
	return l * w * h / 1000
}

func (d *Dimensions) normalize() (*Dimensions, error) {
	for _, side := range []struct {
		field string
		v     float64
	}{
		{"dimensions.length", d.Length},
		{"dimensions.width", d.Width},
		{"dimensions.height", d.Height},
	} {
		if math.IsNaN(side.v) || math.IsInf(side.v, 0) || side.v < 0 {
			return nil, apperrors.InvalidPackageSpec(side.field, "dimension must be a non-negative number")
		}
	}

	switch d.Unit {
	case "", UnitCentimeter:
		return &Dimensions{Length: d.Length, Width: d.Width, Height: d.Height, Unit: UnitCentimeter}, nil
	case UnitInch:
		l, w, h := d.Centimeters()
		return &Dimensions{Length: l, Width: w, Height: h, Unit: UnitCentimeter}, nil
	default:
		return nil, apperrors.InvalidPackageSpec("dimensions.unit", "unit must be cm or inch")
	}
}
