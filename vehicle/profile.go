package vehicle

import "fmt"

// Fragility is how well a vehicle handles fragile packages.
type Fragility string

const (
	FragileUnsupported Fragility = "unsupported"
	// FragileLimited vehicles may carry fragile packages but are ranked
	// below vehicles with full support.
	FragileLimited   Fragility = "limited"
	FragileSupported Fragility = "supported"
)

// IsValid checks if the fragility level is known.
func (f Fragility) IsValid() bool {
	switch f {
	case FragileUnsupported, FragileLimited, FragileSupported:
		return true
	}
	return false
}

// Profile holds the hard limits and soft ranking attributes of a vehicle type.
type Profile struct {
	Type          Type      `json:"type" mapstructure:"type"`
	MaxWeightKg   float64   `json:"max_weight_kg" mapstructure:"max_weight_kg"`
	MaxVolumeL    float64   `json:"max_volume_l" mapstructure:"max_volume_l"`
	MaxDistanceKm float64   `json:"max_distance_km" mapstructure:"max_distance_km"`
	Fragile       Fragility `json:"fragile" mapstructure:"fragile"`
	FoodOK        bool      `json:"food_ok" mapstructure:"food_ok"`
	SpeedTier     int       `json:"speed_tier" mapstructure:"speed_tier"`
	CostTier      int       `json:"cost_tier" mapstructure:"cost_tier"`
	Stability     int       `json:"stability" mapstructure:"stability"`
}

// Validate checks the profile's limits and tiers.
func (p Profile) Validate() error {
	switch {
	case !p.Type.IsValid():
		return fmt.Errorf("unknown vehicle type %q", p.Type)
	case p.MaxWeightKg <= 0:
		return fmt.Errorf("%s: max_weight_kg must be positive", p.Type)
	case p.MaxVolumeL <= 0:
		return fmt.Errorf("%s: max_volume_l must be positive", p.Type)
	case p.MaxDistanceKm <= 0:
		return fmt.Errorf("%s: max_distance_km must be positive", p.Type)
	case !p.Fragile.IsValid():
		return fmt.Errorf("%s: unknown fragile level %q", p.Type, p.Fragile)
	case p.SpeedTier < 1 || p.SpeedTier > 3:
		return fmt.Errorf("%s: speed_tier must be 1-3", p.Type)
	case p.CostTier < 1 || p.CostTier > 6:
		return fmt.Errorf("%s: cost_tier must be 1-6", p.Type)
	case p.Stability < 1 || p.Stability > 6:
		return fmt.Errorf("%s: stability must be 1-6", p.Type)
	}
	return nil
}
