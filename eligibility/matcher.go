// Package eligibility decides which vehicles can carry a package over a
// route and ranks the ones that can.
package eligibility

import (
	"slices"
	"sort"
	"strings"

	apperrors "github.com/cobrun/quote-engine/errors"
	"github.com/cobrun/quote-engine/parcel"
	"github.com/cobrun/quote-engine/vehicle"
)

// Rejection reasons.
const (
	ReasonExceedsMaxWeight    = "exceeds_max_weight"
	ReasonExceedsMaxVolume    = "exceeds_max_volume"
	ReasonExceedsMaxDistance  = "exceeds_max_distance"
	ReasonFragileNotSupported = "fragile_not_supported"
	ReasonFoodNotSupported    = "food_not_supported"
	ReasonNotRequested        = "not_requested"
)

// Option is the verdict for one vehicle type.
type Option struct {
	Type            vehicle.Type `json:"type"`
	Eligible        bool         `json:"eligible"`
	ReasonsRejected []string     `json:"reasons_rejected,omitempty"`
	// Rank is 1 for the recommended vehicle and 0 for ineligible ones.
	Rank int `json:"rank"`
}

// Result holds every option, eligible ones first in rank order.
type Result struct {
	Options []Option `json:"options"`
}

// Selected returns the top-ranked vehicle.
func (r Result) Selected() vehicle.Type {
	return r.Options[0].Type
}

// Eligible returns the eligible vehicle types in rank order.
func (r Result) Eligible() []vehicle.Type {
	var out []vehicle.Type
	for _, o := range r.Options {
		if o.Eligible {
			out = append(out, o.Type)
		}
	}
	return out
}

// Match evaluates every profile in catalog against pkg and distanceKm.
// pkg must already be normalized. When requested is non-empty only those
// types can be eligible. It fails with NoEligibleVehicle when nothing
// qualifies; in that case no Result is returned.
func Match(catalog *vehicle.Catalog, pkg parcel.Spec, distanceKm float64, requested []vehicle.Type) (Result, error) {
	volume := pkg.VolumeLiters()
	hint := catalog.Hint(pkg.Category)

	var eligible, rejected []Option
	for _, p := range catalog.Profiles() {
		reasons := check(p, pkg, volume, distanceKm)
		if len(requested) > 0 && !slices.Contains(requested, p.Type) {
			reasons = append(reasons, ReasonNotRequested)
		}

		if len(reasons) > 0 {
			rejected = append(rejected, Option{Type: p.Type, ReasonsRejected: reasons})
			continue
		}
		eligible = append(eligible, Option{Type: p.Type, Eligible: true})
	}

	if len(eligible) == 0 {
		details := make(map[string]string, len(rejected))
		for _, o := range rejected {
			details[string(o.Type)] = strings.Join(o.ReasonsRejected, ",")
		}
		return Result{}, apperrors.NoEligibleVehicle(details)
	}

	rank(catalog, hint, pkg.IsFragile, eligible)
	for i := range eligible {
		eligible[i].Rank = i + 1
	}

	return Result{Options: append(eligible, rejected...)}, nil
}

// check returns every hard constraint p violates.
func check(p vehicle.Profile, pkg parcel.Spec, volumeL, distanceKm float64) []string {
	var reasons []string
	if pkg.WeightKg > p.MaxWeightKg {
		reasons = append(reasons, ReasonExceedsMaxWeight)
	}
	if volumeL > p.MaxVolumeL {
		reasons = append(reasons, ReasonExceedsMaxVolume)
	}
	if distanceKm > p.MaxDistanceKm {
		reasons = append(reasons, ReasonExceedsMaxDistance)
	}
	if pkg.IsFragile && p.Fragile == vehicle.FragileUnsupported {
		reasons = append(reasons, ReasonFragileNotSupported)
	}
	if pkg.Category == parcel.CategoryFood && !p.FoodOK {
		reasons = append(reasons, ReasonFoodNotSupported)
	}
	return reasons
}

// rank orders eligible options by, in priority:
//  1. full fragile support before limited support, for fragile packages
//  2. preferred, then neutral, then avoided for the category
//  3. cost tier ascending
//  4. catalog order
func rank(catalog *vehicle.Catalog, hint vehicle.Hint, fragile bool, opts []Option) {
	type key struct {
		limited, group, cost, order int
	}
	keys := make(map[vehicle.Type]key, len(opts))
	for _, o := range opts {
		p, _ := catalog.Profile(o.Type)
		k := key{cost: p.CostTier, order: catalog.Order(o.Type), group: 1}
		if fragile && p.Fragile == vehicle.FragileLimited {
			k.limited = 1
		}
		switch {
		case hint.Prefers(o.Type):
			k.group = 0
		case hint.Avoids(o.Type):
			k.group = 2
		}
		keys[o.Type] = k
	}

	sort.SliceStable(opts, func(i, j int) bool {
		a, b := keys[opts[i].Type], keys[opts[j].Type]
		if a.limited != b.limited {
			return a.limited < b.limited
		}
		if a.group != b.group {
			return a.group < b.group
		}
		if a.cost != b.cost {
			return a.cost < b.cost
		}
		return a.order < b.order
	})
}
