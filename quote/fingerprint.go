package quote

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strconv"
	"strings"

	"github.com/cobrun/quote-engine/fare"
	"github.com/cobrun/quote-engine/geo"
	"github.com/cobrun/quote-engine/parcel"
	"github.com/cobrun/quote-engine/vehicle"
)

// Fingerprint returns a 16 hex character digest of every input that
// affects the price of order on leg under the given rate card version.
// Map iteration, field order and requested vehicle order do not matter;
// contact details and raw address text are not included.
func Fingerprint(order OrderContext, leg Leg, rateCardVersion string) (string, error) {
	pkg, err := order.Package.Normalize()
	if err != nil {
		return "", err
	}

	fields := map[string]string{
		"pickup.lat":  coord(order.Route.Pickup.Point, true),
		"pickup.lng":  coord(order.Route.Pickup.Point, false),
		"pickup.type": string(leg.PickupType),

		"dropoff.lat":  coord(order.Route.Dropoff.Point, true),
		"dropoff.lng":  coord(order.Route.Dropoff.Point, false),
		"dropoff.type": string(leg.DropoffType),

		"package.weight_kg":              num(pkg.WeightKg, 3),
		"package.dimensions_cm":          dims(pkg),
		"package.category":               string(pkg.Category),
		"package.fragile":                strconv.FormatBool(pkg.IsFragile),
		"package.special_handling":       strconv.FormatBool(pkg.RequiresSpecialHandling),
		"package.temperature_controlled": strconv.FormatBool(pkg.TemperatureControlled),
		"package.declared_value":         num(pkg.DeclaredValue, 2),

		"insurance.insured": strconv.FormatBool(order.Insurance.IsInsured),
		"insurance.value":   "0",

		"priority":   string(order.priority()),
		"order_type": string(order.orderType()),
		"vehicles":   requested(order.RequestedVehicleTypes),

		"discount.code":   "",
		"discount.amount": "0",

		"ratecard.version": rateCardVersion,
	}
	if order.Insurance.IsInsured {
		fields["insurance.value"] = num(fare.DeclaredInsuranceValue(order.Insurance, pkg), 2)
	}
	if order.Discount != nil {
		fields["discount.code"] = order.Discount.Code
		fields["discount.amount"] = num(order.Discount.Amount, 2)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(fields[k])
		sb.WriteByte('\n')
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:8]), nil
}

func coord(p *geo.Point, lat bool) string {
	if p == nil {
		return ""
	}
	if lat {
		return num(p.Lat, 6)
	}
	return num(p.Lng, 6)
}

func num(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func dims(pkg parcel.Spec) string {
	if pkg.Dimensions == nil {
		return "none"
	}
	l, w, h := pkg.Dimensions.Centimeters()
	return num(l, 2) + "x" + num(w, 2) + "x" + num(h, 2)
}

func requested(types []vehicle.Type) string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, string(t))
	}
	slices.Sort(out)
	return strings.Join(slices.Compact(out), ",")
}
