package errors

import "fmt"

// Quote engine error codes. All of them are terminal for the request that
// produced them; callers fix the input and ask again.
const (
	CodeInvalidCoordinates    = "INVALID_COORDINATES"
	CodeInvalidPackageSpec    = "INVALID_PACKAGE_SPEC"
	CodeNoEligibleVehicle     = "NO_ELIGIBLE_VEHICLE"
	CodeInvalidInsuranceValue = "INVALID_INSURANCE_VALUE"
	CodeStaleQuote            = "STALE_QUOTE"
)

// InvalidCoordinates reports a missing or out-of-range route point.
func InvalidCoordinates(endpoint, reason string) *AppError {
	return New(CodeInvalidCoordinates, fmt.Sprintf("%s coordinates are invalid", endpoint)).
		WithDetail(endpoint, reason)
}

// InvalidPackageSpec reports a package field that cannot be priced.
func InvalidPackageSpec(field, reason string) *AppError {
	return New(CodeInvalidPackageSpec, "package specification is invalid").
		WithDetail(field, reason)
}

// NoEligibleVehicle reports that no vehicle can carry the shipment. reasons
// maps each rejected vehicle type to its joined rejection reasons.
func NoEligibleVehicle(reasons map[string]string) *AppError {
	return New(CodeNoEligibleVehicle, "no vehicle can carry this package on this route").
		WithDetails(reasons)
}

// InvalidInsuranceValue reports a declared value below the insurable minimum.
func InvalidInsuranceValue(declared, minimum float64) *AppError {
	return New(CodeInvalidInsuranceValue,
		fmt.Sprintf("declared value %.2f is below the insurable minimum of %.2f", declared, minimum))
}

// StaleQuote reports a fingerprint that no longer matches the order.
func StaleQuote(expected, got string) *AppError {
	return New(CodeStaleQuote, "quote is stale, request a new quote").
		WithDetails(map[string]string{"expected": expected, "received": got})
}

// IsInvalidCoordinates checks if err is an invalid coordinates error.
func IsInvalidCoordinates(err error) bool { return hasCode(err, CodeInvalidCoordinates) }

// IsInvalidPackageSpec checks if err is an invalid package spec error.
func IsInvalidPackageSpec(err error) bool { return hasCode(err, CodeInvalidPackageSpec) }

// IsNoEligibleVehicle checks if err is a no eligible vehicle error.
func IsNoEligibleVehicle(err error) bool { return hasCode(err, CodeNoEligibleVehicle) }

// IsInvalidInsuranceValue checks if err is an invalid insurance value error.
func IsInvalidInsuranceValue(err error) bool { return hasCode(err, CodeInvalidInsuranceValue) }

// IsStaleQuote checks if err is a stale quote error.
func IsStaleQuote(err error) bool { return hasCode(err, CodeStaleQuote) }
