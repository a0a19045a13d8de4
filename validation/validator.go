// Package validation provides input validation utilities.
package validation

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/cobrun/quote-engine/errors"
	"github.com/cobrun/quote-engine/logging"
	"github.com/cobrun/quote-engine/vehicle"
)

// MaxBodyBytes caps request bodies read by DecodeAndValidate.
const MaxBodyBytes = 1 << 20

var (
	validate *validator.Validate
	once     sync.Once
)

// GetValidator returns the singleton validator instance.
func GetValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Use JSON tag names for error messages
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		registerCustomValidations(validate)
	})

	return validate
}

func registerCustomValidations(v *validator.Validate) {
	v.RegisterValidation("latitude", validateLatitude)
	v.RegisterValidation("longitude", validateLongitude)
	v.RegisterValidation("vehicle_type", validateVehicleType)
	v.RegisterValidation("currency", validateCurrency)
}

func validateLatitude(fl validator.FieldLevel) bool {
	lat := fl.Field().Float()
	return lat >= -90 && lat <= 90
}

func validateLongitude(fl validator.FieldLevel) bool {
	lng := fl.Field().Float()
	return lng >= -180 && lng <= 180
}

func validateVehicleType(fl validator.FieldLevel) bool {
	return vehicle.Type(fl.Field().String()).IsValid()
}

// Currencies the platform settles in.
var validCurrencies = map[string]bool{
	"NGN": true,
	"GHS": true,
	"KES": true,
	"USD": true,
}

func validateCurrency(fl validator.FieldLevel) bool {
	return validCurrencies[fl.Field().String()]
}

// Validate validates a struct and returns validation errors.
func Validate(s any) error {
	return GetValidator().Struct(s)
}

// ValidateVar validates a single variable.
func ValidateVar(field any, tag string) error {
	return GetValidator().Var(field, tag)
}

// ValidateStruct validates s and returns the per-field errors alongside
// an AppError suitable for the response.
func ValidateStruct(s any) (ValidationErrors, error) {
	err := Validate(s)
	if err == nil {
		return nil, nil
	}

	fields := ParseValidationErrors(err)
	if len(fields) == 0 {
		return nil, apperrors.BadRequest(err.Error())
	}
	return fields, apperrors.ValidationWithDetails("request validation failed", fields.Details())
}

// DecodeAndValidate decodes a JSON body into dst and validates it. On
// failure it writes the error response and returns false.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			apperrors.WriteErrorWithStatus(w, http.StatusUnsupportedMediaType,
				apperrors.CodeBadRequest, "Content-Type must be application/json")
			return false
		}
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		msg := "invalid JSON body"
		if errors.Is(err, io.EOF) {
			msg = "request body is empty"
		}
		apperrors.WriteError(w, apperrors.BadRequest(msg).WithDetail("decode", err.Error()), logging.TraceIDFromContext(r.Context()))
		return false
	}

	if _, err := ValidateStruct(dst); err != nil {
		apperrors.WriteError(w, err, logging.TraceIDFromContext(r.Context()))
		return false
	}
	return true
}

// ValidationError represents a single validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, e := range ve {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(e.Field)
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	return sb.String()
}

// Details maps each field to its message for an error response.
func (ve ValidationErrors) Details() map[string]string {
	details := make(map[string]string, len(ve))
	for _, e := range ve {
		details[e.Field] = e.Message
	}
	return details
}

// ParseValidationErrors converts validator.ValidationErrors to our format.
// Fields are reported by their JSON path, e.g. "package.category".
func ParseValidationErrors(err error) ValidationErrors {
	if err == nil {
		return nil
	}

	var validationErrors ValidationErrors

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, e := range ve {
			validationErrors = append(validationErrors, ValidationError{
				Field:   fieldPath(e.Namespace()),
				Message: getErrorMessage(e),
			})
		}
	}

	return validationErrors
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func getErrorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "latitude":
		return "must be a valid latitude (-90 to 90)"
	case "longitude":
		return "must be a valid longitude (-180 to 180)"
	case "vehicle_type":
		return "must be one of: bicycle, motorcycle, tricycle, car, van, truck"
	case "currency":
		return "must be a supported currency code"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "len":
		return "must be exactly " + e.Param() + " characters"
	default:
		return "is invalid"
	}
}
