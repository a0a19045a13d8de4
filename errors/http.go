package errors

import (
	"encoding/json"
	"errors"
	"net/http"
)

var httpStatusMap = map[string]int{
	CodeInternal:              http.StatusInternalServerError,
	CodeNotFound:              http.StatusNotFound,
	CodeBadRequest:            http.StatusBadRequest,
	CodeUnauthorized:          http.StatusUnauthorized,
	CodeForbidden:             http.StatusForbidden,
	CodeValidation:            http.StatusBadRequest,
	CodeUnavailable:           http.StatusServiceUnavailable,
	CodeRateLimited:           http.StatusTooManyRequests,
	CodeInvalidCoordinates:    http.StatusBadRequest,
	CodeInvalidPackageSpec:    http.StatusBadRequest,
	CodeInvalidInsuranceValue: http.StatusBadRequest,
	CodeNoEligibleVehicle:     http.StatusUnprocessableEntity,
	CodeStaleQuote:            http.StatusConflict,
}

// ErrorResponse is the error envelope written by every handler.
type ErrorResponse struct {
	Error   ErrorBody `json:"error"`
	TraceID string    `json:"trace_id,omitempty"`
}

// ErrorBody contains the error details.
type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// HTTPStatus returns the HTTP status code for err.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if status, ok := httpStatusMap[appErr.Code]; ok {
			return status
		}
	}
	return http.StatusInternalServerError
}

// WriteError writes err as a JSON error envelope. Errors that are not
// AppErrors are reported as internal without leaking their text.
func WriteError(w http.ResponseWriter, err error, traceID string) {
	body := ErrorBody{Code: CodeInternal, Message: "An internal error occurred"}

	var appErr *AppError
	if errors.As(err, &appErr) {
		body = ErrorBody{Code: appErr.Code, Message: appErr.Message, Details: appErr.Details}
	}

	writeBody(w, HTTPStatus(err), ErrorResponse{Error: body, TraceID: traceID})
}

// WriteErrorWithStatus writes an error envelope with an explicit status.
func WriteErrorWithStatus(w http.ResponseWriter, status int, code, message string) {
	writeBody(w, status, ErrorResponse{Error: ErrorBody{Code: code, Message: message}})
}

func writeBody(w http.ResponseWriter, status int, resp ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
