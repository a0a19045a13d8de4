package validation

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/cobrun/quote-engine/errors"
)

func TestValidateLatitude(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		wantErr bool
	}{
		{"lagos", 6.5244, false},
		{"negative", -33.8688, false},
		{"zero", 0, false},
		{"max", 90, false},
		{"min", -90, false},
		{"too high", 91, true},
		{"too low", -91, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVar(tt.lat, "latitude")
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateVar(%v, 'latitude') error = %v, wantErr %v", tt.lat, err, tt.wantErr)
			}
		})
	}
}

func TestValidateLongitude(t *testing.T) {
	tests := []struct {
		name    string
		lng     float64
		wantErr bool
	}{
		{"lagos", 3.3792, false},
		{"negative", -122.4194, false},
		{"max", 180, false},
		{"min", -180, false},
		{"too high", 181, true},
		{"too low", -181, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVar(tt.lng, "longitude")
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateVar(%v, 'longitude') error = %v, wantErr %v", tt.lng, err, tt.wantErr)
			}
		})
	}
}

func TestValidateVehicleType(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"bicycle", false},
		{"motorcycle", false},
		{"truck", false},
		{"Truck", true},
		{"okada", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			err := ValidateVar(tt.value, "vehicle_type")
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateVar(%q, 'vehicle_type') error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestValidateCurrency(t *testing.T) {
	for _, code := range []string{"NGN", "GHS", "KES", "USD"} {
		if err := ValidateVar(code, "currency"); err != nil {
			t.Errorf("ValidateVar(%q, 'currency') error = %v", code, err)
		}
	}
	for _, code := range []string{"ngn", "EUR", ""} {
		if err := ValidateVar(code, "currency"); err == nil {
			t.Errorf("ValidateVar(%q, 'currency') error = nil, want error", code)
		}
	}
}

type testItem struct {
	Category string `json:"category" validate:"required,oneof=document parcel"`
}

type testRequest struct {
	Currency string   `json:"currency" validate:"required,currency"`
	Vehicles []string `json:"vehicles" validate:"omitempty,dive,vehicle_type"`
	Item     testItem `json:"item"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name       string
		req        testRequest
		wantFields []string
	}{
		{
			name: "valid request",
			req:  testRequest{Currency: "NGN", Vehicles: []string{"car"}, Item: testItem{Category: "document"}},
		},
		{
			name:       "bad vehicle in list",
			req:        testRequest{Currency: "NGN", Vehicles: []string{"car", "jet"}, Item: testItem{Category: "parcel"}},
			wantFields: []string{"vehicles[1]"},
		},
		{
			name:       "nested field",
			req:        testRequest{Currency: "NGN", Item: testItem{Category: "livestock"}},
			wantFields: []string{"item.category"},
		},
		{
			name:       "missing required fields",
			req:        testRequest{},
			wantFields: []string{"currency", "item.category"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, err := ValidateStruct(tt.req)
			if (err != nil) != (len(tt.wantFields) > 0) {
				t.Fatalf("ValidateStruct() error = %v, want fields %v", err, tt.wantFields)
			}
			if err == nil {
				return
			}
			if !apperrors.IsValidation(err) {
				t.Errorf("ValidateStruct() code = %s, want %s", apperrors.Code(err), apperrors.CodeValidation)
			}
			details := fields.Details()
			for _, f := range tt.wantFields {
				if _, ok := details[f]; !ok {
					t.Errorf("ValidateStruct() details = %v, missing %s", details, f)
				}
			}
		})
	}
}

func TestDecodeAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		wantOK      bool
		wantStatus  int
	}{
		{
			name:        "valid request",
			body:        `{"currency": "NGN", "item": {"category": "document"}}`,
			contentType: "application/json",
			wantOK:      true,
		},
		{
			name:        "charset parameter",
			body:        `{"currency": "NGN", "item": {"category": "document"}}`,
			contentType: "application/json; charset=utf-8",
			wantOK:      true,
		},
		{
			name:        "invalid json",
			body:        `{"currency": invalid}`,
			contentType: "application/json",
			wantStatus:  http.StatusBadRequest,
		},
		{
			name:        "empty body",
			body:        ``,
			contentType: "application/json",
			wantStatus:  http.StatusBadRequest,
		},
		{
			name:        "unknown field",
			body:        `{"currency": "NGN", "item": {"category": "document"}, "tip": 100}`,
			contentType: "application/json",
			wantStatus:  http.StatusBadRequest,
		},
		{
			name:        "validation error",
			body:        `{"currency": "EUR", "item": {"category": "document"}}`,
			contentType: "application/json",
			wantStatus:  http.StatusBadRequest,
		},
		{
			name:        "wrong content type",
			body:        `currency=NGN`,
			contentType: "application/x-www-form-urlencoded",
			wantStatus:  http.StatusUnsupportedMediaType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/quotes", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()

			var dst testRequest
			ok := DecodeAndValidate(w, req, &dst)

			if ok != tt.wantOK {
				t.Errorf("DecodeAndValidate() = %v, want %v", ok, tt.wantOK)
			}
			if !ok && w.Code != tt.wantStatus {
				t.Errorf("DecodeAndValidate() status = %v, want %v", w.Code, tt.wantStatus)
			}
		})
	}
}
