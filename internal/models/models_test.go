package models_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/thinkier/dfr-io-hat/internal/models"
)

func ptr[T any](v T) *T { return &v }

func TestAppError_JSON(t *testing.T) {
	appErr := models.ErrBadRequestField("duty", "duty must be between 0 and 1")

	data, err := json.Marshal(appErr)
	if err != nil {
		t.Fatalf("json.Marshal(AppError): %v", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	if m["error"] != "BAD_REQUEST" {
		t.Errorf("error = %v, want BAD_REQUEST", m["error"])
	}
	if m["field"] != "duty" {
		t.Errorf("field = %v, want duty", m["field"])
	}
	if _, ok := m["status"]; ok {
		t.Error("AppError JSON should not contain 'status' field (json:\"-\")")
	}
}

func TestAppError_Constructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *models.AppError
		status int
		code   string
	}{
		{"NotFound", models.ErrNotFound("x"), 404, "NOT_FOUND"},
		{"BadRequest", models.ErrBadRequest("x"), 400, "BAD_REQUEST"},
		{"Internal", models.ErrInternal("x"), 500, "INTERNAL"},
		{"Conflict", models.ErrConflict("x"), 409, "CONFLICT"},
		{"Unavailable", models.ErrUnavailable("x"), 503, "HARDWARE_UNAVAILABLE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Status != tt.status {
				t.Errorf("Status = %d, want %d", tt.err.Status, tt.status)
			}
			if tt.err.Code != tt.code {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.code)
			}
			if tt.err.Error() != "x" {
				t.Errorf("Error() = %q, want x", tt.err.Error())
			}
		})
	}
}

func TestDefaultState(t *testing.T) {
	s := models.DefaultState()
	if s.PWM.Enabled || s.ADC.Enabled {
		t.Error("default state should have both blocks disabled")
	}
	if s.PWM.FreqHz != models.DefaultFreqHz {
		t.Errorf("FreqHz = %d, want %d", s.PWM.FreqHz, models.DefaultFreqHz)
	}
	for i, d := range s.PWM.Duty {
		if d != 0 {
			t.Errorf("Duty[%d] = %v, want 0", i, d)
		}
	}
	if err := s.Validate(); err != nil {
		t.Errorf("default state invalid: %v", err)
	}
}

func TestValidateFreq(t *testing.T) {
	tests := []struct {
		f  int
		ok bool
	}{
		{0, false},
		{1, true},
		{500, true},
		{1000, true},
		{1001, false},
		{-5, false},
	}
	for _, tt := range tests {
		if got := models.ValidateFreq(tt.f) == nil; got != tt.ok {
			t.Errorf("ValidateFreq(%d) ok = %v, want %v", tt.f, got, tt.ok)
		}
	}
}

func TestValidateDuty(t *testing.T) {
	tests := []struct {
		d  float64
		ok bool
	}{
		{0, true},
		{0.5, true},
		{1, true},
		{-0.01, false},
		{1.01, false},
		{math.NaN(), false},
		{math.Inf(1), false},
	}
	for _, tt := range tests {
		if got := models.ValidateDuty(tt.d) == nil; got != tt.ok {
			t.Errorf("ValidateDuty(%v) ok = %v, want %v", tt.d, got, tt.ok)
		}
	}
}

func TestPWMUpdate_Validate(t *testing.T) {
	tests := []struct {
		name  string
		u     models.PWMUpdate
		field string // "" means valid
	}{
		{"empty", models.PWMUpdate{}, ""},
		{"enable", models.PWMUpdate{Enabled: ptr(true)}, ""},
		{"freq ok", models.PWMUpdate{FreqHz: ptr(50)}, ""},
		{"freq high", models.PWMUpdate{FreqHz: ptr(2000)}, "freq_hz"},
		{"sparse duty", models.PWMUpdate{Duty: []*float64{nil, ptr(0.25)}}, ""},
		{"duty high", models.PWMUpdate{Duty: []*float64{ptr(1.5)}}, "duty"},
		{"too many", models.PWMUpdate{Duty: make([]*float64, 5)}, "duty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.u.Validate()
			if tt.field == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if err.Field != tt.field {
				t.Errorf("Field = %q, want %q", err.Field, tt.field)
			}
		})
	}
}

func TestDutyUpdate_Validate(t *testing.T) {
	if err := (models.DutyUpdate{}).Validate(); err == nil {
		t.Error("missing duty should be rejected")
	}
	if err := (models.DutyUpdate{Duty: ptr(0.75)}).Validate(); err != nil {
		t.Errorf("0.75: %v", err)
	}
}

func TestPWMUpdate_JSON(t *testing.T) {
	var u models.PWMUpdate
	if err := json.Unmarshal([]byte(`{"freq_hz":200,"duty":[null,0.5]}`), &u); err != nil {
		t.Fatal(err)
	}
	if u.Enabled != nil {
		t.Error("Enabled should be nil when absent")
	}
	if u.FreqHz == nil || *u.FreqHz != 200 {
		t.Errorf("FreqHz = %v, want 200", u.FreqHz)
	}
	if len(u.Duty) != 2 || u.Duty[0] != nil || *u.Duty[1] != 0.5 {
		t.Errorf("Duty decoded incorrectly: %v", u.Duty)
	}
}
