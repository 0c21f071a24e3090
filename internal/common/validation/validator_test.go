package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidator_RequireString(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"valid string", "hello", false},
		{"empty string", "", true},
		{"whitespace only", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator()
			v.RequireString(tt.value, "name")

			if v.HasErrors() != tt.wantErr {
				t.Errorf("RequireString() hasError = %v, wantErr %v", v.HasErrors(), tt.wantErr)
			}
		})
	}
}

func TestValidator_RequireDuration(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"10s", false},
		{"1m30s", false},
		{"0s", true},
		{"-5s", true},
		{"soon", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			v := NewValidator().RequireDuration(tt.value, "KEY_FETCH_TIMEOUT")
			if v.HasErrors() != tt.wantErr {
				t.Errorf("RequireDuration(%q) hasError = %v, wantErr %v", tt.value, v.HasErrors(), tt.wantErr)
			}
		})
	}
}

func TestValidator_RequireOrigin(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"https://gosspublic.alicdn.com", false},
		{"http://gosspublic.alicdn.com/", false},
		{"http://127.0.0.1:8080", false},
		{"ftp://gosspublic.alicdn.com", true},
		{"https://gosspublic.alicdn.com/keys", true},
		{"https://user@gosspublic.alicdn.com", true},
		{"gosspublic.alicdn.com", true},
		{"https://", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			v := NewValidator().RequireOrigin(tt.value, "origin")
			if v.HasErrors() != tt.wantErr {
				t.Errorf("RequireOrigin(%q) hasError = %v, wantErr %v: %v", tt.value, v.HasErrors(), tt.wantErr, v.Error())
			}
		})
	}
}

func TestValidator_RangeAndPositive(t *testing.T) {
	v := NewValidator().
		RequireRange(70000, 1, 65535, "PORT").
		RequirePositive(0, "MAX_BODY_BYTES")

	if len(v.Errors()) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(v.Errors()))
	}
}

func TestValidator_Error(t *testing.T) {
	if err := NewValidator().Error(); err != nil {
		t.Errorf("empty validator should return nil, got %v", err)
	}

	single := NewValidatorWithPrefix("config").RequireString("", "PORT")
	if got := single.Error().Error(); got != "config: PORT is required" {
		t.Errorf("single error = %q", got)
	}

	custom := NewValidatorWithPrefix("config").Validate(func() error { return errors.New("TLS files must be set together") })
	if got := custom.Error().Error(); got != "config: TLS files must be set together" {
		t.Errorf("custom error = %q", got)
	}

	multi := NewValidator().
		RequireString("", "A").
		Validate(func() error { return errors.New("custom failure") }).
		ValidateIf(false, func() error { return errors.New("skipped") })
	got := multi.Error().Error()
	if !strings.HasPrefix(got, "validation failed: ") || !strings.Contains(got, "custom failure") || strings.Contains(got, "skipped") {
		t.Errorf("combined error = %q", got)
	}
}
