package linkerror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorTypeString(t *testing.T) {
	tests := []struct {
		name string
		et   ErrorType
		want string
	}{
		{"io", ErrTypeIO, "I/O Error"},
		{"config", ErrTypeConfig, "Config Error"},
		{"radio", ErrTypeRadio, "Radio Error"},
		{"network", ErrTypeNetwork, "Network Error"},
		{"validation", ErrTypeValidation, "Validation Error"},
		{"timeout", ErrTypeTimeout, "Timeout"},
		{"unknown", ErrTypeUnknown, "Unknown Error"},
		{"out of range", ErrorType(42), "ErrorType(42)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.et.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorFormatting(t *testing.T) {
	cause := errors.New("device or resource busy")
	err := NewIOError("/dev/ttyUSB0", "failed to open serial port", cause)

	want := "I/O Error: failed to open serial port (caused by: device or resource busy)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should see through Unwrap to the cause")
	}
}

func TestErrorWithoutCause(t *testing.T) {
	err := NewValidationError("heater percent out of range")
	want := "Validation Error: heater percent out of range"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestClassifiers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"io is io", NewIOError("/dev/ttyUSB0", "open failed", nil), IsIOError, true},
		{"config is not io", NewConfigError("bad yaml", nil), IsIOError, false},
		{"config is config", NewConfigError("bad yaml", nil), IsConfigError, true},
		{"radio is radio", NewRadioError("reset failed", nil), IsRadioError, true},
		{"radio is retryable", NewRadioError("reset failed", nil), IsRetryable, true},
		{"validation not retryable", NewValidationError("bad value"), IsRetryable, false},
		{"plain error is nothing", errors.New("plain"), IsRetryable, false},
		{"wrapped still classifies", fmt.Errorf("outer: %w", NewRadioError("reset failed", nil)), IsRadioError, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.check(tt.err); got != tt.want {
				t.Errorf("check = %v, want %v", got, tt.want)
			}
		})
	}
}
