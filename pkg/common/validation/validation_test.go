package validation

import (
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/vnykmshr/prioflow/pkg/common/errors"
)

func TestValidatePositive(t *testing.T) {
	tests := []struct {
		name      string
		value     int
		wantError bool
	}{
		{"positive value", 10, false},
		{"positive value 1", 1, false},
		{"zero value", 0, true},
		{"negative value", -1, true},
		{"large negative", -1000000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePositive("test", "count", tt.value)
			if tt.wantError {
				if !errors.IsValidationError(err) {
					t.Errorf("expected ValidationError, got %T", err)
				}
			} else if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidateNonNegative(t *testing.T) {
	tests := []struct {
		name      string
		value     int
		wantError bool
	}{
		{"zero", 0, false},
		{"positive", 4, false},
		{"negative", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNonNegative("workerpool", "WorkerCount", tt.value)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateNonNegative(%d) error = %v, wantError %v", tt.value, err, tt.wantError)
			}
		})
	}
}

func TestValidatePositiveFloat(t *testing.T) {
	if err := ValidatePositiveFloat("pacer", "fps", 60); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidatePositiveFloat("pacer", "fps", 0); err == nil {
		t.Error("expected error for zero")
	}
	if err := ValidatePositiveFloat("pacer", "fps", -0.5); err == nil {
		t.Error("expected error for negative")
	}
}

func TestValidatePositiveDuration(t *testing.T) {
	if err := ValidatePositiveDuration("scheduler", "TickInterval", time.Millisecond); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	err := ValidatePositiveDuration("scheduler", "TickInterval", 0)
	if err == nil {
		t.Fatal("expected error for zero duration")
	}
	if !strings.Contains(err.Error(), "TickInterval") {
		t.Errorf("error should name the field, got %q", err.Error())
	}
}

func TestValidateNotNil(t *testing.T) {
	var nilFunc func()
	var nilPtr *int

	tests := []struct {
		name      string
		value     interface{}
		wantError bool
	}{
		{"nil interface", nil, true},
		{"nil func", nilFunc, true},
		{"nil pointer", nilPtr, true},
		{"func", func() {}, false},
		{"int", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNotNil("workerpool", "action", tt.value)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateNotNil error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestValidateNotEmpty(t *testing.T) {
	if err := ValidateNotEmpty("scheduler", "cron", "@every 1s"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	err := ValidateNotEmpty("scheduler", "cron", "")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "provide a non-empty cron") {
		t.Errorf("hint missing from %q", err.Error())
	}
}

func TestValidationErrorWrapping(t *testing.T) {
	err := ValidatePositive("test", "count", 0)
	if !stderrors.Is(err, errors.ErrInvalidConfiguration) {
		t.Error("validation errors should match ErrInvalidConfiguration")
	}

	var verr *errors.ValidationError
	if !stderrors.As(err, &verr) {
		t.Fatal("expected *ValidationError")
	}
	if verr.Module != "test" || verr.Field != "count" || verr.Value != 0 {
		t.Errorf("unexpected details: %+v", verr)
	}
}
