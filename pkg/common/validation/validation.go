// Package validation provides common validation utilities for the prioflow library.
package validation

import (
	"reflect"
	"time"

	pferrors "github.com/vnykmshr/prioflow/pkg/common/errors"
)

// ValidatePositive validates that an integer value is positive (> 0).
// Returns a ValidationError if the value is not positive.
func ValidatePositive(module, field string, value int) error {
	if value <= 0 {
		return pferrors.NewValidationError(module, field, value, "must be positive").
			WithHint("value must be greater than 0")
	}
	return nil
}

// ValidateNonNegative validates that an integer value is non-negative (>= 0).
func ValidateNonNegative(module, field string, value int) error {
	if value < 0 {
		return pferrors.NewValidationError(module, field, value, "cannot be negative").
			WithHint("use 0 or a positive value")
	}
	return nil
}

// ValidatePositiveFloat validates that a float64 value is positive (> 0).
// Returns a ValidationError if the value is not positive.
func ValidatePositiveFloat(module, field string, value float64) error {
	if value <= 0 {
		return pferrors.NewValidationError(module, field, value, "must be positive").
			WithHint("value must be greater than 0")
	}
	return nil
}

// ValidatePositiveDuration validates that a duration is strictly positive.
func ValidatePositiveDuration(module, field string, value time.Duration) error {
	if value <= 0 {
		return pferrors.NewValidationError(module, field, value, "must be positive").
			WithHint("use a duration such as 10ms or 1s")
	}
	return nil
}

// ValidateNotNil validates that an interface value is not nil.
// Typed nil pointers and functions stored in the interface are rejected as well.
func ValidateNotNil(module, field string, value interface{}) error {
	if value == nil || isNilValue(value) {
		return pferrors.NewValidationError(module, field, nil, "cannot be nil").
			WithHint("provide a valid " + field)
	}
	return nil
}

// ValidateNotEmpty validates that a string value is not empty.
// Returns a ValidationError if the string is empty.
func ValidateNotEmpty(module, field string, value string) error {
	if value == "" {
		return pferrors.NewValidationError(module, field, value, "cannot be empty").
			WithHint("provide a non-empty " + field)
	}
	return nil
}

func isNilValue(value interface{}) bool {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Func, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}
