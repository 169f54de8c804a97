package grading

import (
	"errors"
	"fmt"
)

// ErrConfigurationViolation marks inconsistent gradebook data handed to the engine. It is a
// data-integrity failure, never a missing-score condition.
var ErrConfigurationViolation = errors.New("grading configuration violation")

func violation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfigurationViolation, fmt.Sprintf(format, args...))
}
