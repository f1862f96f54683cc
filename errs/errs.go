// Package errs defines the error kinds shared across the planning engine.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a course, program, category or plan code does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned for malformed course codes, empty strings,
	// negative credit or level values and malformed requisite structures.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAssignmentRejected marks a refused course assignment. Callers normally
	// receive an Outcome instead; the sentinel is used when a rejection has to
	// travel as an error (for example through the CLI).
	ErrAssignmentRejected = errors.New("assignment rejected")

	// ErrConfiguration is returned when program or policy configuration is malformed.
	ErrConfiguration = errors.New("configuration error")
)

func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func Rejected(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrAssignmentRejected, fmt.Sprintf(format, args...))
}

func Configuration(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
