package car

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when an id or canonical VIN does not resolve.
	ErrNotFound = errors.New("car not found")

	// ErrStaleVersion is returned by the repository when the in-store version
	// no longer equals the version carried by the row being saved.
	ErrStaleVersion = errors.New("stored version changed since read")

	// ErrVersionConflict is returned by the service when the caller's version
	// disagrees with the stored version.
	ErrVersionConflict = errors.New("version mismatch")

	// ErrDuplicateVIN is returned when an insert would collide on the VIN
	// unique index.
	ErrDuplicateVIN = errors.New("vin already registered")
)

// Violation is a single failed field constraint.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError carries all violations found for one request.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Path+": "+v.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
