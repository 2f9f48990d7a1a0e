package domain

import (
	"errors"
	"fmt"
	"strings"
)

// -----------------------------------------------------------------------------
// Domain Errors
// These errors represent domain-level failures and are used by stores,
// sources and services to communicate domain-specific error conditions.
// -----------------------------------------------------------------------------

// Analysis errors
var (
	// ErrValidation is the sentinel every *ValidationError unwraps to.
	ErrValidation = errors.New("validation failed")
)

// Catalog errors
var (
	ErrSnapshotUnavailable = errors.New("skill catalog snapshot not loaded")
	ErrRoleNotFound        = errors.New("role not found")
)

// Report errors
var (
	ErrReportNotFound = errors.New("report not found")
)

// General errors
var (
	ErrInvalidInput = errors.New("invalid input")
)

// ValidationError reports malformed engine input. A run that hits one
// produces no report at all.
type ValidationError struct {
	Problems []string
}

// NewValidationError creates a validation error from formatted problems
func NewValidationError(problems ...string) *ValidationError {
	return &ValidationError{Problems: problems}
}

// Add appends a formatted problem
func (e *ValidationError) Add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// OrNil returns e when it holds problems, nil otherwise
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Problems) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "validation failed: " + e.Problems[0]
	}
	return fmt.Sprintf("validation failed: %d problems: %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// IsValidation reports whether err is (or wraps) a validation failure
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// GraphIntegrityWarning flags a valid relation that closes a cycle.
// Traversals stay safe; the warning is logged and surfaced in diagnostics.
type GraphIntegrityWarning struct {
	Cycle []string // skill IDs, first element repeated at the end
}

func (w GraphIntegrityWarning) String() string {
	return "cycle detected: " + strings.Join(w.Cycle, " -> ")
}
