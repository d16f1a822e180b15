// Package services provides the business logic of the dashboard API: agent
// lifecycle, the flowchart store and its cross-entity rules, execution
// records and dashboard statistics.
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agentdash/agentdash/pkg/persistence"
)

// Business logic errors. Validation errors map to 400 responses, conflicts
// to 409, not-implemented to 501.
var (
	// Validation errors (400 Bad Request).
	ErrInvalidRequest        = errors.New("invalid request")
	ErrInvalidSortField      = errors.New("invalid sort field")
	ErrInvalidSortOrder      = errors.New("invalid sort order")
	ErrInvalidStatus         = errors.New("invalid status")
	ErrInvalidExportFormat   = errors.New("unsupported export format")
	ErrValidationInputEmpty  = errors.New("nodes or connections data required for validation")
	ErrTargetAgentIDRequired = errors.New("target agent ID is required")

	// Business logic conflicts (409 Conflict).
	ErrFlowchartExists = errors.New("agent already has a flowchart")

	// Not implemented (501).
	ErrImageExportNotImplemented = errors.New("image export formats not yet implemented")

	// Not found errors, re-exported from persistence.
	ErrAgentNotFound     = persistence.ErrAgentNotFound
	ErrFlowchartNotFound = persistence.ErrFlowchartNotFound
	ErrExecutionNotFound = persistence.ErrExecutionNotFound
)

// InvalidFlowchartError is returned when a flowchart mutation is rejected by
// structural validation. It carries the full message list so the API can
// surface every failure at once.
type InvalidFlowchartError struct {
	Errors []string
}

func (e *InvalidFlowchartError) Error() string {
	return "flowchart validation failed: " + strings.Join(e.Errors, "; ")
}

// AsInvalidFlowchart extracts an InvalidFlowchartError from an error chain.
func AsInvalidFlowchart(err error) (*InvalidFlowchartError, bool) {
	var invalid *InvalidFlowchartError
	if errors.As(err, &invalid) {
		return invalid, true
	}

	return nil, false
}

// ServiceError wraps service-level errors with operation context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error should produce an HTTP 400.
func IsValidationError(err error) bool {
	if _, ok := AsInvalidFlowchart(err); ok {
		return true
	}

	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidSortField) ||
		errors.Is(err, ErrInvalidSortOrder) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidExportFormat) ||
		errors.Is(err, ErrValidationInputEmpty) ||
		errors.Is(err, ErrTargetAgentIDRequired)
}

// IsConflictError checks if an error should produce an HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrFlowchartExists)
}

// IsNotFoundError checks if an error should produce an HTTP 404.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrAgentNotFound) ||
		errors.Is(err, ErrFlowchartNotFound) ||
		errors.Is(err, ErrExecutionNotFound)
}

// IsNotImplementedError checks if an error should produce an HTTP 501.
func IsNotImplementedError(err error) bool {
	return errors.Is(err, ErrImageExportNotImplemented)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
