// Package services provides standardized error types for service layer operations.
package services

import (
	"errors"
	"fmt"
)

// Business logic errors. These indicate client errors (4xx responses).
var (
	// Validation errors (400 Bad Request).
	ErrInvalidRequest       = errors.New("invalid request")
	ErrWorkflowNil          = errors.New("workflow cannot be nil")
	ErrWorkflowNameRequired = errors.New("workflow name is required")
	ErrUserIDRequired       = errors.New("user id is required")
	ErrDuplicateNodeID      = errors.New("duplicate node id")
	ErrEdgeEndpointUnknown  = errors.New("edge references unknown node")
	ErrNodeSchemaInvalid    = errors.New("node config does not match its schema")
	ErrRouterBranchInvalid  = errors.New("router branch has no condition")

	// Activation errors (409 Conflict).
	ErrTriggerNodeRequired = errors.New("active workflow must have a trigger or post_call node")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
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

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrWorkflowNil) ||
		errors.Is(err, ErrWorkflowNameRequired) ||
		errors.Is(err, ErrUserIDRequired) ||
		errors.Is(err, ErrDuplicateNodeID) ||
		errors.Is(err, ErrEdgeEndpointUnknown) ||
		errors.Is(err, ErrNodeSchemaInvalid) ||
		errors.Is(err, ErrRouterBranchInvalid)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrTriggerNodeRequired)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Message: message,
		Err:     err,
	}
}
