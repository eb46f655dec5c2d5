package persistence

import "errors"

// Standard persistence error types that all implementations should use.
var (
	// ErrWorkflowNotFound indicates a workflow was not found by the given identifier.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrCredentialNotFound indicates no credential exists for the user/provider pair.
	ErrCredentialNotFound = errors.New("credential not found")

	// ErrConnectionNotFound indicates a connection was not found by the given identifier.
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrPhoneNumberNotFound indicates no phone number is provisioned for the assistant.
	ErrPhoneNumberNotFound = errors.New("phone number not found")
)

// IsWorkflowNotFound checks if an error indicates a workflow was not found.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsCredentialNotFound checks if an error indicates a missing credential.
func IsCredentialNotFound(err error) bool {
	return errors.Is(err, ErrCredentialNotFound)
}

// IsConnectionNotFound checks if an error indicates a connection was not found.
func IsConnectionNotFound(err error) bool {
	return errors.Is(err, ErrConnectionNotFound)
}

// IsPhoneNumberNotFound checks if an error indicates a missing phone number.
func IsPhoneNumberNotFound(err error) bool {
	return errors.Is(err, ErrPhoneNumberNotFound)
}
