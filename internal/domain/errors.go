package domain

import (
	"fmt"
)

// CheckError is the error reported to the user when a check cannot be completed.
type CheckError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *CheckError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

// Unwrap returns the underlying cause.
func (e *CheckError) Unwrap() error {
	return e.Err
}

// Error codes for different failure scenarios
const (
	ErrSourceFile     = "SOURCE_FILE_ERROR"
	ErrDatabaseError  = "DATABASE_ERROR"
	ErrExportProtocol = "EXPORT_PROTOCOL_ERROR"
	ErrConfiguration  = "CONFIGURATION_ERROR"
	ErrReport         = "REPORT_ERROR"
)

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewCheckError creates a new CheckError wrapping err
func NewCheckError(code, message string, err error) *CheckError {
	return &CheckError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}
