package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for pipeline control flow
var (
	// ErrDiseaseNotFound aborts an analysis when no data source can
	// resolve the requested disease name.
	ErrDiseaseNotFound = errors.New("disease not found in any data source")
)

// APIError represents a standardized error response
type APIError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	ErrInvalidInput    = "INVALID_INPUT"
	ErrNotFound        = "DISEASE_NOT_FOUND"
	ErrMalformedRecord = "MALFORMED_RECORD"
	ErrDatabaseError   = "DATABASE_ERROR"
	ErrExternalAPI     = "EXTERNAL_API_ERROR"
	ErrScoring         = "SCORING_ERROR"
	ErrRateLimit       = "RATE_LIMIT_EXCEEDED"
	ErrInternalServer  = "INTERNAL_SERVER_ERROR"
	ErrValidation      = "VALIDATION_ERROR"
)

// MalformedRecordError marks a data record that is unusable for analysis.
// A malformed disease record aborts the run; a malformed drug record is
// skipped and counted by the pipeline.
type MalformedRecordError struct {
	RecordKind string `json:"record_kind"`
	RecordName string `json:"record_name"`
	Reason     string `json:"reason"`
}

// Error implements the error interface
func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed %s record '%s': %s", e.RecordKind, e.RecordName, e.Reason)
}

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

// NewAPIError creates a new APIError with timestamp
func NewAPIError(code, message, details, requestID string) *APIError {
	return &APIError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// NewMalformedRecordError creates a new MalformedRecordError
func NewMalformedRecordError(kind, name, reason string) *MalformedRecordError {
	return &MalformedRecordError{
		RecordKind: kind,
		RecordName: name,
		Reason:     reason,
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
