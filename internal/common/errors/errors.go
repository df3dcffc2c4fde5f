// internal/common/errors/errors.go

// Package errors provides standardized error handling for the onboarding wizard.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Wizard-level errors.
	ErrCodeMissingRequiredData ErrorCode = "MISSING_REQUIRED_DATA"
	ErrCodeValidationFailure   ErrorCode = "VALIDATION_FAILURE"
	ErrCodePersistenceFailure  ErrorCode = "PERSISTENCE_FAILURE"
	ErrCodeCollaboratorFailure ErrorCode = "COLLABORATOR_FAILURE"
	ErrCodeSessionNotFound     ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeStaleAuthEvent      ErrorCode = "STALE_AUTH_EVENT"

	// Infrastructure errors.
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeNotificationSendFailed   ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodePayloadSchemaInvalid     ErrorCode = "PAYLOAD_SCHEMA_INVALID"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// FieldError is a single per-field validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewMissingRequiredData reports a hard requirement missing at finalization.
// owningStep names the wizard step the user must return to.
func NewMissingRequiredData(field, owningStep string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingRequiredData,
		Message:   fmt.Sprintf("required onboarding data missing: %s", field),
		Details:   fmt.Sprintf("field: %s", field),
		Retryable: false,
		Metadata:  map[string]interface{}{"owningStep": owningStep},
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationFailure reports step-local validation errors. It blocks the
// step's continue action only and never bubbles past the owning step.
func NewValidationFailure(step string, fieldErrors []FieldError) *StandardError {
	msgs := make([]string, len(fieldErrors))
	for i, fe := range fieldErrors {
		msgs[i] = fmt.Sprintf("%s: %s", fe.Field, fe.Message)
	}
	return &StandardError{
		Code:      ErrCodeValidationFailure,
		Message:   fmt.Sprintf("step %q validation failed", step),
		Details:   strings.Join(msgs, "; "),
		Retryable: false,
		Metadata:  map[string]interface{}{"step": step, "fields": fieldErrors},
		Timestamp: time.Now().UTC(),
	}
}

// NewPersistenceFailure wraps a storage error. Callers on the wizard path log
// it and continue; progress simply may not survive a reload.
func NewPersistenceFailure(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePersistenceFailure,
		Message:   "onboarding state storage failed",
		Details:   fmt.Sprintf("op: %s, error: %v", op, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCollaboratorFailure reports a failed external call (business search,
// calendar). Surfaced as a retryable banner near the relevant step.
func NewCollaboratorFailure(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCollaboratorFailure,
		Message:   fmt.Sprintf("external service %q error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionNotFound reports an unknown wizard session.
func NewSessionNotFound(sessionID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionNotFound,
		Message:   "onboarding session not found",
		Details:   fmt.Sprintf("sessionId: %s", sessionID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStaleAuthEvent reports an authenticated event for a session that is no
// longer on the signup step. The event is dropped, never finalized.
func NewStaleAuthEvent(sessionID, currentStep string) *StandardError {
	return &StandardError{
		Code:      ErrCodeStaleAuthEvent,
		Message:   "authentication event ignored: session left the signup step",
		Details:   fmt.Sprintf("sessionId: %s, currentStep: %s", sessionID, currentStep),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailed creates a retryable database connection error.
func NewDatabaseConnectionFailed(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseInsertFailed creates a retryable database write error.
func NewDatabaseInsertFailed(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseInsertFailed,
		Message:   "database write failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailed creates a retryable notification delivery error.
func NewNotificationSendFailed(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPayloadSchemaInvalid reports a finalized payload that failed schema
// validation before any write was attempted.
func NewPayloadSchemaInvalid(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodePayloadSchemaInvalid,
		Message:   "finalized payload failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// CodeOf extracts the ErrorCode from err if it is a StandardError.
func CodeOf(err error) (ErrorCode, bool) {
	var se *StandardError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return "", false
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

// OwningStep returns the step named by a MISSING_REQUIRED_DATA or
// VALIDATION_FAILURE error, or "" when there is none.
func OwningStep(err error) string {
	var se *StandardError
	if !errors.As(err, &se) || se.Metadata == nil {
		return ""
	}
	if s, ok := se.Metadata["owningStep"].(string); ok {
		return s
	}
	if s, ok := se.Metadata["step"].(string); ok {
		return s
	}
	return ""
}
