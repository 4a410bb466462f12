// Package errors provides standardized error handling for the quote pipeline.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeUnknownProduct   ErrorCode = "UNKNOWN_PRODUCT"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeDuplicateSubmission      ErrorCode = "DUPLICATE_SUBMISSION"

	ErrCodeAttachmentUploadFailed ErrorCode = "ATTACHMENT_UPLOAD_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeAddressLookupFailed    ErrorCode = "ADDRESS_LOOKUP_FAILED"
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

// NewValidationFailedError creates a non-retryable validation error. Field
// messages travel in Metadata under "fields" so the HTTP layer can surface
// them per input.
func NewValidationFailedError(fields map[string]string) *StandardError {
	meta := make(map[string]interface{}, 1)
	if len(fields) > 0 {
		meta["fields"] = fields
	}
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Dados do formulário inválidos",
		Retryable: false,
		Metadata:  meta,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownProductError creates a non-retryable error for a product slug
// outside the catalog.
func NewUnknownProductError(product string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownProduct,
		Message:   "Produto de seguro desconhecido",
		Details:   fmt.Sprintf("product: %s", product),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseInsertFailedError creates a retryable insert error. The caller
// decides whether to actually retry; the submitter never does.
func NewDatabaseInsertFailedError(table string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseInsertFailed,
		Message:   "Quote insert failed",
		Details:   fmt.Sprintf("table: %s, error: %s", table, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDuplicateSubmissionError creates a non-retryable error for a reused
// idempotency token.
func NewDuplicateSubmissionError(token string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateSubmission,
		Message:   "Cotação já enviada",
		Details:   fmt.Sprintf("token: %s", token),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAttachmentUploadFailedError creates a retryable upload error. Upload
// failure never blocks a submission.
func NewAttachmentUploadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAttachmentUploadFailed,
		Message:   "Policy file upload failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable email dispatch error.
// Reported to callers as a warning, never as a submission failure.
func NewNotificationSendFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification email send failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAddressLookupFailedError creates a retryable CEP directory error. The
// adapter logs and swallows it; it exists for log structure only.
func NewAddressLookupFailedError(cep string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAddressLookupFailed,
		Message:   "Postal code lookup failed",
		Details:   fmt.Sprintf("cep: %s, error: %s", cep, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// FieldErrors extracts the per-field message map from a validation error, or
// nil when the error carries none.
func FieldErrors(err error) map[string]string {
	stdErr, ok := err.(*StandardError)
	if !ok || stdErr.Metadata == nil {
		return nil
	}
	fields, _ := stdErr.Metadata["fields"].(map[string]string)
	return fields
}
