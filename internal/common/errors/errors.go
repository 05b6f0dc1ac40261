// Package errors provides the standard error type shared by services and
// its translation into BPMN errors for the workflow engine.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Business errors. Surfaced to the caller and never retried.
const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeBadRequest   ErrorCode = "BAD_REQUEST"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Technical errors.
const (
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeSubscriptionCheckFailed  ErrorCode = "SUBSCRIPTION_CHECK_FAILED"
	ErrCodeNotificationSendFailed   ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeExternalService          ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout                  ErrorCode = "TIMEOUT_ERROR"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key to the error's metadata and returns the error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewNotFoundError reports a missing entity, e.g. NewNotFoundError("student", 12).
func NewNotFoundError(entity string, id interface{}) *StandardError {
	return newError(ErrCodeNotFound,
		fmt.Sprintf("%s with ID %v not found", entity, id),
		fmt.Sprintf("entity: %s", entity), false, nil)
}

// NewBadRequestError reports a business rule violation.
func NewBadRequestError(message string) *StandardError {
	return newError(ErrCodeBadRequest, message, "", false, nil)
}

// NewUnauthorizedError reports a role-based access violation.
func NewUnauthorizedError(message string) *StandardError {
	return newError(ErrCodeUnauthorized, message, "", false, nil)
}

// NewInvalidInputError reports malformed job or call input.
func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Input validation failed", details, false, nil)
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true, err)
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(operation string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true, err)
}

// NewDatabaseInsertFailedError creates a retryable database insert error.
func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert operation failed", err.Error(), true, err)
}

// NewSubscriptionCheckFailedError creates a retryable subscription lookup error.
func NewSubscriptionCheckFailedError(err error) *StandardError {
	return newError(ErrCodeSubscriptionCheckFailed, "Database error during subscription check", err.Error(), true, err)
}

// NewNotificationSendFailedError creates a retryable notification error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), true, err)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("External service '%s' error", service), err.Error(), true, err)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service), err.Error(), true, err)
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false, err)
}

// AsStandardError extracts a *StandardError from err's chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == code
}

func IsNotFound(err error) bool     { return HasCode(err, ErrCodeNotFound) }
func IsBadRequest(err error) bool   { return HasCode(err, ErrCodeBadRequest) }
func IsUnauthorized(err error) bool { return HasCode(err, ErrCodeUnauthorized) }

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// BPMNErrorMapping maps internal codes to the error codes modelled in the processes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeNotFound:                 "NOT_FOUND",
	ErrCodeBadRequest:               "BAD_REQUEST",
	ErrCodeUnauthorized:             "UNAUTHORIZED",
	ErrCodeInvalidInput:             "INVALID_INPUT",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:     "QUERY_EXECUTION_FAILED",
	ErrCodeQueryTimeout:             "QUERY_TIMEOUT",
	ErrCodeDatabaseInsertFailed:     "DATABASE_INSERT_FAILED",
	ErrCodeSubscriptionCheckFailed:  "SUBSCRIPTION_CHECK_FAILED",
	ErrCodeNotificationSendFailed:   "NOTIFICATION_SEND_FAILED",
	ErrCodeExternalService:          "EXTERNAL_SERVICE_ERROR",
	ErrCodeTimeout:                  "TIMEOUT_ERROR",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeSubscriptionCheckFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeExternalService:
		return 3
	case ErrCodeQueryTimeout, ErrCodeTimeout:
		return 2
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, ok := BPMNErrorMapping[stdErr.Code]
	if !ok {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// GetErrorCategory groups codes for logging and metrics labels.
func GetErrorCategory(code ErrorCode) string {
	s := string(code)
	switch {
	case code == ErrCodeNotFound || code == ErrCodeBadRequest || code == ErrCodeUnauthorized:
		return "BUSINESS"
	case strings.Contains(s, "SUBSCRIPTION"):
		return "SUBSCRIPTION"
	case strings.Contains(s, "DATABASE") || strings.Contains(s, "QUERY"):
		return "DATABASE"
	case strings.Contains(s, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(s, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
