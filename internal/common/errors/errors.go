// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Dispatch taxonomy
const (
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeAPI           ErrorCode = "API_ERROR"
)

// Job/batch level errors
const (
	ErrCodeInputParsingFailed     ErrorCode = "INPUT_PARSING_FAILED"
	ErrCodeCredentialsUnavailable ErrorCode = "CREDENTIALS_UNAVAILABLE"
	ErrCodeBatchAborted           ErrorCode = "BATCH_ABORTED"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
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

// Unwrap exposes the transport or parse error the StandardError was built from.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata sets a metadata key and returns the receiver for chaining.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// InRoute prefixes the message with the route that produced the error.
func (e *StandardError) InRoute(route string) *StandardError {
	e.Message = route + ": " + e.Message
	return e.WithMetadata("route", route)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

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

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
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

// ==========================
// 3. Error Constructors
// ==========================

// NewValidationError reports a missing or malformed input parameter.
// raw is the offending value as received; it is omitted when nil.
func NewValidationError(param string, raw interface{}, details string) *StandardError {
	e := &StandardError{
		Code:      ErrCodeValidation,
		Message:   fmt.Sprintf("Invalid parameter '%s': %s", param, details),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
	e.WithMetadata("parameter", param)
	if raw != nil {
		e.WithMetadata("rawValue", raw)
	}
	return e
}

// NewConfigurationError reports a route selection nothing in the route table knows about.
func NewConfigurationError(route string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfiguration,
		Message:   fmt.Sprintf("Unknown route: %s", route),
		Details:   fmt.Sprintf("route: %s", route),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotFoundError reports a remote 404. message is surfaced to the caller as is.
func NewNotFoundError(route, message string, cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotFound,
		Message:   fmt.Sprintf("%s: %s", route, message),
		Details:   errDetails(cause),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewAPIError wraps any other remote or network failure.
// subject names the identifier involved, or is empty when none is known.
func NewAPIError(route, subject string, cause error) *StandardError {
	prefix := route
	if subject != "" {
		prefix = fmt.Sprintf("%s [%s]", route, subject)
	}
	return &StandardError{
		Code:      ErrCodeAPI,
		Message:   fmt.Sprintf("%s: API Error: %s", prefix, errDetails(cause)),
		Details:   errDetails(cause),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewInputParsingError creates a non-retryable job variables error.
func NewInputParsingError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInputParsingFailed,
		Message:   "Failed to parse job variables",
		Details:   errDetails(err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewCredentialsUnavailableError creates a retryable credentials lookup error.
func NewCredentialsUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCredentialsUnavailable,
		Message:   "Remnawave credentials unavailable",
		Details:   errDetails(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewBatchAbortedError wraps the record error that stopped an abort-policy batch.
func NewBatchAbortedError(index int, err error) *StandardError {
	e := &StandardError{
		Code:      ErrCodeBatchAborted,
		Message:   fmt.Sprintf("Batch aborted at record %d: %s", index, MessageOf(err)),
		Details:   errDetails(err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
	e.WithMetadata("recordIndex", index)
	e.WithMetadata("recordErrorCode", string(CodeOf(err)))
	return e
}

func errDetails(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeValidation:             "REMNAWAVE_VALIDATION_ERROR",
	ErrCodeConfiguration:          "REMNAWAVE_CONFIGURATION_ERROR",
	ErrCodeNotFound:               "REMNAWAVE_NOT_FOUND",
	ErrCodeAPI:                    "REMNAWAVE_API_ERROR",
	ErrCodeInputParsingFailed:     "INPUT_PARSING_FAILED",
	ErrCodeCredentialsUnavailable: "CREDENTIALS_UNAVAILABLE",
	ErrCodeBatchAborted:           "REMNAWAVE_BATCH_ABORTED",
}

// GetRetryCount returns the job retry count for an error code.
// Dispatch errors never retry; only a credentials outage hands the job back to the broker.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeCredentialsUnavailable:
		return 3
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
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

// ==========================
// 5. Utility Functions
// ==========================

// AsStandardError unwraps err to a *StandardError when one is in the chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// Normalize always returns a StandardError, wrapping foreign errors as INTERNAL_ERROR.
func Normalize(err error) *StandardError {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   errDetails(err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// CodeOf returns the error code of err, or INTERNAL_ERROR for foreign errors.
func CodeOf(err error) ErrorCode {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// MessageOf returns the caller facing message of err.
func MessageOf(err error) string {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr.Message
	}
	return errDetails(err)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool { return CodeOf(err) == ErrCodeValidation }

// IsConfiguration reports whether err is a ConfigurationError.
func IsConfiguration(err error) bool { return CodeOf(err) == ErrCodeConfiguration }

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool { return CodeOf(err) == ErrCodeNotFound }

// IsAPI reports whether err is an ApiError.
func IsAPI(err error) bool { return CodeOf(err) == ErrCodeAPI }

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "PARSING"):
		return "VALIDATION"
	case strings.Contains(codeStr, "CONFIGURATION"):
		return "CONFIGURATION"
	case strings.Contains(codeStr, "CREDENTIALS"):
		return "AUTH"
	case code == ErrCodeNotFound || code == ErrCodeAPI:
		return "REMOTE"
	default:
		return "OTHER"
	}
}
