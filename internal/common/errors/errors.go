// Package errors provides standardized error handling for the risk pipeline and its transports.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Pipeline errors
const (
	ErrCodeScoringUnavailable           ErrorCode = "SCORING_UNAVAILABLE"
	ErrCodeExplanationUnavailable       ErrorCode = "EXPLANATION_UNAVAILABLE"
	ErrCodeValidation                   ErrorCode = "VALIDATION_ERROR"
	ErrCodeExplanationShapeUnrecognized ErrorCode = "EXPLANATION_SHAPE_UNRECOGNIZED"
	ErrCodeBackendInvocationFailed      ErrorCode = "BACKEND_INVOCATION_FAILED"
	ErrCodeParse                        ErrorCode = "PARSE_ERROR"
	ErrCodeRateLimited                  ErrorCode = "RATE_LIMITED"
)

// Sink errors. These are logged by the pipeline and never returned to callers.
const (
	ErrCodeCacheFailed        ErrorCode = "CACHE_FAILED"
	ErrCodeAuditWriteFailed   ErrorCode = "AUDIT_WRITE_FAILED"
	ErrCodeArchiveFailed      ErrorCode = "ARCHIVE_FAILED"
	ErrCodeAlertPublishFailed ErrorCode = "ALERT_PUBLISH_FAILED"
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
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap returns the backend or decoding error that caused e, if any.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a StandardError with the same code, so the
// package sentinels below work with errors.Is.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrScoringUnavailable           = &StandardError{Code: ErrCodeScoringUnavailable}
	ErrExplanationUnavailable       = &StandardError{Code: ErrCodeExplanationUnavailable}
	ErrValidation                   = &StandardError{Code: ErrCodeValidation}
	ErrExplanationShapeUnrecognized = &StandardError{Code: ErrCodeExplanationShapeUnrecognized}
	ErrBackendInvocationFailed      = &StandardError{Code: ErrCodeBackendInvocationFailed}
)

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job error variables.
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

func newError(code ErrorCode, message, details string, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewScoringUnavailableError reports that no scoring backend was loaded at process start.
func NewScoringUnavailableError() *StandardError {
	return newError(ErrCodeScoringUnavailable, "Model not loaded", "", nil)
}

// NewExplanationUnavailableError reports that no explanation backend was loaded at process start.
func NewExplanationUnavailableError() *StandardError {
	return newError(ErrCodeExplanationUnavailable, "Explainer not loaded", "", nil)
}

// NewValidationError reports applicant attributes that are not numeric.
func NewValidationError(details string, fields []string) *StandardError {
	err := newError(ErrCodeValidation, "Invalid applicant attributes", details, nil)
	if len(fields) > 0 {
		err.Metadata = map[string]interface{}{"fields": fields}
	}
	return err
}

// NewExplanationShapeUnrecognizedError reports an explanation result that could not be
// reduced to one value per feature.
func NewExplanationShapeUnrecognizedError(details string) *StandardError {
	return newError(ErrCodeExplanationShapeUnrecognized, "Explanation result shape not recognized", details, nil)
}

// NewBackendInvocationFailedError wraps a failure returned by a scoring or explanation backend.
func NewBackendInvocationFailedError(backend string, err error) *StandardError {
	e := newError(ErrCodeBackendInvocationFailed, fmt.Sprintf("Backend '%s' call failed", backend), err.Error(), err)
	e.Metadata = map[string]interface{}{"backend": backend}
	return e
}

// NewParseError reports a request body or job payload that is not valid JSON.
func NewParseError(err error) *StandardError {
	return newError(ErrCodeParse, "Could not parse request", err.Error(), err)
}

// NewRateLimitedError rejects a request that exceeded the per-client rate limit.
func NewRateLimitedError() *StandardError {
	e := newError(ErrCodeRateLimited, "Too many requests", "", nil)
	e.Retryable = true
	return e
}

// NewSinkError wraps a failure in one of the cache, audit, archive or alert sinks.
func NewSinkError(code ErrorCode, err error) *StandardError {
	return newError(code, "Decision sink failed", err.Error(), err)
}

// ==========================
// 4. Error Conversion
// ==========================

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"errorCategory":     GetErrorCategory(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	if fields, ok := stdErr.Metadata["fields"]; ok {
		vars["invalidFields"] = fields
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		ErrorVariables: vars,
	}
}

// HTTPStatus maps an error code to the status returned by the HTTP API.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidation, ErrCodeParse:
		return http.StatusBadRequest
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeScoringUnavailable, ErrCodeExplanationUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeExplanationShapeUnrecognized, ErrCodeBackendInvocationFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandardError returns err as a *StandardError, wrapping anything else as INTERNAL_ERROR.
func AsStandardError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return newError("INTERNAL_ERROR", "Unexpected error", err.Error(), err)
}

// CodeOf returns the error code carried by err, or an empty code.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

// GetRetryCount returns the recommended retry count. Every pipeline call is single-shot.
func GetRetryCount(code ErrorCode) int {
	return 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasSuffix(codeStr, "_UNAVAILABLE"):
		return "BACKEND_UNAVAILABLE"
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "PARSE"):
		return "VALIDATION"
	case strings.Contains(codeStr, "EXPLANATION"):
		return "EXPLANATION"
	case strings.Contains(codeStr, "BACKEND"):
		return "BACKEND"
	case code == ErrCodeCacheFailed || code == ErrCodeAuditWriteFailed ||
		code == ErrCodeArchiveFailed || code == ErrCodeAlertPublishFailed:
		return "SINK"
	default:
		return "OTHER"
	}
}
