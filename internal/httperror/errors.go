package httperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// ErrorCode identifies an API error class.
type ErrorCode string

const (
	// ErrorCodeInternal is an unexpected server fault.
	ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrorCodeValidation is a malformed request body.
	ErrorCodeValidation ErrorCode = "VALIDATION_ERROR"
	// ErrorCodeUnauthorized is a missing or invalid credential.
	ErrorCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrorCodeForbidden is an insufficient role.
	ErrorCodeForbidden ErrorCode = "FORBIDDEN"
	// ErrorCodeFeatureDisabled marks a disabled AI feature.
	ErrorCodeFeatureDisabled ErrorCode = "FEATURE_DISABLED"
	// ErrorCodeBadConfig marks missing provider configuration.
	ErrorCodeBadConfig ErrorCode = "BAD_CONFIG"
	// ErrorCodeHTTPRateLimit marks a throttled request.
	ErrorCodeHTTPRateLimit ErrorCode = "HTTP_RATE_LIMIT"
	// ErrorCodeLLM marks an upstream model fault.
	ErrorCodeLLM ErrorCode = "LLM_ERROR"
	// ErrorCodeLLMTimeout marks an upstream model timeout.
	ErrorCodeLLMTimeout ErrorCode = "LLM_TIMEOUT"
)

// ErrorResponse is the wire error body. The chat UI only reads the
// error field; code is kept for log correlation.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Error is the internal standard error type.
type Error struct {
	Code    ErrorCode
	Status  int
	Message string
}

// Error returns the message.
func (e *Error) Error() string {
	return e.Message
}

// Response converts an error to an HTTP status and body.
func Response(err error) (int, ErrorResponse) {
	apiErr := FromError(err)
	if apiErr == nil {
		apiErr = NewInternalError("unknown error")
	}
	return apiErr.Status, ErrorResponse{Error: apiErr.Message, Code: string(apiErr.Code)}
}

// FromError maps an arbitrary error to the internal error type.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewLLMTimeout("LLM request timed out")
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return NewValidationError(err)
	}

	return NewInternalError(err.Error())
}

// NewInternalError builds a 500 error.
func NewInternalError(message string) *Error {
	return &Error{Code: ErrorCodeInternal, Status: http.StatusInternalServerError, Message: message}
}

// NewValidationError builds a 400 error from a binding failure.
func NewValidationError(err error) *Error {
	return &Error{
		Code:    ErrorCodeValidation,
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf("invalid request: %v", err),
	}
}

// NewInvalidInput builds a 400 error.
func NewInvalidInput(message string) *Error {
	return &Error{Code: ErrorCodeValidation, Status: http.StatusBadRequest, Message: message}
}

// NewUnauthorized builds a 401 error.
func NewUnauthorized(message string) *Error {
	if message == "" {
		message = "authentication required"
	}
	return &Error{Code: ErrorCodeUnauthorized, Status: http.StatusUnauthorized, Message: message}
}

// NewForbidden builds a 403 error.
func NewForbidden(message string) *Error {
	if message == "" {
		message = "insufficient permissions"
	}
	return &Error{Code: ErrorCodeForbidden, Status: http.StatusForbidden, Message: message}
}

// NewFeatureDisabled builds a 403 error for a disabled feature.
func NewFeatureDisabled(feature string) *Error {
	return &Error{
		Code:    ErrorCodeFeatureDisabled,
		Status:  http.StatusForbidden,
		Message: fmt.Sprintf("%s is disabled", feature),
	}
}

// NewBadConfig builds a 400 error for missing provider configuration.
func NewBadConfig(message string) *Error {
	return &Error{Code: ErrorCodeBadConfig, Status: http.StatusBadRequest, Message: message}
}

// NewRateLimitExceeded builds a 429 error.
func NewRateLimitExceeded() *Error {
	return &Error{
		Code:    ErrorCodeHTTPRateLimit,
		Status:  http.StatusTooManyRequests,
		Message: "rate limit exceeded",
	}
}

// NewLLMError builds an upstream model error.
func NewLLMError(message string, status int) *Error {
	return &Error{Code: ErrorCodeLLM, Status: status, Message: message}
}

// NewLLMTimeout builds a 504 error.
func NewLLMTimeout(message string) *Error {
	return &Error{Code: ErrorCodeLLMTimeout, Status: http.StatusGatewayTimeout, Message: message}
}
