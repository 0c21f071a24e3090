package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrTypeMissingHeader represents a required callback header that was not sent
	ErrTypeMissingHeader ErrorType = "missing_header"
	// ErrTypeUntrustedKeyURL represents a public key URL outside the allow-list
	ErrTypeUntrustedKeyURL ErrorType = "untrusted_key_url"
	// ErrTypeKeyFetch represents a failed or non-200 public key download
	ErrTypeKeyFetch ErrorType = "key_fetch_failed"
	// ErrTypeMalformedSignature represents a signature or key URL header that cannot be decoded
	ErrTypeMalformedSignature ErrorType = "malformed_signature"
	// ErrTypeMalformedRequest represents a request path or body that cannot be used
	ErrTypeMalformedRequest ErrorType = "malformed_request"
	// ErrTypeVerification represents a signature that did not verify
	ErrTypeVerification ErrorType = "verification_failed"

	// ErrTypeValidation represents validation errors
	ErrTypeValidation ErrorType = "validation"
	// ErrTypeConfig represents configuration errors
	ErrTypeConfig ErrorType = "config"
	// ErrTypeInternal represents internal system errors
	ErrTypeInternal ErrorType = "internal"
	// ErrTypeTimeout represents timeout errors
	ErrTypeTimeout ErrorType = "timeout"
	// ErrTypeRateLimit represents rate limit errors
	ErrTypeRateLimit ErrorType = "rate_limit"
)

// AppError represents a structured application error.
//
// Message is safe to hand back to the caller. Cause and Context are for logs only.
type AppError struct {
	Type    ErrorType              `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	parts := []string{string(e.Type), e.Message}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%v", e.Cause))
	}

	if len(e.Context) > 0 {
		contextParts := make([]string, 0, len(e.Context))
		for k, v := range e.Context {
			contextParts = append(contextParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("context={%s}", strings.Join(contextParts, ", ")))
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// MissingHeaderError creates an error for absent callback headers
func MissingHeaderError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeMissingHeader,
		Message: msg,
	}
}

// UntrustedKeyURLError creates an error for a key URL outside the allow-list
func UntrustedKeyURLError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeUntrustedKeyURL,
		Message: msg,
	}
}

// KeyFetchError creates an error for a failed public key download
func KeyFetchError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeKeyFetch,
		Message: msg,
		Cause:   cause,
	}
}

// MalformedSignatureError creates an error for an undecodable header value
func MalformedSignatureError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeMalformedSignature,
		Message: msg,
		Cause:   cause,
	}
}

// MalformedRequestError creates an error for an unusable request path or body
func MalformedRequestError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeMalformedRequest,
		Message: msg,
		Cause:   cause,
	}
}

// VerificationError creates an error for a signature mismatch
func VerificationError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeVerification,
		Message: msg,
	}
}

// ValidationError creates a new validation error
func ValidationError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeValidation,
		Message: msg,
	}
}

// ConfigError creates a new configuration error
func ConfigError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeConfig,
		Message: msg,
	}
}

// InternalError creates a new internal error
func InternalError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeInternal,
		Message: msg,
		Cause:   cause,
	}
}

// TimeoutError creates a new timeout error
func TimeoutError(operation string) *AppError {
	return &AppError{
		Type:    ErrTypeTimeout,
		Message: fmt.Sprintf("timeout during %s", operation),
	}
}

// RateLimitError creates a new rate limit error
func RateLimitError(resource string) *AppError {
	return &AppError{
		Type:    ErrTypeRateLimit,
		Message: fmt.Sprintf("rate limit exceeded for %s", resource),
	}
}

// As returns the first AppError in err's chain
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	appErr, ok := As(err)
	if !ok {
		return false
	}

	return appErr.Type == errType
}

// GetType returns the error type if it's an AppError, otherwise returns ErrTypeInternal
func GetType(err error) ErrorType {
	if err == nil {
		return ""
	}

	appErr, ok := As(err)
	if !ok {
		return ErrTypeInternal
	}

	return appErr.Type
}

// PublicMessage returns the caller-safe text for err.
// Errors that are not AppErrors collapse to fallback so internals never leak.
func PublicMessage(err error, fallback string) string {
	if appErr, ok := As(err); ok && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
