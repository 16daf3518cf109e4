// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Failure codes surfaced to API callers
const (
	CodeInvalidCoordinates = "INVALID_COORDINATES"
	CodeInvalidLanguage    = "INVALID_LANGUAGE"
	CodeBatchTooLarge      = "BATCH_TOO_LARGE"
	CodeGeocodingFailed    = "GEOCODING_FAILED"
	CodeValidationError    = "VALIDATION_ERROR"
	CodeInternalError      = "INTERNAL_ERROR"
)

// ErrorType classifies provider failures by their origin
type ErrorType int

const (
	// ErrorTypeUnknown covers failures that fit no other classification
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeNetwork indicates a transport-level failure or an unavailable backend
	ErrorTypeNetwork
	// ErrorTypeTimeout indicates that the backend did not answer in time
	ErrorTypeTimeout
	// ErrorTypeRateLimit indicates that the backend throttled the request
	ErrorTypeRateLimit
	// ErrorTypeQuotaExceeded indicates rejected credentials or an exhausted quota
	ErrorTypeQuotaExceeded
	// ErrorTypeInvalidRequest indicates that the backend rejected the request parameters
	ErrorTypeInvalidRequest
	// ErrorTypeBadPayload indicates a response body that could not be interpreted
	ErrorTypeBadPayload
)

// ProviderError describes the failure of a single provider attempt. The resolver
// recovers from it by falling back to the next provider, it is never surfaced
// to the caller directly.
type ProviderError struct {
	Provider string
	Type     ErrorType
	Message  string
	Err      error
}

// Error satisfies the error interface for ProviderError
func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error of a ProviderError
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ValidationError reports malformed caller input. No provider is attempted when
// the input does not validate.
type ValidationError struct {
	Code    string
	Message string
}

// Error satisfies the error interface for ValidationError
func (e *ValidationError) Error() string {
	return e.Message
}

// NewStatusError returns a ProviderError for an unexpected HTTP status code
func NewStatusError(provider string, statusCode int) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Type:     ClassifyStatus(statusCode),
		Message:  fmt.Sprintf("unexpected HTTP status code %d", statusCode),
	}
}

// ClassifyStatus maps a non-success HTTP status code to a provider error type
func ClassifyStatus(statusCode int) ErrorType {
	switch statusCode {
	case http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case http.StatusForbidden, http.StatusUnauthorized:
		return ErrorTypeQuotaExceeded
	case http.StatusBadRequest:
		return ErrorTypeInvalidRequest
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return ErrorTypeNetwork
	default:
		return ErrorTypeUnknown
	}
}

// IsRateLimitError reports whether the error chain contains a rate limited
// provider attempt
func IsRateLimitError(err error) bool {
	var provErr *ProviderError
	return errors.As(err, &provErr) && provErr.Type == ErrorTypeRateLimit
}

// IsTimeoutError reports whether the error chain indicates a timed out provider
// attempt
func IsTimeoutError(err error) bool {
	var provErr *ProviderError
	if errors.As(err, &provErr) && provErr.Type == ErrorTypeTimeout {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
