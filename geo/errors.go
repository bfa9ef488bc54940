// Copyright 2025 The Tuyende Authors
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ProviderError represents provider-specific resolution failures.
type ProviderError struct {
	Type    ErrorType
	Message string
	Err     error
}

// ErrorType classifies provider failures.
type ErrorType int

const (
	// ErrorTypeUnknown unclassified failure.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeRateLimit rate limit reached.
	ErrorTypeRateLimit
	// ErrorTypeQuotaExceeded quota exceeded.
	ErrorTypeQuotaExceeded
	// ErrorTypeTimeout connection timeout.
	ErrorTypeTimeout
	// ErrorTypeNotFound location not found.
	ErrorTypeNotFound
	// ErrorTypeInvalidRequest invalid request.
	ErrorTypeInvalidRequest
	// ErrorTypeIncompleteData provider answered without the required fields.
	ErrorTypeIncompleteData
	// ErrorTypeNetworkError network failure.
	ErrorTypeNetworkError
)

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsRateLimitError checks whether the error means a rate limit was hit.
func IsRateLimitError(err error) bool {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Type == ErrorTypeRateLimit
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429")
}

// IsTimeoutError checks whether the error is a timeout.
func IsTimeoutError(err error) bool {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Type == ErrorTypeTimeout
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// IsIncompleteDataError checks whether the provider answered but the
// response lacked the required fields (geometry, address components).
func IsIncompleteDataError(err error) bool {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Type == ErrorTypeIncompleteData
	}

	return false
}

// ClassifyHTTPError maps an HTTP status to a provider error.
func ClassifyHTTPError(statusCode int, _ string) *ProviderError {
	switch statusCode {
	case http.StatusTooManyRequests: // 429
		return &ProviderError{
			Type:    ErrorTypeRateLimit,
			Message: "rate limit reached",
		}
	case http.StatusForbidden: // 403
		return &ProviderError{
			Type:    ErrorTypeQuotaExceeded,
			Message: "quota exceeded or access denied",
		}
	case http.StatusBadRequest: // 400
		return &ProviderError{
			Type:    ErrorTypeInvalidRequest,
			Message: "invalid request",
		}
	case http.StatusNotFound: // 404
		return &ProviderError{
			Type:    ErrorTypeNotFound,
			Message: "location not found",
		}
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return &ProviderError{
			Type:    ErrorTypeNetworkError,
			Message: fmt.Sprintf("service unavailable (status %d)", statusCode),
		}
	default:
		return &ProviderError{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("HTTP error %d", statusCode),
		}
	}
}
