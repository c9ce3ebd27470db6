package transfer

import (
	"errors"
	"net/http"
)

// ErrInvalidParams marks a request rejected locally before it reached the backend.
var ErrInvalidParams = errors.New("invalid parameters")

// Status codes the analysis backend returns with a specific meaning.
const (
	StatusInvalidBody        = 400 // Invalid body or parameters
	StatusMissingOwner       = 401 // X-User-ID missing or unknown
	StatusNotFound           = 404 // Unknown upload, call or user
	StatusConflict           = 409 // Upload already completed / user already registered
	StatusPayloadTooLarge    = 413 // File exceeds the server cap
	StatusUnsupportedMedia   = 415 // Not a supported audio format
	StatusUnprocessable      = 422 // Validation failed
	StatusTooManyRequests    = 429 // Too many requests
	StatusInternalError      = 500 // Unknown backend error
	StatusServiceUnavailable = 503 // Models still loading
)

// describeStatus gives a fallback message when the backend did not send one.
func describeStatus(code int) string {
	switch code {
	case StatusInvalidBody:
		return "invalid body"
	case StatusMissingOwner:
		return "user id required"
	case StatusNotFound:
		return "not found"
	case StatusConflict:
		return "conflict with current state"
	case StatusPayloadTooLarge:
		return "file too large"
	case StatusUnsupportedMedia:
		return "unsupported audio format"
	case StatusUnprocessable:
		return "validation failed"
	case StatusTooManyRequests:
		return "too many requests"
	case StatusInternalError:
		return "backend error"
	case StatusServiceUnavailable:
		return "backend unavailable"
	default:
		return http.StatusText(code)
	}
}

// Retryable reports whether the request may succeed if sent again unchanged.
func (e *APIError) Retryable() bool {
	switch e.StatusCode {
	case StatusTooManyRequests, StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// StatusCodeOf extracts the backend status code from err, or 0 when err is not an *APIError.
func StatusCodeOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
