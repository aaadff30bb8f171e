package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// ProviderError is a failure reported by the identity provider, carrying a
// stable machine-readable code next to the user-facing message so callers can
// branch without string matching.
type ProviderError struct {
	Code    string
	Message string
	Status  int
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("identity provider: %s (%s)", e.Message, e.Code)
}

var ErrProviderUnavailable = errors.New("identity provider unavailable")

// providerMessages translates provider error codes into the fixed set of
// user-readable messages. Unknown codes fall through to a generic message.
var providerMessages = map[string]string{
	"user_not_found":          "No account found with this email address",
	"invalid_credentials":     "Incorrect email or password",
	"invalid_grant":           "Incorrect email or password",
	"email_exists":            "An account with this email already exists",
	"user_already_exists":     "An account with this email already exists",
	"weak_password":           "Password should be at least 6 characters",
	"validation_failed":       "Please enter a valid email address",
	"over_request_rate_limit": "Too many failed attempts. Please try again later",
}

func newProviderError(code string, status int) *ProviderError {
	message, ok := providerMessages[code]
	if !ok {
		message = "An authentication error occurred"
	}
	return &ProviderError{
		Code:    code,
		Message: message,
		Status:  statusFor(code, status),
	}
}

func statusFor(code string, status int) int {
	switch code {
	case "user_not_found":
		return http.StatusNotFound
	case "invalid_credentials", "invalid_grant":
		return http.StatusUnauthorized
	case "email_exists", "user_already_exists":
		return http.StatusConflict
	case "weak_password", "validation_failed":
		return http.StatusBadRequest
	case "over_request_rate_limit":
		return http.StatusTooManyRequests
	}
	if status >= http.StatusBadRequest && status < http.StatusInternalServerError {
		return status
	}
	return http.StatusBadGateway
}
