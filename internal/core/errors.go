package core

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// AppError is the module's error envelope. Its Code is one of the error
// kinds from the error-handling design: provider-level kinds never leave
// the orchestrator (they become missing results), only FeedInvalid and
// validation errors are ever surfaced to a caller.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Err.Error())
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error.
func NewAppError(code, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// Error kinds. ProviderUnavailable/ProviderAuthMissing/ProviderRateLimited/
// ProviderMalformed never propagate past a provider adapter — they are
// logged and mapped to an empty result. CacheError is always swallowed.
// FeedInvalid is surfaced to ParseFeed's caller. CancelledByCaller marks a
// request abandoned due to context cancellation or deadline.
const (
	ErrCodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
	ErrCodeProviderAuthMissing = "PROVIDER_AUTH_MISSING"
	ErrCodeProviderRateLimited = "PROVIDER_RATE_LIMITED"
	ErrCodeProviderMalformed   = "PROVIDER_MALFORMED"
	ErrCodeFeedInvalid         = "FEED_INVALID"
	ErrCodeCache               = "CACHE_ERROR"
	ErrCodeCancelled           = "CANCELLED_BY_CALLER"
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeConfiguration       = "CONFIGURATION_ERROR"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

func NewProviderUnavailableError(provider string, err error) *AppError {
	return NewAppError(ErrCodeProviderUnavailable, fmt.Sprintf("provider %s unavailable", provider), err)
}

func NewProviderAuthMissingError(provider string) *AppError {
	return NewAppError(ErrCodeProviderAuthMissing, fmt.Sprintf("provider %s missing credentials", provider), nil)
}

func NewProviderRateLimitedError(provider string) *AppError {
	return NewAppError(ErrCodeProviderRateLimited, fmt.Sprintf("provider %s rate limited", provider), nil)
}

func NewProviderMalformedError(provider string, sample string, err error) *AppError {
	msg := fmt.Sprintf("provider %s returned unparseable body", provider)
	if sample != "" {
		msg = fmt.Sprintf("%s: %s", msg, sample)
	}
	return NewAppError(ErrCodeProviderMalformed, msg, err)
}

func NewFeedInvalidError(reason string, err error) *AppError {
	return NewAppError(ErrCodeFeedInvalid, reason, err)
}

func NewCacheError(op string, err error) *AppError {
	return NewAppError(ErrCodeCache, fmt.Sprintf("cache %s failed", op), err)
}

func NewCancelledError(err error) *AppError {
	return NewAppError(ErrCodeCancelled, "request cancelled or deadline exceeded", err)
}

func NewValidationError(message string, err error) *AppError {
	return NewAppError(ErrCodeValidation, message, err)
}

func NewConfigurationError(message string, err error) *AppError {
	return NewAppError(ErrCodeConfiguration, message, err)
}

func NewInternalError(message string, err error) *AppError {
	return NewAppError(ErrCodeInternal, message, err)
}

// ErrorResponse is the JSON envelope written by WriteErrorResponse.
type ErrorResponse struct {
	Error   *AppError `json:"error"`
	Success bool      `json:"success"`
}

func NewErrorResponse(err *AppError) *ErrorResponse {
	return &ErrorResponse{Error: err, Success: false}
}

// WriteErrorResponse writes an error response to an HTTP response writer.
// Used only by the operational status surface (internal/statusweb) for
// ParseFeed's FeedInvalid and request-validation failures — every other
// error kind is invisible to any caller per the propagation policy.
func WriteErrorResponse(w http.ResponseWriter, statusCode int, err *AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if encErr := json.NewEncoder(w).Encode(NewErrorResponse(err)); encErr != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// GetHTTPStatusCode maps an error kind to an HTTP status code.
func GetHTTPStatusCode(err *AppError) int {
	switch err.Code {
	case ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeFeedInvalid:
		return http.StatusUnprocessableEntity
	case ErrCodeCancelled:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// HandleError writes an appropriate HTTP response for any error.
func HandleError(w http.ResponseWriter, err error) {
	appErr, ok := err.(*AppError)
	if !ok {
		appErr = NewInternalError("an unexpected error occurred", err)
	}
	WriteErrorResponse(w, GetHTTPStatusCode(appErr), appErr)
}
