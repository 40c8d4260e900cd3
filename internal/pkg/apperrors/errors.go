package apperrors

import (
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrUnauthorized       ErrorType = "UNAUTHORIZED"
	ErrAlreadyInitialized ErrorType = "ALREADY_INITIALIZED"
	ErrNotInitialized     ErrorType = "NOT_INITIALIZED"
	ErrInvalidRange       ErrorType = "INVALID_RANGE"
	ErrPaused             ErrorType = "PAUSED"
	ErrRiskRejected       ErrorType = "RISK_REJECTED"
	ErrNoMandate          ErrorType = "NO_MANDATE"
	ErrMandateExpired     ErrorType = "MANDATE_EXPIRED"
	ErrLowConfidence      ErrorType = "LOW_CONFIDENCE"
	ErrInvalidRoute       ErrorType = "INVALID_ROUTE"
	ErrInvalidAmount      ErrorType = "INVALID_AMOUNT"
	ErrProviderFailure    ErrorType = "PROVIDER_FAILURE"
	ErrNotFound           ErrorType = "NOT_FOUND"
	ErrInvalidRequest     ErrorType = "INVALID_REQUEST"
	ErrInternal           ErrorType = "INTERNAL_ERROR"
)

// AppError is the standard error struct for the application
type AppError struct {
	Type       ErrorType `json:"code"`
	Message    string    `json:"message"`
	Suggestion string    `json:"suggestion,omitempty"`
	HTTPStatus int       `json:"-"`
	Cause      error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func New(errType ErrorType, msg string, cause error) *AppError {
	return &AppError{
		Type:       errType,
		Message:    msg,
		Cause:      cause,
		HTTPStatus: mapTypeToStatus(errType),
		Suggestion: mapTypeToSuggestion(errType),
	}
}

func Newf(errType ErrorType, format string, args ...any) *AppError {
	return New(errType, fmt.Sprintf(format, args...), nil)
}

func NewUnauthorized(msg string) *AppError {
	return New(ErrUnauthorized, msg, nil)
}

func NewInvalidRange(msg string) *AppError {
	return New(ErrInvalidRange, msg, nil)
}

func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return New(ErrInternal, err.Error(), err)
}

// Is reports whether err carries the given taxonomy tag.
func Is(err error, t ErrorType) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Type == t
}

func mapTypeToStatus(t ErrorType) int {
	switch t {
	case ErrInvalidRange, ErrInvalidRoute, ErrInvalidAmount, ErrRiskRejected, ErrLowConfidence, ErrInvalidRequest:
		return http.StatusBadRequest
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrNoMandate, ErrMandateExpired:
		return http.StatusForbidden
	case ErrNotFound:
		return http.StatusNotFound
	case ErrAlreadyInitialized, ErrNotInitialized, ErrPaused:
		return http.StatusConflict
	case ErrProviderFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func mapTypeToSuggestion(t ErrorType) string {
	switch t {
	case ErrRiskRejected:
		return "Oracle score is below the router risk threshold."
	case ErrLowConfidence:
		return "Raise the signal confidence or lower the configured threshold."
	case ErrNoMandate:
		return "Mint a mandate for this user/asset/strategy first."
	case ErrMandateExpired:
		return "Mint a fresh mandate; expired mandates are never reactivated."
	case ErrPaused:
		return "The router is paused; retry after an admin unpauses it."
	case ErrProviderFailure:
		return "Check bridge provider connectivity and resubmit with a new idempotency key."
	case ErrUnauthorized:
		return "Check the gateway key and the caller's role."
	default:
		return ""
	}
}
