package shared

import (
	"errors"
	"net/http"
)

// ErrorKind classifies application errors so callers can react without
// string-matching messages.
type ErrorKind string

const (
	KindAuth          ErrorKind = "AUTH_ERROR"
	KindRateLimit     ErrorKind = "RATE_LIMIT_EXCEEDED"
	KindUnavailable   ErrorKind = "PROVIDER_UNAVAILABLE"
	KindNormalization ErrorKind = "NORMALIZATION_ERROR"
	KindNotConfigured ErrorKind = "NOT_CONFIGURED"
	KindBadRequest    ErrorKind = "BAD_REQUEST"
	KindNotFound      ErrorKind = "NOT_FOUND"
	KindInternal      ErrorKind = "INTERNAL_ERROR"
)

type AppError struct {
	StatusCode int         `json:"-"`
	Kind       ErrorKind   `json:"kind"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
	Err        error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Kind reports the classification of err, or KindInternal for plain errors.
func Kind(err error) ErrorKind {
	if appErr, ok := GetAppError(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

func NewAuthError(err error, message string) *AppError {
	return &AppError{StatusCode: http.StatusUnauthorized, Kind: KindAuth, Message: message, Err: err}
}

func NewRateLimitError(err error, message string) *AppError {
	return &AppError{StatusCode: http.StatusTooManyRequests, Kind: KindRateLimit, Message: message, Err: err}
}

func NewProviderUnavailableError(err error, message string) *AppError {
	return &AppError{StatusCode: http.StatusBadGateway, Kind: KindUnavailable, Message: message, Err: err}
}

func NewNormalizationError(err error, message string) *AppError {
	return &AppError{StatusCode: http.StatusUnprocessableEntity, Kind: KindNormalization, Message: message, Err: err}
}

func NewNotConfiguredError(message string) *AppError {
	return &AppError{StatusCode: http.StatusServiceUnavailable, Kind: KindNotConfigured, Message: message}
}

func NewBadRequestError(data interface{}, message string) *AppError {
	return &AppError{StatusCode: http.StatusBadRequest, Kind: KindBadRequest, Message: message, Data: data}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{StatusCode: http.StatusNotFound, Kind: KindNotFound, Message: message}
}

func NewInternalError(err error) *AppError {
	return &AppError{StatusCode: http.StatusInternalServerError, Kind: KindInternal, Message: "Internal Server Error", Err: err}
}
