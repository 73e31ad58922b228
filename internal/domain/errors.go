package domain

import "errors"

// Domain errors
var (
	ErrGameNotFound      = errors.New("game not found")
	ErrUnexpectedStatus  = errors.New("unexpected response status")
	ErrMalformedPayload  = errors.New("malformed payload")
	ErrUnknownUpdateType = errors.New("unknown update type")
	ErrChannelClosed     = errors.New("live channel closed")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrInternalError     = errors.New("internal server error")
	ErrCacheMiss         = errors.New("cache miss")
	ErrNoSession         = errors.New("no game session open")
)

// IsNotFoundError checks if an error is a not-found type error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrGameNotFound)
}

// IsDecodeError checks if an error came from a payload that could not be understood
func IsDecodeError(err error) bool {
	return errors.Is(err, ErrMalformedPayload) || errors.Is(err, ErrUnknownUpdateType)
}
