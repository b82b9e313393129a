package models

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind is the structured classification of a lookup failure.
type ErrorKind string

const (
	KindNone                ErrorKind = ""
	KindPermissionDenied    ErrorKind = "permission_denied"
	KindLocationUnavailable ErrorKind = "location_unavailable"
	KindGeocodeFailure      ErrorKind = "geocode_failure"
	KindNetwork             ErrorKind = "network_error"
	KindMalformedResponse   ErrorKind = "malformed_response"
	KindRegistry            ErrorKind = "registry_error"
	KindConfiguration       ErrorKind = "configuration_error"
	KindTimeout             ErrorKind = "timeout"
	KindUnknown             ErrorKind = "unknown"
)

// Sentinel errors shared by every stage of the pipeline.
var (
	ErrPermissionDenied    = errors.New("location permission denied")
	ErrLocationUnavailable = errors.New("location unavailable")
	ErrGeocodeFailure      = errors.New("failed to resolve address")
	ErrNetwork             = errors.New("network error")
	ErrMalformedResponse   = errors.New("malformed registry response")
	ErrRegistry            = errors.New("registry error")
	ErrConfiguration       = errors.New("configuration error")
)

// DefaultRegistryMessage is used when a failed envelope carries no resultMsg.
const DefaultRegistryMessage = "약국 정보를 가져오는데 실패했습니다."

// RegistryError is returned when the registry answers with a non-success result code.
type RegistryError struct {
	Code    string
	Message string
}

func (e *RegistryError) Error() string {
	return e.Message
}

// Is makes errors.Is(err, ErrRegistry) match any RegistryError.
func (e *RegistryError) Is(target error) bool {
	return target == ErrRegistry
}

// NewRegistryError builds a RegistryError, falling back to DefaultRegistryMessage.
func NewRegistryError(code, message string) *RegistryError {
	if message == "" {
		message = DefaultRegistryMessage
	}
	return &RegistryError{Code: code, Message: message}
}

// KindOf classifies err. A nil error has KindNone.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrPermissionDenied):
		return KindPermissionDenied
	case errors.Is(err, ErrLocationUnavailable):
		return KindLocationUnavailable
	case errors.Is(err, ErrGeocodeFailure):
		return KindGeocodeFailure
	case errors.Is(err, ErrRegistry):
		return KindRegistry
	case errors.Is(err, ErrMalformedResponse):
		return KindMalformedResponse
	case errors.Is(err, ErrNetwork):
		return KindNetwork
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	default:
		return KindUnknown
	}
}

// Wrap joins a sentinel kind with the underlying cause so both match errors.Is.
func Wrap(kind error, cause error) error {
	if cause == nil {
		return kind
	}
	return fmt.Errorf("%w: %w", kind, cause)
}
