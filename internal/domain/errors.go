package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySessionName indicates a rename target that is blank after trimming
	ErrEmptySessionName = errors.New("session name is empty")

	// ErrDuplicateSessionName indicates a rename target already used by another session
	ErrDuplicateSessionName = errors.New("session name already in use")

	// ErrInvalidSessionName indicates a rename target that would be read as a command
	ErrInvalidSessionName = errors.New("session name must not start with /")

	// ErrReservedSessionName indicates a rename target that collides with a keyboard label
	ErrReservedSessionName = errors.New("session name is reserved")

	// ErrSessionNotFound indicates no session matched the requested name or id
	ErrSessionNotFound = errors.New("session not found")

	// ErrDeleteUnsupported indicates the chat platform cannot delete messages
	ErrDeleteUnsupported = errors.New("message deletion not supported by platform")

	// ErrUnknownPlatform indicates an event or request for a platform that is not wired
	ErrUnknownPlatform = errors.New("unknown platform")
)

// InferenceErrorKind classifies failures of the inference endpoint
type InferenceErrorKind string

const (
	// InferenceErrorUpstreamStatus - Non-success HTTP status from the inference endpoint
	InferenceErrorUpstreamStatus InferenceErrorKind = "upstream_status"
	// InferenceErrorUpstreamPayload - Success status but no usable completion choice
	InferenceErrorUpstreamPayload InferenceErrorKind = "upstream_payload"
	// InferenceErrorTransport - Network, timeout or (de)serialization failure
	InferenceErrorTransport InferenceErrorKind = "transport"
)

// InferenceError is returned by the inference client for every failed generation
type InferenceError struct {
	Kind       InferenceErrorKind
	StatusCode int    // UpstreamStatus only
	Body       string // UpstreamStatus only
	Message    string // UpstreamPayload only
	Err        error  // Transport only
}

func (e *InferenceError) Error() string {
	switch e.Kind {
	case InferenceErrorUpstreamStatus:
		return fmt.Sprintf("inference endpoint returned status %d: %s", e.StatusCode, e.Body)
	case InferenceErrorUpstreamPayload:
		return fmt.Sprintf("inference endpoint returned an error: %s", e.Message)
	default:
		return fmt.Sprintf("inference request failed: %v", e.Err)
	}
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}

// NewUpstreamStatusError builds an UpstreamStatus inference error
func NewUpstreamStatusError(statusCode int, body string) *InferenceError {
	return &InferenceError{Kind: InferenceErrorUpstreamStatus, StatusCode: statusCode, Body: body}
}

// NewUpstreamPayloadError builds an UpstreamPayload inference error
func NewUpstreamPayloadError(message string) *InferenceError {
	return &InferenceError{Kind: InferenceErrorUpstreamPayload, Message: message}
}

// NewTransportError builds a Transport inference error
func NewTransportError(err error) *InferenceError {
	return &InferenceError{Kind: InferenceErrorTransport, Err: err}
}

// ValidationError reports a user-supplied value that was rejected
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
