package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
)

// Category represents the type of error.
type Category string

const (
	CategoryRequest  Category = "request"
	CategoryUpload   Category = "upload"
	CategoryUpstream Category = "upstream"
	CategoryInternal Category = "internal"
	CategoryConfig   Category = "config"
)

// RelayError is a structured error with an HTTP status and a client-facing
// message.
type RelayError struct {
	// Code is a unique error identifier (e.g., "E111").
	Code string

	// Category is the error type.
	Category Category

	// Status is the HTTP status written to the client. Zero for errors that
	// never reach an HTTP response.
	Status int

	// Message is the client-facing description.
	Message string

	// Payload overrides Message in the JSON envelope. Used to pass an
	// upstream error body through unchanged.
	Payload json.RawMessage

	// Detail is a longer explanation, shown on the terminal only.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *RelayError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Wrapped != nil {
		return msg + ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *RelayError) Unwrap() error {
	return e.Wrapped
}

// WithStatus overrides the registered HTTP status. Non-positive values are
// ignored.
func (e *RelayError) WithStatus(status int) *RelayError {
	if status > 0 {
		e.Status = status
	}
	return e
}

// WithPayload replaces the envelope message with a raw JSON value.
func (e *RelayError) WithPayload(raw json.RawMessage) *RelayError {
	e.Payload = raw
	return e
}

// WithMessage replaces the client-facing message.
func (e *RelayError) WithMessage(msg string) *RelayError {
	e.Message = msg
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *RelayError) WithSuggestion(s string) *RelayError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *RelayError) WithDetail(d string) *RelayError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *RelayError) Wrap(err error) *RelayError {
	e.Wrapped = err
	return e
}

// Envelope is the JSON body written for every handler error.
type Envelope struct {
	Message json.RawMessage `json:"message"`
}

// Envelope returns the JSON body for this error.
func (e *RelayError) Envelope() Envelope {
	if len(e.Payload) > 0 {
		return Envelope{Message: e.Payload}
	}
	msg, _ := json.Marshal(e.Message)
	return Envelope{Message: msg}
}

// New creates a RelayError from a registered error code.
func New(code string) *RelayError {
	template, ok := registry[code]
	if !ok {
		return &RelayError{
			Code:     code,
			Category: CategoryInternal,
			Status:   http.StatusInternalServerError,
			Message:  "Unknown error",
		}
	}
	return &RelayError{
		Code:       code,
		Category:   template.Category,
		Status:     template.Status,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a new RelayError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *RelayError {
	return &RelayError{
		Category: category,
		Status:   http.StatusInternalServerError,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError returns err as a RelayError. Errors that already carry a
// RelayError in their chain are returned as-is; anything else is wrapped
// in the given code.
func FromError(err error, code string) *RelayError {
	if err == nil {
		return nil
	}
	var re *RelayError
	if stderrors.As(err, &re) {
		return re
	}
	return New(code).Wrap(err)
}

// Is reports whether err carries a RelayError with the given code.
func Is(err error, code string) bool {
	var re *RelayError
	if stderrors.As(err, &re) {
		return re.Code == code
	}
	return false
}
