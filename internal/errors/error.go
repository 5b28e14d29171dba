package errors

import (
	"errors"
	"fmt"
)

// Category groups error codes.
type Category string

const (
	CategoryConfig   Category = "config"
	CategoryAuth     Category = "auth"
	CategoryBackend  Category = "backend"
	CategoryProtocol Category = "protocol"
	CategoryCLI      Category = "cli"
)

// ConsoleError is a structured error with a stable code.
type ConsoleError struct {
	Code       string
	Category   Category
	Message    string
	Detail     string
	Suggestion string
	Field      string // offending config key or flag, if any
	Wrapped    error
}

// Error implements the error interface.
func (e *ConsoleError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Field != "" {
		msg += " (" + e.Field + ")"
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error.
func (e *ConsoleError) Unwrap() error {
	return e.Wrapped
}

// Is matches another *ConsoleError by code.
func (e *ConsoleError) Is(target error) bool {
	t, ok := target.(*ConsoleError)
	return ok && t.Code != "" && t.Code == e.Code
}

// WithDetail replaces the detail text.
func (e *ConsoleError) WithDetail(d string) *ConsoleError {
	e.Detail = d
	return e
}

// WithSuggestion adds a fix hint.
func (e *ConsoleError) WithSuggestion(s string) *ConsoleError {
	e.Suggestion = s
	return e
}

// WithField names the config key or flag at fault.
func (e *ConsoleError) WithField(f string) *ConsoleError {
	e.Field = f
	return e
}

// Wrap attaches an underlying error.
func (e *ConsoleError) Wrap(err error) *ConsoleError {
	e.Wrapped = err
	return e
}

// New creates an error from a registered code.
func New(code string) *ConsoleError {
	tmpl, ok := registry[code]
	if !ok {
		return &ConsoleError{Code: code, Message: "Unknown error"}
	}
	return &ConsoleError{
		Code:       code,
		Category:   tmpl.Category,
		Message:    tmpl.Message,
		Detail:     tmpl.Detail,
		Suggestion: tmpl.Suggestion,
	}
}

// Newf creates an uncoded error with a formatted message.
func Newf(category Category, format string, args ...any) *ConsoleError {
	return &ConsoleError{Category: category, Message: fmt.Sprintf(format, args...)}
}

// FromError returns err as a *ConsoleError, wrapping it in code if it is
// not one already.
func FromError(err error, code string) *ConsoleError {
	if err == nil {
		return nil
	}
	var ce *ConsoleError
	if errors.As(err, &ce) {
		return ce
	}
	return New(code).Wrap(err)
}

// Code returns the code of the first *ConsoleError in err's chain.
func Code(err error) string {
	var ce *ConsoleError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// Join combines several errors into one, skipping nils.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
