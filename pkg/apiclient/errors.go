package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed backend call.
type Kind int

const (
	// KindNetwork is a connectivity failure or timeout.
	KindNetwork Kind = iota + 1
	// KindServer is a non-success response or an unreadable body.
	KindServer
	// KindUnauthorized is a missing, expired or rejected bearer token.
	KindUnauthorized
)

// String returns a short label suitable for metrics.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	case KindUnauthorized:
		return "unauthorized"
	}
	return "unknown"
}

// Error is a classified backend failure. Cancellation is never an *Error;
// it surfaces as an error wrapping context.Canceled.
type Error struct {
	Kind    Kind
	Method  string
	Path    string
	Status  int    // HTTP status, zero for network failures
	Message string // server-provided message, if any
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("apiclient: %s %s: %s", e.Method, e.Path, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsCancelled reports whether err stems from the caller cancelling the
// request. Cancellation is not a failure and should not be reported.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// KindOf returns the kind of a classified error, or zero.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsUnauthorized reports whether err is an authorization failure.
func IsUnauthorized(err error) bool {
	return KindOf(err) == KindUnauthorized
}

func kindForStatus(status int) Kind {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return KindUnauthorized
	}
	return KindServer
}
