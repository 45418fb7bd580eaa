// Package apperr defines the error taxonomy shared by every action.
package apperr

import (
	"errors"
	"fmt"
	"os"
)

// Kind classifies a failure for reporting.
type Kind string

const (
	KindNotFound              Kind = "not_found"
	KindPermissionDenied      Kind = "permission_denied"
	KindSizeExceeded          Kind = "size_exceeded"
	KindEncodingError         Kind = "encoding_error"
	KindMissingParameter      Kind = "missing_parameter"
	KindInvalidParameter      Kind = "invalid_parameter"
	KindUnknownAction         Kind = "unknown_action"
	KindUnrecognizedCommand   Kind = "unrecognized_command"
	KindCapabilityUnavailable Kind = "capability_unavailable"
	KindUpstreamFailure       Kind = "upstream_failure"
	KindConflict              Kind = "conflict"
	KindInternal              Kind = "internal"
)

// Error is a classified failure. Msg is the user-facing text.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Msg == "" && t.Err == nil
}

var (
	ErrNotFound              = &Error{Kind: KindNotFound}
	ErrPermissionDenied      = &Error{Kind: KindPermissionDenied}
	ErrSizeExceeded          = &Error{Kind: KindSizeExceeded}
	ErrEncoding              = &Error{Kind: KindEncodingError}
	ErrMissingParameter      = &Error{Kind: KindMissingParameter}
	ErrInvalidParameter      = &Error{Kind: KindInvalidParameter}
	ErrUnknownAction         = &Error{Kind: KindUnknownAction}
	ErrUnrecognizedCommand   = &Error{Kind: KindUnrecognizedCommand}
	ErrCapabilityUnavailable = &Error{Kind: KindCapabilityUnavailable}
	ErrUpstream              = &Error{Kind: KindUpstreamFailure}
	ErrConflict              = &Error{Kind: KindConflict}
)

// New returns a classified error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf reports the kind of err. Plain os errors are mapped; anything
// unclassified is KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, os.ErrNotExist):
		return KindNotFound
	case errors.Is(err, os.ErrPermission):
		return KindPermissionDenied
	}
	return KindInternal
}

// Message returns the user-facing text of err, without wrapped causes when a
// message was set explicitly.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return err.Error()
}
