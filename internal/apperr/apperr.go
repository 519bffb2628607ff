// Package apperr defines AppError, the error type handlers use to describe
// failures that carry an HTTP status code and an "operational" flag.
//
// Operational errors are expected and their message is safe to return to a
// client (validation rejections, missing resources). Non-operational errors
// are programming or runtime faults whose details must stay server-side.
package apperr

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// AppError is an error annotated with an HTTP status and operational flag.
// The stack is captured at construction.
type AppError struct {
	Message     string
	StatusCode  int
	Operational bool
	Cause       error

	stack errors.StackTrace
}

func newAppError(msg string, status int, operational bool, cause error) *AppError {
	e := &AppError{
		Message:     msg,
		StatusCode:  status,
		Operational: operational,
		Cause:       cause,
	}
	// Skip newAppError and the exported constructor.
	if st, ok := errors.New("").(stackTracer); ok {
		frames := st.StackTrace()
		if len(frames) > 2 {
			frames = frames[2:]
		}
		e.stack = frames
	}
	return e
}

// Wrap returns an AppError that keeps cause in its chain. A cause that
// already is an *AppError is returned unchanged.
func Wrap(cause error, msg string, status int, operational bool) *AppError {
	var ae *AppError
	if errors.As(cause, &ae) {
		return ae
	}
	return newAppError(msg, status, operational, cause)
}

// BadRequest returns an operational 400.
func BadRequest(msg string) *AppError { return newAppError(msg, http.StatusBadRequest, true, nil) }

// NotFound returns an operational 404.
func NotFound(msg string) *AppError { return newAppError(msg, http.StatusNotFound, true, nil) }

func (e *AppError) Error() string {
	if e.Cause != nil && e.Cause.Error() != e.Message {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// HTTPStatus returns the status code, or 500 when unset.
func (e *AppError) HTTPStatus() int {
	if e.StatusCode == 0 {
		return http.StatusInternalServerError
	}
	return e.StatusCode
}

// IsOperational reports whether the message may be shown to clients.
func (e *AppError) IsOperational() bool { return e.Operational }

// Name is the error kind reported in diagnostics.
func (e *AppError) Name() string { return "AppError" }

// StackTrace exposes the construction stack in pkg/errors form.
func (e *AppError) StackTrace() errors.StackTrace { return e.stack }

// Format supports %+v with the stack appended.
func (e *AppError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "%s", e.Error())
			e.stack.Format(s, verb)
			return
		}
		fallthrough
	case 's':
		_, _ = fmt.Fprint(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}

// StatusOf extracts an HTTP status from anywhere in err's chain.
// ok is false when nothing in the chain reports one.
func StatusOf(err error) (status int, ok bool) {
	var hs interface{ HTTPStatus() int }
	if errors.As(err, &hs) {
		return hs.HTTPStatus(), true
	}
	return 0, false
}

// IsOperational reports whether err's chain contains an operational error.
func IsOperational(err error) bool {
	var op interface{ IsOperational() bool }
	if errors.As(err, &op) {
		return op.IsOperational()
	}
	return false
}
