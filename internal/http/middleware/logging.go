// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides the request ID injector, panic recovery, and access to
// the request-scoped logger:
//
//   - RequestID() ensures every request carries a stable correlation ID
//     (propagated via X-Request-ID and stored in the Gin context).
//   - Recovery() converts panics into errors on the Gin error channel so the
//     ErrorHandler boundary records and answers them like any other failure.
//   - LoggerFrom() retrieves the request-scoped logger attached by
//     RedactingLogger.
//
// Recommended order:
//  1. RequestID()
//  2. RedactingLogger()
//  3. ErrorHandler()
//  4. Recovery()
//
// ErrorHandler must wrap Recovery so that it sees the converted panic after
// c.Next() returns.
package middleware

import (
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-failurelog-api/internal/failure"
)

const (
	// requestIDKey is the Gin context key under which the request ID is stored.
	requestIDKey = "requestID"
	// requestIDHeader is the HTTP header used to propagate the correlation ID.
	requestIDHeader = "X-Request-ID"
	// loggerKey holds the request-scoped *zerolog.Logger.
	loggerKey = "logger"
	// maxQueryLogLength caps the number of bytes of the raw query string logged.
	maxQueryLogLength = 2048
)

// RequestID attaches (or propagates) a correlation identifier per request.
//
// If the incoming request has X-Request-ID, that value is reused; otherwise a
// new UUIDv4 is generated. The ID is written back to the response header and
// stored in the Gin context under "requestID".
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// RequestIDFrom returns the correlation ID set by RequestID, or "".
func RequestIDFrom(c *gin.Context) string {
	v, _ := c.Get(requestIDKey)
	if s := asString(v); s != "" {
		return s
	}
	return c.Writer.Header().Get(requestIDHeader)
}

// Recovery intercepts panics and hands them to the error channel.
//
// The panic value becomes an error carrying the panic site stack, the
// request is aborted with 500, and ErrorHandler produces the body. When the
// handler had already written a response the error is still recorded but the
// written response is left as is.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			LoggerFrom(c).Error().
				Str("panic", failure.Describe(rec)).
				Bytes("stack", debug.Stack()).
				Str("request_id", RequestIDFrom(c)).
				Msg("panic recovered")

			_ = c.Error(panicError(rec))
			c.Abort()
		}()
		c.Next()
	}
}

func panicError(rec any) error {
	if err, ok := rec.(error); ok {
		return errors.WithStack(err)
	}
	return errors.New(failure.Describe(rec))
}

// LoggerFrom returns the request-scoped zerolog.Logger.
//
// If a logger was not attached by RedactingLogger, a fallback logger without
// request fields is returned. Callers can use the result without nil checks.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

// asString converts an arbitrary interface to a string, returning an empty
// string when the value is not a string. Used for context values.
func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// truncate returns s unchanged when within max length, otherwise it truncates
// s to max bytes and appends an ellipsis. A max <= 0 disables truncation.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
