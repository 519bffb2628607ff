package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/tbourn/go-failurelog-api/internal/apperr"
	"github.com/tbourn/go-failurelog-api/internal/config"
	"github.com/tbourn/go-failurelog-api/internal/failure"
	"github.com/tbourn/go-failurelog-api/internal/http/response"
	"github.com/tbourn/go-failurelog-api/internal/repo"
)

// FailureRecorder is the part of failure.Recorder used by ErrorHandler.
type FailureRecorder interface {
	RecordAsync(ctx context.Context, o failure.Options)
}

// ErrorHandler is the global error boundary. It is the only place where an
// error pushed with c.Error becomes an HTTP response.
//
// After the chain returns, the last collected error is recorded through rec
// without blocking the response, then answered according to env:
//
//   - development: the error's own status and message, plus
//     errors{stack, name, statusCode, isOperational}.
//   - any other env: store errors are first reclassified (cast mismatch 400,
//     conflict 409, validation 422). Operational errors answer with their
//     message and status; everything else answers 500 "Internal server
//     error" and is logged in full.
func ErrorHandler(rec FailureRecorder, env string) gin.HandlerFunc {
	rd := newRedactor(nil)
	dev := env == config.EnvDevelopment

	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		if dev {
			handleDevelopment(c, rec, rd, env, err)
			return
		}
		handleProduction(c, rec, err)
	}
}

func handleDevelopment(c *gin.Context, rec FailureRecorder, rd redactor, env string, err error) {
	status := statusOf(err)
	operational := apperr.IsOperational(err)
	msg := messageOf(err)

	md := requestMetadata(c, status, operational)
	md["headers"] = rd.headers(c.Request.Header)
	md["query"] = rd.query(c.Request.URL.Query())
	md["params"] = paramsOf(c)
	record(c, rec, msg, err, status, md)

	tr := failure.TraceOf(err)
	respond(c, status, operational, msg, gin.H{
		"stack":         tr.Stack,
		"name":          tr.Name,
		"statusCode":    status,
		"isOperational": operational,
	}, map[string]any{"environment": env})
}

func handleProduction(c *gin.Context, rec FailureRecorder, err error) {
	status := statusOf(err)
	operational := apperr.IsOperational(err)
	msg := messageOf(err)
	if ae := reclassify(err); ae != nil {
		status, operational, msg = ae.HTTPStatus(), ae.IsOperational(), ae.Message
	}

	record(c, rec, msg, err, status, requestMetadata(c, status, operational))

	if operational {
		respond(c, status, true, msg, nil, nil)
		return
	}
	LoggerFrom(c).Error().
		Err(err).
		Int("status", status).
		Str("stack", failure.StackOf(err)).
		Msg("unhandled error")
	respond(c, http.StatusInternalServerError, false, response.MsgInternalError, nil, nil)
}

// reclassify maps store errors onto client errors. It returns nil when err
// is already an AppError or carries no StoreError.
func reclassify(err error) *apperr.AppError {
	var ae *apperr.AppError
	if errors.As(err, &ae) {
		return nil
	}
	se, ok := repo.AsStoreError(err)
	if !ok {
		return nil
	}
	switch se.Kind {
	case repo.KindCastMismatch:
		return apperr.Wrap(se, fmt.Sprintf("Invalid %s: %s", se.Field, se.Value), http.StatusBadRequest, true)
	case repo.KindConflict:
		value := se.Value
		if value == "" {
			value = se.Field
		}
		return apperr.Wrap(se, fmt.Sprintf("Duplicate field value: %q. Please use another value!", value), http.StatusConflict, true)
	case repo.KindValidation:
		return apperr.Wrap(se, "Invalid input data. "+strings.Join(se.Messages(), ". "), http.StatusUnprocessableEntity, true)
	}
	return nil
}

func record(c *gin.Context, rec FailureRecorder, msg string, err error, status int, md map[string]any) {
	if rec == nil {
		return
	}
	rec.RecordAsync(c.Request.Context(), failure.Options{
		Message:  msg,
		Err:      err,
		Path:     c.Request.URL.Path,
		Status:   status,
		Metadata: md,
	})
}

func respond(c *gin.Context, status int, operational bool, msg string, errs any, extra map[string]any) {
	httpErrors.WithLabelValues(strconv.Itoa(status), strconv.FormatBool(operational)).Inc()
	if c.Writer.Written() {
		return
	}
	response.Error(c, status, msg, errs, extra)
}

func requestMetadata(c *gin.Context, status int, operational bool) map[string]any {
	return map[string]any{
		"method":        c.Request.Method,
		"userAgent":     c.Request.UserAgent(),
		"ip":            c.ClientIP(),
		"statusCode":    status,
		"isOperational": operational,
		"requestId":     RequestIDFrom(c),
	}
}

func paramsOf(c *gin.Context) map[string]string {
	out := make(map[string]string, len(c.Params))
	for _, p := range c.Params {
		out[p.Key] = p.Value
	}
	return out
}

func statusOf(err error) int {
	if s, ok := apperr.StatusOf(err); ok && s >= 400 {
		return s
	}
	return http.StatusInternalServerError
}

// messageOf prefers the AppError message over the full chain text.
func messageOf(err error) string {
	var ae *apperr.AppError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return err.Error()
}
