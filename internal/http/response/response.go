// Package response defines the JSON envelope shared by every endpoint and
// the helpers that write it.
//
// Example success response:
//
//	HTTP/1.1 201 Created
//	{
//	  "success": true,
//	  "message": "Resource created successfully",
//	  "data": { "id": "…", "message": "m" },
//	  "metadata": { "timestamp": "2025-01-01T00:00:00.000Z", "requestId": "…" }
//	}
//
// Example error response:
//
//	HTTP/1.1 422 Unprocessable Entity
//	{
//	  "success": false,
//	  "message": "Invalid input data. Path is required",
//	  "statusCode": 422,
//	  "metadata": { "timestamp": "2025-01-01T00:00:00.000Z" }
//	}
package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Standard messages.
const (
	MsgSuccess       = "Operation completed successfully"
	MsgCreated       = "Resource created successfully"
	MsgNotFound      = "Resource not found"
	MsgInvalidInput  = "Invalid request data"
	MsgInternalError = "Internal server error"
	MsgUnauthorized  = "Unauthorized access"
)

// HeaderRequestID is echoed into metadata.requestId when present.
const HeaderRequestID = "X-Request-ID"

// Envelope is the body of every JSON response. Exactly one of Data (success)
// or Errors/StatusCode (failure) is meaningful; Metadata.timestamp is always
// set at send time.
type Envelope struct {
	Success    bool           `json:"success"`
	Message    string         `json:"message"`
	Data       any            `json:"data,omitempty"`
	Errors     any            `json:"errors,omitempty"`
	StatusCode int            `json:"statusCode,omitempty"`
	Pagination *Pagination    `json:"pagination,omitempty"`
	Metadata   map[string]any `json:"metadata"`
}

// Pagination describes one page of a listing. Listings are currently
// unpaged, so the field is always omitted.
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalItems  int64 `json:"totalItems"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
	Limit       int   `json:"limit,omitempty"`
}

// Timestamp formats t as ISO-8601 UTC with milliseconds.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

func metadata(c *gin.Context, extra map[string]any) map[string]any {
	md := make(map[string]any, len(extra)+2)
	for k, v := range extra {
		md[k] = v
	}
	if rid := c.Writer.Header().Get(HeaderRequestID); rid != "" {
		md["requestId"] = rid
	}
	md["timestamp"] = Timestamp(time.Now())
	return md
}

// Success writes a 2xx envelope.
func Success(c *gin.Context, status int, message string, data any) {
	if message == "" {
		message = MsgSuccess
	}
	c.JSON(status, Envelope{
		Success:  true,
		Message:  message,
		Data:     data,
		Metadata: metadata(c, nil),
	})
}

// OK writes 200 with data.
func OK(c *gin.Context, message string, data any) {
	Success(c, http.StatusOK, message, data)
}

// Created writes 201 "Resource created successfully".
func Created(c *gin.Context, data any) {
	Success(c, http.StatusCreated, MsgCreated, data)
}

// Error aborts the request with a failure envelope.
func Error(c *gin.Context, status int, message string, errs any, extra map[string]any) {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if message == "" {
		message = "An error occurred"
	}
	c.AbortWithStatusJSON(status, Envelope{
		Success:    false,
		Message:    message,
		Errors:     errs,
		StatusCode: status,
		Metadata:   metadata(c, extra),
	})
}

// Unauthorized aborts with 401.
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, orDefault(message, MsgUnauthorized), nil, nil)
}

// NotFound aborts with 404.
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, orDefault(message, MsgNotFound), nil, nil)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
