// Failure log HTTP handlers.
//
//   - POST /failure-logs        (create)
//   - GET  /failure-logs        (list, optional type/origin filters)
//   - GET  /failure-logs/stats  (per-tier counts)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/tbourn/go-failurelog-api/internal/apperr"
	"github.com/tbourn/go-failurelog-api/internal/http/response"
	"github.com/tbourn/go-failurelog-api/internal/services"
)

// CreateFailureLog godoc
// @ID          createFailureLog
// @Summary     Report a failure
// @Description Stores a failure reported by a client or service. Schema violations are answered 422 in production.
// @Tags        FailureLogs
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       body  body  handlers.CreateFailureLogRequest  true  "Failure payload"
//
// @Success     201  {object}  handlers.Envelope{data=domain.FailureLog}
// @Failure     400  {object}  handlers.Envelope  "Invalid request data"
// @Failure     401  {object}  handlers.Envelope  "Access token is required"
// @Failure     422  {object}  handlers.Envelope  "Validation failed"
// @Failure     500  {object}  handlers.Envelope  "Internal error"
// @Router      /failure-logs [post]
func (h *Handlers) CreateFailureLog(c *gin.Context) {
	var req CreateFailureLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, apperr.Wrap(err, response.MsgInvalidInput, http.StatusBadRequest, true))
		return
	}

	fl, err := h.failures.Create(c.Request.Context(), req.model())
	if err != nil {
		abort(c, err)
		return
	}
	response.Created(c, fl)
}

// ListFailureLogs godoc
// @ID          listFailureLogs
// @Summary     List failure logs
// @Description Returns active failure logs, newest first.
// @Tags        FailureLogs
// @Produce     json
// @Security    BearerAuth
//
// @Param       type    query  string  false  "Severity tier"  Enums(critical, normal, warning, info)
// @Param       origin  query  string  false  "Origin"         Enums(FE, BE, OTHER)
//
// @Success     200  {object}  handlers.Envelope{data=[]domain.FailureLog}
// @Failure     400  {object}  handlers.Envelope  "Invalid filter"
// @Failure     401  {object}  handlers.Envelope  "Access token is required"
// @Failure     500  {object}  handlers.Envelope  "Internal error"
// @Router      /failure-logs [get]
func (h *Handlers) ListFailureLogs(c *gin.Context) {
	logs, err := h.failures.List(c.Request.Context(), c.Query("type"), c.Query("origin"))
	switch {
	case errors.Is(err, services.ErrInvalidSeverity):
		abort(c, apperr.BadRequest("Type must be critical, normal, warning, or info"))
		return
	case errors.Is(err, services.ErrInvalidOrigin):
		abort(c, apperr.BadRequest("Origin must be either FE, BE, or OTHER"))
		return
	case err != nil:
		abort(c, err)
		return
	}
	response.OK(c, response.MsgSuccess, logs)
}

// FailureLogStats godoc
// @ID          failureLogStats
// @Summary     Failure log statistics
// @Description Counts active failure logs per severity tier.
// @Tags        FailureLogs
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  handlers.Envelope{data=services.FailureLogStats}
// @Failure     401  {object}  handlers.Envelope  "Access token is required"
// @Failure     500  {object}  handlers.Envelope  "Internal error"
// @Router      /failure-logs/stats [get]
func (h *Handlers) FailureLogStats(c *gin.Context) {
	st, err := h.failures.Stats(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}
	response.OK(c, response.MsgSuccess, st)
}
