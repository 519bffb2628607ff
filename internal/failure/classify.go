// Package failure turns errors into persisted failure logs.
//
// It contains the severity classifier, trace normalization, the Recorder
// (the terminal sink that never fails its caller) and ProcessBoundary, which
// records fatal process-level faults before terminating.
package failure

import (
	"net/http"

	"github.com/tbourn/go-failurelog-api/internal/apperr"
	"github.com/tbourn/go-failurelog-api/internal/domain"
)

// Classify maps an HTTP status (and, when status is 0, the status carried by
// err) to a severity tier. Unknown or absent statuses are critical.
func Classify(err error, status int) domain.Severity {
	if status == 0 && err != nil {
		if st, ok := apperr.StatusOf(err); ok {
			status = st
		}
	}
	switch {
	case status >= http.StatusInternalServerError:
		return domain.SeverityCritical
	case status >= http.StatusBadRequest:
		return domain.SeverityNormal
	default:
		return domain.SeverityCritical
	}
}
