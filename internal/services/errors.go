// Package services defines the business logic for products and failure logs.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

var (
	// ErrProductNotFound indicates that the requested product does not exist
	// or is no longer active.
	ErrProductNotFound = errors.New("product not found")

	// ErrInvalidSeverity is returned when a list filter names an unknown
	// severity tier.
	ErrInvalidSeverity = errors.New("type must be critical, normal, warning, or info")

	// ErrInvalidOrigin is returned when a list filter names an unknown origin.
	ErrInvalidOrigin = errors.New("origin must be either FE, BE, or OTHER")
)
