// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders, a hardening middleware that attaches a
// conservative set of HTTP security headers suitable for JSON APIs running
// behind a reverse proxy.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// DefaultContentSecurityPolicy allows same-origin assets plus the inline
// script and style the Swagger UI needs.
const DefaultContentSecurityPolicy = "default-src 'self'; base-uri 'self'; font-src 'self' https: data:; " +
	"frame-ancestors 'self'; img-src 'self' data:; object-src 'none'; " +
	"script-src 'self' 'unsafe-inline'; style-src 'self' https: 'unsafe-inline'"

// SecurityOptions configures HTTP security headers emitted by SecurityHeaders.
//
// EnableHSTS emits Strict-Transport-Security for HTTPS requests only. Enable
// it only when traffic is HTTPS end-to-end. HSTSMaxAge defaults to 180 days.
//
// ContentSecurityPolicy, when non-empty, is sent verbatim.
//
// NoStore adds Cache-Control: no-store (plus legacy Pragma/Expires).
//
// EnablePolicy sends Permissions-Policy and X-Permitted-Cross-Domain-Policies.
type SecurityOptions struct {
	EnableHSTS            bool
	HSTSMaxAge            time.Duration
	ContentSecurityPolicy string
	NoStore               bool
	EnablePolicy          bool
}

// SecurityHeaders returns a Gin middleware that adds security headers to
// each response.
//
// Always set:
//
//	X-Content-Type-Options: nosniff
//	X-Frame-Options: DENY
//	Referrer-Policy: no-referrer
//	Cross-Origin-Opener-Policy: same-origin
//	X-DNS-Prefetch-Control: off
//
// If X-Request-ID is present it is added to Access-Control-Expose-Headers so
// browser clients can read it.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := int(opt.HSTSMaxAge.Seconds())
	if maxAge <= 0 {
		maxAge = int((180 * 24 * time.Hour).Seconds())
	}
	hsts := "max-age=" + strconv.Itoa(maxAge) + "; includeSubDomains; preload"

	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cross-Origin-Opener-Policy", "same-origin")
		h.Set("X-DNS-Prefetch-Control", "off")

		if opt.ContentSecurityPolicy != "" {
			h.Set("Content-Security-Policy", opt.ContentSecurityPolicy)
		}
		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}
		if opt.NoStore {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		}
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}

		if rid := h.Get(requestIDHeader); rid != "" {
			const hdr = "Access-Control-Expose-Headers"
			cur := h.Get(hdr)
			if cur == "" {
				h.Set(hdr, requestIDHeader)
			} else if !strings.Contains(cur, requestIDHeader) {
				h.Set(hdr, cur+", "+requestIDHeader)
			}
		}

		c.Next()
	}
}

// isHTTPS reports whether the incoming request used HTTPS either directly
// (r.TLS != nil) or via a reverse proxy that set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
