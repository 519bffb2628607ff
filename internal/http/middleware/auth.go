package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-failurelog-api/internal/http/response"
)

const (
	tokenKey     = "token"
	bearerPrefix = "Bearer "

	// MsgTokenRequired is returned when no bearer token is presented.
	MsgTokenRequired = "Access token is required"
)

// Auth requires an "Authorization: Bearer <token>" header. Only presence is
// checked; the token is stored in the context for TokenFrom. Requests
// without one are answered 401 directly and are not recorded as failures.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, bearerPrefix) {
			token = strings.TrimSpace(h[len(bearerPrefix):])
		}
		if token == "" {
			response.Unauthorized(c, MsgTokenRequired)
			return
		}
		c.Set(tokenKey, token)
		c.Next()
	}
}

// TokenFrom returns the bearer token accepted by Auth, or "".
func TokenFrom(c *gin.Context) string {
	v, _ := c.Get(tokenKey)
	return asString(v)
}
