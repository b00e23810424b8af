// Package middleware provides HTTP middleware for the Gin router.
//
// Go Learning Note (Middleware Pattern in Gin):
// In Gin, middleware is any function with the signature `gin.HandlerFunc`, which
// is `func(*gin.Context)`. Middleware functions form a chain: each one runs,
// optionally calls c.Next() to pass control to the next handler, and can call
// c.Abort() to stop the chain.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spatialprefix/pkg/utils"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestIDKey is the gin context key RequestID stores the id under.
const RequestIDKey = "request_id"

// RequestID reuses a valid incoming X-Request-ID or mints a new one, stores
// it in the gin context and echoes it on the response.
//
// Go Learning Note (Returning Functions):
// RequestID() returns a gin.HandlerFunc, a function that returns a function.
// The outer function is where configuration would be captured; the inner
// closure runs once per request.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if !utils.ValidID(id) {
			id = utils.GenerateID()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the id set by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

// BodyLimit caps request bodies at n bytes. Reads past the limit fail with
// *http.MaxBytesError. A non-positive n disables the limit.
func BodyLimit(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if n > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}
