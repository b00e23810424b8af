package handlers

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"spatialprefix/internal/api/middleware"
	"spatialprefix/internal/geo"
	"spatialprefix/internal/index"
	"spatialprefix/internal/logger"
	"spatialprefix/internal/shape"
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, index.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shape.ErrInvalidShape),
		errors.Is(err, shape.ErrUnsupportedOperation),
		errors.Is(err, index.ErrInvalidID),
		errors.Is(err, geo.ErrInvalidHash):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeError responds with {"error": ...}. Server errors are logged; their
// details stay out of the response.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.L().Error("request_failed",
			"route", c.FullPath(),
			"request_id", middleware.GetRequestID(c),
			"err", err,
		)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// badRequest wraps binding errors, which carry no sentinel.
func badRequest(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
