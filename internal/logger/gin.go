package logger

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// GinAccess logs one "http_access" event per request. Server errors log at
// error level, everything else at debug.
func GinAccess(l *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		lvl := slog.LevelDebug
		if status >= 500 {
			lvl = slog.LevelError
		}
		l.Log(c.Request.Context(), lvl, "http_access",
			"method", c.Request.Method,
			"route", c.FullPath(),
			"path", c.Request.URL.Path,
			"status", status,
			"bytes", c.Writer.Size(),
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", c.ClientIP(),
			"request_id", c.Writer.Header().Get("X-Request-ID"),
		)
	}
}
