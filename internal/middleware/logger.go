package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/ward-assistant/pkg/logger"
)

// Logger writes one access line per request. Bodies carry patient data and
// are never logged.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if id, ok := SessionFrom(c).Identity(); ok {
			fields = append(fields, "staff_id", id.StaffID)
		}

		reqLog := logger.FromContext(c.Request.Context(), log)
		switch {
		case status >= 500:
			reqLog.Warn("server error", fields...)
		case status >= 400:
			reqLog.Info("client error", fields...)
		default:
			reqLog.Info("request served", fields...)
		}
	}
}
