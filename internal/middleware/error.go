package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/ward-assistant/internal/handler"
	"github.com/jwalitptl/ward-assistant/pkg/logger"
)

// abort ends the chain with the same envelope handlers write.
func abort(c *gin.Context, status int, code, message string) {
	resp := handler.NewErrorResponse(message)
	resp.Code = code
	c.AbortWithStatusJSON(status, resp)
}

// ErrorHandler logs the errors handlers attached to the context. The
// response itself has already been written.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		reqLog := logger.FromContext(c.Request.Context(), log)
		for _, e := range c.Errors {
			reqLog.Error(e.Err, "request failed", "method", c.Request.Method, "route", c.FullPath())
		}
	}
}
