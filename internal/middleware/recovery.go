package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	apperrors "github.com/jwalitptl/ward-assistant/pkg/errors"
	"github.com/jwalitptl/ward-assistant/pkg/logger"
)

// Recovery turns a panic into a 500 with the generic internal message. The
// panic value and stack go to the log only.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			p := recover()
			if p == nil {
				return
			}
			logger.FromContext(c.Request.Context(), log).Error(fmt.Errorf("panic: %v", p), "request panicked",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"stack", string(debug.Stack()),
			)
			abort(c, http.StatusInternalServerError, apperrors.ErrInternal.String(), "internal server error")
		}()
		c.Next()
	}
}
