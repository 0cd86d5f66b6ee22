package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/jwalitptl/ward-assistant/pkg/errors"
)

const DefaultRequestTimeout = 30 * time.Second

// Timeout bounds the request context. Store calls observe the deadline and
// fail as connectivity errors, which handlers report as 503. A handler
// that ran out the clock without writing anything gets the same answer.
func Timeout(d time.Duration) gin.HandlerFunc {
	if d <= 0 {
		d = DefaultRequestTimeout
	}
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			abort(c, http.StatusServiceUnavailable, apperrors.ErrConnectivity.String(), "request timed out")
		}
	}
}
