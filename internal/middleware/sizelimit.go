package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/jwalitptl/ward-assistant/pkg/errors"
)

const DefaultMaxBodySize int64 = 64 << 10

// SizeLimit rejects request bodies larger than maxBytes. Bodies without a
// declared length are cut off at maxBytes while being read.
func SizeLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			abort(c, http.StatusRequestEntityTooLarge, apperrors.ErrValidation.String(), "request body too large")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
