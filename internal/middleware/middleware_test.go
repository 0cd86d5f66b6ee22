package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/ward-assistant/internal/handler"
	"github.com/jwalitptl/ward-assistant/pkg/logger"
)

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	e := gin.New()
	e.Use(mw...)
	return e
}

func serve(e *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, handler.Response) {
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	var resp handler.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestRequestIDReusesSafeHeader(t *testing.T) {
	e := newEngine(RequestID(logger.Nop()))
	e.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, "trace-42_a")
	w, _ := serve(e, req)

	assert.Equal(t, "trace-42_a", w.Header().Get(HeaderXRequestID))
	assert.Equal(t, "trace-42_a", w.Body.String())
}

func TestRequestIDReplacesUnsafeHeader(t *testing.T) {
	e := newEngine(RequestID(logger.Nop()))
	e.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, rid := range []string{"has space", "new\nline", strings.Repeat("a", maxRequestIDLength+1)} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderXRequestID, rid)
		w, _ := serve(e, req)

		got := w.Header().Get(HeaderXRequestID)
		assert.NotEqual(t, rid, got)
		assert.Len(t, got, 36)
	}
}

func TestRecoveryWritesEnvelope(t *testing.T) {
	e := newEngine(RequestID(logger.Nop()), Recovery(logger.Nop()))
	e.GET("/", func(c *gin.Context) { panic("boom") })

	w, resp := serve(e, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "internal", resp.Code)
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestTimeoutAnswersSilentHandler(t *testing.T) {
	e := newEngine(Timeout(10 * time.Millisecond))
	e.GET("/", func(c *gin.Context) { <-c.Request.Context().Done() })

	w, resp := serve(e, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "connectivity", resp.Code)
}

func TestSizeLimit(t *testing.T) {
	e := newEngine(SizeLimit(8))
	e.POST("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w, resp := serve(e, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"too long"}`)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "validation", resp.Code)
}

func TestRateLimitPerClient(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RPS: 0.001, Burst: 1})
	e := newEngine(rl.RateLimit())
	e.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	first := httptest.NewRequest(http.MethodGet, "/", nil)
	first.RemoteAddr = "10.0.0.1:1000"
	w, _ := serve(e, first)
	require.Equal(t, http.StatusNoContent, w.Code)

	again := httptest.NewRequest(http.MethodGet, "/", nil)
	again.RemoteAddr = "10.0.0.1:1001"
	w, resp := serve(e, again)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "rate_limited", resp.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.RemoteAddr = "10.0.0.2:1000"
	w, _ = serve(e, other)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
