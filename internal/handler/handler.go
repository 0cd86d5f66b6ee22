package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

const readinessTimeout = 2 * time.Second

// Check reports whether one backend is reachable.
type Check func(ctx context.Context) error

// Handler serves the probe endpoints. Readiness runs every named check.
type Handler struct {
	checks map[string]Check
}

func NewHandler(checks map[string]Check) *Handler {
	return &Handler{checks: checks}
}

type probeResponse struct {
	Status string            `json:"status"`
	Time   time.Time         `json:"time"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, probeResponse{Status: "alive", Time: time.Now().UTC()})
}

// ReadinessCheck answers 503 if any backend is down. Error details stay
// in the log; the body only names which check failed.
func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := probeResponse{Status: "ready", Checks: make(map[string]string, len(names))}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			_ = c.Error(err)
			resp.Status = "not_ready"
			resp.Checks[name] = "unreachable"
			continue
		}
		resp.Checks[name] = "ok"
	}
	resp.Time = time.Now().UTC()

	status := http.StatusOK
	if resp.Status != "ready" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}
