package audit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/ward-assistant/internal/handler"
	"github.com/jwalitptl/ward-assistant/internal/model"
	"github.com/jwalitptl/ward-assistant/internal/service/audit"
	apperrors "github.com/jwalitptl/ward-assistant/pkg/errors"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

type Handler struct {
	service *audit.Service
}

func NewHandler(service *audit.Service) *Handler {
	return &Handler{
		service: service,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	audit := r.Group("/audit")
	{
		audit.GET("/logs", h.ListLogs)
		audit.GET("/logs/staff/:id", h.GetStaffLogs)
	}
}

func (h *Handler) ListLogs(c *gin.Context) {
	filter, ok := parseFilter(c)
	if !ok {
		return
	}
	h.list(c, filter)
}

func (h *Handler) GetStaffLogs(c *gin.Context) {
	filter, ok := parseFilter(c)
	if !ok {
		return
	}
	filter.StaffID = c.Param("id")
	h.list(c, filter)
}

func (h *Handler) list(c *gin.Context, filter model.AuditFilter) {
	logs, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if logs == nil {
		logs = []*model.AuditLog{}
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(logs))
}

func parseFilter(c *gin.Context) (model.AuditFilter, bool) {
	filter := model.AuditFilter{
		StaffID:    c.Query("staff_id"),
		Action:     c.Query("action"),
		EntityType: c.Query("entity_type"),
		Limit:      defaultLimit,
	}

	if v := c.Query("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			handler.RespondError(c, apperrors.Validation("since must be an RFC 3339 timestamp"))
			return filter, false
		}
		filter.Since = since
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			handler.RespondError(c, apperrors.Validation("limit must be a positive integer"))
			return filter, false
		}
		filter.Limit = n
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	return filter, true
}
