package command

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/ward-assistant/internal/engine"
	"github.com/jwalitptl/ward-assistant/internal/handler"
	"github.com/jwalitptl/ward-assistant/internal/intent"
	"github.com/jwalitptl/ward-assistant/internal/middleware"
	apperrors "github.com/jwalitptl/ward-assistant/pkg/errors"
)

// anonymousCommands only make sense on the console or are served by the
// auth endpoints.
var anonymousCommands = map[string]bool{
	intent.Login:  true,
	intent.Logout: true,
	intent.Exit:   true,
}

type RouteRequest struct {
	Utterance string `json:"utterance" binding:"required"`
}

type CommandInfo struct {
	Command string      `json:"command"`
	Fields  interface{} `json:"fields"`
}

type Handler struct {
	engine *engine.Engine
}

func NewHandler(e *engine.Engine) *Handler {
	return &Handler{engine: e}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	commands := r.Group("/commands")
	{
		commands.POST("/route", h.Route)
		commands.GET("/:command", h.Describe)
		commands.POST("/:command", h.Execute)
	}
}

// Route resolves free text for the caller without running anything.
func (h *Handler) Route(c *gin.Context) {
	var req RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondError(c, apperrors.Validation("utterance is required"))
		return
	}
	res := h.engine.Route(middleware.SessionFrom(c), req.Utterance)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"kind":    kindName(res.Kind),
		"command": res.Command,
		"reply":   res.Reply,
	}))
}

func (h *Handler) Describe(c *gin.Context) {
	cmd := c.Param("command")
	if err := h.engine.Authorize(middleware.SessionFrom(c), cmd); err != nil {
		handler.RespondError(c, err)
		return
	}
	fields, err := h.engine.Fields(cmd)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(CommandInfo{Command: cmd, Fields: fields}))
}

// Execute runs a command with the JSON body as its named field values.
func (h *Handler) Execute(c *gin.Context) {
	cmd := c.Param("command")
	if anonymousCommands[cmd] {
		handler.RespondError(c, apperrors.Validation("use the auth endpoints to login or logout"))
		return
	}

	var body map[string]interface{}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			handler.RespondError(c, apperrors.Validation("body must be a JSON object"))
			return
		}
	}
	values, ok := fieldValues(body)
	if !ok {
		handler.RespondError(c, apperrors.Validation("field values must be strings, numbers or booleans"))
		return
	}

	res, err := h.engine.Execute(c.Request.Context(), middleware.SessionFrom(c), cmd, values)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	status := http.StatusOK
	if creates[cmd] {
		status = http.StatusCreated
	}
	c.JSON(status, handler.NewSuccessResponse(res))
}

var creates = map[string]bool{
	intent.CreatePrescription:   true,
	intent.AddNote:              true,
	intent.RequestTest:          true,
	intent.RecordAdministration: true,
	intent.PatientVitals:        true,
	intent.AddStaff:             true,
	intent.GenerateReport:       true,
}

// fieldValues flattens a JSON object into the string fields commands
// bind from.
func fieldValues(body map[string]interface{}) (map[string]string, bool) {
	values := make(map[string]string, len(body))
	for k, v := range body {
		switch x := v.(type) {
		case nil:
			values[k] = ""
		case string:
			values[k] = x
		case float64:
			values[k] = strconv.FormatFloat(x, 'f', -1, 64)
		case bool:
			values[k] = strconv.FormatBool(x)
		default:
			return nil, false
		}
	}
	return values, true
}

func kindName(k intent.Kind) string {
	switch k {
	case intent.KindCommand:
		return "command"
	case intent.KindSmallTalk:
		return "small_talk"
	case intent.KindLoginRequired:
		return "login_required"
	default:
		return "unrecognized"
	}
}
