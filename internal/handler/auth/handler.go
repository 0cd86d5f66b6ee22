package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/ward-assistant/internal/engine"
	"github.com/jwalitptl/ward-assistant/internal/handler"
	"github.com/jwalitptl/ward-assistant/internal/intent"
	"github.com/jwalitptl/ward-assistant/internal/middleware"
	"github.com/jwalitptl/ward-assistant/internal/session"
	"github.com/jwalitptl/ward-assistant/internal/workflow"
	"github.com/jwalitptl/ward-assistant/pkg/auth"
	apperrors "github.com/jwalitptl/ward-assistant/pkg/errors"
)

type LoginRequest struct {
	StaffID  string `json:"staff_id" binding:"required"`
	FullName string `json:"full_name" binding:"required"`
}

type TokenResponse struct {
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	ExpiresAt   time.Time        `json:"expires_at"`
	Identity    session.Identity `json:"identity"`
}

type Handler struct {
	engine *engine.Engine
	jwt    auth.JWTService
	authMW *middleware.AuthMiddleware
}

func NewHandler(e *engine.Engine, jwt auth.JWTService, authMW *middleware.AuthMiddleware) *Handler {
	return &Handler{engine: e, jwt: jwt, authMW: authMW}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.authMW.Authenticate(), h.Logout)
	}
}

// Login runs the same login command as the console on a fresh session and
// hands the verified identity back as a bearer token.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondError(c, apperrors.Validation("staff_id and full_name are required"))
		return
	}

	s := session.New()
	res, err := h.engine.Execute(c.Request.Context(), s, intent.Login, map[string]string{
		"staff_id":  req.StaffID,
		"full_name": req.FullName,
	})
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	identity := res.(*workflow.LoginResult).Identity

	token, expires, err := h.jwt.GenerateAccessToken(s.ID, identity)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expires,
		Identity:    identity,
	}))
}

// Logout records the end of the token's session. Tokens are not revoked;
// they lapse at expiry.
func (h *Handler) Logout(c *gin.Context) {
	res, err := h.engine.Execute(c.Request.Context(), middleware.SessionFrom(c), intent.Logout, nil)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(res))
}
