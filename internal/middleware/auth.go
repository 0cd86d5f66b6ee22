package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/ward-assistant/internal/handler"
	"github.com/jwalitptl/ward-assistant/internal/model"
	"github.com/jwalitptl/ward-assistant/internal/session"
	"github.com/jwalitptl/ward-assistant/pkg/auth"
	apperrors "github.com/jwalitptl/ward-assistant/pkg/errors"
)

const ContextSession = "session"

type AuthMiddleware struct {
	jwt auth.JWTService
}

func NewAuthMiddleware(jwt auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{
		jwt: jwt,
	}
}

// Authenticate verifies the bearer token and rebuilds the caller's session
// for the rest of the chain.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			handler.RespondError(c, session.ErrNotLoggedIn)
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			handler.RespondError(c, apperrors.Unauthorized("invalid authorization format"))
			c.Abort()
			return
		}

		claims, err := m.jwt.ValidateToken(parts[1])
		if err != nil {
			handler.RespondError(c, err)
			c.Abort()
			return
		}

		c.Set(ContextSession, session.Restore(claims.SessionID, claims.Identity()))
		c.Next()
	}
}

// RequireRole admits only sessions of the given role.
func (m *AuthMiddleware) RequireRole(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := SessionFrom(c)
		if !s.Authenticated() {
			handler.RespondError(c, session.ErrNotLoggedIn)
			c.Abort()
			return
		}
		if s.Role() != role {
			handler.RespondError(c, apperrors.Forbidden(fmt.Sprintf("this endpoint is restricted to %s accounts", role.Info().Title)))
			c.Abort()
			return
		}
		c.Next()
	}
}

// SessionFrom returns the request's session, anonymous when Authenticate
// did not run.
func SessionFrom(c *gin.Context) *session.Session {
	if v, ok := c.Get(ContextSession); ok {
		if s, ok := v.(*session.Session); ok {
			return s
		}
	}
	return session.New()
}
