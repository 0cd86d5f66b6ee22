package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jwalitptl/ward-assistant/internal/model"
	"github.com/jwalitptl/ward-assistant/internal/session"
	apperrors "github.com/jwalitptl/ward-assistant/pkg/errors"
)

const issuer = "ward-assistant"

var (
	ErrInvalidToken = apperrors.Unauthorized("invalid token")
	ErrTokenExpired = apperrors.Unauthorized("token expired, please login again")
)

// TokenClaims carries a verified staff identity between stateless HTTP
// requests.
type TokenClaims struct {
	jwt.RegisteredClaims
	SessionID  uuid.UUID  `json:"sid"`
	Name       string     `json:"name"`
	Role       model.Role `json:"role"`
	Department string     `json:"department,omitempty"`
	Contact    string     `json:"contact,omitempty"`
}

// Identity rebuilds the session identity the token was issued for. The
// staff ID travels as the subject.
func (c *TokenClaims) Identity() session.Identity {
	return session.Identity{
		StaffID:    c.Subject,
		Name:       c.Name,
		Role:       c.Role,
		Department: c.Department,
		Contact:    c.Contact,
	}
}

type JWTService interface {
	GenerateAccessToken(sessionID uuid.UUID, identity session.Identity) (string, time.Time, error)
	ValidateToken(token string) (*TokenClaims, error)
}

type jwtService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTService(secret string, ttl time.Duration) JWTService {
	return &jwtService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *jwtService) GenerateAccessToken(sessionID uuid.UUID, identity session.Identity) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   identity.StaffID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		SessionID:  sessionID,
		Name:       identity.Name,
		Role:       identity.Role,
		Department: identity.Department,
		Contact:    identity.Contact,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expires, nil
}

func (s *jwtService) ValidateToken(token string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
