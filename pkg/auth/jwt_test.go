package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/ward-assistant/internal/model"
	"github.com/jwalitptl/ward-assistant/internal/session"
)

var nurse = session.Identity{
	StaffID:    "NUR_001",
	Name:       "Mary Jones",
	Role:       model.RoleNurse,
	Department: "Cardiology",
	Contact:    "N/A",
}

func TestTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	sid := uuid.New()

	token, expires, err := svc.GenerateAccessToken(sid, nurse)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, sid, claims.SessionID)
	assert.Equal(t, nurse, claims.Identity())
}

func TestTokenWrongSecret(t *testing.T) {
	token, _, err := NewJWTService("one", time.Hour).GenerateAccessToken(uuid.New(), nurse)
	require.NoError(t, err)

	_, err = NewJWTService("two", time.Hour).ValidateToken(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenExpired(t *testing.T) {
	svc := NewJWTService("test-secret", time.Minute).(*jwtService)
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err := svc.GenerateAccessToken(uuid.New(), nurse)
	require.NoError(t, err)

	_, err = NewJWTService("test-secret", time.Minute).ValidateToken(token)

	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenGarbage(t *testing.T) {
	_, err := NewJWTService("test-secret", time.Hour).ValidateToken("not.a.token")

	assert.ErrorIs(t, err, ErrInvalidToken)
}
