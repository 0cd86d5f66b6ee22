package session

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwalitptl/ward-assistant/internal/model"
	"github.com/jwalitptl/ward-assistant/internal/store"
	apperrors "github.com/jwalitptl/ward-assistant/pkg/errors"
	"github.com/jwalitptl/ward-assistant/pkg/logger"
	"github.com/jwalitptl/ward-assistant/pkg/metrics"
)

const minStaffIDLength = 5

var (
	ErrAlreadyLoggedIn      = apperrors.Validation("already logged in, logout first")
	ErrNotLoggedIn          = apperrors.Unauthorized("please login first")
	ErrAuthenticationFailed = apperrors.Unauthorized("authentication failed")
)

// NormalizeStaffID trims and upper-cases a staff identifier.
func NormalizeStaffID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// NormalizeName trims and title-cases a person's name. Every run of
// letters is cased on its own, so "o'brien" becomes "O'Brien" the way the
// stored records spell it.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	caser := cases.Title(language.Und)

	var b strings.Builder
	b.Grow(len(name))
	start := -1
	for i, r := range name {
		if unicode.IsLetter(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			b.WriteString(caser.String(name[start:i]))
			start = -1
		}
		b.WriteRune(r)
	}
	if start >= 0 {
		b.WriteString(caser.String(name[start:]))
	}
	return b.String()
}

// Guard authenticates staff against the role collections.
type Guard struct {
	gw       store.Gateway
	throttle *Throttle
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewGuard(gw store.Gateway, throttle *Throttle, log *logger.Logger, m *metrics.Metrics) *Guard {
	return &Guard{
		gw:       gw,
		throttle: throttle,
		logger:   log.With("component", "session_guard"),
		metrics:  m,
	}
}

func (g *Guard) count(result string) {
	if g.metrics != nil {
		g.metrics.LoginAttempts.WithLabelValues(result).Inc()
	}
}

// Verify checks credentials without touching any session. Both the console
// and the HTTP login use it.
func (g *Guard) Verify(ctx context.Context, staffID, fullName string) (Identity, error) {
	staffID = NormalizeStaffID(staffID)
	fullName = NormalizeName(fullName)

	if staffID == "" || fullName == "" {
		g.count("invalid")
		return Identity{}, apperrors.Validation("staff ID and full name are both required")
	}
	if len(staffID) < minStaffIDLength || !strings.Contains(staffID, "_") {
		g.count("invalid")
		return Identity{}, apperrors.Validation("invalid staff ID format")
	}
	info, ok := model.RoleForStaffID(staffID)
	if !ok {
		g.count("invalid")
		return Identity{}, apperrors.Validation("staff ID must start with DOC_, NUR_, or ADM_")
	}
	if !g.throttle.Allow(staffID) {
		g.count("throttled")
		g.logger.Warn("login throttled", "staff_id", staffID)
		return Identity{}, apperrors.Validation("too many login attempts, try again later")
	}

	var doc bson.M
	found, err := g.gw.FindOne(ctx, info.Collection, store.Filter{info.IDField: staffID, "name": fullName}, nil, &doc)
	if err != nil {
		g.count("error")
		return Identity{}, fmt.Errorf("failed to look up staff member: %w", err)
	}
	if !found {
		g.count("rejected")
		g.logger.Warn("login rejected", "staff_id", staffID, "role", info.Role)
		return Identity{}, ErrAuthenticationFailed
	}

	g.throttle.Reset(staffID)
	staff := model.StaffFromDocument(info.Role, doc)
	return Identity{
		StaffID:    staffID,
		Name:       fullName,
		Role:       info.Role,
		Department: staff.Department,
		Contact:    staff.Contact,
	}, nil
}

// Login moves an anonymous session to authenticated. On any failure the
// session is left untouched.
func (g *Guard) Login(ctx context.Context, s *Session, staffID, fullName string) (Identity, error) {
	if s.Authenticated() {
		return Identity{}, ErrAlreadyLoggedIn
	}

	identity, err := g.Verify(ctx, staffID, fullName)
	if err != nil {
		return Identity{}, err
	}

	s.signIn(identity)
	g.count("success")
	if g.metrics != nil {
		g.metrics.ActiveSessions.Inc()
	}
	g.logger.Info("login accepted", "staff_id", identity.StaffID, "role", identity.Role, "session_id", s.ID.String())
	return identity, nil
}

// Logout returns the session to anonymous and reports who was signed out.
func (g *Guard) Logout(s *Session) (Identity, error) {
	prev := s.signOut()
	if prev == nil {
		return Identity{}, ErrNotLoggedIn
	}
	if g.metrics != nil {
		g.metrics.ActiveSessions.Dec()
	}
	g.logger.Info("logout", "staff_id", prev.StaffID, "session_id", s.ID.String())
	return *prev, nil
}
