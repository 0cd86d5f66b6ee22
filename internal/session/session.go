package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/ward-assistant/internal/model"
)

type State int

const (
	Anonymous State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// Identity is the staff member a session acts for.
type Identity struct {
	StaffID    string     `json:"staff_id"`
	Name       string     `json:"name"`
	Role       model.Role `json:"role"`
	Department string     `json:"department"`
	Contact    string     `json:"contact"`
}

// Session is passed explicitly to every command. It holds at most one
// identity and lives only in process memory.
type Session struct {
	ID        uuid.UUID
	StartedAt time.Time
	identity  *Identity
}

func New() *Session {
	return &Session{ID: uuid.New(), StartedAt: time.Now()}
}

// Restore rebuilds an authenticated session for a stateless transport that
// has already verified the identity.
func Restore(id uuid.UUID, identity Identity) *Session {
	return &Session{ID: id, StartedAt: time.Now(), identity: &identity}
}

func (s *Session) State() State {
	if s.identity == nil {
		return Anonymous
	}
	return Authenticated
}

func (s *Session) Authenticated() bool {
	return s.identity != nil
}

// Identity returns a copy of the current identity, if any.
func (s *Session) Identity() (Identity, bool) {
	if s.identity == nil {
		return Identity{}, false
	}
	return *s.identity, true
}

// Role is empty for an anonymous session.
func (s *Session) Role() model.Role {
	if s.identity == nil {
		return ""
	}
	return s.identity.Role
}

func (s *Session) signIn(identity Identity) {
	s.identity = &identity
}

func (s *Session) signOut() *Identity {
	prev := s.identity
	s.identity = nil
	return prev
}
