package workflow

import (
	"context"

	"github.com/jwalitptl/ward-assistant/internal/intent"
	"github.com/jwalitptl/ward-assistant/internal/model"
	"github.com/jwalitptl/ward-assistant/internal/service/audit"
	"github.com/jwalitptl/ward-assistant/internal/session"
)

// Help lists the commands available to the session: the common table,
// plus the role table once authenticated.
func (x *Executor) Help(_ context.Context, s *session.Session, _ EmptyRequest) (*HelpResult, error) {
	res := &HelpResult{Role: s.Role()}
	res.Commands = append(res.Commands, intent.CommonTable()...)
	if s.Authenticated() {
		res.Commands = append(res.Commands, intent.RoleTable(s.Role())...)
	}
	return res, nil
}

func (x *Executor) Login(ctx context.Context, s *session.Session, req LoginRequest) (*LoginResult, error) {
	id, err := x.guard.Login(ctx, s, req.StaffID, req.FullName)
	if err != nil {
		return nil, err
	}
	if x.audit != nil {
		x.audit.Log(ctx, actorOf(s), model.AuditActionLogin, model.AuditEntitySession, s.ID.String(), nil)
	}
	return &LoginResult{Identity: id}, nil
}

func (x *Executor) Logout(ctx context.Context, s *session.Session, _ EmptyRequest) (*LogoutResult, error) {
	actor := actorOf(s)
	prev, err := x.guard.Logout(s)
	if err != nil {
		return nil, err
	}
	x.auditLogout(ctx, s, actor)
	return &LogoutResult{Identity: prev}, nil
}

// Exit ends the conversation, signing out first when needed. It never
// fails.
func (x *Executor) Exit(ctx context.Context, s *session.Session, _ EmptyRequest) (*ExitResult, error) {
	res := &ExitResult{}
	if !s.Authenticated() {
		return res, nil
	}
	actor := actorOf(s)
	if prev, err := x.guard.Logout(s); err == nil {
		res.LoggedOut = &prev
		x.auditLogout(ctx, s, actor)
	}
	return res, nil
}

func (x *Executor) auditLogout(ctx context.Context, s *session.Session, actor audit.Actor) {
	if x.audit != nil {
		x.audit.Log(ctx, actor, model.AuditActionLogout, model.AuditEntitySession, s.ID.String(), nil)
	}
}
