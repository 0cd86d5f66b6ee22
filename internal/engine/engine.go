// Package engine is the single entry point for conversational commands. It
// resolves utterances, gates every command on the session's role and
// dispatches to the workflow executors through a static table.
package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jwalitptl/ward-assistant/internal/intent"
	"github.com/jwalitptl/ward-assistant/internal/model"
	"github.com/jwalitptl/ward-assistant/internal/session"
	"github.com/jwalitptl/ward-assistant/internal/workflow"
	apperrors "github.com/jwalitptl/ward-assistant/pkg/errors"
	"github.com/jwalitptl/ward-assistant/pkg/logger"
	"github.com/jwalitptl/ward-assistant/pkg/metrics"
)

type access int

const (
	// anyone may run the command in any state.
	anyone access = iota
	// anonymousOnly commands are rejected once signed in.
	anonymousOnly
	// signedIn commands need any authenticated role.
	signedIn
	// roleOwned commands need the owning role.
	roleOwned
)

type runFunc func(ctx context.Context, x *workflow.Executor, s *session.Session, req interface{}) (workflow.Result, error)

type handler struct {
	access     access
	owner      model.Role
	newRequest func() interface{}
	run        runFunc
}

func command[Req any, Res workflow.Result](a access, owner model.Role,
	fn func(*workflow.Executor, context.Context, *session.Session, Req) (Res, error)) handler {
	return handler{
		access:     a,
		owner:      owner,
		newRequest: func() interface{} { return new(Req) },
		run: func(ctx context.Context, x *workflow.Executor, s *session.Session, req interface{}) (workflow.Result, error) {
			res, err := fn(x, ctx, s, *req.(*Req))
			if err != nil {
				return nil, err
			}
			return res, nil
		},
	}
}

var dispatch = map[string]handler{
	intent.Help:   command(anyone, "", (*workflow.Executor).Help),
	intent.Login:  command(anonymousOnly, "", (*workflow.Executor).Login),
	intent.Logout: command(signedIn, "", (*workflow.Executor).Logout),
	intent.Exit:   command(anyone, "", (*workflow.Executor).Exit),

	intent.SearchPatient:      command(roleOwned, model.RoleDoctor, (*workflow.Executor).SearchPatient),
	intent.PatientDetails:     command(roleOwned, model.RoleDoctor, (*workflow.Executor).PatientDetails),
	intent.AdmissionHistory:   command(roleOwned, model.RoleDoctor, (*workflow.Executor).AdmissionHistory),
	intent.CreatePrescription: command(roleOwned, model.RoleDoctor, (*workflow.Executor).CreatePrescription),
	intent.ViewSchedule:       command(roleOwned, model.RoleDoctor, (*workflow.Executor).ViewSchedule),
	intent.AddNote:            command(roleOwned, model.RoleDoctor, (*workflow.Executor).AddNote),
	intent.RequestTest:        command(roleOwned, model.RoleDoctor, (*workflow.Executor).RequestTest),

	intent.MedicationList:       command(roleOwned, model.RoleNurse, (*workflow.Executor).MedicationList),
	intent.RecordAdministration: command(roleOwned, model.RoleNurse, (*workflow.Executor).RecordAdministration),
	intent.PatientVitals:        command(roleOwned, model.RoleNurse, (*workflow.Executor).RecordVitals),
	intent.ViewApplications:     command(roleOwned, model.RoleNurse, (*workflow.Executor).ViewApplications),

	intent.AddStaff:       command(roleOwned, model.RoleAdmin, (*workflow.Executor).AddStaff),
	intent.GenerateReport: command(roleOwned, model.RoleAdmin, (*workflow.Executor).GenerateReport),
}

// Commands lists every dispatchable command identifier, sorted.
func Commands() []string {
	out := make([]string, 0, len(dispatch))
	for cmd := range dispatch {
		out = append(out, cmd)
	}
	sort.Strings(out)
	return out
}

type Engine struct {
	x       *workflow.Executor
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func New(x *workflow.Executor, log *logger.Logger, m *metrics.Metrics) *Engine {
	return &Engine{x: x, logger: log.With("component", "engine"), metrics: m}
}

// Route resolves an utterance without running anything.
func (e *Engine) Route(s *session.Session, utterance string) intent.Result {
	return intent.Route(utterance, s)
}

func lookup(cmd string) (handler, error) {
	h, ok := dispatch[cmd]
	if !ok {
		return handler{}, apperrors.Validationf("unknown command %q", cmd)
	}
	return h, nil
}

// Fields lists the inputs a command asks for.
func (e *Engine) Fields(cmd string) ([]workflow.Field, error) {
	h, err := lookup(cmd)
	if err != nil {
		return nil, err
	}
	return workflow.Fields(h.newRequest()), nil
}

// Authorize checks whether the session may run cmd. Callers that prompt
// for input run it first so a rejected user is never asked for fields.
func (e *Engine) Authorize(s *session.Session, cmd string) error {
	h, err := lookup(cmd)
	if err != nil {
		return err
	}
	return authorize(s, h)
}

func authorize(s *session.Session, h handler) error {
	switch h.access {
	case anonymousOnly:
		if s.Authenticated() {
			return session.ErrAlreadyLoggedIn
		}
	case signedIn:
		if !s.Authenticated() {
			return session.ErrNotLoggedIn
		}
	case roleOwned:
		if !s.Authenticated() {
			return session.ErrNotLoggedIn
		}
		if s.Role() != h.owner {
			return apperrors.Forbidden(fmt.Sprintf("this command is restricted to %s accounts", h.owner.Info().Title))
		}
	}
	return nil
}

// Execute authorizes, binds and runs one command. A rejected command never
// reaches its executor and so never touches the store.
func (e *Engine) Execute(ctx context.Context, s *session.Session, cmd string, values map[string]string) (workflow.Result, error) {
	start := time.Now()
	res, err := e.execute(ctx, s, cmd, values)
	e.observe(s, cmd, start, err)
	return res, err
}

func (e *Engine) execute(ctx context.Context, s *session.Session, cmd string, values map[string]string) (workflow.Result, error) {
	h, err := lookup(cmd)
	if err != nil {
		return nil, err
	}
	if err := authorize(s, h); err != nil {
		return nil, err
	}

	req := h.newRequest()
	if err := workflow.Bind(values, req); err != nil {
		return nil, err
	}
	return h.run(ctx, e.x, s, req)
}

func (e *Engine) observe(s *session.Session, cmd string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		code := apperrors.CodeOf(err)
		status = code.String()
		fields := []interface{}{"command", cmd, "session_id", s.ID.String(), "code", status}
		if code == apperrors.ErrConnectivity || code == apperrors.ErrInternal {
			e.logger.Error(err, "command failed", fields...)
		} else {
			e.logger.Debug("command rejected", append(fields, "reason", err.Error())...)
		}
	}

	if e.metrics == nil {
		return
	}
	if _, ok := dispatch[cmd]; !ok {
		cmd = "unknown"
	}
	e.metrics.Commands.WithLabelValues(cmd, status).Inc()
	e.metrics.CommandLatency.WithLabelValues(cmd).Observe(time.Since(start).Seconds())
}
