// Package console runs the assistant as a line-oriented conversation on a
// terminal.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jwalitptl/ward-assistant/internal/engine"
	"github.com/jwalitptl/ward-assistant/internal/intent"
	"github.com/jwalitptl/ward-assistant/internal/session"
	"github.com/jwalitptl/ward-assistant/internal/workflow"
	apperrors "github.com/jwalitptl/ward-assistant/pkg/errors"
	"github.com/jwalitptl/ward-assistant/pkg/logger"
)

const (
	greeting = "Welcome to the ward assistant. Type 'login' to begin or 'help' for commands."
	prompt   = "> "
)

var errExit = errors.New("exit")

type Console struct {
	engine  *engine.Engine
	in      *bufio.Scanner
	out     io.Writer
	session *session.Session
	logger  *logger.Logger

	// lines is fed by a single reader goroutine so a blocked read never
	// holds up cancellation. readErr is valid once lines is closed.
	lines   chan string
	readErr error
}

func New(e *engine.Engine, in io.Reader, out io.Writer, log *logger.Logger) *Console {
	return &Console{
		engine:  e,
		in:      bufio.NewScanner(in),
		out:     out,
		session: session.New(),
		logger:  log.With("component", "console"),
	}
}

// Session exposes the conversation's session.
func (c *Console) Session() *session.Session {
	return c.session
}

// Run reads utterances until exit, end of input or ctx is done. Command
// errors are shown to the user and never end the conversation.
func (c *Console) Run(ctx context.Context) error {
	c.println(greeting)
	c.logger.Info("conversation started", "session_id", c.session.ID.String())
	stop := c.startReader()
	defer stop()

	for {
		line, ok := c.readLine(ctx, prompt)
		if !ok {
			c.shutdown(context.WithoutCancel(ctx))
			if ctx.Err() != nil {
				return nil
			}
			return c.readErr
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		if err := c.handle(ctx, line); errors.Is(err, errExit) {
			c.shutdown(context.WithoutCancel(ctx))
			return nil
		}
	}
}

func (c *Console) startReader() (stop func()) {
	c.lines = make(chan string)
	done := make(chan struct{})
	go func() {
		defer close(c.lines)
		for c.in.Scan() {
			select {
			case c.lines <- c.in.Text():
			case <-done:
				return
			}
		}
		c.readErr = c.in.Err()
	}()
	return func() { close(done) }
}

func (c *Console) handle(ctx context.Context, line string) error {
	route := c.engine.Route(c.session, line)
	if route.Kind != intent.KindCommand {
		c.println(route.Reply)
		return nil
	}
	return c.runCommand(ctx, route.Command)
}

func (c *Console) runCommand(ctx context.Context, cmd string) error {
	if err := c.engine.Authorize(c.session, cmd); err != nil {
		c.printError(err)
		return nil
	}
	fields, err := c.engine.Fields(cmd)
	if err != nil {
		c.printError(err)
		return nil
	}

	values := make(map[string]string, len(fields))
	for _, f := range fields {
		v, ok := c.readLine(ctx, f.Prompt+": ")
		if !ok {
			return errExit
		}
		values[f.Name] = v
	}

	res, err := c.engine.Execute(ctx, c.session, cmd, values)
	if err != nil {
		c.printError(err)
		return nil
	}
	render(c.out, res)

	switch r := res.(type) {
	case *workflow.ExitResult:
		return errExit
	case *workflow.SearchPatientResult:
		c.pickPatient(ctx, r)
	}
	return nil
}

// pickPatient offers to open one of the search results.
func (c *Console) pickPatient(ctx context.Context, r *workflow.SearchPatientResult) {
	if len(r.Patients) == 0 {
		return
	}
	v, ok := c.readLine(ctx, fmt.Sprintf("Enter a number (1-%d) to view details, or press Enter to skip: ", len(r.Patients)))
	if !ok || strings.TrimSpace(v) == "" {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 || n > len(r.Patients) {
		c.println("Invalid selection.")
		return
	}

	res, err := c.engine.Execute(ctx, c.session, intent.PatientDetails,
		map[string]string{"patient_id": r.Patients[n-1].PatientID})
	if err != nil {
		c.printError(err)
		return
	}
	render(c.out, res)
}

// shutdown signs out a session still open when the conversation ends.
func (c *Console) shutdown(ctx context.Context) {
	if !c.session.Authenticated() {
		return
	}
	if res, err := c.engine.Execute(ctx, c.session, intent.Exit, nil); err == nil {
		render(c.out, res)
	}
}

// readLine prompts and waits for the next line, end of input or ctx.
func (c *Console) readLine(ctx context.Context, p string) (string, bool) {
	fmt.Fprint(c.out, p)
	select {
	case <-ctx.Done():
		return "", false
	case line, ok := <-c.lines:
		return line, ok
	}
}

func (c *Console) println(s string) {
	fmt.Fprintln(c.out, s)
}

func (c *Console) printError(err error) {
	appErr := apperrors.Classify(err)
	switch appErr.Code {
	case apperrors.ErrConnectivity:
		c.println("Error: the hospital database is unavailable right now. Please try again.")
	case apperrors.ErrInternal:
		c.println("Error: something went wrong. Please try again.")
	default:
		c.println("Error: " + appErr.Message)
	}
}
