// Package workflow runs the multi-step clinical and administrative
// commands once a request has been authorized and bound.
package workflow

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/jwalitptl/ward-assistant/internal/idgen"
	"github.com/jwalitptl/ward-assistant/internal/model"
	"github.com/jwalitptl/ward-assistant/internal/service/audit"
	"github.com/jwalitptl/ward-assistant/internal/service/event"
	"github.com/jwalitptl/ward-assistant/internal/service/report"
	"github.com/jwalitptl/ward-assistant/internal/session"
	"github.com/jwalitptl/ward-assistant/internal/store"
	apperrors "github.com/jwalitptl/ward-assistant/pkg/errors"
	"github.com/jwalitptl/ward-assistant/pkg/logger"
)

const (
	searchLimit       = 5
	applicationsLimit = 10
	unknownPatient    = "Unknown"
)

type Dependencies struct {
	Store     store.Gateway
	Allocator *idgen.Allocator
	Guard     *session.Guard
	Reports   *report.Service
	Events    *event.EventService
	Audit     *audit.AuditLogger
	Logger    *logger.Logger
}

type Executor struct {
	gw      store.Gateway
	ids     *idgen.Allocator
	guard   *session.Guard
	reports *report.Service
	events  *event.EventService
	audit   *audit.AuditLogger
	logger  *logger.Logger
	now     func() time.Time
}

func NewExecutor(deps Dependencies) *Executor {
	return &Executor{
		gw:      deps.Store,
		ids:     deps.Allocator,
		guard:   deps.Guard,
		reports: deps.Reports,
		events:  deps.Events,
		audit:   deps.Audit,
		logger:  deps.Logger.With("component", "workflow"),
		now:     time.Now,
	}
}

func actorOf(s *session.Session) audit.Actor {
	id, _ := s.Identity()
	return audit.Actor{SessionID: s.ID, StaffID: id.StaffID, Role: id.Role}
}

// identity returns the caller. Commands reaching the executor have passed
// the authorization gate, so an anonymous session here is a wiring bug.
func identity(s *session.Session) (session.Identity, error) {
	id, ok := s.Identity()
	if !ok {
		return session.Identity{}, session.ErrNotLoggedIn
	}
	return id, nil
}

// recorded audits and announces a stored record.
func (x *Executor) recorded(ctx context.Context, s *session.Session, eventType, entityType, entityID string, record interface{}) {
	if x.audit != nil {
		x.audit.Log(ctx, actorOf(s), model.AuditActionCreate, entityType, entityID, &audit.LogOptions{Metadata: record})
	}
	if x.events != nil {
		x.events.Emit(ctx, eventType, record)
	}
}

func (x *Executor) findPatient(ctx context.Context, patientID string) (model.Patient, error) {
	var p model.Patient
	found, err := x.gw.FindOne(ctx, model.CollectionPatients, store.Filter{"patient_id": patientID}, nil, &p)
	if err != nil {
		return model.Patient{}, fmt.Errorf("failed to get patient: %w", err)
	}
	if !found {
		return model.Patient{}, apperrors.NotFound("patient", nil)
	}
	return p, nil
}

// patientName is a display lookup: a missing patient renders as Unknown.
func (x *Executor) patientName(ctx context.Context, patientID string) (string, error) {
	var p model.Patient
	found, err := x.gw.FindOne(ctx, model.CollectionPatients, store.Filter{"patient_id": patientID},
		&store.FindOptions{Projection: bson.M{"name": 1}}, &p)
	if err != nil {
		return "", fmt.Errorf("failed to get patient: %w", err)
	}
	if !found || p.Name == "" {
		return unknownPatient, nil
	}
	return p.Name, nil
}

func (x *Executor) findAdmission(ctx context.Context, filter store.Filter, resource string) (model.Admission, error) {
	var a model.Admission
	found, err := x.gw.FindOne(ctx, model.CollectionAdmissions, filter, nil, &a)
	if err != nil {
		return model.Admission{}, fmt.Errorf("failed to get admission: %w", err)
	}
	if !found {
		return model.Admission{}, apperrors.NotFound(resource, nil)
	}
	return a, nil
}

// startOfDay is midnight UTC of t's UTC date. Stored timestamps are UTC, so
// the host zone must not move the boundary.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
