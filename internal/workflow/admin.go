package workflow

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jwalitptl/ward-assistant/internal/idgen"
	"github.com/jwalitptl/ward-assistant/internal/model"
	"github.com/jwalitptl/ward-assistant/internal/service/audit"
	"github.com/jwalitptl/ward-assistant/internal/service/event"
	"github.com/jwalitptl/ward-assistant/internal/service/report"
	"github.com/jwalitptl/ward-assistant/internal/session"
	apperrors "github.com/jwalitptl/ward-assistant/pkg/errors"
)

// AddStaff registers a doctor, nurse or administrator under the next
// identifier of that role.
func (x *Executor) AddStaff(ctx context.Context, s *session.Session, req AddStaffRequest) (*StaffResult, error) {
	me, err := identity(s)
	if err != nil {
		return nil, err
	}
	info, ok := model.LookupRole(req.StaffType)
	if !ok {
		return nil, apperrors.Validationf("unknown staff type %q", req.StaffType)
	}

	staff := model.StaffMember{
		Role:              info.Role,
		Name:              session.NormalizeName(req.Name),
		Department:        req.Department,
		Contact:           req.Contact,
		YearsOfExperience: experience(req.YearsOfExperience),
	}
	if _, err := x.ids.Next(ctx, idgen.StaffKind(info.Role), func(ctx context.Context, id string) error {
		staff.ID = id
		return x.gw.InsertOne(ctx, info.Collection, staff.Document())
	}); err != nil {
		return nil, fmt.Errorf("failed to add %s: %w", info.Title, err)
	}

	x.logger.Info("staff member added", "new_staff_id", staff.ID, "role", staff.Role, "staff_id", me.StaffID)
	x.recorded(ctx, s, event.StaffCreated, model.AuditEntityStaff, staff.ID, staff)
	return &StaffResult{Staff: staff}, nil
}

// experience reads a count of years. Anything but ASCII digits, signs
// included, counts as zero.
func experience(raw string) int {
	if raw == "" {
		return 0
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0
		}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

// GenerateReport computes and exports one of the fixed reports.
func (x *Executor) GenerateReport(ctx context.Context, s *session.Session, req GenerateReportRequest) (*ReportResult, error) {
	kind, err := report.ParseKind(req.ReportType)
	if err != nil {
		return nil, err
	}
	rep, err := x.reports.Generate(ctx, kind)
	if err != nil {
		return nil, err
	}

	x.logger.Info("report generated", "report", string(rep.Kind), "location", rep.Export.Location)
	if x.audit != nil {
		x.audit.Log(ctx, actorOf(s), model.AuditActionExport, model.AuditEntityReport, rep.Export.Filename,
			&audit.LogOptions{Metadata: map[string]interface{}{"kind": rep.Kind, "location": rep.Export.Location, "rows": rep.Export.Rows}})
	}
	if x.events != nil {
		x.events.Emit(ctx, event.ReportGenerated, map[string]interface{}{
			"kind":     rep.Kind,
			"filename": rep.Export.Filename,
			"location": rep.Export.Location,
			"total":    rep.Total,
		})
	}
	return &ReportResult{Report: rep}, nil
}
