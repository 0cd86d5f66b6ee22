package workflow

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jwalitptl/ward-assistant/internal/idgen"
	"github.com/jwalitptl/ward-assistant/internal/model"
	"github.com/jwalitptl/ward-assistant/internal/service/event"
	"github.com/jwalitptl/ward-assistant/internal/session"
	"github.com/jwalitptl/ward-assistant/internal/store"
	apperrors "github.com/jwalitptl/ward-assistant/pkg/errors"
)

// MedicationList builds today's round for the nurse's department: every
// active admission that has prescriptions, each marked Given when an
// administration has been recorded for it since midnight.
func (x *Executor) MedicationList(ctx context.Context, s *session.Session, _ EmptyRequest) (*MedicationListResult, error) {
	me, err := identity(s)
	if err != nil {
		return nil, err
	}

	now := x.now()
	today := startOfDay(now)
	var admissions []model.Admission
	if err := x.gw.Find(ctx, model.CollectionAdmissions, store.Filter{
		"department":     me.Department,
		"admission_date": store.Filter{"$lte": now},
		"discharge_date": model.ActiveAdmissionFilter(),
	}, store.Ascending("admission_id"), &admissions); err != nil {
		return nil, fmt.Errorf("failed to list admissions: %w", err)
	}

	res := &MedicationListResult{Department: me.Department, Rounds: []MedicationRound{}}
	for _, a := range admissions {
		var rxs []model.Prescription
		if err := x.gw.Find(ctx, model.CollectionPrescriptions, store.Filter{"admission_id": a.AdmissionID}, nil, &rxs); err != nil {
			return nil, fmt.Errorf("failed to list prescriptions: %w", err)
		}
		if len(rxs) == 0 {
			continue
		}

		name, err := x.patientName(ctx, a.PatientID)
		if err != nil {
			return nil, err
		}
		round := MedicationRound{PatientID: a.PatientID, PatientName: name, AdmissionID: a.AdmissionID, Room: a.Room}
		for _, rx := range rxs {
			given, err := x.gw.CountDocuments(ctx, model.CollectionMedicationEvents, store.Filter{
				"patient_id":      a.PatientID,
				"prescription_id": rx.PrescriptionID,
				"timestamp":       store.Filter{"$gte": today},
			})
			if err != nil {
				return nil, fmt.Errorf("failed to check administrations: %w", err)
			}
			status := MedicationPending
			if given > 0 {
				status = MedicationGiven
			}
			round.Items = append(round.Items, MedicationItem{Prescription: rx, Status: status})
		}
		res.Rounds = append(res.Rounds, round)
	}
	return res, nil
}

// RecordAdministration records a dose against a prescription of the
// patient's active admission in the nurse's department.
func (x *Executor) RecordAdministration(ctx context.Context, s *session.Session, req RecordAdministrationRequest) (*AdministrationResult, error) {
	me, err := identity(s)
	if err != nil {
		return nil, err
	}
	patient, err := x.findPatient(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}
	admission, err := x.findAdmission(ctx, store.Filter{
		"patient_id":     req.PatientID,
		"department":     me.Department,
		"discharge_date": model.ActiveAdmissionFilter(),
	}, "active admission in your department")
	if err != nil {
		return nil, err
	}

	var rx model.Prescription
	found, err := x.gw.FindOne(ctx, model.CollectionPrescriptions,
		store.Filter{"prescription_id": req.PrescriptionID, "admission_id": admission.AdmissionID}, nil, &rx)
	if err != nil {
		return nil, fmt.Errorf("failed to get prescription: %w", err)
	}
	if !found {
		return nil, apperrors.NotFound("prescription for this admission", nil)
	}

	ev := model.MedicationAdministration{
		PatientID:      req.PatientID,
		PrescriptionID: rx.PrescriptionID,
		MedicationName: rx.DrugName,
		EventType:      model.EventTypeAdministration,
		Dosage:         rx.Dosage,
		Timestamp:      x.now(),
		StaffID:        me.StaffID,
		StaffName:      me.Name,
		StaffType:      model.StaffTypeNurse,
	}
	if _, err := x.ids.Next(ctx, idgen.MedicationEvent, func(ctx context.Context, id string) error {
		ev.EventID = id
		return x.gw.InsertOne(ctx, model.CollectionMedicationEvents, ev)
	}); err != nil {
		return nil, fmt.Errorf("failed to record administration: %w", err)
	}

	x.logger.Info("medication administered", "event_id", ev.EventID, "prescription_id", ev.PrescriptionID, "staff_id", me.StaffID)
	x.recorded(ctx, s, event.MedicationAdministered, model.AuditEntityMedicationEvent, ev.EventID, ev)
	return &AdministrationResult{PatientName: patient.Name, Event: ev}, nil
}

// RecordVitals stores a vitals reading. Blank measurements are stored as
// null; anything else must parse.
func (x *Executor) RecordVitals(ctx context.Context, s *session.Session, req RecordVitalsRequest) (*VitalsResult, error) {
	me, err := identity(s)
	if err != nil {
		return nil, err
	}

	temperature, err := optionalFloat("temperature", req.Temperature)
	if err != nil {
		return nil, err
	}
	pulse, err := optionalInt("pulse", req.Pulse)
	if err != nil {
		return nil, err
	}
	oxygen, err := optionalInt("oxygen_saturation", req.OxygenSaturation)
	if err != nil {
		return nil, err
	}

	patient, err := x.findPatient(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}

	vitals := model.VitalsRecord{
		PatientID:        patient.PatientID,
		PatientName:      patient.Name,
		Temperature:      temperature,
		BloodPressure:    req.BloodPressure,
		Pulse:            pulse,
		OxygenSaturation: oxygen,
		Notes:            req.Notes,
		RecordedBy:       me.StaffID,
		RecordedAt:       x.now(),
	}
	if err := x.gw.InsertOne(ctx, model.CollectionPatientVitals, vitals); err != nil {
		return nil, fmt.Errorf("failed to record vitals: %w", err)
	}

	x.logger.Info("vitals recorded", "patient_id", vitals.PatientID, "staff_id", me.StaffID)
	x.recorded(ctx, s, event.VitalsRecorded, model.AuditEntityVitals, vitals.PatientID, vitals)
	return &VitalsResult{Vitals: vitals}, nil
}

// ViewApplications lists the ten newest test applications. A status that
// is not one of the known statuses lists all of them.
func (x *Executor) ViewApplications(ctx context.Context, _ *session.Session, req ViewApplicationsRequest) (*ApplicationsResult, error) {
	filter := store.Filter{}
	status := ""
	for _, st := range model.ApplicationStatuses {
		if req.Status == st {
			status = st
			filter["status"] = st
		}
	}

	var apps []model.TestApplication
	if err := x.gw.Find(ctx, model.CollectionApplications, filter,
		store.Descending("created_at").WithLimit(applicationsLimit), &apps); err != nil {
		return nil, fmt.Errorf("failed to list test applications: %w", err)
	}

	res := &ApplicationsResult{Status: status, Applications: make([]ApplicationRow, 0, len(apps))}
	for _, app := range apps {
		name, err := x.patientName(ctx, app.PatientID)
		if err != nil {
			return nil, err
		}
		res.Applications = append(res.Applications, ApplicationRow{TestApplication: app, PatientName: name})
	}
	return res, nil
}

func optionalFloat(field, raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperrors.Validationf("%s must be a number", field)
	}
	return &v, nil
}

func optionalInt(field, raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperrors.Validationf("%s must be a whole number", field)
	}
	return &v, nil
}
