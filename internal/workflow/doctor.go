package workflow

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jwalitptl/ward-assistant/internal/idgen"
	"github.com/jwalitptl/ward-assistant/internal/model"
	"github.com/jwalitptl/ward-assistant/internal/service/event"
	"github.com/jwalitptl/ward-assistant/internal/session"
	"github.com/jwalitptl/ward-assistant/internal/store"
)

// SearchPatient finds up to five patients whose name contains the query,
// ignoring case. The query is matched literally.
func (x *Executor) SearchPatient(ctx context.Context, _ *session.Session, req SearchPatientRequest) (*SearchPatientResult, error) {
	filter := store.Filter{"name": store.Filter{"$regex": regexp.QuoteMeta(req.Name), "$options": "i"}}

	var patients []model.Patient
	if err := x.gw.Find(ctx, model.CollectionPatients, filter, &store.FindOptions{Limit: searchLimit}, &patients); err != nil {
		return nil, fmt.Errorf("failed to search patients: %w", err)
	}
	return &SearchPatientResult{Query: req.Name, Patients: patients}, nil
}

func (x *Executor) PatientDetails(ctx context.Context, _ *session.Session, req PatientDetailsRequest) (*PatientDetailsResult, error) {
	patient, err := x.findPatient(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}
	admissions, err := x.admissionRecords(ctx, req.PatientID, true)
	if err != nil {
		return nil, err
	}
	return &PatientDetailsResult{Patient: patient, Admissions: admissions}, nil
}

// AdmissionHistory lists admissions newest first. An unknown patient has
// an empty history.
func (x *Executor) AdmissionHistory(ctx context.Context, _ *session.Session, req AdmissionHistoryRequest) (*AdmissionHistoryResult, error) {
	admissions, err := x.admissionRecords(ctx, req.PatientID, false)
	if err != nil {
		return nil, err
	}
	return &AdmissionHistoryResult{PatientID: req.PatientID, Admissions: admissions}, nil
}

func (x *Executor) admissionRecords(ctx context.Context, patientID string, withPrescriptions bool) ([]AdmissionRecord, error) {
	var admissions []model.Admission
	if err := x.gw.Find(ctx, model.CollectionAdmissions, store.Filter{"patient_id": patientID},
		store.Descending("admission_date"), &admissions); err != nil {
		return nil, fmt.Errorf("failed to list admissions: %w", err)
	}

	records := make([]AdmissionRecord, 0, len(admissions))
	for _, a := range admissions {
		rec := AdmissionRecord{Admission: a}
		if err := x.gw.Find(ctx, model.CollectionDiagnoses, store.Filter{"admission_id": a.AdmissionID}, nil, &rec.Diagnoses); err != nil {
			return nil, fmt.Errorf("failed to list diagnoses: %w", err)
		}
		if withPrescriptions {
			if err := x.gw.Find(ctx, model.CollectionPrescriptions, store.Filter{"admission_id": a.AdmissionID}, nil, &rec.Prescriptions); err != nil {
				return nil, fmt.Errorf("failed to list prescriptions: %w", err)
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// CreatePrescription stores a prescription against an admission of the
// patient. The patient and admission must both exist and belong together.
func (x *Executor) CreatePrescription(ctx context.Context, s *session.Session, req CreatePrescriptionRequest) (*PrescriptionResult, error) {
	me, err := identity(s)
	if err != nil {
		return nil, err
	}
	if _, err := x.findPatient(ctx, req.PatientID); err != nil {
		return nil, err
	}
	if _, err := x.findAdmission(ctx, store.Filter{"admission_id": req.AdmissionID, "patient_id": req.PatientID},
		"admission for this patient"); err != nil {
		return nil, err
	}

	now := x.now()
	rx := model.Prescription{
		AdmissionID:  req.AdmissionID,
		PatientID:    req.PatientID,
		DrugName:     req.DrugName,
		Dosage:       req.Dosage,
		Frequency:    req.Frequency,
		PrescribedBy: me.Name,
		PrescribedAt: &now,
	}
	if _, err := x.ids.Next(ctx, idgen.Prescription, func(ctx context.Context, id string) error {
		rx.PrescriptionID = id
		return x.gw.InsertOne(ctx, model.CollectionPrescriptions, rx)
	}); err != nil {
		return nil, fmt.Errorf("failed to create prescription: %w", err)
	}

	x.logger.Info("prescription created", "prescription_id", rx.PrescriptionID, "patient_id", rx.PatientID, "staff_id", me.StaffID)
	x.recorded(ctx, s, event.PrescriptionCreated, model.AuditEntityPrescription, rx.PrescriptionID, rx)
	return &PrescriptionResult{Prescription: rx}, nil
}

// ViewSchedule lists the doctor's admissions from the start of today,
// earliest first.
func (x *Executor) ViewSchedule(ctx context.Context, s *session.Session, _ EmptyRequest) (*ScheduleResult, error) {
	me, err := identity(s)
	if err != nil {
		return nil, err
	}

	since := startOfDay(x.now())
	var admissions []model.Admission
	if err := x.gw.Find(ctx, model.CollectionAdmissions,
		store.Filter{"doctor": me.Name, "admission_date": store.Filter{"$gte": since}},
		store.Ascending("admission_date"), &admissions); err != nil {
		return nil, fmt.Errorf("failed to list schedule: %w", err)
	}

	res := &ScheduleResult{Since: since, Entries: make([]ScheduleEntry, 0, len(admissions))}
	for _, a := range admissions {
		name, err := x.patientName(ctx, a.PatientID)
		if err != nil {
			return nil, err
		}
		entry := ScheduleEntry{Admission: a, PatientName: name}

		var dx model.Diagnosis
		found, err := x.gw.FindOne(ctx, model.CollectionDiagnoses, store.Filter{"admission_id": a.AdmissionID}, nil, &dx)
		if err != nil {
			return nil, fmt.Errorf("failed to get diagnosis: %w", err)
		}
		if found {
			entry.PrimaryDiagnosis = dx.Description
		}
		res.Entries = append(res.Entries, entry)
	}
	return res, nil
}

func (x *Executor) AddNote(ctx context.Context, s *session.Session, req AddNoteRequest) (*NoteResult, error) {
	me, err := identity(s)
	if err != nil {
		return nil, err
	}
	admission, err := x.findAdmission(ctx, store.Filter{"admission_id": req.AdmissionID}, "admission")
	if err != nil {
		return nil, err
	}

	note := model.NoteEvent{
		AdmissionID: admission.AdmissionID,
		PatientID:   admission.PatientID,
		DoctorID:    me.StaffID,
		DoctorName:  me.Name,
		NoteText:    req.NoteText,
		Timestamp:   x.now(),
	}
	if _, err := x.ids.Next(ctx, idgen.Note, func(ctx context.Context, id string) error {
		note.NoteID = id
		return x.gw.InsertOne(ctx, model.CollectionNoteEvents, note)
	}); err != nil {
		return nil, fmt.Errorf("failed to add note: %w", err)
	}

	x.logger.Info("note added", "note_id", note.NoteID, "admission_id", note.AdmissionID, "staff_id", me.StaffID)
	x.recorded(ctx, s, event.NoteCreated, model.AuditEntityNote, note.NoteID, note)
	return &NoteResult{Note: note}, nil
}

func (x *Executor) RequestTest(ctx context.Context, s *session.Session, req RequestTestRequest) (*TestRequestResult, error) {
	me, err := identity(s)
	if err != nil {
		return nil, err
	}
	if _, err := x.findPatient(ctx, req.PatientID); err != nil {
		return nil, err
	}

	now := x.now()
	app := model.TestApplication{
		PatientID:   req.PatientID,
		TestType:    req.TestType,
		Status:      model.ApplicationStatusPending,
		RequestedBy: me.Name,
		CreatedAt:   &now,
	}
	if _, err := x.ids.Next(ctx, idgen.TestApplication, func(ctx context.Context, id string) error {
		app.ApplicationID = id
		return x.gw.InsertOne(ctx, model.CollectionApplications, app)
	}); err != nil {
		return nil, fmt.Errorf("failed to request test: %w", err)
	}

	x.logger.Info("test requested", "application_id", app.ApplicationID, "patient_id", app.PatientID, "staff_id", me.StaffID)
	x.recorded(ctx, s, event.TestRequested, model.AuditEntityTestApplication, app.ApplicationID, app)
	return &TestRequestResult{Application: app}, nil
}
