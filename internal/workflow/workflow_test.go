package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/jwalitptl/ward-assistant/internal/idgen"
	"github.com/jwalitptl/ward-assistant/internal/model"
	"github.com/jwalitptl/ward-assistant/internal/service/audit"
	"github.com/jwalitptl/ward-assistant/internal/service/event"
	"github.com/jwalitptl/ward-assistant/internal/service/report"
	"github.com/jwalitptl/ward-assistant/internal/session"
	"github.com/jwalitptl/ward-assistant/internal/store/memory"
	apperrors "github.com/jwalitptl/ward-assistant/pkg/errors"
	"github.com/jwalitptl/ward-assistant/pkg/logger"
	"github.com/jwalitptl/ward-assistant/pkg/messaging"
)

var fixedNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

type recordingBroker struct {
	mu       sync.Mutex
	messages []messaging.Message
}

func (b *recordingBroker) Publish(_ context.Context, _ string, message interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, message.(messaging.Message))
	return nil
}

func (b *recordingBroker) Close() error { return nil }

type memoryExporter struct {
	files map[string][]byte
}

func (e *memoryExporter) Export(_ context.Context, filename string, data []byte) (string, error) {
	e.files[filename] = data
	return "mem://" + filename, nil
}

type fixture struct {
	x      *Executor
	mem    *memory.Store
	broker *recordingBroker
	audit  *audit.AuditLogger
}

func at(day, hour int) time.Time {
	return time.Date(2026, 3, day, hour, 0, 0, 0, time.UTC)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := memory.New()

	require.NoError(t, mem.Seed(model.CollectionPatients,
		bson.M{"patient_id": "PAT_001", "name": "John Doe", "gender": "M", "dob": time.Date(1980, 5, 1, 0, 0, 0, 0, time.UTC)},
		bson.M{"patient_id": "PAT_002", "name": "Jane Roe", "gender": "F"},
		bson.M{"patient_id": "PAT_003", "name": "Jan Smith", "gender": "M"},
	))
	require.NoError(t, mem.Seed(model.CollectionAdmissions,
		bson.M{"admission_id": "ADM_001", "patient_id": "PAT_001", "department": "Cardiology", "doctor": "Jane Smith",
			"room": "101", "admission_date": at(14, 8), "discharge_date": ""},
		bson.M{"admission_id": "ADM_002", "patient_id": "PAT_002", "department": "Cardiology", "doctor": "Jane Smith",
			"room": "102", "admission_date": at(10, 9), "discharge_date": "2026-03-12"},
		bson.M{"admission_id": "ADM_003", "patient_id": "PAT_001", "department": "Neurology", "doctor": "Other Doctor",
			"admission_date": time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC), "discharge_date": "2026-01-05"},
	))
	require.NoError(t, mem.Seed(model.CollectionDiagnoses,
		bson.M{"diagnosis_id": "DX_001", "admission_id": "ADM_001", "patient_id": "PAT_001", "description": "Chest pain"},
	))
	require.NoError(t, mem.Seed(model.CollectionPrescriptions,
		bson.M{"prescription_id": "PR_001", "admission_id": "ADM_001", "patient_id": "PAT_001",
			"drug_name": "Aspirin", "dosage": "100mg", "frequency": "once daily"},
	))
	require.NoError(t, mem.Seed(model.CollectionNurses,
		bson.M{"nurse_id": "NUR_001", "name": "Mary Jones"},
		bson.M{"nurse_id": "NUR_002", "name": "Tom Baker"},
	))

	log := logger.Nop()
	broker := &recordingBroker{}
	auditLogger := audit.NewAuditLogger(audit.NewService(nil, log), log)
	x := NewExecutor(Dependencies{
		Store:     mem,
		Allocator: idgen.NewAllocator(mem, nil),
		Guard:     session.NewGuard(mem, nil, log, nil),
		Reports:   report.NewService(mem, &memoryExporter{files: map[string][]byte{}}),
		Events:    event.NewEventService(broker, "clinical-events", log, nil),
		Audit:     auditLogger,
		Logger:    log,
	})
	x.now = func() time.Time { return fixedNow }

	t.Cleanup(auditLogger.Wait)
	return &fixture{x: x, mem: mem, broker: broker, audit: auditLogger}
}

func doctor() *session.Session {
	return session.Restore(uuid.New(), session.Identity{
		StaffID: "DOC_001", Name: "Jane Smith", Role: model.RoleDoctor, Department: "Cardiology",
	})
}

func nurse() *session.Session {
	return session.Restore(uuid.New(), session.Identity{
		StaffID: "NUR_001", Name: "Mary Jones", Role: model.RoleNurse, Department: "Cardiology",
	})
}

func admin() *session.Session {
	return session.Restore(uuid.New(), session.Identity{
		StaffID: "ADM_001", Name: "Alex Admin", Role: model.RoleAdmin, Department: "Administration",
	})
}

func TestBindNormalizesAndValidates(t *testing.T) {
	var req CreatePrescriptionRequest
	err := Bind(map[string]string{
		"patient_id":   " pat_001 ",
		"admission_id": "adm_001",
		"drug_name":    "Aspirin",
		"dosage":       "100mg",
		"frequency":    "daily",
	}, &req)

	require.NoError(t, err)
	assert.Equal(t, "PAT_001", req.PatientID)
	assert.Equal(t, "ADM_001", req.AdmissionID)
}

func TestBindErrors(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
		want   string
	}{
		{"missing", map[string]string{}, "patient_id is required"},
		{"blank", map[string]string{"patient_id": "   "}, "patient_id is required"},
		{"prefix", map[string]string{"patient_id": "P001"}, "invalid patient_id format, must start with PAT_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req PatientDetailsRequest
			err := Bind(tt.values, &req)

			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestBindOneOf(t *testing.T) {
	var req GenerateReportRequest
	err := Bind(map[string]string{"report_type": "finance"}, &req)

	require.Error(t, err)
	assert.Equal(t, "report_type must be one of: patients, admissions, tests", err.Error())

	require.NoError(t, Bind(map[string]string{"report_type": "TESTS"}, &req))
	assert.Equal(t, "tests", req.ReportType)
}

func TestFields(t *testing.T) {
	fields := Fields(&RecordVitalsRequest{})

	require.Len(t, fields, 6)
	assert.Equal(t, "patient_id", fields[0].Name)
	assert.True(t, fields[0].Required)
	assert.Equal(t, "temperature", fields[1].Name)
	assert.False(t, fields[1].Required)
	assert.NotEmpty(t, fields[1].Prompt)

	assert.Empty(t, Fields(EmptyRequest{}))
}

func TestSearchPatientMatchesLiterally(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.x.SearchPatient(ctx, doctor(), SearchPatientRequest{Name: "doe"})
	require.NoError(t, err)
	require.Len(t, res.Patients, 1)
	assert.Equal(t, "PAT_001", res.Patients[0].PatientID)

	res, err = f.x.SearchPatient(ctx, doctor(), SearchPatientRequest{Name: "J.n"})
	require.NoError(t, err)
	assert.Empty(t, res.Patients)
}

func TestSearchPatientLimit(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 7; i++ {
		require.NoError(t, f.mem.Seed(model.CollectionPatients, bson.M{"patient_id": "PAT_1" + string(rune('0'+i)), "name": "Smithers"}))
	}

	res, err := f.x.SearchPatient(context.Background(), doctor(), SearchPatientRequest{Name: "smith"})

	require.NoError(t, err)
	assert.Len(t, res.Patients, searchLimit)
}

func TestPatientDetails(t *testing.T) {
	f := newFixture(t)

	res, err := f.x.PatientDetails(context.Background(), doctor(), PatientDetailsRequest{PatientID: "PAT_001"})

	require.NoError(t, err)
	assert.Equal(t, "John Doe", res.Patient.Name)
	require.Len(t, res.Admissions, 2)
	assert.Equal(t, "ADM_001", res.Admissions[0].AdmissionID, "newest first")
	require.Len(t, res.Admissions[0].Diagnoses, 1)
	assert.Equal(t, "Chest pain", res.Admissions[0].Diagnoses[0].Description)
	require.Len(t, res.Admissions[0].Prescriptions, 1)
	assert.Empty(t, res.Admissions[1].Prescriptions)
}

func TestPatientDetailsUnknownPatient(t *testing.T) {
	f := newFixture(t)

	_, err := f.x.PatientDetails(context.Background(), doctor(), PatientDetailsRequest{PatientID: "PAT_404"})

	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestAdmissionHistoryEmpty(t *testing.T) {
	f := newFixture(t)

	res, err := f.x.AdmissionHistory(context.Background(), doctor(), AdmissionHistoryRequest{PatientID: "PAT_003"})

	require.NoError(t, err)
	assert.Empty(t, res.Admissions)
}

func TestCreatePrescription(t *testing.T) {
	f := newFixture(t)

	res, err := f.x.CreatePrescription(context.Background(), doctor(), CreatePrescriptionRequest{
		PatientID: "PAT_001", AdmissionID: "ADM_001", DrugName: "Metoprolol", Dosage: "50mg", Frequency: "twice daily",
	})

	require.NoError(t, err)
	assert.Equal(t, "PR_002", res.Prescription.PrescriptionID)
	assert.Equal(t, "Jane Smith", res.Prescription.PrescribedBy)

	docs := f.mem.Documents(model.CollectionPrescriptions)
	require.Len(t, docs, 2)
	assert.Equal(t, "PR_002", docs[1]["prescription_id"])
	assert.Equal(t, "Metoprolol", docs[1]["drug_name"])

	require.Len(t, f.broker.messages, 1)
	assert.Equal(t, event.PrescriptionCreated, f.broker.messages[0].Type)
}

func TestCreatePrescriptionRejectsForeignAdmission(t *testing.T) {
	f := newFixture(t)

	_, err := f.x.CreatePrescription(context.Background(), doctor(), CreatePrescriptionRequest{
		PatientID: "PAT_002", AdmissionID: "ADM_001", DrugName: "Metoprolol", Dosage: "50mg", Frequency: "daily",
	})

	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	assert.Equal(t, 0, f.mem.Inserts())
	assert.Empty(t, f.broker.messages)
}

func TestCreatePrescriptionStoreOutage(t *testing.T) {
	f := newFixture(t)
	f.mem.FailWith(errors.New("connection refused"))

	_, err := f.x.CreatePrescription(context.Background(), doctor(), CreatePrescriptionRequest{
		PatientID: "PAT_001", AdmissionID: "ADM_001", DrugName: "Metoprolol", Dosage: "50mg", Frequency: "daily",
	})

	assert.True(t, apperrors.IsRetryable(err))
	assert.Equal(t, 0, f.mem.Inserts())
}

func TestViewSchedule(t *testing.T) {
	f := newFixture(t)

	res, err := f.x.ViewSchedule(context.Background(), doctor(), EmptyRequest{})

	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "ADM_001", res.Entries[0].Admission.AdmissionID)
	assert.Equal(t, "John Doe", res.Entries[0].PatientName)
	assert.Equal(t, "Chest pain", res.Entries[0].PrimaryDiagnosis)
	assert.Equal(t, at(14, 0), res.Since)
}

func TestViewScheduleDayStartsAtUTCMidnight(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.mem.Seed(model.CollectionAdmissions,
		bson.M{"admission_id": "ADM_004", "patient_id": "PAT_003", "department": "Cardiology", "doctor": "Jane Smith",
			"room": "103", "admission_date": at(14, 0), "discharge_date": ""},
	))
	// 02:00 local in UTC-8 is 10:00 UTC; local midnight would be 08:00 UTC.
	west := time.FixedZone("UTC-8", -8*60*60)
	f.x.now = func() time.Time { return fixedNow.In(west) }

	res, err := f.x.ViewSchedule(context.Background(), doctor(), EmptyRequest{})

	require.NoError(t, err)
	assert.Equal(t, at(14, 0), res.Since)
	assert.Equal(t, time.UTC, res.Since.Location())
	ids := make([]string, 0, len(res.Entries))
	for _, e := range res.Entries {
		ids = append(ids, e.Admission.AdmissionID)
	}
	assert.Equal(t, []string{"ADM_004", "ADM_001"}, ids)
}

func TestStartOfDay(t *testing.T) {
	west := time.FixedZone("UTC-8", -8*60*60)
	east := time.FixedZone("UTC+9", 9*60*60)

	assert.Equal(t, at(14, 0), startOfDay(at(14, 23)))
	assert.Equal(t, at(15, 0), startOfDay(time.Date(2026, 3, 14, 20, 0, 0, 0, west)))
	assert.Equal(t, at(13, 0), startOfDay(time.Date(2026, 3, 14, 5, 0, 0, 0, east)))
}

func TestAddNote(t *testing.T) {
	f := newFixture(t)

	res, err := f.x.AddNote(context.Background(), doctor(), AddNoteRequest{AdmissionID: "ADM_001", NoteText: "Stable overnight"})

	require.NoError(t, err)
	assert.Equal(t, "NOTE_001", res.Note.NoteID)
	assert.Equal(t, "PAT_001", res.Note.PatientID)
	assert.Equal(t, "DOC_001", res.Note.DoctorID)

	_, err = f.x.AddNote(context.Background(), doctor(), AddNoteRequest{AdmissionID: "ADM_999", NoteText: "x"})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	assert.Equal(t, 1, f.mem.Inserts())
}

func TestRequestTest(t *testing.T) {
	f := newFixture(t)

	res, err := f.x.RequestTest(context.Background(), doctor(), RequestTestRequest{PatientID: "PAT_002", TestType: "Blood Test"})

	require.NoError(t, err)
	assert.Equal(t, "APP_001", res.Application.ApplicationID)
	assert.Equal(t, model.ApplicationStatusPending, res.Application.Status)
}

func TestMedicationRound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	list, err := f.x.MedicationList(ctx, nurse(), EmptyRequest{})
	require.NoError(t, err)
	require.Len(t, list.Rounds, 1, "discharged admissions are not on the round")
	require.Len(t, list.Rounds[0].Items, 1)
	assert.Equal(t, "John Doe", list.Rounds[0].PatientName)
	assert.Equal(t, MedicationPending, list.Rounds[0].Items[0].Status)

	given, err := f.x.RecordAdministration(ctx, nurse(), RecordAdministrationRequest{PatientID: "PAT_001", PrescriptionID: "PR_001"})
	require.NoError(t, err)
	assert.Equal(t, "MME_001", given.Event.EventID)
	assert.Equal(t, "Aspirin", given.Event.MedicationName)
	assert.Equal(t, model.StaffTypeNurse, given.Event.StaffType)

	list, err = f.x.MedicationList(ctx, nurse(), EmptyRequest{})
	require.NoError(t, err)
	assert.Equal(t, MedicationGiven, list.Rounds[0].Items[0].Status)
}

func TestRecordAdministrationNeedsActiveAdmission(t *testing.T) {
	f := newFixture(t)

	_, err := f.x.RecordAdministration(context.Background(), nurse(), RecordAdministrationRequest{PatientID: "PAT_002", PrescriptionID: "PR_001"})

	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	assert.Equal(t, 0, f.mem.Inserts())
}

func TestRecordAdministrationUnknownPrescription(t *testing.T) {
	f := newFixture(t)

	_, err := f.x.RecordAdministration(context.Background(), nurse(), RecordAdministrationRequest{PatientID: "PAT_001", PrescriptionID: "PR_404"})

	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	assert.Equal(t, 0, f.mem.Inserts())
}

func TestRecordVitals(t *testing.T) {
	f := newFixture(t)

	res, err := f.x.RecordVitals(context.Background(), nurse(), RecordVitalsRequest{
		PatientID: "PAT_001", Temperature: "37.5", BloodPressure: "120/80", Pulse: "72",
	})

	require.NoError(t, err)
	require.NotNil(t, res.Vitals.Temperature)
	assert.Equal(t, 37.5, *res.Vitals.Temperature)
	assert.Nil(t, res.Vitals.OxygenSaturation)
	assert.Equal(t, "John Doe", res.Vitals.PatientName)
	assert.Len(t, f.mem.Documents(model.CollectionPatientVitals), 1)
}

func TestRecordVitalsRejectsMalformedReading(t *testing.T) {
	f := newFixture(t)

	_, err := f.x.RecordVitals(context.Background(), nurse(), RecordVitalsRequest{PatientID: "PAT_001", Pulse: "fast"})

	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
	assert.Equal(t, 0, f.mem.Inserts())
}

func TestViewApplications(t *testing.T) {
	f := newFixture(t)
	for i := 1; i <= 12; i++ {
		status := model.ApplicationStatusPending
		if i%2 == 0 {
			status = model.ApplicationStatusCompleted
		}
		require.NoError(t, f.mem.Seed(model.CollectionApplications, model.TestApplication{
			ApplicationID: idgen.Format("APP_", i),
			PatientID:     "PAT_001",
			TestType:      "X-Ray",
			Status:        status,
			CreatedAt:     ptr(at(1, i)),
		}))
	}
	ctx := context.Background()

	all, err := f.x.ViewApplications(ctx, nurse(), ViewApplicationsRequest{})
	require.NoError(t, err)
	require.Len(t, all.Applications, applicationsLimit)
	assert.Equal(t, "APP_012", all.Applications[0].ApplicationID)
	assert.Equal(t, "John Doe", all.Applications[0].PatientName)

	pending, err := f.x.ViewApplications(ctx, nurse(), ViewApplicationsRequest{Status: "Pending"})
	require.NoError(t, err)
	assert.Len(t, pending.Applications, 6)
	assert.Equal(t, "Pending", pending.Status)

	unknown, err := f.x.ViewApplications(ctx, nurse(), ViewApplicationsRequest{Status: "Lost"})
	require.NoError(t, err)
	assert.Empty(t, unknown.Status)
	assert.Len(t, unknown.Applications, applicationsLimit)
}

func TestAddStaff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.x.AddStaff(ctx, admin(), AddStaffRequest{StaffType: "nurse", Name: "ann lee", Department: "ICU", YearsOfExperience: "4"})
	require.NoError(t, err)
	assert.Equal(t, "NUR_003", res.Staff.ID)
	assert.Equal(t, "Ann Lee", res.Staff.Name)
	assert.Equal(t, 4, res.Staff.YearsOfExperience)

	res, err = f.x.AddStaff(ctx, admin(), AddStaffRequest{StaffType: "admin", Name: "Sam Ops", YearsOfExperience: "many"})
	require.NoError(t, err)
	assert.Equal(t, "ADM_001", res.Staff.ID)
	assert.Equal(t, 0, res.Staff.YearsOfExperience)

	docs := f.mem.Documents(model.CollectionAdministrators)
	require.Len(t, docs, 1)
	assert.Equal(t, "ADM_001", docs[0]["admin_id"])
}

func TestExperienceRequiresDigits(t *testing.T) {
	tests := map[string]int{
		"12":      12,
		"0":       0,
		"007":     7,
		"+5":      0,
		"-1":      0,
		"5 years": 0,
		" 5":      0,
		"":        0,
	}
	for raw, want := range tests {
		t.Run(raw, func(t *testing.T) {
			assert.Equal(t, want, experience(raw))
		})
	}
}

func TestGenerateReport(t *testing.T) {
	f := newFixture(t)

	res, err := f.x.GenerateReport(context.Background(), admin(), GenerateReportRequest{ReportType: "admissions"})

	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Report.Total)
	assert.Equal(t, "mem://admissions_report_"+time.Now().Format("20060102")+".csv", res.Report.Export.Location)
	require.Len(t, f.broker.messages, 1)
	assert.Equal(t, event.ReportGenerated, f.broker.messages[0].Type)
}

func TestHelpDependsOnRole(t *testing.T) {
	f := newFixture(t)

	anon, err := f.x.Help(context.Background(), session.New(), EmptyRequest{})
	require.NoError(t, err)
	doc, err := f.x.Help(context.Background(), doctor(), EmptyRequest{})
	require.NoError(t, err)

	assert.Len(t, doc.Commands, len(anon.Commands)+7)
}

func TestLoginAndExit(t *testing.T) {
	f := newFixture(t)
	s := session.New()

	res, err := f.x.Login(context.Background(), s, LoginRequest{StaffID: "nur_001", FullName: "mary jones"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleNurse, res.Identity.Role)

	out, err := f.x.Exit(context.Background(), s, EmptyRequest{})
	require.NoError(t, err)
	require.NotNil(t, out.LoggedOut)
	assert.Equal(t, "NUR_001", out.LoggedOut.StaffID)
	assert.False(t, s.Authenticated())

	out, err = f.x.Exit(context.Background(), s, EmptyRequest{})
	require.NoError(t, err)
	assert.Nil(t, out.LoggedOut)
}

func ptr(t time.Time) *time.Time { return &t }
