package workflow

import (
	"time"

	"github.com/jwalitptl/ward-assistant/internal/intent"
	"github.com/jwalitptl/ward-assistant/internal/model"
	"github.com/jwalitptl/ward-assistant/internal/service/report"
	"github.com/jwalitptl/ward-assistant/internal/session"
)

// Result is the typed outcome of one command. Rendering is left to the
// console and HTTP adapters.
type Result interface {
	Command() string
}

type HelpResult struct {
	Role     model.Role     `json:"role,omitempty"`
	Commands []intent.Entry `json:"commands"`
}

func (HelpResult) Command() string { return intent.Help }

type LoginResult struct {
	Identity session.Identity `json:"identity"`
}

func (LoginResult) Command() string { return intent.Login }

type LogoutResult struct {
	Identity session.Identity `json:"identity"`
}

func (LogoutResult) Command() string { return intent.Logout }

type ExitResult struct {
	// LoggedOut is set when exiting also ended an authenticated session.
	LoggedOut *session.Identity `json:"logged_out,omitempty"`
}

func (ExitResult) Command() string { return intent.Exit }

type SearchPatientResult struct {
	Query    string          `json:"query"`
	Patients []model.Patient `json:"patients"`
}

func (SearchPatientResult) Command() string { return intent.SearchPatient }

// AdmissionRecord is an admission with its clinical detail.
type AdmissionRecord struct {
	model.Admission
	Diagnoses     []model.Diagnosis    `json:"diagnoses"`
	Prescriptions []model.Prescription `json:"prescriptions,omitempty"`
}

type PatientDetailsResult struct {
	Patient    model.Patient     `json:"patient"`
	Admissions []AdmissionRecord `json:"admissions"`
}

func (PatientDetailsResult) Command() string { return intent.PatientDetails }

type AdmissionHistoryResult struct {
	PatientID  string            `json:"patient_id"`
	Admissions []AdmissionRecord `json:"admissions"`
}

func (AdmissionHistoryResult) Command() string { return intent.AdmissionHistory }

type PrescriptionResult struct {
	Prescription model.Prescription `json:"prescription"`
}

func (PrescriptionResult) Command() string { return intent.CreatePrescription }

type ScheduleEntry struct {
	Admission        model.Admission `json:"admission"`
	PatientName      string          `json:"patient_name"`
	PrimaryDiagnosis string          `json:"primary_diagnosis,omitempty"`
}

type ScheduleResult struct {
	Since   time.Time       `json:"since"`
	Entries []ScheduleEntry `json:"entries"`
}

func (ScheduleResult) Command() string { return intent.ViewSchedule }

type NoteResult struct {
	Note model.NoteEvent `json:"note"`
}

func (NoteResult) Command() string { return intent.AddNote }

type TestRequestResult struct {
	Application model.TestApplication `json:"application"`
}

func (TestRequestResult) Command() string { return intent.RequestTest }

// Medication statuses on a round.
const (
	MedicationGiven   = "Given"
	MedicationPending = "Pending"
)

type MedicationItem struct {
	Prescription model.Prescription `json:"prescription"`
	Status       string             `json:"status"`
}

type MedicationRound struct {
	PatientID   string           `json:"patient_id"`
	PatientName string           `json:"patient_name"`
	AdmissionID string           `json:"admission_id"`
	Room        string           `json:"room,omitempty"`
	Items       []MedicationItem `json:"items"`
}

type MedicationListResult struct {
	Department string            `json:"department"`
	Rounds     []MedicationRound `json:"rounds"`
}

func (MedicationListResult) Command() string { return intent.MedicationList }

type AdministrationResult struct {
	PatientName string                         `json:"patient_name"`
	Event       model.MedicationAdministration `json:"event"`
}

func (AdministrationResult) Command() string { return intent.RecordAdministration }

type VitalsResult struct {
	Vitals model.VitalsRecord `json:"vitals"`
}

func (VitalsResult) Command() string { return intent.PatientVitals }

type ApplicationRow struct {
	model.TestApplication
	PatientName string `json:"patient_name"`
}

type ApplicationsResult struct {
	Status       string           `json:"status,omitempty"`
	Applications []ApplicationRow `json:"applications"`
}

func (ApplicationsResult) Command() string { return intent.ViewApplications }

type StaffResult struct {
	Staff model.StaffMember `json:"staff"`
}

func (StaffResult) Command() string { return intent.AddStaff }

type ReportResult struct {
	Report *report.Report `json:"report"`
}

func (ReportResult) Command() string { return intent.GenerateReport }
