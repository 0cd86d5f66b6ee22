package workflow

import (
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"

	apperrors "github.com/jwalitptl/ward-assistant/pkg/errors"
	"github.com/jwalitptl/ward-assistant/pkg/validator"
)

// Field describes one named input of a command request, for collaborators
// that have to ask the user for it.
type Field struct {
	Name     string `json:"name"`
	Prompt   string `json:"prompt"`
	Required bool   `json:"required"`
}

// Normalizer is implemented by requests that canonicalize their values
// (identifier case, enum case) before validation.
type Normalizer interface {
	Normalize()
}

var requestValidator = validator.New("mapstructure")

// Fields lists the inputs of a request struct in declaration order.
func Fields(req interface{}) []Field {
	t := reflect.TypeOf(req)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	fields := make([]Field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := f.Tag.Get("mapstructure")
		if name == "" || name == "-" {
			continue
		}
		fields = append(fields, Field{
			Name:     name,
			Prompt:   f.Tag.Get("prompt"),
			Required: strings.Contains(f.Tag.Get("validate"), "required"),
		})
	}
	return fields
}

// Bind fills req from named string values, normalizes it and validates
// it. Every failure is a validation error naming the offending field.
func Bind(values map[string]string, req interface{}) error {
	trimmed := make(map[string]interface{}, len(values))
	for k, v := range values {
		trimmed[k] = strings.TrimSpace(v)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  req,
		TagName: "mapstructure",
	})
	if err != nil {
		return apperrors.NewInternal(err)
	}
	if err := dec.Decode(trimmed); err != nil {
		return apperrors.NewValidation("malformed request", err)
	}

	if n, ok := req.(Normalizer); ok {
		n.Normalize()
	}
	return Validate(req)
}

// Validate checks the validate tags of req.
func Validate(req interface{}) error {
	return requestValidator.Validate(req)
}

func upperID(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// capitalize mirrors how statuses are stored: "pending" becomes "Pending".
func capitalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

type LoginRequest struct {
	StaffID  string `mapstructure:"staff_id" prompt:"Staff ID (e.g. DOC_001)" validate:"required"`
	FullName string `mapstructure:"full_name" prompt:"Full name" validate:"required"`
}

type EmptyRequest struct{}

type SearchPatientRequest struct {
	Name string `mapstructure:"name" prompt:"Patient name to search" validate:"required,max=100"`
}

type PatientDetailsRequest struct {
	PatientID string `mapstructure:"patient_id" prompt:"Patient ID (PAT_XXX)" validate:"required,startswith=PAT_"`
}

func (r *PatientDetailsRequest) Normalize() { r.PatientID = upperID(r.PatientID) }

type AdmissionHistoryRequest struct {
	PatientID string `mapstructure:"patient_id" prompt:"Patient ID (PAT_XXX)" validate:"required,startswith=PAT_"`
}

func (r *AdmissionHistoryRequest) Normalize() { r.PatientID = upperID(r.PatientID) }

type CreatePrescriptionRequest struct {
	PatientID   string `mapstructure:"patient_id" prompt:"Patient ID (PAT_XXX)" validate:"required,startswith=PAT_"`
	AdmissionID string `mapstructure:"admission_id" prompt:"Admission ID (ADM_XXX)" validate:"required,startswith=ADM_"`
	DrugName    string `mapstructure:"drug_name" prompt:"Drug name" validate:"required,max=200"`
	Dosage      string `mapstructure:"dosage" prompt:"Dosage (e.g. 500mg)" validate:"required,max=100"`
	Frequency   string `mapstructure:"frequency" prompt:"Frequency (e.g. twice daily)" validate:"required,max=100"`
}

func (r *CreatePrescriptionRequest) Normalize() {
	r.PatientID = upperID(r.PatientID)
	r.AdmissionID = upperID(r.AdmissionID)
}

type AddNoteRequest struct {
	AdmissionID string `mapstructure:"admission_id" prompt:"Admission ID (ADM_XXX)" validate:"required,startswith=ADM_"`
	NoteText    string `mapstructure:"note_text" prompt:"Note text" validate:"required"`
}

func (r *AddNoteRequest) Normalize() { r.AdmissionID = upperID(r.AdmissionID) }

type RequestTestRequest struct {
	PatientID string `mapstructure:"patient_id" prompt:"Patient ID (PAT_XXX)" validate:"required,startswith=PAT_"`
	TestType  string `mapstructure:"test_type" prompt:"Test type (e.g. Blood Test)" validate:"required,max=100"`
}

func (r *RequestTestRequest) Normalize() { r.PatientID = upperID(r.PatientID) }

type RecordAdministrationRequest struct {
	PatientID      string `mapstructure:"patient_id" prompt:"Patient ID (PAT_XXX)" validate:"required,startswith=PAT_"`
	PrescriptionID string `mapstructure:"prescription_id" prompt:"Prescription ID (PR_XXX)" validate:"required,startswith=PR_"`
}

func (r *RecordAdministrationRequest) Normalize() {
	r.PatientID = upperID(r.PatientID)
	r.PrescriptionID = upperID(r.PrescriptionID)
}

type RecordVitalsRequest struct {
	PatientID        string `mapstructure:"patient_id" prompt:"Patient ID (PAT_XXX)" validate:"required,startswith=PAT_"`
	Temperature      string `mapstructure:"temperature" prompt:"Temperature (°C)"`
	BloodPressure    string `mapstructure:"blood_pressure" prompt:"Blood pressure (e.g. 120/80)"`
	Pulse            string `mapstructure:"pulse" prompt:"Pulse (bpm)"`
	OxygenSaturation string `mapstructure:"oxygen_saturation" prompt:"Oxygen saturation (%)"`
	Notes            string `mapstructure:"notes" prompt:"Additional notes"`
}

func (r *RecordVitalsRequest) Normalize() { r.PatientID = upperID(r.PatientID) }

type ViewApplicationsRequest struct {
	Status string `mapstructure:"status" prompt:"Filter by status (Pending/Approved/Completed, blank for all)"`
}

func (r *ViewApplicationsRequest) Normalize() { r.Status = capitalize(r.Status) }

type AddStaffRequest struct {
	StaffType         string `mapstructure:"staff_type" prompt:"Staff type (doctor/nurse/admin)" validate:"required,oneof=doctor nurse admin"`
	Name              string `mapstructure:"name" prompt:"Full name" validate:"required,max=100"`
	Department        string `mapstructure:"department" prompt:"Department"`
	Contact           string `mapstructure:"contact" prompt:"Contact number"`
	YearsOfExperience string `mapstructure:"years_of_experience" prompt:"Years of experience"`
}

func (r *AddStaffRequest) Normalize() { r.StaffType = strings.ToLower(r.StaffType) }

type GenerateReportRequest struct {
	ReportType string `mapstructure:"report_type" prompt:"Report type (patients/admissions/tests)" validate:"required,oneof=patients admissions tests"`
}

func (r *GenerateReportRequest) Normalize() { r.ReportType = strings.ToLower(r.ReportType) }
