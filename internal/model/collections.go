package model

// Collection names in the hospital database.
const (
	CollectionPatients         = "patients"
	CollectionAdmissions       = "admissions"
	CollectionDiagnoses        = "diagnoses"
	CollectionDoctors          = "doctors"
	CollectionNurses           = "nurses"
	CollectionAdministrators   = "administrators"
	CollectionApplications     = "applications"
	CollectionPrescriptions    = "prescriptions"
	CollectionMedicationEvents = "medication_administration"
	CollectionNoteEvents       = "note_events"
	CollectionPatientVitals    = "patient_vitals"
)

// Identifier prefixes for records that are looked up but never allocated
// here.
const (
	PatientIDPrefix   = "PAT_"
	AdmissionIDPrefix = "ADM_"
)
