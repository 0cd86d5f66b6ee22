package model

import "time"

const PrescriptionIDPrefix = "PR_"

type Prescription struct {
	PrescriptionID string     `bson:"prescription_id" json:"prescription_id"`
	AdmissionID    string     `bson:"admission_id" json:"admission_id"`
	PatientID      string     `bson:"patient_id,omitempty" json:"patient_id,omitempty"`
	DrugName       string     `bson:"drug_name" json:"drug_name"`
	Dosage         string     `bson:"dosage" json:"dosage"`
	Frequency      string     `bson:"frequency" json:"frequency"`
	PrescribedBy   string     `bson:"prescribed_by,omitempty" json:"prescribed_by,omitempty"`
	PrescribedAt   *time.Time `bson:"prescribed_at,omitempty" json:"prescribed_at,omitempty"`
}

const (
	EventTypeAdministration = "Administration"
	StaffTypeNurse          = "Nurse"
)

// MedicationAdministration records one dose given against a prescription.
type MedicationAdministration struct {
	EventID        string    `bson:"event_id" json:"event_id"`
	PatientID      string    `bson:"patient_id" json:"patient_id"`
	PrescriptionID string    `bson:"prescription_id" json:"prescription_id"`
	MedicationName string    `bson:"medication_name" json:"medication_name"`
	EventType      string    `bson:"event_type" json:"event_type"`
	Dosage         string    `bson:"dosage" json:"dosage"`
	Timestamp      time.Time `bson:"timestamp" json:"timestamp"`
	StaffID        string    `bson:"staff_id" json:"staff_id"`
	StaffName      string    `bson:"staff_name" json:"staff_name"`
	StaffType      string    `bson:"staff_type" json:"staff_type"`
}
