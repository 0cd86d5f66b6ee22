package model

import "time"

type Admission struct {
	AdmissionID   string     `bson:"admission_id" json:"admission_id"`
	PatientID     string     `bson:"patient_id" json:"patient_id"`
	Department    string     `bson:"department,omitempty" json:"department,omitempty"`
	Doctor        string     `bson:"doctor,omitempty" json:"doctor,omitempty"`
	Room          string     `bson:"room,omitempty" json:"room,omitempty"`
	AdmissionDate *time.Time `bson:"admission_date,omitempty" json:"admission_date,omitempty"`
	// DischargeDate stays a raw value: imported records carry it as a
	// string, empty while the patient is still on the ward.
	DischargeDate interface{} `bson:"discharge_date,omitempty" json:"discharge_date,omitempty"`
}

// Active reports whether the admission has no discharge recorded.
func (a Admission) Active() bool {
	switch v := a.DischargeDate.(type) {
	case nil:
		return true
	case string:
		return v == ""
	default:
		return false
	}
}

// ActiveAdmissionFilter matches admissions without a discharge date: the
// field absent, null or empty.
func ActiveAdmissionFilter() map[string]interface{} {
	return map[string]interface{}{"$in": []interface{}{nil, ""}}
}

type Diagnosis struct {
	DiagnosisID   string     `bson:"diagnosis_id" json:"diagnosis_id"`
	AdmissionID   string     `bson:"admission_id" json:"admission_id"`
	PatientID     string     `bson:"patient_id,omitempty" json:"patient_id,omitempty"`
	ICDCode       string     `bson:"icd_code,omitempty" json:"icd_code,omitempty"`
	Description   string     `bson:"description,omitempty" json:"description,omitempty"`
	DiagnosisDate *time.Time `bson:"diagnosis_date,omitempty" json:"diagnosis_date,omitempty"`
}
