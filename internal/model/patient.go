package model

import "time"

type Patient struct {
	PatientID string     `bson:"patient_id" json:"patient_id"`
	Name      string     `bson:"name" json:"name"`
	DOB       *time.Time `bson:"dob,omitempty" json:"dob,omitempty"`
	Gender    string     `bson:"gender,omitempty" json:"gender,omitempty"`
	Contact   string     `bson:"contact,omitempty" json:"contact,omitempty"`
}
