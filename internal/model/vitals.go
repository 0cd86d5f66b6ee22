package model

import "time"

type VitalsRecord struct {
	PatientID        string    `bson:"patient_id" json:"patient_id"`
	PatientName      string    `bson:"patient_name" json:"patient_name"`
	Temperature      *float64  `bson:"temperature" json:"temperature"`
	BloodPressure    string    `bson:"blood_pressure" json:"blood_pressure"`
	Pulse            *int      `bson:"pulse" json:"pulse"`
	OxygenSaturation *int      `bson:"oxygen_saturation" json:"oxygen_saturation"`
	Notes            string    `bson:"notes" json:"notes"`
	RecordedBy       string    `bson:"recorded_by" json:"recorded_by"`
	RecordedAt       time.Time `bson:"recorded_at" json:"recorded_at"`
}
