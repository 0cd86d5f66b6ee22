package model

import "time"

type NoteEvent struct {
	NoteID      string    `bson:"note_id" json:"note_id"`
	AdmissionID string    `bson:"admission_id" json:"admission_id"`
	PatientID   string    `bson:"patient_id" json:"patient_id"`
	DoctorID    string    `bson:"doctor_id" json:"doctor_id"`
	DoctorName  string    `bson:"doctor_name" json:"doctor_name"`
	NoteText    string    `bson:"note_text" json:"note_text"`
	Timestamp   time.Time `bson:"timestamp" json:"timestamp"`
}
