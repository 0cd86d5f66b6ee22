package model

import "time"

const (
	ApplicationStatusPending   = "Pending"
	ApplicationStatusApproved  = "Approved"
	ApplicationStatusCompleted = "Completed"
)

// ApplicationStatuses are the statuses a test application list can be
// filtered on.
var ApplicationStatuses = []string{
	ApplicationStatusPending,
	ApplicationStatusApproved,
	ApplicationStatusCompleted,
}

// TestApplication is a request for a lab test.
type TestApplication struct {
	ApplicationID string     `bson:"application_id" json:"application_id"`
	PatientID     string     `bson:"patient_id" json:"patient_id"`
	TestType      string     `bson:"test_type" json:"test_type"`
	Status        string     `bson:"status" json:"status"`
	RequestedBy   string     `bson:"requested_by,omitempty" json:"requested_by,omitempty"`
	CreatedAt     *time.Time `bson:"created_at,omitempty" json:"created_at,omitempty"`
}
