package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLog is one entry of the staff activity trail.
type AuditLog struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	SessionID  uuid.UUID       `json:"session_id" db:"session_id"`
	StaffID    string          `json:"staff_id" db:"staff_id"`
	Role       string          `json:"role" db:"role"`
	Action     string          `json:"action" db:"action"`
	EntityType string          `json:"entity_type" db:"entity_type"`
	EntityID   string          `json:"entity_id" db:"entity_id"`
	Metadata   json.RawMessage `json:"metadata,omitempty" db:"metadata"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

const (
	// Action types
	AuditActionCreate = "create"
	AuditActionExport = "export"
	AuditActionLogin  = "login"
	AuditActionLogout = "logout"

	// Entity types
	AuditEntitySession         = "session"
	AuditEntityPrescription    = "prescription"
	AuditEntityNote            = "note"
	AuditEntityMedicationEvent = "medication_administration"
	AuditEntityVitals          = "vitals"
	AuditEntityTestApplication = "test_application"
	AuditEntityStaff           = "staff"
	AuditEntityReport          = "report"
)

// AuditFilter narrows an audit trail listing. Zero values are ignored.
type AuditFilter struct {
	StaffID    string
	Action     string
	EntityType string
	Since      time.Time
	Limit      int
}
