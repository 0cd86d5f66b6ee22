package model

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleDoctor Role = "doctor"
	RoleNurse  Role = "nurse"
	RoleAdmin  Role = "admin"
)

// RoleInfo ties a role to where its staff records live.
type RoleInfo struct {
	Role       Role
	Prefix     string
	Collection string
	IDField    string
	Title      string
}

var roles = []RoleInfo{
	{Role: RoleDoctor, Prefix: "DOC_", Collection: CollectionDoctors, IDField: "doctor_id", Title: "Doctor"},
	{Role: RoleNurse, Prefix: "NUR_", Collection: CollectionNurses, IDField: "nurse_id", Title: "Nurse"},
	{Role: RoleAdmin, Prefix: "ADM_", Collection: CollectionAdministrators, IDField: "admin_id", Title: "Admin"},
}

// Roles returns the staff roles in declaration order.
func Roles() []RoleInfo {
	out := make([]RoleInfo, len(roles))
	copy(out, roles)
	return out
}

// RoleForStaffID resolves a role from an upper-cased staff identifier.
func RoleForStaffID(staffID string) (RoleInfo, bool) {
	for _, r := range roles {
		if strings.HasPrefix(staffID, r.Prefix) {
			return r, true
		}
	}
	return RoleInfo{}, false
}

// LookupRole returns the table entry for a role name.
func LookupRole(name string) (RoleInfo, bool) {
	for _, r := range roles {
		if string(r.Role) == strings.ToLower(strings.TrimSpace(name)) {
			return r, true
		}
	}
	return RoleInfo{}, false
}

func (r Role) Info() RoleInfo {
	info, ok := LookupRole(string(r))
	if !ok {
		panic(fmt.Sprintf("unknown role %q", r))
	}
	return info
}

func (r Role) Valid() bool {
	_, ok := LookupRole(string(r))
	return ok
}

// StaffMember is a doctor, nurse or administrator. Its identifier field
// name depends on the role, so it is mapped by hand rather than by tags.
type StaffMember struct {
	ID                string `json:"id"`
	Role              Role   `json:"role"`
	Name              string `json:"name"`
	Department        string `json:"department"`
	Contact           string `json:"contact"`
	YearsOfExperience int    `json:"years_of_experience"`
}

// Document renders the staff member with the role's identifier field.
func (s StaffMember) Document() map[string]interface{} {
	return map[string]interface{}{
		s.Role.Info().IDField: s.ID,
		"name":                s.Name,
		"department":          s.Department,
		"contact":             s.Contact,
		"years_of_experience": s.YearsOfExperience,
	}
}

// StaffFromDocument reads a decoded staff document of the given role.
// Missing department and contact take the display defaults.
func StaffFromDocument(role Role, doc map[string]interface{}) StaffMember {
	s := StaffMember{
		ID:         stringField(doc, role.Info().IDField),
		Role:       role,
		Name:       stringField(doc, "name"),
		Department: stringField(doc, "department"),
		Contact:    stringField(doc, "contact"),
	}
	if s.Department == "" {
		s.Department = "Unknown"
	}
	if s.Contact == "" {
		s.Contact = "N/A"
	}
	switch v := doc["years_of_experience"].(type) {
	case int32:
		s.YearsOfExperience = int(v)
	case int64:
		s.YearsOfExperience = int(v)
	case int:
		s.YearsOfExperience = v
	case float64:
		s.YearsOfExperience = int(v)
	}
	return s
}

func stringField(doc map[string]interface{}, key string) string {
	switch v := doc[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
