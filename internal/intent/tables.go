package intent

import "github.com/jwalitptl/ward-assistant/internal/model"

// Command identifiers.
const (
	Help   = "help"
	Login  = "login"
	Logout = "logout"
	Exit   = "exit"

	SearchPatient      = "search_patient"
	PatientDetails     = "patient_details"
	AdmissionHistory   = "admission_history"
	CreatePrescription = "create_prescription"
	ViewSchedule       = "view_schedule"
	AddNote            = "add_note"
	RequestTest        = "request_test"

	MedicationList       = "medication_list"
	RecordAdministration = "record_administration"
	PatientVitals        = "patient_vitals"
	ViewApplications     = "view_applications"

	AddStaff       = "add_staff"
	GenerateReport = "generate_report"
)

// Entry maps one command to the phrases that trigger it.
type Entry struct {
	Command     string
	Phrases     []string
	Description string
}

// Table is searched in order; the first entry with a matching phrase wins.
type Table []Entry

var commonTable = Table{
	{Command: Help, Phrases: []string{"help", "commands", "what can you do"}, Description: "Show available commands"},
	{Command: Login, Phrases: []string{"login", "sign in"}, Description: "Log in to the system"},
	{Command: Logout, Phrases: []string{"logout", "sign out"}, Description: "Log out of the system"},
	{Command: Exit, Phrases: []string{"exit", "quit", "goodbye", "bye", "see you"}, Description: "Exit the assistant"},
}

var roleTables = map[model.Role]Table{
	model.RoleDoctor: {
		{Command: SearchPatient, Phrases: []string{"find patient", "search patient", "lookup patient"}, Description: "Search for a patient by name"},
		{Command: PatientDetails, Phrases: []string{"patient details", "get patient info"}, Description: "View a patient's record"},
		{Command: AdmissionHistory, Phrases: []string{"admission history", "patient admissions"}, Description: "View a patient's admissions"},
		{Command: CreatePrescription, Phrases: []string{"new prescription", "prescribe medication"}, Description: "Prescribe medication"},
		{Command: ViewSchedule, Phrases: []string{"my schedule", "today's appointments"}, Description: "View your upcoming admissions"},
		{Command: AddNote, Phrases: []string{"add note", "write note"}, Description: "Add a clinical note"},
		{Command: RequestTest, Phrases: []string{"request test", "order test"}, Description: "Request a lab test"},
	},
	model.RoleNurse: {
		{Command: MedicationList, Phrases: []string{"medication list", "todays medications"}, Description: "Today's medication round"},
		{Command: RecordAdministration, Phrases: []string{"record medication", "give medication"}, Description: "Record a medication administration"},
		{Command: PatientVitals, Phrases: []string{"record vitals", "patient vitals"}, Description: "Record patient vitals"},
		{Command: ViewApplications, Phrases: []string{"view tests", "test applications"}, Description: "View test applications"},
	},
	model.RoleAdmin: {
		{Command: AddStaff, Phrases: []string{"add staff", "new staff"}, Description: "Add a staff member"},
		{Command: GenerateReport, Phrases: []string{"generate report", "create report"}, Description: "Generate a report"},
	},
}

// smallTalk holds canned replies tried after every command table.
var smallTalk = []struct {
	phrases []string
	reply   string
}{
	{[]string{"hello", "hi", "hey", "good morning", "good afternoon"}, "Hello! How can I help you today?"},
	{[]string{"thank", "thanks", "appreciate"}, "You're welcome! Is there anything else I can help with?"},
	{[]string{"sorry", "apologize", "my bad"}, "No problem at all. How can I help?"},
}

// CommonTable returns the table searched for every session.
func CommonTable() Table {
	return commonTable
}

// RoleTable returns the commands owned by role.
func RoleTable(role model.Role) Table {
	return roleTables[role]
}

// Owner returns the role that owns a role-specific command. Common
// commands have no owner.
func Owner(command string) (model.Role, bool) {
	for role, table := range roleTables {
		for _, e := range table {
			if e.Command == command {
				return role, true
			}
		}
	}
	return "", false
}

// Describe returns the table entry for any known command.
func Describe(command string) (Entry, bool) {
	for _, e := range commonTable {
		if e.Command == command {
			return e, true
		}
	}
	for _, table := range roleTables {
		for _, e := range table {
			if e.Command == command {
				return e, true
			}
		}
	}
	return Entry{}, false
}
