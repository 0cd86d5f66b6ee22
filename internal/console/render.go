package console

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jwalitptl/ward-assistant/internal/workflow"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "2006-01-02 15:04"
)

func table(w io.Writer, header string, rows [][]string) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	tw.Flush()
}

func date(t *time.Time, layout string) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format(layout)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func discharge(v interface{}) string {
	switch d := v.(type) {
	case nil:
		return "Still admitted"
	case string:
		if d == "" {
			return "Still admitted"
		}
		return d
	case time.Time:
		return date(&d, dateLayout)
	case primitive.DateTime:
		t := d.Time()
		return date(&t, dateLayout)
	default:
		return fmt.Sprint(d)
	}
}

func render(w io.Writer, res workflow.Result) {
	switch r := res.(type) {
	case *workflow.HelpResult:
		fmt.Fprintln(w, "Available commands:")
		rows := make([][]string, 0, len(r.Commands))
		for _, c := range r.Commands {
			rows = append(rows, []string{"  " + c.Phrases[0], c.Description})
		}
		table(w, "  SAY\tTO", rows)

	case *workflow.LoginResult:
		fmt.Fprintf(w, "Welcome, %s (%s, %s).\n", r.Identity.Name, r.Identity.Role.Info().Title, r.Identity.Department)

	case *workflow.LogoutResult:
		fmt.Fprintf(w, "Goodbye, %s. You have been logged out.\n", r.Identity.Name)

	case *workflow.ExitResult:
		if r.LoggedOut != nil {
			fmt.Fprintf(w, "Logged out %s.\n", r.LoggedOut.Name)
		}
		fmt.Fprintln(w, "Goodbye!")

	case *workflow.SearchPatientResult:
		if len(r.Patients) == 0 {
			fmt.Fprintf(w, "No patients found matching %q.\n", r.Query)
			return
		}
		rows := make([][]string, 0, len(r.Patients))
		for i, p := range r.Patients {
			rows = append(rows, []string{fmt.Sprint(i + 1), p.PatientID, p.Name, orDash(p.Gender), date(p.DOB, dateLayout)})
		}
		table(w, "#\tID\tNAME\tGENDER\tDOB", rows)

	case *workflow.PatientDetailsResult:
		p := r.Patient
		fmt.Fprintf(w, "Patient %s: %s\n", p.PatientID, p.Name)
		fmt.Fprintf(w, "  Gender: %s  DOB: %s  Contact: %s\n", orDash(p.Gender), date(p.DOB, dateLayout), orDash(p.Contact))
		renderAdmissions(w, r.Admissions)

	case *workflow.AdmissionHistoryResult:
		fmt.Fprintf(w, "Admission history for %s\n", r.PatientID)
		renderAdmissions(w, r.Admissions)

	case *workflow.PrescriptionResult:
		rx := r.Prescription
		fmt.Fprintf(w, "Prescription %s created: %s %s, %s.\n", rx.PrescriptionID, rx.DrugName, rx.Dosage, rx.Frequency)

	case *workflow.ScheduleResult:
		if len(r.Entries) == 0 {
			fmt.Fprintln(w, "No upcoming admissions.")
			return
		}
		rows := make([][]string, 0, len(r.Entries))
		for _, e := range r.Entries {
			rows = append(rows, []string{date(e.Admission.AdmissionDate, timeLayout), e.Admission.AdmissionID,
				e.PatientName, orDash(e.Admission.Room), orDash(e.PrimaryDiagnosis)})
		}
		table(w, "DATE\tADMISSION\tPATIENT\tROOM\tDIAGNOSIS", rows)

	case *workflow.NoteResult:
		fmt.Fprintf(w, "Note %s added to admission %s.\n", r.Note.NoteID, r.Note.AdmissionID)

	case *workflow.TestRequestResult:
		a := r.Application
		fmt.Fprintf(w, "Test %s requested for %s (%s, %s).\n", a.ApplicationID, a.PatientID, a.TestType, a.Status)

	case *workflow.MedicationListResult:
		if len(r.Rounds) == 0 {
			fmt.Fprintf(w, "No medications due in %s today.\n", r.Department)
			return
		}
		for _, round := range r.Rounds {
			fmt.Fprintf(w, "%s (%s) room %s, admission %s\n", round.PatientName, round.PatientID, orDash(round.Room), round.AdmissionID)
			rows := make([][]string, 0, len(round.Items))
			for _, it := range round.Items {
				rows = append(rows, []string{"  " + it.Prescription.PrescriptionID, it.Prescription.DrugName,
					it.Prescription.Dosage, it.Prescription.Frequency, it.Status})
			}
			table(w, "  ID\tDRUG\tDOSAGE\tFREQUENCY\tSTATUS", rows)
		}

	case *workflow.AdministrationResult:
		ev := r.Event
		fmt.Fprintf(w, "Recorded %s: %s %s given to %s.\n", ev.EventID, ev.MedicationName, ev.Dosage, r.PatientName)

	case *workflow.VitalsResult:
		fmt.Fprintf(w, "Vitals recorded for %s.\n", r.Vitals.PatientName)

	case *workflow.ApplicationsResult:
		if len(r.Applications) == 0 {
			fmt.Fprintln(w, "No test applications found.")
			return
		}
		rows := make([][]string, 0, len(r.Applications))
		for _, a := range r.Applications {
			rows = append(rows, []string{a.ApplicationID, a.PatientName, a.TestType, a.Status, date(a.CreatedAt, timeLayout)})
		}
		table(w, "ID\tPATIENT\tTEST\tSTATUS\tCREATED", rows)

	case *workflow.StaffResult:
		s := r.Staff
		fmt.Fprintf(w, "%s %s added with ID %s.\n", s.Role.Info().Title, s.Name, s.ID)

	case *workflow.ReportResult:
		rep := r.Report
		fmt.Fprintf(w, "%s: %d records\n", rep.Title, rep.Total)
		for _, d := range rep.Distributions {
			fmt.Fprintf(w, "By %s:\n", strings.ReplaceAll(d.Field, "_", " "))
			for _, b := range d.Buckets {
				fmt.Fprintf(w, "  %s: %d\n", b.Label, b.Count)
			}
		}
		fmt.Fprintf(w, "Exported %d rows to %s\n", rep.Export.Rows, rep.Export.Location)

	default:
		fmt.Fprintf(w, "%s done.\n", res.Command())
	}
}

func renderAdmissions(w io.Writer, admissions []workflow.AdmissionRecord) {
	if len(admissions) == 0 {
		fmt.Fprintln(w, "  No admissions found.")
		return
	}
	for _, a := range admissions {
		fmt.Fprintf(w, "  %s  %s  %s to %s  Dr. %s\n", a.AdmissionID, orDash(a.Department),
			date(a.AdmissionDate, dateLayout), discharge(a.DischargeDate), orDash(a.Doctor))
		for _, d := range a.Diagnoses {
			fmt.Fprintf(w, "    Diagnosis: %s (%s)\n", orDash(d.Description), orDash(d.ICDCode))
		}
		for _, rx := range a.Prescriptions {
			fmt.Fprintf(w, "    Rx %s: %s %s, %s\n", rx.PrescriptionID, rx.DrugName, rx.Dosage, rx.Frequency)
		}
	}
}
