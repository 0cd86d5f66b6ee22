package memory

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/jwalitptl/ward-assistant/internal/model"
)

// SeedDemo loads a small ward so the assistant can be tried without a
// database. Admission dates are relative to now so the schedule and the
// medication round always have something to show.
func SeedDemo(s *Store, now time.Time) error {
	y, m, d := now.UTC().Date()
	today := time.Date(y, m, d, 8, 0, 0, 0, time.UTC)
	dob := func(year int) time.Time { return time.Date(year, time.June, 1, 0, 0, 0, 0, time.UTC) }

	seeds := []struct {
		collection string
		docs       []interface{}
	}{
		{model.CollectionDoctors, []interface{}{
			bson.M{"doctor_id": "DOC_001", "name": "Jane Smith", "department": "Cardiology", "contact": "555-0101"},
			bson.M{"doctor_id": "DOC_002", "name": "Omar Haddad", "department": "Neurology", "contact": "555-0102"},
		}},
		{model.CollectionNurses, []interface{}{
			bson.M{"nurse_id": "NUR_001", "name": "Mary Jones", "department": "Cardiology", "contact": "555-0201"},
		}},
		{model.CollectionAdministrators, []interface{}{
			bson.M{"admin_id": "ADM_001", "name": "Alex Admin", "department": "Administration"},
		}},
		{model.CollectionPatients, []interface{}{
			bson.M{"patient_id": "PAT_001", "name": "John Doe", "dob": dob(1958), "gender": "M", "contact": "555-1001"},
			bson.M{"patient_id": "PAT_002", "name": "Priya Patel", "dob": dob(1984), "gender": "F", "contact": "555-1002"},
			bson.M{"patient_id": "PAT_003", "name": "Lucas Martin", "dob": dob(1971), "gender": "M"},
		}},
		{model.CollectionAdmissions, []interface{}{
			bson.M{"admission_id": "ADM_001", "patient_id": "PAT_001", "department": "Cardiology", "doctor": "Jane Smith",
				"room": "C-12", "admission_date": today.AddDate(0, 0, -2), "discharge_date": nil},
			bson.M{"admission_id": "ADM_002", "patient_id": "PAT_002", "department": "Cardiology", "doctor": "Jane Smith",
				"room": "C-14", "admission_date": today.Add(3 * time.Hour), "discharge_date": ""},
			bson.M{"admission_id": "ADM_003", "patient_id": "PAT_003", "department": "Neurology", "doctor": "Omar Haddad",
				"room": "N-03", "admission_date": today.AddDate(0, -2, 0), "discharge_date": today.AddDate(0, -1, 0).Format("2006-01-02")},
		}},
		{model.CollectionDiagnoses, []interface{}{
			bson.M{"diagnosis_id": "DX_001", "admission_id": "ADM_001", "patient_id": "PAT_001", "icd_code": "I21.9",
				"description": "Acute myocardial infarction", "diagnosis_date": today.AddDate(0, 0, -2)},
			bson.M{"diagnosis_id": "DX_002", "admission_id": "ADM_002", "patient_id": "PAT_002", "icd_code": "I48.91",
				"description": "Atrial fibrillation", "diagnosis_date": today},
		}},
		{model.CollectionPrescriptions, []interface{}{
			bson.M{"prescription_id": "PR_001", "admission_id": "ADM_001", "patient_id": "PAT_001", "drug_name": "Aspirin",
				"dosage": "81mg", "frequency": "Once daily", "prescribed_by": "Jane Smith", "prescribed_at": today.AddDate(0, 0, -2)},
			bson.M{"prescription_id": "PR_002", "admission_id": "ADM_001", "patient_id": "PAT_001", "drug_name": "Metoprolol",
				"dosage": "25mg", "frequency": "Twice daily", "prescribed_by": "Jane Smith", "prescribed_at": today.AddDate(0, 0, -1)},
		}},
		{model.CollectionApplications, []interface{}{
			bson.M{"application_id": "APP_001", "patient_id": "PAT_001", "test_type": "Troponin", "status": "Completed",
				"requested_by": "Jane Smith", "created_at": today.AddDate(0, 0, -2)},
			bson.M{"application_id": "APP_002", "patient_id": "PAT_001", "test_type": "ECG", "status": "Pending",
				"requested_by": "Jane Smith", "created_at": today.AddDate(0, 0, -1)},
		}},
	}

	for _, seed := range seeds {
		if err := s.Seed(seed.collection, seed.docs...); err != nil {
			return err
		}
	}
	return nil
}
