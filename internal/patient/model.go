package patient

// Patient is a registered individual with an optional face descriptor.
// The medical history is a free-form document; only a few conventional
// keys (allergies, medications, emergency_contact) are assumed by
// consumers.
type Patient struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Age            int            `json:"age"`
	BloodType      string         `json:"blood_type"`
	Photo          string         `json:"photo,omitempty"`
	MedicalHistory map[string]any `json:"medical_history"`
	FaceDescriptor []float64      `json:"face_descriptor,omitempty"`
}

// Public returns a copy safe for API responses, with the raw
// descriptor stripped.
func (p Patient) Public() Patient {
	p.FaceDescriptor = nil
	return p
}

// SeedSet returns the demo patient dataset used to populate an empty
// store at startup. Descriptors are synthetic, derived from the record
// id, and do not represent real biometrics.
func SeedSet() []Patient {
	patients := []Patient{
		{
			ID: "1", Name: "Rajesh Kumar", Age: 32, BloodType: "B+", Photo: "patient1.jpg",
			MedicalHistory: map[string]any{
				"allergies":          []string{"Penicillin", "Aspirin"},
				"chronic_conditions": []string{"Hypertension", "Mild Asthma"},
				"medications":        []string{"Lisinopril 10mg daily", "Albuterol inhaler (as needed)"},
				"emergency_contact":  map[string]any{"name": "Priya Kumar", "phone": "+971-50-123-4567"},
				"last_checkup":       "2024-10-15",
			},
		},
		{
			ID: "2", Name: "Fatima Ali", Age: 45, BloodType: "O+", Photo: "patient2.jpg",
			MedicalHistory: map[string]any{
				"allergies":          []string{"Latex", "Shellfish"},
				"chronic_conditions": []string{"Type 2 Diabetes"},
				"medications":        []string{"Metformin 500mg twice daily", "Insulin glargine"},
				"emergency_contact":  map[string]any{"name": "Ahmed Ali", "phone": "+971-55-987-6543"},
				"last_checkup":       "2024-11-01",
			},
		},
		{
			ID: "3", Name: "John Smith", Age: 28, BloodType: "A+", Photo: "patient3.jpg",
			MedicalHistory: map[string]any{
				"allergies":          []string{},
				"chronic_conditions": []string{},
				"medications":        []string{},
				"emergency_contact":  map[string]any{"name": "Sarah Smith", "phone": "+971-52-111-2222"},
				"last_checkup":       "2024-09-20",
			},
		},
		{
			ID: "4", Name: "Demo Patient", Age: 30, BloodType: "O+", Photo: "demo.jpg",
			MedicalHistory: map[string]any{
				"allergies":          []string{"Iodine contrast", "Shellfish"},
				"chronic_conditions": []string{"Asthma", "Mild Hypertension"},
				"medications":        []string{"Albuterol inhaler (as needed)", "Losartan 25mg daily"},
				"emergency_contact":  map[string]any{"name": "Emergency Contact", "phone": "+971-50-999-8888"},
				"last_checkup":       "2024-11-15",
				"blood_donor_status": "Regular donor (last: 2024-08-20)",
			},
		},
		{
			ID: "5", Name: "Ahmad Hassan", Age: 42, BloodType: "O+", Photo: "ahmad_hassan.jpg",
			MedicalHistory: map[string]any{
				"allergies":          []string{"Penicillin", "Sulfa drugs", "Iodine contrast"},
				"chronic_conditions": []string{"Type 2 Diabetes", "Hypertension", "Sleep Apnea"},
				"medications":        []string{"Metformin 1000mg twice daily", "Lisinopril 10mg daily", "Atorvastatin 20mg nightly"},
				"emergency_contact":  map[string]any{"name": "Fatima Hassan", "phone": "+971-50-777-8888", "relationship": "Wife"},
				"last_checkup":       "2024-11-02",
				"blood_donor_status": "Not eligible due to diabetes",
			},
		},
		{
			ID: "6", Name: "Priya Sharma", Age: 38, BloodType: "B+", Photo: "priya_sharma.jpg",
			MedicalHistory: map[string]any{
				"allergies":          []string{"Latex", "Shellfish", "Aspirin"},
				"chronic_conditions": []string{"Anemia (Iron Deficiency)", "Hypothyroidism", "Migraine Headaches"},
				"medications":        []string{"Levothyroxine 75mcg daily", "Ferrous Sulfate 325mg twice daily"},
				"emergency_contact":  map[string]any{"name": "Rahul Sharma", "phone": "+971-50-888-9999", "relationship": "Husband"},
				"last_checkup":       "2024-11-10",
				"blood_donor_status": "Not eligible due to anemia",
			},
		},
	}

	for i := range patients {
		patients[i].FaceDescriptor = GenerateDescriptor(patients[i].ID)
	}
	return patients
}
