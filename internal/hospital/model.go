package hospital

// Hospital is an emergency-capable facility with live ICU and blood
// stock state. Blood stock is keyed by ABO/Rh label ("O+", "AB-", ...).
type Hospital struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Latitude         float64        `json:"latitude"`
	Longitude        float64        `json:"longitude"`
	ICUBedsAvailable int            `json:"icu_beds_available"`
	ICUBedsTotal     int            `json:"icu_beds_total"`
	HasTrauma        bool           `json:"has_trauma"`
	BloodStock       map[string]int `json:"blood_stock"`
}

// BloodUnits returns the stocked unit count for a blood type and
// whether the hospital tracks that type at all.
func (h Hospital) BloodUnits(bloodType string) (int, bool) {
	if h.BloodStock == nil {
		return 0, false
	}
	units, ok := h.BloodStock[bloodType]
	return units, ok
}

// SeedSet returns the demo hospital dataset used to populate an empty
// store at startup.
func SeedSet() []Hospital {
	return []Hospital{
		{
			ID: "1", Name: "Rashid Hospital",
			Latitude: 25.2654, Longitude: 55.3089,
			ICUBedsAvailable: 12, ICUBedsTotal: 20, HasTrauma: true,
			BloodStock: map[string]int{"O+": 8, "O-": 3, "A+": 5, "B+": 4, "AB+": 2},
		},
		{
			ID: "2", Name: "Dubai Hospital",
			Latitude: 25.2631, Longitude: 55.3376,
			ICUBedsAvailable: 8, ICUBedsTotal: 15, HasTrauma: true,
			BloodStock: map[string]int{"O+": 6, "O-": 2, "A+": 7, "B+": 3, "AB+": 1},
		},
		{
			ID: "3", Name: "American Hospital",
			Latitude: 25.1571, Longitude: 55.2560,
			ICUBedsAvailable: 10, ICUBedsTotal: 12, HasTrauma: false,
			BloodStock: map[string]int{"O+": 10, "O-": 5, "A+": 8, "B+": 6, "AB+": 3},
		},
		{
			ID: "4", Name: "Saudi German Hospital",
			Latitude: 25.1121, Longitude: 55.1389,
			ICUBedsAvailable: 5, ICUBedsTotal: 18, HasTrauma: true,
			BloodStock: map[string]int{"O+": 4, "O-": 1, "A+": 3, "B+": 2, "AB+": 1},
		},
		{
			ID: "5", Name: "Mediclinic City",
			Latitude: 25.1865, Longitude: 55.2843,
			ICUBedsAvailable: 7, ICUBedsTotal: 10, HasTrauma: false,
			BloodStock: map[string]int{"O+": 9, "O-": 4, "A+": 6, "B+": 5, "AB+": 2},
		},
	}
}
