package allocation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/medilink/platform/internal/hospital"
	"github.com/medilink/platform/internal/patient"
	"github.com/medilink/platform/internal/shared/config"
	"github.com/medilink/platform/internal/workflow"
)

func unreachableWorkflow() *workflow.Client {
	return workflow.NewClient(config.WorkflowConfig{
		BaseURL:        "http://127.0.0.1:1",
		TimeoutSeconds: 1,
	})
}

func newTestService(wf *workflow.Client) (*Service, *hospital.MemoryStore, *patient.MemoryStore) {
	hospitals := hospital.NewMemoryStore()
	patients := patient.NewMemoryStore()
	return NewService(hospitals, patients, wf), hospitals, patients
}

func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }

func TestAllocateCriticalBPlusScenario(t *testing.T) {
	svc, _, _ := newTestService(unreachableWorkflow())

	result, err := svc.Allocate(context.Background(), Request{
		PatientID:  "1", // Rajesh Kumar, B+
		Latitude:   floatPtr(25.20),
		Longitude:  floatPtr(55.27),
		Severity:   SeverityCritical,
		NeedsBlood: boolPtr(true),
	})
	if err != nil {
		t.Fatalf("Allocate() error: %v", err)
	}

	if result.AllocatedHospital.Name != "Mediclinic City" {
		t.Errorf("expected Mediclinic City, got %s", result.AllocatedHospital.Name)
	}
	if result.ETAMinutes != int(result.DistanceKm*2+3) {
		t.Errorf("eta %d does not match distance %.1f", result.ETAMinutes, result.DistanceKm)
	}
	// Mediclinic City stocks 5 units of B+
	if !result.BloodAvailable {
		t.Error("expected blood available at allocated hospital")
	}
	if result.DonorsAlerted != 0 {
		t.Errorf("no donor alert expected when stock suffices, got %d", result.DonorsAlerted)
	}
	// Critical case: notification is soft-success even though the
	// webhook is unreachable
	if !result.EmergencyNotified {
		t.Error("expected emergency notified flag for critical case")
	}
	if len(result.HospitalsNotified) == 0 {
		t.Error("expected canned hospitals-notified entry")
	}
	if result.Patient.FaceDescriptor != nil {
		t.Error("allocation response must not leak raw descriptors")
	}
}

type lowStockHospitalStore struct{}

func (lowStockHospitalStore) ListHospitals(context.Context) ([]hospital.Hospital, error) {
	return []hospital.Hospital{{
		ID: "1", Name: "Field Clinic",
		Latitude: 25.20, Longitude: 55.27,
		ICUBedsAvailable: 3, ICUBedsTotal: 6, HasTrauma: false,
		BloodStock: map[string]int{"B+": 1},
	}}, nil
}

func (s lowStockHospitalStore) GetHospital(ctx context.Context, id string) (*hospital.Hospital, error) {
	hs, _ := s.ListHospitals(ctx)
	return &hs[0], nil
}

func TestAllocateDonorAlertFallbackWhenWebhookUnreachable(t *testing.T) {
	svc := NewService(lowStockHospitalStore{}, patient.NewMemoryStore(), unreachableWorkflow())

	result, err := svc.Allocate(context.Background(), Request{
		PatientID:  "1", // B+
		Severity:   SeverityUrgent,
		NeedsBlood: boolPtr(true),
	})
	if err != nil {
		t.Fatalf("Allocate() error: %v", err)
	}

	if result.BloodAvailable {
		t.Error("single unit of stock should not count as available")
	}
	if result.DonorsAlerted != 3 {
		t.Errorf("expected default 3 donors alerted, got %d", result.DonorsAlerted)
	}
	if len(result.DonorDetails) != 3 {
		t.Fatalf("expected 3 fallback donors, got %d", len(result.DonorDetails))
	}
	for _, d := range result.DonorDetails {
		if d.BloodType != "B+" {
			t.Errorf("fallback donor blood type = %s, want B+", d.BloodType)
		}
	}
	if result.EmergencyNotified {
		t.Error("urgent case should not trigger emergency notification")
	}
}

func TestAllocateDonorAlertUsesWebhookResponse(t *testing.T) {
	var gotPayload workflow.DonorAlertPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/donor-alert") {
			// Emergency notification path in the same fake server
			json.NewEncoder(w).Encode(map[string]any{
				"hospitals_notified": []map[string]any{{"name": "Field Clinic", "status": "alerted"}},
			})
			return
		}
		json.NewDecoder(r.Body).Decode(&gotPayload)
		json.NewEncoder(w).Encode(map[string]any{
			"donors_notified": 7,
			"donors":          []map[string]any{{"name": "Noor", "distance": 0.9, "blood_type": "B+"}},
		})
	}))
	defer server.Close()

	wf := workflow.NewClient(config.WorkflowConfig{BaseURL: server.URL, TimeoutSeconds: 2})
	svc := NewService(lowStockHospitalStore{}, patient.NewMemoryStore(), wf)

	result, err := svc.Allocate(context.Background(), Request{
		PatientID:  "1",
		Severity:   SeverityCritical,
		NeedsBlood: boolPtr(true),
	})
	if err != nil {
		t.Fatalf("Allocate() error: %v", err)
	}

	if result.DonorsAlerted != 7 {
		t.Errorf("expected 7 donors from webhook, got %d", result.DonorsAlerted)
	}
	if gotPayload.BloodType != "B+" || gotPayload.HospitalName != "Field Clinic" {
		t.Errorf("unexpected webhook payload: %+v", gotPayload)
	}
	if gotPayload.PatientName != "Rajesh Kumar" {
		t.Errorf("expected patient name in payload, got %s", gotPayload.PatientName)
	}
}

func TestAllocateUnknownPatientFallsBackToDefault(t *testing.T) {
	svc, _, _ := newTestService(unreachableWorkflow())

	result, err := svc.Allocate(context.Background(), Request{
		PatientID: "999",
		Severity:  SeverityMild,
	})
	if err != nil {
		t.Fatalf("Allocate() error: %v", err)
	}
	if result.Patient.ID != DefaultPatientID {
		t.Errorf("expected default patient %s, got %s", DefaultPatientID, result.Patient.ID)
	}
}

func TestAllocateAppliesRequestDefaults(t *testing.T) {
	svc, _, _ := newTestService(unreachableWorkflow())

	// Empty request: patient 1, central Dubai, critical, needs blood
	result, err := svc.Allocate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Allocate() error: %v", err)
	}
	if result.Patient.ID != "1" {
		t.Errorf("expected default patient 1, got %s", result.Patient.ID)
	}
	if !result.EmergencyNotified {
		t.Error("default severity is critical, expected emergency notification")
	}
}

func TestAllocateEndpointValidation(t *testing.T) {
	svc, hospitals, patients := newTestService(unreachableWorkflow())
	handler := NewHandler(svc, patients, hospitals)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"invalid json", `{`, http.StatusBadRequest},
		{"non-numeric patient id", `{"patient_id":"abc"}`, http.StatusBadRequest},
		{"unknown severity", `{"severity":"catastrophic"}`, http.StatusBadRequest},
		{"valid defaults", `{}`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/allocate", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			handler.Routes().ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body: %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestShareMedicalHistoryEndpoint(t *testing.T) {
	svc, hospitals, patients := newTestService(unreachableWorkflow())
	handler := NewHandler(svc, patients, hospitals)

	body := `{"patient_id":"2","hospital_id":"3"}`
	req := httptest.NewRequest(http.MethodPost, "/share-medical-history", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success bool           `json:"success"`
		Shared  map[string]any `json:"shared"`
		Message string         `json:"message"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success {
		t.Error("expected success")
	}
	if resp.Shared["patient_name"] != "Fatima Ali" {
		t.Errorf("expected Fatima Ali, got %v", resp.Shared["patient_name"])
	}
	if resp.Shared["hospital"] != "American Hospital" {
		t.Errorf("expected American Hospital, got %v", resp.Shared["hospital"])
	}
	if resp.Shared["receipt_id"] == "" {
		t.Error("expected a receipt id")
	}
}

func TestShareMedicalHistoryValidation(t *testing.T) {
	svc, hospitals, patients := newTestService(unreachableWorkflow())
	handler := NewHandler(svc, patients, hospitals)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing both ids", `{}`, http.StatusBadRequest},
		{"unknown patient", `{"patient_id":"99","hospital_id":"1"}`, http.StatusNotFound},
		{"unknown hospital", `{"patient_id":"1","hospital_id":"99"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/share-medical-history", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			handler.Routes().ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body: %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}
