package nlp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/medilink/platform/internal/allocation"
	"github.com/medilink/platform/internal/hospital"
	"github.com/medilink/platform/internal/patient"
	"github.com/medilink/platform/internal/shared/config"
	"github.com/medilink/platform/internal/workflow"
)

func newTestChatService(ollama *OllamaClient) *ChatService {
	hospitals := hospital.NewMemoryStore()
	patients := patient.NewMemoryStore()
	wf := workflow.NewClient(config.WorkflowConfig{
		BaseURL:        "http://127.0.0.1:1",
		TimeoutSeconds: 1,
	})
	allocator := allocation.NewService(hospitals, patients, wf)
	return NewChatService(ollama, NewTranslator(ollama), patients, allocator)
}

func TestChatQueryKeywordFallback(t *testing.T) {
	svc := newTestChatService(disabledOllama())

	resp, err := svc.Query(context.Background(), "Critical patient needs B+ blood transfusion")
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}

	if resp.Understood.Severity != allocation.SeverityCritical {
		t.Errorf("severity = %s, want critical", resp.Understood.Severity)
	}
	if !resp.Understood.NeedsBlood {
		t.Error("expected needs_blood from the blood keyword")
	}
	if resp.Understood.BloodType != "B+" {
		t.Errorf("blood type = %s, want B+", resp.Understood.BloodType)
	}

	// B+ resolves to Rajesh Kumar; with the default location the best
	// hospital stocks his type
	if resp.Allocation.Patient.Name != "Rajesh Kumar" {
		t.Errorf("patient = %s, want Rajesh Kumar", resp.Allocation.Patient.Name)
	}
	if !strings.Contains(resp.NaturalResponse, "Patient allocated to") {
		t.Errorf("unexpected narration: %q", resp.NaturalResponse)
	}
	if !strings.Contains(resp.NaturalResponse, "ETA:") {
		t.Error("narration should mention the ETA")
	}
	if resp.Allocation.AllocatedHospital.ETA == "" {
		t.Error("decorated hospital should carry a display ETA")
	}
}

func TestChatQuerySeverityKeywords(t *testing.T) {
	svc := newTestChatService(disabledOllama())

	tests := []struct {
		query string
		want  string
	}{
		{"severe crash on the highway", allocation.SeverityCritical},
		{"minor cut on the hand", allocation.SeverityMild},
		{"patient collapsed at home", allocation.SeverityUrgent},
	}

	for _, tt := range tests {
		resp, err := svc.Query(context.Background(), tt.query)
		if err != nil {
			t.Fatalf("Query(%q) error: %v", tt.query, err)
		}
		if resp.Understood.Severity != tt.want {
			t.Errorf("Query(%q) severity = %s, want %s", tt.query, resp.Understood.Severity, tt.want)
		}
	}
}

func TestChatQueryBloodTypeTokenOrder(t *testing.T) {
	svc := newTestChatService(disabledOllama())

	// B+ is scanned before AB+, so AB+ resolves to B+. The token order
	// is part of the API contract.
	resp, err := svc.Query(context.Background(), "Accident victim, blood group AB+")
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if resp.Understood.BloodType != "B+" {
		t.Errorf("blood type = %s, want B+ under token-order scanning", resp.Understood.BloodType)
	}
}

func TestChatQueryUsesModelUnderstanding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"response": `The patient is in a life-threatening state and needs immediate care. {"severity": "critical", "needs_blood": true}`,
		})
	}))
	defer server.Close()

	ollama := NewOllamaClient(config.OllamaConfig{
		BaseURL: server.URL, Model: "m", JargonModel: "m",
		TimeoutSeconds: 2, Enabled: true,
	})
	svc := newTestChatService(ollama)

	resp, err := svc.Query(context.Background(), "man collapsed, unresponsive")
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}

	if resp.Understood.Severity != allocation.SeverityCritical {
		t.Errorf("severity = %s, want critical from model JSON", resp.Understood.Severity)
	}
	if !resp.Understood.NeedsBlood {
		t.Error("expected needs_blood from model JSON")
	}
	if !strings.HasPrefix(resp.NaturalResponse, "The patient is in a life-threatening state") {
		t.Errorf("expected model prose to lead the narration, got %q", resp.NaturalResponse)
	}
	if !strings.Contains(resp.NaturalResponse, "Allocation:") {
		t.Error("narration should append the allocation summary")
	}
	if strings.Contains(resp.NaturalResponse, `{"severity"`) {
		t.Error("JSON must be stripped from the narration")
	}
}

func TestChatQueryModelUnreachableFallsBack(t *testing.T) {
	ollama := NewOllamaClient(config.OllamaConfig{
		BaseURL: "http://127.0.0.1:1", Model: "m", JargonModel: "m",
		TimeoutSeconds: 1, Enabled: true,
	})
	svc := newTestChatService(ollama)

	resp, err := svc.Query(context.Background(), "critical bleeding emergency")
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if resp.Understood.Severity != allocation.SeverityCritical {
		t.Errorf("severity = %s, want critical from keywords", resp.Understood.Severity)
	}
}

func TestChatQueryJargonAutoTranslation(t *testing.T) {
	svc := newTestChatService(disabledOllama())

	resp, err := svc.Query(context.Background(), "Patient presents with tachycardia")
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}

	if resp.JargonTranslation == nil {
		t.Fatal("expected an auto-translation for clinical phrasing")
	}
	if !strings.Contains(resp.JargonTranslation.Simple, "heart beating too fast") {
		t.Errorf("simple = %q", resp.JargonTranslation.Simple)
	}
	if resp.JargonTranslation.Original != "Patient presents with tachycardia" {
		t.Errorf("original = %q", resp.JargonTranslation.Original)
	}
	if !strings.Contains(resp.NaturalResponse, "Simplified Explanation") {
		t.Error("narration should lead with the simplified explanation")
	}
}

func TestChatAndJargonEndpoints(t *testing.T) {
	svc := newTestChatService(disabledOllama())
	handler := NewHandler(svc, NewTranslator(disabledOllama()))

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"chat invalid json", "/chat/query", `{`, http.StatusBadRequest},
		{"chat empty query", "/chat/query", `{"query":"  "}`, http.StatusBadRequest},
		{"chat ok", "/chat/query", `{"query":"mild injury"}`, http.StatusOK},
		{"jargon empty text", "/jargon/translate", `{}`, http.StatusBadRequest},
		{"jargon ok", "/jargon/translate", `{"text":"Patient in DKA"}`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			handler.Routes().ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (body: %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestJargonEndpointFallbackBody(t *testing.T) {
	handler := NewHandler(newTestChatService(disabledOllama()), NewTranslator(disabledOllama()))

	req := httptest.NewRequest(http.MethodPost, "/jargon/translate",
		strings.NewReader(`{"text":"Patient in DKA, administered IV bolus"}`))
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	var result TranslateResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(result.Terms) == 0 || result.Terms[0] != "DKA" {
		t.Errorf("terms = %v, want DKA first", result.Terms)
	}
	if result.ReadingLevel != defaultReadingLevel {
		t.Errorf("reading level = %d, want %d", result.ReadingLevel, defaultReadingLevel)
	}
}
