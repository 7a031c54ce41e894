package nlp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/medilink/platform/internal/shared/config"
)

func disabledOllama() *OllamaClient {
	return NewOllamaClient(config.OllamaConfig{Enabled: false})
}

func TestDetectJargon(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"empty", "", false},
		{"too short", "ab", false},
		{"plain text", "hello, how do I find a doctor", false},
		{"medical term", "patient has tachycardia", true},
		{"chart phrasing", "presents with chest pain", true},
		{"administered phrase", "Patient in DKA, administered IV bolus", true},
		{"imaging term", "we need an mri today", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectJargon(tt.text); got != tt.want {
				t.Errorf("DetectJargon(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestFallbackTranslate(t *testing.T) {
	result := fallbackTranslate("Patient in DKA, administered IV bolus NS")

	wantTerms := []string{"DKA", "IV bolus", "NS"}
	if len(result.Terms) != len(wantTerms) {
		t.Fatalf("terms = %v, want %v", result.Terms, wantTerms)
	}
	for i, term := range wantTerms {
		if result.Terms[i] != term {
			t.Errorf("terms[%d] = %s, want %s", i, result.Terms[i], term)
		}
	}

	if result.Categories["DKA"] != "condition" {
		t.Errorf("DKA category = %s, want condition", result.Categories["DKA"])
	}
	if result.Categories["NS"] != "medication" {
		t.Errorf("NS category = %s, want medication", result.Categories["NS"])
	}

	if result.Simple == "" || result.Simple[0] < 'A' || result.Simple[0] > 'Z' {
		t.Errorf("simple text should be capitalized, got %q", result.Simple)
	}
	for _, want := range []string{"Patient is", "diabetic ketoacidosis", "gave", "saline solution"} {
		if !strings.Contains(result.Simple, want) {
			t.Errorf("simple text missing %q: %q", want, result.Simple)
		}
	}
	if result.ReadingLevel != defaultReadingLevel {
		t.Errorf("reading level = %d, want %d", result.ReadingLevel, defaultReadingLevel)
	}
}

func TestTranslateUsesModelJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Stream {
			t.Error("expected stream=false")
		}
		json.NewEncoder(w).Encode(map[string]string{
			"response": `{"simple": "Your heart was damaged by a heart attack", "terms": ["MI", "troponin"], "reading_level": 6}`,
		})
	}))
	defer server.Close()

	ollama := NewOllamaClient(config.OllamaConfig{
		BaseURL: server.URL, Model: "m", JargonModel: "m",
		TimeoutSeconds: 2, Enabled: true,
	})
	result := NewTranslator(ollama).Translate(context.Background(), "Elevated troponin, MI suspected")

	if result.Simple != "Your heart was damaged by a heart attack" {
		t.Errorf("simple = %q", result.Simple)
	}
	if len(result.Terms) != 2 || result.Terms[0] != "MI" {
		t.Errorf("terms = %v", result.Terms)
	}
	if result.ReadingLevel != 6 {
		t.Errorf("reading level = %d, want 6", result.ReadingLevel)
	}
}

func TestTranslateModelEmbeddedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"response": "Here is the translation:\n```json\n{\"simple\": \"High blood pressure\"}\n```",
		})
	}))
	defer server.Close()

	ollama := NewOllamaClient(config.OllamaConfig{
		BaseURL: server.URL, Model: "m", JargonModel: "m",
		TimeoutSeconds: 2, Enabled: true,
	})
	result := NewTranslator(ollama).Translate(context.Background(), "hypertension")

	if result.Simple != "High blood pressure" {
		t.Errorf("simple = %q, want High blood pressure", result.Simple)
	}
}

func TestTranslateFallsBackWhenModelUnreachable(t *testing.T) {
	ollama := NewOllamaClient(config.OllamaConfig{
		BaseURL: "http://127.0.0.1:1", Model: "m", JargonModel: "m",
		TimeoutSeconds: 1, Enabled: true,
	})
	result := NewTranslator(ollama).Translate(context.Background(), "Patient has tachycardia")

	if !strings.Contains(result.Simple, "heart beating too fast") {
		t.Errorf("expected regex fallback translation, got %q", result.Simple)
	}
	if len(result.Terms) != 1 || result.Terms[0] != "tachycardia" {
		t.Errorf("terms = %v, want [tachycardia]", result.Terms)
	}
}
