package nlp

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/medilink/platform/internal/allocation"
	"github.com/medilink/platform/internal/hospital"
	"github.com/medilink/platform/internal/patient"
	"github.com/medilink/platform/internal/shared/logging"
)

// Understood is the structured reading of a free-text emergency query.
type Understood struct {
	Severity   string `json:"severity"`
	NeedsBlood bool   `json:"needs_blood"`
	BloodType  string `json:"blood_type,omitempty"`
}

// JargonContext is the auto-translation attached to a chat response
// when the query contains clinical jargon.
type JargonContext struct {
	Original     string   `json:"original"`
	Simple       string   `json:"simple"`
	Terms        []string `json:"terms"`
	ReadingLevel int      `json:"reading_level"`
}

// decoratedHospital repeats the allocated hospital with display-ready
// distance and ETA fields for chat clients.
type decoratedHospital struct {
	hospital.Hospital
	Distance float64 `json:"distance"`
	ETA      string  `json:"eta"`
}

type chatAllocation struct {
	*allocation.Result
	AllocatedHospital decoratedHospital `json:"allocated_hospital"`
}

// ChatResponse is the full chat-query answer: the structured reading,
// the allocation it drove, and a natural-language summary.
type ChatResponse struct {
	Understood        Understood     `json:"understood"`
	Allocation        chatAllocation `json:"allocation"`
	NaturalResponse   string         `json:"natural_response"`
	JargonTranslation *JargonContext `json:"jargon_translation,omitempty"`
}

// bloodTypeTokens are scanned in this exact order. The order is part
// of the API contract: B+ is checked before AB+, so a query naming
// AB+ resolves to B+. Kept for client compatibility.
var bloodTypeTokens = []string{"O+", "O-", "B+", "B-", "A+", "A-", "AB+", "AB-"}

var (
	reSeverityJSON = regexp.MustCompile(`(?s)\{[^{}]*"severity"[^{}]*\}`)
	reAnyJSON      = regexp.MustCompile(`(?s)\{.*\}`)
	reInlineJSON   = regexp.MustCompile(`\{[^{}]*\}`)
)

// ChatService turns a free-text emergency query into an allocation,
// using the completion model when reachable and keyword extraction
// otherwise.
type ChatService struct {
	ollama     *OllamaClient
	translator *Translator
	patients   patient.Store
	allocator  *allocation.Service
	log        zerolog.Logger
}

// NewChatService creates a chat service
func NewChatService(ollama *OllamaClient, translator *Translator, patients patient.Store, allocator *allocation.Service) *ChatService {
	return &ChatService{
		ollama:     ollama,
		translator: translator,
		patients:   patients,
		allocator:  allocator,
		log:        logging.Component("chat"),
	}
}

// Query processes one chat query end to end: understand, translate
// jargon, pick a patient, allocate, narrate.
func (s *ChatService) Query(ctx context.Context, query string) (*ChatResponse, error) {
	understood, naturalText := s.understand(ctx, query)

	var jargon *JargonContext
	if DetectJargon(query) {
		result := s.translator.Translate(ctx, query)
		if result.Simple != "" {
			jargon = &JargonContext{
				Original:     query,
				Simple:       result.Simple,
				Terms:        result.Terms,
				ReadingLevel: result.ReadingLevel,
			}
		}
	}

	patientID := s.resolvePatient(ctx, understood.BloodType)

	result, err := s.allocator.Allocate(ctx, allocation.Request{
		PatientID:  patientID,
		Severity:   understood.Severity,
		NeedsBlood: &understood.NeedsBlood,
	})
	if err != nil {
		return nil, err
	}

	natural := s.narrate(naturalText, result)
	if jargon != nil && jargon.Simple != "" && !strings.Contains(natural, jargon.Simple) {
		natural = " **Simplified Explanation:** " + jargon.Simple + "\n\n" + natural
	}

	s.log.Info().
		Str("severity", understood.Severity).
		Bool("needs_blood", understood.NeedsBlood).
		Str("patient_id", patientID).
		Str("hospital", result.AllocatedHospital.Name).
		Msg("chat query processed")

	return &ChatResponse{
		Understood: understood,
		Allocation: chatAllocation{
			Result: result,
			AllocatedHospital: decoratedHospital{
				Hospital: result.AllocatedHospital,
				Distance: result.DistanceKm,
				ETA:      strconv.Itoa(result.ETAMinutes) + " min",
			},
		},
		NaturalResponse:   natural,
		JargonTranslation: jargon,
	}, nil
}

// understand extracts severity, blood need and blood type from the
// query: model first, keyword scan as the always-available floor.
func (s *ChatService) understand(ctx context.Context, query string) (Understood, string) {
	understood := Understood{Severity: "urgent"}
	naturalText := ""

	if s.ollama != nil && s.ollama.Enabled() {
		text, err := s.ollama.Generate(ctx, s.ollama.Model(), s.ollama.Prompt(query))
		if err == nil && text != "" {
			naturalText = text
			if raw := extractUnderstoodJSON(text); raw != "" {
				var parsed Understood
				if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
					understood = parsed
				}
			}
		} else if err != nil {
			s.log.Warn().Err(err).Msg("completion unavailable, using keyword extraction")
		}
	}

	lower := strings.ToLower(query)

	// An "urgent" reading may just be the model's default, so keywords
	// can still upgrade or downgrade it
	if understood.Severity == "" || understood.Severity == "urgent" {
		switch {
		case strings.Contains(lower, "critical") || strings.Contains(lower, "severe"):
			understood.Severity = allocation.SeverityCritical
		case strings.Contains(lower, "mild") || strings.Contains(lower, "minor"):
			understood.Severity = allocation.SeverityMild
		default:
			understood.Severity = allocation.SeverityUrgent
		}
	}

	if !understood.NeedsBlood {
		understood.NeedsBlood = strings.Contains(lower, "blood") || strings.Contains(lower, "donor")
	}

	if understood.BloodType == "" {
		for _, token := range bloodTypeTokens {
			if strings.Contains(query, token) {
				understood.BloodType = token
				break
			}
		}
	}

	return understood, naturalText
}

func extractUnderstoodJSON(text string) string {
	if m := reSeverityJSON.FindString(text); m != "" {
		return m
	}
	return reAnyJSON.FindString(text)
}

// resolvePatient picks a roster patient for the allocation: by blood
// type when one was understood, else the first record, else patient 1.
func (s *ChatService) resolvePatient(ctx context.Context, bloodType string) string {
	if bloodType != "" {
		if p, err := s.patients.FindByBloodType(ctx, bloodType); err == nil {
			return p.ID
		}
	}
	if patients, err := s.patients.ListPatients(ctx); err == nil && len(patients) > 0 {
		return patients[0].ID
	}
	return allocation.DefaultPatientID
}

// narrate builds the natural-language summary, preferring model prose
// and appending the allocation facts it does not already mention.
func (s *ChatService) narrate(naturalText string, result *allocation.Result) string {
	hospitalName := result.AllocatedHospital.Name
	distance := formatFloat(result.DistanceKm)
	eta := strconv.Itoa(result.ETAMinutes)

	var natural string
	if len(strings.TrimSpace(naturalText)) > 50 {
		cleaned := strings.TrimSpace(reInlineJSON.ReplaceAllString(naturalText, ""))
		if len(cleaned) > 20 {
			natural = cleaned + "\n\n Allocation: " + hospitalName + " (" + distance + "km, ETA: " + eta + "min)"
		} else {
			natural = naturalText
		}
	} else {
		natural = "Patient allocated to " + hospitalName + ", " + distance + "km away. ICU bed reserved. "
	}

	lowerNatural := strings.ToLower(natural)
	if result.BloodAvailable {
		if !strings.Contains(lowerNatural, "blood available") {
			natural += result.Patient.BloodType + " blood available in stock. "
		}
	} else if result.DonorsAlerted > 0 {
		if !strings.Contains(lowerNatural, "donors alerted") && !strings.Contains(lowerNatural, "donor") {
			natural += "\n\n Blood Donor Alert: " + strconv.Itoa(result.DonorsAlerted) + " nearby donors have been notified via N8N workflow.\n"
			if len(result.DonorDetails) > 0 {
				natural += "\n Notified Donors:\n"
				for _, donor := range result.DonorDetails {
					natural += "   " + donor.Name + " - " + formatFloat(donor.Distance) + " km away\n"
				}
			}
		}
	}

	lowerNatural = strings.ToLower(natural)
	if result.EmergencyNotified {
		if !strings.Contains(lowerNatural, "emergency") && !strings.Contains(lowerNatural, "notification") {
			natural += "\n\n Emergency Notification: All nearby hospitals have been alerted via N8N emergency workflow.\n"
			if len(result.HospitalsNotified) > 0 {
				natural += "   " + strconv.Itoa(len(result.HospitalsNotified)) + " hospitals notified and on standby.\n"
			}
		}
	}

	if !strings.Contains(natural, "ETA:") {
		natural += "\n ETA: " + eta + " minutes."
	}

	return natural
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
