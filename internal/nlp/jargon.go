package nlp

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
)

// defaultReadingLevel is the target grade level reported for
// simplified text.
const defaultReadingLevel = 7

// TranslateResult is the output of a jargon translation.
type TranslateResult struct {
	Terms        []string          `json:"terms"`
	Categories   map[string]string `json:"categories"`
	Simple       string            `json:"simple"`
	ReadingLevel int               `json:"reading_level"`
}

// medicalTerms flag a query as containing clinical jargon worth
// simplifying for the patient-facing channel.
var medicalTerms = []string{
	"dyspnea", "tachycardia", "bradycardia", "hypotension", "hypertension",
	"hematoma", "myocardial infarction", "infarction", "edema", "anemia",
	"pneumonia", "sepsis", "embolism", "thrombosis", "ischemia",
	"arrhythmia", "fibrillation", "tachypnea", "bradypnea", "apnea",
	"hypoxia", "hyperoxia", "hypoglycemia", "hyperglycemia",
	"intubation", "ventilation", "resuscitation", "defibrillation",
	"catheterization", "angioplasty", "stent", "bypass",
	"diagnosis", "prognosis", "symptom", "syndrome", "pathology",
	"diagnostic", "therapeutic", "prophylactic", "palliative",
	"acute", "chronic", "subacute", "asymptomatic", "symptomatic",
	"morbidity", "mortality", "comorbidity", "etiology", "pathogenesis",
	"pharmacology", "pharmacokinetics", "contraindication", "indication",
	"dose", "dosage", "administration", "route", "frequency",
	"allergy", "adverse", "side effect",
	"trauma", "fracture", "dislocation", "laceration", "abrasion",
	"concussion", "contusion", "hemorrhage", "bleeding",
	"shock", "septic", "cardiogenic", "hypovolemic", "neurogenic",
	"mri", "ct scan", "x-ray", "ultrasound", "echocardiogram",
	"eeg", "ekg", "ecg", "lab results", "blood work", "vitals",
	"icu", "er", "emergency room", "operating room",
	"surgery", "procedure", "operation", "intervention",
}

// clinicalPhrasePatterns catch chart-style phrasing even when no
// single term matches.
var clinicalPhrasePatterns = []*regexp.Regexp{
	regexp.MustCompile(`presents with`),
	regexp.MustCompile(`administered`),
	regexp.MustCompile(`diagnosed with`),
	regexp.MustCompile(`suffering from`),
	regexp.MustCompile(`exhibiting`),
	regexp.MustCompile(`manifesting`),
	regexp.MustCompile(`complaining of`),
	regexp.MustCompile(`history of`),
}

// DetectJargon reports whether text contains medical jargon that is
// worth auto-translating.
func DetectJargon(text string) bool {
	if len(strings.TrimSpace(text)) < 3 {
		return false
	}
	lower := strings.ToLower(text)
	for _, term := range medicalTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	for _, pattern := range clinicalPhrasePatterns {
		if pattern.MatchString(lower) {
			return true
		}
	}
	return false
}

// jargonTranslation is one entry of the regex fallback table. Order
// matters: multi-word patterns run before their substrings.
type jargonTranslation struct {
	pattern     *regexp.Regexp
	replacement string
	category    string
}

var jargonTranslations = []jargonTranslation{
	{regexp.MustCompile(`(?i)\bacute myocardial infarction\b`), "heart attack", "condition"},
	{regexp.MustCompile(`(?i)\bMI\b`), "heart attack", "condition"},
	{regexp.MustCompile(`(?i)\btachycardia\b`), "heart beating too fast", "condition"},
	{regexp.MustCompile(`(?i)\bhypertension\b`), "high blood pressure", "condition"},
	{regexp.MustCompile(`(?i)\bhypotension\b`), "low blood pressure", "condition"},
	{regexp.MustCompile(`(?i)\bdyspnea\b`), "difficulty breathing", "condition"},
	{regexp.MustCompile(`(?i)\bDKA\b`), "diabetic ketoacidosis - a serious diabetes complication", "condition"},
	{regexp.MustCompile(`(?i)\bMICU\b`), "medical intensive care unit", "procedure"},
	{regexp.MustCompile(`(?i)\bendo consult\b`), "endocrinologist consultation", "procedure"},
	{regexp.MustCompile(`(?i)\bIV bolus\b`), "medicine given quickly through a vein", "procedure"},
	{regexp.MustCompile(`(?i)\bNS\b`), "saline solution - salt water", "medication"},
	{regexp.MustCompile(`(?i)\btroponin\b`), "heart damage marker in blood", "test"},
	{regexp.MustCompile(`(?i)\bsubdural hematoma\b`), "bleeding around the brain", "condition"},
	{regexp.MustCompile(`(?i)\bmidline shift\b`), "brain pushed to one side", "condition"},
	{regexp.MustCompile(`(?i)\bCT\b`), "CT scan - detailed imaging", "test"},
	{regexp.MustCompile(`(?i)\bhemorrhagic shock\b`), "losing a lot of blood quickly", "condition"},
	{regexp.MustCompile(`(?i)\btype and cross-match\b`), "blood type testing for transfusion", "test"},
	{regexp.MustCompile(`(?i)\bstat\b`), "immediately", ""},
	{regexp.MustCompile(`(?i)\bbilateral rales\b`), "fluid in both lungs", "condition"},
}

var (
	rePresentsWith = regexp.MustCompile(`(?i)\bpatient presents with\b`)
	reAdministered = regexp.MustCompile(`(?i)\badministered\b`)
	reElevated     = regexp.MustCompile(`(?i)\belevated\b`)
	rePatientIn    = regexp.MustCompile(`(?i)\bpatient in\b`)
	reDoubleIs     = regexp.MustCompile(`(?i)\bis is\b`)

	reCodeFence  = regexp.MustCompile("(?i)```json\\s*\n?|```\\s*\n?")
	reSimpleJSON = []*regexp.Regexp{
		regexp.MustCompile(`(?s)\{[^{}]*"simple"[^{}]*\}`),
		regexp.MustCompile(`(?s)\{[^{}]*"simple_explanation"[^{}]*\}`),
		regexp.MustCompile(`(?s)\{.*?"terms".*?\}`),
		regexp.MustCompile(`(?s)\{.*?\}`),
	}
	reSimpleField = regexp.MustCompile(`(?i)"simple(?:_explanation)?"[^:]*:\s*"([^"]+)"`)
	reWhitespace  = regexp.MustCompile(`\s+`)
	reJSONArtif   = regexp.MustCompile(`["{}]`)
)

// Translator converts clinical language into plain patient-facing
// text, preferring the completion model and degrading to the regex
// table.
type Translator struct {
	ollama *OllamaClient
}

// NewTranslator creates a translator
func NewTranslator(ollama *OllamaClient) *Translator {
	return &Translator{ollama: ollama}
}

// Translate simplifies the given clinical text. The model path is
// attempted first; any failure falls through to the deterministic
// regex table so the endpoint always answers.
func (t *Translator) Translate(ctx context.Context, text string) TranslateResult {
	if t.ollama != nil && t.ollama.Enabled() {
		raw, err := t.ollama.Generate(ctx, t.ollama.JargonModel(), t.ollama.Prompt(text))
		if err == nil {
			if result, ok := parseModelTranslation(raw); ok {
				return result
			}
		}
	}
	return fallbackTranslate(text)
}

// parseModelTranslation extracts a simple-language explanation from a
// model completion, which may be plain text, JSON, or JSON wrapped in
// markdown fences.
func parseModelTranslation(raw string) (TranslateResult, bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return TranslateResult{}, false
	}

	// Whole-body JSON first
	if strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}") {
		var full map[string]any
		if err := json.Unmarshal([]byte(text), &full); err == nil {
			if result, ok := translationFromJSON(full); ok {
				return result, true
			}
		}
	}

	// Embedded JSON object
	for _, pattern := range reSimpleJSON {
		match := pattern.FindString(text)
		if match == "" {
			continue
		}
		var parsed map[string]any
		if err := json.Unmarshal([]byte(match), &parsed); err != nil {
			continue
		}
		if result, ok := translationFromJSON(parsed); ok {
			return result, true
		}
	}

	// Quoted simple field inside malformed JSON
	if m := reSimpleField.FindStringSubmatch(text); m != nil {
		return TranslateResult{
			Terms:        []string{},
			Categories:   map[string]string{},
			Simple:       cleanModelText(m[1]),
			ReadingLevel: defaultReadingLevel,
		}, true
	}

	// Plain text completion
	clean := cleanModelText(text)
	if clean == "" || strings.HasPrefix(clean, "{") {
		return TranslateResult{}, false
	}
	return TranslateResult{
		Terms:        []string{},
		Categories:   map[string]string{},
		Simple:       clean,
		ReadingLevel: defaultReadingLevel,
	}, true
}

func translationFromJSON(parsed map[string]any) (TranslateResult, bool) {
	simple := stringValue(parsed, "simple_explanation", "simple", "explanation", "text", "response")
	if simple == "" {
		return TranslateResult{}, false
	}

	result := TranslateResult{
		Terms:        []string{},
		Categories:   map[string]string{},
		Simple:       cleanModelText(simple),
		ReadingLevel: defaultReadingLevel,
	}
	if terms, ok := parsed["terms"].([]any); ok {
		for _, t := range terms {
			if s, ok := t.(string); ok {
				result.Terms = append(result.Terms, s)
			}
		}
	}
	if categories, ok := parsed["categories"].(map[string]any); ok {
		for k, v := range categories {
			if s, ok := v.(string); ok {
				result.Categories[k] = s
			}
		}
	}
	if level, ok := parsed["reading_level"].(float64); ok {
		result.ReadingLevel = int(level)
	}
	return result, true
}

func stringValue(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// cleanModelText strips markdown fences and JSON artifacts from a
// completion fragment.
func cleanModelText(text string) string {
	text = reCodeFence.ReplaceAllString(text, "")
	text = reJSONArtif.ReplaceAllString(text, "")
	text = reWhitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// fallbackTranslate applies the deterministic term table plus a few
// phrasing cleanups.
func fallbackTranslate(text string) TranslateResult {
	terms := []string{}
	categories := map[string]string{}
	simple := text

	for _, tr := range jargonTranslations {
		match := tr.pattern.FindString(text)
		if match == "" {
			continue
		}
		terms = append(terms, match)
		if tr.category != "" {
			categories[match] = tr.category
		}
		simple = tr.pattern.ReplaceAllString(simple, tr.replacement)
	}

	simple = rePresentsWith.ReplaceAllString(simple, "patient has")
	simple = reAdministered.ReplaceAllString(simple, "gave")
	simple = reElevated.ReplaceAllString(simple, "high")

	// Term replacements can leave "patient in <condition>" reading badly
	simple = rePatientIn.ReplaceAllString(simple, "patient is")
	simple = reDoubleIs.ReplaceAllString(simple, "is")

	if simple != "" {
		simple = strings.ToUpper(simple[:1]) + simple[1:]
	}

	return TranslateResult{
		Terms:        terms,
		Categories:   categories,
		Simple:       simple,
		ReadingLevel: defaultReadingLevel,
	}
}
