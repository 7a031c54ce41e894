// Package identify performs nearest-neighbor search over stored face
// descriptors, with an escalating lenience cascade for reserved demo
// identities. The cascade thresholds and method names are part of the
// client-facing contract.
package identify

import (
	"context"
	"math"
	"math/rand"
	"sort"

	"github.com/rs/zerolog"

	"github.com/medilink/platform/internal/patient"
	"github.com/medilink/platform/internal/shared/config"
	"github.com/medilink/platform/internal/shared/errors"
	"github.com/medilink/platform/internal/shared/logging"
	"github.com/medilink/platform/internal/shared/metrics"
)

// Match methods reported in outcomes. The photo_upload_* names are
// part of the public API contract; demo clients branch on them.
const (
	MethodDemoMode       = "demo_mode"
	MethodFallbackRandom = "fallback_random"
	MethodEuclidean      = "euclidean_distance"
	MethodDemoClosest    = "photo_upload_demo_match"
	MethodDemoTop3       = "photo_upload_demo_match_top3"
	MethodDemoLenient    = "photo_upload_demo_match_lenient"
	MethodDemoUltra      = "photo_upload_demo_match_ultra_lenient"
	MethodDemoSuggestion = "photo_upload_demo_match_suggestion"
)

// Alternative is a runner-up candidate surfaced for operator review.
type Alternative struct {
	Patient  patient.Patient `json:"patient"`
	Distance float64         `json:"distance"`
}

// Outcome is the result of an identification attempt.
type Outcome struct {
	MatchFound       bool             `json:"match_found"`
	Patient          *patient.Patient `json:"patient,omitempty"`
	Confidence       float64          `json:"confidence,omitempty"`
	Distance         *float64         `json:"distance,omitempty"`
	Method           string           `json:"method,omitempty"`
	Alternatives     []Alternative    `json:"alternatives"`
	Message          string           `json:"message,omitempty"`
	ClosestPatient   string           `json:"closest_patient,omitempty"`
	SuggestedPatient *patient.Patient `json:"suggested_patient,omitempty"`
}

type candidate struct {
	patient  patient.Patient
	distance float64
}

// Matcher runs descriptor searches against the patient store.
type Matcher struct {
	store patient.Store
	cfg   config.MatchingConfig
	log   zerolog.Logger
}

// NewMatcher creates a matcher
func NewMatcher(store patient.Store, cfg config.MatchingConfig) *Matcher {
	return &Matcher{
		store: store,
		cfg:   cfg,
		log:   logging.Component("identify"),
	}
}

// Identify resolves a query descriptor to a stored patient. An absent
// or empty descriptor short-circuits to the designated demo patient; a
// descriptor of the wrong length is a validation failure, never a
// search. Stored descriptors that are malformed are skipped, not
// errors.
func (m *Matcher) Identify(ctx context.Context, descriptor []float64) (*Outcome, error) {
	if len(descriptor) == 0 {
		return m.demoShortCircuit(ctx)
	}
	if !patient.ValidDescriptor(descriptor) {
		metrics.RecordIdentification("validation", false)
		return &Outcome{
			MatchFound:   false,
			Message:      "face_descriptor must be a 128-length array",
			Alternatives: []Alternative{},
		}, nil
	}

	candidates, err := m.collectCandidates(ctx, descriptor)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		metrics.RecordIdentification(MethodEuclidean, false)
		return &Outcome{
			MatchFound:   false,
			Message:      "No match within threshold",
			Method:       MethodEuclidean,
			Alternatives: []Alternative{},
		}, nil
	}

	threshold := m.threshold(candidates)

	if outcome := m.demoCascade(candidates); outcome != nil {
		metrics.RecordIdentification(outcome.Method, true)
		return outcome, nil
	}

	best := candidates[0]
	if best.distance < threshold {
		confidence := math.Max(0, 1-best.distance/threshold)
		outcome := accepted(best, confidence, MethodEuclidean, alternativesAfter(candidates, 1))
		metrics.RecordIdentification(MethodEuclidean, true)
		return outcome, nil
	}

	return m.noMatch(candidates), nil
}

// demoShortCircuit serves descriptor-less requests: the designated
// demo patient with canned confidence, else a random record.
func (m *Matcher) demoShortCircuit(ctx context.Context) (*Outcome, error) {
	if p, err := m.store.GetPatient(ctx, m.cfg.DefaultPatientID); err == nil {
		pub := p.Public()
		metrics.RecordIdentification(MethodDemoMode, true)
		return &Outcome{
			MatchFound:   true,
			Patient:      &pub,
			Confidence:   0.95,
			Distance:     floatPtr(0),
			Method:       MethodDemoMode,
			Alternatives: []Alternative{},
		}, nil
	}

	patients, err := m.store.ListPatients(ctx)
	if err != nil {
		return nil, err
	}
	if len(patients) == 0 {
		return nil, errors.NotFound("patient", m.cfg.DefaultPatientID)
	}
	pub := patients[rand.Intn(len(patients))].Public()
	metrics.RecordIdentification(MethodFallbackRandom, true)
	return &Outcome{
		MatchFound:   true,
		Patient:      &pub,
		Confidence:   0.5,
		Method:       MethodFallbackRandom,
		Alternatives: []Alternative{},
	}, nil
}

// collectCandidates scores every well-formed stored descriptor and
// sorts ascending by distance.
func (m *Matcher) collectCandidates(ctx context.Context, descriptor []float64) ([]candidate, error) {
	patients, err := m.store.ListPatients(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]candidate, 0, len(patients))
	for _, p := range patients {
		if !patient.ValidDescriptor(p.FaceDescriptor) {
			continue
		}
		d := patient.DescriptorDistance(descriptor, p.FaceDescriptor)
		if math.IsInf(d, 1) {
			continue
		}
		candidates = append(candidates, candidate{patient: p, distance: d})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})
	return candidates, nil
}

// threshold widens the base acceptance distance when the best match is
// substantially closer than the runner-up.
func (m *Matcher) threshold(candidates []candidate) float64 {
	threshold := m.cfg.BaseThreshold
	if len(candidates) > 1 && candidates[1].distance > 0 {
		improvement := (candidates[1].distance - candidates[0].distance) / candidates[1].distance
		if improvement > m.cfg.RelativeImprovement {
			threshold = math.Max(threshold, candidates[0].distance*1.5)
		}
	}
	return threshold
}

// demoCascade applies the four-tier lenience ladder for reserved demo
// identities. It returns nil when no tier accepts.
func (m *Matcher) demoCascade(candidates []candidate) *Outcome {
	best := candidates[0]

	// Tier 1: a demo identity as the single closest match is accepted
	// at any distance
	if m.cfg.IsDemo(best.patient.ID) {
		confidence := flooredConfidence(best.distance, m.cfg.TierClosest, 0.6)
		return accepted(best, confidence, MethodDemoClosest, alternativesAfter(candidates, 1))
	}

	demoPos := -1
	for i := range candidates {
		if m.cfg.IsDemo(candidates[i].patient.ID) {
			demoPos = i
			break
		}
	}
	if demoPos < 0 {
		return nil
	}
	demo := candidates[demoPos]
	alts := alternativesExcluding(candidates, demo.patient.ID)

	// Tier 2: demo identity in the top 3 at moderate distance
	if demoPos < 3 && demo.distance < m.cfg.TierTop3 {
		confidence := flooredConfidence(demo.distance, m.cfg.TierTop3, 0.5)
		return accepted(demo, confidence, MethodDemoTop3, alts)
	}

	// Tier 3: lenient range, unless another candidate is at least 50%
	// closer in relative terms
	if demo.distance < m.cfg.TierLenient {
		improvement := 0.0
		if demo.distance > 0 {
			improvement = (demo.distance - best.distance) / demo.distance
		}
		if improvement < 0.5 {
			confidence := flooredConfidence(demo.distance, m.cfg.TierLenient, 0.3)
			return accepted(demo, confidence, MethodDemoLenient, alts)
		}
		return nil
	}

	// Tier 4: ultra-lenient ceiling for demo descriptors that are far
	// from any real photo embedding
	if demo.distance < m.cfg.TierUltra {
		confidence := flooredConfidence(demo.distance, m.cfg.TierUltra, 0.2)
		return accepted(demo, confidence, MethodDemoUltra, alts)
	}

	return nil
}

func (m *Matcher) noMatch(candidates []candidate) *Outcome {
	best := candidates[0]

	// A demo identity still inside the ultra-lenient ceiling converts a
	// near-miss into a match, so lenience-cascade rejections do not
	// strand a demo photo upload
	if !m.cfg.IsDemo(best.patient.ID) {
		for i := range candidates {
			c := candidates[i]
			if m.cfg.IsDemo(c.patient.ID) && c.distance < m.cfg.TierUltra {
				confidence := flooredConfidence(c.distance, m.cfg.TierUltra, 0.2)
				metrics.RecordIdentification(MethodDemoSuggestion, true)
				return accepted(c, confidence, MethodDemoSuggestion, alternativesExcluding(candidates, c.patient.ID))
			}
		}
	}

	outcome := &Outcome{
		MatchFound:     false,
		Message:        "No match within threshold",
		Method:         MethodEuclidean,
		ClosestPatient: best.patient.Name,
		Distance:       floatPtr(round4(best.distance)),
		Alternatives:   alternativesAfter(candidates, 1),
	}
	if m.cfg.IsDemo(best.patient.ID) {
		pub := best.patient.Public()
		outcome.SuggestedPatient = &pub
		outcome.Message = "No exact match found. " + pub.Name + " (Demo Patient) is close - auto-registering..."
	}

	metrics.RecordIdentification(MethodEuclidean, false)
	return outcome
}

// flooredConfidence derives a confidence from distance against a base
// that grows with the distance itself, clamped to a tier floor.
func flooredConfidence(distance, tierBase, floor float64) float64 {
	base := math.Max(tierBase, distance*2)
	return math.Max(floor, 1-distance/base)
}

func accepted(c candidate, confidence float64, method string, alts []Alternative) *Outcome {
	pub := c.patient.Public()
	return &Outcome{
		MatchFound:   true,
		Patient:      &pub,
		Confidence:   round4(confidence),
		Distance:     floatPtr(round4(c.distance)),
		Method:       method,
		Alternatives: alts,
	}
}

// alternativesAfter returns up to two runner-ups starting at index
// from.
func alternativesAfter(candidates []candidate, from int) []Alternative {
	alts := []Alternative{}
	for i := from; i < len(candidates) && len(alts) < 2; i++ {
		alts = append(alts, Alternative{
			Patient:  candidates[i].patient.Public(),
			Distance: round4(candidates[i].distance),
		})
	}
	return alts
}

// alternativesExcluding returns the top-3 candidates minus the
// accepted patient.
func alternativesExcluding(candidates []candidate, acceptedID string) []Alternative {
	limit := len(candidates)
	if limit > 3 {
		limit = 3
	}
	alts := []Alternative{}
	for i := 0; i < limit; i++ {
		if candidates[i].patient.ID == acceptedID {
			continue
		}
		alts = append(alts, Alternative{
			Patient:  candidates[i].patient.Public(),
			Distance: round4(candidates[i].distance),
		})
	}
	return alts
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func floatPtr(v float64) *float64 { return &v }
