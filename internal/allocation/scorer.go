package allocation

import (
	"math"
	"sort"

	"github.com/medilink/platform/internal/geo"
	"github.com/medilink/platform/internal/hospital"
)

// Severity levels accepted by the scorer and the allocation API.
const (
	SeverityCritical = "critical"
	SeverityUrgent   = "urgent"
	SeverityMild     = "mild"
)

// ScoredHospital pairs a hospital with its score and the patient
// distance the score was derived from.
type ScoredHospital struct {
	Hospital   hospital.Hospital
	Score      float64
	DistanceKm float64
}

// Score rates a hospital for a patient at (patientLat, patientLon).
// It is a pure additive point system: each factor contributes
// independently and the terms are summed. Missing hospital fields
// score as zero or false; the function has no failure modes.
//
// Distance dominates. The remaining factors reward free ICU beds,
// spare capacity, specialist availability (proxied by trauma status
// and hospital size), matching blood stock, and trauma capability
// weighted by severity.
func Score(h hospital.Hospital, patientLat, patientLon float64, bloodType, severity string, needsBlood bool) (score, distanceKm float64) {
	distance := geo.SafeDistance(patientLat, patientLon, h.Latitude, h.Longitude)

	// 1. Distance band, decreasing step function. The 5-20km bands are
	// clamped to the previous band's minimum so the term never rises
	// across a boundary: closer must always score at least as well as
	// farther.
	switch {
	case distance <= 2.0:
		score += 200 - distance*30
	case distance <= 5.0:
		score += 150 - distance*20
	case distance <= 10.0:
		score += math.Min(50, 100-distance*8)
	case distance <= 20.0:
		score += math.Min(20, 50-distance*2)
	default:
		score += math.Max(0, 30-distance)
	}

	// 2. Free ICU beds, capped bonus or flat penalty
	if h.ICUBedsAvailable > 0 {
		score += math.Min(float64(h.ICUBedsAvailable)*5, 50)
	} else {
		score -= 100
	}

	// 3. Capacity ratio, skipped when total is zero
	if h.ICUBedsTotal > 0 {
		capacity := float64(h.ICUBedsAvailable) / float64(h.ICUBedsTotal) * 100
		switch {
		case capacity >= 50:
			score += 30
		case capacity >= 30:
			score += 15
		case capacity >= 10:
			score += 5
		default:
			score -= 20
		}
	}

	// 4. Specialist availability proxy, doubled for critical cases
	doctors := 0.0
	if h.HasTrauma {
		doctors += 20
	}
	switch {
	case h.ICUBedsTotal >= 15:
		doctors += 15
	case h.ICUBedsTotal >= 10:
		doctors += 10
	case h.ICUBedsTotal >= 5:
		doctors += 5
	}
	if severity == SeverityCritical {
		doctors *= 2
	}
	score += doctors

	// 5. Blood stock for the patient's type, only when needed and tracked
	if needsBlood && bloodType != "" {
		if units, ok := h.BloodUnits(bloodType); ok {
			switch {
			case units >= 5:
				score += 40
			case units >= 2:
				score += 25
			case units >= 1:
				score += 10
			default:
				score -= 30
			}
		}
	}

	// 6. Trauma bonus by severity
	if h.HasTrauma {
		switch severity {
		case SeverityCritical:
			score += 35
		case SeverityUrgent:
			score += 15
		}
	}

	// 7. Critical-case extras for proximity and bed headroom
	if severity == SeverityCritical {
		if distance <= 5.0 {
			score += 20
		}
		if h.ICUBedsAvailable >= 5 {
			score += 15
		}
	}

	return score, distance
}

// Rank scores every hospital and orders them best-first. The sort is
// stable so score ties resolve to input order.
func Rank(hospitals []hospital.Hospital, patientLat, patientLon float64, bloodType, severity string, needsBlood bool) []ScoredHospital {
	scored := make([]ScoredHospital, 0, len(hospitals))
	for _, h := range hospitals {
		score, distance := Score(h, patientLat, patientLon, bloodType, severity, needsBlood)
		scored = append(scored, ScoredHospital{Hospital: h, Score: score, DistanceKm: distance})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}
