package allocation

import (
	"testing"

	"github.com/medilink/platform/internal/hospital"
)

func baseHospital() hospital.Hospital {
	return hospital.Hospital{
		ID: "10", Name: "Test Hospital",
		Latitude: 25.20, Longitude: 55.27,
		ICUBedsAvailable: 8, ICUBedsTotal: 16, HasTrauma: true,
		BloodStock: map[string]int{"B+": 4, "O+": 6},
	}
}

func TestScoreDeterministic(t *testing.T) {
	h := baseHospital()

	s1, d1 := Score(h, 25.25, 55.30, "B+", SeverityCritical, true)
	s2, d2 := Score(h, 25.25, 55.30, "B+", SeverityCritical, true)

	if s1 != s2 || d1 != d2 {
		t.Errorf("scoring not deterministic: (%f,%f) vs (%f,%f)", s1, d1, s2, d2)
	}
}

func TestScoreMonotonicInDistance(t *testing.T) {
	// Same attributes, placed at increasing distance along a meridian.
	// A closer hospital must never score below a farther one.
	patientLat, patientLon := 25.20, 55.27
	// Offsets chosen to land on both sides of every distance band
	// boundary (2, 5, 10, 20km), not just inside the bands.
	offsets := []float64{0, 0.005, 0.01, 0.02, 0.04, 0.044, 0.047, 0.056, 0.08, 0.089, 0.092, 0.12, 0.15, 0.3, 0.6, 1.2}

	for _, severity := range []string{SeverityCritical, SeverityUrgent, SeverityMild} {
		prevScore := 0.0
		prevDistance := -1.0
		for i, off := range offsets {
			h := baseHospital()
			h.Latitude = patientLat + off

			score, distance := Score(h, patientLat, patientLon, "B+", severity, true)
			if i > 0 {
				if distance < prevDistance {
					t.Fatalf("offsets not increasing in distance: %f < %f", distance, prevDistance)
				}
				if score > prevScore {
					t.Errorf("severity %s: score increased with distance (%.2fkm=%.2f > %.2fkm=%.2f)",
						severity, distance, score, prevDistance, prevScore)
				}
			}
			prevScore, prevDistance = score, distance
		}
	}
}

func TestScoreDistanceBandBoundaries(t *testing.T) {
	// Straddle each band edge with a pair of hospitals about 0.2km
	// apart. The distance term steps down between bands, so the hospital
	// just inside must score at least as well as the one just outside.
	patientLat, patientLon := 25.20, 55.27
	pairs := []struct {
		name            string
		inside, outside float64 // latitude offsets, ~111.2km per degree
	}{
		{"2km edge", 0.0177, 0.0183},
		{"5km edge", 0.0441, 0.0459},
		{"10km edge", 0.0890, 0.0908},
		{"20km edge", 0.1780, 0.1820},
	}

	for _, severity := range []string{SeverityCritical, SeverityUrgent, SeverityMild} {
		for _, p := range pairs {
			closer := baseHospital()
			closer.Latitude = patientLat + p.inside
			farther := baseHospital()
			farther.Latitude = patientLat + p.outside

			closeScore, closeDist := Score(closer, patientLat, patientLon, "B+", severity, true)
			farScore, farDist := Score(farther, patientLat, patientLon, "B+", severity, true)

			if farScore > closeScore {
				t.Errorf("severity %s, %s: score increased with distance (%.2fkm=%.2f > %.2fkm=%.2f)",
					severity, p.name, farDist, farScore, closeDist, closeScore)
			}
		}
	}
}

func TestScoreNoBedsPenalty(t *testing.T) {
	withBeds := baseHospital()
	withBeds.ICUBedsAvailable = 1

	noBeds := baseHospital()
	noBeds.ICUBedsAvailable = 0

	sWith, _ := Score(withBeds, 25.20, 55.27, "B+", SeverityUrgent, false)
	sWithout, _ := Score(noBeds, 25.20, 55.27, "B+", SeverityUrgent, false)

	if sWithout >= sWith {
		t.Errorf("no-beds hospital scored %.2f, should be below %.2f", sWithout, sWith)
	}
	// The penalty term is worth -100 versus a +5 single-bed bonus,
	// minus the capacity-band swing; the gap must stay large.
	if sWith-sWithout < 80 {
		t.Errorf("expected a heavy no-beds penalty, gap was only %.2f", sWith-sWithout)
	}
}

func TestScoreBloodStockTiers(t *testing.T) {
	tests := []struct {
		name  string
		units int
		want  float64
	}{
		{"excellent stock", 5, 40},
		{"good stock", 2, 25},
		{"minimal stock", 1, 10},
		{"tracked but empty", 0, -30},
	}

	reference := baseHospital()
	delete(reference.BloodStock, "B+")
	refScore, _ := Score(reference, 25.20, 55.27, "B+", SeverityMild, true)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := baseHospital()
			h.BloodStock["B+"] = tt.units

			score, _ := Score(h, 25.20, 55.27, "B+", SeverityMild, true)
			if got := score - refScore; got != tt.want {
				t.Errorf("blood term = %.1f, want %.1f", got, tt.want)
			}
		})
	}
}

func TestScoreBloodIgnoredWhenNotNeeded(t *testing.T) {
	h := baseHospital()
	h.BloodStock["B+"] = 0

	needsScore, _ := Score(h, 25.20, 55.27, "B+", SeverityMild, true)
	noNeedScore, _ := Score(h, 25.20, 55.27, "B+", SeverityMild, false)

	if noNeedScore-needsScore != 30 {
		t.Errorf("empty stock should only penalize when blood is needed: delta %.1f", noNeedScore-needsScore)
	}
}

func TestScoreDoctorProxyDoubledForCritical(t *testing.T) {
	h := baseHospital() // trauma (+20) and 16 total beds (+15)

	urgent, _ := Score(h, 25.20, 55.27, "", SeverityUrgent, false)
	crit, _ := Score(h, 25.20, 55.27, "", SeverityCritical, false)

	// critical vs urgent on this hospital: doctor proxy 35 extra,
	// trauma bonus 35-15=20 extra, close-distance +20, beds +15
	if delta := crit - urgent; delta != 35+20+20+15 {
		t.Errorf("critical uplift = %.1f, want 90", delta)
	}
}

func TestScoreCapacityRatioSkippedWhenTotalZero(t *testing.T) {
	h := baseHospital()
	h.ICUBedsAvailable = 0
	h.ICUBedsTotal = 0

	// Must not panic and must not apply the capacity band
	score, _ := Score(h, 25.20, 55.27, "", SeverityMild, false)

	ref := baseHospital()
	ref.ICUBedsAvailable = 0
	ref.ICUBedsTotal = 16
	refScore, _ := Score(ref, 25.20, 55.27, "", SeverityMild, false)

	// ref gets the sub-10% capacity penalty (-20) and the >=15-bed
	// doctor tier (+15); the zero-total hospital gets neither
	if score-refScore != 5 {
		t.Errorf("zero-total delta = %.1f, want 5", score-refScore)
	}
}

func TestRankDescendingAndStable(t *testing.T) {
	far := baseHospital()
	far.ID, far.Name = "20", "Far Hospital"
	far.Latitude = 26.0

	near := baseHospital()
	near.ID, near.Name = "21", "Near Hospital"

	twinOfNear := near
	twinOfNear.ID, twinOfNear.Name = "22", "Twin Hospital"

	ranked := Rank([]hospital.Hospital{far, near, twinOfNear}, 25.20, 55.27, "B+", SeverityCritical, true)

	if ranked[0].Hospital.ID != "21" {
		t.Errorf("expected nearest hospital first, got %s", ranked[0].Hospital.Name)
	}
	// Identical scores keep input order
	if ranked[1].Hospital.ID != "22" {
		t.Errorf("expected stable tie-break by input order, got %s", ranked[1].Hospital.Name)
	}
	if ranked[2].Hospital.ID != "20" {
		t.Errorf("expected farthest hospital last, got %s", ranked[2].Hospital.Name)
	}
}

func TestRankSeedSetCriticalBPlusNearDowntown(t *testing.T) {
	// Five-hospital seed set, B+ critical patient needing blood at
	// (25.20, 55.27): the close mid-size hospital with strong B+
	// stock must beat the bigger trauma centers farther north.
	ranked := Rank(hospital.SeedSet(), 25.20, 55.27, "B+", SeverityCritical, true)

	if ranked[0].Hospital.Name != "Mediclinic City" {
		for _, s := range ranked {
			t.Logf("%-22s score=%.2f distance=%.2fkm", s.Hospital.Name, s.Score, s.DistanceKm)
		}
		t.Fatalf("expected Mediclinic City to win, got %s", ranked[0].Hospital.Name)
	}
	if ranked[0].DistanceKm > 2.5 {
		t.Errorf("winner distance %.2fkm, expected about 2.1km", ranked[0].DistanceKm)
	}
	if ranked[1].Hospital.Name != "Rashid Hospital" {
		t.Errorf("expected Rashid Hospital as runner-up, got %s", ranked[1].Hospital.Name)
	}
}
