package patient

import (
	"math"
	"math/rand"
	"strconv"
)

// DescriptorLength is the required dimensionality of a face
// descriptor. Anything else is rejected or skipped.
const DescriptorLength = 128

// descriptorSeedFactor spreads numeric record ids across the seed
// space so neighboring ids produce unrelated vectors.
const descriptorSeedFactor = 12345

// GenerateDescriptor produces a synthetic descriptor deterministically
// derived from the patient id: the same id always yields the same
// vector. It stands in for a photo-derived embedding in demo data and
// does not represent a real biometric. Non-numeric ids seed at zero.
func GenerateDescriptor(patientID string) []float64 {
	seed, err := strconv.ParseInt(patientID, 10, 64)
	if err != nil {
		seed = 0
	}

	rng := rand.New(rand.NewSource(seed * descriptorSeedFactor))
	vec := make([]float64, DescriptorLength)
	for i := range vec {
		vec[i] = rng.NormFloat64()
	}
	return vec
}

// ValidDescriptor reports whether d has exactly the required length.
func ValidDescriptor(d []float64) bool {
	return len(d) == DescriptorLength
}

// DescriptorDistance returns the Euclidean (L2) distance between two
// descriptors. Mismatched or malformed inputs map to +Inf so the
// candidate ranks last instead of failing the search.
func DescriptorDistance(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}

	dist := math.Sqrt(sum)
	if math.IsNaN(dist) {
		return math.Inf(1)
	}
	return dist
}
