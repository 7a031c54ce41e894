// Package geo provides great-circle distance helpers used by the
// allocation scorer and the donor-alert payloads.
package geo

import "math"

// earthRadiusKm is the mean Earth radius used for haversine distances.
const earthRadiusKm = 6371.0

// Distance returns the haversine great-circle distance in kilometers
// between two points given in decimal degrees.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// SafeDistance behaves like Distance but maps malformed coordinates
// (NaN or infinite) to +Inf so a bad candidate ranks last instead of
// poisoning a scoring pass.
func SafeDistance(lat1, lon1, lat2, lon2 float64) float64 {
	for _, v := range [...]float64{lat1, lon1, lat2, lon2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return math.Inf(1)
		}
	}
	d := Distance(lat1, lon1, lat2, lon2)
	if math.IsNaN(d) {
		return math.Inf(1)
	}
	return d
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
