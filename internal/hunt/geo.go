package hunt

import (
	"math"
	"slices"
)

const earthRadiusMeters = 6371e3

// EligibilityRadiusMeters is how close a user must be to claim a badge.
// The nearby highlighting uses the same radius.
const EligibilityRadiusMeters = 50.0

// DistanceMeters returns the haversine great-circle distance between two
// points given in degrees. NaN inputs yield NaN.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// Distance is DistanceMeters for two positions.
func Distance(a, b Position) float64 {
	return DistanceMeters(a.Lat, a.Lon, b.Lat, b.Lon)
}

// withinRadius is the one eligibility test shared by Nearby and TryAward.
// A NaN distance is never within range.
func withinRadius(d float64) bool {
	return d <= EligibilityRadiusMeters
}

// Nearby returns the IDs of the locations within the eligibility radius of
// at, closest first.
func Nearby(at Position, locs []Location) []string {
	type hit struct {
		id string
		d  float64
	}
	var hits []hit
	for _, l := range locs {
		if d := Distance(at, l.Position()); withinRadius(d) {
			hits = append(hits, hit{id: l.ID, d: d})
		}
	}
	slices.SortStableFunc(hits, func(a, b hit) int {
		switch {
		case a.d < b.d:
			return -1
		case a.d > b.d:
			return 1
		}
		return 0
	})

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.id
	}
	return ids
}
