// Package geo holds the pure distance helpers used by proximity features.
package geo

import (
	"math"
	"strconv"
)

// EarthRadiusM is the mean Earth radius used by Haversine.
const EarthRadiusM = 6371000.0

// Haversine returns the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dPhi := radians(lat2 - lat1)
	dLambda := radians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * EarthRadiusM * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// DistanceMeters is Haversine over nullable coordinates. ok is false when any
// coordinate is missing or not finite.
func DistanceMeters(lat1, lon1, lat2, lon2 *float64) (float64, bool) {
	if !valid(lat1) || !valid(lon1) || !valid(lat2) || !valid(lon2) {
		return 0, false
	}
	return Haversine(*lat1, *lon1, *lat2, *lon2), true
}

// PercentBetween maps a distance onto [0,100]: 100 at or inside near, 0 at or beyond far,
// linear in between and rounded to the nearest integer.
func PercentBetween(d, near, far float64) int {
	if math.IsNaN(d) || d >= far {
		return 0
	}
	if d <= near {
		return 100
	}
	pct := int(math.Round(100 * (far - d) / (far - near)))
	return min(max(pct, 0), 100)
}

// BearingDegrees returns the initial compass bearing from point 1 to point 2 in [0,360).
func BearingDegrees(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dLambda := radians(lon2 - lon1)

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)
	return math.Mod(degrees(math.Atan2(y, x))+360, 360)
}

// DistanceText renders a distance for notification copy: "N m away" under a kilometer,
// "X.Y km away" otherwise.
func DistanceText(meters int) string {
	if meters < 1000 {
		return strconv.Itoa(meters) + " m away"
	}
	return strconv.FormatFloat(float64(meters)/1000, 'f', 1, 64) + " km away"
}

func valid(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }
