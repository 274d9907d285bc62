// Package geo provides great-circle distance calculations for station filtering.
package geo

import "math"

// earthRadiusKM is the mean Earth radius used by the haversine formula.
const earthRadiusKM = 6371.0

// KMPerMile converts statute miles to kilometers.
const KMPerMile = 1.609344

// DistanceKM returns the great-circle distance in kilometers between two
// points given in decimal degrees, using the haversine formula.
func DistanceKM(lat1, lon1, lat2, lon2 float64) float64 {
	rlat1 := lat1 * math.Pi / 180
	rlon1 := lon1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	rlon2 := lon2 * math.Pi / 180

	dlat := rlat2 - rlat1
	dlon := rlon2 - rlon1

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Asin(math.Sqrt(a))

	return earthRadiusKM * c
}

// MilesFromKM converts kilometers to statute miles.
func MilesFromKM(km float64) float64 {
	return km / KMPerMile
}

// KMFromMiles converts statute miles to kilometers.
func KMFromMiles(miles float64) float64 {
	return miles * KMPerMile
}

// WithinRadius reports whether a distance in kilometers is within the
// configured radius in miles.
func WithinRadius(km, radiusMiles float64) bool {
	return km <= KMFromMiles(radiusMiles)
}
