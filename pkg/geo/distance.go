package geo

import (
	"math"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances
const EarthRadiusKm = 6371.0

// HaversineDistanceKm returns the great-circle distance in kilometers between two
// latitude/longitude pairs given in degrees. NaN inputs propagate to the result.
func HaversineDistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLon := degreesToRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(degreesToRadians(lat1))*math.Cos(degreesToRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// DistanceMeters returns the distance between two coordinates rounded to whole meters
func DistanceMeters(from, to Coordinate) int {
	km := HaversineDistanceKm(from.Latitude, from.Longitude, to.Latitude, to.Longitude)
	return int(math.Round(km * 1000))
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
