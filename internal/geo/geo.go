// Package geo holds the exact great-circle math used by candidate
// filtering. The SQL bounding-box prefilter is a conservative
// over-approximation; this package is the source of truth.
package geo

import "math"

const earthRadiusKm = 6371.0

// DistanceKm returns the haversine distance between two points in km.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// BoundingBox returns a lat/lon window guaranteed to contain every point
// within radiusKm of the center. Longitude degrees shrink with latitude, so
// the window widens toward the poles; near the poles it degenerates to the
// full longitude range.
func BoundingBox(lat, lon, radiusKm float64) (minLat, maxLat, minLon, maxLon float64) {
	latDelta := degrees(radiusKm / earthRadiusKm)
	minLat, maxLat = lat-latDelta, lat+latDelta

	cos := math.Cos(radians(lat))
	if cos < 1e-6 {
		return minLat, maxLat, -180, 180
	}
	lonDelta := degrees(radiusKm / (earthRadiusKm * cos))
	return minLat, maxLat, lon - lonDelta, lon + lonDelta
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }
