package places

import (
	"math"

	"github.com/golang/geo/s2"
)

// earthRadiusKm is the mean Earth radius.
const earthRadiusKm = 6371.0088

// ValidCoordinates reports whether lat/lon are finite and within WGS84 bounds.
func ValidCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Nearest returns the curated city closest to lat/lon and its great-circle distance in km.
// Ties keep the earlier curated entry.
func Nearest(lat, lon float64) (Place, float64, bool) {
	if !ValidCoordinates(lat, lon) {
		return Place{}, 0, false
	}

	query := s2.LatLngFromDegrees(lat, lon)

	best := -1
	var bestDist float64
	for i, c := range curated {
		d := query.Distance(s2.LatLngFromDegrees(c.Lat, c.Lon)).Radians()
		if best < 0 || d < bestDist {
			best = i
			bestDist = d
		}
	}

	return curated[best], bestDist * earthRadiusKm, true
}
