package spatial

import (
	"math"

	"github.com/golang/geo/s2"
)

// Constants
const (
	EarthRadiusMeters = 6371000.0 // Earth's mean radius in meters
)

// HaversineDistance calculates the great-circle distance between two points in meters
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// GeodeticToLocal projects lat/lon onto the tangent plane at (refLat, refLon)
// with an equirectangular approximation. x points east, y points north, both
// in meters. Good to well under a meter over a building footprint.
func GeodeticToLocal(refLat, refLon, lat, lon float64) (x, y float64) {
	ref := s2.LatLngFromDegrees(refLat, refLon)
	p := s2.LatLngFromDegrees(lat, lon)

	dLon := (p.Lng - ref.Lng).Radians()
	// wrap across the antimeridian
	if dLon > math.Pi {
		dLon -= 2 * math.Pi
	} else if dLon < -math.Pi {
		dLon += 2 * math.Pi
	}
	meanLat := (p.Lat.Radians() + ref.Lat.Radians()) / 2

	x = dLon * math.Cos(meanLat) * EarthRadiusMeters
	y = (p.Lat - ref.Lat).Radians() * EarthRadiusMeters
	return x, y
}

// LocalToGeodetic is the inverse of GeodeticToLocal.
func LocalToGeodetic(refLat, refLon, x, y float64) (lat, lon float64) {
	ref := s2.LatLngFromDegrees(refLat, refLon)
	latRad := ref.Lat.Radians() + y/EarthRadiusMeters
	meanLat := (latRad + ref.Lat.Radians()) / 2
	lonRad := ref.Lng.Radians() + x/(EarthRadiusMeters*math.Cos(meanLat))

	ll := s2.LatLngFromDegrees(latRad*180/math.Pi, lonRad*180/math.Pi).Normalized()
	return ll.Lat.Degrees(), ll.Lng.Degrees()
}
