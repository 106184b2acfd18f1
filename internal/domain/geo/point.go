package geo

import (
	"math"

	"ride-share/internal/apperr"
)

// EarthRadiusMeters is the mean earth radius used for spherical distances.
const EarthRadiusMeters = 6371000.0

// Point is a WGS84 latitude/longitude pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

var (
	ErrInvalidLatitude  = apperr.Validation("latitude must be between -90 and 90")
	ErrInvalidLongitude = apperr.Validation("longitude must be between -180 and 180")
)

// NewPoint validates lat/lng ranges and returns a Point.
func NewPoint(lat, lng float64) (Point, error) {
	p := Point{Lat: lat, Lng: lng}
	if err := p.Validate(); err != nil {
		return Point{}, err
	}
	return p, nil
}

// Validate checks coordinate ranges. NaN is rejected as well.
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return ErrInvalidLatitude
	}
	if math.IsNaN(p.Lng) || p.Lng < -180 || p.Lng > 180 {
		return ErrInvalidLongitude
	}
	return nil
}

// DistanceMeters is the great-circle (haversine) distance between two points.
func DistanceMeters(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return EarthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
