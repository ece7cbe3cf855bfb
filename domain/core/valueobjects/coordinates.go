package valueobjects

import (
	"fmt"
	"math"
)

// EarthRadiusMiles is the mean Earth radius used for distances
const EarthRadiusMiles = 3958.8

// Coordinates is a point on the map
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewCoordinates validates and creates a point
func NewCoordinates(lat, lng float64) (Coordinates, error) {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return Coordinates{}, fmt.Errorf("latitude %v out of range [-90, 90]", lat)
	}
	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return Coordinates{}, fmt.Errorf("longitude %v out of range [-180, 180]", lng)
	}
	return Coordinates{Latitude: lat, Longitude: lng}, nil
}

// DistanceMiles returns the great-circle (haversine) distance to other
func (c Coordinates) DistanceMiles(other Coordinates) float64 {
	lat1 := toRadians(c.Latitude)
	lat2 := toRadians(other.Latitude)
	dLat := toRadians(other.Latitude - c.Latitude)
	dLng := toRadians(other.Longitude - c.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return EarthRadiusMiles * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
