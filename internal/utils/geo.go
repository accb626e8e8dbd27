package utils

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (p Point) DistanceTo(other Point) float64 {
	return HaversineDistance(p.Lat, p.Lng, other.Lat, other.Lng)
}

// BearingTo returns the initial compass bearing in degrees from this point
// towards another.
func (p Point) BearingTo(other Point) float64 {
	return CalculateBearing(p.Lat, p.Lng, other.Lat, other.Lng)
}

// IsValidCoordinates checks the WGS84 ranges. Out-of-range samples are
// rejected at ingest rather than clamped; a clamped point would silently
// count distance towards a location the device never reported.
func IsValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// CalculateCenter returns the arithmetic midpoint of the given points, used
// to center the dashboard map on the current group.
func CalculateCenter(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}

	var totalLat, totalLng float64
	for _, point := range points {
		totalLat += point.Lat
		totalLng += point.Lng
	}

	return Point{
		Lat: totalLat / float64(len(points)),
		Lng: totalLng / float64(len(points)),
	}
}
