package geo

import "math"

// EarthRadiusM is the WGS84 equatorial radius in meters.
const EarthRadiusM = 6378137.0

// Point represents a geographic coordinate.
type Point struct {
	Lat float64
	Lon float64
}

// Distance calculates the Haversine distance between two points in meters.
func Distance(p1, p2 Point) float64 {
	dLat := (p2.Lat - p1.Lat) * (math.Pi / 180.0)
	dLon := (p2.Lon - p1.Lon) * (math.Pi / 180.0)
	lat1 := p1.Lat * (math.Pi / 180.0)
	lat2 := p2.Lat * (math.Pi / 180.0)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1)*math.Cos(lat2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusM * c
}

// DestinationPoint calculates the destination point from a start point, given distance (in meters) and bearing (in degrees).
func DestinationPoint(start Point, distMeters, bearing float64) Point {
	lat1 := start.Lat * (math.Pi / 180.0)
	lon1 := start.Lon * (math.Pi / 180.0)
	brng := bearing * (math.Pi / 180.0)

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(distMeters/EarthRadiusM) +
		math.Cos(lat1)*math.Sin(distMeters/EarthRadiusM)*math.Cos(brng))
	lon2 := lon1 + math.Atan2(math.Sin(brng)*math.Sin(distMeters/EarthRadiusM)*math.Cos(lat1),
		math.Cos(distMeters/EarthRadiusM)-math.Sin(lat1)*math.Sin(lat2))

	return Point{
		Lat: lat2 * (180.0 / math.Pi),
		Lon: lon2 * (180.0 / math.Pi),
	}
}

// Bearing calculates the initial bearing (forward azimuth) from p1 to p2 in degrees.
func Bearing(p1, p2 Point) float64 {
	lat1 := p1.Lat * (math.Pi / 180.0)
	lat2 := p2.Lat * (math.Pi / 180.0)
	dLon := (p2.Lon - p1.Lon) * (math.Pi / 180.0)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) -
		math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	brng := math.Atan2(y, x)

	return math.Mod(brng*(180.0/math.Pi)+360.0, 360.0)
}

// NormalizeAngle normalizes an angle difference to the range [-180, 180].
func NormalizeAngle(angleDeg float64) float64 {
	for angleDeg > 180 {
		angleDeg -= 360
	}
	for angleDeg < -180 {
		angleDeg += 360
	}
	return angleDeg
}

// LocalXY projects p into a local equirectangular plane centered on origin.
// The returned x/y are meters east/north of the origin. Good enough at city
// scale, not for antipodal spans.
func LocalXY(p, origin Point) (x, y float64) {
	cosLat := math.Cos(origin.Lat * (math.Pi / 180.0))
	x = (p.Lon - origin.Lon) * (math.Pi / 180.0) * EarthRadiusM * cosLat
	y = (p.Lat - origin.Lat) * (math.Pi / 180.0) * EarthRadiusM
	return x, y
}

// FromLocalXY is the inverse of LocalXY: it maps local meters east/north of
// origin back to a coordinate.
func FromLocalXY(x, y float64, origin Point) Point {
	cosLat := math.Cos(origin.Lat * (math.Pi / 180.0))
	if cosLat == 0 {
		cosLat = 1e-12
	}
	return Point{
		Lat: origin.Lat + y/EarthRadiusM*(180.0/math.Pi),
		Lon: origin.Lon + x/(EarthRadiusM*cosLat)*(180.0/math.Pi),
	}
}
