// Package geo holds the distance math behind proximity search: a cheap
// axis-aligned bounding box used as a superset pre-filter, and the
// great-circle distance used for the final cut.
package geo

import "math"

const (
	KmPerDegreeLat = 111.0
	EarthRadiusKm  = 6371.0
)

type Point struct {
	Lat float64
	Lon float64
}

// LonRange is an inclusive longitude interval with Min <= Max.
type LonRange struct {
	Min float64
	Max float64
}

type Box struct {
	MinLat float64
	MaxLat float64
	// One range normally, two when the box crosses the antimeridian.
	LonRanges []LonRange
}

// BoxAround returns a box that contains every point within radiusKm of center,
// as measured by DistanceKm. Longitude spans widen with latitude; when the circle
// reaches a pole the box covers all longitudes.
func BoxAround(center Point, radiusKm float64) Box {
	latDelta := radiusKm / KmPerDegreeLat
	box := Box{
		MinLat: math.Max(center.Lat-latDelta, -90),
		MaxLat: math.Min(center.Lat+latDelta, 90),
	}

	cosLat := math.Cos(center.Lat * math.Pi / 180)
	if box.MinLat <= -90 || box.MaxLat >= 90 || cosLat < 1e-9 {
		box.LonRanges = []LonRange{{Min: -180, Max: 180}}
		return box
	}

	// The flat estimate undershoots the circle's widest longitude at high
	// latitude, so take the spherical bound when it is larger.
	lonDelta := radiusKm / (KmPerDegreeLat * cosLat)
	reach := math.Sin(radiusKm/EarthRadiusKm) / cosLat
	if reach >= 1 || radiusKm/EarthRadiusKm >= math.Pi/2 {
		box.LonRanges = []LonRange{{Min: -180, Max: 180}}
		return box
	}
	lonDelta = math.Max(lonDelta, math.Asin(reach)*180/math.Pi)
	if lonDelta >= 180 {
		box.LonRanges = []LonRange{{Min: -180, Max: 180}}
		return box
	}

	minLon := center.Lon - lonDelta
	maxLon := center.Lon + lonDelta
	switch {
	case minLon < -180:
		box.LonRanges = []LonRange{{Min: minLon + 360, Max: 180}, {Min: -180, Max: maxLon}}
	case maxLon > 180:
		box.LonRanges = []LonRange{{Min: minLon, Max: 180}, {Min: -180, Max: maxLon - 360}}
	default:
		box.LonRanges = []LonRange{{Min: minLon, Max: maxLon}}
	}
	return box
}

func (b Box) contains(p Point) bool {
	if p.Lat < b.MinLat || p.Lat > b.MaxLat {
		return false
	}
	for _, r := range b.LonRanges {
		if p.Lon >= r.Min && p.Lon <= r.Max {
			return true
		}
	}
	return false
}

// DistanceKm is the haversine great-circle distance between a and b.
func DistanceKm(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}
