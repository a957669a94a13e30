package domain

import "math"

const (
	// GlobeRadius is the radius of the sphere track points are projected onto.
	GlobeRadius = 5.0

	// MarkerRadius sits just above the globe surface so the marker is not
	// clipped by it.
	MarkerRadius = 5.1
)

// YearFilter restricts a parse to one season. AllYears disables filtering.
type YearFilter string

// AllYears is the sentinel filter that keeps every storm.
const AllYears YearFilter = "all"

// Vec3 is a position or direction in globe space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Len returns the Euclidean length of v.
func (v Vec3) Len() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Scale multiplies every component by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Normalize returns the unit vector in the direction of v, or the zero
// vector when v has no length.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// LatLon is a WGS-84 coordinate in decimal degrees.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// LatLonToVec3 projects a coordinate onto a sphere of the given radius.
// Longitude is mirrored (x = r·cos(lat)·cos(-lon), z = r·cos(lat)·sin(-lon)).
func LatLonToVec3(lat, lon, radius float64) Vec3 {
	latRad := lat * math.Pi / 180
	lonRad := -lon * math.Pi / 180
	return Vec3{
		X: radius * math.Cos(latRad) * math.Cos(lonRad),
		Y: radius * math.Sin(latRad),
		Z: radius * math.Cos(latRad) * math.Sin(lonRad),
	}
}

// StormRecord is one tracked system. Records are immutable once parsed;
// callers must not modify the slices.
//
// Points, Coords, WindSpeeds, and Categories always have the same length.
// Pressures holds only the fixes that reported a pressure, so it may be
// shorter.
type StormRecord struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	BasinCode  string     `json:"basin_code"`
	Year       string     `json:"year"`
	Points     []Vec3     `json:"points"`
	Coords     []LatLon   `json:"coords"`
	WindSpeeds []float64  `json:"wind_speeds"`
	Pressures  []float64  `json:"pressures"`
	Categories []Category `json:"categories"`
}

// StormID builds the unique key for a storm. Names repeat across seasons,
// so the basin code is always part of the key.
func StormID(name, basinCode string) string {
	return name + "_" + basinCode
}

// Len returns the number of track points.
func (s StormRecord) Len() int {
	return len(s.Points)
}

// FilterByYear returns the storms whose season matches year, preserving order.
// AllYears returns the input unchanged.
func FilterByYear(storms []StormRecord, year YearFilter) []StormRecord {
	if year == AllYears {
		return storms
	}
	out := make([]StormRecord, 0, len(storms))
	for _, s := range storms {
		if s.Year == string(year) {
			out = append(out, s)
		}
	}
	return out
}
