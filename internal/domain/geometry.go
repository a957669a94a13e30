package domain

// Segment is one colored line between consecutive revealed points.
type Segment struct {
	From     Vec3     `json:"from"`
	To       Vec3     `json:"to"`
	Category Category `json:"category"`
	Color    Color    `json:"color"`
}

// BuildSegments produces one segment per consecutive point pair. Segment i
// takes the category of windSpeeds[i], the earlier point, rather than an
// interpolation. Fewer than two points yield no segments. A pair whose
// starting point has no wind sample gets the base track color.
func BuildSegments(points []Vec3, windSpeeds []float64) []Segment {
	if len(points) < 2 {
		return nil
	}
	segments := make([]Segment, 0, len(points)-1)
	for i := 0; i < len(points)-1; i++ {
		cat := NoCategory
		if i < len(windSpeeds) {
			cat = ClassifyIntensity(windSpeeds[i])
		}
		segments = append(segments, Segment{
			From:     points[i],
			To:       points[i+1],
			Category: cat,
			Color:    CategoryColor(cat),
		})
	}
	return segments
}

// MarkerPose places the storm marker for a track point.
type MarkerPose struct {
	Position Vec3 `json:"position"`
	// Up is the radial unit vector; the marker faces the globe center.
	Up Vec3 `json:"up"`
}

// PoseAt lifts a track point to MarkerRadius and orients it radially.
func PoseAt(p Vec3) MarkerPose {
	up := p.Normalize()
	return MarkerPose{
		Position: up.Scale(MarkerRadius),
		Up:       up,
	}
}
