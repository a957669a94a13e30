package http

import (
	"net/http"

	"github.com/couchcryptid/storm-track-playback/internal/playback"
	geojson "github.com/paulmach/go.geojson"
)

// TrailCollection renders retained trails and the active trail as one
// LineString feature per colored segment, in [lon, lat] order.
func TrailCollection(v playback.View) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, t := range v.Retained {
		addTrail(fc, t, false)
	}
	if v.State != playback.Idle {
		addTrail(fc, v.Trail, true)
	}
	return fc
}

func addTrail(fc *geojson.FeatureCollection, t playback.Trail, active bool) {
	for i, seg := range t.Segments {
		if i+1 >= len(t.Coords) {
			return
		}
		from, to := t.Coords[i], t.Coords[i+1]
		f := geojson.NewLineStringFeature([][]float64{
			{from.Lon, from.Lat},
			{to.Lon, to.Lat},
		})
		f.SetProperty("storm_id", t.StormID)
		f.SetProperty("storm_name", t.StormName)
		f.SetProperty("segment", i)
		f.SetProperty("category", int(seg.Category))
		f.SetProperty("color", seg.Color.String())
		f.SetProperty("active", active)
		fc.AddFeature(f)
	}
}

func (s *Server) handleTrailGeoJSON(w http.ResponseWriter, _ *http.Request) {
	data, err := TrailCollection(s.ctrl.View()).MarshalJSON()
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
