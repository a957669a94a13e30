package playback

import (
	"time"

	"github.com/couchcryptid/storm-track-playback/internal/domain"
)

// State is the externally visible playback mode.
type State int

const (
	Idle     State = iota // no storm loaded
	Playing               // step timer active
	Paused                // timer stopped, position held
	Selected              // focus mode; always paused
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Selected:
		return "selected"
	default:
		return "idle"
	}
}

// MarshalText encodes the state by name in JSON output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// EventType names a playback lifecycle event.
type EventType string

const (
	EventStormStarted     EventType = "storm_started"
	EventStormCompleted   EventType = "storm_completed"
	EventPointRevealed    EventType = "point_revealed"
	EventSelectionChanged EventType = "selection_changed"
	EventPaused           EventType = "playback_paused"
	EventResumed          EventType = "playback_resumed"
)

// Event describes a transition. Listeners receive events after the engine
// lock is released, so they may call back into the engine.
type Event struct {
	Type       EventType `json:"type"`
	StormID    string    `json:"storm_id"`
	StormName  string    `json:"storm_name"`
	Year       string    `json:"year"`
	StormIndex int       `json:"storm_index"`
	PointIndex int       `json:"point_index"`
	Selected   bool      `json:"selected,omitempty"`
	At         time.Time `json:"at"`
}

// Listener receives playback events.
type Listener func(Event)

// Trail is the drawn track of one storm.
type Trail struct {
	StormID   string           `json:"storm_id"`
	StormName string           `json:"storm_name"`
	Segments  []domain.Segment `json:"segments"`
	// Coords are the revealed source coordinates, one more than Segments
	// once two points are shown.
	Coords []domain.LatLon `json:"coords"`
}

// Marker is the renderer-facing storm marker.
type Marker struct {
	domain.MarkerPose
	Rotation float64 `json:"rotation"`
	Visible  bool    `json:"visible"`
	Scale    float64 `json:"scale"`
}

// View is a read-only snapshot for the renderer. Poll it after every event.
type View struct {
	State      State   `json:"state"`
	StormID    string  `json:"storm_id,omitempty"`
	StormName  string  `json:"storm_name,omitempty"`
	Year       string  `json:"year,omitempty"`
	StormIndex int     `json:"storm_index"`
	StormCount int     `json:"storm_count"`
	PointIndex int     `json:"point_index"`
	PointCount int     `json:"point_count"`
	Revealed   int     `json:"revealed"`
	Speed      float64 `json:"speed"`
	KeepTrails bool    `json:"keep_trails"`
	Marker     Marker  `json:"marker"`
	Trail      Trail   `json:"trail"`
	Retained   []Trail `json:"retained"`
}
