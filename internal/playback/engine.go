package playback

import (
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/couchcryptid/storm-track-playback/internal/domain"
	"github.com/couchcryptid/storm-track-playback/internal/observability"
	"github.com/jonboulle/clockwork"
)

const (
	// DefaultBaseInterval is the delay between points at 1x speed.
	DefaultBaseInterval = 400 * time.Millisecond

	// RotationStep is how far the marker spins per step, in radians.
	RotationStep = 0.3

	normalScale   = 1.0
	selectedScale = 2.5
)

var (
	// ErrNoStorms is returned by operations that need a loaded storm list.
	ErrNoStorms = errors.New("no storms loaded")

	// ErrInvalidSpeed rejects a non-positive or non-finite multiplier.
	ErrInvalidSpeed = errors.New("speed multiplier must be positive")
)

// Options configures an Engine. Zero values get defaults.
type Options struct {
	BaseInterval time.Duration
	Clock        clockwork.Clock
	Logger       *slog.Logger
	Metrics      *observability.Metrics
}

// Engine is the playback state machine. It owns the storm list, the
// position within the active storm, the drawn trail, and the single step
// timer. All methods are safe for concurrent use.
//
// Timer discipline: every path that schedules a step first cancels the
// previous handle and bumps gen. A callback whose token no longer matches
// gen was superseded and does nothing, so at most one step is ever pending.
type Engine struct {
	clock        clockwork.Clock
	logger       *slog.Logger
	metrics      *observability.Metrics
	baseInterval time.Duration

	mu         sync.Mutex
	storms     []domain.StormRecord
	active     bool
	stormIndex int
	pointIndex int
	revealed   int
	segments   []domain.Segment
	retained   []Trail
	playing    bool
	selected   bool
	speed      float64
	keepTrails bool
	rotation   float64

	timer clockwork.Timer
	gen   uint64

	listeners []Listener
	pending   []Event
}

// New creates an idle Engine.
func New(opts Options) *Engine {
	if opts.BaseInterval <= 0 {
		opts.BaseInterval = DefaultBaseInterval
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NewMetricsForTesting()
	}
	return &Engine{
		clock:        opts.Clock,
		logger:       opts.Logger,
		metrics:      opts.Metrics,
		baseInterval: opts.BaseInterval,
		speed:        1,
	}
}

// Subscribe registers a listener for playback events.
func (e *Engine) Subscribe(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, l)
}

// Load replaces the storm list and starts playing the first storm. Retained
// trails are always cleared, whatever the keep-trails setting. An empty list
// leaves the engine idle and returns domain.ErrNoData.
func (e *Engine) Load(storms []domain.StormRecord) error {
	e.mu.Lock()
	defer e.unlock()

	e.cancelLocked()
	e.storms = append([]domain.StormRecord(nil), storms...)
	e.stormIndex = 0
	e.retained = nil
	e.segments = nil
	e.selected = false

	if len(e.storms) == 0 {
		e.idleLocked()
		return domain.ErrNoData
	}

	e.active = true
	e.playing = true
	e.startStormLocked()
	if !e.active {
		return domain.ErrNoData
	}
	return nil
}

// AdvanceStorm moves to the next storm, wrapping to the first after the
// last. The finished trail is kept when keep-trails is on.
func (e *Engine) AdvanceStorm() error {
	e.mu.Lock()
	defer e.unlock()

	if !e.active {
		e.logger.Warn("cannot advance storm", "error", ErrNoStorms)
		return ErrNoStorms
	}
	e.cancelLocked()
	e.advanceLocked()
	return nil
}

// Pause stops the step timer and holds the current position. It reports
// whether the engine was playing.
func (e *Engine) Pause() bool {
	e.mu.Lock()
	defer e.unlock()

	if !e.playing {
		return false
	}
	e.cancelLocked()
	e.playing = false
	e.emitLocked(EventPaused)
	return true
}

// Resume continues playback and leaves focus mode. It is a no-op when
// already playing or when the active storm has no points.
func (e *Engine) Resume() bool {
	e.mu.Lock()
	defer e.unlock()

	return e.resumeLocked()
}

// ToggleSelection flips focus mode and returns the new selection flag.
// Entering focus pauses playback.
//
// Leaving focus always resumes playback, even if the storm was paused before
// it was selected. Callers that want to stay paused must call Pause
// afterwards.
func (e *Engine) ToggleSelection() (bool, error) {
	e.mu.Lock()
	defer e.unlock()

	if !e.active {
		return false, ErrNoStorms
	}

	if !e.selected {
		e.cancelLocked()
		e.playing = false
		e.selected = true
		e.emitLocked(EventSelectionChanged)
		return true, nil
	}

	e.selected = false
	e.emitLocked(EventSelectionChanged)
	e.resumeLocked()
	return false, nil
}

// ResetCurrentStorm replays the active storm from its first point without
// changing the storm index. Focus mode is cleared; play/pause is kept.
func (e *Engine) ResetCurrentStorm() {
	e.mu.Lock()
	defer e.unlock()

	e.resetCurrentLocked()
}

func (e *Engine) resetCurrentLocked() {
	if !e.active {
		return
	}
	e.cancelLocked()
	wasSelected := e.selected
	e.resetPositionLocked()
	if wasSelected {
		e.emitLocked(EventSelectionChanged)
	}
	if e.playing {
		e.stepLocked()
	}
}

// SetSpeed changes the step rate. The active storm restarts from its first
// point so the new rate applies from a clean slate.
func (e *Engine) SetSpeed(multiplier float64) error {
	if multiplier <= 0 || math.IsNaN(multiplier) || math.IsInf(multiplier, 0) {
		return ErrInvalidSpeed
	}

	e.mu.Lock()
	defer e.unlock()

	e.speed = multiplier
	e.resetCurrentLocked()
	return nil
}

// SetKeepTrails sets whether finished trails stay visible after advancing.
func (e *Engine) SetKeepTrails(keep bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.keepTrails = keep
}

// Stop cancels any pending step and pauses. Used on shutdown.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.unlock()
	e.cancelLocked()
	e.playing = false
}

// State returns the current playback mode.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

// CurrentStorm returns the active storm, if any.
func (e *Engine) CurrentStorm() (domain.StormRecord, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.active {
		return domain.StormRecord{}, false
	}
	return e.storms[e.stormIndex], true
}

// View snapshots everything the renderer needs.
func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()

	v := View{
		State:      e.stateLocked(),
		StormCount: len(e.storms),
		Speed:      e.speed,
		KeepTrails: e.keepTrails,
		Retained:   append(make([]Trail, 0, len(e.retained)), e.retained...),
		Marker:     Marker{Scale: normalScale},
	}
	if !e.active {
		return v
	}

	storm := e.storms[e.stormIndex]
	v.StormID = storm.ID
	v.StormName = storm.Name
	v.Year = storm.Year
	v.StormIndex = e.stormIndex
	v.PointIndex = e.pointIndex
	v.PointCount = storm.Len()
	v.Revealed = e.revealed
	v.Trail = e.trailLocked()

	if storm.Len() > 0 {
		at := max(e.pointIndex-1, 0)
		v.Marker.MarkerPose = domain.PoseAt(storm.Points[at])
		v.Marker.Rotation = e.rotation
		v.Marker.Visible = true
		if e.selected {
			v.Marker.Scale = selectedScale
		}
	}
	return v
}

// --- internals; callers hold e.mu ---

func (e *Engine) stateLocked() State {
	switch {
	case !e.active:
		return Idle
	case e.selected:
		return Selected
	case e.playing:
		return Playing
	default:
		return Paused
	}
}

func (e *Engine) current() domain.StormRecord {
	return e.storms[e.stormIndex]
}

// stepLocked shows the point at pointIndex, grows the trail when that
// point is new, and schedules the next step. Past the last point it
// completes the storm and advances.
func (e *Engine) stepLocked() {
	if !e.playing || !e.active {
		return
	}

	storm := e.current()
	if storm.Len() == 0 {
		e.logger.Warn("skipping storm", "storm_id", storm.ID, "error", domain.ErrEmptyTrack)
		e.metrics.EmptyTracks.Inc()
		e.advanceLocked()
		return
	}

	if e.pointIndex < storm.Len() {
		if e.pointIndex >= e.revealed {
			e.revealed = e.pointIndex + 1
			e.segments = domain.BuildSegments(storm.Points[:e.revealed], prefix(storm.WindSpeeds, e.revealed))
			e.emitLocked(EventPointRevealed)
		}
		e.rotation = math.Mod(e.rotation+RotationStep, 2*math.Pi)
		e.pointIndex++
		e.metrics.StepsTotal.Inc()
		e.scheduleLocked()
		return
	}

	e.logger.Debug("storm track complete", "storm_id", storm.ID, "points", storm.Len())
	e.metrics.StormsCompleted.Inc()
	e.emitLocked(EventStormCompleted)
	e.advanceLocked()
}

// advanceLocked files away the current trail per the keep policy and moves
// to the next storm with points, wrapping modulo the list length. A full
// cycle of empty storms leaves the engine idle.
func (e *Engine) advanceLocked() {
	if len(e.storms) == 0 {
		e.logger.Warn("cannot advance storm", "error", ErrNoStorms)
		return
	}

	if e.keepTrails {
		if len(e.segments) > 0 {
			e.retainLocked(e.trailLocked())
		}
	} else {
		e.retained = nil
	}

	for range e.storms {
		e.stormIndex = (e.stormIndex + 1) % len(e.storms)
		if e.current().Len() > 0 {
			e.startStormLocked()
			return
		}
		e.logger.Warn("skipping storm", "storm_id", e.current().ID, "error", domain.ErrEmptyTrack)
		e.metrics.EmptyTracks.Inc()
	}

	e.logger.Warn("no storm in the list has track points", "storms", len(e.storms))
	e.idleLocked()
}

// startStormLocked shows the active storm from its first point and, when
// playing, takes the first step immediately.
func (e *Engine) startStormLocked() {
	e.resetPositionLocked()
	storm := e.current()
	e.logger.Info("storm started",
		"storm_id", storm.ID,
		"year", storm.Year,
		"points", storm.Len(),
		"index", e.stormIndex,
		"of", len(e.storms),
	)
	e.metrics.StormsStarted.Inc()
	e.emitLocked(EventStormStarted)
	e.stepLocked()
}

// retainLocked appends t to the retained trails. A storm keeps at most one
// retained trail: replaying it replaces the earlier copy, so the list stays
// bounded by the storm count while the engine cycles.
func (e *Engine) retainLocked(t Trail) {
	for i, r := range e.retained {
		if r.StormID == t.StormID {
			e.retained = append(e.retained[:i], e.retained[i+1:]...)
			break
		}
	}
	e.retained = append(e.retained, t)
}

func (e *Engine) resetPositionLocked() {
	e.pointIndex = 0
	e.revealed = min(1, e.current().Len())
	e.segments = nil
	e.selected = false
	e.rotation = 0
}

func (e *Engine) resumeLocked() bool {
	if !e.active || e.playing || e.current().Len() == 0 {
		return false
	}
	e.playing = true
	e.selected = false
	e.emitLocked(EventResumed)
	e.stepLocked()
	return true
}

func (e *Engine) idleLocked() {
	e.cancelLocked()
	e.active = false
	e.playing = false
	e.selected = false
	e.stormIndex = 0
	e.pointIndex = 0
	e.revealed = 0
	e.segments = nil
}

func (e *Engine) trailLocked() Trail {
	storm := e.current()
	return Trail{
		StormID:   storm.ID,
		StormName: storm.Name,
		Segments:  e.segments,
		Coords:    prefix(storm.Coords, e.revealed),
	}
}

func prefix[T any](s []T, n int) []T {
	return s[:min(n, len(s))]
}

// delay is floor(baseInterval / speed), in whole milliseconds.
func (e *Engine) delay() time.Duration {
	ms := math.Floor(float64(e.baseInterval.Milliseconds()) / e.speed)
	return time.Duration(ms) * time.Millisecond
}

func (e *Engine) scheduleLocked() {
	e.cancelLocked()
	token := e.gen
	e.timer = e.clock.AfterFunc(e.delay(), func() { e.fire(token) })
}

func (e *Engine) cancelLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.gen++
}

func (e *Engine) fire(token uint64) {
	e.mu.Lock()
	defer e.unlock()

	if token != e.gen {
		return
	}
	e.timer = nil
	e.stepLocked()
}

func (e *Engine) emitLocked(t EventType) {
	ev := Event{Type: t, At: e.clock.Now(), Selected: e.selected}
	if e.active && len(e.storms) > 0 {
		storm := e.current()
		ev.StormID = storm.ID
		ev.StormName = storm.Name
		ev.Year = storm.Year
		ev.StormIndex = e.stormIndex
		ev.PointIndex = e.pointIndex
	}
	e.pending = append(e.pending, ev)
}

// unlock releases e.mu and then delivers queued events.
func (e *Engine) unlock() {
	e.metrics.PlaybackState.Set(float64(e.stateLocked()))
	events := e.pending
	e.pending = nil
	listeners := e.listeners
	e.mu.Unlock()

	for _, ev := range events {
		for _, l := range listeners {
			l(ev)
		}
	}
}
