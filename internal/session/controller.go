// Package session is the command surface over one playback engine: year
// requests, speed and trail settings, play/pause, picking, and read-only
// storm summaries for display.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/couchcryptid/storm-track-playback/internal/domain"
	"github.com/couchcryptid/storm-track-playback/internal/observability"
	"github.com/couchcryptid/storm-track-playback/internal/playback"
)

// Dataset season bounds accepted by RequestYear.
const (
	MinYear = 1851
	MaxYear = 2024
)

// Supported speed multipliers.
const (
	Speed1x = 1.0
	Speed2x = 2.0
)

// ErrNotLoaded is returned by commands issued before the first dataset load.
var ErrNotLoaded = errors.New("storm data not loaded yet")

// StormSource provides year-filtered storm lists.
type StormSource interface {
	Load(ctx context.Context, filter domain.YearFilter) ([]domain.StormRecord, error)
	Years(ctx context.Context) ([]string, error)
}

// Controller translates user commands into engine calls.
type Controller struct {
	engine      *playback.Engine
	source      StormSource
	defaultYear string
	logger      *slog.Logger
	metrics     *observability.Metrics

	loadMu sync.Mutex // serializes RequestYear

	mu      sync.Mutex
	loaded  bool
	year    domain.YearFilter
	message string
}

// NewController creates a Controller. defaultYear is the filter used by Init.
func NewController(engine *playback.Engine, source StormSource, defaultYear string, logger *slog.Logger, metrics *observability.Metrics) *Controller {
	return &Controller{
		engine:      engine,
		source:      source,
		defaultYear: defaultYear,
		logger:      logger,
		metrics:     metrics,
	}
}

// Init performs the initial load. Only an unreadable dataset is fatal; a
// default year with no storms leaves the engine idle and returns nil.
func (c *Controller) Init(ctx context.Context) error {
	err := c.RequestYear(ctx, c.defaultYear)
	if errors.Is(err, domain.ErrDatasetUnavailable) {
		return err
	}
	if err != nil {
		c.logger.Warn("initial load found nothing to play", "year", c.defaultYear, "error", err)
	}
	return nil
}

// RequestYear loads the storms of one season ("all" for every season) and
// starts playback. The year is validated before the dataset is touched; an
// invalid year returns a *domain.ValidationError and leaves playback as it
// was. A season with no storms returns domain.ErrNoData and idles the engine.
func (c *Controller) RequestYear(ctx context.Context, year string) error {
	filter, err := ParseYear(year)
	if err != nil {
		c.metrics.DatasetLoads.WithLabelValues("invalid").Inc()
		c.setMessage(fmt.Sprintf("Please enter a year between %d and %d.", MinYear, MaxYear))
		return err
	}

	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	storms, err := c.source.Load(ctx, filter)
	switch {
	case errors.Is(err, domain.ErrNoData):
		c.metrics.DatasetLoads.WithLabelValues("no_data").Inc()
		_ = c.engine.Load(nil)
		c.markLoaded(filter, fmt.Sprintf("No hurricanes found for %s.", describe(filter)))
		return err
	case err != nil:
		c.metrics.DatasetLoads.WithLabelValues("unavailable").Inc()
		c.setMessage("Storm data could not be loaded.")
		c.logger.Error("dataset load failed", "year", filter, "error", err)
		return err
	}

	if err := c.engine.Load(storms); err != nil {
		c.metrics.DatasetLoads.WithLabelValues("no_data").Inc()
		c.markLoaded(filter, fmt.Sprintf("No hurricanes found for %s.", describe(filter)))
		return err
	}

	c.metrics.DatasetLoads.WithLabelValues("success").Inc()
	c.markLoaded(filter, fmt.Sprintf("Playing %d storms from %s.", len(storms), describe(filter)))
	return nil
}

// ParseYear validates a user-entered season.
func ParseYear(s string) (domain.YearFilter, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, string(domain.AllYears)) {
		return domain.AllYears, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return "", &domain.ValidationError{Field: "year", Value: s, Reason: "not a number"}
	}
	if n < MinYear || n > MaxYear {
		return "", &domain.ValidationError{
			Field:  "year",
			Value:  s,
			Reason: fmt.Sprintf("must be between %d and %d", MinYear, MaxYear),
		}
	}
	return domain.YearFilter(strconv.Itoa(n)), nil
}

// SetSpeed accepts Speed1x or Speed2x. The setting survives loads and may
// be changed before the first one.
func (c *Controller) SetSpeed(multiplier float64) error {
	if multiplier != Speed1x && multiplier != Speed2x {
		return &domain.ValidationError{
			Field:  "speed",
			Value:  strconv.FormatFloat(multiplier, 'g', -1, 64),
			Reason: "must be 1 or 2",
		}
	}
	return c.engine.SetSpeed(multiplier)
}

// SetKeepTrails sets whether finished trails stay on screen.
func (c *Controller) SetKeepTrails(keep bool) {
	c.engine.SetKeepTrails(keep)
}

// TogglePlayPause pauses a playing engine and resumes a paused or focused
// one. Resuming from focus mode clears the focus. It returns the new state.
func (c *Controller) TogglePlayPause() (playback.State, error) {
	if !c.isLoaded() {
		return playback.Idle, ErrNotLoaded
	}
	switch c.engine.State() {
	case playback.Playing:
		c.engine.Pause()
	case playback.Paused, playback.Selected:
		c.engine.Resume()
	default:
		return playback.Idle, playback.ErrNoStorms
	}
	return c.engine.State(), nil
}

// OnMarkerPicked toggles focus on the current storm and reports whether it
// is now selected.
func (c *Controller) OnMarkerPicked() (bool, error) {
	if !c.isLoaded() {
		return false, ErrNotLoaded
	}
	return c.engine.ToggleSelection()
}

// Facts summarizes the active storm.
func (c *Controller) Facts() (StormFacts, error) {
	if !c.isLoaded() {
		return StormFacts{}, ErrNotLoaded
	}
	storm, ok := c.engine.CurrentStorm()
	if !ok {
		return StormFacts{}, playback.ErrNoStorms
	}
	return FactsFor(storm), nil
}

// Years lists the seasons in the dataset.
func (c *Controller) Years(ctx context.Context) ([]string, error) {
	return c.source.Years(ctx)
}

// View is the engine's renderer snapshot.
func (c *Controller) View() playback.View {
	return c.engine.View()
}

// Year is the filter of the last completed load.
func (c *Controller) Year() domain.YearFilter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.year
}

// Message is the last user-visible status message.
func (c *Controller) Message() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.message
}

// CheckReadiness reports ready once a dataset load has completed.
func (c *Controller) CheckReadiness(_ context.Context) error {
	if !c.isLoaded() {
		return ErrNotLoaded
	}
	return nil
}

func (c *Controller) isLoaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

func (c *Controller) markLoaded(filter domain.YearFilter, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = true
	c.year = filter
	c.message = msg
}

func (c *Controller) setMessage(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.message = msg
}

func describe(filter domain.YearFilter) string {
	if filter == domain.AllYears {
		return "all years"
	}
	return string(filter)
}
