package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoData means a dataset parsed cleanly but held no playable storms
	// for the requested filter.
	ErrNoData = errors.New("no hurricanes found")

	// ErrEmptyTrack marks a storm with zero points reached during playback.
	// It is logged and recovered from by skipping the storm.
	ErrEmptyTrack = errors.New("storm track has no points")

	// ErrDatasetUnavailable means the dataset itself could not be read,
	// as opposed to a year that happens to have no storms.
	ErrDatasetUnavailable = errors.New("storm dataset unavailable")
)

// ParseError reports a parse that produced no playable storms.
type ParseError struct {
	Filter YearFilter
	Stats  ParseStats
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse tracks for %s: %d rows, %d headers, %d points: %v",
		e.Filter, e.Stats.Rows, e.Stats.Headers, e.Stats.Points, ErrNoData)
}

// Unwrap lets errors.Is(err, ErrNoData) match.
func (e *ParseError) Unwrap() error { return ErrNoData }

// ValidationError is a rejected user input. It never changes playback state.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}
