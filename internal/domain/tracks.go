package domain

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Data row field positions (0-based).
const (
	fieldLat      = 4
	fieldLon      = 5
	fieldWind     = 6
	fieldPressure = 7
)

// ParseStats summarizes a parse pass for logging and metrics.
type ParseStats struct {
	Rows          int // non-blank lines seen
	Headers       int
	Points        int
	Malformed     int // lines that were neither header nor data, or overlong
	Orphaned      int // data rows before the first header
	SkippedCoords int // data rows dropped for an unreadable lat/lon or a non-numeric wind speed
	EmptyStorms   int // headers with no usable data rows
}

// ParseTracks reads a HURDAT2-style dataset and returns the playable storms
// in encounter order, restricted to filter unless it is AllYears.
//
// Malformed rows are counted and skipped; the dataset is noisy by nature.
// Storms with no points are excluded. When nothing playable remains the
// error is a *ParseError wrapping ErrNoData; a failing reader wraps
// ErrDatasetUnavailable.
func ParseTracks(r io.Reader, filter YearFilter) ([]StormRecord, ParseStats, error) {
	var stats ParseStats

	byID := make(map[string]*StormRecord)
	var order []string
	var current *StormRecord

	lines := newLineReader(r)
	for {
		line, tooLong, err := lines.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("%w: read dataset: %w", ErrDatasetUnavailable, err)
		}
		if tooLong {
			stats.Rows++
			stats.Malformed++
			continue
		}

		row := ClassifyRow(line)
		if row.Kind == RowSkip {
			continue
		}
		stats.Rows++

		switch row.Kind {
		case RowHeader:
			stats.Headers++
			current = startStorm(row.Fields, byID, &order)
		case RowData:
			if current == nil {
				stats.Orphaned++
				continue
			}
			if !appendFix(current, row.Fields) {
				stats.SkippedCoords++
				continue
			}
			stats.Points++
		default:
			stats.Malformed++
		}
	}

	storms := make([]StormRecord, 0, len(order))
	for _, id := range order {
		s := byID[id]
		if s.Len() == 0 {
			stats.EmptyStorms++
			continue
		}
		storms = append(storms, *s)
	}

	storms = FilterByYear(storms, filter)
	if len(storms) == 0 {
		return nil, stats, &ParseError{Filter: filter, Stats: stats}
	}
	return storms, stats, nil
}

// maxLineLen bounds a single dataset line. Real rows are under 200 bytes.
const maxLineLen = 64 * 1024

const byteOrderMark = "\ufeff"

// lineReader yields dataset lines without their terminators. A line longer
// than maxLineLen is drained and reported as tooLong instead of failing the
// read. A leading byte-order mark is dropped from the first line.
type lineReader struct {
	br    *bufio.Reader
	first bool
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{br: bufio.NewReader(r), first: true}
}

func (l *lineReader) next() (line string, tooLong bool, err error) {
	var buf []byte
	for {
		chunk, isPrefix, err := l.br.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && (buf != nil || tooLong) {
				break
			}
			return "", false, err
		}
		if !tooLong {
			if len(buf)+len(chunk) > maxLineLen {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !isPrefix {
			break
		}
	}

	line = string(buf)
	if l.first {
		l.first = false
		line = strings.TrimPrefix(line, byteOrderMark)
	}
	return line, tooLong, nil
}

// startStorm registers the storm introduced by a header row. A repeated ID
// starts over with empty arrays but keeps its first position.
func startStorm(fields []string, byID map[string]*StormRecord, order *[]string) *StormRecord {
	basin := fields[0]
	name := fields[1]
	id := StormID(name, basin)

	if _, seen := byID[id]; !seen {
		*order = append(*order, id)
	}
	s := &StormRecord{
		ID:        id,
		Name:      name,
		BasinCode: basin,
		Year:      basin[len(basin)-4:],
	}
	byID[id] = s
	return s
}

// appendFix adds one data row to s. It reports false when the row carries
// no usable position or wind speed, in which case s is unchanged.
func appendFix(s *StormRecord, fields []string) bool {
	lat, okLat := parseCoordinate(fields[fieldLat], "S")
	lon, okLon := parseCoordinate(fields[fieldLon], "W")
	if !okLat || !okLon {
		return false
	}
	wind, ok := parseLeadingFloat(fields[fieldWind])
	if !ok {
		return false
	}

	s.Points = append(s.Points, LatLonToVec3(lat, lon, GlobeRadius))
	s.Coords = append(s.Coords, LatLon{Lat: lat, Lon: lon})
	s.WindSpeeds = append(s.WindSpeeds, wind)
	s.Categories = append(s.Categories, ClassifyIntensity(wind))

	if len(fields) > fieldPressure {
		// HURDAT2 writes -999 for an unmeasured pressure.
		if p, ok := parseLeadingFloat(fields[fieldPressure]); ok && p > 0 {
			s.Pressures = append(s.Pressures, p)
		}
	}
	return true
}

// Years lists the distinct seasons present in storms, ascending.
func Years(storms []StormRecord) []string {
	seen := make(map[string]struct{})
	var years []string
	for _, s := range storms {
		if _, ok := seen[s.Year]; ok {
			continue
		}
		seen[s.Year] = struct{}{}
		years = append(years, s.Year)
	}
	sort.Strings(years)
	return years
}
