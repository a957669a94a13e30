package domain

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// basinCodeRe matches a storm identifier: basin letters, cyclone number,
	// four digit year, e.g. "AL062004".
	basinCodeRe = regexp.MustCompile(`^[A-Za-z]{2}\d{6}$`)

	// leadingFloatRe captures the numeric prefix of a field, so "12.3N" -> "12.3".
	leadingFloatRe = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)
)

// minDataFields is the narrowest row that still carries lat, lon, and wind.
const minDataFields = 7

// RowKind tags a classified input line.
type RowKind int

const (
	RowSkip      RowKind = iota // blank line
	RowHeader                   // starts a new storm
	RowData                     // one track fix for the current storm
	RowMalformed                // neither; dropped
)

func (k RowKind) String() string {
	switch k {
	case RowSkip:
		return "skip"
	case RowHeader:
		return "header"
	case RowData:
		return "data"
	default:
		return "malformed"
	}
}

// Row is a classified line with its trimmed fields.
type Row struct {
	Kind   RowKind
	Fields []string
}

// ClassifyRow decides what a dataset line is.
//
// A header needs a basin code in field 1, a non-numeric name in field 2, and
// at least three fields (HURDAT2 headers carry an entry count). The
// non-numeric check separates a name from a timestamp that some rows carry
// in that position. Anything with at least seven fields that is not a header
// is a data row; everything else is malformed.
func ClassifyRow(line string) Row {
	if strings.TrimSpace(line) == "" {
		return Row{Kind: RowSkip}
	}

	fields := strings.Split(line, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	if len(fields) >= 3 && basinCodeRe.MatchString(fields[0]) && !isNumeric(fields[1]) {
		return Row{Kind: RowHeader, Fields: fields}
	}
	if len(fields) >= minDataFields {
		return Row{Kind: RowData, Fields: fields}
	}
	return Row{Kind: RowMalformed, Fields: fields}
}

// isNumeric reports whether s reads as a finite number. An empty field counts
// as numeric so it can never be taken for a storm name.
func isNumeric(s string) bool {
	if s == "" {
		return true
	}
	v, err := strconv.ParseFloat(s, 64)
	return err == nil && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// parseLeadingFloat parses the numeric prefix of s. ok is false when s does
// not start with a number.
func parseLeadingFloat(s string) (float64, bool) {
	m := leadingFloatRe.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseCoordinate reads a latitude or longitude with an optional hemisphere
// suffix. neg is the suffix that flips the sign ("S" or "W").
func parseCoordinate(s, neg string) (float64, bool) {
	v, ok := parseLeadingFloat(s)
	if !ok {
		return 0, false
	}
	if strings.Contains(strings.ToUpper(s), neg) {
		v = -v
	}
	return v, true
}
