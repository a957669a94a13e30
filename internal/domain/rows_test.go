package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyRow(t *testing.T) {
	tests := []struct {
		name string
		line string
		want RowKind
	}{
		{"hurdat header", "AL062004,            FRANCES,     43,", RowHeader},
		{"header with other basin", "EP092015, JIMENA, 30,", RowHeader},
		{"blank line", "   ", RowSkip},
		{"empty line", "", RowSkip},
		{"data row", "20040825, 0000,  , TD, 11.1N,  35.2W,  25, 1009,", RowData},
		{"basin code then timestamp is data", "AL062004,2004083000,x,HU,12.3N,45.6W,50,1005", RowData},
		{"header missing entry count", "AL062004,junkrow", RowMalformed},
		{"too few fields", "20040825, 0000, , TD, 11.1N", RowMalformed},
		{"bad basin code", "A1062004, FRANCES, 43,", RowMalformed},
		{"empty name is not a header", "AL062004,,43", RowMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyRow(tt.line)
			assert.Equal(t, tt.want, got.Kind, "kind %s", got.Kind)
		})
	}
}

func TestClassifyRow_TrimsFields(t *testing.T) {
	row := ClassifyRow("AL062004,            FRANCES,     43,")
	assert.Equal(t, []string{"AL062004", "FRANCES", "43", ""}, row.Fields)
}

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		name   string
		field  string
		neg    string
		want   float64
		wantOK bool
	}{
		{"north", "12.3N", "S", 12.3, true},
		{"south negates", "12.3S", "S", -12.3, true},
		{"west negates", "45.6W", "W", -45.6, true},
		{"east", "45.6E", "W", 45.6, true},
		{"bare number", "30", "S", 30, true},
		{"not a number", "N/A", "S", 0, false},
		{"empty", "", "W", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseCoordinate(tt.field, tt.neg)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestRowKind_String(t *testing.T) {
	assert.Equal(t, "header", RowHeader.String())
	assert.Equal(t, "data", RowData.String())
	assert.Equal(t, "skip", RowSkip.String())
	assert.Equal(t, "malformed", RowMalformed.String())
}
