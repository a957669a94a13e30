package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	geojson "github.com/paulmach/go.geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePath = "../../internal/domain/testdata/hurdat_sample.csv"

func TestRun_AllYears(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run(&stdout, &stderr, samplePath, "all", "")

	require.Equal(t, 0, code, stderr.String())
	out := stdout.String()
	assert.Contains(t, out, "Headers: 5  Points: 14")
	assert.Contains(t, out, "1 bad coordinates, 1 empty storms")
	assert.Regexp(t, `2004\s+2\s+10\s+IVAN \(145 kt, Category 4\)`, out)
	assert.Regexp(t, `2005\s+2\s+4\s+IVAN \(55 kt, Tropical Storm\)`, out)
}

func TestRun_SingleYear(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run(&stdout, &stderr, samplePath, "2005", "")

	require.Equal(t, 0, code, stderr.String())
	assert.NotContains(t, stdout.String(), "FRANCES")
	assert.Contains(t, stdout.String(), "2005")
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
		year string
		code int
	}{
		{"invalid year", samplePath, "1700", 2},
		{"missing file", filepath.Join(t.TempDir(), "nope.csv"), "all", 1},
		{"no storms for year", samplePath, "1999", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, tt.code, run(&stdout, &stderr, tt.path, tt.year, ""))
			assert.Contains(t, stderr.String(), "FATAL")
		})
	}
}

func TestRun_WritesGeoJSON(t *testing.T) {
	out := filepath.Join(t.TempDir(), "tracks.geojson")
	var stdout, stderr bytes.Buffer

	require.Equal(t, 0, run(&stdout, &stderr, samplePath, "2004", out), stderr.String())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)

	frances := fc.Features[0]
	assert.Equal(t, "FRANCES_AL062004", frances.Properties["storm_id"])
	require.Len(t, frances.Geometry.LineString, 6)
	assert.Equal(t, []float64{-35.2, 11.1}, frances.Geometry.LineString[0])
	assert.Equal(t, "#ff8000", frances.Properties["color"])
}
