// Command trackstat parses a HURDAT2-style track file offline and prints,
// for each season, the number of playable storms and the strongest one.
// It uses the same parser as the playback service, so its row counts match
// what the service would load.
//
// Usage:
//
//	go run ./cmd/trackstat -file hurricane.csv
//	go run ./cmd/trackstat -file hurricane.csv -year 2004 -geojson tracks.geojson
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/couchcryptid/storm-track-playback/internal/domain"
	"github.com/couchcryptid/storm-track-playback/internal/session"
	geojson "github.com/paulmach/go.geojson"
)

func main() {
	file := flag.String("file", "hurricane.csv", "path to the track dataset")
	year := flag.String("year", "all", "season to report, or \"all\"")
	geoOut := flag.String("geojson", "", "optional output path for full tracks as GeoJSON")
	flag.Parse()

	os.Exit(run(os.Stdout, os.Stderr, *file, *year, *geoOut))
}

// yearSummary is one line of the report.
type yearSummary struct {
	Year      string
	Storms    int
	Points    int
	Strongest session.StormFacts
}

func run(stdout, stderr io.Writer, path, year, geoOut string) int {
	filter, err := session.ParseYear(year)
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: %v\n", err)
		return 2
	}

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: open dataset: %v\n", err)
		return 1
	}
	defer f.Close()

	storms, stats, err := domain.ParseTracks(f, filter)
	printStats(stdout, stats)
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: %v\n", err)
		return 1
	}

	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "  %-6s %6s %7s  %s\n", "YEAR", "STORMS", "POINTS", "STRONGEST")
	for _, s := range summarize(storms) {
		fmt.Fprintf(stdout, "  %-6s %6d %7d  %s (%.0f kt, %s)\n",
			s.Year, s.Storms, s.Points, s.Strongest.Name, s.Strongest.MaxWind, s.Strongest.MaxCategoryLabel)
	}

	if geoOut != "" {
		if err := writeGeoJSON(geoOut, storms); err != nil {
			fmt.Fprintf(stderr, "FATAL: write geojson: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "\nWrote %d tracks to %s\n", len(storms), geoOut)
	}
	return 0
}

func printStats(w io.Writer, st domain.ParseStats) {
	fmt.Fprintln(w, "=== Track Dataset Summary ===")
	fmt.Fprintf(w, "Rows: %d  Headers: %d  Points: %d\n", st.Rows, st.Headers, st.Points)
	fmt.Fprintf(w, "Skipped: %d malformed, %d orphaned, %d bad coordinates, %d empty storms\n",
		st.Malformed, st.Orphaned, st.SkippedCoords, st.EmptyStorms)
}

// summarize groups storms by season. Ties on peak wind keep the earlier storm.
func summarize(storms []domain.StormRecord) []yearSummary {
	byYear := make(map[string]*yearSummary)
	for _, s := range storms {
		facts := session.FactsFor(s)
		sum, ok := byYear[s.Year]
		if !ok {
			sum = &yearSummary{Year: s.Year, Strongest: facts}
			byYear[s.Year] = sum
		} else if facts.MaxWind > sum.Strongest.MaxWind {
			sum.Strongest = facts
		}
		sum.Storms++
		sum.Points += facts.Points
	}

	out := make([]yearSummary, 0, len(byYear))
	for _, s := range byYear {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// writeGeoJSON writes one LineString feature per storm.
func writeGeoJSON(path string, storms []domain.StormRecord) error {
	fc := geojson.NewFeatureCollection()
	for _, s := range storms {
		coords := make([][]float64, 0, len(s.Coords))
		for _, c := range s.Coords {
			coords = append(coords, []float64{c.Lon, c.Lat})
		}
		facts := session.FactsFor(s)
		f := geojson.NewLineStringFeature(coords)
		f.SetProperty("storm_id", s.ID)
		f.SetProperty("name", s.Name)
		f.SetProperty("year", s.Year)
		f.SetProperty("max_wind_kt", facts.MaxWind)
		f.SetProperty("max_category", int(facts.MaxCategory))
		f.SetProperty("color", domain.CategoryColor(facts.MaxCategory).String())
		fc.AddFeature(f)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
