// Package domain models historical tropical cyclone tracks for playback.
//
// # Data Source
//
// Tracks come from a HURDAT2-style text file (NOAA National Hurricane Center
// best-track archive). The file is line oriented and comma delimited; each
// storm is a header row followed by one data row per six-hourly fix.
//
// # Row Conventions
//
// Header row:
//
//	"<basin code>, <name>, <entry count>"  →  e.g. "AL062004, FRANCES, 43,"
//	Basin code is two letters followed by six digits: basin, cyclone number
//	within the season, and the four digit season year.
//
// Data row (1-based field numbers, at least seven fields):
//
//	1 date (YYYYMMDD) | 2 time (HHMM) | 3 record identifier | 4 status
//	5 latitude, e.g. "12.3N" | 6 longitude, e.g. "45.6W"
//	7 maximum sustained wind (knots) | 8 minimum pressure (millibars, optional)
//
//	"S" and "W" hemisphere suffixes negate the coordinate.
//	Pressure is "-999" or absent in the early record; a non-numeric value
//	is dropped rather than stored as a placeholder.
//
// Row classification is heuristic (the file has no explicit row-type column)
// and lives in [ClassifyRow] so it can be tested in isolation.
//
// # Intensity Classification
//
// Category thresholds in knots:
//
//	<39 kt  Tropical Depression (category 0)
//	<74 kt  Tropical Storm      (category 0)
//	<96 kt  Category 1 | <111 kt Category 2 | <130 kt Category 3
//	<157 kt Category 4 | otherwise Category 5
//
// Depression and storm share category 0 and the same trail color; the
// difference is a display label only. See [CategoryLabel].
//
// # Globe Projection
//
// Positions are projected onto a sphere of radius [GlobeRadius] with
// longitude mirrored so that western longitudes face the default camera.
// See [LatLonToVec3].
package domain
