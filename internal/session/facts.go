package session

import "github.com/couchcryptid/storm-track-playback/internal/domain"

// StormFacts is the display summary of one storm.
type StormFacts struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	BasinCode        string          `json:"basin_code"`
	Year             string          `json:"year"`
	MaxWind          float64         `json:"max_wind_kt"`
	MinPressure      *float64        `json:"min_pressure_mb"` // nil when no pressure was reported
	Points           int             `json:"points"`
	MaxCategory      domain.Category `json:"max_category"`
	MaxCategoryLabel string          `json:"max_category_label"`
}

// FactsFor scans a storm's samples once.
func FactsFor(s domain.StormRecord) StormFacts {
	f := StormFacts{
		ID:          s.ID,
		Name:        s.Name,
		BasinCode:   s.BasinCode,
		Year:        s.Year,
		Points:      s.Len(),
		MaxCategory: domain.NoCategory,
	}

	for i, w := range s.WindSpeeds {
		if i == 0 || w > f.MaxWind {
			f.MaxWind = w
		}
	}
	for _, c := range s.Categories {
		f.MaxCategory = max(f.MaxCategory, c)
	}
	for _, p := range s.Pressures {
		if f.MinPressure == nil || p < *f.MinPressure {
			f.MinPressure = &p
		}
	}

	if f.MaxCategory != domain.NoCategory {
		f.MaxCategoryLabel = domain.CategoryLabel(f.MaxCategory, f.MaxWind)
	}
	return f
}
