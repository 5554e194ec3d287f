package criteria

import (
	"errors"
	"fmt"
	"math"

	"staff-match/internal/domain/entity"
)

type Category string

const (
	CategorySkills       Category = "skills"
	CategoryExperience   Category = "experience"
	CategoryAvailability Category = "availability"
	CategoryLocation     Category = "location"
	CategoryPreferences  Category = "preferences"
)

// Categories is the fixed scoring order used for fingerprints and aggregation.
var Categories = []Category{
	CategorySkills,
	CategoryExperience,
	CategoryAvailability,
	CategoryLocation,
	CategoryPreferences,
}

var ErrConfiguration = errors.New("invalid criteria configuration")

type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid criteria: %s %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

type SkillsCriteria struct {
	Weight          float64 `json:"weight"`
	RequiredOverlap float64 `json:"required_overlap"`
	LevelBonusCap   float64 `json:"level_bonus_cap"`
}

type ExperienceCriteria struct {
	Weight   float64 `json:"weight"`
	MinYears float64 `json:"min_years"`
}

type AvailabilityCriteria struct {
	Weight float64 `json:"weight"`
}

type LocationCriteria struct {
	Weight        float64 `json:"weight"`
	MaxDistanceKm float64 `json:"max_distance_km"`
}

type PreferencesCriteria struct {
	Weight float64 `json:"weight"`
}

type Criteria struct {
	Context       entity.Kind          `json:"context"`
	Skills        SkillsCriteria       `json:"skills"`
	Experience    ExperienceCriteria   `json:"experience"`
	Availability  AvailabilityCriteria `json:"availability"`
	Location      LocationCriteria     `json:"location"`
	Preferences   PreferencesCriteria  `json:"preferences"`
	MinMatchScore float64              `json:"min_match_score"`
	TopK          int                  `json:"top_k"`
}

func (c Criteria) Weight(cat Category) float64 {
	switch cat {
	case CategorySkills:
		return c.Skills.Weight
	case CategoryExperience:
		return c.Experience.Weight
	case CategoryAvailability:
		return c.Availability.Weight
	case CategoryLocation:
		return c.Location.Weight
	case CategoryPreferences:
		return c.Preferences.Weight
	default:
		return 0
	}
}

func (c Criteria) Weights() map[Category]float64 {
	out := make(map[Category]float64, len(Categories))
	for _, cat := range Categories {
		out[cat] = c.Weight(cat)
	}
	return out
}

// NormalizedWeights rescales the weights to sum to 1. An all-zero set
// becomes uniform.
func (c Criteria) NormalizedWeights() map[Category]float64 {
	out := make(map[Category]float64, len(Categories))
	sum := 0.0
	for _, cat := range Categories {
		sum += c.Weight(cat)
	}
	if sum <= 0 {
		eq := 1.0 / float64(len(Categories))
		for _, cat := range Categories {
			out[cat] = eq
		}
		return out
	}
	for _, cat := range Categories {
		out[cat] = c.Weight(cat) / sum
	}
	return out
}

func (c Criteria) Validate() error {
	if c.Context != entity.KindJob && c.Context != entity.KindWorker {
		return &ConfigurationError{Field: "context", Reason: fmt.Sprintf("unknown context type %q", c.Context)}
	}
	for _, cat := range Categories {
		w := c.Weight(cat)
		if invalidFloat(w) || w < 0 || w > 1 {
			return &ConfigurationError{Field: string(cat) + ".weight", Reason: "must be within [0,1]"}
		}
	}
	tunables := []struct {
		name string
		v    float64
	}{
		{"skills.required_overlap", c.Skills.RequiredOverlap},
		{"skills.level_bonus_cap", c.Skills.LevelBonusCap},
		{"experience.min_years", c.Experience.MinYears},
		{"location.max_distance_km", c.Location.MaxDistanceKm},
	}
	for _, t := range tunables {
		if invalidFloat(t.v) || t.v < 0 {
			return &ConfigurationError{Field: t.name, Reason: "must be a non-negative number"}
		}
	}
	if c.Skills.RequiredOverlap > 1 {
		return &ConfigurationError{Field: "skills.required_overlap", Reason: "must be within [0,1]"}
	}
	if c.Skills.LevelBonusCap > 1 {
		return &ConfigurationError{Field: "skills.level_bonus_cap", Reason: "must be within [0,1]"}
	}
	if invalidFloat(c.MinMatchScore) || c.MinMatchScore < 0 || c.MinMatchScore > 1 {
		return &ConfigurationError{Field: "min_match_score", Reason: "must be within [0,1]"}
	}
	if c.TopK < 0 {
		return &ConfigurationError{Field: "top_k", Reason: "must be non-negative"}
	}
	return nil
}

func invalidFloat(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
