package dto

import "staff-match/internal/domain/criteria"

type SkillsCriteriaRequest struct {
	Weight          *float64 `json:"weight" validate:"omitempty,gte=0,lte=1"`
	RequiredOverlap *float64 `json:"required_overlap" validate:"omitempty,gte=0,lte=1"`
	LevelBonusCap   *float64 `json:"level_bonus_cap" validate:"omitempty,gte=0,lte=1"`
}

type ExperienceCriteriaRequest struct {
	Weight   *float64 `json:"weight" validate:"omitempty,gte=0,lte=1"`
	MinYears *float64 `json:"min_years" validate:"omitempty,gte=0"`
}

type LocationCriteriaRequest struct {
	Weight        *float64 `json:"weight" validate:"omitempty,gte=0,lte=1"`
	MaxDistanceKm *float64 `json:"max_distance_km" validate:"omitempty,gte=0"`
}

type WeightRequest struct {
	Weight *float64 `json:"weight" validate:"omitempty,gte=0,lte=1"`
}

type CriteriaRequest struct {
	Skills        *SkillsCriteriaRequest     `json:"skills"`
	Experience    *ExperienceCriteriaRequest `json:"experience"`
	Availability  *WeightRequest             `json:"availability"`
	Location      *LocationCriteriaRequest   `json:"location"`
	Preferences   *WeightRequest             `json:"preferences"`
	MinMatchScore *float64                   `json:"min_match_score" validate:"omitempty,gte=0,lte=1"`
	TopK          *int                       `json:"top_k" validate:"omitempty,gte=0"`
}

type MatchRequest struct {
	ForceRefresh bool             `json:"force_refresh"`
	Assisted     bool             `json:"assisted"`
	Criteria     *CriteriaRequest `json:"criteria"`
}

func (r *MatchRequest) Validate() error {
	return validate.Struct(r)
}

// Override converts the request criteria into a resolver override. A request
// without criteria yields nil so the defaults apply unchanged.
func (r *MatchRequest) Override() *criteria.Override {
	if r == nil || r.Criteria == nil {
		return nil
	}
	c := r.Criteria
	o := &criteria.Override{MinMatchScore: c.MinMatchScore, TopK: c.TopK}
	if c.Skills != nil {
		o.Skills = &criteria.SkillsOverride{
			Weight:          c.Skills.Weight,
			RequiredOverlap: c.Skills.RequiredOverlap,
			LevelBonusCap:   c.Skills.LevelBonusCap,
		}
	}
	if c.Experience != nil {
		o.Experience = &criteria.ExperienceOverride{Weight: c.Experience.Weight, MinYears: c.Experience.MinYears}
	}
	if c.Availability != nil {
		o.Availability = &criteria.WeightOverride{Weight: c.Availability.Weight}
	}
	if c.Location != nil {
		o.Location = &criteria.LocationOverride{Weight: c.Location.Weight, MaxDistanceKm: c.Location.MaxDistanceKm}
	}
	if c.Preferences != nil {
		o.Preferences = &criteria.WeightOverride{Weight: c.Preferences.Weight}
	}
	return o
}
