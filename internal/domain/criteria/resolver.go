package criteria

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"staff-match/internal/domain/entity"

	"gopkg.in/yaml.v3"
)

const (
	DefaultMaxDistanceKm = 50.0
	DefaultLevelBonusCap = 0.1
)

type SkillsOverride struct {
	Weight          *float64 `json:"weight,omitempty" yaml:"weight"`
	RequiredOverlap *float64 `json:"required_overlap,omitempty" yaml:"required_overlap"`
	LevelBonusCap   *float64 `json:"level_bonus_cap,omitempty" yaml:"level_bonus_cap"`
}

type ExperienceOverride struct {
	Weight   *float64 `json:"weight,omitempty" yaml:"weight"`
	MinYears *float64 `json:"min_years,omitempty" yaml:"min_years"`
}

type LocationOverride struct {
	Weight        *float64 `json:"weight,omitempty" yaml:"weight"`
	MaxDistanceKm *float64 `json:"max_distance_km,omitempty" yaml:"max_distance_km"`
}

type WeightOverride struct {
	Weight *float64 `json:"weight,omitempty" yaml:"weight"`
}

// Override is a partial criteria document. Nil fields keep the default.
type Override struct {
	Skills        *SkillsOverride     `json:"skills,omitempty" yaml:"skills"`
	Experience    *ExperienceOverride `json:"experience,omitempty" yaml:"experience"`
	Availability  *WeightOverride     `json:"availability,omitempty" yaml:"availability"`
	Location      *LocationOverride   `json:"location,omitempty" yaml:"location"`
	Preferences   *WeightOverride     `json:"preferences,omitempty" yaml:"preferences"`
	MinMatchScore *float64            `json:"min_match_score,omitempty" yaml:"min_match_score"`
	TopK          *int                `json:"top_k,omitempty" yaml:"top_k"`
}

func Defaults(ctxType entity.Kind) Criteria {
	if ctxType == entity.KindWorker {
		return Criteria{
			Context:       entity.KindWorker,
			Skills:        SkillsCriteria{Weight: 0.15, LevelBonusCap: DefaultLevelBonusCap},
			Experience:    ExperienceCriteria{Weight: 0.15},
			Availability:  AvailabilityCriteria{Weight: 0.2},
			Location:      LocationCriteria{Weight: 0.2, MaxDistanceKm: DefaultMaxDistanceKm},
			Preferences:   PreferencesCriteria{Weight: 0.3},
			MinMatchScore: 0.75,
			TopK:          10,
		}
	}
	return Criteria{
		Context:       entity.KindJob,
		Skills:        SkillsCriteria{Weight: 0.3, LevelBonusCap: DefaultLevelBonusCap},
		Experience:    ExperienceCriteria{Weight: 0.2},
		Availability:  AvailabilityCriteria{Weight: 0.2},
		Location:      LocationCriteria{Weight: 0.15, MaxDistanceKm: DefaultMaxDistanceKm},
		Preferences:   PreferencesCriteria{Weight: 0.15},
		MinMatchScore: 0.7,
		TopK:          50,
	}
}

// Resolve layers the overrides, in order, over the defaults for ctxType.
// Later overrides win.
func Resolve(ctxType entity.Kind, overrides ...*Override) (Criteria, error) {
	if ctxType != entity.KindJob && ctxType != entity.KindWorker {
		return Criteria{}, &ConfigurationError{Field: "context", Reason: fmt.Sprintf("unknown context type %q", ctxType)}
	}

	c := Defaults(ctxType)
	for _, o := range overrides {
		c = apply(c, o)
	}

	if err := c.Validate(); err != nil {
		return Criteria{}, err
	}
	return c, nil
}

func apply(c Criteria, o *Override) Criteria {
	if o == nil {
		return c
	}
	if s := o.Skills; s != nil {
		setFloat(&c.Skills.Weight, s.Weight)
		setFloat(&c.Skills.RequiredOverlap, s.RequiredOverlap)
		setFloat(&c.Skills.LevelBonusCap, s.LevelBonusCap)
	}
	if e := o.Experience; e != nil {
		setFloat(&c.Experience.Weight, e.Weight)
		setFloat(&c.Experience.MinYears, e.MinYears)
	}
	if a := o.Availability; a != nil {
		setFloat(&c.Availability.Weight, a.Weight)
	}
	if l := o.Location; l != nil {
		setFloat(&c.Location.Weight, l.Weight)
		setFloat(&c.Location.MaxDistanceKm, l.MaxDistanceKm)
	}
	if p := o.Preferences; p != nil {
		setFloat(&c.Preferences.Weight, p.Weight)
	}
	setFloat(&c.MinMatchScore, o.MinMatchScore)
	if o.TopK != nil {
		c.TopK = *o.TopK
	}
	return c
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

type Loader interface {
	LoadCriteria(ctx context.Context, ctxType entity.Kind) (*Override, error)
}

type fileDocument struct {
	Job    *Override `yaml:"job"`
	Worker *Override `yaml:"worker"`
}

// FileLoader reads overrides from a YAML document with job and worker
// sections. A missing or empty path yields no override.
type FileLoader struct {
	Path string
}

func NewFileLoader(path string) *FileLoader {
	return &FileLoader{Path: strings.TrimSpace(path)}
}

func (l *FileLoader) LoadCriteria(_ context.Context, ctxType entity.Kind) (*Override, error) {
	if l == nil || l.Path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(l.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read criteria file: %w", err)
	}

	var doc fileDocument
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, &ConfigurationError{Field: "criteria file", Reason: err.Error()}
	}

	switch ctxType {
	case entity.KindJob:
		return doc.Job, nil
	case entity.KindWorker:
		return doc.Worker, nil
	default:
		return nil, nil
	}
}
