package entity

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

type Kind string

const (
	KindJob    Kind = "job"
	KindWorker Kind = "worker"
)

const (
	StatusOpen      = "open"
	StatusAvailable = "available"
)

var ErrMalformed = errors.New("malformed entity")

func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindJob:
		return KindJob, nil
	case KindWorker:
		return KindWorker, nil
	default:
		return "", fmt.Errorf("unknown entity kind %q", s)
	}
}

func (k Kind) Opposite() Kind {
	if k == KindJob {
		return KindWorker
	}
	return KindJob
}

type Location struct {
	Lat      float64 `json:"lat" yaml:"lat"`
	Lng      float64 `json:"lng" yaml:"lng"`
	RadiusKm float64 `json:"radius_km,omitempty" yaml:"radius_km,omitempty"`
}

type Skill struct {
	Name  string `json:"name" yaml:"name"`
	Level int    `json:"level,omitempty" yaml:"level,omitempty"`
	Years int    `json:"years,omitempty" yaml:"years,omitempty"`
}

// Window is a weekly recurring time range, in minutes from midnight.
type Window struct {
	Day         int `json:"day" yaml:"day"`
	StartMinute int `json:"start_minute" yaml:"start_minute"`
	EndMinute   int `json:"end_minute" yaml:"end_minute"`
}

func (w Window) Covers(other Window) bool {
	return w.Day == other.Day && w.StartMinute <= other.StartMinute && w.EndMinute >= other.EndMinute
}

type Compensation struct {
	Min      float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max      float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Currency string  `json:"currency,omitempty" yaml:"currency,omitempty"`
}

// Entity is implemented only by *Job and *Worker.
type Entity interface {
	EntityID() string
	Kind() Kind
	Status() string
	Location() *Location
	Skills() []Skill
	RequiredSkills() []Skill
	ExperienceYears() int
	Availability() []Window
	Compensation() Compensation
	Preferences() []string

	sealed()
}

type Job struct {
	ID             string       `json:"id" yaml:"id"`
	Title          string       `json:"title" yaml:"title"`
	State          string       `json:"status" yaml:"status"`
	Loc            *Location    `json:"location,omitempty" yaml:"location,omitempty"`
	Required       []Skill      `json:"required_skills,omitempty" yaml:"required_skills,omitempty"`
	MinYears       int          `json:"min_years,omitempty" yaml:"min_years,omitempty"`
	Shifts         []Window     `json:"shifts,omitempty" yaml:"shifts,omitempty"`
	Pay            Compensation `json:"compensation" yaml:"compensation"`
	PreferenceTags []string     `json:"preferences,omitempty" yaml:"preferences,omitempty"`
}

func (j *Job) EntityID() string           { return j.ID }
func (j *Job) Kind() Kind                 { return KindJob }
func (j *Job) Status() string             { return j.State }
func (j *Job) Location() *Location        { return j.Loc }
func (j *Job) Skills() []Skill            { return j.Required }
func (j *Job) RequiredSkills() []Skill    { return j.Required }
func (j *Job) ExperienceYears() int       { return j.MinYears }
func (j *Job) Availability() []Window     { return j.Shifts }
func (j *Job) Compensation() Compensation { return j.Pay }
func (j *Job) Preferences() []string      { return j.PreferenceTags }
func (j *Job) sealed()                    {}

type Worker struct {
	ID             string       `json:"id" yaml:"id"`
	Name           string       `json:"name" yaml:"name"`
	State          string       `json:"status" yaml:"status"`
	Loc            *Location    `json:"location,omitempty" yaml:"location,omitempty"`
	Possessed      []Skill      `json:"skills,omitempty" yaml:"skills,omitempty"`
	Years          int          `json:"years_experience,omitempty" yaml:"years_experience,omitempty"`
	Windows        []Window     `json:"availability,omitempty" yaml:"availability,omitempty"`
	Expected       Compensation `json:"compensation" yaml:"compensation"`
	PreferenceTags []string     `json:"preferences,omitempty" yaml:"preferences,omitempty"`
}

func (w *Worker) EntityID() string           { return w.ID }
func (w *Worker) Kind() Kind                 { return KindWorker }
func (w *Worker) Status() string             { return w.State }
func (w *Worker) Location() *Location        { return w.Loc }
func (w *Worker) Skills() []Skill            { return w.Possessed }
func (w *Worker) RequiredSkills() []Skill    { return nil }
func (w *Worker) ExperienceYears() int       { return w.Years }
func (w *Worker) Availability() []Window     { return w.Windows }
func (w *Worker) Compensation() Compensation { return w.Expected }
func (w *Worker) Preferences() []string      { return w.PreferenceTags }
func (w *Worker) sealed()                    {}

func IsMatchable(e Entity) bool {
	if e == nil {
		return false
	}
	st := strings.ToLower(strings.TrimSpace(e.Status()))
	switch e.Kind() {
	case KindJob:
		return st == StatusOpen
	case KindWorker:
		return st == StatusAvailable
	default:
		return false
	}
}

func Validate(e Entity) error {
	if e == nil {
		return fmt.Errorf("%w: nil entity", ErrMalformed)
	}
	if strings.TrimSpace(e.EntityID()) == "" {
		return fmt.Errorf("%w: empty id", ErrMalformed)
	}
	if loc := e.Location(); loc != nil {
		if !validCoordinate(loc.Lat, 90) || !validCoordinate(loc.Lng, 180) {
			return fmt.Errorf("%w: entity %s has invalid coordinates", ErrMalformed, e.EntityID())
		}
		if math.IsNaN(loc.RadiusKm) || loc.RadiusKm < 0 {
			return fmt.Errorf("%w: entity %s has invalid radius", ErrMalformed, e.EntityID())
		}
	}
	for _, w := range e.Availability() {
		if w.Day < 0 || w.Day > 6 || w.StartMinute < 0 || w.EndMinute > 24*60 || w.EndMinute <= w.StartMinute {
			return fmt.Errorf("%w: entity %s has invalid window", ErrMalformed, e.EntityID())
		}
	}
	c := e.Compensation()
	if c.Min < 0 || c.Max < 0 || (c.Max > 0 && c.Min > c.Max) {
		return fmt.Errorf("%w: entity %s has invalid compensation", ErrMalformed, e.EntityID())
	}
	if e.ExperienceYears() < 0 {
		return fmt.Errorf("%w: entity %s has negative experience", ErrMalformed, e.EntityID())
	}
	return nil
}

func validCoordinate(v, limit float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= -limit && v <= limit
}

// Aliases folds common spellings of the same skill or tag onto one name.
var Aliases = map[string]string{
	"fork lift":          "forklift",
	"forklift operation": "forklift",
	"forklift driving":   "forklift",
	"cdl":                "commercial driving",
	"cna":                "certified nursing assistant",
	"food handling":      "food safety",
	"customer care":      "customer service",
	"pos":                "point of sale",
	"mig welding":        "welding",
	"tig welding":        "welding",
	"cleaning":           "housekeeping",
	"warehouse picking":  "picking",
	"order picking":      "picking",
	"night shift":        "nights",
	"weekend shift":      "weekends",
	"part-time":          "part time",
	"full-time":          "full time",
}

func NormalizeName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	s = strings.Join(strings.Fields(s), " ")
	if canon, ok := Aliases[s]; ok {
		return canon
	}
	return s
}
