package matching

import (
	"math"
	"sort"

	"staff-match/internal/domain/criteria"
	"staff-match/internal/domain/entity"
)

const DefaultPoolCap = 100

// FilterPool applies the hard constraints to a raw pool and caps the result,
// keeping the candidates closest to the subject.
func FilterPool(subject entity.Entity, pool []entity.Entity, crit criteria.Criteria, limit int) []entity.Entity {
	if subject == nil {
		return []entity.Entity{}
	}
	if limit <= 0 {
		limit = DefaultPoolCap
	}

	required := make(map[string]bool)
	for _, s := range subject.RequiredSkills() {
		if n := entity.NormalizeName(s.Name); n != "" {
			required[n] = true
		}
	}

	checkDistance := crit.Location.Weight > 0 && crit.Location.MaxDistanceKm > 0
	subjectLoc := subject.Location()
	want := subject.Kind().Opposite()

	type kept struct {
		e        entity.Entity
		distance float64
		skills   int
	}

	seen := make(map[string]bool, len(pool))
	out := make([]kept, 0, len(pool))
	for _, c := range pool {
		if c == nil || c.Kind() != want {
			continue
		}
		id := c.EntityID()
		if id == "" || seen[id] {
			continue
		}
		if !entity.IsMatchable(c) {
			continue
		}

		d := math.Inf(1)
		if subjectLoc != nil && c.Location() != nil {
			d = DistanceKm(*subjectLoc, *c.Location())
			if checkDistance && d > crit.Location.MaxDistanceKm {
				continue
			}
		}

		matchedSkills := 0
		for _, s := range c.Skills() {
			if required[entity.NormalizeName(s.Name)] {
				matchedSkills++
			}
		}
		if len(required) > 0 && matchedSkills == 0 {
			continue
		}

		seen[id] = true
		out = append(out, kept{e: c, distance: d, skills: len(c.Skills())})
	}

	if len(out) > limit {
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].distance != out[j].distance {
				return out[i].distance < out[j].distance
			}
			if out[i].skills != out[j].skills {
				return out[i].skills > out[j].skills
			}
			return out[i].e.EntityID() < out[j].e.EntityID()
		})
		out = out[:limit]
	}

	res := make([]entity.Entity, 0, len(out))
	for _, k := range out {
		res = append(res, k.e)
	}
	return res
}
