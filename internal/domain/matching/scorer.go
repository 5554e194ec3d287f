package matching

import (
	"errors"
	"fmt"
	"math"

	"staff-match/internal/domain/criteria"
	"staff-match/internal/domain/entity"
)

const earthRadiusKm = 6371.0

var ErrComputationSkip = errors.New("candidate skipped")

type CategoryScores map[criteria.Category]float64

// ScorePair computes every category score for one (subject, candidate) pair.
// The pair is oriented as (job, worker) so both match directions share the
// same formulas.
func ScorePair(subject, candidate entity.Entity, crit criteria.Criteria) (CategoryScores, error) {
	if err := entity.Validate(candidate); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrComputationSkip, err)
	}
	if err := entity.Validate(subject); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrComputationSkip, err)
	}
	if subject.Kind() == candidate.Kind() {
		return nil, fmt.Errorf("%w: candidate %s has the same kind as the subject", ErrComputationSkip, candidate.EntityID())
	}

	job, worker := orient(subject, candidate)

	return CategoryScores{
		criteria.CategorySkills:       SkillsScore(job.RequiredSkills(), worker.Skills(), crit.Skills),
		criteria.CategoryExperience:   ExperienceScore(worker.ExperienceYears(), job.ExperienceYears(), crit.Experience),
		criteria.CategoryAvailability: AvailabilityScore(job.Availability(), worker.Availability()),
		criteria.CategoryLocation:     LocationScore(subject.Location(), candidate.Location(), crit.Location.MaxDistanceKm),
		criteria.CategoryPreferences:  PreferencesScore(subject.Preferences(), candidate.Preferences()),
	}, nil
}

func orient(subject, candidate entity.Entity) (job, worker entity.Entity) {
	if subject.Kind() == entity.KindJob {
		return subject, candidate
	}
	return candidate, subject
}

func SkillsScore(required, possessed []entity.Skill, sc criteria.SkillsCriteria) float64 {
	req := make(map[string]entity.Skill, len(required))
	for _, r := range required {
		name := entity.NormalizeName(r.Name)
		if name == "" {
			continue
		}
		req[name] = r
	}
	if len(req) == 0 {
		return 1
	}

	have := make(map[string]entity.Skill, len(possessed))
	for _, p := range possessed {
		name := entity.NormalizeName(p.Name)
		if name == "" {
			continue
		}
		if prev, ok := have[name]; ok && prev.Level >= p.Level {
			continue
		}
		have[name] = p
	}

	matched := 0
	levelMet := 0
	for name, r := range req {
		p, ok := have[name]
		if !ok {
			continue
		}
		matched++
		reqLvl := clampInt(r.Level, 0, 5)
		if reqLvl > 0 && clampInt(p.Level, 0, 5) >= reqLvl {
			levelMet++
		}
	}

	overlap := float64(matched) / float64(len(req))
	if overlap < sc.RequiredOverlap {
		return 0
	}

	bonus := sc.LevelBonusCap * float64(levelMet) / float64(len(req))
	if bonus > sc.LevelBonusCap {
		bonus = sc.LevelBonusCap
	}
	return clamp01(overlap + bonus)
}

func ExperienceScore(workerYears, jobMinYears int, ec criteria.ExperienceCriteria) float64 {
	reqYears := math.Max(float64(jobMinYears), ec.MinYears)
	if reqYears <= 0 {
		return 1
	}
	if workerYears <= 0 {
		return 0
	}
	return clamp01(float64(workerYears) / reqYears)
}

func AvailabilityScore(required, offered []entity.Window) float64 {
	if len(required) == 0 || len(offered) == 0 {
		return 1
	}
	covered := 0
	for _, r := range required {
		for _, o := range offered {
			if o.Covers(r) {
				covered++
				break
			}
		}
	}
	return clamp01(float64(covered) / float64(len(required)))
}

func LocationScore(a, b *entity.Location, maxDistanceKm float64) float64 {
	if a == nil || b == nil || maxDistanceKm <= 0 {
		return 1
	}
	d := DistanceKm(*a, *b)
	return clamp01(1 - d/maxDistanceKm)
}

func PreferencesScore(a, b []string) float64 {
	sa := tagSet(a)
	sb := tagSet(b)
	if len(sa) == 0 || len(sb) == 0 {
		return 1
	}
	inter := 0
	for t := range sa {
		if sb[t] {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	if union == 0 {
		return 1
	}
	return clamp01(float64(inter) / float64(union))
}

// DistanceKm is the haversine great-circle distance.
func DistanceKm(a, b entity.Location) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	h = math.Min(1, math.Max(0, h))
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

func tagSet(tags []string) map[string]bool {
	out := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = entity.NormalizeName(t)
		if t == "" {
			continue
		}
		out[t] = true
	}
	return out
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampInt(v, minV, maxV int) int {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}
