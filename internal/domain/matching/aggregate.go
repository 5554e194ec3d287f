package matching

import "staff-match/internal/domain/criteria"

// Aggregate combines category scores with renormalized weights. A weighted
// category without a score contributes 0.
func Aggregate(scores CategoryScores, crit criteria.Criteria) float64 {
	weights := crit.NormalizedWeights()
	total := 0.0
	for _, cat := range criteria.Categories {
		s, ok := scores[cat]
		if !ok {
			continue
		}
		total += clamp01(s) * weights[cat]
	}
	return clamp01(total)
}

func Contributions(scores CategoryScores, crit criteria.Criteria) map[criteria.Category]float64 {
	weights := crit.NormalizedWeights()
	out := make(map[criteria.Category]float64, len(criteria.Categories))
	for _, cat := range criteria.Categories {
		out[cat] = clamp01(scores[cat]) * weights[cat]
	}
	return out
}
