package matching

import "sort"

type Scored struct {
	CandidateID string
	Scores      CategoryScores
	TotalScore  float64
}

type Ranked struct {
	Scored
	Rank int
}

// Rank drops entries below minScore, orders by score descending then
// candidate id ascending, truncates to topK (no limit when topK <= 0) and
// assigns 1-based ranks.
func Rank(entries []Scored, minScore float64, topK int) []Ranked {
	kept := make([]Scored, 0, len(entries))
	for _, e := range entries {
		if e.TotalScore < minScore {
			continue
		}
		kept = append(kept, e)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].TotalScore != kept[j].TotalScore {
			return kept[i].TotalScore > kept[j].TotalScore
		}
		return kept[i].CandidateID < kept[j].CandidateID
	})

	if topK > 0 && len(kept) > topK {
		kept = kept[:topK]
	}

	out := make([]Ranked, 0, len(kept))
	for i, e := range kept {
		out = append(out, Ranked{Scored: e, Rank: i + 1})
	}
	return out
}
