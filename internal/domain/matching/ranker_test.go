package matching

import (
	"fmt"
	"math/rand"
	"testing"

	"staff-match/internal/domain/criteria"
	"staff-match/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRank_ThresholdSortTieBreak(t *testing.T) {
	in := []Scored{
		{CandidateID: "c", TotalScore: 0.9},
		{CandidateID: "a", TotalScore: 0.6},
		{CandidateID: "b", TotalScore: 0.9},
		{CandidateID: "d", TotalScore: 0.75},
	}

	out := Rank(in, 0.7, 10)

	require.Len(t, out, 3)
	assert.Equal(t, "b", out[0].CandidateID)
	assert.Equal(t, "c", out[1].CandidateID)
	assert.Equal(t, "d", out[2].CandidateID)
	for i, r := range out {
		assert.Equal(t, i+1, r.Rank)
	}
}

func TestRank_Invariants(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		in := make([]Scored, 0, 80)
		for i := 0; i < 80; i++ {
			in = append(in, Scored{CandidateID: fmt.Sprintf("cand-%03d", r.Intn(500)), TotalScore: r.Float64()})
		}
		minScore := r.Float64()
		topK := r.Intn(20) + 1

		out := Rank(in, minScore, topK)

		assert.LessOrEqual(t, len(out), topK)
		for i, m := range out {
			assert.GreaterOrEqual(t, m.TotalScore, minScore)
			if i > 0 {
				assert.GreaterOrEqual(t, out[i-1].TotalScore, m.TotalScore)
			}
		}
	}
}

func TestRank_EmptyInputYieldsEmptyList(t *testing.T) {
	out := Rank(nil, 0.7, 50)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestRank_NoLimitWhenTopKZero(t *testing.T) {
	in := []Scored{{CandidateID: "a", TotalScore: 1}, {CandidateID: "b", TotalScore: 1}}
	assert.Len(t, Rank(in, 0, 0), 2)
}

func TestAggregate_TotalWithinBounds(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		crit := criteria.Criteria{
			Context:      entity.KindJob,
			Skills:       criteria.SkillsCriteria{Weight: r.Float64()},
			Experience:   criteria.ExperienceCriteria{Weight: r.Float64()},
			Availability: criteria.AvailabilityCriteria{Weight: r.Float64()},
			Location:     criteria.LocationCriteria{Weight: r.Float64()},
			Preferences:  criteria.PreferencesCriteria{Weight: r.Float64()},
		}
		scores := CategoryScores{}
		for _, c := range criteria.Categories {
			scores[c] = r.Float64()
		}
		total := Aggregate(scores, crit)
		assert.GreaterOrEqual(t, total, 0.0)
		assert.LessOrEqual(t, total, 1.0)
	}
}

func TestAggregate_MissingScoreCountsAsZero(t *testing.T) {
	crit := criteria.Criteria{
		Context:    entity.KindJob,
		Skills:     criteria.SkillsCriteria{Weight: 0.5},
		Experience: criteria.ExperienceCriteria{Weight: 0.5},
	}
	total := Aggregate(CategoryScores{criteria.CategorySkills: 1}, crit)
	assert.InDelta(t, 0.5, total, 1e-9)
}

func TestAggregate_RenormalizesWeights(t *testing.T) {
	crit := criteria.Criteria{
		Context:  entity.KindJob,
		Skills:   criteria.SkillsCriteria{Weight: 0.2},
		Location: criteria.LocationCriteria{Weight: 0.2},
	}
	total := Aggregate(CategoryScores{criteria.CategorySkills: 1, criteria.CategoryLocation: 0.5}, crit)
	assert.InDelta(t, 0.75, total, 1e-9)
}
