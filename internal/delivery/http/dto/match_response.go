package dto

import (
	"time"

	"staff-match/internal/domain/criteria"
	"staff-match/internal/usecase"

	"github.com/google/uuid"
)

type MatchItemResponse struct {
	MatchID     uuid.UUID                     `json:"match_id"`
	CandidateID string                        `json:"candidate_id"`
	Rank        int                           `json:"rank"`
	TotalScore  float64                       `json:"total_score"`
	Scores      map[criteria.Category]float64 `json:"scores"`
}

type MatchListResponse struct {
	SubjectKind string              `json:"subject_kind"`
	SubjectID   string              `json:"subject_id"`
	Fingerprint string              `json:"fingerprint"`
	Criteria    criteria.Criteria   `json:"criteria"`
	ComputedAt  time.Time           `json:"computed_at"`
	FromCache   bool                `json:"from_cache"`
	Matches     []MatchItemResponse `json:"matches"`
}

func NewMatchListResponse(res usecase.MatchResult) MatchListResponse {
	out := MatchListResponse{
		SubjectKind: string(res.SubjectKind),
		SubjectID:   res.SubjectID,
		Fingerprint: res.Fingerprint,
		Criteria:    res.Criteria,
		ComputedAt:  res.ComputedAt,
		FromCache:   res.FromCache,
		Matches:     make([]MatchItemResponse, 0, len(res.Matches)),
	}
	for _, m := range res.Matches {
		out.Matches = append(out.Matches, MatchItemResponse{
			MatchID:     m.ID,
			CandidateID: m.CandidateID,
			Rank:        m.Rank,
			TotalScore:  m.TotalScore,
			Scores:      m.Scores,
		})
	}
	return out
}
