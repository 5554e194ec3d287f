package match

import (
	"fmt"
	"strings"
	"time"

	"staff-match/internal/domain/criteria"
	"staff-match/internal/domain/entity"

	"github.com/google/uuid"
)

type Match struct {
	ID          uuid.UUID                     `json:"id"`
	SubjectID   string                        `json:"subject_id"`
	SubjectKind entity.Kind                   `json:"subject_kind"`
	CandidateID string                        `json:"candidate_id"`
	Scores      map[criteria.Category]float64 `json:"scores"`
	TotalScore  float64                       `json:"total_score"`
	Rank        int                           `json:"rank"`
	ComputedAt  time.Time                     `json:"computed_at"`
	Fingerprint string                        `json:"fingerprint"`
}

type Outcome string

const (
	OutcomeAccept Outcome = "accept"
	OutcomeReject Outcome = "reject"
)

func ParseOutcome(s string) (Outcome, error) {
	switch Outcome(strings.ToLower(strings.TrimSpace(s))) {
	case OutcomeAccept:
		return OutcomeAccept, nil
	case OutcomeReject:
		return OutcomeReject, nil
	default:
		return "", fmt.Errorf("unknown outcome %q", s)
	}
}

type Feedback struct {
	ID          uuid.UUID `json:"id"`
	MatchID     uuid.UUID `json:"match_id"`
	ActorID     string    `json:"actor_id"`
	Outcome     Outcome   `json:"outcome"`
	Rating      *int      `json:"rating,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	Fingerprint string    `json:"fingerprint"`
}

type AcceptanceSignal struct {
	Fingerprint    string  `json:"fingerprint"`
	Accepts        int     `json:"accepts"`
	Rejects        int     `json:"rejects"`
	AcceptanceRate float64 `json:"acceptance_rate"`
}

func NewAcceptanceSignal(fingerprint string, accepts, rejects int) AcceptanceSignal {
	s := AcceptanceSignal{Fingerprint: fingerprint, Accepts: accepts, Rejects: rejects}
	if total := accepts + rejects; total > 0 {
		s.AcceptanceRate = float64(accepts) / float64(total)
	}
	return s
}
