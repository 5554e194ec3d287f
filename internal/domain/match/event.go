package match

import (
	"time"

	"staff-match/internal/domain/entity"
)

type EventType string

const (
	EventMatchesComputed  EventType = "matches_computed"
	EventFeedbackRecorded EventType = "feedback_recorded"
	EventCacheInvalidated EventType = "match_cache_invalidated"
)

// Event is the payload pushed to live subscribers. Only the fields relevant to
// Type are set.
type Event struct {
	Type        EventType         `json:"type"`
	SubjectKind entity.Kind       `json:"subject_kind,omitempty"`
	SubjectID   string            `json:"subject_id,omitempty"`
	Fingerprint string            `json:"fingerprint,omitempty"`
	Matches     int               `json:"matches,omitempty"`
	TopScore    float64           `json:"top_score,omitempty"`
	MatchID     string            `json:"match_id,omitempty"`
	Outcome     Outcome           `json:"outcome,omitempty"`
	Signal      *AcceptanceSignal `json:"signal,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}
